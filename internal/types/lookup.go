package types

import (
	"errors"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrNotAssignable is returned by Coercion when no legal conversion exists.
var ErrNotAssignable = errors.New("not assignable")

// DefaultCoercionCacheSize bounds the number of memoized coercion decisions.
const DefaultCoercionCacheSize = 1024

// CastKind says how a value is converted from its actual type to the type its
// context expects.
type CastKind int

const (
	CastIdentity CastKind = iota
	CastNumeric           // primitive widening or narrowing
	CastBox               // primitive to its box, optionally followed by an upcast
	CastUnbox             // box to its primitive
	CastUpcast            // reference to a supertype
	CastDowncast          // reference to a subtype, checked at run time
	CastToDef             // any value to def
	CastFromDef           // def to a static type, checked at run time
)

var castKindNames = map[CastKind]string{
	CastIdentity: "identity",
	CastNumeric:  "numeric",
	CastBox:      "box",
	CastUnbox:    "unbox",
	CastUpcast:   "upcast",
	CastDowncast: "downcast",
	CastToDef:    "to-def",
	CastFromDef:  "from-def",
}

func (k CastKind) String() string {
	if name, ok := castKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("cast-kind(%d)", int(k))
}

// Cast is a conversion plan the backend emits for an expression.
type Cast struct {
	From     *Type
	To       *Type
	Kind     CastKind
	Explicit bool
}

// IsIdentity reports whether the cast is a no-op.
func (c Cast) IsIdentity() bool { return c.Kind == CastIdentity }

func (c Cast) String() string {
	return fmt.Sprintf("(%s %s -> %s)", c.Kind, c.From, c.To)
}

// Signature is the static signature of a builtin function.
type Signature struct {
	Name   string
	Params []*Type
	Return *Type
}

type castKey struct {
	from, to           *Type
	explicit, internal bool
}

type castResult struct {
	kind CastKind
	ok   bool
}

// Lookup resolves type names and decides coercions. It is read-only after
// construction apart from its coercion memo, which is safe for concurrent use,
// so one Lookup may serve many compilation units at once.
type Lookup struct {
	types    map[string]*Type
	builtins map[string][]*Signature
	casts    *lru.Cache[castKey, castResult]
}

type options struct {
	cacheSize int
}

// Option configures a Lookup.
type Option func(*options)

// WithCoercionCacheSize sets how many coercion decisions are memoized.
func WithCoercionCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// NewLookup returns a Lookup over the builtin types and functions.
func NewLookup(opts ...Option) (*Lookup, error) {
	cfg := options{cacheSize: DefaultCoercionCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	casts, err := lru.New[castKey, castResult](cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create coercion cache: %w", err)
	}

	l := &Lookup{
		types:    make(map[string]*Type, len(builtinTypes)),
		builtins: make(map[string][]*Signature),
		casts:    casts,
	}
	for _, t := range builtinTypes {
		l.types[t.name] = t
	}
	l.addBuiltin("print", Void, Def)
	l.addBuiltin("str", String, Def)
	l.addBuiltin("abs", Int, Int)
	l.addBuiltin("abs", Double, Double)
	l.addBuiltin("max", Int, Int, Int)
	l.addBuiltin("min", Int, Int, Int)

	return l, nil
}

func (l *Lookup) addBuiltin(name string, ret *Type, params ...*Type) {
	l.builtins[name] = append(l.builtins[name], &Signature{Name: name, Params: params, Return: ret})
}

// Type resolves a type name.
func (l *Lookup) Type(name string) (*Type, bool) {
	t, ok := l.types[name]
	return t, ok
}

// IsTypeName reports whether name denotes a type.
func (l *Lookup) IsTypeName(name string) bool {
	_, ok := l.types[name]
	return ok
}

// CanonicalName returns the name of t used in diagnostics.
func (l *Lookup) CanonicalName(t *Type) string {
	if t == nil {
		return "<unknown>"
	}
	return t.name
}

// Types returns every named type in declaration order.
func (l *Lookup) Types() []*Type {
	out := make([]*Type, len(builtinTypes))
	copy(out, builtinTypes)
	return out
}

// Builtins returns every builtin signature, overloads included, sorted by
// name.
func (l *Lookup) Builtins() []*Signature {
	names := make([]string, 0, len(l.builtins))
	for name := range l.builtins {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []*Signature
	for _, name := range names {
		out = append(out, l.builtins[name]...)
	}
	return out
}

// Builtin resolves a builtin function by name and arity. Overloads of the same
// arity are resolved to the first declared.
func (l *Lookup) Builtin(name string, arity int) (*Signature, bool) {
	for _, sig := range l.builtins[name] {
		if len(sig.Params) == arity {
			return sig, true
		}
	}
	return nil, false
}

// Coercion decides how a value of type from converts to type to. explicit
// marks a cast written in source; internal permits boxing conversions that
// are not allowed in general user-facing assignments.
func (l *Lookup) Coercion(from, to *Type, explicit, internal bool) (Cast, error) {
	key := castKey{from: from, to: to, explicit: explicit, internal: internal}

	res, ok := l.casts.Get(key)
	if !ok {
		res.kind, res.ok = legalCast(from, to, explicit, internal)
		l.casts.Add(key, res)
	}

	if !res.ok {
		return Cast{}, fmt.Errorf("%w: cannot cast from [%s] to [%s]", ErrNotAssignable, l.CanonicalName(from), l.CanonicalName(to))
	}
	return Cast{From: from, To: to, Kind: res.kind, Explicit: explicit}, nil
}

func legalCast(from, to *Type, explicit, internal bool) (CastKind, bool) {
	switch {
	case from == to:
		return CastIdentity, true
	case from.IsVoid() || to.IsVoid():
		return 0, false
	case to.IsDef():
		return CastToDef, true
	case from.IsDef():
		return CastFromDef, true
	}

	boxing := internal || explicit

	switch {
	case from.IsPrimitive() && to.IsPrimitive():
		if from.sort == SortBoolean || to.sort == SortBoolean {
			return 0, false
		}
		if widens(from, to) || explicit {
			return CastNumeric, true
		}
		return 0, false

	case from.IsPrimitive():
		if boxing && (from.boxed == to || from.boxed.IsSubtypeOf(to)) {
			return CastBox, true
		}
		return 0, false

	case to.IsPrimitive():
		if boxing && from.unboxed == to {
			return CastUnbox, true
		}
		return 0, false

	case from.IsSubtypeOf(to):
		return CastUpcast, true

	case explicit && to.IsSubtypeOf(from):
		return CastDowncast, true
	}

	return 0, false
}
