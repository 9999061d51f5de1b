package sema

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/types"
)

// ErrDuplicateDecoration is returned when a decoration of the same kind is
// written twice to the same node.
var ErrDuplicateDecoration = errors.New("decoration already set")

// Condition is a boolean decoration. Conditions are set-only: once set on a
// node they stay set for the rest of the compilation.
type Condition int

const (
	Read Condition = iota
	Write
	Internal
	Explicit
	LastSource
	BeginLoop
	InLoop
	LastLoop
	Continuous
	MethodEscape
	LoopEscape
	AllEscape
	AnyBreak
	AnyContinue
	Unreachable

	conditionCount
)

var conditionNames = [conditionCount]string{
	Read:         "Read",
	Write:        "Write",
	Internal:     "Internal",
	Explicit:     "Explicit",
	LastSource:   "LastSource",
	BeginLoop:    "BeginLoop",
	InLoop:       "InLoop",
	LastLoop:     "LastLoop",
	Continuous:   "Continuous",
	MethodEscape: "MethodEscape",
	LoopEscape:   "LoopEscape",
	AllEscape:    "AllEscape",
	AnyBreak:     "AnyBreak",
	AnyContinue:  "AnyContinue",
	Unreachable:  "Unreachable",
}

func (c Condition) String() string {
	if c >= 0 && c < conditionCount {
		return conditionNames[c]
	}
	return fmt.Sprintf("Condition(%d)", int(c))
}

// DecorationKind identifies the slot a Decoration occupies on a node.
type DecorationKind int

const (
	KindTargetType DecorationKind = iota
	KindValueType
	KindExpressionCast
	KindVariable
	KindFunction
	KindReturnType
)

var decorationKindNames = map[DecorationKind]string{
	KindTargetType:     "TargetType",
	KindValueType:      "ValueType",
	KindExpressionCast: "ExpressionCast",
	KindVariable:       "Variable",
	KindFunction:       "Function",
	KindReturnType:     "ReturnType",
}

func (k DecorationKind) String() string {
	if name, ok := decorationKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("DecorationKind(%d)", int(k))
}

// Decoration is a typed fact attached to a node by analysis.
type Decoration interface {
	Kind() DecorationKind
}

// TargetType is the type an expression's context expects it to produce.
type TargetType struct{ Type *types.Type }

// ValueType is the type an expression produces before any cast.
type ValueType struct{ Type *types.Type }

// ExpressionCast is a non-identity conversion inserted after an expression.
type ExpressionCast struct{ Cast types.Cast }

// VariableDecoration binds a declaration or symbol to its variable.
type VariableDecoration struct{ Variable *Variable }

// FunctionDecoration binds a call to its resolved target.
type FunctionDecoration struct{ Function *Function }

// ReturnTypeDecoration records the resolved return type of a function.
type ReturnTypeDecoration struct{ Type *types.Type }

func (TargetType) Kind() DecorationKind           { return KindTargetType }
func (ValueType) Kind() DecorationKind            { return KindValueType }
func (ExpressionCast) Kind() DecorationKind       { return KindExpressionCast }
func (VariableDecoration) Kind() DecorationKind   { return KindVariable }
func (FunctionDecoration) Kind() DecorationKind   { return KindFunction }
func (ReturnTypeDecoration) Kind() DecorationKind { return KindReturnType }

// Escapes are the control flow facts of an analyzed statement.
type Escapes struct {
	Method bool
	Loop   bool
	All    bool
}

// View is the read-only access later passes get to a compilation unit's
// decorations once analysis has completed.
type View interface {
	Decoration(id ast.NodeID, kind DecorationKind) (Decoration, bool)
	Condition(id ast.NodeID, c Condition) bool
	Conditions(id ast.NodeID) []Condition
	Escapes(id ast.NodeID) Escapes
	Analyzed(id ast.NodeID) bool

	TargetTypeOf(id ast.NodeID) (*types.Type, bool)
	ValueTypeOf(id ast.NodeID) (*types.Type, bool)
	CastOf(id ast.NodeID) (types.Cast, bool)
}

var _ View = (*Store)(nil)

type decorationKey struct {
	node ast.NodeID
	kind DecorationKind
}

type conditionSet uint32

// Store holds the decorations of one compilation unit, keyed by node ID and
// decoration kind. It is not safe for concurrent use; every unit owns its own.
type Store struct {
	decorations map[decorationKey]Decoration
	conditions  map[ast.NodeID]conditionSet
	analyzed    map[ast.NodeID]struct{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		decorations: make(map[decorationKey]Decoration),
		conditions:  make(map[ast.NodeID]conditionSet),
		analyzed:    make(map[ast.NodeID]struct{}),
	}
}

// Put attaches d to the node. A second write of the same kind to the same node
// fails with ErrDuplicateDecoration and leaves the first value in place.
func (s *Store) Put(id ast.NodeID, d Decoration) error {
	key := decorationKey{node: id, kind: d.Kind()}
	if _, ok := s.decorations[key]; ok {
		return errors.Wrapf(ErrDuplicateDecoration, "%s on node %d", d.Kind(), id)
	}
	s.decorations[key] = d
	return nil
}

// Decoration returns the decoration of the given kind on the node.
func (s *Store) Decoration(id ast.NodeID, kind DecorationKind) (Decoration, bool) {
	d, ok := s.decorations[decorationKey{node: id, kind: kind}]
	return d, ok
}

// SetCondition sets c on the node. Setting a condition twice is a no-op.
func (s *Store) SetCondition(id ast.NodeID, c Condition) {
	s.conditions[id] |= 1 << c
}

// Condition reports whether c is set on the node.
func (s *Store) Condition(id ast.NodeID, c Condition) bool {
	return s.conditions[id]&(1<<c) != 0
}

// Conditions returns the conditions set on the node in declaration order.
func (s *Store) Conditions(id ast.NodeID) []Condition {
	set := s.conditions[id]
	var out []Condition
	for c := Condition(0); c < conditionCount; c++ {
		if set&(1<<c) != 0 {
			out = append(out, c)
		}
	}
	return out
}

func (s *Store) markAnalyzed(id ast.NodeID) {
	s.analyzed[id] = struct{}{}
}

// Analyzed reports whether analysis of the node completed.
func (s *Store) Analyzed(id ast.NodeID) bool {
	_, ok := s.analyzed[id]
	return ok
}

// Escapes returns the escape flags of an analyzed statement. Asking for the
// flags of a node whose analysis has not completed is a programming error.
func (s *Store) Escapes(id ast.NodeID) Escapes {
	if !s.Analyzed(id) {
		panic(fmt.Sprintf("sema: escape flags of node %d read before analysis", id))
	}
	return Escapes{
		Method: s.Condition(id, MethodEscape),
		Loop:   s.Condition(id, LoopEscape),
		All:    s.Condition(id, AllEscape),
	}
}

// TargetTypeOf returns the TargetType decoration of the node.
func (s *Store) TargetTypeOf(id ast.NodeID) (*types.Type, bool) {
	if d, ok := s.Decoration(id, KindTargetType); ok {
		return d.(TargetType).Type, true
	}
	return nil, false
}

// ValueTypeOf returns the ValueType decoration of the node.
func (s *Store) ValueTypeOf(id ast.NodeID) (*types.Type, bool) {
	if d, ok := s.Decoration(id, KindValueType); ok {
		return d.(ValueType).Type, true
	}
	return nil, false
}

// CastOf returns the cast inserted after the node, if any.
func (s *Store) CastOf(id ast.NodeID) (types.Cast, bool) {
	if d, ok := s.Decoration(id, KindExpressionCast); ok {
		return d.(ExpressionCast).Cast, true
	}
	return types.Cast{}, false
}
