package sema

import (
	"fmt"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/lexer"
	"github.com/quill-lang/quill/internal/types"
)

// Variable is a local variable or parameter.
type Variable struct {
	Name string
	Type *types.Type
	Node ast.Node // declarator, parameter owner or catch clause
}

// Function is the resolved target of a call: a user function of the script or
// a builtin (Node is nil).
type Function struct {
	Name       string
	Params     []*types.Type
	ReturnType *types.Type
	Node       *ast.Function
}

// IsBuiltin reports whether f is provided by the host rather than the script.
func (f *Function) IsBuiltin() bool { return f.Node == nil }

type functionKey struct {
	name  string
	arity int
}

// functionTable holds the user functions of one script.
type functionTable map[functionKey]*Function

// unit is the state shared by every scope of one compilation unit.
type unit struct {
	lookup    *types.Lookup
	store     *Store
	functions functionTable
}

// functionScope is the state shared by every block scope of one function.
type functionScope struct {
	*unit
	returnType *types.Type
}

// Scope is the analysis context of one block: the enclosing function's return
// type and decoration store, and the variables visible at this point.
type Scope struct {
	fn     *functionScope
	parent *Scope
	vars   map[string]*Variable
}

// NewScope returns the scope of a function body returning returnType. Every
// decoration written through the scope goes to store.
func NewScope(lookup *types.Lookup, store *Store, returnType *types.Type) *Scope {
	u := &unit{lookup: lookup, store: store, functions: functionTable{}}
	return u.functionScope(returnType)
}

func (u *unit) functionScope(returnType *types.Type) *Scope {
	return &Scope{
		fn:   &functionScope{unit: u, returnType: returnType},
		vars: make(map[string]*Variable),
	}
}

// NewBlockScope returns a child scope for a nested block.
func (s *Scope) NewBlockScope() *Scope {
	return &Scope{fn: s.fn, parent: s, vars: make(map[string]*Variable)}
}

// Lookup returns the type lookup of the compilation unit.
func (s *Scope) Lookup() *types.Lookup { return s.fn.lookup }

// Store returns the decoration store of the compilation unit.
func (s *Scope) Store() *Store { return s.fn.store }

// ReturnType returns the declared return type of the enclosing function.
func (s *Scope) ReturnType() *types.Type { return s.fn.returnType }

// ReturnTypeName returns the canonical name of the declared return type.
func (s *Scope) ReturnTypeName() string {
	return s.fn.lookup.CanonicalName(s.fn.returnType)
}

// SetCondition sets c on node.
func (s *Scope) SetCondition(node ast.Node, c Condition) {
	s.fn.store.SetCondition(node.ID(), c)
}

// ReplicateCondition sets c on to if it is set on from.
func (s *Scope) ReplicateCondition(from, to ast.Node, c Condition) {
	if s.fn.store.Condition(from.ID(), c) {
		s.fn.store.SetCondition(to.ID(), c)
	}
}

// Condition reports whether c is set on node.
func (s *Scope) Condition(node ast.Node, c Condition) bool {
	return s.fn.store.Condition(node.ID(), c)
}

// PutDecoration attaches d to node. See Store.Put.
func (s *Scope) PutDecoration(node ast.Node, d Decoration) error {
	return s.fn.store.Put(node.ID(), d)
}

// Decoration returns the decoration of the given kind on node.
func (s *Scope) Decoration(node ast.Node, kind DecorationKind) (Decoration, bool) {
	return s.fn.store.Decoration(node.ID(), kind)
}

// MustDecoration returns the decoration of the given kind on node and panics
// if it is absent.
func (s *Scope) MustDecoration(node ast.Node, kind DecorationKind) Decoration {
	d, ok := s.fn.store.Decoration(node.ID(), kind)
	if !ok {
		panic(fmt.Sprintf("sema: node %d has no %s decoration", node.ID(), kind))
	}
	return d
}

// CreateError builds an error located at node. It does not abort anything by
// itself; the caller returns it.
func (s *Scope) CreateError(kind Kind, node ast.Node, message string) *Error {
	return errorAt(kind, node.Span(), message)
}

func errorAt(kind Kind, span lexer.Span, message string) *Error {
	return &Error{Kind: kind, Location: span, Message: message}
}

// castError builds the TypeMismatch reported when a value of type actual
// cannot be converted to expected.
func (s *Scope) castError(node ast.Node, expected, actual *types.Type) *Error {
	exp, act := s.fn.lookup.CanonicalName(expected), s.fn.lookup.CanonicalName(actual)
	err := s.CreateError(TypeMismatch, node, castMessage(act, exp))
	err.Expected, err.Actual = exp, act
	return err
}

// DefineVariable declares a variable in this block. Variables may not shadow
// any variable visible in the enclosing function.
func (s *Scope) DefineVariable(name string, typ *types.Type, node ast.Node) (*Variable, error) {
	if _, ok := s.LookupVariable(name); ok {
		return nil, s.CreateError(DuplicateSymbol, node, fmt.Sprintf("Variable [%s] is already defined.", name))
	}
	v := &Variable{Name: name, Type: typ, Node: node}
	s.vars[name] = v
	return v, nil
}

// LookupVariable finds a variable visible from this block.
func (s *Scope) LookupVariable(name string) (*Variable, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// resolveType resolves a type name written in source.
func (s *Scope) resolveType(name string, span lexer.Span) (*types.Type, error) {
	t, ok := s.fn.lookup.Type(name)
	if !ok {
		return nil, errorAt(UndefinedSymbol, span, fmt.Sprintf("Not a type [%s].", name))
	}
	return t, nil
}

// resolveFunction finds a user function, then a builtin, by name and arity.
func (s *Scope) resolveFunction(name string, arity int) (*Function, bool) {
	if f, ok := s.fn.functions[functionKey{name: name, arity: arity}]; ok {
		return f, true
	}
	sig, ok := s.fn.lookup.Builtin(name, arity)
	if !ok {
		return nil, false
	}
	return &Function{Name: sig.Name, Params: sig.Params, ReturnType: sig.Return}, true
}
