package sema

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/types"
)

// analyzer walks a compilation unit depth first. Every callback analyzes one
// node against the scope it is handed and records its facts in the scope's
// store; the first error aborts the walk.
type analyzer struct{}

var _ ast.Visitor[*Scope] = analyzer{}

// AnalyzeScript analyzes every function of script and its main body. On
// success the returned Store holds the decorations of every node.
func AnalyzeScript(script *ast.Script, lookup *types.Lookup) (*Store, error) {
	store := NewStore()
	u := &unit{lookup: lookup, store: store, functions: functionTable{}}
	if err := ast.Visit[*Scope](script, analyzer{}, u.functionScope(types.Void)); err != nil {
		return nil, err
	}
	return store, nil
}

// AnalyzeStatement analyzes a single statement of a function body.
func AnalyzeStatement(scope *Scope, stmt ast.Stmt) error {
	return analyzeStatement(scope, stmt)
}

func analyzeStatement(scope *Scope, stmt ast.Stmt) error {
	if err := ast.Visit[*Scope](stmt, analyzer{}, scope); err != nil {
		return err
	}
	scope.Store().markAnalyzed(stmt.ID())
	return nil
}

// analyzeExpression analyzes e and inserts the cast its TargetType requires.
func analyzeExpression(scope *Scope, e ast.Expr) error {
	if err := ast.Visit[*Scope](e, analyzer{}, scope); err != nil {
		return err
	}
	scope.Store().markAnalyzed(e.ID())
	if scope.Condition(e, Read) && valueType(scope, e).IsVoid() {
		return voidValueError(scope, e)
	}
	return castExpression(scope, e)
}

// voidValueError reports a void expression used where a value is read.
func voidValueError(scope *Scope, e ast.Expr) *Error {
	void := scope.Lookup().CanonicalName(types.Void)
	err := scope.CreateError(TypeMismatch, e, fmt.Sprintf("Expression of type [%s] does not produce a value.", void))
	err.Actual = void
	if target, ok := scope.Store().TargetTypeOf(e.ID()); ok {
		err.Expected = scope.Lookup().CanonicalName(target)
	}
	return err
}

// analyzeAs analyzes a value-producing child expected to convert to target.
func analyzeAs(scope *Scope, e ast.Expr, target *types.Type, conds ...Condition) error {
	scope.SetCondition(e, Read)
	if err := scope.PutDecoration(e, TargetType{Type: target}); err != nil {
		return err
	}
	for _, c := range conds {
		scope.SetCondition(e, c)
	}
	return analyzeExpression(scope, e)
}

// castExpression converts the value of an analyzed expression to its
// TargetType. Expressions without a TargetType are left as they are.
func castExpression(scope *Scope, e ast.Expr) error {
	target, ok := scope.Store().TargetTypeOf(e.ID())
	if !ok {
		return nil
	}
	actual := valueType(scope, e)

	cast, err := scope.Lookup().Coercion(actual, target, scope.Condition(e, Explicit), scope.Condition(e, Internal))
	if err != nil {
		if errors.Is(err, types.ErrNotAssignable) {
			return scope.castError(e, target, actual)
		}
		return err
	}
	if cast.IsIdentity() {
		return nil
	}
	return scope.PutDecoration(e, ExpressionCast{Cast: cast})
}

// valueType returns the ValueType of an analyzed expression.
func valueType(scope *Scope, e ast.Expr) *types.Type {
	return scope.MustDecoration(e, KindValueType).(ValueType).Type
}

func setValueType(scope *Scope, e ast.Expr, t *types.Type) error {
	return scope.PutDecoration(e, ValueType{Type: t})
}

func (analyzer) VisitScript(script *ast.Script, root *Scope) error {
	for _, fn := range script.Functions {
		if err := declareFunction(root, fn); err != nil {
			return err
		}
	}
	for _, fn := range script.Functions {
		if err := ast.Visit[*Scope](fn, analyzer{}, root); err != nil {
			return err
		}
	}
	if script.Main != nil {
		if err := ast.Visit[*Scope](script.Main, analyzer{}, root); err != nil {
			return err
		}
	}
	root.Store().markAnalyzed(script.ID())
	return nil
}

// declareFunction adds a user function to the unit's function table so calls
// may precede the definition.
func declareFunction(root *Scope, fn *ast.Function) error {
	returnType, err := root.resolveType(fn.ReturnType, fn.Span())
	if err != nil {
		return err
	}
	params := make([]*types.Type, len(fn.Params))
	for i, p := range fn.Params {
		if params[i], err = root.resolveType(p.TypeName, p.Span); err != nil {
			return err
		}
	}

	key := functionKey{name: fn.Name, arity: len(fn.Params)}
	if _, ok := root.fn.functions[key]; ok {
		return root.CreateError(DuplicateSymbol, fn,
			fmt.Sprintf("Function [%s/%d] is already defined.", fn.Name, len(fn.Params)))
	}
	root.fn.functions[key] = &Function{Name: fn.Name, Params: params, ReturnType: returnType, Node: fn}
	return nil
}

func (analyzer) VisitFunction(fn *ast.Function, root *Scope) error {
	returnType, err := root.resolveType(fn.ReturnType, fn.Span())
	if err != nil {
		return err
	}
	scope := root.fn.unit.functionScope(returnType)
	if err := scope.PutDecoration(fn, ReturnTypeDecoration{Type: returnType}); err != nil {
		return err
	}

	for _, p := range fn.Params {
		typ, err := scope.resolveType(p.TypeName, p.Span)
		if err != nil {
			return err
		}
		if _, err := scope.DefineVariable(p.Name, typ, fn); err != nil {
			return err
		}
	}

	scope.SetCondition(fn.Body, LastSource)
	if err := analyzeStatement(scope, fn.Body); err != nil {
		return err
	}

	if !scope.Condition(fn.Body, MethodEscape) && !returnType.IsVoid() && !fn.AutoReturn {
		return scope.CreateError(MissingReturn, fn, fmt.Sprintf(
			"Not all paths provide a return value for function [%s] with [%d] parameters.", fn.Name, len(fn.Params)))
	}

	scope.Store().markAnalyzed(fn.ID())
	return nil
}
