package sema

import (
	"github.com/pkg/errors"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/types"
)

var (
	escapeConditions = []Condition{MethodEscape, LoopEscape, AllEscape}
	branchConditions = []Condition{AnyBreak, AnyContinue}
)

func setConditions(scope *Scope, node ast.Node, conds ...Condition) {
	for _, c := range conds {
		scope.SetCondition(node, c)
	}
}

func replicateConditions(scope *Scope, from, to ast.Node, conds ...Condition) {
	for _, c := range conds {
		scope.ReplicateCondition(from, to, c)
	}
}

// inheritContext passes the position facts of a compound statement down to a
// nested block that ends where the statement ends.
func inheritContext(scope *Scope, from, to ast.Node) {
	replicateConditions(scope, from, to, LastSource, InLoop, LastLoop)
}

func isLiteralTrue(e ast.Expr) bool {
	b, ok := e.(*ast.Boolean)
	return ok && b.Value
}

// analyzeEffect analyzes an expression evaluated only for its side effect.
func analyzeEffect(scope *Scope, e ast.Expr) error {
	switch e.(type) {
	case *ast.Assignment, *ast.Call:
		return analyzeExpression(scope, e)
	default:
		return scope.CreateError(NotAStatement, e, "Not a statement.")
	}
}

func (analyzer) VisitBlock(block *ast.Block, scope *Scope) error {
	inner := scope.NewBlockScope()
	escaped := false
	last := len(block.Stmts) - 1

	for i, stmt := range block.Stmts {
		if escaped {
			inner.SetCondition(stmt, Unreachable)
		}
		inner.ReplicateCondition(block, stmt, InLoop)
		if i == last {
			inner.ReplicateCondition(block, stmt, LastSource)
			inner.ReplicateCondition(block, stmt, LastLoop)
		}

		if err := analyzeStatement(inner, stmt); err != nil {
			return err
		}

		replicateConditions(scope, stmt, block, escapeConditions...)
		replicateConditions(scope, stmt, block, branchConditions...)
		escaped = escaped || scope.Condition(stmt, AllEscape)
	}
	return nil
}

func (analyzer) VisitIf(n *ast.If, scope *Scope) error {
	if err := analyzeAs(scope, n.Condition, types.Boolean); err != nil {
		return err
	}
	if n.Then == nil {
		return nil
	}

	inheritContext(scope, n, n.Then)
	if err := analyzeStatement(scope, n.Then); err != nil {
		return err
	}
	replicateConditions(scope, n.Then, n, branchConditions...)
	return nil
}

func (analyzer) VisitIfElse(n *ast.IfElse, scope *Scope) error {
	if err := analyzeAs(scope, n.Condition, types.Boolean); err != nil {
		return err
	}

	for _, branch := range []*ast.Block{n.Then, n.Else} {
		if branch == nil {
			continue
		}
		inheritContext(scope, n, branch)
		if err := analyzeStatement(scope, branch); err != nil {
			return err
		}
		replicateConditions(scope, branch, n, branchConditions...)
	}

	if n.Then == nil || n.Else == nil {
		return nil
	}
	for _, c := range escapeConditions {
		if scope.Condition(n.Then, c) && scope.Condition(n.Else, c) {
			scope.SetCondition(n, c)
		}
	}
	return nil
}

// analyzeLoopBody analyzes the body of loop. LoopEscape and the branch
// conditions of the body stop at the loop.
func analyzeLoopBody(scope *Scope, body *ast.Block) error {
	if body == nil {
		return nil
	}
	setConditions(scope, body, BeginLoop, InLoop, LastLoop)
	return analyzeStatement(scope, body)
}

// finishLoop sets the escapes of a loop that can only be left by break.
func finishLoop(scope *Scope, loop ast.Node, body *ast.Block) {
	if !scope.Condition(loop, Continuous) {
		return
	}
	if body != nil && scope.Condition(body, AnyBreak) {
		return
	}
	setConditions(scope, loop, MethodEscape, AllEscape)
}

func (analyzer) VisitWhile(n *ast.While, scope *Scope) error {
	if err := analyzeAs(scope, n.Condition, types.Boolean); err != nil {
		return err
	}
	if isLiteralTrue(n.Condition) {
		scope.SetCondition(n, Continuous)
	}

	if err := analyzeLoopBody(scope, n.Body); err != nil {
		return err
	}
	finishLoop(scope, n, n.Body)
	return nil
}

func (analyzer) VisitDoWhile(n *ast.DoWhile, scope *Scope) error {
	if err := analyzeLoopBody(scope, n.Body); err != nil {
		return err
	}

	if err := analyzeAs(scope, n.Condition, types.Boolean); err != nil {
		return err
	}
	if isLiteralTrue(n.Condition) {
		scope.SetCondition(n, Continuous)
	}
	finishLoop(scope, n, n.Body)

	// The body runs at least once, so a body that always returns makes the
	// loop return unless a break or continue path leads around it.
	if n.Body != nil &&
		scope.Condition(n.Body, MethodEscape) &&
		!scope.Condition(n.Body, AnyBreak) &&
		!scope.Condition(n.Body, AnyContinue) {
		setConditions(scope, n, MethodEscape, AllEscape)
	}
	return nil
}

func (analyzer) VisitFor(n *ast.For, scope *Scope) error {
	inner := scope.NewBlockScope()

	switch init := n.Init.(type) {
	case nil:
	case *ast.Declaration:
		if err := analyzeStatement(inner, init); err != nil {
			return err
		}
	case ast.Expr:
		if err := analyzeEffect(inner, init); err != nil {
			return err
		}
	default:
		return errors.Errorf("sema: invalid for initializer %T", n.Init)
	}

	if n.Condition == nil {
		inner.SetCondition(n, Continuous)
	} else {
		if err := analyzeAs(inner, n.Condition, types.Boolean); err != nil {
			return err
		}
		if isLiteralTrue(n.Condition) {
			inner.SetCondition(n, Continuous)
		}
	}

	if n.Update != nil {
		if err := analyzeEffect(inner, n.Update); err != nil {
			return err
		}
	}

	if err := analyzeLoopBody(inner, n.Body); err != nil {
		return err
	}
	finishLoop(inner, n, n.Body)
	return nil
}

func (analyzer) VisitBreak(n *ast.Break, scope *Scope) error {
	if !scope.Condition(n, InLoop) {
		return scope.CreateError(InvalidBreak, n, "Break statement outside of a loop.")
	}
	setConditions(scope, n, LoopEscape, AllEscape, AnyBreak)
	return nil
}

func (analyzer) VisitContinue(n *ast.Continue, scope *Scope) error {
	if !scope.Condition(n, InLoop) {
		return scope.CreateError(InvalidContinue, n, "Continue statement outside of a loop.")
	}
	if scope.Condition(n, LastLoop) {
		return scope.CreateError(Extraneous, n, "Extraneous continue statement.")
	}
	setConditions(scope, n, AllEscape, AnyContinue)
	return nil
}

func (analyzer) VisitReturn(n *ast.Return, scope *Scope) error {
	if n.Value == nil {
		if !scope.ReturnType().IsVoid() {
			declared, void := scope.ReturnTypeName(), scope.Lookup().CanonicalName(types.Void)
			err := scope.CreateError(TypeMismatch, n, castMessage(declared, void))
			err.Expected, err.Actual = declared, void
			return err
		}
	} else if err := analyzeAs(scope, n.Value, scope.ReturnType(), Internal); err != nil {
		return err
	}

	setConditions(scope, n, MethodEscape, LoopEscape, AllEscape)
	return nil
}

func (analyzer) VisitThrow(n *ast.Throw, scope *Scope) error {
	if err := analyzeAs(scope, n.Value, types.Exception); err != nil {
		return err
	}
	setConditions(scope, n, MethodEscape, LoopEscape, AllEscape)
	return nil
}

func (analyzer) VisitTry(n *ast.Try, scope *Scope) error {
	inheritContext(scope, n, n.Body)
	if err := analyzeStatement(scope, n.Body); err != nil {
		return err
	}

	escapes := make(map[Condition]bool, len(escapeConditions))
	for _, c := range escapeConditions {
		escapes[c] = scope.Condition(n.Body, c)
	}
	replicateConditions(scope, n.Body, n, branchConditions...)

	for _, catch := range n.Catches {
		inheritContext(scope, n, catch)
		if err := analyzeStatement(scope, catch); err != nil {
			return err
		}
		for _, c := range escapeConditions {
			escapes[c] = escapes[c] && scope.Condition(catch, c)
		}
		replicateConditions(scope, catch, n, branchConditions...)
	}

	for _, c := range escapeConditions {
		if escapes[c] {
			scope.SetCondition(n, c)
		}
	}
	return nil
}

func (analyzer) VisitCatch(n *ast.Catch, scope *Scope) error {
	typ, err := scope.resolveType(n.TypeName, n.Span())
	if err != nil {
		return err
	}
	if !typ.IsSubtypeOf(types.Exception) {
		return scope.castError(n, types.Exception, typ)
	}

	inner := scope.NewBlockScope()
	v, err := inner.DefineVariable(n.Name, typ, n)
	if err != nil {
		return err
	}
	if err := inner.PutDecoration(n, VariableDecoration{Variable: v}); err != nil {
		return err
	}

	if n.Body == nil {
		return nil
	}
	inheritContext(inner, n, n.Body)
	if err := analyzeStatement(inner, n.Body); err != nil {
		return err
	}
	replicateConditions(inner, n.Body, n, escapeConditions...)
	replicateConditions(inner, n.Body, n, branchConditions...)
	return nil
}

func (analyzer) VisitDeclaration(n *ast.Declaration, scope *Scope) error {
	typ, err := scope.resolveType(n.TypeName, n.Span())
	if err != nil {
		return err
	}
	for _, d := range n.Declarators {
		if err := scope.PutDecoration(d, TargetType{Type: typ}); err != nil {
			return err
		}
		if err := analyzeStatement(scope, d); err != nil {
			return err
		}
	}
	return nil
}

// VisitDeclarator expects the enclosing declaration to have attached the
// declared type as the declarator's TargetType.
func (analyzer) VisitDeclarator(n *ast.Declarator, scope *Scope) error {
	typ, ok := scope.Store().TargetTypeOf(n.ID())
	if !ok {
		return errors.Errorf("sema: declarator %q analyzed outside a declaration", n.Name)
	}

	if n.Value != nil {
		if err := analyzeAs(scope, n.Value, typ); err != nil {
			return err
		}
	}

	v, err := scope.DefineVariable(n.Name, typ, n)
	if err != nil {
		return err
	}
	return scope.PutDecoration(n, VariableDecoration{Variable: v})
}

func (analyzer) VisitExpressionStatement(n *ast.ExpressionStatement, scope *Scope) error {
	rtn := scope.ReturnType()
	implicit := scope.Condition(n, LastSource) && !rtn.IsVoid()

	if implicit {
		// A trailing call may be void, in which case it is a plain statement.
		if _, call := n.Expr.(*ast.Call); !call {
			scope.SetCondition(n.Expr, Read)
		}
		if err := analyzeExpression(scope, n.Expr); err != nil {
			return err
		}
	} else if err := analyzeEffect(scope, n.Expr); err != nil {
		return err
	}

	if !implicit || valueType(scope, n.Expr).IsVoid() {
		return nil
	}

	// The value of the last statement of a function body is its result.
	scope.SetCondition(n.Expr, Read)
	if err := scope.PutDecoration(n.Expr, TargetType{Type: rtn}); err != nil {
		return err
	}
	scope.SetCondition(n.Expr, Internal)
	if err := castExpression(scope, n.Expr); err != nil {
		return err
	}
	setConditions(scope, n, MethodEscape, LoopEscape, AllEscape)
	return nil
}
