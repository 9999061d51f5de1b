package ast

import "fmt"

// Visitor has one callback per node kind. S is the traversal scope a pass
// threads through the walk; nodes themselves are not parameterized.
type Visitor[S any] interface {
	VisitScript(*Script, S) error
	VisitFunction(*Function, S) error

	VisitBlock(*Block, S) error
	VisitIf(*If, S) error
	VisitIfElse(*IfElse, S) error
	VisitWhile(*While, S) error
	VisitDoWhile(*DoWhile, S) error
	VisitFor(*For, S) error
	VisitBreak(*Break, S) error
	VisitContinue(*Continue, S) error
	VisitReturn(*Return, S) error
	VisitThrow(*Throw, S) error
	VisitTry(*Try, S) error
	VisitCatch(*Catch, S) error
	VisitDeclaration(*Declaration, S) error
	VisitDeclarator(*Declarator, S) error
	VisitExpressionStatement(*ExpressionStatement, S) error

	VisitNumeric(*Numeric, S) error
	VisitDecimal(*Decimal, S) error
	VisitString(*String, S) error
	VisitBoolean(*Boolean, S) error
	VisitNull(*Null, S) error
	VisitSymbol(*Symbol, S) error
	VisitAssignment(*Assignment, S) error
	VisitBinary(*Binary, S) error
	VisitComparison(*Comparison, S) error
	VisitBooleanComp(*BooleanComp, S) error
	VisitUnary(*Unary, S) error
	VisitExplicit(*Explicit, S) error
	VisitCall(*Call, S) error
}

// Visit dispatches n to the callback of v for its kind.
func Visit[S any](n Node, v Visitor[S], scope S) error {
	switch n := n.(type) {
	case *Script:
		return v.VisitScript(n, scope)
	case *Function:
		return v.VisitFunction(n, scope)
	case *Block:
		return v.VisitBlock(n, scope)
	case *If:
		return v.VisitIf(n, scope)
	case *IfElse:
		return v.VisitIfElse(n, scope)
	case *While:
		return v.VisitWhile(n, scope)
	case *DoWhile:
		return v.VisitDoWhile(n, scope)
	case *For:
		return v.VisitFor(n, scope)
	case *Break:
		return v.VisitBreak(n, scope)
	case *Continue:
		return v.VisitContinue(n, scope)
	case *Return:
		return v.VisitReturn(n, scope)
	case *Throw:
		return v.VisitThrow(n, scope)
	case *Try:
		return v.VisitTry(n, scope)
	case *Catch:
		return v.VisitCatch(n, scope)
	case *Declaration:
		return v.VisitDeclaration(n, scope)
	case *Declarator:
		return v.VisitDeclarator(n, scope)
	case *ExpressionStatement:
		return v.VisitExpressionStatement(n, scope)
	case *Numeric:
		return v.VisitNumeric(n, scope)
	case *Decimal:
		return v.VisitDecimal(n, scope)
	case *String:
		return v.VisitString(n, scope)
	case *Boolean:
		return v.VisitBoolean(n, scope)
	case *Null:
		return v.VisitNull(n, scope)
	case *Symbol:
		return v.VisitSymbol(n, scope)
	case *Assignment:
		return v.VisitAssignment(n, scope)
	case *Binary:
		return v.VisitBinary(n, scope)
	case *Comparison:
		return v.VisitComparison(n, scope)
	case *BooleanComp:
		return v.VisitBooleanComp(n, scope)
	case *Unary:
		return v.VisitUnary(n, scope)
	case *Explicit:
		return v.VisitExplicit(n, scope)
	case *Call:
		return v.VisitCall(n, scope)
	default:
		return fmt.Errorf("ast: unknown node type %T", n)
	}
}

// VisitChildren visits every child of n in source order, whatever its kind,
// and stops at the first error.
func VisitChildren[S any](n Node, v Visitor[S], scope S) error {
	for _, child := range Children(n) {
		if err := Visit(child, v, scope); err != nil {
			return err
		}
	}
	return nil
}

// ChildVisitor implements every callback as plain descent into the children.
// Embed it in a pass and set Self to the embedding visitor so that descent
// dispatches back into the pass's own overrides.
type ChildVisitor[S any] struct {
	Self Visitor[S]
}

func (c *ChildVisitor[S]) self() Visitor[S] {
	if c.Self != nil {
		return c.Self
	}
	return c
}

func (c *ChildVisitor[S]) descend(n Node, scope S) error {
	return VisitChildren(n, c.self(), scope)
}

func (c *ChildVisitor[S]) VisitScript(n *Script, s S) error     { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitFunction(n *Function, s S) error { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitBlock(n *Block, s S) error       { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitIf(n *If, s S) error             { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitIfElse(n *IfElse, s S) error     { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitWhile(n *While, s S) error       { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitDoWhile(n *DoWhile, s S) error   { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitFor(n *For, s S) error           { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitBreak(n *Break, s S) error       { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitContinue(n *Continue, s S) error { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitReturn(n *Return, s S) error     { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitThrow(n *Throw, s S) error       { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitTry(n *Try, s S) error           { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitCatch(n *Catch, s S) error       { return c.descend(n, s) }

func (c *ChildVisitor[S]) VisitDeclaration(n *Declaration, s S) error {
	return c.descend(n, s)
}

func (c *ChildVisitor[S]) VisitDeclarator(n *Declarator, s S) error {
	return c.descend(n, s)
}

func (c *ChildVisitor[S]) VisitExpressionStatement(n *ExpressionStatement, s S) error {
	return c.descend(n, s)
}

func (c *ChildVisitor[S]) VisitNumeric(n *Numeric, s S) error       { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitDecimal(n *Decimal, s S) error       { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitString(n *String, s S) error         { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitBoolean(n *Boolean, s S) error       { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitNull(n *Null, s S) error             { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitSymbol(n *Symbol, s S) error         { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitAssignment(n *Assignment, s S) error { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitBinary(n *Binary, s S) error         { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitComparison(n *Comparison, s S) error { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitUnary(n *Unary, s S) error           { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitExplicit(n *Explicit, s S) error     { return c.descend(n, s) }
func (c *ChildVisitor[S]) VisitCall(n *Call, s S) error             { return c.descend(n, s) }

func (c *ChildVisitor[S]) VisitBooleanComp(n *BooleanComp, s S) error {
	return c.descend(n, s)
}
