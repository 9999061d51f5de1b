package ast

// Walk traverses the AST starting from node, calling fn for each node.
// If fn returns false, Walk stops traversing that branch.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	for _, child := range Children(node) {
		Walk(child, fn)
	}
}

// Children returns the direct children of n in source order, skipping absent
// optional children.
func Children(n Node) []Node {
	var out []Node
	push := func(c Node) {
		if !isNil(c) {
			out = append(out, c)
		}
	}

	switch n := n.(type) {
	case *Script:
		for _, fn := range n.Functions {
			push(fn)
		}
		push(n.Main)

	case *Function:
		push(n.Body)

	case *Block:
		for _, stmt := range n.Stmts {
			push(stmt)
		}

	case *If:
		push(n.Condition)
		push(n.Then)

	case *IfElse:
		push(n.Condition)
		push(n.Then)
		push(n.Else)

	case *While:
		push(n.Condition)
		push(n.Body)

	case *DoWhile:
		push(n.Body)
		push(n.Condition)

	case *For:
		push(n.Init)
		push(n.Condition)
		push(n.Update)
		push(n.Body)

	case *Break, *Continue:
		// No children to traverse

	case *Return:
		push(n.Value)

	case *Throw:
		push(n.Value)

	case *Try:
		push(n.Body)
		for _, catch := range n.Catches {
			push(catch)
		}

	case *Catch:
		push(n.Body)

	case *Declaration:
		for _, d := range n.Declarators {
			push(d)
		}

	case *Declarator:
		push(n.Value)

	case *ExpressionStatement:
		push(n.Expr)

	case *Assignment:
		push(n.Target)
		push(n.Value)

	case *Binary:
		push(n.Left)
		push(n.Right)

	case *Comparison:
		push(n.Left)
		push(n.Right)

	case *BooleanComp:
		push(n.Left)
		push(n.Right)

	case *Unary:
		push(n.Operand)

	case *Explicit:
		push(n.Value)

	case *Call:
		for _, arg := range n.Args {
			push(arg)
		}
	}

	return out
}

// isNil reports whether n is nil, including typed nil pointers stored in an
// interface (an absent *Block or Expr field).
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Function:
		return n == nil
	case *Block:
		return n == nil
	case *Catch:
		return n == nil
	case *Declarator:
		return n == nil
	case *Declaration:
		return n == nil
	}
	return false
}
