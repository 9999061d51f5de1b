// Package printer renders a script as an indented tree, one node per line,
// annotated with the facts semantic analysis recorded for it.
package printer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/sema"
)

// Sprint returns the tree rooted at n. view may be nil to print the bare
// tree of a script that failed analysis.
func Sprint(n ast.Node, view sema.View) string {
	s := &printState{}
	// The printer never fails; its callbacks only write to a builder.
	_ = ast.Visit[*printState](n, &printer{view: view}, s)
	return s.b.String()
}

// Fprint writes the tree rooted at n to w.
func Fprint(w io.Writer, n ast.Node, view sema.View) error {
	_, err := io.WriteString(w, Sprint(n, view))
	return err
}

type printState struct {
	b     strings.Builder
	depth int
}

type printer struct {
	view sema.View
}

var _ ast.Visitor[*printState] = (*printer)(nil)

// line writes the line of n and then its children one level deeper.
func (p *printer) line(n ast.Node, s *printState, label string) error {
	s.b.WriteString(strings.Repeat("  ", s.depth))
	s.b.WriteString(label)
	p.annotate(n, s)
	s.b.WriteByte('\n')

	s.depth++
	defer func() { s.depth-- }()
	return ast.VisitChildren[*printState](n, p, s)
}

func (p *printer) annotate(n ast.Node, s *printState) {
	if p.view == nil {
		return
	}
	id := n.ID()

	if t, ok := p.view.ValueTypeOf(id); ok {
		fmt.Fprintf(&s.b, " : %s", t)
	}
	if t, ok := p.view.TargetTypeOf(id); ok {
		fmt.Fprintf(&s.b, " -> %s", t)
	}
	if c, ok := p.view.CastOf(id); ok {
		fmt.Fprintf(&s.b, " cast%s", c)
	}
	if d, ok := p.view.Decoration(id, sema.KindReturnType); ok {
		fmt.Fprintf(&s.b, " returns %s", d.(sema.ReturnTypeDecoration).Type)
	}
	if conds := p.view.Conditions(id); len(conds) > 0 {
		names := make([]string, len(conds))
		for i, c := range conds {
			names[i] = c.String()
		}
		fmt.Fprintf(&s.b, " [%s]", strings.Join(names, " "))
	}
}

func params(fn *ast.Function) string {
	out := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		out[i] = param.TypeName + " " + param.Name
	}
	return strings.Join(out, ", ")
}

func (p *printer) VisitScript(n *ast.Script, s *printState) error {
	return p.line(n, s, "Script")
}

func (p *printer) VisitFunction(n *ast.Function, s *printState) error {
	return p.line(n, s, fmt.Sprintf("Function %s %s(%s)", n.ReturnType, n.Name, params(n)))
}

func (p *printer) VisitBlock(n *ast.Block, s *printState) error { return p.line(n, s, "Block") }
func (p *printer) VisitIf(n *ast.If, s *printState) error       { return p.line(n, s, "If") }
func (p *printer) VisitIfElse(n *ast.IfElse, s *printState) error {
	return p.line(n, s, "IfElse")
}
func (p *printer) VisitWhile(n *ast.While, s *printState) error { return p.line(n, s, "While") }
func (p *printer) VisitDoWhile(n *ast.DoWhile, s *printState) error {
	return p.line(n, s, "DoWhile")
}
func (p *printer) VisitFor(n *ast.For, s *printState) error           { return p.line(n, s, "For") }
func (p *printer) VisitBreak(n *ast.Break, s *printState) error       { return p.line(n, s, "Break") }
func (p *printer) VisitContinue(n *ast.Continue, s *printState) error { return p.line(n, s, "Continue") }
func (p *printer) VisitReturn(n *ast.Return, s *printState) error     { return p.line(n, s, "Return") }
func (p *printer) VisitThrow(n *ast.Throw, s *printState) error       { return p.line(n, s, "Throw") }
func (p *printer) VisitTry(n *ast.Try, s *printState) error           { return p.line(n, s, "Try") }

func (p *printer) VisitCatch(n *ast.Catch, s *printState) error {
	return p.line(n, s, fmt.Sprintf("Catch %s %s", n.TypeName, n.Name))
}

func (p *printer) VisitDeclaration(n *ast.Declaration, s *printState) error {
	return p.line(n, s, "Declaration "+n.TypeName)
}

func (p *printer) VisitDeclarator(n *ast.Declarator, s *printState) error {
	return p.line(n, s, "Declarator "+n.Name)
}

func (p *printer) VisitExpressionStatement(n *ast.ExpressionStatement, s *printState) error {
	return p.line(n, s, "ExpressionStatement")
}

func (p *printer) VisitNumeric(n *ast.Numeric, s *printState) error {
	return p.line(n, s, "Numeric "+n.Text)
}

func (p *printer) VisitDecimal(n *ast.Decimal, s *printState) error {
	return p.line(n, s, "Decimal "+n.Text)
}

func (p *printer) VisitString(n *ast.String, s *printState) error {
	return p.line(n, s, "String "+strconv.Quote(n.Value))
}

func (p *printer) VisitBoolean(n *ast.Boolean, s *printState) error {
	return p.line(n, s, "Boolean "+strconv.FormatBool(n.Value))
}

func (p *printer) VisitNull(n *ast.Null, s *printState) error     { return p.line(n, s, "Null") }
func (p *printer) VisitSymbol(n *ast.Symbol, s *printState) error { return p.line(n, s, "Symbol "+n.Name) }

func (p *printer) VisitAssignment(n *ast.Assignment, s *printState) error {
	return p.line(n, s, "Assignment")
}

func (p *printer) VisitBinary(n *ast.Binary, s *printState) error {
	return p.line(n, s, fmt.Sprintf("Binary %s", n.Op))
}

func (p *printer) VisitComparison(n *ast.Comparison, s *printState) error {
	return p.line(n, s, fmt.Sprintf("Comparison %s", n.Op))
}

func (p *printer) VisitBooleanComp(n *ast.BooleanComp, s *printState) error {
	return p.line(n, s, fmt.Sprintf("BooleanComp %s", n.Op))
}

func (p *printer) VisitUnary(n *ast.Unary, s *printState) error {
	return p.line(n, s, fmt.Sprintf("Unary %s", n.Op))
}

func (p *printer) VisitExplicit(n *ast.Explicit, s *printState) error {
	return p.line(n, s, fmt.Sprintf("Explicit (%s)", n.TypeName))
}

func (p *printer) VisitCall(n *ast.Call, s *printState) error {
	return p.line(n, s, fmt.Sprintf("Call %s/%d", n.Name, len(n.Args)))
}
