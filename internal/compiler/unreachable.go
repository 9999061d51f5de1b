package compiler

import (
	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/diag"
	"github.com/quill-lang/quill/internal/lexer"
	"github.com/quill-lang/quill/internal/sema"
)

// unreachableFinder reports the first unreachable statement of every block.
type unreachableFinder struct {
	ast.ChildVisitor[*[]diag.Diagnostic]
	view sema.View
}

func findUnreachable(script *ast.Script, view sema.View) []diag.Diagnostic {
	f := &unreachableFinder{view: view}
	f.Self = f

	var out []diag.Diagnostic
	// Descent only appends, so it cannot fail.
	_ = ast.Visit[*[]diag.Diagnostic](script, f, &out)
	return out
}

func (f *unreachableFinder) VisitBlock(n *ast.Block, out *[]diag.Diagnostic) error {
	for _, stmt := range n.Stmts {
		if f.view.Condition(stmt.ID(), sema.Unreachable) {
			*out = append(*out, unreachableDiagnostic(stmt))
			break
		}
	}
	return f.ChildVisitor.VisitBlock(n, out)
}

func unreachableDiagnostic(stmt ast.Stmt) diag.Diagnostic {
	span := lexer.ToDiagSpan(stmt.Span())
	return diag.Diagnostic{
		Stage:    diag.StageAnalysis,
		Severity: diag.SeverityWarning,
		Code:     diag.CodeUnreachableCode,
		Message:  "unreachable statement",
		Span:     span,
	}.WithPrimarySpan(span, "never executed").
		WithHelp("every path before this statement leaves the block")
}
