package lsp

import (
	"fmt"
	"strings"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/sema"
	"github.com/quill-lang/quill/internal/types"
)

type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

type MarkupContent struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func (s *Server) handleHover(msg *jsonrpcMessage) *jsonrpcMessage {
	var params TextDocumentPositionParams
	if resp := decodeParams(msg, &params); resp != nil {
		return resp
	}

	doc, ok := s.document(params.TextDocument.URI)
	if !ok || doc.Result == nil || doc.Result.Store == nil {
		return resultResponse(msg.ID, nil)
	}
	return resultResponse(msg.ID, hoverAt(doc, params.Position))
}

// nodeAt returns the smallest node whose span contains offset. The main
// function is assembled from top-level statements and its span need not cover
// them all, so the whole tree is searched.
func nodeAt(script *ast.Script, offset int) ast.Node {
	var found ast.Node
	best := -1
	ast.Walk(script, func(n ast.Node) bool {
		span := n.Span()
		if offset >= span.Start && offset < span.End {
			if size := span.End - span.Start; best < 0 || size <= best {
				found, best = n, size
			}
		}
		return true
	})
	return found
}

func hoverAt(doc *Document, pos Position) *Hover {
	n := nodeAt(doc.Result.Script, positionToOffset(doc.Content, pos))
	if n == nil {
		return nil
	}

	text := describe(n, doc.Result.Store)
	if text == "" {
		return nil
	}

	r := spanRange(doc.Content, toDiagSpan(n))
	return &Hover{
		Contents: MarkupContent{Kind: "markdown", Value: "```quill\n" + text + "\n```"},
		Range:    &r,
	}
}

func signature(fn *sema.Function) string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s %s(%s)", fn.ReturnType, fn.Name, strings.Join(params, ", "))
}

// describe renders what analysis recorded about n.
func describe(n ast.Node, view sema.View) string {
	var lines []string

	switch n := n.(type) {
	case *ast.Symbol:
		if d, ok := view.Decoration(n.ID(), sema.KindVariable); ok {
			v := d.(sema.VariableDecoration).Variable
			lines = append(lines, fmt.Sprintf("%s %s", v.Type, v.Name))
		}
	case *ast.Declarator:
		if d, ok := view.Decoration(n.ID(), sema.KindVariable); ok {
			v := d.(sema.VariableDecoration).Variable
			lines = append(lines, fmt.Sprintf("%s %s", v.Type, v.Name))
		}
	case *ast.Call:
		if d, ok := view.Decoration(n.ID(), sema.KindFunction); ok {
			fn := d.(sema.FunctionDecoration).Function
			line := signature(fn)
			if fn.IsBuiltin() {
				line += " // builtin"
			}
			lines = append(lines, line)
		}
	case *ast.Function:
		if d, ok := view.Decoration(n.ID(), sema.KindReturnType); ok {
			lines = append(lines, fmt.Sprintf("returns %s", d.(sema.ReturnTypeDecoration).Type))
		}
	case ast.Stmt:
		if view.Analyzed(n.ID()) {
			if esc := escapeSummary(view.Escapes(n.ID())); esc != "" {
				lines = append(lines, esc)
			}
		}
		if view.Condition(n.ID(), sema.Unreachable) {
			lines = append(lines, "unreachable")
		}
	}

	if _, isCall := n.(*ast.Call); !isCall {
		if t, ok := view.ValueTypeOf(n.ID()); ok && len(lines) == 0 {
			lines = append(lines, t.String())
		}
	}
	if c, ok := view.CastOf(n.ID()); ok {
		lines = append(lines, castSummary(c))
	}
	return strings.Join(lines, "\n")
}

func escapeSummary(e sema.Escapes) string {
	var parts []string
	if e.Method {
		parts = append(parts, "leaves the function")
	}
	if e.Loop {
		parts = append(parts, "leaves the loop")
	}
	if len(parts) == 0 && e.All {
		parts = append(parts, "ends this iteration")
	}
	return strings.Join(parts, ", ")
}

func castSummary(c types.Cast) string {
	return fmt.Sprintf("// %s conversion to %s", c.Kind, c.To)
}
