package lsp

import (
	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/diag"
	"github.com/quill-lang/quill/internal/lexer"
	"github.com/quill-lang/quill/internal/sema"
)

type Location struct {
	URI   string `json:"uri"`
	Range Range  `json:"range"`
}

func (s *Server) handleDefinition(msg *jsonrpcMessage) *jsonrpcMessage {
	var params TextDocumentPositionParams
	if resp := decodeParams(msg, &params); resp != nil {
		return resp
	}

	doc, ok := s.document(params.TextDocument.URI)
	if !ok || doc.Result == nil || doc.Result.Store == nil {
		return resultResponse(msg.ID, nil)
	}
	return resultResponse(msg.ID, definitionAt(doc, params.Position))
}

// definitionAt resolves the variable or user function under pos. Definitions
// always live in the same document.
func definitionAt(doc *Document, pos Position) *Location {
	n := nodeAt(doc.Result.Script, positionToOffset(doc.Content, pos))
	if n == nil {
		return nil
	}
	view := doc.Result.Store

	var target ast.Node
	switch n := n.(type) {
	case *ast.Symbol, *ast.Declarator:
		if d, ok := view.Decoration(n.ID(), sema.KindVariable); ok {
			target = d.(sema.VariableDecoration).Variable.Node
		}
	case *ast.Call:
		if d, ok := view.Decoration(n.ID(), sema.KindFunction); ok {
			if fn := d.(sema.FunctionDecoration).Function; !fn.IsBuiltin() {
				target = fn.Node
			}
		}
	}
	if target == nil {
		return nil
	}

	return &Location{URI: doc.URI, Range: spanRange(doc.Content, toDiagSpan(target))}
}

func toDiagSpan(n ast.Node) diag.Span {
	return lexer.ToDiagSpan(n.Span())
}
