package lsp

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/types"
)

type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

type CompletionItem struct {
	Label  string `json:"label"`
	Kind   int    `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

const (
	completionKindFunction = 3
	completionKindVariable = 6
	completionKindClass    = 7
	completionKindKeyword  = 14
)

var keywords = []string{
	"if", "else", "while", "do", "for", "break", "continue",
	"return", "throw", "try", "catch", "true", "false", "null",
}

func (s *Server) handleCompletion(msg *jsonrpcMessage) *jsonrpcMessage {
	var params TextDocumentPositionParams
	if resp := decodeParams(msg, &params); resp != nil {
		return resp
	}

	doc, ok := s.document(params.TextDocument.URI)
	if !ok {
		return resultResponse(msg.ID, CompletionList{Items: []CompletionItem{}})
	}

	offset := positionToOffset(doc.Content, params.Position)
	prefix := identifierBefore(doc.Content, offset)
	items := filterPrefix(completions(doc, s.compiler.Lookup()), prefix)
	return resultResponse(msg.ID, CompletionList{Items: items})
}

// completions lists every name usable in doc: its variables and functions,
// then builtins, types and keywords. Variables come from the parsed tree, so
// they are offered even when analysis failed.
func completions(doc *Document, lookup *types.Lookup) []CompletionItem {
	var items []CompletionItem
	seen := map[string]bool{}
	add := func(item CompletionItem) {
		key := fmt.Sprintf("%d/%s/%s", item.Kind, item.Label, item.Detail)
		if !seen[key] {
			seen[key] = true
			items = append(items, item)
		}
	}

	if doc.Result != nil && doc.Result.Script != nil {
		var locals []CompletionItem
		ast.Walk(doc.Result.Script, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.Function:
				for _, p := range n.Params {
					locals = append(locals, CompletionItem{Label: p.Name, Kind: completionKindVariable, Detail: p.TypeName})
				}
			case *ast.Declaration:
				for _, d := range n.Declarators {
					locals = append(locals, CompletionItem{Label: d.Name, Kind: completionKindVariable, Detail: n.TypeName})
				}
			case *ast.Catch:
				locals = append(locals, CompletionItem{Label: n.Name, Kind: completionKindVariable, Detail: n.TypeName})
			}
			return true
		})
		sort.SliceStable(locals, func(i, j int) bool { return locals[i].Label < locals[j].Label })
		for _, item := range locals {
			add(item)
		}

		for _, fn := range doc.Result.Script.Functions {
			params := make([]string, len(fn.Params))
			for i, p := range fn.Params {
				params[i] = p.TypeName
			}
			add(CompletionItem{
				Label:  fn.Name,
				Kind:   completionKindFunction,
				Detail: fmt.Sprintf("%s %s(%s)", fn.ReturnType, fn.Name, strings.Join(params, ", ")),
			})
		}
	}

	for _, sig := range lookup.Builtins() {
		params := make([]string, len(sig.Params))
		for i, p := range sig.Params {
			params[i] = p.String()
		}
		add(CompletionItem{
			Label:  sig.Name,
			Kind:   completionKindFunction,
			Detail: fmt.Sprintf("%s %s(%s)", sig.Return, sig.Name, strings.Join(params, ", ")),
		})
	}
	for _, t := range lookup.Types() {
		add(CompletionItem{Label: t.String(), Kind: completionKindClass})
	}
	for _, kw := range keywords {
		add(CompletionItem{Label: kw, Kind: completionKindKeyword})
	}
	return items
}

func isIdentRune(r rune) bool {
	return r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
}

// identifierBefore returns the partial identifier ending at the rune offset.
func identifierBefore(content string, offset int) string {
	runes := []rune(content)
	if offset > len(runes) {
		offset = len(runes)
	}
	start := offset
	for start > 0 && isIdentRune(runes[start-1]) {
		start--
	}
	return string(runes[start:offset])
}

func filterPrefix(items []CompletionItem, prefix string) []CompletionItem {
	out := make([]CompletionItem, 0, len(items))
	for _, item := range items {
		if strings.HasPrefix(item.Label, prefix) {
			out = append(out, item)
		}
	}
	return out
}
