// Package lsp serves quill diagnostics, hovers, definitions and completions
// over the Language Server Protocol.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/quill-lang/quill/internal/compiler"
	"github.com/quill-lang/quill/internal/diag"
)

const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// maxMessageSize bounds the body of a single frame.
const maxMessageSize = 32 << 20

var (
	// errExit ends the serve loop after an exit notification.
	errExit = errors.New("exit requested")

	errMessageTooLarge = errors.New("message too large")
)

// Server is a language server over one compiler.
type Server struct {
	log      zerolog.Logger
	compiler *compiler.Compiler

	mu        sync.RWMutex
	documents map[string]*Document

	writeMu sync.Mutex
	out     io.Writer
}

// Document is an open text document and the result of its last compilation.
type Document struct {
	URI     string
	Content string
	Version int
	Result  *compiler.Result
}

func NewServer(c *compiler.Compiler, log zerolog.Logger) *Server {
	return &Server{
		log:       log.With().Str("component", "lsp").Logger(),
		compiler:  c,
		documents: make(map[string]*Document),
	}
}

// Run serves requests read from in until the client sends exit, in is
// exhausted or ctx is done. Responses and notifications are written to out.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.out = out
	reader := bufio.NewReader(in)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := readMessage(reader)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		var msg jsonrpcMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			s.log.Warn().Err(err).Msg("malformed message")
			s.send(errorResponse(nil, codeParseError, err.Error()))
			continue
		}

		response, err := s.handleMessage(&msg)
		if response != nil {
			s.send(response)
		}
		if errors.Is(err, errExit) {
			return nil
		}
	}
}

// readMessage reads one base-protocol frame and returns its body.
func readMessage(r *bufio.Reader) ([]byte, error) {
	contentLength := -1
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) && line == "" {
				return nil, io.EOF
			}
			return nil, errors.Wrap(err, "could not read header")
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		if contentLength, err = strconv.Atoi(strings.TrimSpace(value)); err != nil {
			return nil, errors.Wrapf(err, "invalid Content-Length %q", value)
		}
	}
	if contentLength < 0 {
		return nil, errors.New("message without Content-Length")
	}
	if contentLength > maxMessageSize {
		return nil, errors.Wrapf(errMessageTooLarge, "Content-Length %d exceeds %d bytes", contentLength, maxMessageSize)
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, errors.Wrap(err, "could not read message body")
	}
	return body, nil
}

type jsonrpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorResponse(id interface{}, code int, message string) *jsonrpcMessage {
	return &jsonrpcMessage{JSONRPC: "2.0", ID: id, Error: &jsonrpcError{Code: code, Message: message}}
}

func resultResponse(id interface{}, result interface{}) *jsonrpcMessage {
	return &jsonrpcMessage{JSONRPC: "2.0", ID: id, Result: result}
}

// decodeParams unmarshals the params of msg or returns the error response
// to send instead.
func decodeParams(msg *jsonrpcMessage, params interface{}) *jsonrpcMessage {
	if err := json.Unmarshal(msg.Params, params); err != nil {
		return errorResponse(msg.ID, codeInvalidParams, fmt.Sprintf("Invalid params: %v", err))
	}
	return nil
}

func (s *Server) handleMessage(msg *jsonrpcMessage) (*jsonrpcMessage, error) {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg), nil
	case "initialized":
		return nil, nil
	case "textDocument/didOpen":
		s.handleDidOpen(msg)
		return nil, nil
	case "textDocument/didChange":
		s.handleDidChange(msg)
		return nil, nil
	case "textDocument/didClose":
		s.handleDidClose(msg)
		return nil, nil
	case "textDocument/completion":
		return s.handleCompletion(msg), nil
	case "textDocument/hover":
		return s.handleHover(msg), nil
	case "textDocument/definition":
		return s.handleDefinition(msg), nil
	case "shutdown":
		return resultResponse(msg.ID, nil), nil
	case "exit":
		return nil, errExit
	}

	if msg.ID == nil {
		return nil, nil
	}
	return errorResponse(msg.ID, codeMethodNotFound, "Method not found: "+msg.Method), nil
}

func (s *Server) send(msg *jsonrpcMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Str("method", msg.Method).Msg("could not marshal message")
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := fmt.Fprintf(s.out, "Content-Length: %d\r\n\r\n%s", len(data), data); err != nil {
		s.log.Error().Err(err).Msg("could not write message")
	}
}

type InitializeParams struct {
	ProcessID int    `json:"processId,omitempty"`
	RootURI   string `json:"rootUri,omitempty"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   ServerInfo         `json:"serverInfo"`
}

type ServerCapabilities struct {
	TextDocumentSync   int                    `json:"textDocumentSync"`
	CompletionProvider map[string]interface{} `json:"completionProvider,omitempty"`
	HoverProvider      bool                   `json:"hoverProvider"`
	DefinitionProvider bool                   `json:"definitionProvider"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

const syncFull = 1

func (s *Server) handleInitialize(msg *jsonrpcMessage) *jsonrpcMessage {
	var params InitializeParams
	if resp := decodeParams(msg, &params); resp != nil {
		return resp
	}
	s.log.Info().Str("root", params.RootURI).Msg("client initialized")

	return resultResponse(msg.ID, InitializeResult{
		Capabilities: ServerCapabilities{
			TextDocumentSync:   syncFull,
			CompletionProvider: map[string]interface{}{},
			HoverProvider:      true,
			DefinitionProvider: true,
		},
		ServerInfo: ServerInfo{Name: "quill-lsp", Version: "0.1.0"},
	})
}

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

type TextDocumentContentChangeEvent struct {
	Text string `json:"text"`
}

type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

func (s *Server) handleDidOpen(msg *jsonrpcMessage) {
	var params DidOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn().Err(err).Msg("invalid didOpen params")
		return
	}

	doc := &Document{
		URI:     params.TextDocument.URI,
		Content: params.TextDocument.Text,
		Version: params.TextDocument.Version,
	}
	s.updateDocument(doc)

	s.mu.Lock()
	s.documents[doc.URI] = doc
	s.mu.Unlock()
}

// handleDidChange replaces the document with the last full-text change.
func (s *Server) handleDidChange(msg *jsonrpcMessage) {
	var params DidChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn().Err(err).Msg("invalid didChange params")
		return
	}
	if len(params.ContentChanges) == 0 {
		return
	}

	doc := &Document{
		URI:     params.TextDocument.URI,
		Content: params.ContentChanges[len(params.ContentChanges)-1].Text,
		Version: params.TextDocument.Version,
	}
	s.updateDocument(doc)

	s.mu.Lock()
	s.documents[doc.URI] = doc
	s.mu.Unlock()
}

func (s *Server) handleDidClose(msg *jsonrpcMessage) {
	var params struct {
		TextDocument TextDocumentIdentifier `json:"textDocument"`
	}
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.log.Warn().Err(err).Msg("invalid didClose params")
		return
	}

	s.mu.Lock()
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()

	s.publish(params.TextDocument.URI, []Diagnostic{})
}

func (s *Server) document(uri string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[uri]
	return doc, ok
}

// updateDocument compiles doc and publishes its diagnostics.
func (s *Server) updateDocument(doc *Document) {
	result, err := s.compiler.Compile(compiler.Unit{Name: uriToPath(doc.URI), Source: doc.Content})
	if err != nil {
		s.log.Error().Err(err).Str("uri", doc.URI).Msg("could not compile document")
		return
	}
	doc.Result = result

	diagnostics := make([]Diagnostic, 0, len(result.Diagnostics))
	for _, d := range result.Diagnostics {
		diagnostics = append(diagnostics, Diagnostic{
			Range:    spanRange(doc.Content, d.Span),
			Severity: diagnosticSeverity(d.Severity),
			Message:  d.Message,
			Code:     string(d.Code),
			Source:   "quill",
		})
	}
	s.publish(doc.URI, diagnostics)
}

type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

func (s *Server) publish(uri string, diagnostics []Diagnostic) {
	params, err := json.Marshal(PublishDiagnosticsParams{URI: uri, Diagnostics: diagnostics})
	if err != nil {
		s.log.Error().Err(err).Msg("could not marshal diagnostics")
		return
	}
	s.send(&jsonrpcMessage{JSONRPC: "2.0", Method: "textDocument/publishDiagnostics", Params: params})
}

type Diagnostic struct {
	Range    Range  `json:"range"`
	Severity int    `json:"severity"`
	Message  string `json:"message"`
	Code     string `json:"code,omitempty"`
	Source   string `json:"source,omitempty"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Position is zero-based. Character counts runes, matching lexer offsets.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

func diagnosticSeverity(sev diag.Severity) int {
	switch sev {
	case diag.SeverityWarning:
		return 2
	case diag.SeverityNote:
		return 3
	default:
		return 1
	}
}

// spanRange converts a rune-offset span of content into an LSP range.
func spanRange(content string, span diag.Span) Range {
	start := Position{Line: span.Line - 1, Character: span.Column - 1}
	if start.Line < 0 || start.Character < 0 {
		start = Position{}
	}
	end := start
	if span.End > span.Start {
		end = offsetToPosition(content, span.End)
	}
	return Range{Start: start, End: end}
}

func positionToOffset(content string, pos Position) int {
	line, col, offset := 0, 0, 0
	for _, r := range content {
		if line == pos.Line && col == pos.Character {
			return offset
		}
		if r == '\n' {
			if line == pos.Line {
				return offset
			}
			line++
			col = 0
		} else {
			col++
		}
		offset++
	}
	return offset
}

func offsetToPosition(content string, offset int) Position {
	var pos Position
	i := 0
	for _, r := range content {
		if i == offset {
			break
		}
		if r == '\n' {
			pos.Line++
			pos.Character = 0
		} else {
			pos.Character++
		}
		i++
	}
	return pos
}

func uriToPath(uri string) string {
	path, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return uri
	}
	// file:///C:/x names the Windows path C:/x.
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return path
}
