package parser

import (
	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/diag"
	"github.com/quill-lang/quill/internal/lexer"
)

type (
	prefixParseFn func() ast.Expr
	infixParseFn  func(ast.Expr) ast.Expr
)

// MainFunctionName is the name given to the main body of a script.
const MainFunctionName = "execute"

type Option func(*options)

type options struct {
	filename       string
	mainReturnType string
	autoReturn     bool
	isType         func(string) bool
}

// WithFilename configures the parser to attribute all emitted spans to the provided filename.
func WithFilename(name string) Option {
	return func(o *options) {
		o.filename = name
	}
}

// WithMainReturnType sets the declared return type of the script's main body.
func WithMainReturnType(name string) Option {
	return func(o *options) {
		o.mainReturnType = name
	}
}

// WithAutoReturn controls whether falling off the end of the main body
// returns the default value of its return type.
func WithAutoReturn(auto bool) Option {
	return func(o *options) {
		o.autoReturn = auto
	}
}

// WithTypeNames lets the parser recognize casts whose operand starts with a
// sign, such as (int) -x, which are otherwise read as arithmetic.
func WithTypeNames(isType func(string) bool) Option {
	return func(o *options) {
		o.isType = isType
	}
}

const (
	precedenceLowest = iota
	precedenceAssign
	precedenceOr
	precedenceAnd
	precedenceEquality
	precedenceComparison
	precedenceSum
	precedenceProduct
	precedencePrefix
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN:   precedenceAssign,
	lexer.OR:       precedenceOr,
	lexer.AND:      precedenceAnd,
	lexer.EQ:       precedenceEquality,
	lexer.NOT_EQ:   precedenceEquality,
	lexer.LT:       precedenceComparison,
	lexer.LE:       precedenceComparison,
	lexer.GT:       precedenceComparison,
	lexer.GE:       precedenceComparison,
	lexer.PLUS:     precedenceSum,
	lexer.MINUS:    precedenceSum,
	lexer.ASTERISK: precedenceProduct,
	lexer.SLASH:    precedenceProduct,
	lexer.PERCENT:  precedenceProduct,
}

// Parser implements a Pratt-style recursive descent parser for scripts.
// Invariants:
//   - Lookahead: curTok is the token under examination and peekTok the next
//     one; tokenBuffer holds tokens pulled early by peekTokenAt. All three only
//     move through nextToken.
//   - Every parse function is entered with curTok on the first token of its
//     construct and returns with curTok on the last token of it.
//   - Diagnostics: errors is an append-only accumulator; parsing continues
//     after an error so a single run reports as much as it can.
type Parser struct {
	lx          *lexer.Lexer
	curTok      lexer.Token
	peekTok     lexer.Token
	tokenBuffer []lexer.Token

	b      *ast.Builder
	errors []ParseError

	filename       string
	mainReturnType string
	autoReturn     bool
	isType         func(string) bool

	prefixFns map[lexer.TokenType]prefixParseFn
	infixFns  map[lexer.TokenType]infixParseFn
}

// New returns a parser initialised with the provided source input.
func New(input string, opts ...Option) *Parser {
	cfg := options{mainReturnType: "def", autoReturn: true}
	for _, opt := range opts {
		opt(&cfg)
	}

	p := &Parser{
		lx:             lexer.New(input),
		b:              ast.NewBuilder(),
		filename:       cfg.filename,
		mainReturnType: cfg.mainReturnType,
		autoReturn:     cfg.autoReturn,
		isType:         cfg.isType,
		prefixFns:      make(map[lexer.TokenType]prefixParseFn),
		infixFns:       make(map[lexer.TokenType]infixParseFn),
	}

	if cfg.filename != "" {
		p.lx.SetFilename(cfg.filename)
	}

	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseNumericLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseDecimalLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBoolLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBoolLiteral)
	p.registerPrefix(lexer.NULL, p.parseNullLiteral)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.PLUS, p.parsePrefixExpr)
	p.registerPrefix(lexer.BANG, p.parsePrefixExpr)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedOrCastExpr)

	p.registerInfix(lexer.ASSIGN, p.parseAssignExpr)
	for _, tt := range []lexer.TokenType{lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.PERCENT} {
		p.registerInfix(tt, p.parseBinaryExpr)
	}
	for _, tt := range []lexer.TokenType{lexer.EQ, lexer.NOT_EQ, lexer.LT, lexer.LE, lexer.GT, lexer.GE} {
		p.registerInfix(tt, p.parseComparisonExpr)
	}
	p.registerInfix(lexer.AND, p.parseBooleanExpr)
	p.registerInfix(lexer.OR, p.parseBooleanExpr)

	// Seed curTok/peekTok.
	p.nextToken()
	p.nextToken()

	return p
}

// Parse parses a whole script. The returned diagnostics hold every lexer and
// parser error; the script is only meaningful when there are none.
func Parse(input string, opts ...Option) (*ast.Script, []diag.Diagnostic) {
	p := New(input, opts...)
	script := p.ParseScript()

	var diags []diag.Diagnostic
	for _, err := range p.lx.Errors {
		diags = append(diags, err.ToDiagnostic())
	}
	for _, err := range p.errors {
		diags = append(diags, err.ToDiagnostic())
	}
	return script, diags
}

// Errors returns all recoverable parse errors that were encountered.
func (p *Parser) Errors() []ParseError {
	return p.errors
}

// ParseScript parses the function declarations and top-level statements of a
// script. Top-level statements form the main body.
func (p *Parser) ParseScript() *ast.Script {
	start := p.curTok.Span

	var functions []*ast.Function
	var stmts []ast.Stmt

	for p.curTok.Type != lexer.EOF {
		prevTok := p.curTok

		if p.atFunctionDecl() {
			if fn := p.parseFunction(); fn != nil {
				functions = append(functions, fn)
				p.nextToken()
				continue
			}
		} else if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
			p.nextToken()
			continue
		}

		p.recoverStatement(prevTok)
	}

	span := mergeSpan(start, p.curTok.Span)
	body := p.b.Block(span, stmts...)
	main := p.b.Function(span, p.mainReturnType, MainFunctionName, nil, body, p.autoReturn)

	return p.b.Script(span, functions, main)
}

// atFunctionDecl reports whether the tokens ahead read `type name (`.
func (p *Parser) atFunctionDecl() bool {
	return p.curTok.Type == lexer.IDENT &&
		p.peekTok.Type == lexer.IDENT &&
		p.peekTokenAt(1).Type == lexer.LPAREN
}

// parseFunction parses `type name(type name, ...) { ... }`.
func (p *Parser) parseFunction() *ast.Function {
	start := p.curTok.Span
	returnType := p.curTok.Literal

	p.nextToken()
	name := p.curTok.Literal

	if !p.expect(lexer.LPAREN) {
		return nil
	}

	var params []*ast.Param
	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
	} else {
		for {
			if !p.expect(lexer.IDENT) {
				return nil
			}
			typeTok := p.curTok
			if !p.expect(lexer.IDENT) {
				return nil
			}
			params = append(params, &ast.Param{
				TypeName: typeTok.Literal,
				Name:     p.curTok.Literal,
				Span:     mergeSpan(typeTok.Span, p.curTok.Span),
			})

			if p.peekTok.Type == lexer.COMMA {
				p.nextToken()
				continue
			}
			if !p.expect(lexer.RPAREN) {
				return nil
			}
			break
		}
	}

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return p.b.Function(mergeSpan(start, body.Span()), returnType, name, params, body, false)
}

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixFns[tokenType] = fn
}
