package parser

import (
	"strings"

	"github.com/quill-lang/quill/internal/lexer"
)

// nextToken advances the parser's token window.
// Contract: after calling nextToken, curTok == old(peekTok). The lexer is only
// queried from here and from peekTokenAt to keep lookahead bookkeeping
// centralized.
func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	if len(p.tokenBuffer) > 0 {
		p.peekTok = p.tokenBuffer[0]
		p.tokenBuffer = p.tokenBuffer[1:]
		return
	}
	p.peekTok = p.lx.NextToken()
}

// peekTokenAt returns the token n positions after peekTok without consuming
// anything. peekTokenAt(0) is peekTok.
func (p *Parser) peekTokenAt(n int) lexer.Token {
	if n == 0 {
		return p.peekTok
	}
	for len(p.tokenBuffer) < n {
		tok := p.lx.NextToken()
		p.tokenBuffer = append(p.tokenBuffer, tok)
		if tok.Type == lexer.EOF {
			break
		}
	}
	if len(p.tokenBuffer) >= n {
		return p.tokenBuffer[n-1]
	}
	return lexer.Token{Type: lexer.EOF}
}

// expect asserts that the peek token matches the provided type.
// The caller is responsible for inspecting curTok before invoking expect,
// because expect never rewinds; on success it promotes peekTok into curTok.
func (p *Parser) expect(tt lexer.TokenType) bool {
	if p.peekTok.Type == tt {
		p.nextToken()
		return true
	}

	p.reportError("expected "+describe(tt)+", found "+describeToken(p.peekTok), p.peekTok.Span)
	return false
}

// endStatement consumes the ';' closing a statement. The ';' may be left out
// before a closing '}' and at the end of the script.
func (p *Parser) endStatement() bool {
	switch p.peekTok.Type {
	case lexer.SEMICOLON:
		p.nextToken()
		return true
	case lexer.RBRACE, lexer.EOF:
		return true
	}
	p.reportError("expected ';', found "+describeToken(p.peekTok), p.peekTok.Span)
	return false
}

func describe(tt lexer.TokenType) string {
	switch tt {
	case lexer.IDENT:
		return "identifier"
	case lexer.EOF:
		return "end of input"
	case lexer.INT, lexer.FLOAT:
		return "number"
	case lexer.STRING:
		return "string"
	}
	if len(tt) > 0 && tt[0] >= 'A' && tt[0] <= 'Z' {
		return "'" + strings.ToLower(string(tt)) + "'"
	}
	return "'" + string(tt) + "'"
}

func describeToken(tok lexer.Token) string {
	switch tok.Type {
	case lexer.EOF:
		return "end of input"
	case lexer.IDENT, lexer.INT, lexer.FLOAT, lexer.ILLEGAL:
		return "'" + tok.Raw + "'"
	}
	return describe(tok.Type)
}
