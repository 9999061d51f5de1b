package parser

import (
	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/lexer"
)

// parseStatement parses one statement. It returns nil after reporting an
// error.
func (p *Parser) parseStatement() ast.Stmt {
	switch p.curTok.Type {
	case lexer.LBRACE:
		if block := p.parseBlock(); block != nil {
			return block
		}
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.WHILE:
		if stmt := p.parseWhileStmt(); stmt != nil {
			return stmt
		}
	case lexer.DO:
		if stmt := p.parseDoWhileStmt(); stmt != nil {
			return stmt
		}
	case lexer.FOR:
		if stmt := p.parseForStmt(); stmt != nil {
			return stmt
		}
	case lexer.BREAK:
		start := p.curTok.Span
		if p.endStatement() {
			return p.b.Break(mergeSpan(start, p.curTok.Span))
		}
	case lexer.CONTINUE:
		start := p.curTok.Span
		if p.endStatement() {
			return p.b.Continue(mergeSpan(start, p.curTok.Span))
		}
	case lexer.RETURN:
		if stmt := p.parseReturnStmt(); stmt != nil {
			return stmt
		}
	case lexer.THROW:
		if stmt := p.parseThrowStmt(); stmt != nil {
			return stmt
		}
	case lexer.TRY:
		if stmt := p.parseTryStmt(); stmt != nil {
			return stmt
		}
	case lexer.SEMICOLON:
		p.reportError("empty statement", p.curTok.Span)
	default:
		if p.curTok.Type == lexer.IDENT && p.peekTok.Type == lexer.IDENT {
			decl := p.parseDeclaration()
			if decl != nil && p.endStatement() {
				return p.b.Declaration(mergeSpan(decl.span, p.curTok.Span), decl.typeName, decl.declarators...)
			}
			return nil
		}
		if stmt := p.parseExpressionStmt(); stmt != nil {
			return stmt
		}
	}
	return nil
}

// parseBlock parses `{ stmt* }`.
func (p *Parser) parseBlock() *ast.Block {
	start := p.curTok.Span
	var stmts []ast.Stmt

	p.nextToken()
	for p.curTok.Type != lexer.RBRACE {
		if p.curTok.Type == lexer.EOF {
			p.reportError("expected '}', found end of input", p.curTok.Span)
			return nil
		}

		prevTok := p.curTok
		if stmt := p.parseStatement(); stmt != nil {
			stmts = append(stmts, stmt)
			p.nextToken()
			continue
		}
		p.recoverStatement(prevTok)
	}

	return p.b.Block(mergeSpan(start, p.curTok.Span), stmts...)
}

// parseBody parses the body of a compound statement. A braced block is used
// as is; a single statement is wrapped in a block of its own; a lone ';' is an
// empty body and yields nil.
func (p *Parser) parseBody() (*ast.Block, bool) {
	switch p.curTok.Type {
	case lexer.SEMICOLON:
		return nil, true
	case lexer.LBRACE:
		block := p.parseBlock()
		return block, block != nil
	}

	stmt := p.parseStatement()
	if stmt == nil {
		return nil, false
	}
	return p.b.Block(stmt.Span(), stmt), true
}

// parseCondition parses `( expr )` following a keyword.
func (p *Parser) parseCondition() ast.Expr {
	if !p.expect(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	cond := p.parseExpression(precedenceLowest)
	if cond == nil || !p.expect(lexer.RPAREN) {
		return nil
	}
	return cond
}

func (p *Parser) parseIfStmt() ast.Stmt {
	start := p.curTok.Span

	cond := p.parseCondition()
	if cond == nil {
		return nil
	}
	p.nextToken()
	then, ok := p.parseBody()
	if !ok {
		return nil
	}

	if p.peekTok.Type != lexer.ELSE {
		return p.b.If(mergeSpan(start, p.curTok.Span), cond, then)
	}

	p.nextToken() // move to 'else'
	p.nextToken()
	els, ok := p.parseBody()
	if !ok {
		return nil
	}
	return p.b.IfElse(mergeSpan(start, p.curTok.Span), cond, then, els)
}

func (p *Parser) parseWhileStmt() *ast.While {
	start := p.curTok.Span

	cond := p.parseCondition()
	if cond == nil {
		return nil
	}
	p.nextToken()
	body, ok := p.parseBody()
	if !ok {
		return nil
	}
	return p.b.While(mergeSpan(start, p.curTok.Span), cond, body)
}

func (p *Parser) parseDoWhileStmt() *ast.DoWhile {
	start := p.curTok.Span

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil || !p.expect(lexer.WHILE) {
		return nil
	}
	cond := p.parseCondition()
	if cond == nil || !p.endStatement() {
		return nil
	}
	return p.b.DoWhile(mergeSpan(start, p.curTok.Span), body, cond)
}

// parseForStmt parses `for (init; cond; update) body`, where every clause may
// be empty and init is either a declaration or an expression.
func (p *Parser) parseForStmt() *ast.For {
	start := p.curTok.Span

	if !p.expect(lexer.LPAREN) {
		return nil
	}

	var init ast.Node
	if p.peekTok.Type != lexer.SEMICOLON {
		p.nextToken()
		if p.curTok.Type == lexer.IDENT && p.peekTok.Type == lexer.IDENT {
			decl := p.parseDeclaration()
			if decl == nil {
				return nil
			}
			init = p.b.Declaration(mergeSpan(decl.span, p.curTok.Span), decl.typeName, decl.declarators...)
		} else {
			expr := p.parseExpression(precedenceLowest)
			if expr == nil {
				return nil
			}
			init = expr
		}
	}
	if !p.expect(lexer.SEMICOLON) {
		return nil
	}

	var cond ast.Expr
	if p.peekTok.Type != lexer.SEMICOLON {
		p.nextToken()
		if cond = p.parseExpression(precedenceLowest); cond == nil {
			return nil
		}
	}
	if !p.expect(lexer.SEMICOLON) {
		return nil
	}

	var update ast.Expr
	if p.peekTok.Type != lexer.RPAREN {
		p.nextToken()
		if update = p.parseExpression(precedenceLowest); update == nil {
			return nil
		}
	}
	if !p.expect(lexer.RPAREN) {
		return nil
	}

	p.nextToken()
	body, ok := p.parseBody()
	if !ok {
		return nil
	}
	return p.b.For(mergeSpan(start, p.curTok.Span), init, cond, update, body)
}

func (p *Parser) parseReturnStmt() *ast.Return {
	start := p.curTok.Span

	var value ast.Expr
	switch p.peekTok.Type {
	case lexer.SEMICOLON, lexer.RBRACE, lexer.EOF:
	default:
		p.nextToken()
		if value = p.parseExpression(precedenceLowest); value == nil {
			return nil
		}
	}

	if !p.endStatement() {
		return nil
	}
	return p.b.Return(mergeSpan(start, p.curTok.Span), value)
}

func (p *Parser) parseThrowStmt() *ast.Throw {
	start := p.curTok.Span

	p.nextToken()
	value := p.parseExpression(precedenceLowest)
	if value == nil || !p.endStatement() {
		return nil
	}
	return p.b.Throw(mergeSpan(start, p.curTok.Span), value)
}

// parseTryStmt parses `try { } catch (Type name) { } ...` with at least one
// catch clause.
func (p *Parser) parseTryStmt() *ast.Try {
	start := p.curTok.Span

	if !p.expect(lexer.LBRACE) {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}

	var catches []*ast.Catch
	for p.peekTok.Type == lexer.CATCH {
		p.nextToken()
		catchStart := p.curTok.Span

		if !p.expect(lexer.LPAREN) || !p.expect(lexer.IDENT) {
			return nil
		}
		typeName := p.curTok.Literal
		if !p.expect(lexer.IDENT) {
			return nil
		}
		name := p.curTok.Literal
		if !p.expect(lexer.RPAREN) || !p.expect(lexer.LBRACE) {
			return nil
		}
		catchBody := p.parseBlock()
		if catchBody == nil {
			return nil
		}
		catches = append(catches, p.b.Catch(mergeSpan(catchStart, p.curTok.Span), typeName, name, catchBody))
	}

	if len(catches) == 0 {
		p.reportError("expected 'catch', found "+describeToken(p.peekTok), p.peekTok.Span)
		return nil
	}
	return p.b.Try(mergeSpan(start, p.curTok.Span), body, catches...)
}

type declaration struct {
	span        lexer.Span
	typeName    string
	declarators []*ast.Declarator
}

// parseDeclaration parses `Type name [= value], name [= value] ...` without
// the closing ';'.
func (p *Parser) parseDeclaration() *declaration {
	decl := &declaration{span: p.curTok.Span, typeName: p.curTok.Literal}

	for {
		if !p.expect(lexer.IDENT) {
			return nil
		}
		nameTok := p.curTok

		var value ast.Expr
		if p.peekTok.Type == lexer.ASSIGN {
			p.nextToken()
			p.nextToken()
			if value = p.parseExpression(precedenceLowest); value == nil {
				return nil
			}
		}
		decl.declarators = append(decl.declarators,
			p.b.Declarator(mergeSpan(nameTok.Span, p.curTok.Span), nameTok.Literal, value))

		if p.peekTok.Type != lexer.COMMA {
			return decl
		}
		p.nextToken()
	}
}

func (p *Parser) parseExpressionStmt() *ast.ExpressionStatement {
	start := p.curTok.Span

	expr := p.parseExpression(precedenceLowest)
	if expr == nil || !p.endStatement() {
		return nil
	}
	return p.b.ExpressionStatement(mergeSpan(start, p.curTok.Span), expr)
}
