package parser

import (
	"github.com/quill-lang/quill/internal/ast"
	"github.com/quill-lang/quill/internal/lexer"
)

// parseExpression is the Pratt loop: it parses a prefix expression and then
// folds infix operators binding tighter than precedence into it.
func (p *Parser) parseExpression(precedence int) ast.Expr {
	prefix := p.prefixFns[p.curTok.Type]
	if prefix == nil {
		p.reportError("expected expression, found "+describeToken(p.curTok), p.curTok.Span)
		return nil
	}

	left := prefix()
	if left == nil {
		return nil
	}

	for p.peekTok.Type != lexer.SEMICOLON && precedence < p.peekPrecedence() {
		infix := p.infixFns[p.peekTok.Type]
		if infix == nil {
			return left
		}

		p.nextToken()
		if left = infix(left); left == nil {
			return nil
		}
	}

	return left
}

// parseIdentifier parses a variable read or, when followed by '(', a call.
func (p *Parser) parseIdentifier() ast.Expr {
	nameTok := p.curTok
	if p.peekTok.Type != lexer.LPAREN {
		return p.b.Symbol(nameTok.Span, nameTok.Literal)
	}

	p.nextToken() // move to '('

	var args []ast.Expr
	if p.peekTok.Type == lexer.RPAREN {
		p.nextToken()
	} else {
		for {
			p.nextToken()
			arg := p.parseExpression(precedenceLowest)
			if arg == nil {
				return nil
			}
			args = append(args, arg)

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

	return p.b.Call(mergeSpan(nameTok.Span, p.curTok.Span), nameTok.Literal, args...)
}

func (p *Parser) parseNumericLiteral() ast.Expr {
	return p.b.Numeric(p.curTok.Span, p.curTok.Literal)
}

func (p *Parser) parseDecimalLiteral() ast.Expr {
	return p.b.Decimal(p.curTok.Span, p.curTok.Literal)
}

func (p *Parser) parseStringLiteral() ast.Expr {
	return p.b.StringLit(p.curTok.Span, p.curTok.Literal)
}

func (p *Parser) parseBoolLiteral() ast.Expr {
	return p.b.Boolean(p.curTok.Span, p.curTok.Type == lexer.TRUE)
}

func (p *Parser) parseNullLiteral() ast.Expr {
	return p.b.Null(p.curTok.Span)
}

var prefixOperations = map[lexer.TokenType]ast.Operation{
	lexer.MINUS: ast.OpNeg,
	lexer.PLUS:  ast.OpPos,
	lexer.BANG:  ast.OpNot,
}

func (p *Parser) parsePrefixExpr() ast.Expr {
	opTok := p.curTok

	// A minus directly applied to a literal is part of the constant, so
	// -2147483648 is the smallest int rather than the negation of an
	// out-of-range one.
	if opTok.Type == lexer.MINUS {
		switch p.peekTok.Type {
		case lexer.INT:
			p.nextToken()
			return p.b.Numeric(mergeSpan(opTok.Span, p.curTok.Span), "-"+p.curTok.Literal)
		case lexer.FLOAT:
			p.nextToken()
			return p.b.Decimal(mergeSpan(opTok.Span, p.curTok.Span), "-"+p.curTok.Literal)
		}
	}

	p.nextToken()
	operand := p.parseExpression(precedencePrefix)
	if operand == nil {
		return nil
	}

	return p.b.Unary(mergeSpan(opTok.Span, operand.Span()), prefixOperations[opTok.Type], operand)
}

// parseGroupedOrCastExpr parses `(expr)` or the cast `(Type) expr`. A
// parenthesized name is a cast when an operand follows the ')'.
func (p *Parser) parseGroupedOrCastExpr() ast.Expr {
	start := p.curTok.Span

	if p.peekTok.Type == lexer.IDENT && p.peekTokenAt(1).Type == lexer.RPAREN && p.startsCastOperand(p.peekTok.Literal, p.peekTokenAt(2)) {
		p.nextToken()
		typeName := p.curTok.Literal
		p.nextToken() // move to ')'
		p.nextToken()

		value := p.parseExpression(precedencePrefix)
		if value == nil {
			return nil
		}
		return p.b.Explicit(mergeSpan(start, value.Span()), typeName, value)
	}

	p.nextToken()
	expr := p.parseExpression(precedenceLowest)
	if expr == nil || !p.expect(lexer.RPAREN) {
		return nil
	}
	return expr
}

func (p *Parser) startsCastOperand(typeName string, tok lexer.Token) bool {
	switch tok.Type {
	case lexer.IDENT, lexer.INT, lexer.FLOAT, lexer.STRING, lexer.TRUE, lexer.FALSE, lexer.NULL, lexer.LPAREN, lexer.BANG:
		return true
	case lexer.MINUS, lexer.PLUS:
		return p.isType != nil && p.isType(typeName)
	}
	return false
}

// parseAssignExpr parses the right-associative `target = value`.
func (p *Parser) parseAssignExpr(target ast.Expr) ast.Expr {
	p.nextToken()
	value := p.parseExpression(precedenceAssign - 1)
	if value == nil {
		return nil
	}
	return p.b.Assignment(mergeSpan(target.Span(), value.Span()), target, value)
}

// parseRightOperand parses the right operand of the infix operator under curTok.
func (p *Parser) parseRightOperand() (lexer.Token, ast.Expr) {
	opTok := p.curTok
	precedence := precedences[opTok.Type]

	p.nextToken()
	return opTok, p.parseExpression(precedence)
}

func (p *Parser) parseBinaryExpr(left ast.Expr) ast.Expr {
	opTok, right := p.parseRightOperand()
	if right == nil {
		return nil
	}
	return p.b.Binary(mergeSpan(left.Span(), right.Span()), ast.Operation(opTok.Literal), left, right)
}

func (p *Parser) parseComparisonExpr(left ast.Expr) ast.Expr {
	opTok, right := p.parseRightOperand()
	if right == nil {
		return nil
	}
	return p.b.Comparison(mergeSpan(left.Span(), right.Span()), ast.Operation(opTok.Literal), left, right)
}

func (p *Parser) parseBooleanExpr(left ast.Expr) ast.Expr {
	opTok, right := p.parseRightOperand()
	if right == nil {
		return nil
	}
	return p.b.BooleanComp(mergeSpan(left.Span(), right.Span()), ast.Operation(opTok.Literal), left, right)
}
