package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quill-lang/quill/internal/diag"
)

type expectedToken struct {
	typ     TokenType
	literal string
}

func lexAll(t *testing.T, input string, want []expectedToken) *Lexer {
	t.Helper()
	l := New(input)
	for i, tt := range want {
		tok := l.NextToken()
		require.Equalf(t, tt.typ, tok.Type, "tests[%d] - token type", i)
		require.Equalf(t, tt.literal, tok.Literal, "tests[%d] - literal", i)
	}
	return l
}

func TestNextToken_Basic(t *testing.T) {
	l := lexAll(t, `int x = 10; return x;`, []expectedToken{
		{IDENT, "int"},
		{IDENT, "x"},
		{ASSIGN, "="},
		{INT, "10"},
		{SEMICOLON, ";"},
		{RETURN, "return"},
		{IDENT, "x"},
		{SEMICOLON, ";"},
		{EOF, ""},
	})
	assert.Empty(t, l.Errors)
}

func TestNextToken_Operators(t *testing.T) {
	lexAll(t, `= + - * / % ! == != < > <= >= && ||`, []expectedToken{
		{ASSIGN, "="},
		{PLUS, "+"},
		{MINUS, "-"},
		{ASTERISK, "*"},
		{SLASH, "/"},
		{PERCENT, "%"},
		{BANG, "!"},
		{EQ, "=="},
		{NOT_EQ, "!="},
		{LT, "<"},
		{GT, ">"},
		{LE, "<="},
		{GE, ">="},
		{AND, "&&"},
		{OR, "||"},
		{EOF, ""},
	})
}

func TestNextToken_Keywords(t *testing.T) {
	lexAll(t, `if else while do for break continue return throw try catch true false null def`, []expectedToken{
		{IF, "if"},
		{ELSE, "else"},
		{WHILE, "while"},
		{DO, "do"},
		{FOR, "for"},
		{BREAK, "break"},
		{CONTINUE, "continue"},
		{RETURN, "return"},
		{THROW, "throw"},
		{TRY, "try"},
		{CATCH, "catch"},
		{TRUE, "true"},
		{FALSE, "false"},
		{NULL, "null"},
		{IDENT, "def"},
		{EOF, ""},
	})
}

func TestNextToken_Numbers(t *testing.T) {
	lexAll(t, `5 12L 0x1F 3.14 2f 1e9 7d`, []expectedToken{
		{INT, "5"},
		{INT, "12L"},
		{INT, "0x1F"},
		{FLOAT, "3.14"},
		{FLOAT, "2f"},
		{FLOAT, "1e9"},
		{FLOAT, "7d"},
		{EOF, ""},
	})
}

func TestNextToken_Strings(t *testing.T) {
	lexAll(t, `"a\nb" 'c' "it's"`, []expectedToken{
		{STRING, "a\nb"},
		{STRING, "c"},
		{STRING, "it's"},
		{EOF, ""},
	})
}

func TestNextToken_SkipsComments(t *testing.T) {
	lexAll(t, "// leading\nx /* inner */ y", []expectedToken{
		{IDENT, "x"},
		{IDENT, "y"},
		{EOF, ""},
	})
}

func TestNextToken_Spans(t *testing.T) {
	l := New("return 5;\n  x")
	l.SetFilename("a.q")

	ret := l.NextToken()
	assert.Equal(t, Span{Filename: "a.q", Line: 1, Column: 1, Start: 0, End: 6}, ret.Span)
	assert.Equal(t, "a.q:1:1", ret.Span.String())

	five := l.NextToken()
	assert.Equal(t, Span{Filename: "a.q", Line: 1, Column: 8, Start: 7, End: 8}, five.Span)

	l.NextToken() // ';'
	x := l.NextToken()
	assert.Equal(t, 2, x.Span.Line)
	assert.Equal(t, 3, x.Span.Column)
}

func TestLexerErrors_UnterminatedString(t *testing.T) {
	l := New(`"hello`)

	tok := l.NextToken()
	require.Equal(t, ILLEGAL, tok.Type)
	require.Len(t, l.Errors, 1)

	err := l.Errors[0]
	assert.Equal(t, ErrUnterminatedString, err.Kind)
	assert.Equal(t, "unterminated string literal", err.Message)
	assert.Equal(t, 0, err.Span.Start)
	assert.Equal(t, 6, err.Span.End)

	d := err.ToDiagnostic()
	assert.Equal(t, diag.StageLexer, d.Stage)
	assert.Equal(t, diag.CodeLexerUnterminatedString, d.Code)
	assert.Equal(t, diag.SeverityError, d.Severity)
}

func TestLexerErrors_IllegalRune(t *testing.T) {
	l := New(`x # y`)

	assert.Equal(t, IDENT, l.NextToken().Type)
	assert.Equal(t, ILLEGAL, l.NextToken().Type)
	assert.Equal(t, IDENT, l.NextToken().Type)

	require.Len(t, l.Errors, 1)
	assert.Equal(t, ErrIllegalRune, l.Errors[0].Kind)
	assert.Equal(t, `illegal character "#"`, l.Errors[0].Message)
}

func TestLexerErrors_UnterminatedBlockComment(t *testing.T) {
	l := New(`x /* never closed`)

	assert.Equal(t, IDENT, l.NextToken().Type)
	assert.Equal(t, EOF, l.NextToken().Type)

	require.Len(t, l.Errors, 1)
	assert.Equal(t, ErrUnterminatedBlockComment, l.Errors[0].Kind)
}
