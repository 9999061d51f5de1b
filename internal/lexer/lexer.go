package lexer

import (
	"strconv"
	"unicode"

	"github.com/quill-lang/quill/internal/diag"
)

type LexerErrorKind int

const (
	ErrUnterminatedString LexerErrorKind = iota
	ErrUnterminatedBlockComment
	ErrIllegalRune
)

type LexerError struct {
	Kind    LexerErrorKind
	Message string
	Span    Span
}

func (k LexerErrorKind) diagnosticCode() diag.Code {
	switch k {
	case ErrUnterminatedString:
		return diag.CodeLexerUnterminatedString
	case ErrUnterminatedBlockComment:
		return diag.CodeLexerUnterminatedBlockComment
	case ErrIllegalRune:
		return diag.CodeLexerIllegalRune
	default:
		return diag.Code("LEXER_UNKNOWN_ERROR")
	}
}

// ToDiagnostic converts a lexer error into a shared diagnostic structure.
func (e LexerError) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Stage:    diag.StageLexer,
		Severity: diag.SeverityError,
		Code:     e.Kind.diagnosticCode(),
		Message:  e.Message,
		Span:     ToDiagSpan(e.Span),
	}
}

// ToDiagSpan converts a lexer span to a diagnostic span.
func ToDiagSpan(span Span) diag.Span {
	return diag.Span{
		Filename: span.Filename,
		Line:     span.Line,
		Column:   span.Column,
		Start:    span.Start,
		End:      span.End,
	}
}

// Lexer represents the lexer state
type Lexer struct {
	input    []rune
	pos      int  // index of the current rune
	ch       rune // current rune (0 = EOF)
	line     int  // current line number (1-based)
	column   int  // current column number (1-based)
	filename string

	Errors []LexerError
}

// New creates a new lexer for the given input.
func New(input string) *Lexer {
	l := &Lexer{
		input:  []rune(input),
		pos:    -1, // start before first rune
		line:   1,
		column: 0, // will be 1 after first read()
	}
	l.read()
	return l
}

// SetFilename attributes every emitted span to name.
func (l *Lexer) SetFilename(name string) {
	l.filename = name
}

func (l *Lexer) addError(kind LexerErrorKind, msg string, span Span) {
	l.Errors = append(l.Errors, LexerError{
		Kind:    kind,
		Message: msg,
		Span:    span,
	})
}

// read advances the lexer to the next character.
// line/column always reflect the position of the character at pos.
func (l *Lexer) read() {
	l.pos++
	prevPos := l.pos - 1
	inputLen := len(l.input)

	if l.pos >= inputLen {
		if prevPos >= 0 && prevPos < inputLen {
			if l.input[prevPos] == '\n' {
				l.line++
				l.column = 1
			} else {
				l.column++
			}
		} else if prevPos < 0 {
			l.column = 1
		}
		l.pos = inputLen
		l.ch = 0 // EOF
		return
	}

	l.ch = l.input[l.pos]

	if prevPos >= 0 && l.input[prevPos] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
}

// peek returns the next character without advancing
func (l *Lexer) peek() rune {
	if l.pos+1 >= len(l.input) {
		return 0
	}
	return l.input[l.pos+1]
}

func (l *Lexer) span(startLine, startColumn, startPos int) Span {
	return Span{
		Filename: l.filename,
		Line:     startLine,
		Column:   startColumn,
		Start:    startPos,
		End:      l.pos,
	}
}

func (l *Lexer) makeToken(tokType TokenType, startLine, startColumn, startPos int, value string) Token {
	return Token{
		Type:    tokType,
		Literal: value,
		Raw:     string(l.input[startPos:l.pos]),
		Span:    l.span(startLine, startColumn, startPos),
	}
}

// single consumes the current rune and emits it as tokType.
func (l *Lexer) single(tokType TokenType) Token {
	line, column, pos := l.line, l.column, l.pos
	raw := string(l.ch)
	l.read()
	return l.makeToken(tokType, line, column, pos, raw)
}

// pair emits two if the rune after the current one is next, otherwise one.
func (l *Lexer) pair(next rune, two, one TokenType) Token {
	line, column, pos := l.line, l.column, l.pos
	if l.peek() == next {
		l.read()
		l.read()
		return l.makeToken(two, line, column, pos, string(l.input[pos:l.pos]))
	}
	raw := string(l.ch)
	l.read()
	return l.makeToken(one, line, column, pos, raw)
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.read()
	}
}

func (l *Lexer) skipLineComment() {
	for l.ch != '\n' && l.ch != '\r' && l.ch != 0 {
		l.read()
	}
}

func (l *Lexer) skipBlockComment(startLine, startColumn, startPos int) {
	for {
		if l.ch == 0 {
			l.addError(
				ErrUnterminatedBlockComment,
				"unterminated block comment",
				l.span(startLine, startColumn, startPos),
			)
			return
		}
		if l.ch == '*' && l.peek() == '/' {
			l.read() // consume '*'
			l.read() // consume '/'
			return
		}
		l.read()
	}
}

// readIdentifier reads an identifier or keyword
func (l *Lexer) readIdentifier() string {
	start := l.pos
	for isLetter(l.ch) || isDigit(l.ch) {
		l.read()
	}
	return string(l.input[start:l.pos])
}

// readNumber reads a numeric literal: decimal or hex integers with an optional
// long suffix, and decimals with an optional exponent and float/double suffix.
func (l *Lexer) readNumber() TokenType {
	if l.ch == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.read() // consume '0'
		l.read() // consume 'x'
		for isHexDigit(l.ch) {
			l.read()
		}
		if l.ch == 'l' || l.ch == 'L' {
			l.read()
		}
		return INT
	}

	tokType := INT
	for isDigit(l.ch) {
		l.read()
	}

	if l.ch == '.' && isDigit(l.peek()) {
		tokType = FLOAT
		l.read() // consume '.'
		for isDigit(l.ch) {
			l.read()
		}
	}

	if l.ch == 'e' || l.ch == 'E' {
		tokType = FLOAT
		l.read()
		if l.ch == '+' || l.ch == '-' {
			l.read()
		}
		for isDigit(l.ch) {
			l.read()
		}
	}

	switch l.ch {
	case 'l', 'L':
		if tokType == INT {
			l.read()
		}
	case 'f', 'F', 'd', 'D':
		tokType = FLOAT
		l.read()
	}

	return tokType
}

// NextToken returns the next token from the input
func (l *Lexer) NextToken() Token {
	for {
		l.skipWhitespace()

		switch l.ch {
		case 0:
			return l.makeToken(EOF, l.line, l.column, l.pos, "")
		case '=':
			return l.pair('=', EQ, ASSIGN)
		case '!':
			return l.pair('=', NOT_EQ, BANG)
		case '<':
			return l.pair('=', LE, LT)
		case '>':
			return l.pair('=', GE, GT)
		case '&':
			if l.peek() == '&' {
				return l.pair('&', AND, ILLEGAL)
			}
		case '|':
			if l.peek() == '|' {
				return l.pair('|', OR, ILLEGAL)
			}
		case '+':
			return l.single(PLUS)
		case '-':
			return l.single(MINUS)
		case '*':
			return l.single(ASTERISK)
		case '%':
			return l.single(PERCENT)
		case '/':
			line, column, pos := l.line, l.column, l.pos
			switch l.peek() {
			case '/':
				l.skipLineComment()
				continue
			case '*':
				l.read() // consume '/'
				l.read() // consume '*'
				l.skipBlockComment(line, column, pos)
				continue
			default:
				return l.single(SLASH)
			}
		case ';':
			return l.single(SEMICOLON)
		case ',':
			return l.single(COMMA)
		case ':':
			return l.single(COLON)
		case '.':
			return l.single(DOT)
		case '(':
			return l.single(LPAREN)
		case ')':
			return l.single(RPAREN)
		case '{':
			return l.single(LBRACE)
		case '}':
			return l.single(RBRACE)
		case '[':
			return l.single(LBRACKET)
		case ']':
			return l.single(RBRACKET)
		case '"', '\'':
			line, column, pos := l.line, l.column, l.pos
			value, terminated := l.readString(line, column, pos, l.ch)
			if !terminated {
				return l.makeToken(ILLEGAL, line, column, pos, value)
			}
			return l.makeToken(STRING, line, column, pos, value)
		}

		line, column, pos := l.line, l.column, l.pos
		switch {
		case isLetter(l.ch):
			literal := l.readIdentifier()
			return l.makeToken(LookupIdent(literal), line, column, pos, literal)
		case isDigit(l.ch):
			tokType := l.readNumber()
			return l.makeToken(tokType, line, column, pos, string(l.input[pos:l.pos]))
		default:
			raw := string(l.ch)
			l.read()
			tok := l.makeToken(ILLEGAL, line, column, pos, raw)
			l.addError(ErrIllegalRune, "illegal character "+strconv.Quote(raw), tok.Span)
			return tok
		}
	}
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) || ch == '_'
}

func isDigit(ch rune) bool {
	// Numeric literals are restricted to ASCII digits.
	return ch >= '0' && ch <= '9'
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') ||
		(ch >= 'a' && ch <= 'f') ||
		(ch >= 'A' && ch <= 'F')
}

// readString reads a string literal delimited by quote and decodes escape
// sequences. It reports whether the literal was properly terminated.
func (l *Lexer) readString(startLine, startColumn, startPos int, quote rune) (value string, terminated bool) {
	var decoded []rune
	l.read() // skip opening quote

	for {
		switch l.ch {
		case 0:
			l.addError(ErrUnterminatedString, "unterminated string literal", l.span(startLine, startColumn, startPos))
			return string(decoded), false
		case '\n', '\r':
			l.addError(ErrUnterminatedString, "newline in string literal", l.span(startLine, startColumn, startPos))
			return string(decoded), false
		case quote:
			l.read() // consume closing quote
			return string(decoded), true
		case '\\':
			l.read() // skip '\'
			switch l.ch {
			case 'n':
				decoded = append(decoded, '\n')
			case 't':
				decoded = append(decoded, '\t')
			case 'r':
				decoded = append(decoded, '\r')
			case '\\', '"', '\'':
				decoded = append(decoded, l.ch)
			case 0:
				continue
			default:
				decoded = append(decoded, '\\', l.ch)
			}
			l.read()
		default:
			decoded = append(decoded, l.ch)
			l.read()
		}
	}
}
