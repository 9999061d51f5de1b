package parser

import (
	"github.com/quill-lang/quill/internal/diag"
	"github.com/quill-lang/quill/internal/lexer"
)

// ParseError captures a recoverable parsing error with location context.
type ParseError struct {
	Message  string
	Span     lexer.Span
	Severity diag.Severity
}

// ToDiagnostic converts the error into a shared diagnostic.
func (e ParseError) ToDiagnostic() diag.Diagnostic {
	span := lexer.ToDiagSpan(e.Span)
	d := diag.Diagnostic{
		Stage:    diag.StageParser,
		Severity: e.Severity,
		Code:     diag.CodeParseSyntax,
		Message:  e.Message,
		Span:     span,
	}
	if span.IsValid() {
		d = d.WithPrimarySpan(span, "")
	}
	return d
}

// emitParseDiagnostic records a recoverable diagnostic without aborting parsing.
func (p *Parser) emitParseDiagnostic(msg string, span lexer.Span, severity diag.Severity) {
	if span.Filename == "" && p.filename != "" {
		span.Filename = p.filename
	}

	p.errors = append(p.errors, ParseError{
		Message:  msg,
		Span:     span,
		Severity: severity,
	})
}

func (p *Parser) reportError(msg string, span lexer.Span) {
	p.emitParseDiagnostic(msg, span, diag.SeverityError)
}
