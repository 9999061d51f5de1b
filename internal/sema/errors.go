package sema

import (
	"fmt"

	"github.com/quill-lang/quill/internal/diag"
	"github.com/quill-lang/quill/internal/lexer"
)

// Kind classifies an analysis error.
type Kind int

const (
	TypeMismatch Kind = iota + 1
	UndefinedSymbol
	DuplicateSymbol
	NotAStatement
	InvalidBreak
	InvalidContinue
	Extraneous
	InvalidAssignment
	InvalidConstant
	MissingReturn
)

var kindInfo = map[Kind]struct {
	name string
	code diag.Code
}{
	TypeMismatch:      {"TypeMismatch", diag.CodeTypeMismatch},
	UndefinedSymbol:   {"UndefinedSymbol", diag.CodeUndefinedSymbol},
	DuplicateSymbol:   {"DuplicateSymbol", diag.CodeDuplicateSymbol},
	NotAStatement:     {"NotAStatement", diag.CodeNotAStatement},
	InvalidBreak:      {"InvalidBreak", diag.CodeInvalidBreak},
	InvalidContinue:   {"InvalidContinue", diag.CodeInvalidContinue},
	Extraneous:        {"Extraneous", diag.CodeExtraneousStatement},
	InvalidAssignment: {"InvalidAssignment", diag.CodeInvalidAssignment},
	InvalidConstant:   {"InvalidConstant", diag.CodeInvalidConstant},
	MissingReturn:     {"MissingReturn", diag.CodeMissingReturn},
}

func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Code returns the diagnostic code reported for errors of this kind.
func (k Kind) Code() diag.Code {
	return kindInfo[k].code
}

// Error is a located analysis failure. The first Error aborts analysis of the
// compilation unit.
type Error struct {
	Kind     Kind
	Location lexer.Span
	Message  string

	// Expected and Actual are canonical type names, set for TypeMismatch.
	Expected string
	Actual   string

	// Labels point at the sub-expressions that caused the error.
	Labels []Label
}

// Label annotates a span related to an Error.
type Label struct {
	Span lexer.Span
	Text string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// ToDiagnostic converts the error for reporting.
func (e *Error) ToDiagnostic() diag.Diagnostic {
	span := lexer.ToDiagSpan(e.Location)
	d := diag.Diagnostic{
		Stage:    diag.StageAnalysis,
		Severity: diag.SeverityError,
		Code:     e.Kind.Code(),
		Message:  e.Message,
		Span:     span,
	}
	if span.IsValid() {
		d = d.WithPrimarySpan(span, "")
	}
	for _, l := range e.Labels {
		if related := lexer.ToDiagSpan(l.Span); related.IsValid() {
			d = d.WithSecondarySpan(related, l.Text)
		}
	}
	if e.Kind == TypeMismatch && e.Expected != "" {
		d = d.WithNote(fmt.Sprintf("expected [%s], found [%s]", e.Expected, e.Actual))
	}
	return d
}

func castMessage(from, to string) string {
	return fmt.Sprintf("Cannot cast from [%s] to [%s].", from, to)
}
