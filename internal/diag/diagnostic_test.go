package diag_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quill-lang/quill/internal/diag"
)

func TestDiagnosticBuilders(t *testing.T) {
	span := diag.Span{Filename: "a.q", Line: 2, Column: 3, Start: 10, End: 12}

	d := diag.Diagnostic{
		Stage:    diag.StageAnalysis,
		Severity: diag.SeverityError,
		Code:     diag.CodeTypeMismatch,
		Message:  "Cannot cast from [int] to [String].",
		Span:     span,
	}.WithPrimarySpan(span, "expected `String`").WithNote("n").WithHelp("h")

	assert.Len(t, d.LabeledSpans, 1)
	assert.Equal(t, "primary", d.LabeledSpans[0].Style)
	assert.Equal(t, []string{"n"}, d.Notes)
	assert.Equal(t, "h", d.Help)
	assert.Equal(t, "a.q:2:3: Cannot cast from [int] to [String].", d.Error())
}

func TestSpanValidity(t *testing.T) {
	assert.False(t, diag.Span{}.IsValid())
	assert.True(t, diag.Span{Line: 1, Column: 1}.IsValid())
	assert.Equal(t, "1:1", diag.Span{Line: 1, Column: 1}.String())
}

func TestFormatterRendersSnippet(t *testing.T) {
	var out bytes.Buffer
	f := diag.NewFormatter(&out)
	f.AddSource("a.q", "int x = 5;\nreturn x + y;\n")

	f.Format(diag.Diagnostic{
		Severity: diag.SeverityError,
		Code:     diag.CodeUndefinedSymbol,
		Message:  "undefined symbol [y]",
		Span:     diag.Span{Filename: "a.q", Line: 2, Column: 12, Start: 22, End: 23},
	})

	got := out.String()
	assert.Contains(t, got, "error[UNDEFINED_SYMBOL]: undefined symbol [y]\n")
	assert.Contains(t, got, "  --> a.q:2:12\n")
	assert.Contains(t, got, " 2 | return x + y;\n")
	assert.Contains(t, got, "   |            ^\n")
}

func TestFormatterFallsBackWithoutSource(t *testing.T) {
	var out bytes.Buffer
	f := diag.NewFormatter(&out)

	f.Format(diag.Diagnostic{
		Severity: diag.SeverityWarning,
		Code:     diag.CodeUnreachableCode,
		Message:  "unreachable statement",
		Help:     "remove it",
	})

	assert.Equal(t, "warning[UNREACHABLE_CODE]: unreachable statement\n  = help: remove it\n", out.String())
}
