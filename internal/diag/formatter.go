package diag

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Formatter renders diagnostics with source code snippets.
type Formatter struct {
	out         io.Writer
	sourceCache map[string]string // source files by filename
}

// NewFormatter creates a formatter writing to out.
func NewFormatter(out io.Writer) *Formatter {
	return &Formatter{
		out:         out,
		sourceCache: make(map[string]string),
	}
}

// AddSource registers already-loaded source text for filename.
func (f *Formatter) AddSource(filename, src string) {
	f.sourceCache[filename] = src
}

// LoadSource loads source code for a file (cached).
func (f *Formatter) LoadSource(filename string) (string, error) {
	if filename == "" {
		return "", nil
	}
	if src, ok := f.sourceCache[filename]; ok {
		return src, nil
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return "", err
	}
	src := string(data)
	f.sourceCache[filename] = src
	return src, nil
}

// Format writes a diagnostic: a header, the annotated source lines and any
// notes or help.
func (f *Formatter) Format(d Diagnostic) {
	spans := f.collectSpans(d)
	if len(spans) == 0 {
		f.formatSimple(d)
		return
	}

	filename := spans[0].Span.Filename
	src, err := f.LoadSource(filename)
	if err != nil || src == "" {
		f.formatSimple(d)
		return
	}

	f.printHeader(d)
	f.printFileSpans(spans[0].Span, src, spans)
	f.printHelp(d)
}

// collectSpans collects the spans to display, prioritizing LabeledSpans.
func (f *Formatter) collectSpans(d Diagnostic) []LabeledSpan {
	if len(d.LabeledSpans) > 0 {
		return d.LabeledSpans
	}
	if d.Span.IsValid() {
		return []LabeledSpan{{Span: d.Span, Style: "primary"}}
	}
	return nil
}

// printHeader prints the header (error[CODE]: message).
func (f *Formatter) printHeader(d Diagnostic) {
	severity := string(d.Severity)
	if severity == "" {
		severity = string(SeverityError)
	}

	if d.Code != "" {
		fmt.Fprintf(f.out, "%s[%s]: %s\n", severity, d.Code, d.Message)
	} else {
		fmt.Fprintf(f.out, "%s: %s\n", severity, d.Message)
	}
}

// printFileSpans prints source lines with underlines for spans in one file.
func (f *Formatter) printFileSpans(primary Span, src string, spans []LabeledSpan) {
	lines := strings.Split(src, "\n")

	spansByLine := make(map[int][]LabeledSpan)
	for _, span := range spans {
		line := span.Span.Line
		if line > 0 && line <= len(lines) {
			spansByLine[line] = append(spansByLine[line], span)
		}
	}
	if len(spansByLine) == 0 {
		return
	}

	lineNumbers := make([]int, 0, len(spansByLine))
	for line := range spansByLine {
		lineNumbers = append(lineNumbers, line)
	}
	sort.Ints(lineNumbers)

	// One line of context on either side.
	contextStart := max(1, lineNumbers[0]-1)
	contextEnd := min(len(lines), lineNumbers[len(lineNumbers)-1]+1)
	width := len(fmt.Sprintf("%d", contextEnd))
	gutter := strings.Repeat(" ", width)

	fmt.Fprintf(f.out, "  --> %s\n", primary)
	fmt.Fprintf(f.out, " %s |\n", gutter)

	for lineNum := contextStart; lineNum <= contextEnd; lineNum++ {
		content := lines[lineNum-1]
		fmt.Fprintf(f.out, " %*d | %s\n", width, lineNum, content)
		if lineSpans := spansByLine[lineNum]; len(lineSpans) > 0 {
			f.printUnderlines(gutter, content, lineSpans)
		}
	}

	fmt.Fprintf(f.out, " %s |\n", gutter)
}

// printUnderlines prints ^ under primary spans and ~ under secondary spans.
func (f *Formatter) printUnderlines(gutter, content string, spans []LabeledSpan) {
	underline := []rune(strings.Repeat(" ", len([]rune(content))))

	mark := func(span Span, r rune, overwrite bool) {
		start := max(0, span.Column-1)
		end := min(len(underline), start+max(1, span.End-span.Start))
		for i := start; i < end; i++ {
			if overwrite || underline[i] == ' ' {
				underline[i] = r
			}
		}
	}

	var labels []string
	for _, span := range spans {
		if span.Style == "primary" {
			mark(span.Span, '^', true)
		}
	}
	for _, span := range spans {
		if span.Style == "secondary" {
			mark(span.Span, '~', false)
		}
		if span.Label != "" {
			labels = append(labels, span.Label)
		}
	}

	text := strings.TrimRight(string(underline), " ")
	if text == "" {
		return
	}
	line := fmt.Sprintf(" %s | %s", gutter, text)
	if len(labels) > 0 {
		line += " " + strings.Join(labels, "; ")
	}
	fmt.Fprintln(f.out, line)
}

// printHelp prints notes and help text.
func (f *Formatter) printHelp(d Diagnostic) {
	for _, note := range d.Notes {
		fmt.Fprintf(f.out, "  = note: %s\n", note)
	}
	if d.Help != "" {
		fmt.Fprintf(f.out, "  = help: %s\n", d.Help)
	}
}

// formatSimple formats a diagnostic without source code.
func (f *Formatter) formatSimple(d Diagnostic) {
	f.printHeader(d)
	if d.Span.IsValid() {
		fmt.Fprintf(f.out, "  --> %s\n", d.Span)
	}
	f.printHelp(d)
}
