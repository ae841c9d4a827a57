// Package diagn collects assembler diagnostics and renders them against the
// sources they point into.
package diagn

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/reglet-dev/asmbridge/internal/vfs"
)

// Severity classifies a message.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Span is a half-open byte range inside a named file.
type Span struct {
	File  string
	Start int
	End   int
}

// Message is one accumulated report entry.
type Message struct {
	Severity Severity
	Text     string
	Span     Span
}

// Report is an append-only log of messages for one assembly run.
type Report struct {
	messages []Message
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{}
}

// Error appends an error at span.
func (r *Report) Error(span Span, format string, args ...any) {
	r.add(SeverityError, span, format, args...)
}

// Warning appends a warning at span.
func (r *Report) Warning(span Span, format string, args ...any) {
	r.add(SeverityWarning, span, format, args...)
}

// Note appends a note at span.
func (r *Report) Note(span Span, format string, args ...any) {
	r.add(SeverityNote, span, format, args...)
}

func (r *Report) add(sev Severity, span Span, format string, args ...any) {
	r.messages = append(r.messages, Message{
		Severity: sev,
		Text:     fmt.Sprintf(format, args...),
		Span:     span,
	})
}

// HasErrors reports whether any error has been recorded.
func (r *Report) HasErrors() bool {
	for _, m := range r.messages {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error messages.
func (r *Report) ErrorCount() int {
	n := 0
	for _, m := range r.messages {
		if m.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Messages returns a copy of the accumulated messages.
func (r *Report) Messages() []Message {
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// PrintAll renders every message, in insertion order, into w. Spans are
// resolved to line and column against the file server; messages whose file
// is unknown are printed without an excerpt.
func (r *Report) PrintAll(w io.Writer, fs vfs.FileServer) error {
	var b strings.Builder
	for i, m := range r.messages {
		if i > 0 {
			b.WriteByte('\n')
		}
		printMessage(&b, m, fs)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func printMessage(b *strings.Builder, m Message, fs vfs.FileServer) {
	fmt.Fprintf(b, "%s: %s\n", m.Severity, m.Text)

	if m.Span.File == "" {
		return
	}
	content, ok := fs.Get(m.Span.File)
	if !ok {
		fmt.Fprintf(b, " --> %s\n", m.Span.File)
		return
	}

	pos := Locate(content, m.Span.Start)
	lineText := lineAt(content, pos.Offset-(pos.Column-1))
	width := len(fmt.Sprint(pos.Line))
	pad := strings.Repeat(" ", width)

	fmt.Fprintf(b, "%s--> %s:%d:%d\n", pad, m.Span.File, pos.Line, pos.Column)
	fmt.Fprintf(b, "%s |\n", pad)
	fmt.Fprintf(b, "%*d | %s\n", width, pos.Line, lineText)

	caretLen := m.Span.End - m.Span.Start
	if rest := len(lineText) - (pos.Column - 1); caretLen > rest {
		caretLen = rest
	}
	if caretLen < 1 {
		caretLen = 1
	}
	fmt.Fprintf(b, "%s | %s%s\n", pad, indentFor(lineText, pos.Column-1), strings.Repeat("^", caretLen))
}

// lineAt returns the line starting at offset, without its terminator.
func lineAt(content []byte, offset int) string {
	if offset > len(content) {
		offset = len(content)
	}
	rest := content[offset:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSuffix(string(rest), "\r")
}

// indentFor keeps tabs so carets line up under tab-indented source.
func indentFor(line string, n int) string {
	if n > len(line) {
		n = len(line)
	}
	var b strings.Builder
	for i := 0; i < n; i++ {
		if line[i] == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
