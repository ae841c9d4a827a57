// Package pipeline runs one assembly request end to end: source bytes in,
// one rendered text out.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/reglet-dev/asmbridge/format"
	"github.com/reglet-dev/asmbridge/internal/asm"
	"github.com/reglet-dev/asmbridge/internal/diagn"
	"github.com/reglet-dev/asmbridge/internal/vfs"
)

// SourceName is the only file in the request's file server.
const SourceName = "asm"

// Status tells a rendering apart from a diagnostic report.
type Status uint32

const (
	StatusSuccess Status = iota
	StatusFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	}
	return fmt.Sprintf("Status(%d)", uint32(s))
}

// Result is the outcome of Run. Text is always valid UTF-8.
type Result struct {
	Status Status
	Text   string
}

// OK reports whether Text is a rendering of the assembled binary.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Run assembles source and renders it as f. Assembly failures are not
// errors: the diagnostic report becomes the result text. An invalid
// format code panics.
func Run(source []byte, f format.Format) Result {
	if !f.Valid() {
		panic(fmt.Sprintf("pipeline: invalid format code %d", uint32(f)))
	}
	slog.Debug("assembling", "format", f.String(), "source_bytes", len(source))

	fs := vfs.NewMemory()
	fs.Add(SourceName, source)
	report := diagn.NewReport()
	state := asm.NewState()

	res := Result{Status: StatusSuccess}
	if err := assemble(state, report, fs); err != nil {
		var sb strings.Builder
		if printErr := report.PrintAll(&sb, fs); printErr != nil {
			fmt.Fprintf(&sb, "%v\n", printErr)
		}
		res = Result{Status: StatusFailure, Text: sb.String()}
	} else {
		bin := state.BinaryOutput()
		res.Text = format.Render(bin, fs, f, 0, bin.Len())
	}
	res.Text = strings.ToValidUTF8(res.Text, "�")

	slog.Debug("assembled", "status", res.Status.String(), "text_bytes", len(res.Text))
	return res
}

func assemble(state *asm.State, report *diagn.Report, fs vfs.FileServer) error {
	if err := state.ProcessFile(report, fs, SourceName); err != nil {
		return err
	}
	return state.Wrapup(report)
}
