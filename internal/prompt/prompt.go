// Package prompt asks the user for CLI choices, with a menu on a
// terminal and a plain line-based prompt otherwise.
package prompt

import (
	"bufio"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"golang.org/x/term"

	"github.com/reglet-dev/asmbridge/format"
)

// ErrInterrupted is returned when the user aborts a prompt.
var ErrInterrupted = stdErrors.New("prompt interrupted")

// FormatPrompter asks for an output format.
type FormatPrompter struct {
	in  io.Reader
	out io.Writer
}

// NewFormatPrompter creates a FormatPrompter reading from in.
func NewFormatPrompter(in io.Reader, out io.Writer) *FormatPrompter {
	return &FormatPrompter{in: in, out: out}
}

// IsInteractive checks if both ends are terminals.
func (p *FormatPrompter) IsInteractive() bool {
	in, ok := p.in.(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return false
	}
	out, ok := p.out.(*os.File)
	return ok && term.IsTerminal(int(out.Fd()))
}

var descriptions = map[format.Format]string{
	format.AnnotatedHex: "hex bytes next to each source line",
	format.AnnotatedBin: "binary bytes next to each source line",
	format.HexDump:      "classic hex dump with ASCII column",
	format.BinDump:      "binary dump with ASCII column",
	format.HexStr:       "one hex string",
	format.BinStr:       "one bit string",
	format.MIF:          "Quartus memory initialization file",
	format.IntelHex:     "Intel HEX records",
	format.DecComma:     "comma-separated decimal",
	format.HexComma:     "comma-separated hex",
	format.DecC:         "C array, decimal",
	format.HexC:         "C array, hex",
	format.Logisim8:     "Logisim image, 8-bit words",
	format.Logisim16:    "Logisim image, 16-bit words",
}

// SelectFormat asks for a format, preselecting def.
func (p *FormatPrompter) SelectFormat(def format.Format) (format.Format, error) {
	if p.IsInteractive() {
		return p.selectMenu(def)
	}
	return p.selectLine(def)
}

func (p *FormatPrompter) selectMenu(def format.Format) (format.Format, error) {
	options := make([]string, 0, format.Count)
	for _, f := range format.All() {
		options = append(options, f.String())
	}
	prompt := &survey.Select{
		Message:  "Output format:",
		Options:  options,
		Default:  def.String(),
		PageSize: int(format.Count),
		Description: func(value string, index int) string {
			return descriptions[format.Format(index)]
		},
	}

	var answer string
	in, out := p.in.(*os.File), p.out.(*os.File)
	if err := survey.AskOne(prompt, &answer, survey.WithStdio(in, out, out)); err != nil {
		if stdErrors.Is(err, terminal.InterruptErr) {
			return def, ErrInterrupted
		}
		return def, err
	}
	return format.Parse(answer)
}

func (p *FormatPrompter) selectLine(def format.Format) (format.Format, error) {
	_, _ = fmt.Fprintf(p.out, "Output formats:\n")
	for _, f := range format.All() {
		_, _ = fmt.Fprintf(p.out, "  %2d  %-13s %s\n", uint32(f), f.String(), descriptions[f])
	}
	_, _ = fmt.Fprintf(p.out, "Format [%s]: ", def)

	scanner := bufio.NewScanner(p.in)
	if scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			return def, nil
		}
		return format.Parse(text)
	}
	if err := scanner.Err(); err != nil {
		return def, err
	}
	return def, io.EOF
}
