// Package format maps output format codes to renderings of an assembled
// binary.
package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/reglet-dev/asmbridge/errors"
	"github.com/reglet-dev/asmbridge/internal/output"
	"github.com/reglet-dev/asmbridge/internal/vfs"
)

// Format selects one rendering. Codes are part of the WASM interface and
// must not be renumbered.
type Format uint32

const (
	AnnotatedHex Format = iota
	AnnotatedBin
	HexDump
	BinDump
	HexStr
	BinStr
	MIF
	IntelHex
	DecComma
	HexComma
	DecC
	HexC
	Logisim8
	Logisim16

	// Count is the number of formats; valid codes are [0, Count).
	Count
)

var names = [Count]string{
	AnnotatedHex: "annotated-hex",
	AnnotatedBin: "annotated-bin",
	HexDump:      "hexdump",
	BinDump:      "bindump",
	HexStr:       "hexstr",
	BinStr:       "binstr",
	MIF:          "mif",
	IntelHex:     "intelhex",
	DecComma:     "deccomma",
	HexComma:     "hexcomma",
	DecC:         "decc",
	HexC:         "hexc",
	Logisim8:     "logisim8",
	Logisim16:    "logisim16",
}

func (f Format) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Format(%d)", uint32(f))
	}
	return names[f]
}

// Valid reports whether f is one of the defined codes.
func (f Format) Valid() bool {
	return f < Count
}

// All returns every format in code order.
func All() []Format {
	out := make([]Format, Count)
	for i := range out {
		out[i] = Format(i)
	}
	return out
}

// Parse accepts a format name (case-insensitive) or its decimal code.
func Parse(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == name {
			return Format(i), nil
		}
	}
	if code, err := strconv.ParseUint(name, 10, 32); err == nil && Format(code).Valid() {
		return Format(code), nil
	}
	return 0, &errors.FormatError{Value: s}
}

// Render produces format f of bin over [start, end). The annotated
// formats read source lines back through fs. An undefined code is a
// caller bug and panics.
func Render(bin *output.Binary, fs vfs.FileServer, f Format, start, end int) string {
	switch f {
	case AnnotatedHex:
		return bin.AnnotatedHex(fs, start, end)
	case AnnotatedBin:
		return bin.AnnotatedBin(fs, start, end)
	case HexDump:
		return bin.HexDump(start, end)
	case BinDump:
		return bin.BinDump(start, end)
	case HexStr:
		return bin.HexStr(start, end)
	case BinStr:
		return bin.BinStr(start, end)
	case MIF:
		return bin.MIF(start, end)
	case IntelHex:
		return bin.IntelHex(start, end)
	case DecComma:
		return bin.Comma(start, end, 10)
	case HexComma:
		return bin.Comma(start, end, 16)
	case DecC:
		return bin.CArray(start, end, 10)
	case HexC:
		return bin.CArray(start, end, 16)
	case Logisim8:
		return bin.Logisim(start, end, 8)
	case Logisim16:
		return bin.Logisim(start, end, 16)
	}
	panic(fmt.Sprintf("format: invalid format code %d", uint32(f)))
}
