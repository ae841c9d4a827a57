package output

import (
	"fmt"
	"strings"
)

// HexDump renders 16 bytes per line with an ASCII column.
func (b *Binary) HexDump(start, end int) string {
	return b.dump(start, end, 16, "%02x", "..")
}

// BinDump renders 8 bytes per line in binary with an ASCII column.
func (b *Binary) BinDump(start, end int) string {
	return b.dump(start, end, 8, "%08b", "........")
}

// dump prints whole lines aligned to perLine; cells outside [start, end)
// are filled with placeholder dots.
func (b *Binary) dump(start, end, perLine int, cellFormat, missing string) string {
	b.checkRange(start, end)
	if start == end {
		return ""
	}

	first := start / perLine * perLine
	last := (end - 1) / perLine * perLine
	width := len(fmt.Sprintf("%x", last))

	var sb strings.Builder
	for line := first; line <= last; line += perLine {
		fmt.Fprintf(&sb, "%*x | ", width, line)
		for i := 0; i < perLine; i++ {
			idx := line + i
			if idx >= start && idx < end {
				fmt.Fprintf(&sb, cellFormat, b.data[idx])
			} else {
				sb.WriteString(missing)
			}
			sb.WriteByte(' ')
			if i%4 == 3 && i < perLine-1 {
				sb.WriteByte(' ')
			}
		}

		sb.WriteString("| ")
		for i := 0; i < perLine; i++ {
			idx := line + i
			if idx >= start && idx < end {
				sb.WriteByte(printable(b.data[idx]))
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteString(" |\n")
	}
	return sb.String()
}

func printable(c byte) byte {
	switch {
	case c == '\t' || c == '\r' || c == '\n':
		return ' '
	case c < 0x20 || c >= 0x7f || c == '|':
		return '.'
	}
	return c
}
