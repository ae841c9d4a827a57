package output

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// HexStr renders the range as one run of lowercase hex digits.
func (b *Binary) HexStr(start, end int) string {
	return hex.EncodeToString(b.window(start, end))
}

// BinStr renders the range as one run of binary digits.
func (b *Binary) BinStr(start, end int) string {
	var sb strings.Builder
	for _, v := range b.window(start, end) {
		fmt.Fprintf(&sb, "%08b", v)
	}
	return sb.String()
}

// MIF renders an Altera/Quartus memory initialization file with 8-bit words.
func (b *Binary) MIF(start, end int) string {
	data := b.window(start, end)

	var sb strings.Builder
	fmt.Fprintf(&sb, "DEPTH = %d;\n", len(data))
	sb.WriteString("WIDTH = 8;\n")
	sb.WriteString("ADDRESS_RADIX = HEX;\n")
	sb.WriteString("DATA_RADIX = HEX;\n")
	sb.WriteString("\n")
	sb.WriteString("CONTENT\n")
	sb.WriteString("BEGIN\n")

	if len(data) > 0 {
		width := len(fmt.Sprintf("%x", len(data)-1))
		for i, v := range data {
			fmt.Fprintf(&sb, " %*X: %02X;\n", width, i, v)
		}
	}
	sb.WriteString("END;\n")
	return sb.String()
}

const intelHexRecordSize = 32

// IntelHex renders Intel HEX data records with extended linear address
// records whenever the upper 16 address bits change.
func (b *Binary) IntelHex(start, end int) string {
	b.checkRange(start, end)

	var sb strings.Builder
	upper := 0
	for off := start; off < end; {
		if off>>16 != upper {
			upper = off >> 16
			writeIntelRecord(&sb, 0, 0x04, []byte{byte(upper >> 8), byte(upper)})
		}

		n := min(intelHexRecordSize, end-off, 0x10000-(off&0xffff))
		writeIntelRecord(&sb, off&0xffff, 0x00, b.data[off:off+n])
		off += n
	}
	writeIntelRecord(&sb, 0, 0x01, nil)
	return sb.String()
}

func writeIntelRecord(sb *strings.Builder, addr int, kind byte, data []byte) {
	sum := byte(len(data)) + byte(addr>>8) + byte(addr) + kind
	for _, v := range data {
		sum += v
	}
	fmt.Fprintf(sb, ":%02X%04X%02X%s%02X\n", len(data), addr, kind, strings.ToUpper(hex.EncodeToString(data)), -sum)
}

const valuesPerLine = 16

// Comma renders comma-separated byte values in radix 10 or 16, breaking the
// line after every 16 values.
func (b *Binary) Comma(start, end, radix int) string {
	cell := radixCell(radix, "%d")

	var sb strings.Builder
	data := b.window(start, end)
	for i, v := range data {
		fmt.Fprintf(&sb, cell, v)
		if i == len(data)-1 {
			break
		}
		if (i+1)%valuesPerLine == 0 {
			sb.WriteString(",\n")
		} else {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

// CArray renders a C source array literal in radix 10 or 16.
func (b *Binary) CArray(start, end, radix int) string {
	cell := radixCell(radix, "%3d")

	var sb strings.Builder
	sb.WriteString("const unsigned char data[] = {\n")
	data := b.window(start, end)
	for line := 0; line < len(data); line += valuesPerLine {
		chunk := data[line:min(line+valuesPerLine, len(data))]
		sb.WriteByte('\t')
		for i, v := range chunk {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, cell, v)
		}
		sb.WriteString(",\n")
	}
	sb.WriteString("};\n")
	return sb.String()
}

func radixCell(radix int, decimal string) string {
	switch radix {
	case 10:
		return decimal
	case 16:
		return "0x%02x"
	}
	panic(fmt.Sprintf("output: unsupported radix %d", radix))
}

// Logisim renders a Logisim "v2.0 raw" memory image with 8- or 16-bit
// words. A 16-bit image of an odd-length range pads the final low byte with zero.
func (b *Binary) Logisim(start, end, wordBits int) string {
	if wordBits != 8 && wordBits != 16 {
		panic(fmt.Sprintf("output: unsupported logisim word width %d", wordBits))
	}
	data := b.window(start, end)
	step := wordBits / 8

	var sb strings.Builder
	sb.WriteString("v2.0 raw\n")
	words := 0
	for i := 0; i < len(data); i += step {
		if words > 0 {
			if words%valuesPerLine == 0 {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		if step == 1 {
			fmt.Fprintf(&sb, "%02x", data[i])
		} else {
			word := uint16(data[i]) << 8
			if i+1 < len(data) {
				word |= uint16(data[i+1])
			}
			fmt.Fprintf(&sb, "%04x", word)
		}
		words++
	}
	if words > 0 {
		sb.WriteByte('\n')
	}
	return sb.String()
}
