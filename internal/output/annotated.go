package output

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/reglet-dev/asmbridge/internal/diagn"
	"github.com/reglet-dev/asmbridge/internal/vfs"
)

// AnnotatedHex lists each emitting statement with its output offset,
// address, bytes in hex and the source line it came from.
func (b *Binary) AnnotatedHex(fs vfs.FileServer, start, end int) string {
	return b.annotated(fs, start, end, hex.EncodeToString)
}

// AnnotatedBin is AnnotatedHex with the bytes in binary.
func (b *Binary) AnnotatedBin(fs vfs.FileServer, start, end int) string {
	return b.annotated(fs, start, end, func(data []byte) string {
		parts := make([]string, len(data))
		for i, v := range data {
			parts[i] = fmt.Sprintf("%08b", v)
		}
		return strings.Join(parts, " ")
	})
}

type annotatedRow struct {
	offset, addr int
	data, source string
}

func (b *Binary) annotated(fs vfs.FileServer, start, end int, encode func([]byte) string) string {
	b.checkRange(start, end)

	var rows []annotatedRow
	offWidth, addrWidth, dataWidth := len("outp"), len("addr"), 0
	for _, a := range b.annotations {
		lo := max(a.Offset, start)
		hi := min(a.Offset+a.Length, end)
		if lo >= hi {
			continue
		}
		row := annotatedRow{
			offset: lo,
			addr:   a.Addr + (lo - a.Offset),
			data:   encode(b.data[lo:hi]),
			source: sourceLine(fs, a.Source),
		}
		offWidth = max(offWidth, len(fmt.Sprintf("%x", row.offset)))
		addrWidth = max(addrWidth, len(fmt.Sprintf("%x", row.addr)))
		dataWidth = max(dataWidth, len(row.data))
		rows = append(rows, row)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%*s | %*s | data\n\n", offWidth, "outp", addrWidth, "addr")
	for _, r := range rows {
		fmt.Fprintf(&sb, "%*x | %*x | ", offWidth, r.offset, addrWidth, r.addr)
		if r.source == "" {
			sb.WriteString(r.data)
		} else {
			fmt.Fprintf(&sb, "%-*s ; %s", dataWidth, r.data, r.source)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func sourceLine(fs vfs.FileServer, span diagn.Span) string {
	if fs == nil || span.File == "" {
		return ""
	}
	content, ok := fs.Get(span.File)
	if !ok || span.Start > len(content) {
		return ""
	}
	lineStart := span.Start
	for lineStart > 0 && content[lineStart-1] != '\n' {
		lineStart--
	}
	lineEnd := lineStart
	for lineEnd < len(content) && content[lineEnd] != '\n' {
		lineEnd++
	}
	return strings.TrimSpace(string(content[lineStart:lineEnd]))
}
