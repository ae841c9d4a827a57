package diagn

import "fmt"

// Position is a resolved location inside a source file.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, in bytes
	Offset int // absolute byte offset
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Locate resolves a byte offset to a line and column. Offsets past the end
// are clamped to the end of content.
func Locate(content []byte, offset int) Position {
	if offset > len(content) {
		offset = len(content)
	}
	if offset < 0 {
		offset = 0
	}

	line, col := 1, 1
	for _, c := range content[:offset] {
		if c == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return Position{Line: line, Column: col, Offset: offset}
}
