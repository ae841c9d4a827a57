// Package output holds the assembled binary artifact and its renderings.
//
// Every renderer takes a half-open byte range [start, end) which must lie
// inside the artifact; a range outside it is a caller bug and panics.
package output

import (
	"fmt"

	"github.com/reglet-dev/asmbridge/internal/diagn"
)

// Annotation ties a run of output bytes back to the statement that emitted it.
type Annotation struct {
	Offset int // position in the artifact
	Addr   int // logical address at the time of emission
	Length int
	Source diagn.Span
}

// Binary is the ordered byte output of a successful assembly.
type Binary struct {
	data        []byte
	annotations []Annotation
}

// NewBinary creates an empty artifact.
func NewBinary() *Binary {
	return &Binary{}
}

// FromBytes wraps raw bytes without annotations.
func FromBytes(data []byte) *Binary {
	b := &Binary{data: make([]byte, len(data))}
	copy(b.data, data)
	return b
}

// Write appends data emitted at addr by the statement at src.
func (b *Binary) Write(addr int, data []byte, src diagn.Span) {
	if len(data) == 0 {
		return
	}
	b.annotations = append(b.annotations, Annotation{
		Offset: len(b.data),
		Addr:   addr,
		Length: len(data),
		Source: src,
	})
	b.data = append(b.data, data...)
}

// Len returns the artifact size in bytes.
func (b *Binary) Len() int {
	return len(b.data)
}

// Bytes returns a copy of the artifact bytes.
func (b *Binary) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Annotations returns the emission records in output order.
func (b *Binary) Annotations() []Annotation {
	out := make([]Annotation, len(b.annotations))
	copy(out, b.annotations)
	return out
}

// checkRange panics unless [start, end) lies inside the artifact.
func (b *Binary) checkRange(start, end int) {
	if start < 0 || start > end || end > len(b.data) {
		panic(fmt.Sprintf("output: range [%d, %d) outside artifact of %d bytes", start, end, len(b.data)))
	}
}

func (b *Binary) window(start, end int) []byte {
	b.checkRange(start, end)
	return b.data[start:end]
}
