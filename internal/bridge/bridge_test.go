package bridge

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/asmbridge/format"
	"github.com/reglet-dev/asmbridge/internal/abi"
	"github.com/reglet-dev/asmbridge/pipeline"
)

const nopSource = "#ruledef { nop => 0x00 }\nnop\n"

// stage writes src one byte at a time, the way a host without bulk
// access would.
func stage(a *abi.Arena, src string) abi.Handle {
	h := a.Create(uint32(len(src)))
	for i := 0; i < len(src); i++ {
		a.SetByte(h, uint32(i), src[i])
	}
	return h
}

// collect reads h byte by byte and destroys it.
func collect(a *abi.Arena, h abi.Handle) string {
	n := a.Len(h)
	out := make([]byte, n)
	for i := uint32(0); i < n; i++ {
		out[i] = a.ByteAt(h, i)
	}
	a.Destroy(h)
	return string(out)
}

func TestAssemble_HexDump(t *testing.T) {
	b := New(abi.NewArena())
	in := stage(b.Arena(), nopSource)

	out := b.Assemble(uint32(format.HexDump), in)
	require.NotEqual(t, in, out)

	assert.Equal(t, pipeline.Run([]byte(nopSource), format.HexDump).Text, collect(b.Arena(), out))
}

func TestAssemble_InputUntouched(t *testing.T) {
	a := abi.NewArena()
	b := New(a)
	in := stage(a, nopSource)

	collect(a, b.Assemble(uint32(format.IntelHex), in))

	assert.Equal(t, uint32(len(nopSource)), a.Len(in))
	assert.Equal(t, nopSource, string(a.Bytes(in)))

	a.Destroy(in)
	count, total := a.Stats()
	assert.Zero(t, count)
	assert.Zero(t, total)
}

func TestAssemble_SyntaxError(t *testing.T) {
	a := abi.NewArena()
	b := New(a)
	in := stage(a, "#d8 (\n")
	defer a.Destroy(in)

	text := collect(a, b.Assemble(uint32(format.HexStr), in))
	assert.NotEmpty(t, text)
	assert.Regexp(t, regexp.MustCompile(`asm:1:\d+`), text)
}

func TestAssembleTagged(t *testing.T) {
	a := abi.NewArena()
	b := New(a)

	tests := []struct {
		name   string
		src    string
		status pipeline.Status
	}{
		{name: "success", src: nopSource, status: pipeline.StatusSuccess},
		{name: "failure", src: "bogus\n", status: pipeline.StatusFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := stage(a, tt.src)
			defer a.Destroy(in)

			status, h := abi.UnpackResult(b.AssembleTagged(uint32(format.HexStr), in))
			assert.Equal(t, uint32(tt.status), status)
			assert.NotZero(t, h)
			assert.NotEmpty(t, collect(a, h))
		})
	}
}

func TestAssemble_EmptyInput(t *testing.T) {
	a := abi.NewArena()
	b := New(a)
	in := a.Create(0)
	defer a.Destroy(in)

	for _, f := range format.All() {
		status, h := abi.UnpackResult(b.AssembleTagged(uint32(f), in))
		assert.Equal(t, uint32(pipeline.StatusSuccess), status, f.String())
		collect(a, h)
	}
	count, _ := a.Stats()
	assert.Equal(t, 1, count, "only the input handle remains")
}

func TestVersion_FreshHandleEachCall(t *testing.T) {
	a := abi.NewArena()
	b := New(a)

	h1 := b.Version()
	h2 := b.Version()
	assert.NotEqual(t, h1, h2)

	v1, v2 := collect(a, h1), collect(a, h2)
	assert.NotEmpty(t, v1)
	assert.Equal(t, v1, v2)

	count, _ := a.Stats()
	assert.Zero(t, count)
}
