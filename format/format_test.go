package format

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeerrors "github.com/reglet-dev/asmbridge/errors"
	"github.com/reglet-dev/asmbridge/internal/output"
	"github.com/reglet-dev/asmbridge/internal/vfs"
)

func TestCodesAreStable(t *testing.T) {
	assert.Equal(t, Format(0), AnnotatedHex)
	assert.Equal(t, Format(2), HexDump)
	assert.Equal(t, Format(7), IntelHex)
	assert.Equal(t, Format(13), Logisim16)
	assert.Equal(t, Format(14), Count)
}

func TestParse_RoundTrip(t *testing.T) {
	for _, f := range All() {
		t.Run(f.String(), func(t *testing.T) {
			parsed, err := Parse(f.String())
			require.NoError(t, err)
			assert.Equal(t, f, parsed)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{input: "HexDump", want: HexDump},
		{input: " intelhex ", want: IntelHex},
		{input: "13", want: Logisim16},
		{input: "0", want: AnnotatedHex},
	}
	for _, tt := range tests {
		got, err := Parse(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}

func TestParse_Unknown(t *testing.T) {
	for _, input := range []string{"", "srec", "14", "-1"} {
		_, err := Parse(input)

		var formatErr *bridgeerrors.FormatError
		require.True(t, errors.As(err, &formatErr), input)
		assert.Equal(t, input, formatErr.Value)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "annotated-bin", AnnotatedBin.String())
	assert.Equal(t, "Format(99)", Format(99).String())
	assert.True(t, Logisim8.Valid())
	assert.False(t, Count.Valid())
	assert.Len(t, All(), int(Count))
}

func TestRender_Dispatch(t *testing.T) {
	bin := output.FromBytes([]byte{0x12, 0xab})

	tests := []struct {
		format Format
		want   string
	}{
		{format: HexStr, want: "12ab"},
		{format: BinStr, want: "0001001010101011"},
		{format: DecComma, want: "18, 171"},
		{format: HexComma, want: "0x12, 0xab"},
		{format: Logisim16, want: "v2.0 raw\n12ab\n"},
		{format: Logisim8, want: "v2.0 raw\n12 ab\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Render(bin, nil, tt.format, 0, bin.Len()))
		})
	}
}

func TestRender_EmptyArtifact(t *testing.T) {
	bin := output.NewBinary()
	fs := vfs.NewMemory()

	for _, f := range All() {
		t.Run(f.String(), func(t *testing.T) {
			assert.NotPanics(t, func() {
				Render(bin, fs, f, 0, 0)
			})
		})
	}
}

func TestRender_InvalidCodePanics(t *testing.T) {
	bin := output.NewBinary()
	assert.PanicsWithValue(t, "format: invalid format code 14", func() {
		Render(bin, nil, Count, 0, 0)
	})
}
