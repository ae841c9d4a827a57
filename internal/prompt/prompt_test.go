package prompt_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeerrors "github.com/reglet-dev/asmbridge/errors"
	"github.com/reglet-dev/asmbridge/format"
	"github.com/reglet-dev/asmbridge/internal/prompt"
)

func TestFormatPrompter_SelectFormat(t *testing.T) {
	t.Run("By name", func(t *testing.T) {
		out := &bytes.Buffer{}
		p := prompt.NewFormatPrompter(bytes.NewBufferString("intelhex\n"), out)

		f, err := p.SelectFormat(format.HexDump)
		require.NoError(t, err)
		assert.Equal(t, format.IntelHex, f)
		assert.Contains(t, out.String(), "Format [hexdump]: ")
		assert.Contains(t, out.String(), " 7  intelhex")
	})

	t.Run("By code", func(t *testing.T) {
		p := prompt.NewFormatPrompter(bytes.NewBufferString("12\n"), &bytes.Buffer{})

		f, err := p.SelectFormat(format.HexDump)
		require.NoError(t, err)
		assert.Equal(t, format.Logisim8, f)
	})

	t.Run("Default on empty line", func(t *testing.T) {
		p := prompt.NewFormatPrompter(bytes.NewBufferString("\n"), &bytes.Buffer{})

		f, err := p.SelectFormat(format.MIF)
		require.NoError(t, err)
		assert.Equal(t, format.MIF, f)
	})

	t.Run("Unknown name", func(t *testing.T) {
		p := prompt.NewFormatPrompter(bytes.NewBufferString("srec\n"), &bytes.Buffer{})

		_, err := p.SelectFormat(format.HexDump)
		var formatErr *bridgeerrors.FormatError
		assert.True(t, errors.As(err, &formatErr))
	})

	t.Run("EOF", func(t *testing.T) {
		p := prompt.NewFormatPrompter(&bytes.Buffer{}, &bytes.Buffer{})

		_, err := p.SelectFormat(format.HexDump)
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestFormatPrompter_IsInteractive(t *testing.T) {
	p := prompt.NewFormatPrompter(&bytes.Buffer{}, &bytes.Buffer{})
	assert.False(t, p.IsInteractive())
}
