package job

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bridgeerrors "github.com/reglet-dev/asmbridge/errors"
	"github.com/reglet-dev/asmbridge/format"
	"github.com/reglet-dev/asmbridge/host"
	"github.com/reglet-dev/asmbridge/internal/testutil"
)

const manifestYAML = `
defaults:
  format: hexstr
  output_dir: out
jobs:
  - name: boot
    source: boot.asm
    format: intelhex
    output: boot.hex
  - name: table
    source: table.asm
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(manifestYAML))
	require.NoError(t, err)
	require.Len(t, m.Jobs, 2)

	assert.Equal(t, "boot", m.Jobs[0].Name)
	assert.Equal(t, "out", m.Defaults.OutputDir)

	f, err := m.FormatOf(m.Jobs[0])
	require.NoError(t, err)
	assert.Equal(t, format.IntelHex, f)

	f, err = m.FormatOf(m.Jobs[1])
	require.NoError(t, err)
	assert.Equal(t, format.HexStr, f)

	f, err = (&Manifest{}).FormatOf(Job{})
	require.NoError(t, err)
	assert.Equal(t, format.HexDump, f)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantField string
		contains  string
	}{
		{
			name:      "no jobs",
			yaml:      "defaults:\n  format: mif\n",
			wantField: "jobs",
			contains:  "is required",
		},
		{
			name:      "empty job list",
			yaml:      "jobs: []\n",
			wantField: "jobs",
			contains:  "jobs",
		},
		{
			name:      "missing source",
			yaml:      "jobs:\n  - name: a\n",
			wantField: "jobs[0].source",
			contains:  "is required",
		},
		{
			name:      "unknown format",
			yaml:      "jobs:\n  - name: a\n    source: a.asm\n    format: srec\n",
			wantField: "jobs[0].format",
			contains:  `"srec"`,
		},
		{
			name:      "unknown default format",
			yaml:      "defaults:\n  format: x\njobs:\n  - name: a\n    source: a.asm\n",
			wantField: "defaults.format",
			contains:  `"x"`,
		},
		{
			name:      "duplicate names",
			yaml:      "jobs:\n  - name: a\n    source: a.asm\n  - name: a\n    source: b.asm\n",
			wantField: "jobs[1].name",
			contains:  "duplicate job name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var cfgErr *bridgeerrors.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantField, cfgErr.Field)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestParse_UnknownKey(t *testing.T) {
	_, err := Parse([]byte("jobs:\n  - name: a\n    source: a.asm\n    colour: red\n"))

	var cfgErr *bridgeerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "colour")
}

func TestPaths(t *testing.T) {
	m, err := Parse([]byte(manifestYAML))
	require.NoError(t, err)
	m.BaseDir = filepath.Join("work", "jobs")

	assert.Equal(t, filepath.Join("work", "jobs", "boot.asm"), m.SourcePath(m.Jobs[0]))
	assert.Equal(t, filepath.Join("work", "jobs", "out", "boot.hex"), m.OutputPath(m.Jobs[0]))
	assert.Empty(t, m.OutputPath(m.Jobs[1]))

	abs := Job{Source: filepath.Join(string(filepath.Separator), "src", "a.asm")}
	assert.Equal(t, abs.Source, m.SourcePath(abs))
}

func TestSchema(t *testing.T) {
	data, err := Schema()
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "properties")
	assert.Contains(t, string(data), `"jobs"`)
	assert.Contains(t, string(data), `"output_dir"`)
	assert.Contains(t, string(data), `"logisim16"`)
	assert.NotContains(t, string(data), "BaseDir")
}

func TestRunner(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "boot.asm", "#d8 1, 2\n")
	testutil.WriteFile(t, dir, "table.asm", "oops\n")
	path := testutil.WriteFile(t, dir, "jobs.yaml", manifestYAML+"  - name: missing\n    source: nowhere.asm\n")

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, m.BaseDir)

	guest := host.NewLocalGuest()
	outcomes, err := NewRunner(host.NewClient(guest), nil).Run(context.Background(), m)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	boot := outcomes[0]
	assert.True(t, boot.OK())
	assert.Equal(t, "success", boot.Status)
	assert.Equal(t, "intelhex", boot.Format)
	written, err := os.ReadFile(filepath.Join(dir, "out", "boot.hex"))
	require.NoError(t, err)
	assert.Equal(t, ":020000000102FB\n:00000001FF\n", string(written))
	assert.Equal(t, len(written), boot.Bytes)

	table := outcomes[1]
	assert.False(t, table.OK())
	assert.Equal(t, "failure", table.Status)
	assert.Equal(t, "assembly", table.Error.Type)
	assert.Contains(t, table.Error.Message, "unknown instruction `oops`")

	missing := outcomes[2]
	assert.False(t, missing.OK())
	assert.Equal(t, "internal", missing.Error.Type)

	count, _ := guest.Stats()
	assert.Zero(t, count)
}

func TestRunner_CanceledContext(t *testing.T) {
	m, err := Parse([]byte(manifestYAML))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := NewRunner(host.NewClient(host.NewLocalGuest()), nil).Run(ctx, m)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, outcomes)
}
