package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBridgeError(t *testing.T) {
	baseErr := fmt.Errorf("wasm trap")
	err := &BridgeError{Op: "assemble", Err: baseErr}

	assert.Equal(t, "bridge assemble failed: wasm trap", err.Error())
	assert.True(t, errors.Is(err, baseErr))

	wrapped := fmt.Errorf("run job: %w", err)
	var bridgeErr *BridgeError
	require.True(t, errors.As(wrapped, &bridgeErr))
	assert.Equal(t, "assemble", bridgeErr.Op)
}

func TestFormatError(t *testing.T) {
	err := &FormatError{Value: "srec"}
	assert.Equal(t, `unknown output format "srec"`, err.Error())
}

func TestAssemblyError(t *testing.T) {
	err := &AssemblyError{Report: "error: unknown instruction `foo`\n"}
	assert.Equal(t, "assembly failed:\nerror: unknown instruction `foo`\n", err.Error())
	assert.Equal(t, "assembly failed", (&AssemblyError{}).Error())
}

func TestConfigError(t *testing.T) {
	baseErr := fmt.Errorf("required")
	err := &ConfigError{Field: "jobs[0].source", Err: baseErr}

	assert.Equal(t, "invalid configuration field jobs[0].source: required", err.Error())
	assert.True(t, errors.Is(err, baseErr))
	assert.Equal(t, "invalid configuration: required", (&ConfigError{Err: baseErr}).Error())
}

func TestMemoryError(t *testing.T) {
	err := &MemoryError{Requested: 2048, Limit: 1024}
	assert.Equal(t, "request of 2048 bytes exceeds limit of 1024 bytes", err.Error())
}

func TestToErrorDetail(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantType string
		wantCode string
	}{
		{name: "bridge", err: &BridgeError{Op: "read_byte", Err: fmt.Errorf("x")}, wantType: "bridge", wantCode: "read_byte"},
		{name: "format", err: &FormatError{Value: "x"}, wantType: "validation", wantCode: "format"},
		{name: "assembly", err: &AssemblyError{Report: "r"}, wantType: "assembly"},
		{name: "config", err: &ConfigError{Field: "output", Err: fmt.Errorf("x")}, wantType: "config", wantCode: "output"},
		{name: "memory", err: &MemoryError{Requested: 2, Limit: 1}, wantType: "internal", wantCode: "memory_limit"},
		{name: "wrapped", err: fmt.Errorf("outer: %w", &FormatError{Value: "x"}), wantType: "validation", wantCode: "format"},
		{name: "generic", err: fmt.Errorf("boom"), wantType: "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := ToErrorDetail(tt.err)
			require.NotNil(t, detail)
			assert.Equal(t, tt.wantType, detail.Type)
			assert.Equal(t, tt.wantCode, detail.Code)
		})
	}

	assert.Nil(t, ToErrorDetail(nil))

	existing := &ErrorDetail{Message: "m", Type: "t"}
	assert.Same(t, existing, ToErrorDetail(fmt.Errorf("w: %w", existing)))
}
