package host

import (
	"context"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/reglet-dev/asmbridge/errors"
)

// requiredExports are checked before instantiation. Instance relies on
// every one of them.
var requiredExports = []string{
	ExportCreateBuffer,
	ExportDestroyBuffer,
	ExportBufferLength,
	ExportReadByte,
	ExportWriteByte,
	ExportGetVersion,
	ExportAssemble,
	ExportAssembleTagged,
	ExportBufferPointer,
}

// Executor owns a wazero runtime with WASI preview1 and loads assembler
// modules into it.
type Executor struct {
	runtime wazero.Runtime
	opts    options
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{opts: buildOptions(opts)}

	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	e.runtime = rt
	return e, nil
}

// Close releases the runtime and every module loaded into it.
func (e *Executor) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Load compiles and instantiates an assembler module. The module is a
// reactor: its _initialize export runs once here.
func (e *Executor) Load(ctx context.Context, wasmBytes []byte) (*Instance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}
	for _, name := range requiredExports {
		if _, ok := compiled.ExportedFunctions()[name]; !ok {
			_ = compiled.Close(ctx)
			return nil, fmt.Errorf("module does not export %q", name)
		}
	}

	var stderr io.Writer = newLogWriter(e.opts.logger)
	if e.opts.stderr != nil {
		stderr = e.opts.stderr
	}
	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStderr(stderr).
		WithStartFunctions()

	mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	e.opts.logger.Debug("assembler module loaded", zap.Int("wasm_bytes", len(wasmBytes)))
	return &Instance{module: mod, stderr: stderr}, nil
}

// Instance is a loaded assembler module. It is not safe for concurrent
// use.
type Instance struct {
	module api.Module
	stderr io.Writer
}

var _ BulkGuest = (*Instance)(nil)

// Close releases the module and flushes any partial log line.
func (p *Instance) Close(ctx context.Context) error {
	if lw, ok := p.stderr.(*logWriter); ok {
		lw.Flush()
	}
	return p.module.Close(ctx)
}

func (p *Instance) call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	f := p.module.ExportedFunction(name)
	if f == nil {
		return nil, &errors.BridgeError{Op: name, Err: fmt.Errorf("export not found")}
	}
	results, err := f.Call(ctx, params...)
	if err != nil {
		return nil, &errors.BridgeError{Op: name, Err: err}
	}
	return results, nil
}

func (p *Instance) call32(ctx context.Context, name string, params ...uint64) (uint32, error) {
	results, err := p.call(ctx, name, params...)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, &errors.BridgeError{Op: name, Err: fmt.Errorf("no result")}
	}
	return api.DecodeU32(results[0]), nil
}

// CreateBuffer implements Guest.
func (p *Instance) CreateBuffer(ctx context.Context, length uint32) (uint32, error) {
	return p.call32(ctx, ExportCreateBuffer, api.EncodeU32(length))
}

// DestroyBuffer implements Guest.
func (p *Instance) DestroyBuffer(ctx context.Context, h uint32) error {
	_, err := p.call(ctx, ExportDestroyBuffer, api.EncodeU32(h))
	return err
}

// BufferLength implements Guest.
func (p *Instance) BufferLength(ctx context.Context, h uint32) (uint32, error) {
	return p.call32(ctx, ExportBufferLength, api.EncodeU32(h))
}

// GetByte implements Guest.
func (p *Instance) GetByte(ctx context.Context, h, index uint32) (byte, error) {
	v, err := p.call32(ctx, ExportReadByte, api.EncodeU32(h), api.EncodeU32(index))
	return byte(v), err
}

// SetByte implements Guest.
func (p *Instance) SetByte(ctx context.Context, h, index uint32, value byte) error {
	_, err := p.call(ctx, ExportWriteByte, api.EncodeU32(h), api.EncodeU32(index), api.EncodeU32(uint32(value)))
	return err
}

// Version implements Guest.
func (p *Instance) Version(ctx context.Context) (uint32, error) {
	return p.call32(ctx, ExportGetVersion)
}

// Assemble implements Guest.
func (p *Instance) Assemble(ctx context.Context, format, input uint32) (uint32, error) {
	return p.call32(ctx, ExportAssemble, api.EncodeU32(format), api.EncodeU32(input))
}

// AssembleTagged implements Guest.
func (p *Instance) AssembleTagged(ctx context.Context, format, input uint32) (uint64, error) {
	results, err := p.call(ctx, ExportAssembleTagged, api.EncodeU32(format), api.EncodeU32(input))
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, &errors.BridgeError{Op: ExportAssembleTagged, Err: fmt.Errorf("no result")}
	}
	return results[0], nil
}

// ReadBuffer copies a whole buffer out of linear memory.
func (p *Instance) ReadBuffer(ctx context.Context, h uint32) ([]byte, error) {
	length, err := p.BufferLength(ctx, h)
	if err != nil || length == 0 {
		return []byte{}, err
	}
	ptr, err := p.call32(ctx, ExportBufferPointer, api.EncodeU32(h))
	if err != nil {
		return nil, err
	}
	data, ok := p.module.Memory().Read(ptr, length)
	if !ok {
		return nil, &errors.BridgeError{Op: ExportBufferPointer, Err: fmt.Errorf("buffer %d out of memory range", h)}
	}
	out := make([]byte, length)
	copy(out, data)
	return out, nil
}

// WriteBuffer copies data into a buffer created with len(data) bytes.
func (p *Instance) WriteBuffer(ctx context.Context, h uint32, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	ptr, err := p.call32(ctx, ExportBufferPointer, api.EncodeU32(h))
	if err != nil {
		return err
	}
	if !p.module.Memory().Write(ptr, data) {
		return &errors.BridgeError{Op: ExportBufferPointer, Err: fmt.Errorf("buffer %d out of memory range", h)}
	}
	return nil
}
