package host

import (
	"context"
	"fmt"

	"github.com/reglet-dev/asmbridge/errors"
	"github.com/reglet-dev/asmbridge/internal/abi"
	"github.com/reglet-dev/asmbridge/internal/bridge"
)

// LocalGuest runs the assembler in-process over a private arena. Faults
// that would trap a WASM instance are returned as *errors.BridgeError.
type LocalGuest struct {
	bridge *bridge.Bridge
}

var _ BulkGuest = (*LocalGuest)(nil)

// NewLocalGuest creates a LocalGuest. WithMaxTotalAllocations bounds its
// arena.
func NewLocalGuest(opts ...Option) *LocalGuest {
	o := buildOptions(opts)
	arena := abi.NewArena(abi.WithMaxTotalAllocations(o.maxTotalAllocations))
	return &LocalGuest{bridge: bridge.New(arena)}
}

// Stats reports the live handles and bytes held by the arena.
func (g *LocalGuest) Stats() (count int, totalBytes int) {
	return g.bridge.Arena().Stats()
}

// guard turns a panic inside op into an error.
func guard(op string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &errors.BridgeError{Op: op, Err: fmt.Errorf("%v", r)}
		}
	}()
	fn()
	return nil
}

// CreateBuffer implements Guest.
func (g *LocalGuest) CreateBuffer(_ context.Context, length uint32) (h uint32, err error) {
	err = guard(ExportCreateBuffer, func() { h = uint32(g.bridge.Arena().Create(length)) })
	return h, err
}

// DestroyBuffer implements Guest.
func (g *LocalGuest) DestroyBuffer(_ context.Context, h uint32) error {
	return guard(ExportDestroyBuffer, func() { g.bridge.Arena().Destroy(abi.Handle(h)) })
}

// BufferLength implements Guest.
func (g *LocalGuest) BufferLength(_ context.Context, h uint32) (n uint32, err error) {
	err = guard(ExportBufferLength, func() { n = g.bridge.Arena().Len(abi.Handle(h)) })
	return n, err
}

// GetByte implements Guest.
func (g *LocalGuest) GetByte(_ context.Context, h, index uint32) (v byte, err error) {
	err = guard(ExportReadByte, func() { v = g.bridge.Arena().ByteAt(abi.Handle(h), index) })
	return v, err
}

// SetByte implements Guest.
func (g *LocalGuest) SetByte(_ context.Context, h, index uint32, value byte) error {
	return guard(ExportWriteByte, func() { g.bridge.Arena().SetByte(abi.Handle(h), index, value) })
}

// Version implements Guest.
func (g *LocalGuest) Version(_ context.Context) (h uint32, err error) {
	err = guard(ExportGetVersion, func() { h = uint32(g.bridge.Version()) })
	return h, err
}

// Assemble implements Guest.
func (g *LocalGuest) Assemble(_ context.Context, format, input uint32) (h uint32, err error) {
	err = guard(ExportAssemble, func() { h = uint32(g.bridge.Assemble(format, abi.Handle(input))) })
	return h, err
}

// AssembleTagged implements Guest.
func (g *LocalGuest) AssembleTagged(_ context.Context, format, input uint32) (packed uint64, err error) {
	err = guard(ExportAssembleTagged, func() { packed = g.bridge.AssembleTagged(format, abi.Handle(input)) })
	return packed, err
}

// ReadBuffer implements BulkGuest.
func (g *LocalGuest) ReadBuffer(_ context.Context, h uint32) (data []byte, err error) {
	err = guard(ExportReadByte, func() { data = g.bridge.Arena().Bytes(abi.Handle(h)) })
	return data, err
}

// WriteBuffer implements BulkGuest.
func (g *LocalGuest) WriteBuffer(_ context.Context, h uint32, data []byte) error {
	return guard(ExportWriteByte, func() {
		arena := g.bridge.Arena()
		if int(arena.Len(abi.Handle(h))) < len(data) {
			panic(fmt.Sprintf("write of %d bytes exceeds buffer %d", len(data), h))
		}
		for i, b := range data {
			arena.SetByte(abi.Handle(h), uint32(i), b)
		}
	})
}
