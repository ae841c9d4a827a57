// Package bridge implements the assembler's boundary operations over a
// handle arena. Every operation takes and returns plain integers so it
// can be exported from a WASM module unchanged.
package bridge

import (
	"github.com/reglet-dev/asmbridge/format"
	"github.com/reglet-dev/asmbridge/internal/abi"
	"github.com/reglet-dev/asmbridge/internal/version"
	"github.com/reglet-dev/asmbridge/pipeline"
)

// Bridge serves assembly requests whose buffers live in one arena.
type Bridge struct {
	arena *abi.Arena
}

// New returns a Bridge allocating from arena.
func New(arena *abi.Arena) *Bridge {
	return &Bridge{arena: arena}
}

// Arena returns the arena backing every handle this Bridge returns.
func (b *Bridge) Arena() *abi.Arena {
	return b.arena
}

// Assemble runs the pipeline on the contents of input and returns a new
// handle holding either the rendering or the diagnostic report. The
// caller keeps ownership of input and must destroy the result.
func (b *Bridge) Assemble(f uint32, input abi.Handle) abi.Handle {
	_, h := b.assemble(f, input)
	return h
}

// AssembleTagged is Assemble with the outcome packed next to the handle,
// see abi.PackResult.
func (b *Bridge) AssembleTagged(f uint32, input abi.Handle) uint64 {
	status, h := b.assemble(f, input)
	return abi.PackResult(uint32(status), h)
}

func (b *Bridge) assemble(f uint32, input abi.Handle) (pipeline.Status, abi.Handle) {
	res := pipeline.Run(b.arena.Bytes(input), format.Format(f))
	return res.Status, b.arena.CreateFrom([]byte(res.Text))
}

// Version returns a new handle holding the build version.
func (b *Bridge) Version() abi.Handle {
	return b.arena.CreateFrom([]byte(version.String()))
}
