//go:build wasip1

package bridge

import "github.com/reglet-dev/asmbridge/internal/abi"

var guest = New(abi.Default())

//go:wasmexport assemble
//nolint:revive // snake_case matches the WASM export convention
func assemble(format uint32, input uint32) uint32 {
	return uint32(guest.Assemble(format, abi.Handle(input)))
}

//go:wasmexport assemble_tagged
//nolint:revive
func assemble_tagged(format uint32, input uint32) uint64 {
	return guest.AssembleTagged(format, abi.Handle(input))
}

//go:wasmexport get_version
//nolint:revive
func get_version() uint32 {
	return uint32(guest.Version())
}
