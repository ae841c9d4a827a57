//go:build wasip1

package abi

import "unsafe"

//go:wasmexport create_buffer
//nolint:revive // snake_case matches the WASM export convention
func create_buffer(length uint32) uint32 {
	return uint32(defaultArena.Create(length))
}

//go:wasmexport destroy_buffer
//nolint:revive
func destroy_buffer(h uint32) {
	defaultArena.Destroy(Handle(h))
}

//go:wasmexport buffer_length
//nolint:revive
func buffer_length(h uint32) uint32 {
	return defaultArena.Len(Handle(h))
}

//go:wasmexport read_byte
//nolint:revive
func read_byte(h uint32, index uint32) uint32 {
	return uint32(defaultArena.ByteAt(Handle(h), index))
}

//go:wasmexport write_byte
//nolint:revive
func write_byte(h uint32, index uint32, value uint32) {
	defaultArena.SetByte(Handle(h), index, byte(value))
}

// buffer_pointer exposes the linear-memory address of a buffer so the host
// can move bytes in bulk with Memory().Read/Write. The address stays valid
// until the handle is destroyed because the arena pins the slice.
//
//go:wasmexport buffer_pointer
//nolint:revive
func buffer_pointer(h uint32) uint32 {
	defaultArena.mu.Lock()
	defer defaultArena.mu.Unlock()

	buf := defaultArena.lookup("pointer", Handle(h))
	if len(buf) == 0 {
		return 0
	}
	//nolint:gosec // G103: WASM linear memory offsets fit in 32 bits
	return uint32(uintptr(unsafe.Pointer(&buf[0])))
}
