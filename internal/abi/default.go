package abi

var defaultArena = NewArena()

// Default returns the process-wide arena backing the WASM exports.
func Default() *Arena {
	return defaultArena
}

// Configure applies options to the default arena.
func Configure(opts ...Option) {
	defaultArena.Configure(opts...)
}

// Stats reports live buffers in the default arena.
func Stats() (count int, totalBytes int) {
	return defaultArena.Stats()
}

// FreeAllTracked frees every buffer in the default arena.
func FreeAllTracked() {
	defaultArena.FreeAll()
}
