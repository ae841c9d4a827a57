//go:build wasip1

// Command asmbridge-wasm is the assembler as a WASM reactor. Build with
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o asmbridge.wasm ./cmd/asmbridge-wasm
package main

import (
	_ "github.com/reglet-dev/asmbridge/internal/abi"
	_ "github.com/reglet-dev/asmbridge/internal/bridge"
	_ "github.com/reglet-dev/asmbridge/log"
)

// main is never called in a reactor; exports are served after _initialize.
func main() {}
