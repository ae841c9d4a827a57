// Package abi owns the guest side of the host/guest byte-buffer protocol.
//
// The host can only pass integers across the WASM boundary, so every text
// value lives in a guest-owned buffer that the host addresses through an
// opaque Handle. Buffers are pinned in an Arena until the holder of the
// handle destroys it; Destroy is the only way an entry leaves the arena.
package abi

import (
	"fmt"
	"sync"
)

// DefaultMaxTotalAllocations is the default cap on live buffer bytes per arena.
// This prevents unbounded memory growth in WASM linear memory.
const DefaultMaxTotalAllocations = 100 * 1024 * 1024 // 100 MB

// Handle is an opaque token naming one live buffer. The zero Handle is never issued.
type Handle uint32

// Option configures an Arena.
type Option func(*config)

type config struct {
	maxTotalAllocations int
}

func defaultConfig() config {
	return config{maxTotalAllocations: DefaultMaxTotalAllocations}
}

// WithMaxTotalAllocations sets the limit on live buffer bytes.
// Zero or negative limits are ignored.
func WithMaxTotalAllocations(limit int) Option {
	return func(c *config) {
		if limit > 0 {
			c.maxTotalAllocations = limit
		}
	}
}

// Arena tracks every buffer handed out across the boundary. Holding the
// slice in the map keeps the Go GC from collecting memory the host may
// still be addressing.
type Arena struct {
	mu             sync.Mutex
	bufs           map[Handle][]byte
	next           Handle
	totalAllocated int
	cfg            config
}

// NewArena creates an empty arena.
func NewArena(opts ...Option) *Arena {
	a := &Arena{
		bufs: make(map[Handle][]byte),
		cfg:  defaultConfig(),
	}
	a.Configure(opts...)
	return a
}

// Configure applies options to an existing arena. Live buffers are kept.
func (a *Arena) Configure(opts ...Option) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, opt := range opts {
		opt(&a.cfg)
	}
}

// Create allocates a zero-filled buffer of exactly length bytes.
// Panics if the allocation would exceed the arena limit; allocation
// failure is fatal, never a returned error.
func (a *Arena) Create(length uint32) Handle {
	return a.adopt(make([]byte, length))
}

// CreateFrom allocates a buffer holding a copy of content.
func (a *Arena) CreateFrom(content []byte) Handle {
	buf := make([]byte, len(content))
	copy(buf, content)
	return a.adopt(buf)
}

func (a *Arena) adopt(buf []byte) Handle {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.totalAllocated+len(buf) > a.cfg.maxTotalAllocations {
		panic(fmt.Sprintf("abi: memory allocation limit exceeded (requested: %d bytes, current: %d bytes, limit: %d bytes)",
			len(buf), a.totalAllocated, a.cfg.maxTotalAllocations))
	}

	h := a.nextHandle()
	a.bufs[h] = buf
	a.totalAllocated += len(buf)
	return h
}

// nextHandle skips 0 and any token still live after a wrap-around.
func (a *Arena) nextHandle() Handle {
	for {
		a.next++
		if a.next == 0 {
			continue
		}
		if _, live := a.bufs[a.next]; !live {
			return a.next
		}
	}
}

// Destroy releases the buffer behind h. Destroying an unknown or already
// destroyed handle is a contract violation; it is ignored unless the
// package is built with the abidebug tag.
func (a *Arena) Destroy(h Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf, ok := a.bufs[h]
	if !ok {
		if boundsChecks {
			panic(fmt.Sprintf("abi: destroy of unknown handle %d", h))
		}
		return
	}

	delete(a.bufs, h)
	a.totalAllocated -= len(buf)
	if a.totalAllocated < 0 {
		a.totalAllocated = 0
	}
}

// Len returns the current byte count of the buffer.
func (a *Arena) Len(h Handle) uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint32(len(a.lookup("length", h)))
}

// ByteAt returns the byte at index. The caller guarantees index < Len(h).
func (a *Arena) ByteAt(h Handle, index uint32) byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf := a.lookup("read", h)
	if boundsChecks {
		checkIndex("read", h, index, len(buf))
	}
	return buf[index]
}

// SetByte overwrites the byte at index in place. The caller guarantees index < Len(h).
func (a *Arena) SetByte(h Handle, index uint32, value byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf := a.lookup("write", h)
	if boundsChecks {
		checkIndex("write", h, index, len(buf))
	}
	buf[index] = value
}

// Bytes returns a copy of the whole buffer.
func (a *Arena) Bytes(h Handle) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf := a.lookup("read", h)
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}

// Stats returns the number of live buffers and their total size in bytes.
func (a *Arena) Stats() (count int, totalBytes int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bufs), a.totalAllocated
}

// FreeAll drops every live buffer. Used on module shutdown and in tests.
func (a *Arena) FreeAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for h := range a.bufs {
		delete(a.bufs, h)
	}
	a.totalAllocated = 0
}

// lookup must be called with mu held.
func (a *Arena) lookup(op string, h Handle) []byte {
	buf, ok := a.bufs[h]
	if !ok && boundsChecks {
		panic(fmt.Sprintf("abi: %s on unknown handle %d", op, h))
	}
	return buf
}

func checkIndex(op string, h Handle, index uint32, length int) {
	if int(index) >= length {
		panic(fmt.Sprintf("abi: %s out of bounds on handle %d (index: %d, length: %d)", op, h, index, length))
	}
}
