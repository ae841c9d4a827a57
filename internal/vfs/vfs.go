// Package vfs provides the named-file lookup the assembler reads sources through.
package vfs

import (
	"os"
	"path/filepath"
	"sync"
)

// FileServer resolves a logical file name to its contents.
type FileServer interface {
	Get(name string) ([]byte, bool)
}

// Memory is an in-memory FileServer. The zero value is not usable; call NewMemory.
type Memory struct {
	files map[string][]byte
}

// NewMemory creates an empty in-memory file server.
func NewMemory() *Memory {
	return &Memory{files: make(map[string][]byte)}
}

// Add registers name with the given contents, replacing any previous entry.
func (m *Memory) Add(name string, content []byte) {
	m.files[name] = content
}

// Get returns the contents registered for name.
func (m *Memory) Get(name string) ([]byte, bool) {
	content, ok := m.files[name]
	return content, ok
}

// Dir serves files below a root directory, falling back to an overlay of
// in-memory entries first. Contents are cached after the first read so
// diagnostics render against the same bytes the assembler saw.
type Dir struct {
	root    string
	overlay *Memory

	mu    sync.Mutex
	cache map[string][]byte
}

// NewDir creates a FileServer rooted at root.
func NewDir(root string) *Dir {
	return &Dir{
		root:    root,
		overlay: NewMemory(),
		cache:   make(map[string][]byte),
	}
}

// Add registers an in-memory entry that shadows the directory.
func (d *Dir) Add(name string, content []byte) {
	d.overlay.Add(name, content)
}

// Get returns the overlay entry for name, or the file below root.
func (d *Dir) Get(name string) ([]byte, bool) {
	if content, ok := d.overlay.Get(name); ok {
		return content, true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if content, ok := d.cache[name]; ok {
		return content, true
	}
	content, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(name)))
	if err != nil {
		return nil, false
	}
	d.cache[name] = content
	return content, true
}
