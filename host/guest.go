package host

import "context"

// Export names of the guest module.
const (
	ExportCreateBuffer   = "create_buffer"
	ExportDestroyBuffer  = "destroy_buffer"
	ExportBufferLength   = "buffer_length"
	ExportReadByte       = "read_byte"
	ExportWriteByte      = "write_byte"
	ExportGetVersion     = "get_version"
	ExportAssemble       = "assemble"
	ExportAssembleTagged = "assemble_tagged"
	ExportBufferPointer  = "buffer_pointer"
)

// Guest is the assembler's boundary. Handles are opaque; every handle
// returned by CreateBuffer, Version, Assemble or AssembleTagged must be
// passed to DestroyBuffer exactly once.
type Guest interface {
	CreateBuffer(ctx context.Context, length uint32) (uint32, error)
	DestroyBuffer(ctx context.Context, h uint32) error
	BufferLength(ctx context.Context, h uint32) (uint32, error)
	GetByte(ctx context.Context, h, index uint32) (byte, error)
	SetByte(ctx context.Context, h, index uint32, value byte) error
	Version(ctx context.Context) (uint32, error)
	Assemble(ctx context.Context, format, input uint32) (uint32, error)
	AssembleTagged(ctx context.Context, format, input uint32) (uint64, error)
}

// BulkGuest is implemented by guests that can move a whole buffer in one
// call. Client falls back to byte-wise access otherwise.
type BulkGuest interface {
	Guest
	ReadBuffer(ctx context.Context, h uint32) ([]byte, error)
	WriteBuffer(ctx context.Context, h uint32, data []byte) error
}
