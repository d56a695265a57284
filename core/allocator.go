package core

// Allocator is the external memory collaborator buffers delegate physical
// allocation to. The store records the allocator's tag on every buffer it
// allocates but never interprets it; the tag exists so callers can route
// buffers to distinct memory spaces and recognize them later.
//
// Implementations are selected at wiring time (see the alloc package for the
// default heap-backed implementation).
type Allocator interface {
	// Tag returns the opaque identifier recorded on buffers allocated
	// through this allocator.
	Tag() int64
	// Allocate returns a zeroed region of at least numBytes bytes.
	Allocate(numBytes int64) ([]byte, error)
	// Free releases a region previously returned by Allocate. Implementations
	// backed by garbage-collected memory may treat this as a no-op.
	Free(data []byte)
}
