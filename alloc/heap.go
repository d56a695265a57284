package alloc

import (
	"fmt"
	"sync"

	"github.com/hupe1980/treestore/core"
)

// Heap is the default core.Allocator backed by Go heap memory. It is
// intentionally minimal; it does not enforce quotas or pooling. Callers that
// route buffers to special memory spaces supply their own implementation and
// distinguish it by tag.
type Heap struct {
	mu        sync.Mutex
	tag       int64
	allocated int64 // live bytes, for introspection only
}

var _ core.Allocator = (*Heap)(nil)

// NewHeap returns a heap allocator carrying the given opaque tag.
func NewHeap(tag int64) *Heap {
	return &Heap{tag: tag}
}

// Tag returns the opaque identifier recorded on buffers allocated through
// this allocator.
func (h *Heap) Tag() int64 { return h.tag }

// Allocate returns a zeroed slice of numBytes bytes.
func (h *Heap) Allocate(numBytes int64) ([]byte, error) {
	if numBytes < 0 {
		return nil, fmt.Errorf("negative allocation size %d", numBytes)
	}
	h.mu.Lock()
	h.allocated += numBytes
	h.mu.Unlock()
	return make([]byte, numBytes), nil
}

// Free releases a region previously returned by Allocate. The memory itself
// is reclaimed by the garbage collector; only the live-byte count is updated.
func (h *Heap) Free(data []byte) {
	h.mu.Lock()
	h.allocated -= int64(len(data))
	h.mu.Unlock()
}

// AllocatedBytes returns the number of bytes allocated and not yet freed.
func (h *Heap) AllocatedBytes() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocated
}
