package treestore

import (
	"fmt"

	"github.com/hupe1980/treestore/core"
)

// Buffer is an indexed, reference-counted description of one contiguous
// memory region: element type, element count and, once allocated, the data
// itself. Buffers own no views and are owned exclusively by their DataStore;
// create them with DataStore.CreateBuffer and destroy them with
// DataStore.DestroyBuffer.
//
// A buffer moves through two steps: Describe fixes type and element count,
// Allocate requests memory from the store's allocator. Destroying a buffer
// first detaches it from every attached view, forcing those views to the
// empty state so no dangling reference survives.
type Buffer struct {
	id          core.IndexType
	typ         core.TypeID
	numElements int64
	data        []byte // nil until allocated
	allocTag    int64
	store       *DataStore
	views       []*View // attach order, for deterministic detach
}

// ID returns the buffer's stable index within its data store.
func (b *Buffer) ID() core.IndexType { return b.id }

// TypeID returns the described element type, or NoType if undescribed.
func (b *Buffer) TypeID() core.TypeID { return b.typ }

// NumElements returns the described element count.
func (b *Buffer) NumElements() int64 { return b.numElements }

// BytesPerElement returns the byte size of one element.
func (b *Buffer) BytesPerElement() int64 { return b.typ.BytesPerElement() }

// TotalBytes returns numElements * bytesPerElement.
func (b *Buffer) TotalBytes() int64 { return b.numElements * b.typ.BytesPerElement() }

// AllocatorTag returns the opaque tag of the allocator that provided the
// buffer's memory. Zero until allocated.
func (b *Buffer) AllocatorTag() int64 { return b.allocTag }

// IsDescribed reports whether the buffer carries a type and element count.
func (b *Buffer) IsDescribed() bool { return b.typ != core.NoType }

// IsAllocated reports whether the buffer holds memory.
func (b *Buffer) IsAllocated() bool { return b.data != nil }

// NumViews returns the number of views attached to the buffer.
func (b *Buffer) NumViews() int { return len(b.views) }

// Views returns the attached views in attach order. The slice is a snapshot
// safe for caller mutation.
func (b *Buffer) Views() []*View {
	out := make([]*View, len(b.views))
	copy(out, b.views)
	return out
}

// Bytes returns the allocated memory, or nil if unallocated. The slice
// aliases the buffer's storage; writes through it are visible to every
// attached view.
func (b *Buffer) Bytes() []byte { return b.data }

// Describe sets the element type and count. It fails with a StateError if
// the buffer is already allocated or the type is not a numeric element type.
func (b *Buffer) Describe(t core.TypeID, numElements int64) error {
	const op = "Buffer.Describe"
	if b.IsAllocated() {
		return core.NewStateError(op, "allocated", "buffer already allocated")
	}
	if !t.IsNumeric() {
		return core.NewStateError(op, "", fmt.Sprintf("type %s is not an element type", t))
	}
	if numElements < 0 {
		return core.NewStateError(op, "", fmt.Sprintf("negative element count %d", numElements))
	}
	b.typ = t
	b.numElements = numElements
	return nil
}

// Allocate requests memory for the current description through the store's
// allocator. Allocating an already-allocated buffer is a no-op. An
// undescribed buffer fails with a StateError; an allocator failure surfaces
// as a ResourceError.
func (b *Buffer) Allocate() error {
	const op = "Buffer.Allocate"
	if b.IsAllocated() {
		return nil
	}
	if !b.IsDescribed() {
		return core.NewStateError(op, "undescribed", "describe the buffer before allocating")
	}
	data, err := b.store.alloc.Allocate(b.TotalBytes())
	if err != nil {
		return core.NewResourceError(op, err)
	}
	b.data = data
	b.allocTag = b.store.alloc.Tag()
	return nil
}

// AllocateTyped describes and allocates in one step. If the buffer is
// already allocated it is a no-op when the description is identical and a
// StateError otherwise.
func (b *Buffer) AllocateTyped(t core.TypeID, numElements int64) error {
	const op = "Buffer.AllocateTyped"
	if b.IsAllocated() {
		if b.typ == t && b.numElements == numElements {
			return nil
		}
		return core.NewStateError(op, "allocated", "buffer already allocated with a different description")
	}
	if err := b.Describe(t, numElements); err != nil {
		return err
	}
	return b.Allocate()
}

// Reallocate changes the element count in place, preserving as much existing
// content as fits. Attached views that had finalized their extent fall back
// to the attached-but-unapplied state; a view never widens automatically and
// must be re-applied. Reallocating an unallocated described buffer just
// updates the description.
func (b *Buffer) Reallocate(numElements int64) error {
	const op = "Buffer.Reallocate"
	if !b.IsDescribed() {
		return core.NewStateError(op, "undescribed", "describe the buffer before reallocating")
	}
	if numElements < 0 {
		return core.NewStateError(op, "", fmt.Sprintf("negative element count %d", numElements))
	}
	if !b.IsAllocated() {
		b.numElements = numElements
		return nil
	}

	data, err := b.store.alloc.Allocate(numElements * b.BytesPerElement())
	if err != nil {
		return core.NewResourceError(op, err)
	}
	copy(data, b.data)
	b.store.alloc.Free(b.data)
	b.data = data
	b.numElements = numElements
	b.allocTag = b.store.alloc.Tag()

	for _, v := range b.views {
		v.onBufferReallocated()
	}
	return nil
}

// attach records a view as referencing this buffer. Invoked by view
// transitions only.
func (b *Buffer) attach(v *View) {
	for _, existing := range b.views {
		if existing == v {
			return
		}
	}
	b.views = append(b.views, v)
}

// detach removes a view from the attach bookkeeping. Invoked by view
// transitions only.
func (b *Buffer) detach(v *View) {
	for i, existing := range b.views {
		if existing == v {
			b.views = append(b.views[:i], b.views[i+1:]...)
			return
		}
	}
}

// destroy detaches every attached view, forcing each to the empty state, and
// releases the buffer's memory. Invoked by the owning DataStore only.
func (b *Buffer) destroy() {
	views := b.views
	b.views = nil
	for _, v := range views {
		v.forceEmpty()
	}
	if b.data != nil {
		b.store.alloc.Free(b.data)
		b.data = nil
	}
}
