package treestore

import (
	"github.com/hupe1980/treestore/core"
	"github.com/hupe1980/treestore/logging"
)

// DataStore owns the buffer arena and the root of the group tree. It is the
// sole creation and destruction authority for buffers: buffer indices are
// assigned from an arena that recycles the most recently freed index before
// growing.
//
// A DataStore performs no internal locking; sharing one across goroutines
// requires external mutual exclusion. Independent stores are fully isolated.
type DataStore struct {
	root    *Group
	buffers []*Buffer // nil marks a free slot
	freeIDs []core.IndexType
	alloc   core.Allocator
	logger  logging.Logger
	codecs  map[string]core.TreeCodec
}

// Root returns the root group. It is created with the store and is never
// absent.
func (ds *DataStore) Root() *Group { return ds.root }

// NumBuffers returns the number of live buffers in the arena.
func (ds *DataStore) NumBuffers() int {
	return len(ds.buffers) - len(ds.freeIDs)
}

// HasBuffer reports whether the store owns a buffer with the given index.
func (ds *DataStore) HasBuffer(id core.IndexType) bool {
	return id >= 0 && id < int64(len(ds.buffers)) && ds.buffers[id] != nil
}

// GetBuffer returns the buffer with the given index, or nil when the index
// is out of range or its slot is free. This is a query, not a failure.
func (ds *DataStore) GetBuffer(id core.IndexType) *Buffer {
	if !ds.HasBuffer(id) {
		return nil
	}
	return ds.buffers[id]
}

// CreateBuffer creates an undescribed buffer and returns it. The buffer must
// be described before it can be allocated.
func (ds *DataStore) CreateBuffer() *Buffer {
	var id core.IndexType
	if n := len(ds.freeIDs); n > 0 {
		id = ds.freeIDs[n-1]
		ds.freeIDs = ds.freeIDs[:n-1]
	} else {
		id = core.IndexType(len(ds.buffers))
		ds.buffers = append(ds.buffers, nil)
	}
	b := &Buffer{id: id, store: ds}
	ds.buffers[id] = b
	ds.logger.Debug("buffer created", "id", id)
	return b
}

// CreateBufferTyped creates a buffer described with the given type and
// element count. The buffer is not yet allocated.
func (ds *DataStore) CreateBufferTyped(t core.TypeID, numElements int64) (*Buffer, error) {
	b := ds.CreateBuffer()
	if err := b.Describe(t, numElements); err != nil {
		ds.DestroyBuffer(b.ID())
		return nil, err
	}
	return b, nil
}

// DestroyBuffer detaches the buffer from every attached view (forcing those
// views to the empty state), releases its memory and frees its arena slot
// for reuse. Destroying an already-free or invalid index is a no-op.
func (ds *DataStore) DestroyBuffer(id core.IndexType) {
	b := ds.GetBuffer(id)
	if b == nil {
		return
	}
	b.destroy()
	ds.buffers[id] = nil
	ds.freeIDs = append(ds.freeIDs, id)
	ds.logger.Debug("buffer destroyed", "id", id)
}

// DestroyAllBuffers destroys every live buffer in the arena.
func (ds *DataStore) DestroyAllBuffers() {
	for id := range ds.buffers {
		ds.DestroyBuffer(core.IndexType(id))
	}
}

// FirstBufferID returns the first valid buffer index, or InvalidIndex when
// the store has no buffers.
func (ds *DataStore) FirstBufferID() core.IndexType {
	return ds.NextBufferID(core.InvalidIndex)
}

// NextBufferID returns the next valid buffer index after the given one, or
// InvalidIndex when none remains.
func (ds *DataStore) NextBufferID(id core.IndexType) core.IndexType {
	for next := id + 1; next < int64(len(ds.buffers)); next++ {
		if ds.buffers[next] != nil {
			return next
		}
	}
	return core.InvalidIndex
}

// RegisterCodec makes a codec available under its protocol name, replacing
// any codec previously registered for that protocol.
func (ds *DataStore) RegisterCodec(c core.TreeCodec) {
	ds.codecs[c.Protocol()] = c
}

// Destroy destroys all buffers and the entire group tree, leaving the store
// with a fresh empty root. Views and groups obtained earlier must not be
// used afterwards.
func (ds *DataStore) Destroy() {
	ds.DestroyAllBuffers()
	ds.root.releaseSubtree()
	ds.root = newGroup("", nil, ds)
}
