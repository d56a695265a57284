package treestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treestore/core"
	"github.com/hupe1980/treestore/internal/testutil"
)

func TestBufferDescribeAllocate(t *testing.T) {
	ds := New()
	b := ds.CreateBuffer()

	assert.False(t, b.IsDescribed())
	assert.False(t, b.IsAllocated())

	require.NoError(t, b.Describe(core.Float64, 10))
	assert.True(t, b.IsDescribed())
	assert.False(t, b.IsAllocated())
	assert.EqualValues(t, 80, b.TotalBytes())
	assert.EqualValues(t, 8, b.BytesPerElement())

	require.NoError(t, b.Allocate())
	assert.True(t, b.IsAllocated())
	assert.Len(t, b.Bytes(), 80)
	assert.EqualValues(t, 0, b.AllocatorTag())
}

func TestBufferDescribeAfterAllocate(t *testing.T) {
	ds := New()
	b, err := ds.CreateBufferTyped(core.Int32, 4)
	require.NoError(t, err)
	require.NoError(t, b.Allocate())

	err = b.Describe(core.Int64, 8)
	require.Error(t, err)
	assert.True(t, core.IsState(err))
	assert.Equal(t, core.Int32, b.TypeID())
	assert.EqualValues(t, 4, b.NumElements())
}

func TestBufferDescribeInvalid(t *testing.T) {
	ds := New()
	b := ds.CreateBuffer()

	assert.True(t, core.IsState(b.Describe(core.NoType, 4)))
	assert.True(t, core.IsState(b.Describe(core.Char8Str, 4)))
	assert.True(t, core.IsState(b.Describe(core.Int32, -1)))
}

func TestBufferAllocateUndescribed(t *testing.T) {
	ds := New()
	b := ds.CreateBuffer()

	err := b.Allocate()
	require.Error(t, err)
	assert.True(t, core.IsState(err))
}

func TestBufferAllocateIdempotent(t *testing.T) {
	ds := New()
	b, err := ds.CreateBufferTyped(core.Int64, 3)
	require.NoError(t, err)
	require.NoError(t, b.Allocate())
	assert.NoError(t, b.Allocate())

	// Identical description: no-op. Different description: StateError.
	assert.NoError(t, b.AllocateTyped(core.Int64, 3))
	err = b.AllocateTyped(core.Int64, 5)
	require.Error(t, err)
	assert.True(t, core.IsState(err))
}

func TestBufferAllocationFailure(t *testing.T) {
	ds := New(func(o *Options) {
		o.Allocator = &testutil.FailingAllocator{FailAfter: 0}
	})
	b, err := ds.CreateBufferTyped(core.Float64, 1024)
	require.NoError(t, err)

	err = b.Allocate()
	require.Error(t, err)
	assert.True(t, core.IsResource(err))
	assert.False(t, b.IsAllocated())
}

func TestBufferReallocatePreservesContent(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateViewAndAllocate("data", core.Int32, 4)
	require.NoError(t, err)

	elems, err := Elements[int32](v)
	require.NoError(t, err)
	copy(elems, []int32{10, 20, 30, 40})

	b := v.Buffer()
	require.NotNil(t, b)
	require.NoError(t, b.Reallocate(8))
	assert.EqualValues(t, 8, b.NumElements())

	// The widened region keeps the old prefix.
	require.NoError(t, v.Apply())
	elems, err = Elements[int32](v)
	require.NoError(t, err)
	assert.Equal(t, []int32{10, 20, 30, 40}, elems[:4])

	// Shrinking keeps what fits.
	require.NoError(t, b.Reallocate(2))
	require.NoError(t, v.Describe(core.Int32, 2))
	require.NoError(t, v.Apply())
	elems, err = Elements[int32](v)
	require.NoError(t, err)
	assert.Equal(t, []int32{10, 20}, elems)
}

func TestBufferReallocateUnappliesViews(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateViewAndAllocate("data", core.Float64, 6)
	require.NoError(t, err)
	require.True(t, v.IsApplied())

	require.NoError(t, v.Buffer().Reallocate(12))
	assert.False(t, v.IsApplied())
	assert.Equal(t, core.StateAllocated, v.State())
	assert.True(t, v.HasBuffer())

	// The view does not widen automatically; re-applying restores access.
	require.NoError(t, v.Apply())
	assert.True(t, v.IsApplied())
	assert.EqualValues(t, 6, v.NumElements())
}

func TestBufferReallocateUnallocated(t *testing.T) {
	ds := New()
	b, err := ds.CreateBufferTyped(core.Int16, 4)
	require.NoError(t, err)

	require.NoError(t, b.Reallocate(9))
	assert.EqualValues(t, 9, b.NumElements())
	assert.False(t, b.IsAllocated())
}

func TestBufferDestroyForcesViewsEmpty(t *testing.T) {
	ds := New()
	b, err := ds.CreateBufferTyped(core.Float64, 8)
	require.NoError(t, err)

	v1, err := ds.Root().CreateViewDescribed("v1", core.Float64, 8)
	require.NoError(t, err)
	v2, err := ds.Root().CreateViewDescribed("v2", core.Float64, 4)
	require.NoError(t, err)
	require.NoError(t, v1.AttachBuffer(b))
	require.NoError(t, v2.AttachBuffer(b))
	require.NoError(t, v1.Apply())
	require.NoError(t, v2.Apply())
	assert.Equal(t, 2, b.NumViews())

	ds.DestroyBuffer(b.ID())

	for _, v := range []*View{v1, v2} {
		assert.True(t, v.IsEmpty())
		assert.False(t, v.IsAllocated())
		assert.False(t, v.HasBuffer())
		assert.Nil(t, v.UnsafePointer())
	}
}
