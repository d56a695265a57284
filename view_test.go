package treestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treestore/core"
)

func TestViewAttachDescribeApply(t *testing.T) {
	ds := New()
	buf, err := ds.CreateBufferTyped(core.Float64, 10)
	require.NoError(t, err)

	v, err := ds.Root().CreateView("v")
	require.NoError(t, err)
	assert.True(t, v.IsEmpty())

	require.NoError(t, v.AttachBuffer(buf))
	assert.Equal(t, core.StateAllocated, v.State())
	assert.True(t, buf.IsAllocated()) // described buffer allocates on attach

	require.NoError(t, v.Describe(core.Float64, 10))
	require.NoError(t, v.Apply())

	assert.True(t, v.IsApplied())
	assert.EqualValues(t, 10, v.NumElements())
	assert.EqualValues(t, 80, v.TotalBytes())
	assert.Equal(t, core.Float64, v.TypeID())
}

func TestViewDescribeTransitions(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateView("v")
	require.NoError(t, err)

	require.NoError(t, v.Describe(core.Int32, 3, 4))
	assert.Equal(t, core.StateDescribed, v.State())
	assert.Equal(t, []int64{3, 4}, v.Shape())
	assert.Equal(t, 2, v.NumDimensions())
	assert.EqualValues(t, 12, v.NumElements())

	// Re-describe is allowed before data is bound.
	require.NoError(t, v.Describe(core.Int64, 5))
	assert.EqualValues(t, 5, v.NumElements())

	assert.True(t, core.IsState(v.Describe(core.NoType, 2)))
	assert.True(t, core.IsState(v.Describe(core.Int32, -2)))
}

func TestViewApplyInvalidStates(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateView("v")
	require.NoError(t, err)

	err = v.Apply()
	require.Error(t, err)
	assert.True(t, core.IsState(err))
	assert.True(t, v.IsEmpty()) // unchanged

	sv, err := ds.Root().CreateViewScalar("s", 1)
	require.NoError(t, err)
	assert.True(t, core.IsState(sv.Apply()))
	assert.True(t, sv.IsScalar())
}

func TestViewAllocateConvenience(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateViewDescribed("v", core.Float64, 16)
	require.NoError(t, err)
	assert.Equal(t, 0, ds.NumBuffers())

	require.NoError(t, v.Allocate())
	assert.Equal(t, 1, ds.NumBuffers())
	assert.Equal(t, core.StateAllocated, v.State())
	require.NoError(t, v.Apply())
	assert.True(t, v.IsApplied())
}

func TestViewApplyLayout(t *testing.T) {
	ds := New()
	buf, err := ds.CreateBufferTyped(core.Int64, 10)
	require.NoError(t, err)
	require.NoError(t, buf.Allocate())

	v, err := ds.Root().CreateViewDescribed("v", core.Int64, 3)
	require.NoError(t, err)
	require.NoError(t, v.AttachBuffer(buf))
	require.NoError(t, v.ApplyLayout(2, 2))

	assert.True(t, v.IsApplied())
	assert.EqualValues(t, 2, v.Offset())
	assert.EqualValues(t, 2, v.Stride())

	data, err := v.Bytes()
	require.NoError(t, err)
	assert.Len(t, data, 40) // elements 2..6 inclusive

	// Strided views cannot be reinterpreted as a flat slice.
	_, err = Elements[int64](v)
	require.Error(t, err)
	assert.True(t, core.IsState(err))

	// An extent beyond the buffer is rejected and the layout is unchanged.
	err = v.ApplyLayout(8, 2)
	require.Error(t, err)
	assert.True(t, core.IsState(err))
	assert.True(t, v.IsApplied())
	assert.EqualValues(t, 2, v.Offset())
}

func TestViewScalarNested(t *testing.T) {
	ds := New()
	a, err := ds.Root().CreateGroup("a")
	require.NoError(t, err)
	b, err := a.CreateGroup("b")
	require.NoError(t, err)
	c, err := b.CreateGroup("c")
	require.NoError(t, err)
	_, err = c.CreateViewScalar("x", 42)
	require.NoError(t, err)

	ga, err := ds.Root().GetGroup("a")
	require.NoError(t, err)
	gb, err := ga.GetGroup("b")
	require.NoError(t, err)
	gc, err := gb.GetGroup("c")
	require.NoError(t, err)
	x, err := gc.GetView("x")
	require.NoError(t, err)

	val, err := x.Scalar()
	require.NoError(t, err)
	assert.EqualValues(t, 42, val)
	assert.True(t, x.IsScalar())
	assert.Equal(t, core.Int64, x.TypeID())
	assert.EqualValues(t, 1, x.NumElements())
}

func TestViewScalarTypes(t *testing.T) {
	ds := New()

	v, err := ds.Root().CreateViewScalar("f", float32(1.5))
	require.NoError(t, err)
	val, err := v.Scalar()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), val)
	assert.Equal(t, core.Float32, v.TypeID())

	u, err := ds.Root().CreateViewScalar("u", uint16(7))
	require.NoError(t, err)
	val, err = u.Scalar()
	require.NoError(t, err)
	assert.Equal(t, uint16(7), val)

	_, err = ds.Root().CreateViewScalar("bad", "not a number")
	require.Error(t, err)
	assert.True(t, core.IsState(err))
	assert.False(t, ds.Root().HasChild("bad"))
}

func TestViewString(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateViewString("title", "hex mesh")
	require.NoError(t, err)

	text, err := v.StringValue()
	require.NoError(t, err)
	assert.Equal(t, "hex mesh", text)
	assert.True(t, v.IsString())
	assert.True(t, v.IsDescribed())
	assert.Equal(t, core.Char8Str, v.TypeID())
	assert.EqualValues(t, 8, v.NumElements())
	assert.EqualValues(t, 8, v.TotalBytes())

	// Value-setting calls require an empty view.
	assert.True(t, core.IsState(v.SetScalar(1)))
	text, err = v.StringValue()
	require.NoError(t, err)
	assert.Equal(t, "hex mesh", text)
}

func TestViewExternal(t *testing.T) {
	ds := New()
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}

	v, err := ds.Root().CreateViewExternal("ext", core.Int32, data, 8)
	require.NoError(t, err)
	assert.True(t, v.IsExternal())
	assert.True(t, v.IsAllocated())

	window, err := v.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, window)
	assert.NotNil(t, v.UnsafePointer())

	elems, err := Elements[int32](v)
	require.NoError(t, err)
	assert.Len(t, elems, 8)

	// External data requires a description first.
	bare, err := ds.Root().CreateView("bare")
	require.NoError(t, err)
	err = bare.SetExternal(data)
	require.Error(t, err)
	assert.True(t, core.IsState(err))
	assert.True(t, bare.IsEmpty())
}

func TestViewExternalOnBufferView(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateViewAndAllocate("v", core.Int32, 4)
	require.NoError(t, err)

	err = v.SetExternal(make([]byte, 16))
	require.Error(t, err)
	assert.True(t, core.IsState(err))
	assert.True(t, v.IsApplied()) // unchanged
}

func TestViewOpaque(t *testing.T) {
	ds := New()
	handle := &struct{ fd int }{fd: 3}

	v, err := ds.Root().CreateViewOpaque("h", handle)
	require.NoError(t, err)
	assert.True(t, v.IsOpaque())
	assert.False(t, v.IsAllocated())

	got, err := v.Opaque()
	require.NoError(t, err)
	assert.Same(t, handle, got)

	_, err = v.Bytes()
	require.Error(t, err)
	assert.True(t, core.IsState(err))
	assert.Nil(t, v.UnsafePointer())
}

func TestViewClear(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateViewAndAllocate("v", core.Float64, 4)
	require.NoError(t, err)
	b := v.Buffer()
	require.NotNil(t, b)

	v.Clear()
	assert.True(t, v.IsEmpty())
	assert.False(t, v.IsDescribed())
	assert.Equal(t, 0, b.NumViews())
	assert.True(t, b.IsAllocated()) // clearing a view never destroys the buffer
}

func TestViewDetachBuffer(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateViewAndAllocate("v", core.Float64, 4)
	require.NoError(t, err)
	b := v.Buffer()

	require.NoError(t, v.DetachBuffer())
	assert.Equal(t, core.StateDescribed, v.State()) // description survives
	assert.EqualValues(t, 4, v.NumElements())
	assert.Equal(t, 0, b.NumViews())

	err = v.DetachBuffer()
	require.Error(t, err)
	assert.True(t, core.IsState(err))
}

func TestViewElementsTypeMismatch(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateViewAndAllocate("v", core.Float64, 4)
	require.NoError(t, err)

	elems, err := Elements[float64](v)
	require.NoError(t, err)
	elems[0] = 3.5
	elems[3] = -1.25

	again, err := Elements[float64](v)
	require.NoError(t, err)
	assert.Equal(t, 3.5, again[0])
	assert.Equal(t, -1.25, again[3])

	_, err = Elements[int32](v)
	require.Error(t, err)
	assert.True(t, core.IsState(err))
}

func TestViewRename(t *testing.T) {
	ds := New()
	v, err := ds.Root().CreateViewScalar("old", 1)
	require.NoError(t, err)
	_, err = ds.Root().CreateViewScalar("taken", 2)
	require.NoError(t, err)

	require.NoError(t, v.Rename("new"))
	assert.Equal(t, "new", v.Name())
	assert.True(t, ds.Root().HasView("new"))
	assert.False(t, ds.Root().HasView("old"))

	err = v.Rename("taken")
	require.Error(t, err)
	assert.True(t, core.IsStructural(err))
	assert.Equal(t, "new", v.Name())

	assert.Equal(t, "/", v.Path())
	assert.Equal(t, "new", v.PathName())
}
