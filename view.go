package treestore

import (
	"fmt"
	"unsafe"

	"github.com/hupe1980/treestore/core"
)

// description is a view's optional type/shape metadata, independent of its
// data source.
type description struct {
	typ   core.TypeID
	shape []int64
}

func (d *description) numElements() int64 {
	n := int64(1)
	for _, dim := range d.shape {
		n *= dim
	}
	return n
}

// View is a named window describing how to interpret exactly one data source:
// a store-owned buffer, caller-owned external memory, an inline scalar, an
// inline string, or an opaque handle. Views never own memory; they only
// describe it.
//
// A view starts empty and moves through its states via the transition
// methods below. Calling a transition invalid for the current state fails
// with a StateError and leaves the view unchanged. When the buffer a view
// references is destroyed, the view is forced back to the empty state rather
// than left dangling.
type View struct {
	name   string
	owner  *Group // set at creation, never nil
	state  core.ViewState
	source dataSource
	desc   *description
}

func newView(name string, owner *Group) *View {
	return &View{name: name, owner: owner, state: core.StateEmpty, source: noSource{}}
}

// Name returns the view's name within its owning group.
func (v *View) Name() string { return v.name }

// OwningGroup returns the group that owns the view.
func (v *View) OwningGroup() *Group { return v.owner }

// State returns the view's current lifecycle state.
func (v *View) State() core.ViewState { return v.state }

// Path returns the full path of the owning group.
func (v *View) Path() string { return v.owner.PathName() }

// PathName returns the full path of the view including its name.
func (v *View) PathName() string {
	return joinChildPath(v.owner.PathName(), v.name)
}

// Rename changes the view's name. It fails with a StructuralError when the
// new name is empty, contains a path separator, or collides with a sibling.
func (v *View) Rename(name string) error {
	return v.owner.renameChild(v.name, name, "View.Rename")
}

// Describe sets the view's element type and shape without touching its data
// source. Valid while the view is empty, described, or holding a buffer
// whose extent has not been applied yet.
func (v *View) Describe(t core.TypeID, shape ...int64) error {
	const op = "View.Describe"
	switch v.state {
	case core.StateEmpty, core.StateDescribed, core.StateAllocated:
	default:
		return core.NewStateError(op, v.state.String(), "cannot describe")
	}
	if !t.IsNumeric() {
		return core.NewStateError(op, v.state.String(), fmt.Sprintf("type %s is not an element type", t))
	}
	for _, dim := range shape {
		if dim < 0 {
			return core.NewStateError(op, v.state.String(), fmt.Sprintf("negative shape extent %d", dim))
		}
	}
	v.desc = &description{typ: t, shape: append([]int64(nil), shape...)}
	if v.state == core.StateEmpty {
		v.state = core.StateDescribed
	}
	return nil
}

// AttachBuffer binds the view to a store-owned buffer. A described buffer
// that has not been allocated yet is allocated on attach so the view's
// extent is resolvable. Valid while the view is empty or described.
func (v *View) AttachBuffer(b *Buffer) error {
	const op = "View.AttachBuffer"
	switch v.state {
	case core.StateEmpty, core.StateDescribed:
	default:
		return core.NewStateError(op, v.state.String(), "view already holds a data source")
	}
	if b == nil {
		return core.NewStateError(op, v.state.String(), "nil buffer")
	}
	if b.IsDescribed() && !b.IsAllocated() {
		if err := b.Allocate(); err != nil {
			return err
		}
	}
	b.attach(v)
	v.source = bufferSource{id: b.ID(), offset: 0, stride: 1}
	v.state = core.StateAllocated
	return nil
}

// DetachBuffer releases the view's buffer binding without destroying the
// buffer. The view falls back to described if it carries a description,
// empty otherwise.
func (v *View) DetachBuffer() error {
	const op = "View.DetachBuffer"
	src, ok := v.source.(bufferSource)
	if !ok {
		return core.NewStateError(op, v.state.String(), "no buffer attached")
	}
	if b := v.owner.store.GetBuffer(src.id); b != nil {
		b.detach(v)
	}
	v.source = noSource{}
	if v.desc != nil {
		v.state = core.StateDescribed
	} else {
		v.state = core.StateEmpty
	}
	return nil
}

// Allocate is the convenience transition that creates a buffer in the
// owning store sized to the view's description, allocates it and attaches
// it. On a view already holding a buffer it allocates the attached buffer
// if needed.
func (v *View) Allocate() error {
	const op = "View.Allocate"
	switch v.state {
	case core.StateDescribed:
		b := v.owner.store.CreateBuffer()
		if err := b.AllocateTyped(v.desc.typ, v.desc.numElements()); err != nil {
			v.owner.store.DestroyBuffer(b.ID())
			return err
		}
		return v.AttachBuffer(b)
	case core.StateAllocated:
		if b := v.buffer(); b != nil {
			return b.Allocate()
		}
		return core.NewStateError(op, v.state.String(), "attached buffer no longer exists")
	default:
		return core.NewStateError(op, v.state.String(), "describe the view before allocating")
	}
}

// Apply finalizes the view's addressable extent against its description and
// attached buffer, keeping the current offset and stride.
func (v *View) Apply() error {
	src, ok := v.source.(bufferSource)
	if !ok {
		return core.NewStateError("View.Apply", v.state.String(), "no buffer attached")
	}
	return v.applyLayout(src.offset, src.stride)
}

// ApplyLayout finalizes the extent like Apply but overrides the element
// offset and stride the view addresses its buffer through.
func (v *View) ApplyLayout(offset, stride int64) error {
	if _, ok := v.source.(bufferSource); !ok {
		return core.NewStateError("View.ApplyLayout", v.state.String(), "no buffer attached")
	}
	return v.applyLayout(offset, stride)
}

func (v *View) applyLayout(offset, stride int64) error {
	const op = "View.Apply"
	if v.desc == nil {
		return core.NewStateError(op, v.state.String(), "no description")
	}
	if offset < 0 || stride < 1 {
		return core.NewStateError(op, v.state.String(), fmt.Sprintf("invalid layout offset=%d stride=%d", offset, stride))
	}
	b := v.buffer()
	if b == nil {
		return core.NewStateError(op, v.state.String(), "attached buffer no longer exists")
	}
	if !b.IsAllocated() {
		return core.NewStateError(op, v.state.String(), "attached buffer is not allocated")
	}
	n := v.desc.numElements()
	bpe := v.desc.typ.BytesPerElement()
	if n > 0 {
		end := (offset + (n-1)*stride + 1) * bpe
		if end > int64(len(b.data)) {
			return core.NewStateError(op, v.state.String(),
				fmt.Sprintf("extent of %d bytes exceeds buffer of %d bytes", end, len(b.data)))
		}
	}
	src := v.source.(bufferSource)
	src.offset = offset
	src.stride = stride
	v.source = src
	v.state = core.StateApplied
	return nil
}

// SetExternal points the view at caller-owned memory. The view must already
// carry a description (or be external already, to re-point after an import).
// The store never allocates or frees external memory.
func (v *View) SetExternal(data []byte) error {
	const op = "View.SetExternal"
	switch v.state {
	case core.StateDescribed, core.StateExternal:
	default:
		return core.NewStateError(op, v.state.String(), "external data requires a described view")
	}
	v.source = externalSource{data: data}
	v.state = core.StateExternal
	return nil
}

// SetScalar stores an inline numeric scalar. Valid only on an empty view;
// scalar views skip the describe/allocate lifecycle entirely.
func (v *View) SetScalar(value any) error {
	const op = "View.SetScalar"
	if v.state != core.StateEmpty {
		return core.NewStateError(op, v.state.String(), "view already holds a data source")
	}
	t, bits, ok := core.ScalarBits(value)
	if !ok {
		return core.NewStateError(op, v.state.String(), fmt.Sprintf("unsupported scalar type %T", value))
	}
	v.source = scalarSource{typ: t, bits: bits}
	v.state = core.StateScalar
	return nil
}

// Scalar returns the stored scalar as its declared Go type. It fails with a
// StateError on non-scalar views.
func (v *View) Scalar() (any, error) {
	src, ok := v.source.(scalarSource)
	if !ok {
		return nil, core.NewStateError("View.Scalar", v.state.String(), "view holds no scalar")
	}
	return core.ScalarValue(src.typ, src.bits), nil
}

// SetString stores an inline string. Valid only on an empty view.
func (v *View) SetString(text string) error {
	const op = "View.SetString"
	if v.state != core.StateEmpty {
		return core.NewStateError(op, v.state.String(), "view already holds a data source")
	}
	v.source = stringSource{text: text}
	v.state = core.StateString
	return nil
}

// StringValue returns the stored string. It fails with a StateError on
// non-string views.
func (v *View) StringValue() (string, error) {
	src, ok := v.source.(stringSource)
	if !ok {
		return "", core.NewStateError("View.StringValue", v.state.String(), "view holds no string")
	}
	return src.text, nil
}

// SetOpaque stores a handle the store never interprets. Valid only on an
// empty view.
func (v *View) SetOpaque(handle any) error {
	const op = "View.SetOpaque"
	if v.state != core.StateEmpty {
		return core.NewStateError(op, v.state.String(), "view already holds a data source")
	}
	v.source = opaqueSource{handle: handle}
	v.state = core.StateOpaque
	return nil
}

// Opaque returns the stored handle. It fails with a StateError on non-opaque
// views.
func (v *View) Opaque() (any, error) {
	src, ok := v.source.(opaqueSource)
	if !ok {
		return nil, core.NewStateError("View.Opaque", v.state.String(), "view holds no opaque handle")
	}
	return src.handle, nil
}

// Clear resets the view to the empty state, detaching its buffer (without
// destroying it) and dropping its description. It is valid in every state.
func (v *View) Clear() {
	if src, ok := v.source.(bufferSource); ok {
		if b := v.owner.store.GetBuffer(src.id); b != nil {
			b.detach(v)
		}
	}
	v.forceEmpty()
}

// forceEmpty resets the view without touching buffer bookkeeping. Invoked by
// Clear and by buffer destruction.
func (v *View) forceEmpty() {
	v.state = core.StateEmpty
	v.source = noSource{}
	v.desc = nil
}

// onBufferReallocated drops a finalized extent after the underlying buffer
// changed size. The view stays attached and described; it must be re-applied.
func (v *View) onBufferReallocated() {
	if v.state == core.StateApplied {
		v.state = core.StateAllocated
	}
}

// IsEmpty reports whether the view is in the empty state.
func (v *View) IsEmpty() bool { return v.state == core.StateEmpty }

// IsDescribed reports whether the view carries a type/shape description.
// Scalar and string views are implicitly described by their value.
func (v *View) IsDescribed() bool {
	return v.desc != nil || v.state == core.StateScalar || v.state == core.StateString
}

// IsAllocated reports whether data exists behind the view's data source.
func (v *View) IsAllocated() bool {
	switch src := v.source.(type) {
	case bufferSource:
		b := v.owner.store.GetBuffer(src.id)
		return b != nil && b.IsAllocated()
	case externalSource:
		return src.data != nil
	case scalarSource, stringSource:
		return true
	default:
		return false
	}
}

// IsApplied reports whether the view's addressable extent is finalized.
func (v *View) IsApplied() bool { return v.state == core.StateApplied }

// IsExternal reports whether the view wraps caller-owned memory.
func (v *View) IsExternal() bool { return v.state == core.StateExternal }

// IsScalar reports whether the view holds an inline scalar.
func (v *View) IsScalar() bool { return v.state == core.StateScalar }

// IsString reports whether the view holds an inline string.
func (v *View) IsString() bool { return v.state == core.StateString }

// IsOpaque reports whether the view holds an opaque handle.
func (v *View) IsOpaque() bool { return v.state == core.StateOpaque }

// HasBuffer reports whether the view references a live buffer.
func (v *View) HasBuffer() bool {
	src, ok := v.source.(bufferSource)
	return ok && v.owner.store.GetBuffer(src.id) != nil
}

// Buffer returns the referenced buffer, or nil when the view holds none.
func (v *View) Buffer() *Buffer { return v.buffer() }

func (v *View) buffer() *Buffer {
	src, ok := v.source.(bufferSource)
	if !ok {
		return nil
	}
	return v.owner.store.GetBuffer(src.id)
}

// TypeID returns the view's element type: the described type, the scalar's
// type, or Char8Str for string views.
func (v *View) TypeID() core.TypeID {
	switch src := v.source.(type) {
	case scalarSource:
		return src.typ
	case stringSource:
		return core.Char8Str
	}
	if v.desc != nil {
		return v.desc.typ
	}
	return core.NoType
}

// NumElements returns the number of elements addressable through the view: 1
// for scalars, the string length for strings, the product of the shape
// otherwise.
func (v *View) NumElements() int64 {
	switch src := v.source.(type) {
	case scalarSource:
		return 1
	case stringSource:
		return int64(len(src.text))
	}
	if v.desc != nil {
		return v.desc.numElements()
	}
	return 0
}

// NumDimensions returns the number of shape dimensions: 0 for scalars and
// strings.
func (v *View) NumDimensions() int {
	if v.desc == nil {
		return 0
	}
	return len(v.desc.shape)
}

// Shape returns a copy of the described shape, or nil when undescribed.
func (v *View) Shape() []int64 {
	if v.desc == nil {
		return nil
	}
	return append([]int64(nil), v.desc.shape...)
}

// Offset returns the element offset of the view into its buffer, 0 when no
// buffer is attached.
func (v *View) Offset() int64 {
	if src, ok := v.source.(bufferSource); ok {
		return src.offset
	}
	return 0
}

// Stride returns the element stride of the view through its buffer, 1 when
// no buffer is attached.
func (v *View) Stride() int64 {
	if src, ok := v.source.(bufferSource); ok {
		return src.stride
	}
	return 1
}

// TotalBytes returns the byte size of the view's described data.
func (v *View) TotalBytes() int64 {
	if src, ok := v.source.(stringSource); ok {
		return int64(len(src.text))
	}
	return v.NumElements() * v.TypeID().BytesPerElement()
}

// Bytes returns the view's addressable memory window. It fails with a
// StateError unless the view is applied or external with resolvable data.
// The slice aliases the underlying storage.
func (v *View) Bytes() ([]byte, error) {
	const op = "View.Bytes"
	switch src := v.source.(type) {
	case bufferSource:
		if v.state != core.StateApplied {
			return nil, core.NewStateError(op, v.state.String(), "extent not applied")
		}
		b := v.owner.store.GetBuffer(src.id)
		if b == nil || !b.IsAllocated() {
			return nil, core.NewStateError(op, v.state.String(), "no resolvable data")
		}
		n := v.desc.numElements()
		bpe := v.desc.typ.BytesPerElement()
		if n == 0 {
			return []byte{}, nil
		}
		start := src.offset * bpe
		end := (src.offset + (n-1)*src.stride + 1) * bpe
		return b.data[start:end], nil
	case externalSource:
		if src.data == nil || v.desc == nil {
			return nil, core.NewStateError(op, v.state.String(), "no resolvable data")
		}
		size := v.desc.numElements() * v.desc.typ.BytesPerElement()
		if size > int64(len(src.data)) {
			return nil, core.NewStateError(op, v.state.String(),
				fmt.Sprintf("description of %d bytes exceeds external data of %d bytes", size, len(src.data)))
		}
		return src.data[:size], nil
	default:
		return nil, core.NewStateError(op, v.state.String(), "no resolvable data")
	}
}

// UnsafePointer returns a raw pointer to the view's addressable memory, or
// nil when the view has no resolvable data.
func (v *View) UnsafePointer() unsafe.Pointer {
	data, err := v.Bytes()
	if err != nil || len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}

// Element constrains the fixed-width numeric types a view window can be
// reinterpreted as.
type Element interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// Elements reinterprets the view's contiguous memory window as a typed
// slice without copying. It fails with a StateError when the view has no
// resolvable data, is strided, or T does not match the element width. The
// slice aliases the underlying storage.
func Elements[T Element](v *View) ([]T, error) {
	const op = "treestore.Elements"
	var zero T
	if v.Stride() != 1 {
		return nil, core.NewStateError(op, v.state.String(), "view is strided")
	}
	data, err := v.Bytes()
	if err != nil {
		return nil, err
	}
	bpe := v.TypeID().BytesPerElement()
	if int64(unsafe.Sizeof(zero)) != bpe {
		return nil, core.NewStateError(op, v.state.String(),
			fmt.Sprintf("element width %d does not match view type %s", unsafe.Sizeof(zero), v.TypeID()))
	}
	if len(data) == 0 {
		return []T{}, nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&data[0])), v.NumElements()), nil
}
