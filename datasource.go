package treestore

import "github.com/hupe1980/treestore/core"

// dataSource represents the one active data source of a view. Concrete source
// types implement the unexported isDataSource marker enabling a closed set,
// so "exactly one active" is enforced by the type system rather than by
// convention.
type dataSource interface{ isDataSource() }

// noSource is the data source of empty and described views.
type noSource struct{}

func (noSource) isDataSource() {}

// bufferSource references a store-owned buffer by index plus the element
// layout the view addresses it through.
type bufferSource struct {
	id     core.IndexType
	offset int64 // elements into the buffer
	stride int64 // element step, >= 1
}

func (bufferSource) isDataSource() {}

// externalSource wraps caller-owned memory. The store never allocates or
// frees it. data may be nil after an import, until the caller re-points the
// view.
type externalSource struct {
	data []byte
}

func (externalSource) isDataSource() {}

// scalarSource holds an inline numeric scalar as its type plus 64-bit
// encoding.
type scalarSource struct {
	typ  core.TypeID
	bits uint64
}

func (scalarSource) isDataSource() {}

// stringSource holds an inline string value.
type stringSource struct {
	text string
}

func (stringSource) isDataSource() {}

// opaqueSource holds a handle the store never interprets. handle may be nil
// after an import.
type opaqueSource struct {
	handle any
}

func (opaqueSource) isDataSource() {}
