// Package treestore provides a hierarchical, self-describing, in-memory data
// store: a tree of named groups and views layered over a ref-counted buffer
// arena, with lossless serialization to and from a generic tree
// representation and files. Most applications interact with this package by:
//  1. Creating a DataStore via New() (optionally overriding the allocator,
//     logger or codecs)
//  2. Building a group/view hierarchy under Root()
//  3. Attaching views to buffers created through the store, describing and
//     applying them
//  4. Saving a subtree with Save() or exchanging it through ExportTree()
//
// All defaults are safe for local use: heap-backed allocation, no logging,
// and the three built-in persistence protocols registered.
package treestore

import (
	"github.com/hupe1980/treestore/alloc"
	"github.com/hupe1980/treestore/codec/binary"
	"github.com/hupe1980/treestore/codec/debug"
	"github.com/hupe1980/treestore/codec/portable"
	"github.com/hupe1980/treestore/core"
	"github.com/hupe1980/treestore/logging"
)

// Options configures the DataStore instance.
type Options struct {
	// Allocator provides physical memory for buffers. Defaults to the
	// heap allocator with tag 0.
	Allocator core.Allocator

	// Logger receives informational diagnostics. Failures are always
	// reported as typed return values, never through the logger alone.
	// Defaults to the no-op logger.
	Logger logging.Logger

	// Codecs are the persistence protocols registered at construction.
	// Defaults to the native-binary, portable-self-describing and
	// text-debug codecs. More can be added later via RegisterCodec.
	Codecs []core.TreeCodec
}

// New creates a DataStore with optional overrides. The root group is created
// with the store and cannot be destroyed independently.
func New(optFns ...func(o *Options)) *DataStore {
	opts := Options{
		Allocator: alloc.NewHeap(0),
		Logger:    logging.NoOpLogger{},
		Codecs: []core.TreeCodec{
			binary.New(),
			portable.New(),
			debug.New(),
		},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	ds := &DataStore{
		alloc:  opts.Allocator,
		logger: opts.Logger,
		codecs: make(map[string]core.TreeCodec, len(opts.Codecs)),
	}
	for _, c := range opts.Codecs {
		ds.codecs[c.Protocol()] = c
	}
	ds.root = newGroup("", nil, ds)
	return ds
}
