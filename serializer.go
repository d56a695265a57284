package treestore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hupe1980/treestore/core"
)

// ExportTree walks the group's subtree into the generic ordered tree
// representation. Buffer contents are copied into the tree by value, so the
// export is self-contained and independent of the store's arena indices.
func (ds *DataStore) ExportTree(g *Group) (*core.Node, error) {
	if g == nil || g.store != ds {
		return nil, core.NewStateError("DataStore.ExportTree", "", "group does not belong to this store")
	}
	return ds.exportGroup(g), nil
}

func (ds *DataStore) exportGroup(g *Group) *core.Node {
	node := &core.Node{Kind: core.GroupNode, Name: g.name}
	for _, name := range g.order {
		switch child := g.children[name].(type) {
		case *Group:
			node.Children = append(node.Children, ds.exportGroup(child))
		case *View:
			node.Children = append(node.Children, exportView(child))
		}
	}
	return node
}

func exportView(v *View) *core.Node {
	rec := &core.ViewRecord{
		State: v.state.String(),
		Type:  v.TypeID().String(),
		Shape: v.Shape(),
	}

	switch src := v.source.(type) {
	case bufferSource:
		b := v.buffer()
		if b == nil || !b.IsAllocated() || v.desc == nil {
			// Without a live allocated buffer and a description there is no
			// addressable extent to carry; whichever half exists survives as
			// a described (or empty) view.
			if v.desc != nil {
				rec.State = core.StateDescribed.String()
			} else {
				rec.State = core.StateEmpty.String()
			}
			break
		}
		data := make([]byte, len(b.data))
		copy(data, b.data)
		rec.Source.Buffer = &core.BufferRecord{
			Type:            b.typ.String(),
			NumElements:     b.numElements,
			BytesPerElement: b.BytesPerElement(),
			Offset:          src.offset,
			Stride:          src.stride,
			Data:            data,
		}
	case externalSource:
		rec.Source.External = &core.ExternalRecord{Present: true}
	case scalarSource:
		rec.Source.Scalar = core.EncodeScalar(src.typ, src.bits)
	case stringSource:
		rec.Source.String = &core.StringRecord{Text: src.text}
	case opaqueSource:
		rec.Source.Opaque = &core.OpaqueRecord{Present: true}
	}

	return &core.Node{Kind: core.ViewNode, Name: v.name, View: rec}
}

// ImportTree reconstructs groups, views and buffers under the target group
// from a previously exported tree. The whole tree and the target namespace
// are validated before anything is mutated: on failure the target group is
// exactly as it was before the call, and any buffers staged during the
// attempt are destroyed.
func (ds *DataStore) ImportTree(node *core.Node, into *Group) error {
	const op = "DataStore.ImportTree"
	if into == nil || into.store != ds {
		return core.NewStateError(op, "", "group does not belong to this store")
	}
	if node == nil {
		return core.NewIOError(op, core.Malformed, "nil tree", nil)
	}
	if err := node.Validate(); err != nil {
		return err
	}
	if node.Kind != core.GroupNode {
		return core.NewIOError(op, core.Malformed, "root export must begin at a group node", nil)
	}
	for _, child := range node.Children {
		if into.HasChild(child.Name) {
			return core.NewStructuralError(op, child.Name, core.DuplicateName)
		}
	}

	im := &importer{ds: ds}
	staged := make([]childNode, 0, len(node.Children))
	for _, child := range node.Children {
		built, err := im.build(child, into)
		if err != nil {
			im.rollback()
			// Allocator exhaustion is a resource failure, not a malformed
			// tree; both classes keep their own taxonomy.
			if core.IsIO(err) || core.IsResource(err) {
				return err
			}
			return core.NewIOError(op, core.Malformed, "building subtree", err)
		}
		staged = append(staged, built)
	}

	for i, child := range node.Children {
		into.insert(child.Name, staged[i])
	}
	return nil
}

// importer stages buffers during an import so a failed attempt can be rolled
// back without touching the target subtree.
type importer struct {
	ds     *DataStore
	staged []core.IndexType
}

func (im *importer) rollback() {
	for _, id := range im.staged {
		im.ds.DestroyBuffer(id)
	}
	im.staged = nil
}

func (im *importer) build(node *core.Node, parent *Group) (childNode, error) {
	if node.Kind == core.GroupNode {
		g := newGroup(node.Name, parent, im.ds)
		for _, child := range node.Children {
			built, err := im.build(child, g)
			if err != nil {
				return nil, err
			}
			g.insert(child.Name, built)
		}
		return g, nil
	}
	return im.buildView(node, parent)
}

func (im *importer) buildView(node *core.Node, parent *Group) (*View, error) {
	rec := node.View
	state, _ := core.ParseViewState(rec.State)
	v := newView(node.Name, parent)

	describe := func() error {
		t, _ := core.ParseTypeID(rec.Type)
		return v.Describe(t, rec.Shape...)
	}

	switch state {
	case core.StateEmpty:
		return v, nil
	case core.StateDescribed:
		if err := describe(); err != nil {
			return nil, err
		}
		return v, nil
	case core.StateAllocated, core.StateApplied:
		if err := describe(); err != nil {
			return nil, err
		}
		bufType, _ := core.ParseTypeID(rec.Source.Buffer.Type)
		b := im.ds.CreateBuffer()
		im.staged = append(im.staged, b.ID())
		if err := b.AllocateTyped(bufType, rec.Source.Buffer.NumElements); err != nil {
			return nil, err
		}
		copy(b.data, rec.Source.Buffer.Data)
		if err := v.AttachBuffer(b); err != nil {
			return nil, err
		}
		if state == core.StateApplied {
			if err := v.applyLayout(rec.Source.Buffer.Offset, rec.Source.Buffer.Stride); err != nil {
				return nil, fmt.Errorf("view %q: %w", node.Name, err)
			}
		}
		return v, nil
	case core.StateExternal:
		if err := describe(); err != nil {
			return nil, err
		}
		// External memory cannot be reconstructed; the caller re-points the
		// view via SetExternal after the import.
		v.source = externalSource{}
		v.state = core.StateExternal
		return v, nil
	case core.StateScalar:
		t, bits, err := core.DecodeScalar(rec.Source.Scalar)
		if err != nil {
			return nil, err
		}
		v.source = scalarSource{typ: t, bits: bits}
		v.state = core.StateScalar
		return v, nil
	case core.StateString:
		v.source = stringSource{text: rec.Source.String.Text}
		v.state = core.StateString
		return v, nil
	case core.StateOpaque:
		v.source = opaqueSource{}
		v.state = core.StateOpaque
		return v, nil
	default:
		return nil, fmt.Errorf("view %q: unhandled state %q", node.Name, rec.State)
	}
}

// Save serializes the group's subtree (the root group when group is nil) to
// a new file using the codec registered for the protocol. The file is
// written to a temporary sibling and renamed into place, so a failed save
// never leaves a truncated file behind. Save blocks until the write
// completes.
func (ds *DataStore) Save(path, protocol string, group *Group) error {
	const op = "DataStore.Save"
	codec, ok := ds.codecs[protocol]
	if !ok {
		return core.NewIOError(op, core.UnknownProtocol, protocol, nil)
	}
	if group == nil {
		group = ds.root
	}
	node, err := ds.ExportTree(group)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".treestore-*")
	if err != nil {
		return core.NewIOError(op, core.IOFile, "create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if err := codec.Encode(tmp, node); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return core.NewIOError(op, core.IOFile, "close temp file", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return core.NewIOError(op, core.IOFile, "rename into place", err)
	}
	ds.logger.Debug("subtree saved", "path", path, "protocol", protocol)
	return nil
}

// Load deserializes a file into the group (the root group when group is
// nil). Load is all-or-nothing: it either completes and augments the target
// subtree, or fails and leaves it untouched. Load blocks until the read
// completes.
func (ds *DataStore) Load(path, protocol string, group *Group) error {
	const op = "DataStore.Load"
	codec, ok := ds.codecs[protocol]
	if !ok {
		return core.NewIOError(op, core.UnknownProtocol, protocol, nil)
	}
	if group == nil {
		group = ds.root
	}

	f, err := os.Open(path)
	if err != nil {
		return core.NewIOError(op, core.IOFile, "open file", err)
	}
	defer f.Close()

	node, err := codec.Decode(f)
	if err != nil {
		return err
	}
	if err := ds.ImportTree(node, group); err != nil {
		return err
	}
	ds.logger.Debug("subtree loaded", "path", path, "protocol", protocol)
	return nil
}
