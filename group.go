package treestore

import (
	"io"
	"strings"

	"github.com/hupe1980/treestore/core"
)

// childNode is either a *Group or a *View. Both kinds share one namespace
// per parent: names must be unique across sibling groups and sibling views.
type childNode interface{ isChild() }

func (*Group) isChild() {}
func (*View) isChild()  {}

// Group is a node in the namespace tree. It owns its child groups and views
// by name, holds a non-owning back-reference to its parent, and resolves
// '/'-delimited paths. Children are iterated and serialized in insertion
// order, which callers may rely on for deterministic round trips.
type Group struct {
	name     string
	parent   *Group // nil only for the root
	store    *DataStore
	children map[string]childNode
	order    []string // insertion order across both kinds
}

func newGroup(name string, parent *Group, store *DataStore) *Group {
	return &Group{
		name:     name,
		parent:   parent,
		store:    store,
		children: make(map[string]childNode),
	}
}

// Name returns the group's name. The root group's name is the empty string.
func (g *Group) Name() string { return g.name }

// Parent returns the parent group, or nil for the root.
func (g *Group) Parent() *Group { return g.parent }

// DataStore returns the store that owns the group tree.
func (g *Group) DataStore() *DataStore { return g.store }

// IsRoot reports whether the group is the store's root group.
func (g *Group) IsRoot() bool { return g.parent == nil }

// PathName returns the full path of the group from the root: "/" for the
// root itself, "a/b" for nested groups.
func (g *Group) PathName() string {
	if g.parent == nil {
		return "/"
	}
	return joinChildPath(g.parent.PathName(), g.name)
}

// Rename changes the group's name. The root group cannot be renamed.
func (g *Group) Rename(name string) error {
	if g.parent == nil {
		return core.NewStateError("Group.Rename", "", "root group cannot be renamed")
	}
	return g.parent.renameChild(g.name, name, "Group.Rename")
}

// NumChildren returns the number of direct children of either kind.
func (g *Group) NumChildren() int { return len(g.order) }

// NumGroups returns the number of direct child groups.
func (g *Group) NumGroups() int { return len(g.Groups()) }

// NumViews returns the number of direct child views.
func (g *Group) NumViews() int { return len(g.Views()) }

// HasChild reports whether a direct child of either kind has the given name.
func (g *Group) HasChild(name string) bool {
	_, ok := g.children[name]
	return ok
}

// HasGroup reports whether a direct child group has the given name.
func (g *Group) HasGroup(name string) bool {
	_, ok := g.children[name].(*Group)
	return ok
}

// HasView reports whether a direct child view has the given name.
func (g *Group) HasView(name string) bool {
	_, ok := g.children[name].(*View)
	return ok
}

// ChildNames returns the names of all direct children in insertion order.
// The slice is a snapshot safe for caller mutation.
func (g *Group) ChildNames() []string {
	return append([]string(nil), g.order...)
}

// Groups returns the direct child groups in insertion order.
func (g *Group) Groups() []*Group {
	var out []*Group
	for _, name := range g.order {
		if child, ok := g.children[name].(*Group); ok {
			out = append(out, child)
		}
	}
	return out
}

// Views returns the direct child views in insertion order.
func (g *Group) Views() []*View {
	var out []*View
	for _, name := range g.order {
		if child, ok := g.children[name].(*View); ok {
			out = append(out, child)
		}
	}
	return out
}

// CreateGroup inserts a new empty child group. It fails with a
// StructuralError when the name is invalid or collides with an existing
// child of either kind.
func (g *Group) CreateGroup(name string) (*Group, error) {
	const op = "Group.CreateGroup"
	if err := g.checkInsert(name, op); err != nil {
		return nil, err
	}
	child := newGroup(name, g, g.store)
	g.insert(name, child)
	return child, nil
}

// CreateView inserts a new empty view. It fails with a StructuralError when
// the name is invalid or collides with an existing child of either kind.
func (g *Group) CreateView(name string) (*View, error) {
	const op = "Group.CreateView"
	if err := g.checkInsert(name, op); err != nil {
		return nil, err
	}
	v := newView(name, g)
	g.insert(name, v)
	return v, nil
}

// CreateViewDescribed inserts a new view carrying a type/shape description.
func (g *Group) CreateViewDescribed(name string, t core.TypeID, shape ...int64) (*View, error) {
	v, err := g.CreateView(name)
	if err != nil {
		return nil, err
	}
	if err := v.Describe(t, shape...); err != nil {
		g.DestroyView(name)
		return nil, err
	}
	return v, nil
}

// CreateViewAndAllocate inserts a described view, allocates a buffer for it
// through the store and finalizes its extent. The returned view is applied.
func (g *Group) CreateViewAndAllocate(name string, t core.TypeID, shape ...int64) (*View, error) {
	v, err := g.CreateViewDescribed(name, t, shape...)
	if err != nil {
		return nil, err
	}
	if err := v.Allocate(); err != nil {
		g.DestroyView(name)
		return nil, err
	}
	if err := v.Apply(); err != nil {
		g.DestroyView(name)
		return nil, err
	}
	return v, nil
}

// CreateViewScalar inserts a view holding an inline numeric scalar.
func (g *Group) CreateViewScalar(name string, value any) (*View, error) {
	v, err := g.CreateView(name)
	if err != nil {
		return nil, err
	}
	if err := v.SetScalar(value); err != nil {
		g.DestroyView(name)
		return nil, err
	}
	return v, nil
}

// CreateViewString inserts a view holding an inline string.
func (g *Group) CreateViewString(name, text string) (*View, error) {
	v, err := g.CreateView(name)
	if err != nil {
		return nil, err
	}
	if err := v.SetString(text); err != nil {
		g.DestroyView(name)
		return nil, err
	}
	return v, nil
}

// CreateViewExternal inserts a described view wrapping caller-owned memory.
func (g *Group) CreateViewExternal(name string, t core.TypeID, data []byte, shape ...int64) (*View, error) {
	v, err := g.CreateViewDescribed(name, t, shape...)
	if err != nil {
		return nil, err
	}
	if err := v.SetExternal(data); err != nil {
		g.DestroyView(name)
		return nil, err
	}
	return v, nil
}

// CreateViewOpaque inserts a view holding an opaque handle.
func (g *Group) CreateViewOpaque(name string, handle any) (*View, error) {
	v, err := g.CreateView(name)
	if err != nil {
		return nil, err
	}
	if err := v.SetOpaque(handle); err != nil {
		g.DestroyView(name)
		return nil, err
	}
	return v, nil
}

// GetGroup resolves a '/'-delimited path relative to the group, traversing
// only through groups. It fails with a StructuralError when a segment is
// missing or a non-terminal segment names a view.
func (g *Group) GetGroup(path string) (*Group, error) {
	const op = "Group.GetGroup"
	parent, last, err := g.resolve(path, op)
	if err != nil {
		return nil, err
	}
	child, ok := parent.children[last].(*Group)
	if !ok {
		return nil, core.NewStructuralError(op, path, core.InvalidPath)
	}
	return child, nil
}

// GetView resolves a '/'-delimited path to a view, like GetGroup.
func (g *Group) GetView(path string) (*View, error) {
	const op = "Group.GetView"
	parent, last, err := g.resolve(path, op)
	if err != nil {
		return nil, err
	}
	child, ok := parent.children[last].(*View)
	if !ok {
		return nil, core.NewStructuralError(op, path, core.InvalidPath)
	}
	return child, nil
}

// DestroyGroup removes and recursively destroys the named child group and
// everything beneath it. Views in the destroyed subtree detach from their
// buffers; the buffers themselves survive. Destroying a nonexistent child is
// a no-op so defensively written cleanup code cannot fail.
func (g *Group) DestroyGroup(name string) {
	child, ok := g.children[name].(*Group)
	if !ok {
		return
	}
	child.releaseSubtree()
	g.remove(name)
}

// DestroyView removes the named child view, detaching it from any buffer.
// Destroying a nonexistent child is a no-op.
func (g *Group) DestroyView(name string) {
	child, ok := g.children[name].(*View)
	if !ok {
		return
	}
	child.Clear()
	g.remove(name)
}

// DestroyGroups destroys all direct child groups, preserving child views.
func (g *Group) DestroyGroups() {
	for _, child := range g.Groups() {
		g.DestroyGroup(child.name)
	}
}

// DestroyViews destroys all direct child views, preserving child groups.
func (g *Group) DestroyViews() {
	for _, child := range g.Views() {
		g.DestroyView(child.name)
	}
}

// Dump writes a human-readable description of the group's subtree using the
// registered text-debug codec.
func (g *Group) Dump(w io.Writer) error {
	node, err := g.store.ExportTree(g)
	if err != nil {
		return err
	}
	codec, ok := g.store.codecs[core.ProtocolDebug]
	if !ok {
		return core.NewIOError("Group.Dump", core.UnknownProtocol, core.ProtocolDebug, nil)
	}
	return codec.Encode(w, node)
}

// releaseSubtree detaches every view in the subtree from its buffer. The
// nodes themselves become unreachable once the subtree root is removed from
// its parent.
func (g *Group) releaseSubtree() {
	for _, name := range g.order {
		switch child := g.children[name].(type) {
		case *Group:
			child.releaseSubtree()
		case *View:
			child.Clear()
		}
	}
}

func (g *Group) resolve(path, op string) (*Group, string, error) {
	segments := strings.Split(path, "/")
	current := g
	for i, seg := range segments {
		if seg == "" {
			return nil, "", core.NewStructuralError(op, path, core.InvalidPath)
		}
		if i == len(segments)-1 {
			return current, seg, nil
		}
		next, ok := current.children[seg].(*Group)
		if !ok {
			return nil, "", core.NewStructuralError(op, path, core.InvalidPath)
		}
		current = next
	}
	return nil, "", core.NewStructuralError(op, path, core.InvalidPath)
}

func (g *Group) checkInsert(name, op string) error {
	if name == "" || strings.Contains(name, "/") {
		return core.NewStructuralError(op, name, core.InvalidPath)
	}
	if g.HasChild(name) {
		return core.NewStructuralError(op, name, core.DuplicateName)
	}
	return nil
}

func (g *Group) insert(name string, child childNode) {
	g.children[name] = child
	g.order = append(g.order, name)
	g.store.logger.Debug("child created", "path", joinChildPath(g.PathName(), name))
}

func (g *Group) remove(name string) {
	delete(g.children, name)
	for i, n := range g.order {
		if n == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
}

// renameChild renames a child in place, preserving its position in insertion
// order.
func (g *Group) renameChild(oldName, newName, op string) error {
	if newName == "" || strings.Contains(newName, "/") {
		return core.NewStructuralError(op, newName, core.InvalidPath)
	}
	if newName == oldName {
		return nil
	}
	if g.HasChild(newName) {
		return core.NewStructuralError(op, newName, core.DuplicateName)
	}
	child := g.children[oldName]
	delete(g.children, oldName)
	g.children[newName] = child
	for i, n := range g.order {
		if n == oldName {
			g.order[i] = newName
			break
		}
	}
	switch c := child.(type) {
	case *Group:
		c.name = newName
	case *View:
		c.name = newName
	}
	return nil
}

func joinChildPath(base, name string) string {
	if base == "/" {
		return name
	}
	return base + "/" + name
}
