package treestore

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/treestore/core"
)

func TestGroupCreateAndQuery(t *testing.T) {
	ds := New()
	root := ds.Root()
	assert.True(t, root.IsRoot())
	assert.Nil(t, root.Parent())
	assert.Equal(t, "", root.Name())
	assert.Equal(t, "/", root.PathName())
	assert.Same(t, ds, root.DataStore())

	fields, err := root.CreateGroup("fields")
	require.NoError(t, err)
	assert.Same(t, root, fields.Parent())
	assert.Equal(t, "fields", fields.PathName())

	_, err = fields.CreateViewScalar("rank", 3)
	require.NoError(t, err)

	assert.True(t, root.HasGroup("fields"))
	assert.False(t, root.HasView("fields"))
	assert.True(t, fields.HasView("rank"))
	assert.False(t, fields.HasGroup("rank"))
	assert.Equal(t, 1, root.NumChildren())
	assert.Equal(t, 1, root.NumGroups())
	assert.Equal(t, 0, root.NumViews())
}

func TestGroupDuplicateNames(t *testing.T) {
	ds := New()
	root := ds.Root()
	_, err := root.CreateGroup("n")
	require.NoError(t, err)

	// Groups and views share one namespace.
	_, err = root.CreateGroup("n")
	require.Error(t, err)
	assert.True(t, core.IsStructural(err))

	_, err = root.CreateView("n")
	require.Error(t, err)
	assert.True(t, core.IsStructural(err))
	assert.Equal(t, 1, root.NumChildren())
}

func TestGroupInvalidNames(t *testing.T) {
	ds := New()
	root := ds.Root()

	_, err := root.CreateGroup("")
	assert.True(t, core.IsStructural(err))
	_, err = root.CreateGroup("a/b")
	assert.True(t, core.IsStructural(err))
	_, err = root.CreateView("a/b")
	assert.True(t, core.IsStructural(err))
}

func TestGroupPathResolution(t *testing.T) {
	ds := New()
	root := ds.Root()
	a, err := root.CreateGroup("a")
	require.NoError(t, err)
	b, err := a.CreateGroup("b")
	require.NoError(t, err)
	_, err = b.CreateViewScalar("x", 1)
	require.NoError(t, err)

	got, err := root.GetGroup("a/b")
	require.NoError(t, err)
	assert.Same(t, b, got)

	v, err := root.GetView("a/b/x")
	require.NoError(t, err)
	assert.Equal(t, "x", v.Name())
	assert.Equal(t, "a/b/x", v.PathName())
	assert.Equal(t, "a/b", v.Path())

	_, err = root.GetGroup("a/missing")
	assert.True(t, core.IsStructural(err))
	_, err = root.GetView("a/b")
	assert.True(t, core.IsStructural(err)) // group, not a view
	_, err = root.GetView("a//x")
	assert.True(t, core.IsStructural(err))
}

func TestGroupChildOrder(t *testing.T) {
	ds := New()
	root := ds.Root()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := root.CreateGroup(name)
		require.NoError(t, err)
	}
	_, err := root.CreateViewScalar("v", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid", "v"}, root.ChildNames())

	groups := root.Groups()
	require.Len(t, groups, 3)
	assert.Equal(t, "zeta", groups[0].Name())
	assert.Equal(t, "alpha", groups[1].Name())
	assert.Equal(t, "mid", groups[2].Name())
}

func TestGroupDestroyCascade(t *testing.T) {
	ds := New()
	root := ds.Root()
	a, err := root.CreateGroup("a")
	require.NoError(t, err)
	v, err := a.CreateViewAndAllocate("v", core.Int32, 4)
	require.NoError(t, err)
	buf := v.Buffer()
	require.NotNil(t, buf)

	root.DestroyGroup("a")
	assert.False(t, root.HasGroup("a"))
	// The buffer survives subtree destruction, only the attachment goes.
	assert.Equal(t, 1, ds.NumBuffers())
	assert.Equal(t, 0, buf.NumViews())

	root.DestroyGroup("a") // no-op
	root.DestroyView("nope")
}

func TestGroupDestroyGroupsKeepsViews(t *testing.T) {
	ds := New()
	root := ds.Root()
	_, err := root.CreateGroup("g1")
	require.NoError(t, err)
	_, err = root.CreateGroup("g2")
	require.NoError(t, err)
	_, err = root.CreateViewScalar("v", 1)
	require.NoError(t, err)

	root.DestroyGroups()
	assert.Equal(t, 0, root.NumGroups())
	assert.Equal(t, 1, root.NumViews())

	root.DestroyViews()
	assert.Equal(t, 0, root.NumChildren())
}

func TestGroupRename(t *testing.T) {
	ds := New()
	root := ds.Root()
	g, err := root.CreateGroup("old")
	require.NoError(t, err)
	_, err = root.CreateGroup("taken")
	require.NoError(t, err)

	require.NoError(t, g.Rename("new"))
	assert.Equal(t, "new", g.Name())
	assert.Equal(t, []string{"new", "taken"}, root.ChildNames()) // position kept

	err = g.Rename("taken")
	assert.True(t, core.IsStructural(err))
	err = g.Rename("a/b")
	assert.True(t, core.IsStructural(err))
	require.NoError(t, g.Rename("new")) // same name is a no-op

	err = root.Rename("root")
	assert.True(t, core.IsState(err))
}

func TestGroupDump(t *testing.T) {
	ds := New()
	root := ds.Root()
	g, err := root.CreateGroup("mesh")
	require.NoError(t, err)
	_, err = g.CreateViewScalar("dims", 3)
	require.NoError(t, err)
	_, err = g.CreateViewString("note", "coarse")
	require.NoError(t, err)

	var sb strings.Builder
	require.NoError(t, root.Dump(&sb))
	out := sb.String()
	assert.Contains(t, out, "mesh")
	assert.Contains(t, out, "dims")
	assert.Contains(t, out, "coarse")
}
