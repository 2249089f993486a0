package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drifa/tandem/internal/value"
)

func snapObj(t *testing.T, s Snap) *SnapObject {
	t.Helper()
	obj, ok := s.(*SnapObject)
	require.True(t, ok, "expected *SnapObject, got %T", s)
	return obj
}

func TestSnapshot_MirrorsGraph(t *testing.T) {
	g := New()
	root, err := g.ObjectOf(map[string]any{
		"count":  1,
		"nested": map[string]any{"name": "x"},
		"items":  []any{10, 20},
	})
	require.NoError(t, err)

	snap := snapObj(t, g.Snapshot(root))

	v, ok := snap.Get("count")
	require.True(t, ok)
	assert.Equal(t, value.Int(1), v)

	nested, ok := snap.Get("nested")
	require.True(t, ok)
	name, ok := nested.(*SnapObject).Get("name")
	require.True(t, ok)
	assert.Equal(t, value.String("x"), name)

	items, ok := snap.Get("items")
	require.True(t, ok)
	arr := items.(*SnapArray)
	assert.Equal(t, 2, arr.Len())
	elem, ok := arr.Index(1)
	require.True(t, ok)
	assert.Equal(t, value.Int(20), elem)
}

func TestSnapshot_ImmutableUnderLaterMutation(t *testing.T) {
	g := New()
	root, err := g.ObjectOf(map[string]any{"count": 0})
	require.NoError(t, err)

	snap := snapObj(t, g.Snapshot(root))
	require.NoError(t, root.Set("count", 1))

	v, _ := snap.Get("count")
	assert.Equal(t, value.Int(0), v, "snapshot must not see later mutations")

	next := snapObj(t, g.Snapshot(root))
	v, _ = next.Get("count")
	assert.Equal(t, value.Int(1), v)
}

func TestSnapshot_UnchangedGraphReturnsSameInstance(t *testing.T) {
	g := New()
	root, err := g.ObjectOf(map[string]any{"count": 0})
	require.NoError(t, err)

	first := g.Snapshot(root)
	second := g.Snapshot(root)
	assert.Same(t, first, second, "no mutation, same snapshot instance")
}

func TestSnapshot_StructuralSharing(t *testing.T) {
	g := New()
	root, err := g.ObjectOf(map[string]any{
		"changed":   map[string]any{"n": 1},
		"untouched": map[string]any{"n": 2},
	})
	require.NoError(t, err)

	first := snapObj(t, g.Snapshot(root))
	changed, _ := root.Get("changed")
	require.NoError(t, changed.(*Object).Set("n", 10))
	second := snapObj(t, g.Snapshot(root))

	assert.NotSame(t, first, second, "root rebuilt: a child changed")

	firstChanged, _ := first.Get("changed")
	secondChanged, _ := second.Get("changed")
	assert.NotSame(t, firstChanged.(*SnapObject), secondChanged.(*SnapObject))

	firstUntouched, _ := first.Get("untouched")
	secondUntouched, _ := second.Get("untouched")
	assert.Same(t, firstUntouched.(*SnapObject), secondUntouched.(*SnapObject),
		"unchanged subtree shared by reference")
}

func TestSnapshot_CyclicGraph(t *testing.T) {
	g := New()
	root := g.NewObject()
	require.NoError(t, root.Set("self", root))

	snap := snapObj(t, g.Snapshot(root))
	self, ok := snap.Get("self")
	require.True(t, ok)
	assert.Same(t, snap, self.(*SnapObject), "cycle resolves to the snapshot itself")
}

func TestSnapshot_ArrayHoles(t *testing.T) {
	g := New()
	root := g.NewObject()
	arr := g.NewArray()
	require.NoError(t, root.Set("items", arr))
	require.NoError(t, arr.SetIndex(2, "c"))

	snap := snapObj(t, g.Snapshot(root))
	items, _ := snap.Get("items")
	sarr := items.(*SnapArray)
	assert.Equal(t, 3, sarr.Len())
	_, ok := sarr.Index(0)
	assert.False(t, ok, "holes read as absent in snapshots too")
}

func TestExport_PlainShapes(t *testing.T) {
	g := New()
	root, err := g.ObjectOf(map[string]any{
		"count": 1,
		"list":  []any{"a", true},
	})
	require.NoError(t, err)

	exported, err := Export(g.Snapshot(root))
	require.NoError(t, err)

	data, err := value.MarshalCanonical(exported)
	require.NoError(t, err)
	assert.Equal(t, `{"count":1,"list":["a",true]}`, string(data))
}

func TestExport_CyclicSnapshotFails(t *testing.T) {
	g := New()
	root := g.NewObject()
	require.NoError(t, root.Set("self", root))

	_, err := Export(g.Snapshot(root))
	assert.Error(t, err)
}

func TestExportNode_LiveState(t *testing.T) {
	g := New()
	root, err := g.ObjectOf(map[string]any{"n": 1})
	require.NoError(t, err)
	require.NoError(t, root.Set("n", 2))

	exported, err := ExportNode(root)
	require.NoError(t, err)
	data, err := value.MarshalCanonical(exported)
	require.NoError(t, err)
	assert.Equal(t, `{"n":2}`, string(data))
}
