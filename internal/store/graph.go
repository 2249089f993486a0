package store

import (
	"fmt"
	"sync"

	"github.com/drifa/tandem/internal/value"
)

// Graph owns one mutable data graph: its version clock, its nodes, and the
// subscriptions watching it.
//
// Thread-safety model:
//   - All node reads and mutations are safe from any goroutine (guarded by
//     the graph mutex).
//   - Subscription callbacks run on the mutating goroutine, after the mutex
//     is released, so callbacks may freely read or mutate the graph.
type Graph struct {
	mu      sync.Mutex
	version uint64
	subs    []*Subscription // in registration order, for deterministic firing
}

// New creates an empty graph with its version clock at zero.
func New() *Graph {
	return &Graph{}
}

// NewObject allocates an empty object node owned by this graph.
func (g *Graph) NewObject() *Object {
	return &Object{
		g:       g,
		fields:  make(map[string]any),
		parents: make(map[Node]int),
	}
}

// NewArray allocates an empty array node owned by this graph.
func (g *Graph) NewArray() *Array {
	return &Array{
		g:       g,
		parents: make(map[Node]int),
	}
}

// ObjectOf builds an object node from a plain Go map, recursively converting
// nested maps and slices to nodes and scalars to leaf values. This is the
// bulk-construction path used by scenario initial state and journal replay.
func (g *Graph) ObjectOf(m map[string]any) (*Object, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.objectOfLocked(m)
}

// ArrayOf builds an array node from a plain Go slice. See ObjectOf.
func (g *Graph) ArrayOf(items []any) (*Array, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.arrayOfLocked(items)
}

func (g *Graph) objectOfLocked(m map[string]any) (*Object, error) {
	obj := g.NewObject()
	for k, v := range m {
		stored, err := g.coerceLocked(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		obj.fields[k] = stored
		if n, ok := stored.(Node); ok {
			n.addParentLocked(obj)
		}
	}
	return obj, nil
}

func (g *Graph) arrayOfLocked(items []any) (*Array, error) {
	arr := g.NewArray()
	for i, v := range items {
		stored, err := g.coerceLocked(v)
		if err != nil {
			return nil, fmt.Errorf("index %d: %w", i, err)
		}
		arr.elems = append(arr.elems, stored)
		if n, ok := stored.(Node); ok {
			n.addParentLocked(arr)
		}
	}
	return arr, nil
}

// coerceLocked converts an arbitrary value into its stored form: an existing
// node (same graph only), a recursively built node for map/slice literals,
// or a leaf value.Value.
func (g *Graph) coerceLocked(v any) (any, error) {
	switch val := v.(type) {
	case Node:
		if val.graph() != g {
			return nil, fmt.Errorf("node belongs to a different graph")
		}
		return val, nil
	case map[string]any:
		return g.objectOfLocked(val)
	case []any:
		return g.arrayOfLocked(val)
	default:
		leaf, err := value.FromGo(v)
		if err != nil {
			return nil, err
		}
		return leaf, nil
	}
}

// nextVersionLocked advances the graph's version clock.
// Never returns zero: zero is reserved as the "never snapshotted" sentinel.
func (g *Graph) nextVersionLocked() uint64 {
	g.version++
	return g.version
}

// Version returns the graph's current version clock reading.
func (g *Graph) Version() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.version
}

// collectLocked gathers the callbacks of every subscription whose recorded
// read set intersects the mutated (node, key) pairs. Each subscription fires
// at most once per mutation regardless of how many keys matched.
func (g *Graph) collectLocked(n Node, keys ...string) []func() {
	var due []func()
	for _, sub := range g.subs {
		if sub.closed {
			continue
		}
		for _, key := range keys {
			if _, ok := sub.affected[pathKey{node: n, key: key}]; ok {
				due = append(due, sub.onChange)
				break
			}
		}
	}
	return due
}

// fire invokes collected callbacks outside the graph mutex so that callbacks
// may re-enter the store.
func fire(due []func()) {
	for _, fn := range due {
		fn()
	}
}
