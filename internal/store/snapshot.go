package store

import (
	"fmt"

	"github.com/drifa/tandem/internal/value"
)

// Snap is a sealed interface for immutable snapshot nodes.
// Only *SnapObject and *SnapArray implement it.
//
// Snapshot nodes are never mutated after construction. Two snapshots of the
// same graph share every subtree whose version did not move between them, so
// pointer equality on Snap nodes is a cheap "did this subtree change" test.
type Snap interface {
	snap() // Sealed - only these types implement it
}

// SnapObject is the immutable mirror of an Object.
type SnapObject struct {
	fields map[string]any // value.Value | Snap
}

func (*SnapObject) snap() {}

// Get returns the snapshot value for key: a Snap for composite children, a
// value.Value for leaves. The second return is false when the key is absent.
func (s *SnapObject) Get(key string) (any, bool) {
	v, ok := s.fields[key]
	return v, ok
}

// Len returns the number of fields.
func (s *SnapObject) Len() int { return len(s.fields) }

// Keys returns the field names in canonical (RFC 8785) order.
func (s *SnapObject) Keys() []string {
	keys := make([]string, 0, len(s.fields))
	for k := range s.fields {
		keys = append(keys, k)
	}
	value.SortKeysCanonical(keys)
	return keys
}

// SnapArray is the immutable mirror of an Array.
type SnapArray struct {
	elems []any // value.Value | Snap | nil (hole)
}

func (*SnapArray) snap() {}

// Index returns the element at i. The second return is false when i is out
// of range or addresses a hole.
func (s *SnapArray) Index(i int) (any, bool) {
	if i < 0 || i >= len(s.elems) || s.elems[i] == nil {
		return nil, false
	}
	return s.elems[i], true
}

// Len returns the array length, holes included.
func (s *SnapArray) Len() int { return len(s.elems) }

// Snapshot produces an immutable mirror of the subtree rooted at n.
//
// Unchanged subtrees come back as the same Snap pointers returned by the
// previous Snapshot call (structural sharing). Cyclic graphs produce cyclic
// snapshots: the memo is seeded before children are walked, so a node
// reachable from itself resolves to the snapshot already under construction.
func (g *Graph) Snapshot(n Node) Snap {
	g.mu.Lock()
	defer g.mu.Unlock()
	return n.snapshotLocked(make(map[Node]Snap))
}

func (o *Object) snapshotLocked(memo map[Node]Snap) Snap {
	if s, ok := memo[o]; ok {
		return s
	}
	if o.snapped != nil && o.snapVer == o.version {
		memo[o] = o.snapped
		return o.snapped
	}
	s := &SnapObject{fields: make(map[string]any, len(o.fields))}
	memo[o] = s // seed before recursing: cycles resolve to s itself
	for k, v := range o.fields {
		if child, ok := v.(Node); ok {
			s.fields[k] = child.snapshotLocked(memo)
		} else {
			s.fields[k] = v
		}
	}
	o.snapped = s
	o.snapVer = o.version
	return s
}

func (a *Array) snapshotLocked(memo map[Node]Snap) Snap {
	if s, ok := memo[a]; ok {
		return s
	}
	if a.snapped != nil && a.snapVer == a.version {
		memo[a] = a.snapped
		return a.snapped
	}
	s := &SnapArray{elems: make([]any, len(a.elems))}
	memo[a] = s
	for i, v := range a.elems {
		if child, ok := v.(Node); ok {
			s.elems[i] = child.snapshotLocked(memo)
		} else {
			s.elems[i] = v // value.Value or nil hole
		}
	}
	a.snapped = s
	a.snapVer = a.version
	return s
}

// Export converts a snapshot tree to plain map[string]any / []any shapes with
// value.Value leaves, the form value.MarshalCanonical accepts. Holes export
// as explicit nulls. Cyclic snapshots cannot be exported.
func Export(s Snap) (any, error) {
	return exportSnap(s, make(map[Snap]bool))
}

func exportSnap(s Snap, visiting map[Snap]bool) (any, error) {
	if visiting[s] {
		return nil, fmt.Errorf("cannot export cyclic snapshot")
	}
	visiting[s] = true
	defer delete(visiting, s)

	switch node := s.(type) {
	case *SnapObject:
		out := make(map[string]any, len(node.fields))
		for k, v := range node.fields {
			if child, ok := v.(Snap); ok {
				exported, err := exportSnap(child, visiting)
				if err != nil {
					return nil, fmt.Errorf("%q: %w", k, err)
				}
				out[k] = exported
			} else {
				out[k] = v
			}
		}
		return out, nil
	case *SnapArray:
		out := make([]any, len(node.elems))
		for i, v := range node.elems {
			switch elem := v.(type) {
			case nil:
				out[i] = value.Null{}
			case Snap:
				exported, err := exportSnap(elem, visiting)
				if err != nil {
					return nil, fmt.Errorf("[%d]: %w", i, err)
				}
				out[i] = exported
			default:
				out[i] = v
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown snapshot variant: %T", s)
	}
}

// ExportNode converts a live subtree to plain Go shapes without taking a
// snapshot first. Used for final-state assertions and journal values.
func ExportNode(n Node) (any, error) {
	g := n.graph()
	g.mu.Lock()
	snap := n.snapshotLocked(make(map[Node]Snap))
	g.mu.Unlock()
	return Export(snap)
}
