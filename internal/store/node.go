package store

import (
	"fmt"
	"strconv"

	"github.com/drifa/tandem/internal/value"
)

// lengthKey is the pseudo-key recorded for Len reads and notified when an
// array's length changes. Ordinary field keys never collide with it because
// it is matched only for array nodes, whose real keys are decimal indices.
const lengthKey = "length"

// Node is a sealed interface for composite graph nodes.
// Only *Object and *Array implement it.
type Node interface {
	node() // Sealed - only these types implement it

	// Version returns the version the node was last stamped with.
	Version() uint64

	graph() *Graph
	bumpLocked(ver uint64)
	addParentLocked(p Node)
	removeParentLocked(p Node)
	snapshotLocked(memo map[Node]Snap) Snap
}

// Object is a string-keyed composite node.
type Object struct {
	g       *Graph
	fields  map[string]any // value.Value | Node
	version uint64
	parents map[Node]int // link refcounts; a node may hang off one parent twice

	// Snapshot cache: valid while version == snapVer.
	snapVer uint64
	snapped *SnapObject
}

func (*Object) node() {}

func (o *Object) graph() *Graph { return o.g }

// Graph returns the graph owning this object.
func (o *Object) Graph() *Graph { return o.g }

// Version returns the version the object was last stamped with.
func (o *Object) Version() uint64 {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	return o.version
}

// Get returns the stored value for key: a Node for composite children, a
// value.Value for leaves. The second return is false when the key is absent.
func (o *Object) Get(key string) (any, bool) {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	v, ok := o.fields[key]
	return v, ok
}

// Len returns the number of fields.
func (o *Object) Len() int {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	return len(o.fields)
}

// Keys returns the field names in canonical (RFC 8785) order so that
// iteration over an object is deterministic.
func (o *Object) Keys() []string {
	o.g.mu.Lock()
	defer o.g.mu.Unlock()
	keys := make([]string, 0, len(o.fields))
	for k := range o.fields {
		keys = append(keys, k)
	}
	value.SortKeysCanonical(keys)
	return keys
}

// Set stores v under key, replacing any previous value. v may be a Node from
// the same graph, a map/slice literal (built recursively), or a Go scalar.
// The object and its transitive parents are stamped with a fresh version and
// matching subscriptions fire.
func (o *Object) Set(key string, v any) error {
	o.g.mu.Lock()
	stored, err := o.g.coerceLocked(v)
	if err != nil {
		o.g.mu.Unlock()
		return fmt.Errorf("set %q: %w", key, err)
	}
	old, existed := o.fields[key]
	if existed {
		if n, ok := old.(Node); ok {
			n.removeParentLocked(o)
		}
	}
	if n, ok := stored.(Node); ok {
		n.addParentLocked(o)
	}
	o.fields[key] = stored
	o.bumpLocked(o.g.nextVersionLocked())
	keys := []string{key}
	if !existed {
		// A new key changes the key set, which iterators observe via the
		// length pseudo-key.
		keys = append(keys, lengthKey)
	}
	due := o.g.collectLocked(o, keys...)
	o.g.mu.Unlock()
	fire(due)
	return nil
}

// Delete removes key. Deleting an absent key is a no-op and fires nothing.
func (o *Object) Delete(key string) {
	o.g.mu.Lock()
	old, ok := o.fields[key]
	if !ok {
		o.g.mu.Unlock()
		return
	}
	if n, ok := old.(Node); ok {
		n.removeParentLocked(o)
	}
	delete(o.fields, key)
	o.bumpLocked(o.g.nextVersionLocked())
	due := o.g.collectLocked(o, key, lengthKey)
	o.g.mu.Unlock()
	fire(due)
}

func (o *Object) bumpLocked(ver uint64) {
	if o.version == ver {
		return // already stamped this mutation; also breaks parent cycles
	}
	o.version = ver
	for p := range o.parents {
		p.bumpLocked(ver)
	}
}

func (o *Object) addParentLocked(p Node) {
	o.parents[p]++
}

func (o *Object) removeParentLocked(p Node) {
	if o.parents[p] <= 1 {
		delete(o.parents, p)
		return
	}
	o.parents[p]--
}

// Array is an integer-indexed composite node.
//
// Assigning past the current length grows the array, leaving holes. A hole
// reads as absent from both the live array and its snapshots.
type Array struct {
	g       *Graph
	elems   []any // value.Value | Node | nil (hole)
	version uint64
	parents map[Node]int

	snapVer uint64
	snapped *SnapArray
}

func (*Array) node() {}

func (a *Array) graph() *Graph { return a.g }

// Graph returns the graph owning this array.
func (a *Array) Graph() *Graph { return a.g }

// Version returns the version the array was last stamped with.
func (a *Array) Version() uint64 {
	a.g.mu.Lock()
	defer a.g.mu.Unlock()
	return a.version
}

// Index returns the element at i. The second return is false when i is out
// of range or addresses a hole.
func (a *Array) Index(i int) (any, bool) {
	a.g.mu.Lock()
	defer a.g.mu.Unlock()
	if i < 0 || i >= len(a.elems) || a.elems[i] == nil {
		return nil, false
	}
	return a.elems[i], true
}

// Len returns the array length, holes included.
func (a *Array) Len() int {
	a.g.mu.Lock()
	defer a.g.mu.Unlock()
	return len(a.elems)
}

// Append adds v at the end of the array.
func (a *Array) Append(v any) error {
	a.g.mu.Lock()
	stored, err := a.g.coerceLocked(v)
	if err != nil {
		a.g.mu.Unlock()
		return fmt.Errorf("append: %w", err)
	}
	if n, ok := stored.(Node); ok {
		n.addParentLocked(a)
	}
	a.elems = append(a.elems, stored)
	a.bumpLocked(a.g.nextVersionLocked())
	due := a.g.collectLocked(a, strconv.Itoa(len(a.elems)-1), lengthKey)
	a.g.mu.Unlock()
	fire(due)
	return nil
}

// SetIndex stores v at index i, growing the array with holes when i is past
// the current end. Negative indices are an error.
func (a *Array) SetIndex(i int, v any) error {
	if i < 0 {
		return fmt.Errorf("set index %d: negative index", i)
	}
	a.g.mu.Lock()
	stored, err := a.g.coerceLocked(v)
	if err != nil {
		a.g.mu.Unlock()
		return fmt.Errorf("set index %d: %w", i, err)
	}
	grew := false
	for i >= len(a.elems) {
		a.elems = append(a.elems, nil)
		grew = true
	}
	if old := a.elems[i]; old != nil {
		if n, ok := old.(Node); ok {
			n.removeParentLocked(a)
		}
	}
	if n, ok := stored.(Node); ok {
		n.addParentLocked(a)
	}
	a.elems[i] = stored
	a.bumpLocked(a.g.nextVersionLocked())
	keys := []string{strconv.Itoa(i)}
	if grew {
		keys = append(keys, lengthKey)
	}
	due := a.g.collectLocked(a, keys...)
	a.g.mu.Unlock()
	fire(due)
	return nil
}

func (a *Array) bumpLocked(ver uint64) {
	if a.version == ver {
		return
	}
	a.version = ver
	for p := range a.parents {
		p.bumpLocked(ver)
	}
}

func (a *Array) addParentLocked(p Node) {
	a.parents[p]++
}

func (a *Array) removeParentLocked(p Node) {
	if a.parents[p] <= 1 {
		delete(a.parents, p)
		return
	}
	a.parents[p]--
}
