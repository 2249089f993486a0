package bridge

import (
	"fmt"
	"runtime"
	"sync"
	"weak"

	"github.com/drifa/tandem/internal/store"
)

// entry is the cache record for one target node: the snapshot most recently
// bound to it and the single persistent wrapper for it. The snap field is
// overwritten on every pass; the wrapper is reused unchanged.
type entry struct {
	snap    store.Snap // may be nil when the path is absent from the snapshot
	wrapper *Wrapper
}

// cache maps target node identity to its entry.
//
// Keys are weak pointers: weak.Pointer values made from the same node
// compare equal, so they serve as identity keys without keeping the node
// reachable. Wrappers also hold their target weakly (see Wrapper), so once
// the graph drops a node, nothing in the cache pins it; a GC cleanup then
// removes the dead entry.
//
// The mutex exists because cleanups run on GC goroutines; all other access
// is single-threaded through the owning call site.
type cache struct {
	mu      sync.Mutex
	entries map[any]*entry
}

func newCache() *cache {
	return &cache{entries: make(map[any]*entry)}
}

// key returns the weak identity key for a node.
func (c *cache) key(n store.Node) any {
	switch t := n.(type) {
	case *store.Object:
		return weak.Make(t)
	case *store.Array:
		return weak.Make(t)
	default:
		panic(fmt.Sprintf("unknown node variant: %T", n))
	}
}

// lookup returns the entry for target, or nil.
func (c *cache) lookup(target store.Node) *entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[c.key(target)]
}

// insert records an entry for target and arranges for the entry to be
// dropped when the target is collected.
func (c *cache) insert(target store.Node, e *entry) {
	k := c.key(target)
	c.mu.Lock()
	c.entries[k] = e
	c.mu.Unlock()

	drop := func(k any) {
		c.mu.Lock()
		delete(c.entries, k)
		c.mu.Unlock()
	}
	switch t := target.(type) {
	case *store.Object:
		runtime.AddCleanup(t, drop, k)
	case *store.Array:
		runtime.AddCleanup(t, drop, k)
	}
}

// bindSnap overwrites the snapshot bound to target's entry. Overwrite, not
// merge: stale snapshots must never accumulate.
func (c *cache) bindSnap(e *entry, snap store.Snap) {
	c.mu.Lock()
	e.snap = snap
	c.mu.Unlock()
}

// boundSnap reads the snapshot currently bound to the entry.
func (c *cache) boundSnap(e *entry) store.Snap {
	c.mu.Lock()
	defer c.mu.Unlock()
	return e.snap
}

// size reports the number of live entries. For tests.
func (c *cache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
