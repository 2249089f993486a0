package bridge

import (
	"fmt"
	"strconv"
	"weak"

	"github.com/drifa/tandem/internal/store"
)

// Handle is the per-call-site state behind Use: the render-phase flag, the
// weak wrapper cache, and the store subscription. It lives in a component
// slot and survives across renders; it is discarded with the component.
type Handle struct {
	status renderStatus
	cache  *cache
	sub    *store.Subscription
}

// build is the recursive dual-mode constructor.
//
// Non-composite targets are the base case: the snapshot value wins while
// rendering, the live value otherwise. Composite targets resolve through the
// cache - reuse binds the fresh snapshot to the existing entry and returns
// the existing wrapper; a miss creates both. Revisiting a cached target is
// what terminates cyclic graphs.
func (h *Handle) build(target, snap any) any {
	node, ok := target.(store.Node)
	if !ok {
		if h.status.rendering() {
			return snap
		}
		return target
	}

	// An identity mismatch between store and snapshot (or a path absent
	// from the snapshot) binds nil; reads then resolve to absent.
	snapNode, _ := snap.(store.Snap)

	if e := h.cache.lookup(node); e != nil {
		h.cache.bindSnap(e, snapNode)
		return e.wrapper
	}
	w := newWrapper(h, node)
	h.cache.insert(node, &entry{snap: snapNode, wrapper: w})
	return w
}

type nodeKind int

const (
	kindObject nodeKind = iota + 1
	kindArray
)

// Wrapper is the stable dual-routing reference handed to components.
//
// It stores no data and holds its target weakly; every access resolves
// against the live node or the currently bound snapshot depending on the
// render-phase flag at that moment. One wrapper exists per target node per
// call site for as long as the target survives, so wrappers are safe
// dependency keys for memoization.
//
// Reads on a wrapper whose target has been collected (the store dropped the
// node and the caller kept the wrapper anyway) resolve to absent values.
type Wrapper struct {
	h    *Handle
	kind nodeKind
	obj  weak.Pointer[store.Object]
	arr  weak.Pointer[store.Array]
}

func newWrapper(h *Handle, n store.Node) *Wrapper {
	w := &Wrapper{h: h}
	switch t := n.(type) {
	case *store.Object:
		w.kind = kindObject
		w.obj = weak.Make(t)
	case *store.Array:
		w.kind = kindArray
		w.arr = weak.Make(t)
	default:
		panic(fmt.Sprintf("unknown node variant: %T", n))
	}
	return w
}

// target resolves the weak reference. Returns nil once the node is gone.
func (w *Wrapper) target() store.Node {
	switch w.kind {
	case kindObject:
		if t := w.obj.Value(); t != nil {
			return t
		}
	case kindArray:
		if t := w.arr.Value(); t != nil {
			return t
		}
	}
	return nil
}

// IsArray reports whether the wrapper fronts an array node.
func (w *Wrapper) IsArray() bool { return w.kind == kindArray }

// Live returns the underlying live node, bypassing dual routing entirely.
// Nil once the target has been collected.
func (w *Wrapper) Live() store.Node { return w.target() }

// Get reads property key through dual routing.
//
// While rendering, the read is recorded as a dependency and the returned
// leaf comes from the bound snapshot; outside render it comes from the live
// node. Composite children come back as wrappers either way, so routing
// continues at every depth. Missing keys (either side) resolve to nil.
//
// Array wrappers accept decimal indices as keys.
func (w *Wrapper) Get(key string) any {
	target := w.target()
	if target == nil {
		return nil
	}
	if w.h.status.rendering() {
		w.h.sub.RecordRead(target, key)
	}

	var live any
	switch t := target.(type) {
	case *store.Object:
		live, _ = t.Get(key)
	case *store.Array:
		if i, err := strconv.Atoi(key); err == nil {
			live, _ = t.Index(i)
		}
	}

	// The snapshot side is read from the cache entry at access time, not
	// captured at wrapper construction; this is what lets one wrapper stay
	// valid across many renders.
	var snapChild any
	if e := w.h.cache.lookup(target); e != nil {
		snapChild = snapGet(w.h.cache.boundSnap(e), key)
	}

	return w.h.build(live, snapChild)
}

// Index reads array element i through dual routing.
func (w *Wrapper) Index(i int) any {
	return w.Get(strconv.Itoa(i))
}

// Len returns the length (arrays) or field count (objects), routed like any
// other read. The length read is recorded so appends and key-set changes
// re-render consumers that iterated.
func (w *Wrapper) Len() int {
	target := w.target()
	if target == nil {
		return 0
	}
	if w.h.status.rendering() {
		w.h.sub.RecordLen(target)
		switch s := w.boundSnap(target).(type) {
		case *store.SnapObject:
			return s.Len()
		case *store.SnapArray:
			return s.Len()
		}
		return 0
	}
	switch t := target.(type) {
	case *store.Object:
		return t.Len()
	case *store.Array:
		return t.Len()
	}
	return 0
}

// Keys returns object field names in canonical order, routed by phase.
// Recorded as a length read: key-set changes invalidate iterators.
func (w *Wrapper) Keys() []string {
	target := w.target()
	if target == nil {
		return nil
	}
	if w.h.status.rendering() {
		w.h.sub.RecordLen(target)
		if s, ok := w.boundSnap(target).(*store.SnapObject); ok {
			return s.Keys()
		}
		return nil
	}
	if t, ok := target.(*store.Object); ok {
		return t.Keys()
	}
	return nil
}

// Set writes through to the live node, regardless of phase: writes always
// target the mutable store. Array wrappers accept decimal indices.
func (w *Wrapper) Set(key string, v any) error {
	switch t := w.target().(type) {
	case *store.Object:
		return t.Set(key, v)
	case *store.Array:
		i, err := strconv.Atoi(key)
		if err != nil {
			return fmt.Errorf("array index %q: %w", key, err)
		}
		return t.SetIndex(i, v)
	default:
		return fmt.Errorf("set %q: target no longer reachable", key)
	}
}

// SetIndex writes array element i through to the live node.
func (w *Wrapper) SetIndex(i int, v any) error {
	t, ok := w.target().(*store.Array)
	if !ok {
		return fmt.Errorf("set index %d: not an array target", i)
	}
	return t.SetIndex(i, v)
}

// Append appends through to the live node.
func (w *Wrapper) Append(v any) error {
	t, ok := w.target().(*store.Array)
	if !ok {
		return fmt.Errorf("append: not an array target")
	}
	return t.Append(v)
}

// Delete removes key from the live node.
func (w *Wrapper) Delete(key string) error {
	t, ok := w.target().(*store.Object)
	if !ok {
		return fmt.Errorf("delete %q: not an object target", key)
	}
	t.Delete(key)
	return nil
}

func (w *Wrapper) boundSnap(target store.Node) store.Snap {
	if e := w.h.cache.lookup(target); e != nil {
		return w.h.cache.boundSnap(e)
	}
	return nil
}

// snapGet resolves one key against a snapshot node. Missing keys, holes,
// out-of-range indices, and kind mismatches all resolve to nil.
func snapGet(s store.Snap, key string) any {
	switch t := s.(type) {
	case *store.SnapObject:
		v, _ := t.Get(key)
		return v
	case *store.SnapArray:
		if i, err := strconv.Atoi(key); err == nil {
			v, _ := t.Index(i)
			return v
		}
	}
	return nil
}
