package bridge

import (
	"fmt"

	"github.com/drifa/tandem/internal/host"
	"github.com/drifa/tandem/internal/store"
)

// Options configures a call site's binding.
type Options struct {
	// Sync applies subscription-triggered re-renders synchronously on the
	// mutating goroutine instead of batching them into the next Flush.
	Sync bool
}

// Use binds a component render pass to a store root and returns the stable
// dual-mode wrapper for it. Call it from the render function, every pass:
//
//	view := bridge.Use(rc, root, bridge.Options{})
//	count := view.Get("count")  // snapshot value while rendering
//
// The wrapper may be retained, passed to children, and used from callbacks
// after commit, where its reads and writes address the live store.
//
// Per-call-site state (wrapper cache, phase flag, subscription) is created
// on the first pass and reused for the component's lifetime; Options are
// fixed at that first pass. A component binding multiple roots gets an
// independent call site per root.
func Use(rc *host.RenderContext, root *store.Object, opts Options) *Wrapper {
	h := handleFor(rc, root, opts)

	// Fresh snapshot for this pass; every read below routes to it until
	// the commit callback disarms the flag.
	snap := h.sub.Snapshot(root)

	// Marker read: a pass that reads no real field is still a registered
	// subscriber rather than an unmounted one.
	h.sub.Touch()

	// Arm directly - this runs synchronously inside the render pass, and
	// must re-arm on every attempt, committed or not.
	h.status.arm()
	rc.AfterCommit(h.status.disarm)

	return h.build(root, snap).(*Wrapper)
}

// handleFor finds or creates the call site's handle in the component's
// slots, keyed by root identity so distinct roots get distinct caches.
func handleFor(rc *host.RenderContext, root *store.Object, opts Options) *Handle {
	slot := fmt.Sprintf("bridge.handle:%p", root)
	if v, ok := rc.Slot(slot); ok {
		return v.(*Handle)
	}

	h := &Handle{cache: newCache()}
	owner := rc.Owner()
	h.sub = store.Watch(root.Graph(), func() {
		if opts.Sync {
			owner.RenderNow()
		} else {
			owner.Invalidate()
		}
	}, store.Options{Sync: opts.Sync})

	rc.SetSlot(slot, h)
	rc.OnUnmount(h.sub.Close)
	return h
}
