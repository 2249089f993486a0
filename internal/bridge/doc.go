// Package bridge is the dual-mode view core: it hands a component a single
// stable reference that reads from an immutable snapshot while a render pass
// is running and from the live mutable graph everywhere else.
//
// ARCHITECTURE:
//
// Dual Routing:
// A Wrapper never stores data. Each read resolves, at access time, against
// either the snapshot bound to the target's cache entry (inside render) or
// the live node (outside render). Writes always pass straight through to the
// live node. The render-phase flag that picks the side is armed
// synchronously by Use on every render attempt and disarmed by an
// after-commit callback, so an aborted attempt can leave it armed until the
// next committed pass - tolerated, never corrected.
//
// Wrapper Identity:
// One Handle exists per call site (component x root), and within it at most
// one Wrapper exists per distinct target node. Re-renders overwrite the
// entry's bound snapshot but reuse the Wrapper object, so identities handed
// to memoization stay stable for as long as the target itself survives.
// The cache is weak on targets: entries hold weak references and are purged
// by GC cleanups, so the cache never extends a node's lifetime beyond what
// the graph already guarantees.
//
// Laziness and Cycles:
// Child wrappers are built on first access of a path, never eagerly. A
// cyclic graph terminates because revisiting a cached target returns the
// memoized wrapper instead of recursing.
package bridge
