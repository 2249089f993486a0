// Package store implements the mutable reactive data graph and its
// snapshot/subscription primitives.
//
// ARCHITECTURE:
//
// Version-Stamped Mutation:
// Every graph owns a monotonic version clock. A mutation stamps the touched
// node and all of its transitive parents with the next version. Propagation
// is cycle-guarded: a node already stamped with the current version is not
// revisited, so self-referential graphs terminate.
//
// Structurally-Shared Snapshots:
// Snapshot() produces an immutable mirror of the graph. Each node caches its
// last snapshot together with the version it was taken at; a node whose
// version has not moved returns the cached snapshot by reference. A parent
// rebuilt because one child changed therefore still shares every unchanged
// sibling subtree with the previous snapshot. Downstream identity-based
// caching (internal/bridge) depends on this guarantee.
//
// Path Subscriptions:
// A Subscription records the (node, key) pairs read during a pass and fires
// its callback when a later mutation hits a recorded pair. Recording is the
// reader's job (the bridge records through its wrappers); the store only
// matches mutations against the recorded set. A subscription that recorded
// nothing never fires, but Touch() keeps it registered so a zero-read
// consumer still receives its initial snapshot.
//
// INVARIANTS:
//   - Snapshots are immutable after construction; a mutation mid-pass is
//     visible only to the next snapshot.
//   - Version propagation stamps each node at most once per mutation.
//   - Nodes belong to exactly one Graph; attaching a node from another
//     graph is an error.
package store
