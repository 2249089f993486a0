// Package host implements the render/commit scheduler that drives tandem
// components.
//
// ARCHITECTURE:
//
// Single-Writer Render Loop:
// All render work runs on the goroutine calling Flush (or RenderNow), one
// component at a time, in invalidation order. This keeps pass numbering,
// trace output, and commit ordering deterministic.
//
// Render vs Commit:
// A render pass invokes the component's render function synchronously. A
// pass that completes is committed: its after-commit callbacks run exactly
// once, in registration order, before any later render of the same
// component. RenderAttempt renders without committing, modeling speculative
// passes that the engine may discard; callbacks registered by a discarded
// attempt are dropped with it.
//
// Every committed pass is stamped with a monotonic seq from the scheduler's
// clock and a pass token from the token generator (UUIDv7 in production,
// fixed sequences in tests).
package host
