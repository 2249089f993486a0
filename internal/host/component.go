package host

// RenderFunc is a component's render function. It runs synchronously during
// a render pass and returns the rendered output (any shape; the harness
// renders path/value maps).
type RenderFunc func(rc *RenderContext) any

// Component is one mounted call site driven by a Scheduler.
//
// All fields are owned by the scheduler's single-writer loop; components are
// not safe for concurrent use from other goroutines.
type Component struct {
	sched       *Scheduler
	name        string
	render      RenderFunc
	slots       map[string]any
	afterCommit []func()
	dirty       bool
	unmounted   bool

	onUnmount []func()

	renderCount int
	lastOutput  any
	lastSeq     int64
	lastToken   string
}

// Name returns the component's mount name.
func (c *Component) Name() string { return c.name }

// RenderCount returns the number of render passes performed so far,
// including uncommitted attempts.
func (c *Component) RenderCount() int { return c.renderCount }

// LastOutput returns the output of the most recent render pass.
func (c *Component) LastOutput() any { return c.lastOutput }

// LastToken returns the pass token of the most recent committed pass.
func (c *Component) LastToken() string { return c.lastToken }

// Invalidate schedules a re-render on the next Flush. Idempotent while a
// render is already pending. No-op after unmount.
func (c *Component) Invalidate() {
	c.sched.invalidate(c)
}

// RenderNow renders and commits the component immediately, bypassing the
// batch queue. Used by synchronous-update subscriptions.
func (c *Component) RenderNow() {
	c.sched.renderAndCommit(c)
}

// Unmount tears the component down. Pending invalidations are dropped and
// later ones ignored.
func (c *Component) Unmount() {
	c.sched.unmount(c)
}

// RenderContext is handed to RenderFunc for the duration of one render pass.
type RenderContext struct {
	c *Component
}

// Name returns the rendering component's mount name.
func (rc *RenderContext) Name() string { return rc.c.name }

// Slot returns per-component persistent state stored under key.
// Slots survive across render passes for the lifetime of the component.
func (rc *RenderContext) Slot(key string) (any, bool) {
	v, ok := rc.c.slots[key]
	return v, ok
}

// SetSlot stores per-component persistent state under key.
func (rc *RenderContext) SetSlot(key string, v any) {
	rc.c.slots[key] = v
}

// AfterCommit registers fn to run exactly once after this pass commits,
// before the component's next render. Callbacks registered by a render
// attempt that is never committed are discarded with the attempt.
func (rc *RenderContext) AfterCommit(fn func()) {
	rc.c.afterCommit = append(rc.c.afterCommit, fn)
}

// OnUnmount registers fn to run when the component is torn down.
// Unlike AfterCommit registrations these persist across passes, so they are
// registered once (typically when per-component state is first created).
func (rc *RenderContext) OnUnmount(fn func()) {
	rc.c.onUnmount = append(rc.c.onUnmount, fn)
}

// Owner returns the component this render pass belongs to. The component
// outlives the pass; subscriptions capture it to schedule re-renders.
func (rc *RenderContext) Owner() *Component {
	return rc.c
}
