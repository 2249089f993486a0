package host

import (
	"io"
	"log/slog"
	"sync"
)

// PassEvent describes one committed render pass, for trace observers.
type PassEvent struct {
	Component string
	Seq       int64
	Token     string
	Output    any
}

// Scheduler drives component render and commit cycles.
//
// Thread-safety model:
//   - invalidations (from store subscription callbacks) may arrive on the
//     goroutine currently flushing; the dirty queue is mutex-guarded
//   - Flush and RenderNow must be called from one goroutine at a time; the
//     render loop itself is single-writer by design
type Scheduler struct {
	mu    sync.Mutex
	dirty []*Component // FIFO, deduplicated via Component.dirty

	clock    *Clock
	tokens   TokenGenerator
	logger   *slog.Logger
	observer func(PassEvent)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithTokenGenerator replaces the default UUIDv7 pass token generator.
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(s *Scheduler) { s.tokens = gen }
}

// WithClock replaces the scheduler's pass clock, e.g. to resume numbering
// from a journal.
func WithClock(c *Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithLogger sets the scheduler's logger. Default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithObserver registers a callback invoked after every committed pass.
// Used by the harness to build traces.
func WithObserver(fn func(PassEvent)) Option {
	return func(s *Scheduler) { s.observer = fn }
}

// NewScheduler creates a scheduler with a fresh clock and UUIDv7 tokens.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:  NewClock(),
		tokens: UUIDv7Generator{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount registers a component and schedules its initial render.
// The first render runs on the next Flush.
func (s *Scheduler) Mount(name string, render RenderFunc) *Component {
	c := &Component{
		sched:  s,
		name:   name,
		render: render,
		slots:  make(map[string]any),
	}
	s.invalidate(c)
	return c
}

// Flush drains the dirty queue, rendering and committing each component in
// invalidation order. Invalidations raised while flushing (renders mutating
// state, after-commit callbacks) extend the same drain, so Flush returns
// only when the system is quiescent.
func (s *Scheduler) Flush() {
	for {
		c, ok := s.pop()
		if !ok {
			return
		}
		s.renderAndCommit(c)
	}
}

// RenderAttempt performs a render pass without committing it, modeling a
// speculative pass the engine later discards. After-commit callbacks
// registered during the attempt are discarded; a subsequent committed pass
// re-registers its own.
func (s *Scheduler) RenderAttempt(c *Component) any {
	return s.renderPass(c)
}

func (s *Scheduler) invalidate(c *Component) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.unmounted || c.dirty {
		return
	}
	c.dirty = true
	s.dirty = append(s.dirty, c)
}

func (s *Scheduler) pop() (*Component, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.dirty) > 0 {
		c := s.dirty[0]
		s.dirty[0] = nil
		s.dirty = s.dirty[1:]
		c.dirty = false
		if !c.unmounted {
			return c, true
		}
	}
	return nil, false
}

func (s *Scheduler) unmount(c *Component) {
	s.mu.Lock()
	if c.unmounted {
		s.mu.Unlock()
		return
	}
	c.unmounted = true
	c.afterCommit = nil
	callbacks := c.onUnmount
	c.onUnmount = nil
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

func (s *Scheduler) renderPass(c *Component) any {
	if c.unmounted {
		return nil
	}
	c.renderCount++
	// Each attempt starts clean: callbacks from an earlier uncommitted
	// attempt must not leak into this pass's commit.
	c.afterCommit = c.afterCommit[:0]
	rc := &RenderContext{c: c}
	out := c.render(rc)
	c.lastOutput = out
	s.logger.Debug("render pass", "component", c.name, "count", c.renderCount)
	return out
}

func (s *Scheduler) renderAndCommit(c *Component) {
	if c.unmounted {
		return
	}
	out := s.renderPass(c)

	seq := s.clock.Next()
	token := s.tokens.Generate()
	c.lastSeq = seq
	c.lastToken = token

	callbacks := c.afterCommit
	c.afterCommit = nil
	for _, fn := range callbacks {
		fn()
	}
	s.logger.Debug("commit", "component", c.name, "seq", seq, "token", token)

	if s.observer != nil {
		s.observer(PassEvent{Component: c.name, Seq: seq, Token: token, Output: out})
	}
}
