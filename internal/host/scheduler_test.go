package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(opts ...Option) *Scheduler {
	return NewScheduler(append([]Option{WithTokenGenerator(NewSequenceGenerator())}, opts...)...)
}

func TestScheduler_MountRendersOnFlush(t *testing.T) {
	s := newTestScheduler()
	rendered := 0
	c := s.Mount("counter", func(rc *RenderContext) any {
		rendered++
		return "out"
	})

	assert.Equal(t, 0, rendered, "mount alone must not render")
	s.Flush()
	assert.Equal(t, 1, rendered)
	assert.Equal(t, "out", c.LastOutput())
	assert.Equal(t, "pass-1", c.LastToken())
}

func TestScheduler_InvalidateIsDeduplicated(t *testing.T) {
	s := newTestScheduler()
	rendered := 0
	c := s.Mount("counter", func(rc *RenderContext) any {
		rendered++
		return nil
	})
	s.Flush()

	c.Invalidate()
	c.Invalidate()
	c.Invalidate()
	s.Flush()
	assert.Equal(t, 2, rendered, "pending invalidations coalesce")
}

func TestScheduler_FlushOrderIsInvalidationOrder(t *testing.T) {
	s := newTestScheduler()
	var order []string
	a := s.Mount("a", func(rc *RenderContext) any { order = append(order, "a"); return nil })
	b := s.Mount("b", func(rc *RenderContext) any { order = append(order, "b"); return nil })
	s.Flush()
	order = nil

	b.Invalidate()
	a.Invalidate()
	s.Flush()
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestScheduler_AfterCommitRunsOncePerCommit(t *testing.T) {
	s := newTestScheduler()
	commits := 0
	c := s.Mount("c", func(rc *RenderContext) any {
		rc.AfterCommit(func() { commits++ })
		return nil
	})
	s.Flush()
	assert.Equal(t, 1, commits)

	c.Invalidate()
	s.Flush()
	assert.Equal(t, 2, commits, "each committed pass runs its own callback")
}

func TestScheduler_AfterCommitOrdering(t *testing.T) {
	s := newTestScheduler()
	var order []string
	s.Mount("c", func(rc *RenderContext) any {
		order = append(order, "render")
		rc.AfterCommit(func() { order = append(order, "commit-1") })
		rc.AfterCommit(func() { order = append(order, "commit-2") })
		return nil
	})
	s.Flush()
	assert.Equal(t, []string{"render", "commit-1", "commit-2"}, order)
}

func TestScheduler_RenderAttemptSkipsCommit(t *testing.T) {
	s := newTestScheduler()
	commits := 0
	renders := 0
	c := s.Mount("c", func(rc *RenderContext) any {
		renders++
		rc.AfterCommit(func() { commits++ })
		return nil
	})
	s.Flush()
	require.Equal(t, 1, commits)

	// Speculative attempt: renders, never commits, callbacks dropped.
	s.RenderAttempt(c)
	assert.Equal(t, 2, renders)
	assert.Equal(t, 1, commits)

	// The next committed pass runs only its own callback.
	c.Invalidate()
	s.Flush()
	assert.Equal(t, 3, renders)
	assert.Equal(t, 2, commits)
}

func TestScheduler_RenderNowBypassesQueue(t *testing.T) {
	s := newTestScheduler()
	rendered := 0
	c := s.Mount("c", func(rc *RenderContext) any {
		rendered++
		return nil
	})
	s.Flush()

	c.RenderNow()
	assert.Equal(t, 2, rendered, "RenderNow renders without Flush")
}

func TestScheduler_InvalidationDuringFlushExtendsDrain(t *testing.T) {
	s := newTestScheduler()
	var b *Component
	bRenders := 0
	a := s.Mount("a", func(rc *RenderContext) any {
		return nil
	})
	b = s.Mount("b", func(rc *RenderContext) any {
		bRenders++
		return nil
	})
	s.Flush()

	// a's after-commit invalidates b; a single Flush must reach quiescence.
	aRendered := false
	a.render = func(rc *RenderContext) any {
		if !aRendered {
			aRendered = true
			rc.AfterCommit(func() { b.Invalidate() })
		}
		return nil
	}
	a.Invalidate()
	s.Flush()
	assert.Equal(t, 2, bRenders)
}

func TestScheduler_SlotsPersistAcrossRenders(t *testing.T) {
	s := newTestScheduler()
	var seen []int
	c := s.Mount("c", func(rc *RenderContext) any {
		n := 0
		if v, ok := rc.Slot("n"); ok {
			n = v.(int)
		}
		seen = append(seen, n)
		rc.SetSlot("n", n+1)
		return nil
	})
	s.Flush()
	c.Invalidate()
	s.Flush()
	c.Invalidate()
	s.Flush()
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestScheduler_UnmountDropsPendingAndFutureRenders(t *testing.T) {
	s := newTestScheduler()
	rendered := 0
	c := s.Mount("c", func(rc *RenderContext) any {
		rendered++
		return nil
	})
	s.Flush()

	c.Invalidate()
	c.Unmount()
	s.Flush()
	assert.Equal(t, 1, rendered, "pending render dropped at unmount")

	c.Invalidate()
	s.Flush()
	assert.Equal(t, 1, rendered, "post-unmount invalidation ignored")
}

func TestScheduler_ObserverSeesCommittedPasses(t *testing.T) {
	var events []PassEvent
	s := NewScheduler(
		WithTokenGenerator(NewFixedGenerator("t1", "t2")),
		WithObserver(func(ev PassEvent) { events = append(events, ev) }),
	)
	c := s.Mount("c", func(rc *RenderContext) any { return "out" })
	s.Flush()
	c.Invalidate()
	s.Flush()

	require.Len(t, events, 2)
	assert.Equal(t, PassEvent{Component: "c", Seq: 1, Token: "t1", Output: "out"}, events[0])
	assert.Equal(t, PassEvent{Component: "c", Seq: 2, Token: "t2", Output: "out"}, events[1])
}
