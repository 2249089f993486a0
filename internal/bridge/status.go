package bridge

import "sync/atomic"

// renderStatus is the render-phase flag for one call site.
//
// Armed synchronously at the start of every render attempt, including
// repeated attempts before a commit, and disarmed by the after-commit
// callback. If a render is abandoned the flag stays armed until the next
// committed pass disarms it; reads in that window route to the last bound
// snapshot.
type renderStatus struct {
	armed atomic.Bool
}

func (s *renderStatus) arm()            { s.armed.Store(true) }
func (s *renderStatus) disarm()         { s.armed.Store(false) }
func (s *renderStatus) rendering() bool { return s.armed.Load() }
