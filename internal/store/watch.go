package store

// Options configures a subscription.
type Options struct {
	// Sync asks the consumer to apply change notifications synchronously
	// instead of batching them. The store itself always delivers callbacks
	// synchronously on the mutating goroutine; Sync is carried opaquely for
	// the scheduling layer to honor.
	Sync bool
}

// pathKey identifies one read: a composite node plus the key (or decimal
// index, or the length pseudo-key) read from it.
type pathKey struct {
	node Node
	key  string
}

// Subscription tracks the paths a consumer read during its last pass and
// fires onChange when a mutation hits one of them.
//
// The read set is rebuilt every pass: Begin (or Snapshot) clears it, the
// consumer records reads while it runs, and mutations arriving afterwards
// are matched against the completed set. A subscription with an empty set
// never fires; Touch marks the subscription as deliberately empty so that a
// zero-read pass is a valid registered state rather than a mistake.
type Subscription struct {
	g        *Graph
	opts     Options
	onChange func()
	affected map[pathKey]struct{}
	touched  bool
	closed   bool
}

// Watch registers a subscription on the graph. onChange fires synchronously
// on the mutating goroutine whenever a recorded path changes; it must not
// block. Callers decide how to schedule the actual work (see internal/host).
func Watch(g *Graph, onChange func(), opts Options) *Subscription {
	sub := &Subscription{
		g:        g,
		opts:     opts,
		onChange: onChange,
		affected: make(map[pathKey]struct{}),
	}
	g.mu.Lock()
	g.subs = append(g.subs, sub)
	g.mu.Unlock()
	return sub
}

// Snapshot begins a new pass: the recorded read set is cleared and a fresh
// structurally-shared snapshot of root is returned. All reads of the pass
// observe this snapshot instance even if the graph mutates mid-pass.
func (s *Subscription) Snapshot(root Node) Snap {
	s.g.mu.Lock()
	clear(s.affected)
	s.touched = false
	snap := root.snapshotLocked(make(map[Node]Snap))
	s.g.mu.Unlock()
	return snap
}

// RecordRead marks (n, key) as read during the current pass.
func (s *Subscription) RecordRead(n Node, key string) {
	s.g.mu.Lock()
	if !s.closed {
		s.affected[pathKey{node: n, key: key}] = struct{}{}
	}
	s.g.mu.Unlock()
}

// RecordLen marks a length read of n during the current pass.
func (s *Subscription) RecordLen(n Node) {
	s.RecordRead(n, lengthKey)
}

// Touch registers the marker read: the pass is complete even if nothing else
// was recorded. A touched-but-empty subscription stays registered and simply
// matches no mutation.
func (s *Subscription) Touch() {
	s.g.mu.Lock()
	s.touched = true
	s.g.mu.Unlock()
}

// Touched reports whether the marker was read since the last Snapshot.
func (s *Subscription) Touched() bool {
	s.g.mu.Lock()
	defer s.g.mu.Unlock()
	return s.touched
}

// Options returns the options the subscription was created with.
func (s *Subscription) Options() Options { return s.opts }

// Close deregisters the subscription. Closed subscriptions never fire again.
func (s *Subscription) Close() {
	s.g.mu.Lock()
	s.closed = true
	for i, sub := range s.g.subs {
		if sub == s {
			s.g.subs = append(s.g.subs[:i], s.g.subs[i+1:]...)
			break
		}
	}
	s.g.mu.Unlock()
}
