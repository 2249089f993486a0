// Package harness executes declarative scenarios against a real store,
// scheduler, and bridge, producing deterministic traces.
//
// A run mounts every component the scenario declares, flushes the initial
// renders, then scripts mutations, flushes, callbacks, and expectations in
// order. Determinism comes from the single-writer scheduler, sequential
// pass tokens ("pass-1", "pass-2", ...), and canonical JSON serialization
// of all traced values, which is what makes golden-file comparison viable.
package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/drifa/tandem/internal/bridge"
	"github.com/drifa/tandem/internal/host"
	"github.com/drifa/tandem/internal/journal"
	"github.com/drifa/tandem/internal/scenario"
	"github.com/drifa/tandem/internal/store"
	"github.com/drifa/tandem/internal/value"
)

// Config adjusts a scenario run.
type Config struct {
	// Logger receives debug output. Nil discards.
	Logger *slog.Logger

	// Journal, when set, receives init, mutation, and render events so the
	// run can later be replayed.
	Journal *journal.Journal
}

// Run executes a scenario with default configuration.
func Run(sc *scenario.Scenario) (*Result, error) {
	return RunWith(sc, Config{})
}

// RunWith executes a scenario.
//
// Infrastructure failures (bad initial state, unresolvable mutation paths,
// journal errors) return an error. Expectation and assertion failures do
// not: they are recorded on the result with Pass set to false.
func RunWith(sc *scenario.Scenario, cfg Config) (*Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	g := store.New()
	root, err := g.ObjectOf(sc.State)
	if err != nil {
		return nil, fmt.Errorf("failed to build initial state: %w", err)
	}

	r := &runner{
		sc:         sc,
		root:       root,
		result:     NewResult(),
		components: make(map[string]*host.Component),
		retained:   make(map[string][]*bridge.Wrapper),
		logger:     logger,
		journal:    cfg.Journal,
		ctx:        context.Background(),
	}
	r.sched = host.NewScheduler(
		host.WithTokenGenerator(host.NewSequenceGenerator()),
		host.WithLogger(logger),
		host.WithObserver(r.observePass),
	)

	if err := r.journalInit(); err != nil {
		return nil, err
	}

	for _, spec := range sc.Components {
		r.mount(spec)
	}
	// Initial renders commit in mount order before the first step runs.
	r.sched.Flush()

	for i, step := range sc.Steps {
		if err := r.runStep(i, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}

	exported, err := store.ExportNode(root)
	if err != nil {
		return nil, fmt.Errorf("failed to export final state: %w", err)
	}
	r.result.FinalState = exported.(map[string]any)

	evaluateAssertions(r.result, sc.Assertions, r.retained)
	return r.result, nil
}

// runner holds the live collaborators for one scenario execution.
type runner struct {
	sc         *scenario.Scenario
	root       *store.Object
	sched      *host.Scheduler
	result     *Result
	components map[string]*host.Component

	// retained records, per component, the wrapper obtained at the retain
	// path on each render pass. Stable-reference assertions check that all
	// entries are the same pointer.
	retained map[string][]*bridge.Wrapper

	logger  *slog.Logger
	journal *journal.Journal
	jseq    int64
	ctx     context.Context
}

// observePass turns a committed pass into a trace (and journal) event.
func (r *runner) observePass(ev host.PassEvent) {
	out, _ := ev.Output.(map[string]any)
	r.result.Trace = append(r.result.Trace, TraceEvent{
		Type:      "render",
		Component: ev.Component,
		Output:    out,
		Seq:       ev.Seq,
		Token:     ev.Token,
	})
	r.result.Commits[ev.Component]++
	r.journalRender(ev)
}

// mount registers one scenario component on the scheduler. The render
// function binds the root through the bridge, reads the declared paths, and
// renders them as a path/value map.
func (r *runner) mount(spec scenario.Component) {
	c := r.sched.Mount(spec.Name, func(rc *host.RenderContext) any {
		view := bridge.Use(rc, r.root, bridge.Options{Sync: r.sc.Sync})

		out := make(map[string]any, len(spec.Reads))
		for _, p := range spec.Reads {
			out[p] = r.readPath(view, p)
		}

		if spec.Retain != "" {
			w, _ := walkWrapper(view, spec.Retain)
			r.retained[spec.Name] = append(r.retained[spec.Name], w)
		}
		return out
	})
	r.components[spec.Name] = c
}

// readPath reads one declared path through the wrapper, registering the
// traversed keys as render dependencies, and returns a serializable value.
// The pseudo-segment "length" reads the node's length; paths that run off
// the graph read as nil.
func (r *runner) readPath(view *bridge.Wrapper, path string) any {
	var cur any = view
	for _, seg := range splitPath(path) {
		w, ok := cur.(*bridge.Wrapper)
		if !ok {
			return nil
		}
		if seg == "length" {
			cur = w.Len()
			continue
		}
		cur = w.Get(seg)
	}
	return materialize(cur, make(map[*bridge.Wrapper]bool))
}

// materialize converts a wrapper read result into plain map/slice/leaf
// shapes canonical marshalling accepts. Composite results are read element
// by element through the wrapper, so every field becomes a dependency.
func materialize(v any, visited map[*bridge.Wrapper]bool) any {
	w, ok := v.(*bridge.Wrapper)
	if !ok {
		return v
	}
	if visited[w] {
		return "(cycle)"
	}
	visited[w] = true
	defer delete(visited, w)

	if w.IsArray() {
		n := w.Len()
		out := make([]any, n)
		for i := 0; i < n; i++ {
			out[i] = materialize(w.Index(i), visited)
		}
		return out
	}
	keys := w.Keys()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		out[k] = materialize(w.Get(k), visited)
	}
	return out
}

// walkWrapper resolves a path to the composite wrapper living there.
func walkWrapper(view *bridge.Wrapper, path string) (*bridge.Wrapper, bool) {
	var cur any = view
	for _, seg := range splitPath(path) {
		w, ok := cur.(*bridge.Wrapper)
		if !ok {
			return nil, false
		}
		cur = w.Get(seg)
	}
	w, ok := cur.(*bridge.Wrapper)
	return w, ok
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func (r *runner) runStep(index int, st scenario.Step) error {
	r.logger.Debug("step", "index", index, "op", st.Op, "path", st.Path)

	switch st.Op {
	case scenario.OpFlush:
		r.sched.Flush()
		return nil

	case scenario.OpMutate:
		r.traceMutation(st.Op, st.Path, st.Value)
		if err := r.journalMutation(journal.KindSet, st.Path, st.Value); err != nil {
			return err
		}
		return r.applySet(st.Path, st.Value)

	case scenario.OpSetIndex:
		r.traceMutation(st.Op, st.Path, st.Value)
		if err := r.journalMutation(journal.KindSetIndex, st.Path, st.Value); err != nil {
			return err
		}
		parent, last, err := store.ResolveParent(r.root, st.Path)
		if err != nil {
			return err
		}
		arr, ok := parent.(*store.Array)
		if !ok {
			return fmt.Errorf("set_index: parent of %q is not an array", st.Path)
		}
		i, err := strconv.Atoi(last)
		if err != nil {
			return fmt.Errorf("set_index: index %q: %w", last, err)
		}
		return arr.SetIndex(i, st.Value)

	case scenario.OpAppend:
		r.traceMutation(st.Op, st.Path, st.Value)
		if err := r.journalMutation(journal.KindAppend, st.Path, st.Value); err != nil {
			return err
		}
		node, err := store.ResolveNode(r.root, st.Path)
		if err != nil {
			return err
		}
		arr, ok := node.(*store.Array)
		if !ok {
			return fmt.Errorf("append: %q is not an array", st.Path)
		}
		return arr.Append(st.Value)

	case scenario.OpDelete:
		r.traceMutation(st.Op, st.Path, nil)
		if err := r.journalMutation(journal.KindDelete, st.Path, nil); err != nil {
			return err
		}
		parent, last, err := store.ResolveParent(r.root, st.Path)
		if err != nil {
			return err
		}
		obj, ok := parent.(*store.Object)
		if !ok {
			return fmt.Errorf("delete: parent of %q is not an object", st.Path)
		}
		obj.Delete(last)
		return nil

	case scenario.OpRender:
		r.components[st.Component].RenderNow()
		return nil

	case scenario.OpCallback:
		return r.runCallback(st)

	case scenario.OpExpect:
		r.runExpect(st)
		return nil

	default:
		return fmt.Errorf("unknown op %q", st.Op)
	}
}

// applySet writes a value at a path, dispatching on the parent's kind.
func (r *runner) applySet(path string, v any) error {
	parent, last, err := store.ResolveParent(r.root, path)
	if err != nil {
		return err
	}
	switch p := parent.(type) {
	case *store.Object:
		return p.Set(last, v)
	case *store.Array:
		i, err := strconv.Atoi(last)
		if err != nil {
			return fmt.Errorf("mutate: array index %q: %w", last, err)
		}
		return p.SetIndex(i, v)
	default:
		return fmt.Errorf("mutate: unknown parent variant %T", parent)
	}
}

// runCallback writes through a component's retained wrapper, the post-commit
// write path a real event handler would take.
func (r *runner) runCallback(st scenario.Step) error {
	history := r.retained[st.Component]
	if len(history) == 0 {
		return fmt.Errorf("callback: component %q has not rendered", st.Component)
	}
	w := history[len(history)-1]
	if w == nil {
		return fmt.Errorf("callback: component %q retained nothing", st.Component)
	}

	r.result.Trace = append(r.result.Trace, TraceEvent{
		Type:      "callback",
		Component: st.Component,
		Path:      st.Path,
		Value:     st.Value,
	})

	var spec scenario.Component
	for _, c := range r.sc.Components {
		if c.Name == st.Component {
			spec = c
		}
	}
	if err := r.journalMutation(journal.KindSet, spec.Retain+"/"+st.Path, st.Value); err != nil {
		return err
	}

	segs := splitPath(st.Path)
	last := segs[len(segs)-1]
	if len(segs) > 1 {
		parentPath := st.Path[:len(st.Path)-len(last)-1]
		var ok bool
		w, ok = walkWrapper(w, parentPath)
		if !ok {
			return fmt.Errorf("callback: path %q does not reach a composite", parentPath)
		}
	}
	return w.Set(last, st.Value)
}

// runExpect subset-matches a component's last render output. Mismatches are
// recorded as failures, not run errors.
func (r *runner) runExpect(st scenario.Step) {
	actual, _ := r.components[st.Component].LastOutput().(map[string]any)
	for path, want := range st.Output {
		got, ok := actual[path]
		if !ok || !matchSubset(got, want) {
			r.result.AddError((&AssertionError{
				Type:     "expect",
				Expected: fmt.Sprintf("component %s output %q = %v", st.Component, path, want),
				Actual:   fmt.Sprintf("%v", got),
				Trace:    r.result.Trace,
			}).Error())
		}
	}
}

func (r *runner) traceMutation(op, path string, v any) {
	r.result.Trace = append(r.result.Trace, TraceEvent{Type: op, Path: path, Value: v})
}

func (r *runner) journalInit() error {
	if r.journal == nil {
		return nil
	}
	state, err := value.MarshalCanonical(r.sc.State)
	if err != nil {
		return fmt.Errorf("failed to serialize initial state: %w", err)
	}
	r.jseq++
	return r.journal.Append(r.ctx, journal.Event{
		Seq:   r.jseq,
		Kind:  journal.KindInit,
		Value: string(state),
	})
}

func (r *runner) journalMutation(kind, path string, v any) error {
	if r.journal == nil {
		return nil
	}
	ev := journal.Event{Kind: kind, Path: path}
	if kind != journal.KindDelete {
		data, err := value.MarshalCanonical(v)
		if err != nil {
			return fmt.Errorf("failed to serialize %s value: %w", kind, err)
		}
		ev.Value = string(data)
	}
	r.jseq++
	ev.Seq = r.jseq
	return r.journal.Append(r.ctx, ev)
}

func (r *runner) journalRender(ev host.PassEvent) {
	if r.journal == nil {
		return
	}
	r.jseq++
	err := r.journal.Append(r.ctx, journal.Event{
		Seq:       r.jseq,
		Kind:      journal.KindRender,
		Component: ev.Component,
		PassToken: ev.Token,
	})
	if err != nil {
		// Render events are trace-only; a journal hiccup here should not
		// abort the pass that already committed.
		r.logger.Error("failed to journal render pass", "component", ev.Component, "error", err)
	}
}
