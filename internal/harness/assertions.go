package harness

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/drifa/tandem/internal/bridge"
	"github.com/drifa/tandem/internal/scenario"
	"github.com/drifa/tandem/internal/value"
)

// AssertionError is one failed expectation, with enough context to debug
// the run it came from.
type AssertionError struct {
	Type     string       // assertion or step type
	Expected string       // human-readable expected outcome
	Actual   string       // human-readable actual outcome
	Trace    []TraceEvent // the run's trace up to the failure
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nTrace:\n")
	for i, ev := range e.Trace {
		switch ev.Type {
		case "render":
			fmt.Fprintf(&buf, "  [%d] render %s seq=%d token=%s\n", i+1, ev.Component, ev.Seq, ev.Token)
		default:
			fmt.Fprintf(&buf, "  [%d] %s %s %v\n", i+1, ev.Type, ev.Path, ev.Value)
		}
	}
	return buf.String()
}

// evaluateAssertions checks every assertion against the finished run,
// recording failures on the result.
func evaluateAssertions(res *Result, assertions []scenario.Assertion, retained map[string][]*bridge.Wrapper) {
	for _, a := range assertions {
		var err error
		switch a.Type {
		case scenario.AssertRendered:
			err = assertRendered(res, a)
		case scenario.AssertRenderCount:
			err = assertRenderCount(res, a)
		case scenario.AssertStableRef:
			err = assertStableRef(res, a, retained[a.Component])
		case scenario.AssertFinalState:
			err = assertFinalState(res, a)
		case scenario.AssertTraceContains:
			err = assertTraceContains(res, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			res.AddError(err.Error())
		}
	}
}

func assertRendered(res *Result, a scenario.Assertion) error {
	if res.Commits[a.Component] > 0 {
		return nil
	}
	return &AssertionError{
		Type:     scenario.AssertRendered,
		Expected: fmt.Sprintf("component %s committed at least one pass", a.Component),
		Actual:   "no committed passes",
		Trace:    res.Trace,
	}
}

func assertRenderCount(res *Result, a scenario.Assertion) error {
	if got := res.Commits[a.Component]; got != a.Count {
		return &AssertionError{
			Type:     scenario.AssertRenderCount,
			Expected: fmt.Sprintf("component %s committed %d passes", a.Component, a.Count),
			Actual:   fmt.Sprintf("%d passes", got),
			Trace:    res.Trace,
		}
	}
	return nil
}

// assertStableRef checks the wrapper retained on every pass is the same
// pointer: referential stability across renders is the bridge's core
// guarantee.
func assertStableRef(res *Result, a scenario.Assertion, history []*bridge.Wrapper) error {
	if len(history) == 0 {
		return &AssertionError{
			Type:     scenario.AssertStableRef,
			Expected: fmt.Sprintf("component %s retained a wrapper", a.Component),
			Actual:   "no passes retained anything",
			Trace:    res.Trace,
		}
	}
	first := history[0]
	for i, w := range history {
		if w != first {
			return &AssertionError{
				Type:     scenario.AssertStableRef,
				Expected: fmt.Sprintf("component %s retained the same wrapper on every pass", a.Component),
				Actual:   fmt.Sprintf("pass %d retained a different wrapper", i+1),
				Trace:    res.Trace,
			}
		}
	}
	return nil
}

func assertFinalState(res *Result, a scenario.Assertion) error {
	if matchSubset(res.FinalState, a.Expect) {
		return nil
	}
	actual, err := value.MarshalCanonical(res.FinalState)
	if err != nil {
		actual = []byte(fmt.Sprintf("%v", res.FinalState))
	}
	return &AssertionError{
		Type:     scenario.AssertFinalState,
		Expected: fmt.Sprintf("final state containing %v", a.Expect),
		Actual:   string(actual),
		Trace:    res.Trace,
	}
}

// assertTraceContains scans for one event matching the expected fields
// (subset semantics: unlisted fields are ignored).
func assertTraceContains(res *Result, a scenario.Assertion) error {
	for _, ev := range res.Trace {
		if matchSubset(ev.toMap(), a.Event) {
			return nil
		}
	}
	return &AssertionError{
		Type:     scenario.AssertTraceContains,
		Expected: fmt.Sprintf("trace event matching %v", a.Event),
		Actual:   "not found in trace",
		Trace:    res.Trace,
	}
}

// matchSubset reports whether actual contains expected: objects match when
// every expected field matches (extra actual fields are ignored), arrays
// match elementwise at equal length, leaves compare by canonical JSON so
// store values and YAML literals agree on numerics and strings.
func matchSubset(actual, expected any) bool {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range exp {
			av, present := act[k]
			if !present || !matchSubset(av, v) {
				return false
			}
		}
		return true
	case []any:
		act, ok := actual.([]any)
		if !ok || len(act) != len(exp) {
			return false
		}
		for i := range exp {
			if !matchSubset(act[i], exp[i]) {
				return false
			}
		}
		return true
	default:
		return leafEqual(actual, expected)
	}
}

func leafEqual(a, b any) bool {
	av, err := value.MarshalCanonical(a)
	if err != nil {
		return false
	}
	bv, err := value.MarshalCanonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(av, bv)
}
