package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drifa/tandem/internal/scenario"
	"github.com/drifa/tandem/internal/value"
)

func TestMatchSubset(t *testing.T) {
	tests := []struct {
		name     string
		actual   any
		expected any
		want     bool
	}{
		{"equal leaves", 1, 1, true},
		{"store leaf vs yaml leaf", value.Int(1), 1, true},
		{"float and int forms agree", value.Float(2), 2, true},
		{"different leaves", 1, 2, false},
		{"subset object", map[string]any{"a": 1, "b": 2}, map[string]any{"a": 1}, true},
		{"missing key", map[string]any{"a": 1}, map[string]any{"b": 1}, false},
		{"nested subset", map[string]any{"u": map[string]any{"name": value.String("ada"), "role": value.String("admin")}},
			map[string]any{"u": map[string]any{"name": "ada"}}, true},
		{"array exact length", []any{1, 2}, []any{1, 2}, true},
		{"array length mismatch", []any{1, 2}, []any{1}, false},
		{"array element mismatch", []any{1, 2}, []any{1, 3}, false},
		{"object vs leaf", map[string]any{"a": 1}, 1, false},
		{"nil matches null", nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchSubset(tt.actual, tt.expected))
		})
	}
}

func TestAssertTraceContainsFound(t *testing.T) {
	res := NewResult()
	res.Trace = []TraceEvent{
		{Type: "mutate", Path: "count", Value: 1},
		{Type: "render", Component: "Counter", Seq: 2, Token: "pass-2"},
	}

	err := assertTraceContains(res, scenario.Assertion{
		Type:  scenario.AssertTraceContains,
		Event: map[string]any{"type": "render", "component": "Counter"},
	})
	assert.NoError(t, err)
}

func TestAssertTraceContainsNotFound(t *testing.T) {
	res := NewResult()
	res.Trace = []TraceEvent{
		{Type: "render", Component: "Counter", Seq: 1, Token: "pass-1"},
	}

	err := assertTraceContains(res, scenario.Assertion{
		Type:  scenario.AssertTraceContains,
		Event: map[string]any{"type": "render", "component": "Ghost"},
	})
	require.Error(t, err)

	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, scenario.AssertTraceContains, ae.Type)
	assert.Equal(t, "not found in trace", ae.Actual)
}

func TestAssertTraceContainsSubsetOfEventFields(t *testing.T) {
	// The event carries seq and token; the assertion only names the type.
	res := NewResult()
	res.Trace = []TraceEvent{
		{Type: "render", Component: "Counter", Seq: 1, Token: "pass-1",
			Output: map[string]any{"count": value.Int(0)}},
	}

	err := assertTraceContains(res, scenario.Assertion{
		Type:  scenario.AssertTraceContains,
		Event: map[string]any{"output": map[string]any{"count": 0}},
	})
	assert.NoError(t, err)
}

func TestAssertRenderCountMismatch(t *testing.T) {
	res := NewResult()
	res.Commits["Counter"] = 3

	err := assertRenderCount(res, scenario.Assertion{
		Type:      scenario.AssertRenderCount,
		Component: "Counter",
		Count:     2,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committed 2 passes")
	assert.Contains(t, err.Error(), "3 passes")
}

func TestAssertRenderedNoCommits(t *testing.T) {
	res := NewResult()

	err := assertRendered(res, scenario.Assertion{
		Type:      scenario.AssertRendered,
		Component: "Counter",
	})
	require.Error(t, err)
}

func TestAssertFinalStateSubset(t *testing.T) {
	res := NewResult()
	res.FinalState = map[string]any{
		"count": value.Int(1),
		"meta":  map[string]any{"rev": value.Int(7)},
	}

	assert.NoError(t, assertFinalState(res, scenario.Assertion{
		Type:   scenario.AssertFinalState,
		Expect: map[string]any{"count": 1},
	}))

	err := assertFinalState(res, scenario.Assertion{
		Type:   scenario.AssertFinalState,
		Expect: map[string]any{"count": 2},
	})
	require.Error(t, err)
}

func TestAssertionErrorIncludesTrace(t *testing.T) {
	ae := &AssertionError{
		Type:     "render_count",
		Expected: "2 passes",
		Actual:   "3 passes",
		Trace: []TraceEvent{
			{Type: "render", Component: "Counter", Seq: 1, Token: "pass-1"},
			{Type: "mutate", Path: "count", Value: 1},
		},
	}

	msg := ae.Error()
	assert.Contains(t, msg, "Assertion failed: render_count")
	assert.Contains(t, msg, "Expected: 2 passes")
	assert.Contains(t, msg, "Actual: 3 passes")
	assert.Contains(t, msg, "render Counter seq=1 token=pass-1")
	assert.Contains(t, msg, "mutate count 1")
}
