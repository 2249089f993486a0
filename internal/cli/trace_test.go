package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceOutputsCanonicalJSON(t *testing.T) {
	out, err := execute(t, "trace", "testdata/counter.yaml")
	require.NoError(t, err)

	var trace map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &trace))
	assert.Equal(t, "counter", trace["scenario_name"])

	events, ok := trace["trace"].([]any)
	require.True(t, ok)
	assert.Len(t, events, 3) // render, mutate, render
}

func TestTraceDeterministic(t *testing.T) {
	first, err := execute(t, "trace", "testdata/counter.yaml")
	require.NoError(t, err)
	second, err := execute(t, "trace", "testdata/counter.yaml")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTraceFailingScenarioStillPrints(t *testing.T) {
	out, err := execute(t, "trace", "testdata/failing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var trace map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &trace))
	assert.Equal(t, "failing", trace["scenario_name"])
}
