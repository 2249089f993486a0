package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunPassingScenario(t *testing.T) {
	out, err := execute(t, "run", "testdata/counter.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ counter passed")
}

func TestRunPassingScenarioJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "run", "testdata/counter.yaml")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var summary RunSummary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, "counter", summary.Scenario)
	assert.True(t, summary.Pass)
	assert.Equal(t, 2, summary.Commits["Counter"])
}

func TestRunFailingScenario(t *testing.T) {
	out, err := execute(t, "run", "testdata/failing.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ failing failed")
}

func TestRunMissingScenario(t *testing.T) {
	_, err := execute(t, "run", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRunWithJournal(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "run.db")
	_, err := execute(t, "run", "testdata/counter.yaml", "--journal", journalPath)
	require.NoError(t, err)
	assert.FileExists(t, journalPath)
}
