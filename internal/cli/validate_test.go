package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateValidScenario(t *testing.T) {
	out, err := execute(t, "validate", "testdata/counter.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestValidateValidScenarioJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", "testdata/counter.yaml")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestValidateInvalidScenario(t *testing.T) {
	out, err := execute(t, "validate", "testdata/invalid.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗")
}

func TestValidateMissingFile(t *testing.T) {
	_, err := execute(t, "validate", "testdata/nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
