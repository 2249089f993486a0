package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drifa/tandem/internal/journal"
)

// journalPathMustExist creates an empty journal database at path.
func journalPathMustExist(t *testing.T, path string) {
	t.Helper()
	j, err := journal.Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Close())
}

func TestReplayReproducesFinalState(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "run.db")
	_, err := execute(t, "run", "testdata/counter.yaml", "--journal", journalPath)
	require.NoError(t, err)

	out, err := execute(t, "replay", journalPath)
	require.NoError(t, err)
	assert.Equal(t, `{"count":1}`, strings.TrimSpace(out))
}

func TestReplayMissingJournal(t *testing.T) {
	_, err := execute(t, "replay", filepath.Join(t.TempDir(), "nope.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayEmptyJournalFails(t *testing.T) {
	// A journal with no init event cannot seed a replay.
	path := filepath.Join(t.TempDir(), "empty.db")
	journalPathMustExist(t, path)

	_, err := execute(t, "replay", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
