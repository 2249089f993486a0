package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenInMemory(t *testing.T) {
	j, err := Open(":memory:")
	require.NoError(t, err)
	defer j.Close()

	seq, err := j.LastSeq(context.Background())
	require.NoError(t, err)
	assert.Zero(t, seq)
}

func TestAppendAndReadBack(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, Event{Seq: 1, Kind: KindInit, Value: `{"count":0}`}))
	require.NoError(t, j.Append(ctx, Event{Seq: 2, Kind: KindSet, Path: "count", Value: `1`}))
	require.NoError(t, j.Append(ctx, Event{Seq: 3, Kind: KindRender, Component: "Counter", PassToken: "pass-1"}))

	events, err := j.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, Event{Seq: 1, Kind: KindInit, Value: `{"count":0}`}, events[0])
	assert.Equal(t, Event{Seq: 2, Kind: KindSet, Path: "count", Value: `1`}, events[1])
	assert.Equal(t, Event{Seq: 3, Kind: KindRender, Component: "Counter", PassToken: "pass-1"}, events[2])

	seq, err := j.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
}

func TestAppendRejectsDuplicateSeq(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, Event{Seq: 1, Kind: KindInit, Value: `{}`}))
	assert.Error(t, j.Append(ctx, Event{Seq: 1, Kind: KindInit, Value: `{}`}))
}

func TestAppendRejectsUnknownKind(t *testing.T) {
	j := openTestJournal(t)

	err := j.Append(context.Background(), Event{Seq: 1, Kind: "bogus"})
	assert.Error(t, err)
}

func TestEventsOrderedBySeq(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	// Out-of-order inserts still read back in seq order.
	require.NoError(t, j.Append(ctx, Event{Seq: 3, Kind: KindRender, Component: "A", PassToken: "pass-1"}))
	require.NoError(t, j.Append(ctx, Event{Seq: 1, Kind: KindInit, Value: `{}`}))
	require.NoError(t, j.Append(ctx, Event{Seq: 2, Kind: KindSet, Path: "x", Value: `true`}))

	events, err := j.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, int64(2), events[1].Seq)
	assert.Equal(t, int64(3), events[2].Seq)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(ctx, Event{Seq: 1, Kind: KindInit, Value: `{"a":1}`}))
	require.NoError(t, j.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	events, err := j2.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, KindInit, events[0].Kind)
}
