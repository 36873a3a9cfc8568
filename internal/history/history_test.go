package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantmind-br/fscore/internal/score"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := New(ctx, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestRecordAndListRuns(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	results := []score.Result{
		{Path: "a.txt", Score: 0.5},
		{Path: "b.txt", Score: 1.0},
	}

	runID, err := db.Record(ctx, "size", 3, results)
	require.NoError(t, err)
	assert.Greater(t, runID, int64(0))

	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, "size", runs[0].Algorithm)
	assert.Equal(t, 3, runs[0].Requested)
	assert.Equal(t, 2, runs[0].Scored)
}

func TestEntriesPreserveOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	results := []score.Result{
		{Path: "z.txt", Score: 0.25},
		{Path: "a.txt", Score: 0.75},
	}

	runID, err := db.Record(ctx, "words", 2, results)
	require.NoError(t, err)

	entries, err := db.Entries(ctx, runID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "z.txt", entries[0].Path)
	assert.InDelta(t, 0.25, entries[0].Score, 1e-9)
	assert.Equal(t, "a.txt", entries[1].Path)
	assert.InDelta(t, 0.75, entries[1].Score, 1e-9)
}

func TestListRunsNewestFirstWithLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first, err := db.Record(ctx, "size", 1, []score.Result{{Path: "a", Score: 0.1}})
	require.NoError(t, err)
	second, err := db.Record(ctx, "lines", 1, []score.Result{{Path: "b", Score: 0.2}})
	require.NoError(t, err)

	runs, err := db.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, second, runs[0].RunID)

	runs, err = db.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].RunID)
	assert.Equal(t, first, runs[1].RunID)
}

func TestClear(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	runID, err := db.Record(ctx, "size", 1, []score.Result{{Path: "a", Score: 0.1}})
	require.NoError(t, err)

	require.NoError(t, db.Clear(ctx))

	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	// Cascade removes entries with their run.
	entries, err := db.Entries(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordEmptyResults(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	runID, err := db.Record(ctx, "size", 2, nil)
	require.NoError(t, err)

	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 0, runs[0].Scored)

	entries, err := db.Entries(ctx, runID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
