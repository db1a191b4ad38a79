package ops

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/vocab/internal/errors"
	"github.com/hpungsan/vocab/internal/srs"
)

// TestWorkflow_CardLifecycle walks a card from add through review, export and re-import.
func TestWorkflow_CardLifecycle(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	sched := srs.New(nil)
	gen := &fakeGenerator{}

	// Add
	added, err := Add(ctx, database, gen, AddInput{Word: "aprender", Context: "Quiero aprender.", Today: day(2024, 1, 10)})
	require.NoError(t, err)
	require.Equal(t, 1, added.Box)

	// Due today
	due, err := List(ctx, database, ListInput{Due: true, Today: day(2024, 1, 10)})
	require.NoError(t, err)
	require.Len(t, due.Items, 1)

	// Review climbs the boxes
	steps := []struct {
		today    string
		score    int
		wantBox  int
		wantNext string
	}{
		{"2024-01-10", 5, 2, "2024-01-13"},
		{"2024-01-13", 4, 3, "2024-01-20"},
		{"2024-01-20", 3, 3, "2024-01-27"},
		{"2024-01-27", 2, 1, "2024-01-28"},
	}
	for _, s := range steps {
		today, err := srs.ParseDate(s.today)
		require.NoError(t, err)

		out, err := Grade(ctx, database, sched, GradeInput{Word: "aprender", Score: s.score, Today: today})
		require.NoError(t, err)
		assert.Equal(t, s.wantBox, out.BoxAfter, "on %s", s.today)
		assert.Equal(t, s.wantNext, out.NextReview, "on %s", s.today)
	}

	fetched, err := Fetch(ctx, database, FetchInput{Word: "aprender", IncludeHistory: true})
	require.NoError(t, err)
	assert.Len(t, fetched.History, len(steps))
	require.NotNil(t, fetched.LastSeen)
	assert.Equal(t, "2024-01-27", *fetched.LastSeen)

	// Export, delete, re-import
	path := filepath.Join(t.TempDir(), "roundtrip.jsonl")
	exported, err := Export(ctx, database, t.TempDir(), ExportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 1, exported.Count)

	_, err = Delete(ctx, database, DeleteInput{Word: "aprender"})
	require.NoError(t, err)
	_, err = Fetch(ctx, database, FetchInput{Word: "aprender"})
	require.True(t, errors.Is(err, errors.ErrNotFound))

	imported, err := Import(ctx, database, ImportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 1, imported.Imported)

	restored, err := Fetch(ctx, database, FetchInput{Word: "aprender"})
	require.NoError(t, err)
	assert.Equal(t, 1, restored.Box)
	assert.Equal(t, "2024-01-28", restored.NextReview)
	assert.Equal(t, "Quiero aprender.", restored.Context)
	assert.Equal(t, added.TranslationEN, restored.TranslationEN)

	// Known cards leave the review queue
	_, err = MarkKnown(ctx, database, MarkKnownInput{Word: "aprender", Known: true})
	require.NoError(t, err)
	due, err = List(ctx, database, ListInput{Due: true, Today: day(2024, 2, 1)})
	require.NoError(t, err)
	assert.Empty(t, due.Items)

	stats, err := Stats(ctx, database, sched, StatsInput{Today: day(2024, 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.Known)
	assert.Zero(t, stats.DueToday)
}
