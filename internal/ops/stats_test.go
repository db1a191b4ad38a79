package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/vocab/internal/srs"
)

func TestStats(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	seedCard(t, database, "uno", 1, day(2024, 1, 10))
	seedCard(t, database, "dos", 2, day(2024, 1, 9))
	seedCard(t, database, "tres", 2, day(2024, 1, 20))
	seedCard(t, database, "cuatro", 5, day(2024, 1, 1))
	_, err := MarkKnown(ctx, database, MarkKnownInput{Word: "cuatro", Known: true})
	require.NoError(t, err)

	sched := srs.New(nil)
	out, err := Stats(ctx, database, sched, StatsInput{Today: day(2024, 1, 10)})
	require.NoError(t, err)

	assert.Equal(t, 4, out.Total)
	assert.Equal(t, 1, out.Known)
	assert.Equal(t, 2, out.DueToday)
	assert.Equal(t, map[int]int{1: 1, 2: 2, 3: 0, 4: 0, 5: 1}, out.ByBox)
	assert.Equal(t, 0, out.Reviews)
	assert.Equal(t, "2024-01-10", out.Today)
	assert.Equal(t, srs.DefaultIntervals(), out.Intervals)
}

func TestStats_CountsReviews(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	seedCard(t, database, "uno", 1, day(2024, 1, 10))

	sched := srs.New(nil)
	_, err := Grade(ctx, database, sched, GradeInput{Word: "uno", Score: 4, Today: day(2024, 1, 10)})
	require.NoError(t, err)

	out, err := Stats(ctx, database, sched, StatsInput{Today: day(2024, 1, 10)})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Reviews)
	assert.Equal(t, 0, out.DueToday)
	assert.Equal(t, 1, out.ByBox[2])
}
