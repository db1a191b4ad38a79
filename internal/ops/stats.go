package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/vocab/internal/db"
	"github.com/hpungsan/vocab/internal/srs"
)

// StatsInput contains parameters for the Stats operation.
type StatsInput struct {
	Today time.Time // default: now
}

// StatsOutput summarizes the collection.
type StatsOutput struct {
	db.Stats
	Today     string            `json:"today"`
	Intervals srs.IntervalTable `json:"intervals"`
}

// Stats reports totals, due cards, box distribution and review counts.
func Stats(ctx context.Context, database *sql.DB, scheduler *srs.Scheduler, input StatsInput) (*StatsOutput, error) {
	today := resolveToday(input.Today)

	stats, err := db.GetStats(ctx, database, today)
	if err != nil {
		return nil, err
	}

	return &StatsOutput{
		Stats:     *stats,
		Today:     srs.FormatDate(today),
		Intervals: scheduler.Intervals(),
	}, nil
}
