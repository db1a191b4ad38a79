package ops

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/hpungsan/vocab/internal/db"
	"github.com/hpungsan/vocab/internal/errors"
	"github.com/hpungsan/vocab/internal/review"
	"github.com/hpungsan/vocab/internal/srs"
)

// GradeInput contains parameters for the Grade operation.
type GradeInput struct {
	Word  string
	Score int       // 1..5
	Today time.Time // default: now
	Now   time.Time // review instant, default: time.Now()
}

// GradeOutput describes the applied review.
type GradeOutput struct {
	Word       string `json:"word"`
	Score      int    `json:"score"`
	BoxBefore  int    `json:"box_before"`
	BoxAfter   int    `json:"box_after"`
	NextReview string `json:"next_review"`
}

// Grade applies one review outside an interactive session.
// It follows the session's update rules: the stored box is re-read, then
// the schedule and the review log entry are saved together.
func Grade(ctx context.Context, database *sql.DB, scheduler *srs.Scheduler, input GradeInput) (*GradeOutput, error) {
	word, err := ValidateWord(input.Word)
	if err != nil {
		return nil, err
	}

	score := srs.Score(input.Score)
	if !score.Valid() {
		return nil, errors.NewInvalidOutcome(strconv.Itoa(input.Score))
	}

	today := resolveToday(input.Today)
	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	tr, err := review.Apply(ctx, db.NewStore(database), scheduler, word, score, today, now, review.NewULID)
	if err != nil {
		return nil, err
	}

	return &GradeOutput{
		Word:       word,
		Score:      int(score),
		BoxBefore:  tr.From,
		BoxAfter:   tr.To,
		NextReview: srs.FormatDate(tr.NextReview),
	}, nil
}
