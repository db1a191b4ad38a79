package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/errors"
)

// Store binds the schedule queries to one database handle.
// It is what the review session and the grade operation consume.
type Store struct {
	db *sql.DB
}

// NewStore wraps database.
func NewStore(database *sql.DB) *Store {
	return &Store{db: database}
}

// GetCardsDue implements review.Store.
func (s *Store) GetCardsDue(ctx context.Context, ref time.Time, excludeKnown bool) ([]card.Card, error) {
	return GetCardsDue(ctx, s.db, ref, excludeKnown)
}

// GetCardBox implements review.Store.
func (s *Store) GetCardBox(ctx context.Context, word string) (int, error) {
	return GetCardBox(ctx, s.db, word)
}

// SaveReview implements review.Store. The schedule update and the log entry
// commit together or not at all.
func (s *Store) SaveReview(ctx context.Context, entry card.ReviewLog, lastSeen time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewWriteFailed(entry.Word, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := UpsertCardSchedule(ctx, tx, entry.Word, entry.BoxAfter, entry.NextReview, lastSeen); err != nil {
		return err
	}
	if err := RecordReview(ctx, tx, entry); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewWriteFailed(entry.Word, err)
	}
	return nil
}
