package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/vocab/internal/db"
	"github.com/hpungsan/vocab/internal/errors"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	Word string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	Word    string `json:"word"`
}

// Delete removes a card and its review history.
func Delete(ctx context.Context, database *sql.DB, input DeleteInput) (*DeleteOutput, error) {
	word, err := ValidateWord(input.Word)
	if err != nil {
		return nil, err
	}

	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := db.Delete(ctx, tx, word); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errors.NewInternal(err)
	}

	return &DeleteOutput{Deleted: true, Word: word}, nil
}
