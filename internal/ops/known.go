package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/db"
)

// MarkKnownInput contains parameters for the MarkKnown operation.
type MarkKnownInput struct {
	Word  string
	Known bool
}

// MarkKnownOutput contains the card after the change.
type MarkKnownOutput struct {
	card.Record
}

// MarkKnown sets or clears a card's known flag. Known cards are left out of review.
func MarkKnown(ctx context.Context, database *sql.DB, input MarkKnownInput) (*MarkKnownOutput, error) {
	word, err := ValidateWord(input.Word)
	if err != nil {
		return nil, err
	}

	if err := db.SetKnown(ctx, database, word, input.Known); err != nil {
		return nil, err
	}

	c, err := db.GetByWord(ctx, database, word)
	if err != nil {
		return nil, err
	}
	return &MarkKnownOutput{Record: card.ToRecord(c)}, nil
}
