package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/db"
)

// DefaultHistoryLimit caps the review history returned by Fetch.
const DefaultHistoryLimit = 10

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	Word           string
	IncludeHistory bool
	HistoryLimit   int // default: 10
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	card.Record
	History []card.ReviewLog `json:"history,omitempty"`
}

// Fetch retrieves a card by its word.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	word, err := ValidateWord(input.Word)
	if err != nil {
		return nil, err
	}

	c, err := db.GetByWord(ctx, database, word)
	if err != nil {
		return nil, err
	}

	output := &FetchOutput{Record: card.ToRecord(c)}

	if input.IncludeHistory {
		limit := input.HistoryLimit
		if limit <= 0 {
			limit = DefaultHistoryLimit
		}
		history, err := db.ReviewHistory(ctx, database, word, limit)
		if err != nil {
			return nil, err
		}
		output.History = history
	}

	return output, nil
}
