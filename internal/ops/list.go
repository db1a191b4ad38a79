package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/db"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Due          bool      // only cards due today
	IncludeKnown bool      // include cards marked known
	Limit        int       // default: 20, max: 500
	Offset       int       // default: 0
	Today        time.Time // default: now
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []card.Record `json:"items"`
	Pagination Pagination    `json:"pagination"`
	Sort       string        `json:"sort"`
}

// List retrieves cards with pagination.
// Due listings follow review order; full listings are alphabetical.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	limit := clampLimit(input.Limit)
	offset := max(input.Offset, 0)

	filter := db.ListFilter{
		IncludeKnown: input.IncludeKnown,
		Limit:        limit,
		Offset:       offset,
	}
	sort := "word_asc"
	if input.Due {
		today := resolveToday(input.Today)
		filter.DueOn = &today
		sort = "next_review_asc,box_asc,word_asc"
	}

	cards, total, err := db.List(ctx, database, filter)
	if err != nil {
		return nil, err
	}

	items := toRecords(cards)
	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: sort,
	}, nil
}
