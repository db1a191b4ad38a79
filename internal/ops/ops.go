package ops

import (
	"time"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/errors"
	"github.com/hpungsan/vocab/internal/srs"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// ValidateWord trims and checks a word argument.
func ValidateWord(word string) (string, error) {
	cleaned := card.CleanWord(word)
	if cleaned == "" {
		return "", errors.NewInvalidRequest("word is required")
	}
	return cleaned, nil
}

// resolveToday returns the calendar date of t, or of now if t is zero.
func resolveToday(t time.Time) time.Time {
	if t.IsZero() {
		t = time.Now()
	}
	return srs.Day(t)
}

// clampLimit applies list limit defaults and bounds.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}

// toRecords converts cards to their JSON records, never returning nil.
func toRecords(cards []card.Card) []card.Record {
	records := make([]card.Record, 0, len(cards))
	for i := range cards {
		records = append(records, card.ToRecord(&cards[i]))
	}
	return records
}
