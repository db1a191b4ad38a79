package card

import (
	"fmt"
	"time"

	"github.com/hpungsan/vocab/internal/srs"
)

// Record is the JSON form of a card, used by fetch/list output and JSONL export.
// Dates are calendar dates (YYYY-MM-DD).
type Record struct {
	// Header detection field - true only for the export header line
	VocabExport bool `json:"_vocab_export,omitempty"`

	// Header fields (only present in header line)
	SchemaVersion string `json:"schema_version,omitempty"`
	ExportedAt    int64  `json:"exported_at,omitempty"`

	// Card fields
	Word          string  `json:"word,omitempty"`
	Context       string  `json:"context,omitempty"`
	TranslationEN string  `json:"translation_en,omitempty"`
	TranslationDE string  `json:"translation_de,omitempty"`
	Definition    string  `json:"definition,omitempty"`
	Example       string  `json:"example_sentence,omitempty"`
	Box           int     `json:"box,omitempty"`
	NextReview    string  `json:"next_review,omitempty"`
	Known         bool    `json:"known"`
	FirstSeen     string  `json:"first_seen,omitempty"`
	LastSeen      *string `json:"last_seen,omitempty"`
}

// ToRecord converts a Card to its JSON record.
func ToRecord(c *Card) Record {
	r := Record{
		Word:          c.Word,
		Context:       c.Context,
		TranslationEN: c.TranslationEN,
		TranslationDE: c.TranslationDE,
		Definition:    c.Definition,
		Example:       c.Example,
		Box:           c.Box,
		NextReview:    srs.FormatDate(c.NextReview),
		Known:         c.Known,
		FirstSeen:     srs.FormatDate(c.FirstSeen),
	}
	if c.LastSeen != nil {
		s := srs.FormatDate(*c.LastSeen)
		r.LastSeen = &s
	}
	return r
}

// ToCard converts a record back to a Card.
// Missing dates default to today; the box is clamped into range.
func (r *Record) ToCard(today time.Time) (*Card, error) {
	word := CleanWord(r.Word)
	if word == "" {
		return nil, fmt.Errorf("missing word field")
	}

	c := &Card{
		Word:    word,
		Context: r.Context,
		Content: Content{
			TranslationEN: r.TranslationEN,
			TranslationDE: r.TranslationDE,
			Definition:    r.Definition,
			Example:       r.Example,
		},
		Box:        srs.ClampBox(r.Box),
		Known:      r.Known,
		NextReview: srs.Day(today),
		FirstSeen:  srs.Day(today),
	}

	if r.NextReview != "" {
		d, err := parseRecordDate(r.NextReview)
		if err != nil {
			return nil, fmt.Errorf("invalid next_review %q: %w", r.NextReview, err)
		}
		c.NextReview = d
	}
	if r.FirstSeen != "" {
		d, err := parseRecordDate(r.FirstSeen)
		if err != nil {
			return nil, fmt.Errorf("invalid first_seen %q: %w", r.FirstSeen, err)
		}
		c.FirstSeen = d
	}
	if r.LastSeen != nil && *r.LastSeen != "" {
		d, err := parseRecordDate(*r.LastSeen)
		if err != nil {
			return nil, fmt.Errorf("invalid last_seen %q: %w", *r.LastSeen, err)
		}
		c.LastSeen = &d
	}

	return c, nil
}

// parseRecordDate accepts a calendar date or an RFC 3339 timestamp
// (older exports wrote full ISO timestamps).
func parseRecordDate(s string) (time.Time, error) {
	if d, err := srs.ParseDate(s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return srs.Day(t), nil
}
