package card

import "time"

// Card is a vocabulary entry scheduled by the Leitner scheduler.
type Card struct {
	// Word is the unique identifier, stored as typed (trimmed)
	Word string

	// Content is the generated study material, opaque to the scheduler
	Content

	// Context is the sentence or situation the word was first met in
	Context string

	// Box is the current Leitner box, always within [1,5]
	Box int

	// NextReview is the earliest calendar date the card is due
	NextReview time.Time

	// Known marks a mastered card; known cards are skipped by review
	Known bool

	// FirstSeen is the calendar date the card was added
	FirstSeen time.Time

	// LastSeen is the calendar date of the last review (nullable)
	LastSeen *time.Time
}

// Content holds the displayable fields of a card.
type Content struct {
	TranslationEN string `json:"translation_en"`
	TranslationDE string `json:"translation_de,omitempty"`
	Definition    string `json:"definition"`
	Example       string `json:"example_sentence"`
}

// Empty reports whether no content field carries text.
func (c Content) Empty() bool {
	return c.TranslationEN == "" && c.TranslationDE == "" && c.Definition == "" && c.Example == ""
}

// IsDue reports whether the card is eligible for review on day.
func (c *Card) IsDue(day time.Time) bool {
	return !c.NextReview.After(day)
}

// ReviewLog records one applied review. Append-only; never read by the scheduler.
type ReviewLog struct {
	ID         string    `json:"id"`
	Word       string    `json:"word"`
	Score      int       `json:"score"`
	BoxBefore  int       `json:"box_before"`
	BoxAfter   int       `json:"box_after"`
	NextReview time.Time `json:"next_review"`
	ReviewedAt int64     `json:"reviewed_at"` // unix seconds
	ReviewedOn time.Time `json:"reviewed_on"` // learner's calendar date
}
