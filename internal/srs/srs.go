// Package srs implements the Leitner-box scheduler.
//
// Cards live in boxes 1..5. A good recall moves a card up one box, a poor
// recall sends it back to box 1, and a middling recall leaves it in place.
// Each box maps to a review interval in days. Everything here is pure: no
// clock reads, no I/O, no package-level mutable state.
package srs

import (
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/vocab/internal/errors"
)

// Box bounds.
const (
	MinBox = 1
	MaxBox = 5
)

// FallbackIntervalDays is used for a box missing from the interval table.
const FallbackIntervalDays = 1

// DateLayout is the calendar-date format used for persisted dates.
const DateLayout = "2006-01-02"

// Score is the learner's self-assessed recall quality, 1 (forgot) to 5 (perfect).
type Score int

// Score bounds.
const (
	MinScore Score = 1
	MaxScore Score = 5
)

// Valid reports whether s is within [MinScore, MaxScore].
func (s Score) Valid() bool {
	return s >= MinScore && s <= MaxScore
}

// ParseScore parses user input into a Score.
// Returns an INVALID_OUTCOME error for anything other than "1".."5".
func ParseScore(input string) (Score, error) {
	trimmed := strings.TrimSpace(input)
	n, err := strconv.Atoi(trimmed)
	if err != nil || !Score(n).Valid() {
		return 0, errors.NewInvalidOutcome(trimmed)
	}
	return Score(n), nil
}

// IntervalTable maps a box number to the days until its next review.
type IntervalTable map[int]int

// DefaultIntervals returns a fresh copy of the default interval table.
func DefaultIntervals() IntervalTable {
	return IntervalTable{
		1: 1,
		2: 3,
		3: 7,
		4: 14,
		5: 30,
	}
}

// Days returns the interval for box, or FallbackIntervalDays if unconfigured.
func (t IntervalTable) Days(box int) int {
	if days, ok := t[box]; ok {
		return days
	}
	return FallbackIntervalDays
}

// NextBox returns the box a card moves to after a review.
// currentBox is not validated; callers keep it within [MinBox, MaxBox].
func NextBox(currentBox int, score Score) int {
	switch {
	case score >= 4:
		return min(currentBox+1, MaxBox)
	case score <= 2:
		return MinBox
	default:
		return currentBox
	}
}

// Transition is the result of applying one review to a card's schedule.
type Transition struct {
	From       int
	To         int
	NextReview time.Time
}

// Scheduler computes review dates from an interval table fixed at construction.
type Scheduler struct {
	intervals IntervalTable
}

// New creates a Scheduler. A nil or empty table means DefaultIntervals.
// The table is copied so later changes by the caller have no effect.
func New(intervals IntervalTable) *Scheduler {
	if len(intervals) == 0 {
		intervals = DefaultIntervals()
	}
	copied := make(IntervalTable, len(intervals))
	for box, days := range intervals {
		copied[box] = days
	}
	return &Scheduler{intervals: copied}
}

// Intervals returns a copy of the scheduler's interval table.
func (s *Scheduler) Intervals() IntervalTable {
	copied := make(IntervalTable, len(s.intervals))
	for box, days := range s.intervals {
		copied[box] = days
	}
	return copied
}

// NextReviewDate returns ref's calendar date plus the interval for box.
func (s *Scheduler) NextReviewDate(box int, ref time.Time) time.Time {
	return Day(ref).AddDate(0, 0, s.intervals.Days(box))
}

// Apply runs NextBox then NextReviewDate for a single review.
func (s *Scheduler) Apply(currentBox int, score Score, ref time.Time) Transition {
	to := NextBox(currentBox, score)
	return Transition{
		From:       currentBox,
		To:         to,
		NextReview: s.NextReviewDate(to, ref),
	}
}

// ClampBox forces box into [MinBox, MaxBox].
// Used at the storage boundary so out-of-range rows never reach NextBox.
func ClampBox(box int) int {
	return max(MinBox, min(box, MaxBox))
}

// Day truncates t to midnight UTC of its own calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate formats t as a calendar date (YYYY-MM-DD).
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}
