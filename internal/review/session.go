// Package review runs an interactive Leitner review session.
//
// A Session walks the due cards in order: it shows the word, reveals the
// answer on Enter, reads a 1-5 score, and writes the new schedule through
// the Store before moving on. A card's schedule and its log entry commit
// together, and each card commits on its own, so quitting or failing halfway
// keeps every earlier update.
package review

import (
	"bufio"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/errors"
	"github.com/hpungsan/vocab/internal/srs"
)

// Store is the persistence the session needs.
type Store interface {
	// GetCardsDue returns cards due on or before ref, in review order.
	GetCardsDue(ctx context.Context, ref time.Time, excludeKnown bool) ([]card.Card, error)
	// GetCardBox returns the stored box for word, or NOT_FOUND.
	GetCardBox(ctx context.Context, word string) (int, error)
	// SaveReview writes the card's new box and next review and appends entry
	// to the review history in one transaction. NOT_FOUND if the card is
	// gone, WRITE_FAILED if either write fails; nothing is kept on error.
	SaveReview(ctx context.Context, entry card.ReviewLog, lastSeen time.Time) error
}

// Messages printed by the session.
const (
	MsgNothingDue   = "Nothing due for review!"
	MsgInvalidScore = "Please enter a number between 1 and 5"
	PromptReveal    = "Press Enter to see the answer (q to quit)..."
	PromptScore     = "How well did you know this? (1-5, q to quit)"
)

// Result summarizes a finished session.
type Result struct {
	Due        int   `json:"due"`
	Reviewed   int   `json:"reviewed"`
	Skipped    int   `json:"skipped"`
	EndedEarly bool  `json:"ended_early"`
	State      State `json:"state"`
}

// Session is a single review run. It is not safe for concurrent use.
type Session struct {
	store     Store
	scheduler *srs.Scheduler
	in        *bufio.Reader
	out       io.Writer
	now       func() time.Time
	newID     func(time.Time) string
	logger    *zap.Logger

	state State
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used to anchor "today".
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithLogger sets the logger for state transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithIDGenerator sets the review log ID generator.
func WithIDGenerator(newID func(time.Time) string) Option {
	return func(s *Session) { s.newID = newID }
}

// New creates a Session reading learner input from in and writing to out.
func New(store Store, scheduler *srs.Scheduler, in io.Reader, out io.Writer, opts ...Option) *Session {
	s := &Session{
		store:     store,
		scheduler: scheduler,
		in:        bufio.NewReader(in),
		out:       out,
		now:       time.Now,
		newID:     NewULID,
		logger:    zap.NewNop(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Run executes the session until every due card is handled, the learner
// quits, or a write fails. A WRITE_FAILED error is returned along with the
// partial result; updates already made stay committed.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	if s.state != StateIdle {
		return nil, errors.NewInvalidRequest("review session already ran")
	}

	today := srs.Day(s.now())
	res := &Result{}

	s.transition(StateSelectingDueCards)
	cards, err := s.store.GetCardsDue(ctx, today, true)
	if err != nil {
		s.finish(res)
		return res, err
	}
	res.Due = len(cards)

	if len(cards) == 0 {
		s.println(MsgNothingDue)
		s.finish(res)
		return res, nil
	}

	s.printf("You have %d card(s) due for review.\n", len(cards))

	for i := range cards {
		if err := ctx.Err(); err != nil {
			s.finish(res)
			return res, errors.NewCancelled("review")
		}

		c := &cards[i]
		if quit := s.present(c, i+1, len(cards)); quit {
			res.EndedEarly = true
			break
		}

		s.transition(StateAwaitingOutcome)
		score, quit := s.readScore()
		if quit {
			res.EndedEarly = true
			break
		}

		s.transition(StateUpdating)
		tr, err := s.update(ctx, c.Word, score, today, s.now())
		if err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				s.printf("Card %q no longer exists, skipping.\n", c.Word)
				res.Skipped++
				continue
			}
			s.logger.Error("review write failed", zap.String("word", c.Word), zap.Error(err))
			s.printf("Could not save review for %q: %v\n", c.Word, err)
			s.finish(res)
			return res, err
		}

		res.Reviewed++
		s.printf("Box %d -> %d. Next review: %s\n", tr.From, tr.To, srs.FormatDate(tr.NextReview))
	}

	s.finish(res)
	if res.EndedEarly {
		s.printf("\nReview session ended. (%d reviewed)\n", res.Reviewed)
	} else {
		s.printf("\nReview session completed! (%d reviewed)\n", res.Reviewed)
	}
	return res, nil
}

// present shows the card front, waits for the reveal, then shows the back.
// Returns true if the learner asked to quit.
func (s *Session) present(c *card.Card, n, total int) bool {
	s.transition(StatePresentingCard)

	s.println("\n" + strings.Repeat("=", 50))
	s.printf("[%d/%d] Word: %s\n", n, total, c.Word)
	s.printf("Box: %d\n", c.Box)
	s.println(PromptReveal)

	line, ok := s.readLine()
	if !ok || isExitSentinel(line) {
		return true
	}

	s.printf("Translation: %s\n", c.TranslationEN)
	if c.TranslationDE != "" {
		s.printf("German: %s\n", c.TranslationDE)
	}
	s.printf("Definition: %s\n", c.Definition)
	s.printf("Example: %s\n", c.Example)
	return false
}

// readScore prompts until a valid score or an exit sentinel arrives.
// Invalid input never changes anything.
func (s *Session) readScore() (srs.Score, bool) {
	for {
		s.printf("\n%s: ", PromptScore)
		line, ok := s.readLine()
		if !ok || isExitSentinel(line) {
			return 0, true
		}

		score, err := srs.ParseScore(line)
		if err != nil {
			s.logger.Debug("invalid outcome", zap.String("input", strings.TrimSpace(line)))
			s.println(MsgInvalidScore)
			continue
		}
		return score, false
	}
}

// update re-reads the stored box, applies the score and persists the result.
func (s *Session) update(ctx context.Context, word string, score srs.Score, today, now time.Time) (srs.Transition, error) {
	return Apply(ctx, s.store, s.scheduler, word, score, today, now, s.newID)
}

// Apply performs one review update: read the authoritative box, compute the
// transition, then save the schedule and its review log entry together.
// today anchors the next review date and the log's calendar day; now stamps
// the log entry. It is shared by the interactive session and one-shot grading.
func Apply(ctx context.Context, store Store, scheduler *srs.Scheduler, word string, score srs.Score, today, now time.Time, newID func(time.Time) string) (srs.Transition, error) {
	box, err := store.GetCardBox(ctx, word)
	if err != nil {
		return srs.Transition{}, err
	}

	tr := scheduler.Apply(box, score, today)
	entry := card.ReviewLog{
		ID:         newID(now),
		Word:       word,
		Score:      int(score),
		BoxBefore:  tr.From,
		BoxAfter:   tr.To,
		NextReview: tr.NextReview,
		ReviewedAt: now.Unix(),
		ReviewedOn: srs.Day(today),
	}
	if err := store.SaveReview(ctx, entry, today); err != nil {
		return srs.Transition{}, err
	}
	return tr, nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewULID returns a ULID for t. IDs made within the same millisecond
// increase monotonically. Safe for concurrent use.
func NewULID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

func (s *Session) transition(to State) {
	s.logger.Debug("review state", zap.Stringer("from", s.state), zap.Stringer("to", to))
	s.state = to
}

func (s *Session) finish(res *Result) {
	s.transition(StateFinished)
	res.State = s.state
}

// readLine returns the next input line without its newline.
// ok is false at end of input with nothing read.
func (s *Session) readLine() (string, bool) {
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

func (s *Session) println(msg string) {
	fmt.Fprintln(s.out, msg)
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// isExitSentinel reports whether input asks to end the session.
func isExitSentinel(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "q", "quit", "exit":
		return true
	}
	return false
}
