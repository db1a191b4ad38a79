package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/errors"
	"github.com/hpungsan/vocab/internal/srs"
)

const cardColumns = `
	word, translation_en, translation_de, definition, example_sentence,
	context, first_seen, last_seen, known, box, next_review
`

// Insert stores a new card.
// Returns ALREADY_EXISTS if the word is already present.
func Insert(ctx context.Context, q Querier, c *card.Card) error {
	query := `INSERT INTO cards (` + cardColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := q.ExecContext(ctx, query, cardArgs(c)...)
	if err != nil {
		if isUniqueConstraintError(err) {
			return errors.NewAlreadyExists(c.Word)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// Upsert inserts a card or overwrites every field of an existing one.
func Upsert(ctx context.Context, q Querier, c *card.Card) error {
	query := `
		INSERT INTO cards (` + cardColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(word) DO UPDATE SET
			translation_en = excluded.translation_en,
			translation_de = excluded.translation_de,
			definition = excluded.definition,
			example_sentence = excluded.example_sentence,
			context = excluded.context,
			first_seen = excluded.first_seen,
			last_seen = excluded.last_seen,
			known = excluded.known,
			box = excluded.box,
			next_review = excluded.next_review
	`

	if _, err := q.ExecContext(ctx, query, cardArgs(c)...); err != nil {
		return errors.NewWriteFailed(c.Word, err)
	}
	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByWord retrieves a card by its exact word.
func GetByWord(ctx context.Context, q Querier, word string) (*card.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE word = ?`

	c, err := scanCard(q.QueryRowContext(ctx, query, word))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(word)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return c, nil
}

// Exists reports whether a card with the exact word is stored.
func Exists(ctx context.Context, q Querier, word string) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM cards WHERE word = ? LIMIT 1`, word).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, errors.NewInternal(err)
	}
	return true, nil
}

// GetCardsDue returns cards whose next review is on or before ref's date,
// ordered by next_review, then box, then word.
// If excludeKnown is true, known cards are left out.
func GetCardsDue(ctx context.Context, q Querier, ref time.Time, excludeKnown bool) ([]card.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE next_review <= ?`
	if excludeKnown {
		query += ` AND known = 0`
	}
	query += ` ORDER BY next_review ASC, box ASC, word ASC`

	rows, err := q.QueryContext(ctx, query, srs.FormatDate(ref))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	return collectCards(rows)
}

// GetCardBox returns the stored box for word, clamped into [1,5].
func GetCardBox(ctx context.Context, q Querier, word string) (int, error) {
	var box int
	err := q.QueryRowContext(ctx, `SELECT box FROM cards WHERE word = ?`, word).Scan(&box)
	if err == sql.ErrNoRows {
		return 0, errors.NewNotFound(word)
	}
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return srs.ClampBox(box), nil
}

// UpsertCardSchedule writes box, next_review and last_seen in one statement.
// Other fields are untouched. Returns WRITE_FAILED on a storage error and
// NOT_FOUND if the card no longer exists.
func UpsertCardSchedule(ctx context.Context, q Querier, word string, box int, next, lastSeen time.Time) error {
	query := `
		UPDATE cards
		SET box = ?, next_review = ?, last_seen = ?
		WHERE word = ?
	`

	result, err := q.ExecContext(ctx, query, box, srs.FormatDate(next), srs.FormatDate(lastSeen), word)
	if err != nil {
		return errors.NewWriteFailed(word, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewWriteFailed(word, err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(word)
	}
	return nil
}

// RecordReview appends an entry to the review log.
func RecordReview(ctx context.Context, q Querier, entry card.ReviewLog) error {
	query := `
		INSERT INTO review_log (id, word, score, box_before, box_after, next_review, reviewed_at, reviewed_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	var on string
	if !entry.ReviewedOn.IsZero() {
		on = srs.FormatDate(entry.ReviewedOn)
	}
	_, err := q.ExecContext(ctx, query,
		entry.ID, entry.Word, entry.Score, entry.BoxBefore, entry.BoxAfter,
		srs.FormatDate(entry.NextReview), entry.ReviewedAt, on,
	)
	if err != nil {
		return errors.NewWriteFailed(entry.Word, err)
	}
	return nil
}

// ListFilter selects cards for List.
type ListFilter struct {
	DueOn        *time.Time // only cards due on or before this date
	IncludeKnown bool
	Limit        int
	Offset       int
}

// List returns a page of cards and the total number matching the filter.
// Due listings use the review ordering; full listings are alphabetical.
func List(ctx context.Context, q Querier, f ListFilter) ([]card.Card, int, error) {
	var where []string
	var args []any

	if f.DueOn != nil {
		where = append(where, "next_review <= ?")
		args = append(args, srs.FormatDate(*f.DueOn))
	}
	if !f.IncludeKnown {
		where = append(where, "known = 0")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM cards`+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	orderBy := " ORDER BY word ASC"
	if f.DueOn != nil {
		orderBy = " ORDER BY next_review ASC, box ASC, word ASC"
	}

	query := `SELECT ` + cardColumns + ` FROM cards` + whereClause + orderBy + ` LIMIT ? OFFSET ?`
	rows, err := q.QueryContext(ctx, query, append(args, f.Limit, f.Offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	cards, err := collectCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// Words returns every stored word in alphabetical order.
func Words(ctx context.Context, q Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT word FROM cards ORDER BY word ASC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, errors.NewInternal(err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return words, nil
}

// Delete removes a card and its review history.
func Delete(ctx context.Context, q Querier, word string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM cards WHERE word = ?`, word)
	if err != nil {
		return errors.NewWriteFailed(word, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(word)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM review_log WHERE word = ?`, word); err != nil {
		return errors.NewWriteFailed(word, err)
	}
	return nil
}

// SetKnown sets or clears the known flag.
func SetKnown(ctx context.Context, q Querier, word string, known bool) error {
	result, err := q.ExecContext(ctx, `UPDATE cards SET known = ? WHERE word = ?`, known, word)
	if err != nil {
		return errors.NewWriteFailed(word, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(word)
	}
	return nil
}

// StreamForExport returns rows for every card, ordered by word.
// Callers scan with ScanCardFromRows and must close the rows.
func StreamForExport(ctx context.Context, q Querier) (*sql.Rows, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+cardColumns+` FROM cards ORDER BY word ASC`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return rows, nil
}

// Stats summarizes the collection.
type Stats struct {
	Total        int         `json:"total"`
	Known        int         `json:"known"`
	DueToday     int         `json:"due_today"`
	ByBox        map[int]int `json:"by_box"`
	Reviews      int         `json:"reviews"`
	ReviewsToday int         `json:"reviews_today"`
}

// GetStats computes collection statistics relative to today.
func GetStats(ctx context.Context, q Querier, today time.Time) (*Stats, error) {
	s := &Stats{ByBox: make(map[int]int)}
	for box := srs.MinBox; box <= srs.MaxBox; box++ {
		s.ByBox[box] = 0
	}

	err := q.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(known), 0),
			COALESCE(SUM(CASE WHEN known = 0 AND next_review <= ? THEN 1 ELSE 0 END), 0)
		FROM cards
	`, srs.FormatDate(today)).Scan(&s.Total, &s.Known, &s.DueToday)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	rows, err := q.QueryContext(ctx, `SELECT box, COUNT(*) FROM cards GROUP BY box`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()
	for rows.Next() {
		var box, n int
		if err := rows.Scan(&box, &n); err != nil {
			return nil, errors.NewInternal(err)
		}
		s.ByBox[srs.ClampBox(box)] += n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}

	err = q.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN reviewed_on = ? THEN 1 ELSE 0 END), 0)
		FROM review_log
	`, srs.FormatDate(today)).Scan(&s.Reviews, &s.ReviewsToday)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return s, nil
}

// ReviewHistory returns the review log for word, newest first.
func ReviewHistory(ctx context.Context, q Querier, word string, limit int) ([]card.ReviewLog, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, word, score, box_before, box_after, next_review, reviewed_at, reviewed_on
		FROM review_log
		WHERE word = ?
		ORDER BY reviewed_at DESC, id DESC
		LIMIT ?
	`, word, limit)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var logs []card.ReviewLog
	for rows.Next() {
		var entry card.ReviewLog
		var next, on string
		if err := rows.Scan(&entry.ID, &entry.Word, &entry.Score, &entry.BoxBefore, &entry.BoxAfter, &next, &entry.ReviewedAt, &on); err != nil {
			return nil, errors.NewInternal(err)
		}
		if entry.NextReview, err = srs.ParseDate(next); err != nil {
			return nil, errors.NewInternal(fmt.Errorf("review %s: bad next_review %q: %w", entry.ID, next, err))
		}
		if on != "" {
			if entry.ReviewedOn, err = srs.ParseDate(on); err != nil {
				return nil, errors.NewInternal(fmt.Errorf("review %s: bad reviewed_on %q: %w", entry.ID, on, err))
			}
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return logs, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCard scans a single row into a Card.
func scanCard(row rowScanner) (*card.Card, error) {
	var c card.Card
	var translationEN, translationDE, definition, example, cardContext sql.NullString
	var firstSeen, nextReview string
	var lastSeen sql.NullString

	err := row.Scan(
		&c.Word, &translationEN, &translationDE, &definition, &example,
		&cardContext, &firstSeen, &lastSeen, &c.Known, &c.Box, &nextReview,
	)
	if err != nil {
		return nil, err
	}

	c.TranslationEN = translationEN.String
	c.TranslationDE = translationDE.String
	c.Definition = definition.String
	c.Example = example.String
	c.Context = cardContext.String
	c.Box = srs.ClampBox(c.Box)

	if c.FirstSeen, err = srs.ParseDate(firstSeen); err != nil {
		return nil, fmt.Errorf("card %q: bad first_seen %q: %w", c.Word, firstSeen, err)
	}
	if c.NextReview, err = srs.ParseDate(nextReview); err != nil {
		return nil, fmt.Errorf("card %q: bad next_review %q: %w", c.Word, nextReview, err)
	}
	if lastSeen.Valid && lastSeen.String != "" {
		d, err := srs.ParseDate(lastSeen.String)
		if err != nil {
			return nil, fmt.Errorf("card %q: bad last_seen %q: %w", c.Word, lastSeen.String, err)
		}
		c.LastSeen = &d
	}

	return &c, nil
}

// ScanCardFromRows scans the current row of a StreamForExport result.
func ScanCardFromRows(rows *sql.Rows) (*card.Card, error) {
	return scanCard(rows)
}

// collectCards drains rows into a slice.
func collectCards(rows *sql.Rows) ([]card.Card, error) {
	var cards []card.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return cards, nil
}

// cardArgs returns the insert arguments in cardColumns order.
func cardArgs(c *card.Card) []any {
	var lastSeen sql.NullString
	if c.LastSeen != nil {
		lastSeen = sql.NullString{String: srs.FormatDate(*c.LastSeen), Valid: true}
	}
	return []any{
		c.Word,
		toNullString(c.TranslationEN),
		toNullString(c.TranslationDE),
		toNullString(c.Definition),
		toNullString(c.Example),
		toNullString(c.Context),
		srs.FormatDate(c.FirstSeen),
		lastSeen,
		c.Known,
		srs.ClampBox(c.Box),
		srs.FormatDate(c.NextReview),
	}
}

// toNullString maps an empty string to NULL.
func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
