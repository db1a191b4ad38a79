package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/vocab/internal/card"
	"github.com/hpungsan/vocab/internal/db"
	"github.com/hpungsan/vocab/internal/errors"
)

// Generator produces card content for a word.
type Generator interface {
	GenerateCard(ctx context.Context, word, usage string) (card.Content, error)
}

// AddInput contains parameters for the Add operation.
type AddInput struct {
	Word    string    // required
	Context string    // optional sentence the word was met in
	Today   time.Time // default: now
}

// AddOutput contains the result of the Add operation.
type AddOutput struct {
	card.Record
}

// Add generates content for a new word and stores it in box 1, due today.
// Nothing is written if the word exists or generation fails.
func Add(ctx context.Context, database *sql.DB, gen Generator, input AddInput) (*AddOutput, error) {
	word, err := ValidateWord(input.Word)
	if err != nil {
		return nil, err
	}
	usage := strings.TrimSpace(input.Context)

	exists, err := db.Exists(ctx, database, word)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.NewAlreadyExists(word)
	}

	content, err := gen.GenerateCard(ctx, word, usage)
	if err != nil {
		return nil, err
	}

	today := resolveToday(input.Today)
	c := &card.Card{
		Word:       word,
		Content:    content,
		Context:    usage,
		Box:        1,
		NextReview: today,
		FirstSeen:  today,
	}

	// Insert still reports ALREADY_EXISTS if another writer won the race
	if err := db.Insert(ctx, database, c); err != nil {
		return nil, err
	}

	return &AddOutput{Record: card.ToRecord(c)}, nil
}

// PreviewInput contains parameters for the Preview operation.
type PreviewInput struct {
	Word    string
	Context string
}

// Preview generates content for a word without storing anything.
func Preview(ctx context.Context, gen Generator, input PreviewInput) (*card.Content, error) {
	word, err := ValidateWord(input.Word)
	if err != nil {
		return nil, err
	}
	content, err := gen.GenerateCard(ctx, word, strings.TrimSpace(input.Context))
	if err != nil {
		return nil, err
	}
	return &content, nil
}
