package review

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/hpungsan/vocab/internal/card"
)

// MockStore is a testify mock of Store.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetCardsDue(ctx context.Context, ref time.Time, excludeKnown bool) ([]card.Card, error) {
	args := m.Called(ctx, ref, excludeKnown)
	var cards []card.Card
	if v := args.Get(0); v != nil {
		cards = v.([]card.Card)
	}
	return cards, args.Error(1)
}

func (m *MockStore) GetCardBox(ctx context.Context, word string) (int, error) {
	args := m.Called(ctx, word)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) SaveReview(ctx context.Context, entry card.ReviewLog, lastSeen time.Time) error {
	args := m.Called(ctx, entry, lastSeen)
	return args.Error(0)
}
