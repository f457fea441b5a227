package pricing

import (
	"context"
	"time"
)

// RateCardRepository persists the versioned rate card history.
// Cards are append-only: there is no update or delete.
type RateCardRepository interface {
	// Create inserts a new rate card
	Create(ctx context.Context, card *RateCard) error

	// FindEffectiveAt returns the card with the latest EffectiveFrom <= at.
	// Returns shared.ErrNotFound when the instant predates every card.
	FindEffectiveAt(ctx context.Context, at time.Time) (*RateCard, error)

	// List returns all cards ordered by EffectiveFrom descending
	List(ctx context.Context) ([]*RateCard, error)
}
