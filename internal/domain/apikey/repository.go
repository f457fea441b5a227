package apikey

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// APIKeyRepository persists issued keys
type APIKeyRepository interface {
	Create(ctx context.Context, key *APIKey) error

	// FindByKey returns shared.ErrNotFound for unknown key strings
	FindByKey(ctx context.Context, key string) (*APIKey, error)

	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*APIKey, error)

	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)

	// TouchLastUsed records a successful use without racing other writers
	TouchLastUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error

	// Deactivate revokes a key
	Deactivate(ctx context.Context, id uuid.UUID) error
}
