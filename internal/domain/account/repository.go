package account

import (
	"context"

	"github.com/google/uuid"
)

// AccountRepository persists accounts. Balance mutation does not go through
// this interface - only the ledger's atomic posting batch may change balances.
type AccountRepository interface {
	Create(ctx context.Context, acct *Account) error

	// FindByID returns shared.ErrNotFound when the account does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	FindByEmail(ctx context.Context, email string) (*Account, error)

	// ListSubmasters returns the reseller accounts owned by an operator
	ListSubmasters(ctx context.Context, parentID uuid.UUID) ([]*Account, error)

	// CountSubmasters counts the reseller accounts owned by an operator
	CountSubmasters(ctx context.Context, parentID uuid.UUID) (int64, error)

	// UpdateStatus persists an activation state change
	UpdateStatus(ctx context.Context, id uuid.UUID, status AccountStatus) error
}
