package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellbill/backend/internal/domain/shared"
)

// ErrEmptyUsage indicates an all-zero usage event
var ErrEmptyUsage = shared.NewDomainError("EMPTY_USAGE", "At least one usage quantity must be greater than zero")

// UsageEvent is one metered unit of consumption attributed to an account.
// Events are inputs, not persisted as such - the journal stores the priced
// TransactionRecord derived from them. The caller is trusted to have already
// measured the quantities; the identity is supplied by the authentication
// layer and not verified here.
type UsageEvent struct {
	ActorAccountID   uuid.UUID
	InputTokens      int64
	OutputTokens     int64
	ComputeSeconds   decimal.Decimal
	RequestTimestamp time.Time
	RequestID        string // optional client-generated idempotency key
}

// Validate rejects malformed events before they enter the billing engine
func (e UsageEvent) Validate() error {
	if e.ActorAccountID == uuid.Nil {
		return shared.NewDomainError("INVALID_ACTOR", "Actor account ID cannot be empty")
	}
	if e.InputTokens < 0 || e.OutputTokens < 0 {
		return shared.NewDomainError("INVALID_USAGE", "Token quantities cannot be negative")
	}
	if e.ComputeSeconds.IsNegative() {
		return shared.NewDomainError("INVALID_USAGE", "Compute seconds cannot be negative")
	}
	if e.InputTokens == 0 && e.OutputTokens == 0 && e.ComputeSeconds.IsZero() {
		return ErrEmptyUsage
	}
	return nil
}

// Type classifies the event: token when any tokens were consumed, compute for
// pure compute time
func (e UsageEvent) Type() TransactionType {
	if e.InputTokens > 0 || e.OutputTokens > 0 {
		return TypeToken
	}
	return TypeCompute
}

// HasRequestID returns true if the caller supplied an idempotency key
func (e UsageEvent) HasRequestID() bool {
	return e.RequestID != ""
}
