package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QueryFilter narrows journal queries. Nil fields match everything.
type QueryFilter struct {
	UserID      *uuid.UUID
	SubmasterID *uuid.UUID
	Type        *TransactionType
	Status      *TransactionStatus
	From        *time.Time
	To          *time.Time
}

// AggregateResult is the single-pass fold over a journal query
type AggregateResult struct {
	Count           int64
	TotalCost       decimal.Decimal
	TotalRevenue    decimal.Decimal
	TotalCommission decimal.Decimal
}

// TransactionJournal is the append-only record store for priced events.
// Records are immutable once appended; Query results are ordered by timestamp
// ascending and re-invoking with the same filter yields the same set modulo
// new appends.
type TransactionJournal interface {
	// Append persists a record; returns shared.ErrAlreadyExists if a record
	// with the same request ID was appended before
	Append(ctx context.Context, record *TransactionRecord) error

	// FindByID returns shared.ErrNotFound when absent
	FindByID(ctx context.Context, id uuid.UUID) (*TransactionRecord, error)

	// FindByRequestID looks up the record for a client idempotency key;
	// returns shared.ErrNotFound when the key has never been billed
	FindByRequestID(ctx context.Context, requestID string) (*TransactionRecord, error)

	// Query returns matching records ordered by timestamp ascending
	Query(ctx context.Context, filter QueryFilter) ([]*TransactionRecord, error)

	// Aggregate folds the matching records into totals. It must agree with
	// summing Query results record by record.
	Aggregate(ctx context.Context, filter QueryFilter) (AggregateResult, error)
}

// Matches reports whether a record satisfies the filter
func (f QueryFilter) Matches(r *TransactionRecord) bool {
	if f.UserID != nil && r.UserID != *f.UserID {
		return false
	}
	if f.SubmasterID != nil && (r.SubmasterID == nil || *r.SubmasterID != *f.SubmasterID) {
		return false
	}
	if f.Type != nil && r.Type != *f.Type {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	if f.From != nil && r.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && r.Timestamp.After(*f.To) {
		return false
	}
	return true
}

// Summarize folds records into an AggregateResult. Record amounts are already
// settled at the minor-unit precision, so decimal addition here is exact and
// matches any summation order the store might use.
func Summarize(records []*TransactionRecord) AggregateResult {
	agg := AggregateResult{
		TotalCost:       decimal.Zero,
		TotalRevenue:    decimal.Zero,
		TotalCommission: decimal.Zero,
	}
	for _, r := range records {
		agg.Count++
		agg.TotalCost = agg.TotalCost.Add(r.Cost)
		agg.TotalRevenue = agg.TotalRevenue.Add(r.Revenue)
		agg.TotalCommission = agg.TotalCommission.Add(r.Commission)
	}
	return agg
}
