package account

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellbill/backend/internal/domain/shared"
)

// Posting is a signed balance delta applied to one account as part of an
// atomic batch. Positive deltas are unconditional; negative deltas are checked
// against the non-negative balance floor before the batch commits. Revenue and
// Cost are aggregate increments recognized in the same atomic unit - they are
// bookkeeping, not balance transfers.
type Posting struct {
	AccountID uuid.UUID
	Delta     decimal.Decimal // signed balance change
	Revenue   decimal.Decimal // increment to TotalRevenue, >= 0
	Cost      decimal.Decimal // increment to TotalCosts, >= 0
}

// NewDebit builds a posting charging amount against an account
func NewDebit(accountID uuid.UUID, amount decimal.Decimal) Posting {
	return Posting{
		AccountID: accountID,
		Delta:     amount.Neg(),
		Revenue:   decimal.Zero,
		Cost:      decimal.Zero,
	}
}

// NewCredit builds a posting granting amount to an account
func NewCredit(accountID uuid.UUID, amount decimal.Decimal) Posting {
	return Posting{
		AccountID: accountID,
		Delta:     amount,
		Revenue:   decimal.Zero,
		Cost:      decimal.Zero,
	}
}

// WithRevenue sets the revenue recognized on this posting
func (p Posting) WithRevenue(revenue decimal.Decimal) Posting {
	p.Revenue = revenue
	return p
}

// WithCost sets the cost recognized on this posting
func (p Posting) WithCost(cost decimal.Decimal) Posting {
	p.Cost = cost
	return p
}

// Validate checks a single posting
func (p Posting) Validate() error {
	if p.AccountID == uuid.Nil {
		return shared.NewDomainError("INVALID_POSTING", "Posting account ID cannot be empty")
	}
	if p.Revenue.IsNegative() || p.Cost.IsNegative() {
		return shared.NewDomainError("INVALID_POSTING", "Posting aggregates cannot be negative")
	}
	return nil
}

// ValidatePostings checks a batch before it is handed to the ledger
func ValidatePostings(postings []Posting) error {
	if len(postings) == 0 {
		return shared.NewDomainError("EMPTY_POSTING_BATCH", "Posting batch cannot be empty")
	}
	for _, p := range postings {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
