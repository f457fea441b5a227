package account

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellbill/backend/internal/domain/shared"
	"github.com/resellbill/backend/internal/domain/shared/valueobject"
)

// AccountKind distinguishes the two kinds of billed accounts
type AccountKind string

const (
	// KindOperator is a top-level account that owns the platform and
	// receives the non-commission share of revenue
	KindOperator AccountKind = "OPERATOR"
	// KindSubmaster is a reseller account, child of an operator, with its
	// own credit balance and commission rate
	KindSubmaster AccountKind = "SUBMASTER"
)

// IsValid returns true if the kind is a known value
func (k AccountKind) IsValid() bool {
	return k == KindOperator || k == KindSubmaster
}

// AccountStatus enumerates account lifecycle states
type AccountStatus string

const (
	StatusActive   AccountStatus = "ACTIVE"
	StatusInactive AccountStatus = "INACTIVE"
)

// Default seed credits granted at account creation
var (
	defaultOperatorCredits  = decimal.NewFromInt(1000)
	defaultSubmasterCredits = decimal.NewFromInt(100)
)

// Account domain errors
var (
	// ErrInvalidCommissionRate indicates a commission rate outside 0-100
	ErrInvalidCommissionRate = shared.NewDomainError("INVALID_COMMISSION_RATE", "Commission rate must be between 0 and 100")
	// ErrParentRequired indicates a submaster without an owning operator
	ErrParentRequired = shared.NewDomainError("PARENT_REQUIRED", "Submaster accounts require a parent operator")
	// ErrParentNotOperator indicates a submaster parented to a non-operator account
	ErrParentNotOperator = shared.NewDomainError("PARENT_NOT_OPERATOR", "Parent account must be an active operator")
)

// Account owns a credit balance and running revenue/cost aggregates.
// Balances are only ever mutated through the ledger's atomic posting batch;
// the aggregate itself never applies a delta directly.
type Account struct {
	shared.BaseEntity
	Name           string
	Email          string
	Kind           AccountKind
	Status         AccountStatus
	ParentID       *uuid.UUID      // submaster -> owning operator
	CommissionRate decimal.Decimal // submasters only, 0-100 percent
	CreditBalance  decimal.Decimal // must remain >= 0 after any committed posting
	TotalRevenue   decimal.Decimal // monotonically non-decreasing
	TotalCosts     decimal.Decimal // monotonically non-decreasing
}

// NewOperatorAccount creates a top-level operator account with seed credits
func NewOperatorAccount(name, email string) (*Account, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Account email cannot be empty")
	}
	return &Account{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		Email:          email,
		Kind:           KindOperator,
		Status:         StatusActive,
		CommissionRate: decimal.Zero,
		CreditBalance:  defaultOperatorCredits,
		TotalRevenue:   decimal.Zero,
		TotalCosts:     decimal.Zero,
	}, nil
}

// NewSubmasterAccount creates a reseller account owned by an operator.
// The commission rate is the percentage of each charge recognized as the
// submaster's revenue; the remainder goes to the parent operator.
func NewSubmasterAccount(name, email string, parentID uuid.UUID, commissionRate decimal.Decimal) (*Account, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	if email == "" {
		return nil, shared.NewDomainError("INVALID_EMAIL", "Account email cannot be empty")
	}
	if parentID == uuid.Nil {
		return nil, ErrParentRequired
	}
	if commissionRate.IsNegative() || commissionRate.GreaterThan(decimal.NewFromInt(100)) {
		return nil, ErrInvalidCommissionRate
	}
	return &Account{
		BaseEntity:     shared.NewBaseEntity(),
		Name:           name,
		Email:          email,
		Kind:           KindSubmaster,
		Status:         StatusActive,
		ParentID:       &parentID,
		CommissionRate: commissionRate,
		CreditBalance:  defaultSubmasterCredits,
		TotalRevenue:   decimal.Zero,
		TotalCosts:     decimal.Zero,
	}, nil
}

// WithCreditBalance overrides the seed balance (admin-granted credit)
func (a *Account) WithCreditBalance(balance decimal.Decimal) *Account {
	if !balance.IsNegative() {
		a.CreditBalance = balance
	}
	return a
}

// IsSubmaster returns true for reseller accounts
func (a *Account) IsSubmaster() bool {
	return a.Kind == KindSubmaster
}

// IsActive returns true if the account may be billed
func (a *Account) IsActive() bool {
	return a.Status == StatusActive
}

// Deactivate marks the account inactive; its balance and history are retained
func (a *Account) Deactivate() {
	a.Status = StatusInactive
	a.Touch()
}

// Activate marks the account active
func (a *Account) Activate() {
	a.Status = StatusActive
	a.Touch()
}

// CanCover returns true if the balance covers the given charge
func (a *Account) CanCover(amount decimal.Decimal) bool {
	return a.CreditBalance.GreaterThanOrEqual(amount)
}

// CommissionOn splits a charge between this submaster and its parent operator.
// commission + remainder always equals cost exactly: the commission is rounded
// half-even to the settlement precision and the remainder is the difference.
func (a *Account) CommissionOn(cost decimal.Decimal) (commission, remainder decimal.Decimal) {
	commission = valueobject.RoundSettlement(
		cost.Mul(a.CommissionRate).Div(decimal.NewFromInt(100)))
	remainder = cost.Sub(commission)
	return commission, remainder
}
