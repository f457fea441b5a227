package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellbill/backend/internal/domain/shared"
	"github.com/resellbill/backend/internal/domain/shared/valueobject"
)

// Pricing domain errors
var (
	// ErrInvalidRate indicates a rate card with a negative rate
	ErrInvalidRate = shared.NewDomainError("INVALID_RATE", "Rates cannot be negative")
	// ErrNoActiveRate indicates no rate card is in force right now
	ErrNoActiveRate = shared.NewDomainError("NO_ACTIVE_RATE", "No rate card is currently in force")
	// ErrNoRateForTime indicates the requested instant predates every rate card
	ErrNoRateForTime = shared.NewDomainError("NO_RATE_FOR_TIME", "No rate card was in force at the requested time")
)

// RateCard is a time-scoped price list for token and compute consumption.
// A card is immutable once created; publishing a new card supersedes the
// current one without mutating history, so past transactions stay
// reproducible from the card in force at their timestamp.
type RateCard struct {
	shared.BaseEntity
	InTokenRate   decimal.Decimal // price per input token
	OutTokenRate  decimal.Decimal // price per output token
	ComputeRate   decimal.Decimal // price per compute second
	EffectiveFrom time.Time       // instant this card takes effect
	CreatedBy     *uuid.UUID      // admin who published the card
}

// NewRateCard creates a rate card, rejecting negative rates
func NewRateCard(inTokenRate, outTokenRate, computeRate decimal.Decimal, effectiveFrom time.Time) (*RateCard, error) {
	if inTokenRate.IsNegative() || outTokenRate.IsNegative() || computeRate.IsNegative() {
		return nil, ErrInvalidRate
	}
	if effectiveFrom.IsZero() {
		effectiveFrom = time.Now()
	}
	return &RateCard{
		BaseEntity:    shared.NewBaseEntity(),
		InTokenRate:   inTokenRate,
		OutTokenRate:  outTokenRate,
		ComputeRate:   computeRate,
		EffectiveFrom: effectiveFrom,
	}, nil
}

// WithCreatedBy sets the publishing admin
func (r *RateCard) WithCreatedBy(actorID uuid.UUID) *RateCard {
	r.CreatedBy = &actorID
	return r
}

// IsEffectiveAt returns true if the card had taken effect at the given instant
func (r *RateCard) IsEffectiveAt(t time.Time) bool {
	return !r.EffectiveFrom.After(t)
}

// CostOf prices one usage event against this card, rounded half-even to the
// settlement precision. The same rounding is applied everywhere a charge is
// derived so per-record and aggregate totals cannot drift.
func (r *RateCard) CostOf(inputTokens, outputTokens int64, computeSeconds decimal.Decimal) decimal.Decimal {
	cost := r.InTokenRate.Mul(decimal.NewFromInt(inputTokens)).
		Add(r.OutTokenRate.Mul(decimal.NewFromInt(outputTokens))).
		Add(r.ComputeRate.Mul(computeSeconds))
	return valueobject.RoundSettlement(cost)
}
