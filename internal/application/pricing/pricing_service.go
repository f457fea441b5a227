package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/resellbill/backend/internal/domain/pricing"
	"github.com/resellbill/backend/internal/domain/shared"
)

// SetRateInput groups the fields for publishing a new rate card
type SetRateInput struct {
	InTokenRate   decimal.Decimal
	OutTokenRate  decimal.Decimal
	ComputeRate   decimal.Decimal
	EffectiveFrom time.Time // zero means effective immediately
	ActorID       uuid.UUID
}

// PricingService manages the versioned rate card catalog. Reads are
// lock-free: a usage event prices against whichever card was current at the
// instant it read, and publishing a new card never touches history.
type PricingService struct {
	rateRepo pricing.RateCardRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewPricingService creates a new PricingService
func NewPricingService(rateRepo pricing.RateCardRepository, logger *zap.Logger) *PricingService {
	return &PricingService{
		rateRepo: rateRepo,
		logger:   logger,
		now:      time.Now,
	}
}

// WithNow overrides the clock for testing
func (s *PricingService) WithNow(now func() time.Time) *PricingService {
	if now != nil {
		s.now = now
	}
	return s
}

// GetCurrentRate returns the rate card in force right now.
// The system must always be seeded with at least one card.
func (s *PricingService) GetCurrentRate(ctx context.Context) (*pricing.RateCard, error) {
	card, err := s.rateRepo.FindEffectiveAt(ctx, s.now())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, pricing.ErrNoActiveRate
		}
		return nil, err
	}
	return card, nil
}

// GetRateAt returns the card in force at an arbitrary past instant, for
// recomputation and audit
func (s *PricingService) GetRateAt(ctx context.Context, at time.Time) (*pricing.RateCard, error) {
	card, err := s.rateRepo.FindEffectiveAt(ctx, at)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, pricing.ErrNoRateForTime
		}
		return nil, err
	}
	return card, nil
}

// SetRate publishes a new rate card. If EffectiveFrom is in the past or zero
// the card immediately supersedes the current one; the prior card becomes
// historical and is never mutated.
func (s *PricingService) SetRate(ctx context.Context, input SetRateInput) (*pricing.RateCard, error) {
	effectiveFrom := input.EffectiveFrom
	if effectiveFrom.IsZero() {
		effectiveFrom = s.now()
	}

	card, err := pricing.NewRateCard(input.InTokenRate, input.OutTokenRate, input.ComputeRate, effectiveFrom)
	if err != nil {
		return nil, err
	}
	if input.ActorID != uuid.Nil {
		card.WithCreatedBy(input.ActorID)
	}

	if err := s.rateRepo.Create(ctx, card); err != nil {
		s.logger.Error("Failed to publish rate card", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Rate card published",
		zap.String("rate_card_id", card.ID.String()),
		zap.String("in_token_rate", card.InTokenRate.String()),
		zap.String("out_token_rate", card.OutTokenRate.String()),
		zap.String("compute_rate", card.ComputeRate.String()),
		zap.Time("effective_from", card.EffectiveFrom))

	return card, nil
}

// ListRates returns the full card history, newest first
func (s *PricingService) ListRates(ctx context.Context) ([]*pricing.RateCard, error) {
	return s.rateRepo.List(ctx)
}
