package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/resellbill/backend/internal/domain/pricing"
	"github.com/resellbill/backend/internal/domain/shared"
	"github.com/resellbill/backend/internal/infrastructure/persistence/models"
)

// GormRateCardRepository implements pricing.RateCardRepository using GORM
type GormRateCardRepository struct {
	db *gorm.DB
}

// NewGormRateCardRepository creates a new GormRateCardRepository
func NewGormRateCardRepository(db *gorm.DB) *GormRateCardRepository {
	return &GormRateCardRepository{db: db}
}

// Create persists a new rate card
func (r *GormRateCardRepository) Create(ctx context.Context, card *pricing.RateCard) error {
	model := models.RateCardModelFromDomain(card)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindEffectiveAt returns the card with the latest effective_from at or before
// the given instant. Ties on effective_from resolve to the most recently
// created card.
func (r *GormRateCardRepository) FindEffectiveAt(ctx context.Context, at time.Time) (*pricing.RateCard, error) {
	var model models.RateCardModel
	if err := r.db.WithContext(ctx).
		Where("effective_from <= ?", at).
		Order("effective_from DESC, created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns the full card history, newest first
func (r *GormRateCardRepository) List(ctx context.Context) ([]*pricing.RateCard, error) {
	var cardModels []models.RateCardModel
	if err := r.db.WithContext(ctx).
		Order("effective_from DESC").
		Find(&cardModels).Error; err != nil {
		return nil, err
	}

	cards := make([]*pricing.RateCard, len(cardModels))
	for i := range cardModels {
		cards[i] = cardModels[i].ToDomain()
	}
	return cards, nil
}
