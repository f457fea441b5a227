package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/resellbill/backend/internal/domain/apikey"
	"github.com/resellbill/backend/internal/domain/shared"
	"github.com/resellbill/backend/internal/infrastructure/persistence/models"
)

// GormAPIKeyRepository implements apikey.APIKeyRepository using GORM
type GormAPIKeyRepository struct {
	db *gorm.DB
}

// NewGormAPIKeyRepository creates a new GormAPIKeyRepository
func NewGormAPIKeyRepository(db *gorm.DB) *GormAPIKeyRepository {
	return &GormAPIKeyRepository{db: db}
}

// Create persists a new API key
func (r *GormAPIKeyRepository) Create(ctx context.Context, key *apikey.APIKey) error {
	model := models.APIKeyModelFromDomain(key)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByKey finds a key by its opaque key string
func (r *GormAPIKeyRepository) FindByKey(ctx context.Context, key string) (*apikey.APIKey, error) {
	var model models.APIKeyModel
	if err := r.db.WithContext(ctx).First(&model, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByAccount returns the keys issued to an account, newest first
func (r *GormAPIKeyRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*apikey.APIKey, error) {
	var keyModels []models.APIKeyModel
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&keyModels).Error; err != nil {
		return nil, err
	}

	keys := make([]*apikey.APIKey, len(keyModels))
	for i := range keyModels {
		keys[i] = keyModels[i].ToDomain()
	}
	return keys, nil
}

// CountByAccount counts the keys issued to an account
func (r *GormAPIKeyRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.APIKeyModel{}).
		Where("account_id = ?", accountID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// TouchLastUsed records a successful use
func (r *GormAPIKeyRepository) TouchLastUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.APIKeyModel{}).
		Where("id = ?", id).
		Update("last_used_at", usedAt).Error
}

// Deactivate revokes a key
func (r *GormAPIKeyRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.APIKeyModel{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
