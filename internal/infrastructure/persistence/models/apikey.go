package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/resellbill/backend/internal/domain/apikey"
)

// APIKeyModel is the persistence model for issued API keys
type APIKeyModel struct {
	BaseModel
	AccountID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Key        string     `gorm:"size:255;not null;uniqueIndex"`
	Name       string     `gorm:"size:255;not null"`
	IsActive   bool       `gorm:"not null;default:true"`
	LastUsedAt *time.Time `gorm:""`
	ExpiresAt  *time.Time `gorm:""`
}

// TableName specifies the table name
func (APIKeyModel) TableName() string {
	return "api_keys"
}

// ToDomain converts the model to a domain APIKey
func (m *APIKeyModel) ToDomain() *apikey.APIKey {
	return &apikey.APIKey{
		BaseEntity: m.BaseModel.ToDomain(),
		AccountID:  m.AccountID,
		Key:        m.Key,
		Name:       m.Name,
		IsActive:   m.IsActive,
		LastUsedAt: m.LastUsedAt,
		ExpiresAt:  m.ExpiresAt,
	}
}

// APIKeyModelFromDomain converts a domain APIKey to the persistence model
func APIKeyModelFromDomain(k *apikey.APIKey) *APIKeyModel {
	m := &APIKeyModel{
		AccountID:  k.AccountID,
		Key:        k.Key,
		Name:       k.Name,
		IsActive:   k.IsActive,
		LastUsedAt: k.LastUsedAt,
		ExpiresAt:  k.ExpiresAt,
	}
	m.FromDomainBaseEntity(k.BaseEntity)
	return m
}
