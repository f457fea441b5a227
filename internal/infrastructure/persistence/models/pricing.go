package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellbill/backend/internal/domain/pricing"
)

// RateCardModel is the persistence model for versioned rate cards
type RateCardModel struct {
	BaseModel
	InTokenRate   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	OutTokenRate  decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	ComputeRate   decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	EffectiveFrom time.Time       `gorm:"not null;index"`
	CreatedBy     *uuid.UUID      `gorm:"type:uuid"`
}

// TableName specifies the table name
func (RateCardModel) TableName() string {
	return "rate_cards"
}

// ToDomain converts the model to a domain RateCard
func (m *RateCardModel) ToDomain() *pricing.RateCard {
	return &pricing.RateCard{
		BaseEntity:    m.BaseModel.ToDomain(),
		InTokenRate:   m.InTokenRate,
		OutTokenRate:  m.OutTokenRate,
		ComputeRate:   m.ComputeRate,
		EffectiveFrom: m.EffectiveFrom,
		CreatedBy:     m.CreatedBy,
	}
}

// RateCardModelFromDomain converts a domain RateCard to the persistence model
func RateCardModelFromDomain(c *pricing.RateCard) *RateCardModel {
	m := &RateCardModel{
		InTokenRate:   c.InTokenRate,
		OutTokenRate:  c.OutTokenRate,
		ComputeRate:   c.ComputeRate,
		EffectiveFrom: c.EffectiveFrom,
		CreatedBy:     c.CreatedBy,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}
