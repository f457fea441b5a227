package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellbill/backend/internal/domain/account"
)

// AccountModel is the persistence model for billed accounts
type AccountModel struct {
	BaseModel
	Name           string          `gorm:"size:255;not null"`
	Email          string          `gorm:"size:255;not null;uniqueIndex"`
	Kind           string          `gorm:"size:20;not null;index"`
	Status         string          `gorm:"size:20;not null;index"`
	ParentID       *uuid.UUID      `gorm:"type:uuid;index"`
	CommissionRate decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	CreditBalance  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalRevenue   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalCosts     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName specifies the table name
func (AccountModel) TableName() string {
	return "accounts"
}

// ToDomain converts the model to a domain Account
func (m *AccountModel) ToDomain() *account.Account {
	return &account.Account{
		BaseEntity:     m.BaseModel.ToDomain(),
		Name:           m.Name,
		Email:          m.Email,
		Kind:           account.AccountKind(m.Kind),
		Status:         account.AccountStatus(m.Status),
		ParentID:       m.ParentID,
		CommissionRate: m.CommissionRate,
		CreditBalance:  m.CreditBalance,
		TotalRevenue:   m.TotalRevenue,
		TotalCosts:     m.TotalCosts,
	}
}

// AccountModelFromDomain converts a domain Account to the persistence model
func AccountModelFromDomain(a *account.Account) *AccountModel {
	m := &AccountModel{
		Name:           a.Name,
		Email:          a.Email,
		Kind:           string(a.Kind),
		Status:         string(a.Status),
		ParentID:       a.ParentID,
		CommissionRate: a.CommissionRate,
		CreditBalance:  a.CreditBalance,
		TotalRevenue:   a.TotalRevenue,
		TotalCosts:     a.TotalCosts,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}
