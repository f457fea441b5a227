package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellbill/backend/internal/domain/ledger"
)

// TransactionRecordModel is the persistence model for journaled transactions.
// Rows are append-only; there is no update path.
type TransactionRecordModel struct {
	BaseModel
	RequestID      *string         `gorm:"size:255;uniqueIndex"`
	SubmasterID    *uuid.UUID      `gorm:"type:uuid;index"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type           string          `gorm:"size:30;not null;index"`
	InputTokens    int64           `gorm:"not null"`
	OutputTokens   int64           `gorm:"not null"`
	ComputeSeconds decimal.Decimal `gorm:"type:decimal(18,6);not null"`
	Cost           decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Revenue        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Commission     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Timestamp      time.Time       `gorm:"not null;index"`
	Status         string          `gorm:"size:20;not null;index"`
}

// TableName specifies the table name
func (TransactionRecordModel) TableName() string {
	return "transaction_records"
}

// ToDomain converts the model to a domain TransactionRecord
func (m *TransactionRecordModel) ToDomain() *ledger.TransactionRecord {
	return &ledger.TransactionRecord{
		BaseEntity:     m.BaseModel.ToDomain(),
		RequestID:      m.RequestID,
		SubmasterID:    m.SubmasterID,
		UserID:         m.UserID,
		Type:           ledger.TransactionType(m.Type),
		InputTokens:    m.InputTokens,
		OutputTokens:   m.OutputTokens,
		ComputeSeconds: m.ComputeSeconds,
		Cost:           m.Cost,
		Revenue:        m.Revenue,
		Commission:     m.Commission,
		Timestamp:      m.Timestamp,
		Status:         ledger.TransactionStatus(m.Status),
	}
}

// TransactionRecordModelFromDomain converts a domain TransactionRecord to the
// persistence model
func TransactionRecordModelFromDomain(r *ledger.TransactionRecord) *TransactionRecordModel {
	m := &TransactionRecordModel{
		RequestID:      r.RequestID,
		SubmasterID:    r.SubmasterID,
		UserID:         r.UserID,
		Type:           string(r.Type),
		InputTokens:    r.InputTokens,
		OutputTokens:   r.OutputTokens,
		ComputeSeconds: r.ComputeSeconds,
		Cost:           r.Cost,
		Revenue:        r.Revenue,
		Commission:     r.Commission,
		Timestamp:      r.Timestamp,
		Status:         string(r.Status),
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}
