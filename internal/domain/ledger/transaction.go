package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/resellbill/backend/internal/domain/shared"
)

// TransactionType enumerates the kinds of journaled transactions
type TransactionType string

const (
	// TypeToken bills token consumption (input and/or output tokens)
	TypeToken TransactionType = "token"
	// TypeCompute bills pure compute time
	TypeCompute TransactionType = "compute"
	// TypeCreditTransfer moves credit between two accounts
	TypeCreditTransfer TransactionType = "credit_transfer"
)

// IsValid returns true if the transaction type is a known value
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeToken, TypeCompute, TypeCreditTransfer:
		return true
	}
	return false
}

// TransactionStatus enumerates transaction outcomes
type TransactionStatus string

const (
	StatusSuccess TransactionStatus = "success"
	StatusFailed  TransactionStatus = "failed"
)

// TransactionRecord is the immutable, append-only record of one priced event.
// Once appended it is never mutated - corrections are new, compensating
// records. Failed billing attempts are journaled too, with StatusFailed and no
// balance change, so no usage event is ever silently discarded.
//
// For usage events Revenue is the share recognized to the owning operator and
// Commission the share recognized to the submaster; the two always sum to
// Cost. Direct operator usage carries the full cost as Revenue and zero
// Commission.
type TransactionRecord struct {
	shared.BaseEntity
	RequestID      *string    // client-generated idempotency key, unique when set
	SubmasterID    *uuid.UUID // acting reseller, nil for direct operator usage
	UserID         uuid.UUID  // owning operator account
	Type           TransactionType
	InputTokens    int64
	OutputTokens   int64
	ComputeSeconds decimal.Decimal
	Cost           decimal.Decimal
	Revenue        decimal.Decimal
	Commission     decimal.Decimal
	Timestamp      time.Time
	Status         TransactionStatus
}

// NewTransactionRecord creates a journal record for a priced usage event
func NewTransactionRecord(
	userID uuid.UUID,
	txType TransactionType,
	cost decimal.Decimal,
	timestamp time.Time,
) (*TransactionRecord, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if cost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	return &TransactionRecord{
		BaseEntity:     shared.NewBaseEntity(),
		UserID:         userID,
		Type:           txType,
		ComputeSeconds: decimal.Zero,
		Cost:           cost,
		Revenue:        decimal.Zero,
		Commission:     decimal.Zero,
		Timestamp:      timestamp,
		Status:         StatusSuccess,
	}, nil
}

// WithRequestID attaches the client idempotency key
func (r *TransactionRecord) WithRequestID(requestID string) *TransactionRecord {
	if requestID != "" {
		r.RequestID = &requestID
	}
	return r
}

// ClearRequestID detaches the idempotency key so a retry of the same request
// can bill again
func (r *TransactionRecord) ClearRequestID() *TransactionRecord {
	r.RequestID = nil
	return r
}

// WithSubmaster attaches the acting reseller
func (r *TransactionRecord) WithSubmaster(submasterID uuid.UUID) *TransactionRecord {
	r.SubmasterID = &submasterID
	return r
}

// WithUsage records the metered quantities
func (r *TransactionRecord) WithUsage(inputTokens, outputTokens int64, computeSeconds decimal.Decimal) *TransactionRecord {
	r.InputTokens = inputTokens
	r.OutputTokens = outputTokens
	r.ComputeSeconds = computeSeconds
	return r
}

// WithSplit records the revenue split between operator and submaster
func (r *TransactionRecord) WithSplit(revenue, commission decimal.Decimal) *TransactionRecord {
	r.Revenue = revenue
	r.Commission = commission
	return r
}

// MarkFailed marks the billing attempt as rejected; the cost stays recorded
// for audit while no balance change took place
func (r *TransactionRecord) MarkFailed() *TransactionRecord {
	r.Status = StatusFailed
	r.Revenue = decimal.Zero
	r.Commission = decimal.Zero
	return r
}

// IsSuccess returns true if the postings for this record were committed
func (r *TransactionRecord) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// RecognizedRevenue returns the total revenue this record recognized
func (r *TransactionRecord) RecognizedRevenue() decimal.Decimal {
	return r.Revenue.Add(r.Commission)
}
