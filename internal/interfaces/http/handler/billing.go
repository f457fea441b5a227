package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	billingapp "github.com/resellbill/backend/internal/application/billing"
	"github.com/resellbill/backend/internal/domain/ledger"
	"github.com/resellbill/backend/internal/interfaces/http/dto"
	"github.com/resellbill/backend/internal/interfaces/http/middleware"
)

// UsageBiller prices usage events and moves credit between accounts
type UsageBiller interface {
	RecordUsage(ctx context.Context, event ledger.UsageEvent) (*ledger.TransactionRecord, error)
	Transfer(ctx context.Context, input billingapp.TransferInput) (*ledger.TransactionRecord, error)
}

// BillingHandler handles usage metering and credit transfer API endpoints
type BillingHandler struct {
	BaseHandler
	billing UsageBiller
}

// NewBillingHandler creates a new BillingHandler
func NewBillingHandler(billing UsageBiller) *BillingHandler {
	return &BillingHandler{
		billing: billing,
	}
}

// RecordUsageRequest represents a metered usage submission. Decimal fields
// accept JSON numbers or strings; strings round-trip without float loss.
// @Description Request body for submitting a usage event
type RecordUsageRequest struct {
	InputTokens      int64           `json:"input_tokens" binding:"gte=0" example:"1000"`
	OutputTokens     int64           `json:"output_tokens" binding:"gte=0" example:"500"`
	ComputeSeconds   decimal.Decimal `json:"compute_seconds" swaggertype:"string" example:"12.5"`
	RequestTimestamp string          `json:"request_timestamp" binding:"omitempty" example:"2026-08-01T10:00:00Z"`
	RequestID        string          `json:"request_id" binding:"max=255" example:"req-20260801-0001"`
}

// TransferRequest represents a credit transfer to another account
// @Description Request body for transferring credit
type TransferRequest struct {
	ToAccountID string          `json:"to_account_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount      decimal.Decimal `json:"amount" binding:"required" swaggertype:"string" example:"50.00"`
	RequestID   string          `json:"request_id" binding:"max=255" example:"xfer-20260801-0001"`
}

// TransactionResponse represents a journaled transaction in API responses
// @Description Journaled transaction record
type TransactionResponse struct {
	ID             string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	RequestID      *string `json:"request_id,omitempty" example:"req-20260801-0001"`
	UserID         string  `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	SubmasterID    *string `json:"submaster_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440002"`
	Type           string  `json:"type" example:"TOKEN"`
	InputTokens    int64   `json:"input_tokens" example:"1000"`
	OutputTokens   int64   `json:"output_tokens" example:"500"`
	ComputeSeconds string  `json:"compute_seconds" example:"12.5"`
	Cost           string  `json:"cost" example:"12.8"`
	Revenue        string  `json:"revenue" example:"10.24"`
	Commission     string  `json:"commission" example:"2.56"`
	Status         string  `json:"status" example:"SUCCESS"`
	Timestamp      string  `json:"timestamp" example:"2026-08-01T10:00:00Z"`
	CreatedAt      string  `json:"created_at" example:"2026-08-01T10:00:01Z"`
}

// transactionResponseFrom maps a journal record to its API representation
func transactionResponseFrom(r *ledger.TransactionRecord) TransactionResponse {
	resp := TransactionResponse{
		ID:             r.ID.String(),
		RequestID:      r.RequestID,
		UserID:         r.UserID.String(),
		Type:           string(r.Type),
		InputTokens:    r.InputTokens,
		OutputTokens:   r.OutputTokens,
		ComputeSeconds: r.ComputeSeconds.String(),
		Cost:           r.Cost.String(),
		Revenue:        r.Revenue.String(),
		Commission:     r.Commission.String(),
		Status:         string(r.Status),
		Timestamp:      r.Timestamp.UTC().Format(time.RFC3339),
		CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.SubmasterID != nil {
		s := r.SubmasterID.String()
		resp.SubmasterID = &s
	}
	return resp
}

// RecordUsage godoc
// @ID           recordUsage
// @Summary      Submit a usage event
// @Description  Price a metered usage event against the rate card in force, debit the caller's credit balance, and journal the transaction. Resubmitting the same request_id returns the original record without charging again.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        request body RecordUsageRequest true "Usage event"
// @Success      201 {object} APIResponse[TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      402 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /billing/usage [post]
func (h *BillingHandler) RecordUsage(c *gin.Context) {
	actor := middleware.GetAuthAccount(c)
	if actor == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	if req.ComputeSeconds.IsNegative() {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "compute_seconds must be at least 0")
		return
	}

	var requestTimestamp time.Time
	if req.RequestTimestamp != "" {
		parsed, err := time.Parse(time.RFC3339, req.RequestTimestamp)
		if err != nil {
			h.BadRequest(c, "Invalid request_timestamp format. Use RFC3339")
			return
		}
		requestTimestamp = parsed
	}

	event := ledger.UsageEvent{
		ActorAccountID:   actor.ID,
		InputTokens:      req.InputTokens,
		OutputTokens:     req.OutputTokens,
		ComputeSeconds:   req.ComputeSeconds,
		RequestTimestamp: requestTimestamp,
		RequestID:        req.RequestID,
	}

	record, err := h.billing.RecordUsage(c.Request.Context(), event)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, transactionResponseFrom(record))
}

// Transfer godoc
// @ID           transferCredit
// @Summary      Transfer credit to another account
// @Description  Atomically move credit from the caller's account to another account. The debit and credit commit together or not at all.
// @Tags         billing
// @Accept       json
// @Produce      json
// @Param        request body TransferRequest true "Transfer request"
// @Success      201 {object} APIResponse[TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      402 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /billing/transfers [post]
func (h *BillingHandler) Transfer(c *gin.Context) {
	actor := middleware.GetAuthAccount(c)
	if actor == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	toAccountID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		h.BadRequest(c, "Invalid to_account_id format")
		return
	}
	if !req.Amount.IsPositive() {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation, "amount must be greater than 0")
		return
	}

	record, err := h.billing.Transfer(c.Request.Context(), billingapp.TransferInput{
		FromAccountID: actor.ID,
		ToAccountID:   toAccountID,
		Amount:        req.Amount,
		RequestID:     req.RequestID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, transactionResponseFrom(record))
}

// RegisterRoutes registers billing routes
func (h *BillingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	billing := rg.Group("/billing")
	{
		billing.POST("/usage", h.RecordUsage)
		billing.POST("/transfers", h.Transfer)
	}
}
