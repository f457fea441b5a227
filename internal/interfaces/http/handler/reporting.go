package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reportingapp "github.com/resellbill/backend/internal/application/reporting"
	"github.com/resellbill/backend/internal/domain/ledger"
)

// JournalReporter answers read-only queries over the transaction journal
type JournalReporter interface {
	QueryTransactions(ctx context.Context, filter ledger.QueryFilter) ([]*ledger.TransactionRecord, error)
	Summarize(ctx context.Context, filter ledger.QueryFilter) (ledger.AggregateResult, error)
	GetOverview(ctx context.Context, accountID uuid.UUID) (*reportingapp.AccountOverview, error)
}

// ReportingHandler handles reporting and dashboard API endpoints
type ReportingHandler struct {
	BaseHandler
	reports JournalReporter
}

// NewReportingHandler creates a new ReportingHandler
func NewReportingHandler(reports JournalReporter) *ReportingHandler {
	return &ReportingHandler{
		reports: reports,
	}
}

// SummaryResponse represents aggregated journal totals
// @Description Aggregated totals over matching transactions
type SummaryResponse struct {
	Count           int64  `json:"count" example:"42"`
	TotalCost       string `json:"total_cost" example:"123.45"`
	TotalRevenue    string `json:"total_revenue" example:"98.76"`
	TotalCommission string `json:"total_commission" example:"24.69"`
}

// OverviewResponse represents the dashboard snapshot for one account
// @Description Account dashboard overview
type OverviewResponse struct {
	AccountID      string          `json:"account_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name           string          `json:"name" example:"Acme Platform"`
	Kind           string          `json:"kind" example:"OPERATOR"`
	CreditBalance  string          `json:"credit_balance" example:"1000"`
	Billed         SummaryResponse `json:"billed"`
	EarnedShare    string          `json:"earned_share" example:"98.76"`
	FailedAttempts int64           `json:"failed_attempts" example:"3"`
	SubmasterCount int64           `json:"submaster_count" example:"5"`
}

func summaryResponseFrom(agg ledger.AggregateResult) SummaryResponse {
	return SummaryResponse{
		Count:           agg.Count,
		TotalCost:       agg.TotalCost.String(),
		TotalRevenue:    agg.TotalRevenue.String(),
		TotalCommission: agg.TotalCommission.String(),
	}
}

// filterFromQuery builds a journal filter from request query parameters.
// Unknown or empty parameters are left unset so the filter stays permissive.
func (h *ReportingHandler) filterFromQuery(c *gin.Context) (ledger.QueryFilter, bool) {
	var filter ledger.QueryFilter

	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid user_id format")
			return filter, false
		}
		filter.UserID = &id
	}
	if raw := c.Query("submaster_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid submaster_id format")
			return filter, false
		}
		filter.SubmasterID = &id
	}
	if raw := c.Query("type"); raw != "" {
		txType := ledger.TransactionType(raw)
		if !txType.IsValid() {
			h.BadRequest(c, "Invalid transaction type. Use token, compute or credit_transfer")
			return filter, false
		}
		filter.Type = &txType
	}
	if raw := c.Query("status"); raw != "" {
		status := ledger.TransactionStatus(raw)
		if status != ledger.StatusSuccess && status != ledger.StatusFailed {
			h.BadRequest(c, "Invalid status. Use success or failed")
			return filter, false
		}
		filter.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "Invalid from timestamp. Use RFC3339")
			return filter, false
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "Invalid to timestamp. Use RFC3339")
			return filter, false
		}
		filter.To = &to
	}

	return filter, true
}

// QueryTransactions godoc
// @ID           queryTransactions
// @Summary      Query journal transactions
// @Tags         reports
// @Produce      json
// @Param        user_id query string false "Owning operator account ID" format(uuid)
// @Param        submaster_id query string false "Acting submaster account ID" format(uuid)
// @Param        type query string false "Transaction type" Enums(token, compute, credit_transfer)
// @Param        status query string false "Transaction status" Enums(success, failed)
// @Param        from query string false "Start of time range (RFC3339, inclusive)"
// @Param        to query string false "End of time range (RFC3339, inclusive)"
// @Success      200 {object} APIResponse[[]TransactionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /reports/transactions [get]
func (h *ReportingHandler) QueryTransactions(c *gin.Context) {
	filter, ok := h.filterFromQuery(c)
	if !ok {
		return
	}

	records, err := h.reports.QueryTransactions(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]TransactionResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, transactionResponseFrom(record))
	}
	h.Success(c, responses)
}

// Summarize godoc
// @ID           summarizeTransactions
// @Summary      Aggregate journal transactions into totals
// @Tags         reports
// @Produce      json
// @Param        user_id query string false "Owning operator account ID" format(uuid)
// @Param        submaster_id query string false "Acting submaster account ID" format(uuid)
// @Param        type query string false "Transaction type" Enums(token, compute, credit_transfer)
// @Param        status query string false "Transaction status" Enums(success, failed)
// @Param        from query string false "Start of time range (RFC3339, inclusive)"
// @Param        to query string false "End of time range (RFC3339, inclusive)"
// @Success      200 {object} APIResponse[SummaryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /reports/summary [get]
func (h *ReportingHandler) Summarize(c *gin.Context) {
	filter, ok := h.filterFromQuery(c)
	if !ok {
		return
	}

	agg, err := h.reports.Summarize(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summaryResponseFrom(agg))
}

// GetOverview godoc
// @ID           getAccountOverview
// @Summary      Get the dashboard overview for an account
// @Tags         reports
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} APIResponse[OverviewResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /reports/accounts/{id}/overview [get]
func (h *ReportingHandler) GetOverview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	overview, err := h.reports.GetOverview(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, OverviewResponse{
		AccountID:      overview.AccountID.String(),
		Name:           overview.Name,
		Kind:           string(overview.Kind),
		CreditBalance:  overview.CreditBalance.String(),
		Billed:         summaryResponseFrom(overview.Billed),
		EarnedShare:    overview.EarnedShare().String(),
		FailedAttempts: overview.FailedAttempts,
		SubmasterCount: overview.SubmasterCount,
	})
}

// RegisterRoutes registers reporting routes
func (h *ReportingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	{
		reports.GET("/transactions", h.QueryTransactions)
		reports.GET("/summary", h.Summarize)
		reports.GET("/accounts/:id/overview", h.GetOverview)
	}
}
