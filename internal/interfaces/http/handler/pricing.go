package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	pricingapp "github.com/resellbill/backend/internal/application/pricing"
	"github.com/resellbill/backend/internal/domain/pricing"
	"github.com/resellbill/backend/internal/interfaces/http/middleware"
)

// RateCatalog manages the versioned rate card catalog
type RateCatalog interface {
	GetCurrentRate(ctx context.Context) (*pricing.RateCard, error)
	GetRateAt(ctx context.Context, at time.Time) (*pricing.RateCard, error)
	SetRate(ctx context.Context, input pricingapp.SetRateInput) (*pricing.RateCard, error)
	ListRates(ctx context.Context) ([]*pricing.RateCard, error)
}

// PricingHandler handles rate card API endpoints
type PricingHandler struct {
	BaseHandler
	catalog RateCatalog
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(catalog RateCatalog) *PricingHandler {
	return &PricingHandler{
		catalog: catalog,
	}
}

// SetRateRequest represents a request to publish a new rate card
// @Description Request body for publishing a rate card version
type SetRateRequest struct {
	InTokenRate   float64 `json:"in_token_rate" binding:"gte=0" example:"0.01"`
	OutTokenRate  float64 `json:"out_token_rate" binding:"gte=0" example:"0.005"`
	ComputeRate   float64 `json:"compute_rate" binding:"gte=0" example:"0.03"`
	EffectiveFrom string  `json:"effective_from" binding:"omitempty" example:"2026-09-01T00:00:00Z"`
}

// RateCardResponse represents a rate card in API responses
// @Description Rate card version
type RateCardResponse struct {
	ID            string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	InTokenRate   string  `json:"in_token_rate" example:"0.01"`
	OutTokenRate  string  `json:"out_token_rate" example:"0.005"`
	ComputeRate   string  `json:"compute_rate" example:"0.03"`
	EffectiveFrom string  `json:"effective_from" example:"2026-09-01T00:00:00Z"`
	CreatedBy     *string `json:"created_by,omitempty" example:"550e8400-e29b-41d4-a716-446655440001"`
	CreatedAt     string  `json:"created_at" example:"2026-08-15T12:00:00Z"`
}

func rateCardResponseFrom(card *pricing.RateCard) RateCardResponse {
	resp := RateCardResponse{
		ID:            card.ID.String(),
		InTokenRate:   card.InTokenRate.String(),
		OutTokenRate:  card.OutTokenRate.String(),
		ComputeRate:   card.ComputeRate.String(),
		EffectiveFrom: card.EffectiveFrom.UTC().Format(time.RFC3339),
		CreatedAt:     card.CreatedAt.UTC().Format(time.RFC3339),
	}
	if card.CreatedBy != nil {
		s := card.CreatedBy.String()
		resp.CreatedBy = &s
	}
	return resp
}

// GetCurrentRate godoc
// @ID           getCurrentRate
// @Summary      Get the rate card currently in force
// @Tags         pricing
// @Produce      json
// @Success      200 {object} APIResponse[RateCardResponse]
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /pricing/rates/current [get]
func (h *PricingHandler) GetCurrentRate(c *gin.Context) {
	card, err := h.catalog.GetCurrentRate(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rateCardResponseFrom(card))
}

// GetRateAt godoc
// @ID           getRateAt
// @Summary      Get the rate card in force at a given time
// @Tags         pricing
// @Produce      json
// @Param        timestamp query string true "RFC3339 timestamp" example(2026-08-01T10:00:00Z)
// @Success      200 {object} APIResponse[RateCardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /pricing/rates/at [get]
func (h *PricingHandler) GetRateAt(c *gin.Context) {
	timestampStr := c.Query("timestamp")
	if timestampStr == "" {
		h.BadRequest(c, "timestamp query parameter is required")
		return
	}

	at, err := time.Parse(time.RFC3339, timestampStr)
	if err != nil {
		h.BadRequest(c, "Invalid timestamp format. Use RFC3339")
		return
	}

	card, err := h.catalog.GetRateAt(c.Request.Context(), at)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rateCardResponseFrom(card))
}

// ListRates godoc
// @ID           listRates
// @Summary      List all rate card versions, newest first
// @Tags         pricing
// @Produce      json
// @Success      200 {object} APIResponse[[]RateCardResponse]
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /pricing/rates [get]
func (h *PricingHandler) ListRates(c *gin.Context) {
	cards, err := h.catalog.ListRates(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]RateCardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, rateCardResponseFrom(card))
	}
	h.Success(c, responses)
}

// SetRate godoc
// @ID           setRate
// @Summary      Publish a new rate card version
// @Description  Publish a new rate card. Without effective_from the card takes effect immediately. Already-priced transactions are never repriced. Only operator accounts may publish.
// @Tags         pricing
// @Accept       json
// @Produce      json
// @Param        request body SetRateRequest true "Rate card"
// @Success      201 {object} APIResponse[RateCardResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /pricing/rates [post]
func (h *PricingHandler) SetRate(c *gin.Context) {
	actor := middleware.GetAuthAccount(c)
	if actor == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	if actor.IsSubmaster() {
		h.Forbidden(c, "Only operator accounts may publish rate cards")
		return
	}

	var req SetRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	var effectiveFrom time.Time
	if req.EffectiveFrom != "" {
		parsed, err := time.Parse(time.RFC3339, req.EffectiveFrom)
		if err != nil {
			h.BadRequest(c, "Invalid effective_from format. Use RFC3339")
			return
		}
		effectiveFrom = parsed
	}

	card, err := h.catalog.SetRate(c.Request.Context(), pricingapp.SetRateInput{
		InTokenRate:   decimal.NewFromFloat(req.InTokenRate),
		OutTokenRate:  decimal.NewFromFloat(req.OutTokenRate),
		ComputeRate:   decimal.NewFromFloat(req.ComputeRate),
		EffectiveFrom: effectiveFrom,
		ActorID:       actor.ID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, rateCardResponseFrom(card))
}

// RegisterRoutes registers pricing routes
func (h *PricingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rates := rg.Group("/pricing")
	{
		rates.GET("/rates", h.ListRates)
		rates.POST("/rates", h.SetRate)
		rates.GET("/rates/current", h.GetCurrentRate)
		rates.GET("/rates/at", h.GetRateAt)
	}
}
