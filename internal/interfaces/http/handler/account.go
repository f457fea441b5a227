package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	accountapp "github.com/resellbill/backend/internal/application/account"
	"github.com/resellbill/backend/internal/domain/account"
	"github.com/resellbill/backend/internal/domain/apikey"
)

// AccountDirectory manages account registration, lifecycle and API keys
type AccountDirectory interface {
	CreateOperator(ctx context.Context, input accountapp.CreateOperatorInput) (*account.Account, error)
	CreateSubmaster(ctx context.Context, input accountapp.CreateSubmasterInput) (*account.Account, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)
	ListSubmasters(ctx context.Context, parentID uuid.UUID) ([]*account.Account, error)
	SetAccountStatus(ctx context.Context, id uuid.UUID, status account.AccountStatus) error
	IssueAPIKey(ctx context.Context, accountID uuid.UUID, name string, expiresAt *time.Time) (*apikey.APIKey, error)
	ListAPIKeys(ctx context.Context, accountID uuid.UUID) ([]*apikey.APIKey, error)
	RevokeAPIKey(ctx context.Context, keyID uuid.UUID) error
}

// AccountHandler handles account management API endpoints
type AccountHandler struct {
	BaseHandler
	accounts AccountDirectory
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accounts AccountDirectory) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
	}
}

// CreateOperatorRequest represents a request to register an operator account
// @Description Request body for registering an operator
type CreateOperatorRequest struct {
	Name          string   `json:"name" binding:"required,min=1,max=255" example:"Acme Platform"`
	Email         string   `json:"email" binding:"required,email,max=255" example:"ops@acme.example.com"`
	CreditBalance *float64 `json:"credit_balance" binding:"omitempty,gte=0" example:"1000.00"`
}

// CreateSubmasterRequest represents a request to register a reseller account
// @Description Request body for registering a submaster under an operator
type CreateSubmasterRequest struct {
	Name           string   `json:"name" binding:"required,min=1,max=255" example:"Reseller One"`
	Email          string   `json:"email" binding:"required,email,max=255" example:"reseller@example.com"`
	ParentID       string   `json:"parent_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	CommissionRate float64  `json:"commission_rate" binding:"gte=0,lte=100" example:"20"`
	CreditBalance  *float64 `json:"credit_balance" binding:"omitempty,gte=0" example:"100.00"`
}

// SetStatusRequest represents a request to change account status
// @Description Request body for activating or deactivating an account
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE" example:"INACTIVE"`
}

// IssueKeyRequest represents a request to issue an API key
// @Description Request body for issuing an API key
type IssueKeyRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=255" example:"production"`
	ExpiresAt string `json:"expires_at" binding:"omitempty" example:"2027-01-01T00:00:00Z"`
}

// AccountResponse represents an account in API responses
// @Description Billed account
type AccountResponse struct {
	ID             string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name           string  `json:"name" example:"Acme Platform"`
	Email          string  `json:"email" example:"ops@acme.example.com"`
	Kind           string  `json:"kind" example:"OPERATOR"`
	Status         string  `json:"status" example:"ACTIVE"`
	ParentID       *string `json:"parent_id,omitempty" example:"550e8400-e29b-41d4-a716-446655440001"`
	CommissionRate string  `json:"commission_rate" example:"20"`
	CreditBalance  string  `json:"credit_balance" example:"1000"`
	TotalRevenue   string  `json:"total_revenue" example:"0"`
	TotalCosts     string  `json:"total_costs" example:"0"`
	CreatedAt      string  `json:"created_at" example:"2026-08-01T10:00:00Z"`
}

// APIKeyResponse represents an issued API key in API responses.
// The key string itself is only returned on creation.
// @Description Issued API key
type APIKeyResponse struct {
	ID         string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	AccountID  string  `json:"account_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	Key        string  `json:"key,omitempty" example:"sk-abc123"`
	Name       string  `json:"name" example:"production"`
	IsActive   bool    `json:"is_active" example:"true"`
	LastUsedAt *string `json:"last_used_at,omitempty" example:"2026-08-01T10:00:00Z"`
	ExpiresAt  *string `json:"expires_at,omitempty" example:"2027-01-01T00:00:00Z"`
	CreatedAt  string  `json:"created_at" example:"2026-08-01T10:00:00Z"`
}

func accountResponseFrom(a *account.Account) AccountResponse {
	resp := AccountResponse{
		ID:             a.ID.String(),
		Name:           a.Name,
		Email:          a.Email,
		Kind:           string(a.Kind),
		Status:         string(a.Status),
		CommissionRate: a.CommissionRate.String(),
		CreditBalance:  a.CreditBalance.String(),
		TotalRevenue:   a.TotalRevenue.String(),
		TotalCosts:     a.TotalCosts.String(),
		CreatedAt:      a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.ParentID != nil {
		s := a.ParentID.String()
		resp.ParentID = &s
	}
	return resp
}

func apiKeyResponseFrom(k *apikey.APIKey, includeKey bool) APIKeyResponse {
	resp := APIKeyResponse{
		ID:        k.ID.String(),
		AccountID: k.AccountID.String(),
		Name:      k.Name,
		IsActive:  k.IsActive,
		CreatedAt: k.CreatedAt.UTC().Format(time.RFC3339),
	}
	if includeKey {
		resp.Key = k.Key
	}
	if k.LastUsedAt != nil {
		s := k.LastUsedAt.UTC().Format(time.RFC3339)
		resp.LastUsedAt = &s
	}
	if k.ExpiresAt != nil {
		s := k.ExpiresAt.UTC().Format(time.RFC3339)
		resp.ExpiresAt = &s
	}
	return resp
}

// CreateOperator godoc
// @ID           createOperator
// @Summary      Register an operator account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body CreateOperatorRequest true "Operator account"
// @Success      201 {object} APIResponse[AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /accounts/operators [post]
func (h *AccountHandler) CreateOperator(c *gin.Context) {
	var req CreateOperatorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	input := accountapp.CreateOperatorInput{
		Name:  req.Name,
		Email: req.Email,
	}
	if req.CreditBalance != nil {
		balance := decimal.NewFromFloat(*req.CreditBalance)
		input.CreditBalance = &balance
	}

	acct, err := h.accounts.CreateOperator(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, accountResponseFrom(acct))
}

// CreateSubmaster godoc
// @ID           createSubmaster
// @Summary      Register a submaster account under an operator
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        request body CreateSubmasterRequest true "Submaster account"
// @Success      201 {object} APIResponse[AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /accounts/submasters [post]
func (h *AccountHandler) CreateSubmaster(c *gin.Context) {
	var req CreateSubmasterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	parentID, err := uuid.Parse(req.ParentID)
	if err != nil {
		h.BadRequest(c, "Invalid parent_id format")
		return
	}

	input := accountapp.CreateSubmasterInput{
		Name:           req.Name,
		Email:          req.Email,
		ParentID:       parentID,
		CommissionRate: decimal.NewFromFloat(req.CommissionRate),
	}
	if req.CreditBalance != nil {
		balance := decimal.NewFromFloat(*req.CreditBalance)
		input.CreditBalance = &balance
	}

	acct, err := h.accounts.CreateSubmaster(c.Request.Context(), input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, accountResponseFrom(acct))
}

// GetAccount godoc
// @ID           getAccount
// @Summary      Get an account by ID
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} APIResponse[AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /accounts/{id} [get]
func (h *AccountHandler) GetAccount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	acct, err := h.accounts.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, accountResponseFrom(acct))
}

// ListSubmasters godoc
// @ID           listSubmasters
// @Summary      List submasters owned by an operator
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Operator account ID" format(uuid)
// @Success      200 {object} APIResponse[[]AccountResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /accounts/{id}/submasters [get]
func (h *AccountHandler) ListSubmasters(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	submasters, err := h.accounts.ListSubmasters(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]AccountResponse, 0, len(submasters))
	for _, sub := range submasters {
		responses = append(responses, accountResponseFrom(sub))
	}
	h.Success(c, responses)
}

// SetStatus godoc
// @ID           setAccountStatus
// @Summary      Activate or deactivate an account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        request body SetStatusRequest true "New status"
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /accounts/{id}/status [patch]
func (h *AccountHandler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	if err := h.accounts.SetAccountStatus(c.Request.Context(), id, account.AccountStatus(req.Status)); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// IssueAPIKey godoc
// @ID           issueAPIKey
// @Summary      Issue an API key for an account
// @Description  Issue a new API key. The key string is only returned in this response and cannot be retrieved later.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Param        request body IssueKeyRequest true "Key details"
// @Success      201 {object} APIResponse[APIKeyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /accounts/{id}/keys [post]
func (h *AccountHandler) IssueAPIKey(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	var req IssueKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			h.BadRequest(c, "Invalid expires_at format. Use RFC3339")
			return
		}
		expiresAt = &parsed
	}

	key, err := h.accounts.IssueAPIKey(c.Request.Context(), id, req.Name, expiresAt)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, apiKeyResponseFrom(key, true))
}

// ListAPIKeys godoc
// @ID           listAPIKeys
// @Summary      List API keys for an account
// @Tags         accounts
// @Produce      json
// @Param        id path string true "Account ID" format(uuid)
// @Success      200 {object} APIResponse[[]APIKeyResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /accounts/{id}/keys [get]
func (h *AccountHandler) ListAPIKeys(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	keys, err := h.accounts.ListAPIKeys(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]APIKeyResponse, 0, len(keys))
	for _, key := range keys {
		responses = append(responses, apiKeyResponseFrom(key, false))
	}
	h.Success(c, responses)
}

// RevokeAPIKey godoc
// @ID           revokeAPIKey
// @Summary      Revoke an API key
// @Tags         accounts
// @Produce      json
// @Param        keyID path string true "API key ID" format(uuid)
// @Success      204
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     ApiKeyAuth
// @Router       /accounts/keys/{keyID} [delete]
func (h *AccountHandler) RevokeAPIKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("keyID"))
	if err != nil {
		h.BadRequest(c, "Invalid key ID format")
		return
	}

	if err := h.accounts.RevokeAPIKey(c.Request.Context(), keyID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers account routes
func (h *AccountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	accounts := rg.Group("/accounts")
	{
		accounts.POST("/operators", h.CreateOperator)
		accounts.POST("/submasters", h.CreateSubmaster)
		accounts.GET("/:id", h.GetAccount)
		accounts.GET("/:id/submasters", h.ListSubmasters)
		accounts.PATCH("/:id/status", h.SetStatus)
		accounts.POST("/:id/keys", h.IssueAPIKey)
		accounts.GET("/:id/keys", h.ListAPIKeys)
		accounts.DELETE("/keys/:keyID", h.RevokeAPIKey)
	}
}
