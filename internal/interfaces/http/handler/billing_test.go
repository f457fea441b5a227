package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billingapp "github.com/resellbill/backend/internal/application/billing"
	"github.com/resellbill/backend/internal/domain/account"
	"github.com/resellbill/backend/internal/domain/ledger"
	"github.com/resellbill/backend/internal/domain/shared"
	"github.com/resellbill/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockUsageBiller is a mock implementation of UsageBiller
type mockUsageBiller struct {
	record    *ledger.TransactionRecord
	err       error
	lastEvent ledger.UsageEvent
	lastInput billingapp.TransferInput
}

func (m *mockUsageBiller) RecordUsage(ctx context.Context, event ledger.UsageEvent) (*ledger.TransactionRecord, error) {
	m.lastEvent = event
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func (m *mockUsageBiller) Transfer(ctx context.Context, input billingapp.TransferInput) (*ledger.TransactionRecord, error) {
	m.lastInput = input
	if m.err != nil {
		return nil, m.err
	}
	return m.record, nil
}

func testOperator(t *testing.T) *account.Account {
	t.Helper()
	acct, err := account.NewOperatorAccount("Acme Platform", "ops@acme.example.com")
	require.NoError(t, err)
	return acct.WithCreditBalance(decimal.NewFromInt(1000))
}

func testTokenRecord(t *testing.T, userID uuid.UUID) *ledger.TransactionRecord {
	t.Helper()
	record, err := ledger.NewTransactionRecord(userID, ledger.TypeToken, decimal.NewFromFloat(12.5), time.Now())
	require.NoError(t, err)
	return record.WithUsage(1000, 500, decimal.Zero)
}

// serveAuthed dispatches a request through a single-route router that injects
// the given account the way the API key middleware would
func serveAuthed(method, path string, body []byte, acct *account.Account, h gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.Handle(method, path, func(c *gin.Context) {
		if acct != nil {
			c.Set(middleware.AuthAccountKey, acct)
		}
		h(c)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestBillingHandler_RecordUsage(t *testing.T) {
	operator := testOperator(t)
	record := testTokenRecord(t, operator.ID)

	tests := []struct {
		name           string
		body           string
		actor          *account.Account
		mock           *mockUsageBiller
		expectedStatus int
		expectSuccess  bool
		expectedCode   string
	}{
		{
			name:           "valid usage event",
			body:           `{"input_tokens": 1000, "output_tokens": 500, "request_id": "req-1"}`,
			actor:          operator,
			mock:           &mockUsageBiller{record: record},
			expectedStatus: http.StatusCreated,
			expectSuccess:  true,
		},
		{
			name:           "unauthenticated",
			body:           `{"input_tokens": 1000}`,
			actor:          nil,
			mock:           &mockUsageBiller{},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "ERR_UNAUTHORIZED",
		},
		{
			name:           "negative tokens rejected by validation",
			body:           `{"input_tokens": -5}`,
			actor:          operator,
			mock:           &mockUsageBiller{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "ERR_VALIDATION",
		},
		{
			name:           "negative compute seconds rejected by validation",
			body:           `{"compute_seconds": "-1.5"}`,
			actor:          operator,
			mock:           &mockUsageBiller{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "ERR_VALIDATION",
		},
		{
			name:           "malformed compute seconds",
			body:           `{"compute_seconds": "a lot"}`,
			actor:          operator,
			mock:           &mockUsageBiller{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "ERR_INVALID_JSON",
		},
		{
			name:           "malformed timestamp",
			body:           `{"input_tokens": 10, "request_timestamp": "yesterday"}`,
			actor:          operator,
			mock:           &mockUsageBiller{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "ERR_BAD_REQUEST",
		},
		{
			name:           "insufficient credit",
			body:           `{"input_tokens": 1000000}`,
			actor:          operator,
			mock:           &mockUsageBiller{err: shared.ErrInsufficientCredit},
			expectedStatus: http.StatusPaymentRequired,
			expectedCode:   "INSUFFICIENT_CREDIT",
		},
		{
			name:           "empty usage rejected by service",
			body:           `{}`,
			actor:          operator,
			mock:           &mockUsageBiller{err: shared.NewDomainError("EMPTY_USAGE", "Usage event must meter something")},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "EMPTY_USAGE",
		},
		{
			name:           "internal error",
			body:           `{"input_tokens": 10}`,
			actor:          operator,
			mock:           &mockUsageBiller{err: errors.New("db down")},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "ERR_INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBillingHandler(tt.mock)
			w := serveAuthed("POST", "/billing/usage", []byte(tt.body), tt.actor, h.RecordUsage)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp struct {
				Success bool                `json:"success"`
				Data    TransactionResponse `json:"data"`
				Error   *struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			err := json.Unmarshal(w.Body.Bytes(), &resp)
			require.NoError(t, err)

			if tt.expectSuccess {
				assert.True(t, resp.Success)
				assert.Equal(t, record.ID.String(), resp.Data.ID)
				assert.Equal(t, "12.5", resp.Data.Cost)
			} else {
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.expectedCode, resp.Error.Code)
			}
		})
	}
}

func TestBillingHandler_RecordUsage_ActorFromAuth(t *testing.T) {
	operator := testOperator(t)
	mock := &mockUsageBiller{record: testTokenRecord(t, operator.ID)}
	h := NewBillingHandler(mock)

	body := `{"input_tokens": 7, "output_tokens": 3, "compute_seconds": 1.5, "request_id": "req-42"}`
	w := serveAuthed("POST", "/billing/usage", []byte(body), operator, h.RecordUsage)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, operator.ID, mock.lastEvent.ActorAccountID)
	assert.Equal(t, int64(7), mock.lastEvent.InputTokens)
	assert.Equal(t, int64(3), mock.lastEvent.OutputTokens)
	assert.True(t, mock.lastEvent.ComputeSeconds.Equal(decimal.NewFromFloat(1.5)))
	assert.Equal(t, "req-42", mock.lastEvent.RequestID)
}

func TestBillingHandler_StringDecimalsRoundTripExactly(t *testing.T) {
	operator := testOperator(t)

	t.Run("usage compute seconds", func(t *testing.T) {
		mock := &mockUsageBiller{record: testTokenRecord(t, operator.ID)}
		h := NewBillingHandler(mock)

		body := `{"input_tokens": 1, "compute_seconds": "0.1"}`
		w := serveAuthed("POST", "/billing/usage", []byte(body), operator, h.RecordUsage)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "0.1", mock.lastEvent.ComputeSeconds.String())
	})

	t.Run("transfer amount", func(t *testing.T) {
		record, err := ledger.NewTransactionRecord(operator.ID, ledger.TypeCreditTransfer, decimal.NewFromFloat(10.05), time.Now())
		require.NoError(t, err)
		mock := &mockUsageBiller{record: record}
		h := NewBillingHandler(mock)

		body := `{"to_account_id": "` + uuid.NewString() + `", "amount": "10.05"}`
		w := serveAuthed("POST", "/billing/transfers", []byte(body), operator, h.Transfer)

		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "10.05", mock.lastInput.Amount.String())
	})
}

func TestBillingHandler_Transfer(t *testing.T) {
	operator := testOperator(t)
	toID := uuid.New()
	record, err := ledger.NewTransactionRecord(operator.ID, ledger.TypeCreditTransfer, decimal.NewFromInt(50), time.Now())
	require.NoError(t, err)

	tests := []struct {
		name           string
		body           string
		actor          *account.Account
		mock           *mockUsageBiller
		expectedStatus int
		expectSuccess  bool
		expectedCode   string
	}{
		{
			name:           "valid transfer",
			body:           `{"to_account_id": "` + toID.String() + `", "amount": 50}`,
			actor:          operator,
			mock:           &mockUsageBiller{record: record},
			expectedStatus: http.StatusCreated,
			expectSuccess:  true,
		},
		{
			name:           "unauthenticated",
			body:           `{"to_account_id": "` + toID.String() + `", "amount": 50}`,
			actor:          nil,
			mock:           &mockUsageBiller{},
			expectedStatus: http.StatusUnauthorized,
			expectedCode:   "ERR_UNAUTHORIZED",
		},
		{
			name:           "missing amount",
			body:           `{"to_account_id": "` + toID.String() + `"}`,
			actor:          operator,
			mock:           &mockUsageBiller{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "ERR_VALIDATION",
		},
		{
			name:           "non-positive amount rejected by validation",
			body:           `{"to_account_id": "` + toID.String() + `", "amount": "-5"}`,
			actor:          operator,
			mock:           &mockUsageBiller{},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "ERR_VALIDATION",
		},
		{
			name:           "self transfer rejected by service",
			body:           `{"to_account_id": "` + operator.ID.String() + `", "amount": 10}`,
			actor:          operator,
			mock:           &mockUsageBiller{err: shared.NewDomainError("TRANSFER_SAME_ACCOUNT", "Cannot transfer credit to the same account")},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedCode:   "TRANSFER_SAME_ACCOUNT",
		},
		{
			name:           "insufficient credit",
			body:           `{"to_account_id": "` + toID.String() + `", "amount": 99999}`,
			actor:          operator,
			mock:           &mockUsageBiller{err: shared.ErrInsufficientCredit},
			expectedStatus: http.StatusPaymentRequired,
			expectedCode:   "INSUFFICIENT_CREDIT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewBillingHandler(tt.mock)
			w := serveAuthed("POST", "/billing/transfers", []byte(tt.body), tt.actor, h.Transfer)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp struct {
				Success bool `json:"success"`
				Error   *struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			err := json.Unmarshal(w.Body.Bytes(), &resp)
			require.NoError(t, err)

			if tt.expectSuccess {
				assert.True(t, resp.Success)
				assert.Equal(t, operator.ID, tt.mock.lastInput.FromAccountID)
				assert.Equal(t, toID, tt.mock.lastInput.ToAccountID)
				assert.True(t, tt.mock.lastInput.Amount.Equal(decimal.NewFromInt(50)))
			} else {
				assert.False(t, resp.Success)
				require.NotNil(t, resp.Error)
				assert.Equal(t, tt.expectedCode, resp.Error.Code)
			}
		})
	}
}
