package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reportingapp "github.com/resellbill/backend/internal/application/reporting"
	"github.com/resellbill/backend/internal/domain/account"
	"github.com/resellbill/backend/internal/domain/ledger"
	"github.com/resellbill/backend/internal/domain/shared"
)

// mockJournalReporter is a mock implementation of JournalReporter
type mockJournalReporter struct {
	records    []*ledger.TransactionRecord
	summary    ledger.AggregateResult
	overview   *reportingapp.AccountOverview
	err        error
	lastFilter ledger.QueryFilter
}

func (m *mockJournalReporter) QueryTransactions(ctx context.Context, filter ledger.QueryFilter) ([]*ledger.TransactionRecord, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func (m *mockJournalReporter) Summarize(ctx context.Context, filter ledger.QueryFilter) (ledger.AggregateResult, error) {
	m.lastFilter = filter
	if m.err != nil {
		return ledger.AggregateResult{}, m.err
	}
	return m.summary, nil
}

func (m *mockJournalReporter) GetOverview(ctx context.Context, accountID uuid.UUID) (*reportingapp.AccountOverview, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.overview, nil
}

func serveGet(h gin.HandlerFunc, routePath, reqPath string) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET(routePath, h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", reqPath, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestReportingHandler_QueryTransactions(t *testing.T) {
	userID := uuid.New()
	record := testTokenRecord(t, userID)

	t.Run("no filters", func(t *testing.T) {
		mock := &mockJournalReporter{records: []*ledger.TransactionRecord{record}}
		h := NewReportingHandler(mock)
		w := serveGet(h.QueryTransactions, "/reports/transactions", "/reports/transactions")

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool                  `json:"success"`
			Data    []TransactionResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, record.ID.String(), resp.Data[0].ID)
		assert.Nil(t, mock.lastFilter.UserID)
		assert.Nil(t, mock.lastFilter.Type)
	})

	t.Run("all filters applied", func(t *testing.T) {
		subID := uuid.New()
		mock := &mockJournalReporter{}
		h := NewReportingHandler(mock)
		path := "/reports/transactions?user_id=" + userID.String() +
			"&submaster_id=" + subID.String() +
			"&type=token&status=success" +
			"&from=2026-08-01T00:00:00Z&to=2026-08-31T23:59:59Z"
		w := serveGet(h.QueryTransactions, "/reports/transactions", path)

		require.Equal(t, http.StatusOK, w.Code)
		require.NotNil(t, mock.lastFilter.UserID)
		assert.Equal(t, userID, *mock.lastFilter.UserID)
		require.NotNil(t, mock.lastFilter.SubmasterID)
		assert.Equal(t, subID, *mock.lastFilter.SubmasterID)
		require.NotNil(t, mock.lastFilter.Type)
		assert.Equal(t, ledger.TypeToken, *mock.lastFilter.Type)
		require.NotNil(t, mock.lastFilter.Status)
		assert.Equal(t, ledger.StatusSuccess, *mock.lastFilter.Status)
		require.NotNil(t, mock.lastFilter.From)
		assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), mock.lastFilter.From.UTC())
		require.NotNil(t, mock.lastFilter.To)
	})

	t.Run("invalid user_id", func(t *testing.T) {
		h := NewReportingHandler(&mockJournalReporter{})
		w := serveGet(h.QueryTransactions, "/reports/transactions", "/reports/transactions?user_id=abc")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown type", func(t *testing.T) {
		h := NewReportingHandler(&mockJournalReporter{})
		w := serveGet(h.QueryTransactions, "/reports/transactions", "/reports/transactions?type=refund")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown status", func(t *testing.T) {
		h := NewReportingHandler(&mockJournalReporter{})
		w := serveGet(h.QueryTransactions, "/reports/transactions", "/reports/transactions?status=pending")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed from", func(t *testing.T) {
		h := NewReportingHandler(&mockJournalReporter{})
		w := serveGet(h.QueryTransactions, "/reports/transactions", "/reports/transactions?from=last-week")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReportingHandler_Summarize(t *testing.T) {
	mock := &mockJournalReporter{
		summary: ledger.AggregateResult{
			Count:           42,
			TotalCost:       decimal.NewFromFloat(123.45),
			TotalRevenue:    decimal.NewFromFloat(98.76),
			TotalCommission: decimal.NewFromFloat(24.69),
		},
	}
	h := NewReportingHandler(mock)
	w := serveGet(h.Summarize, "/reports/summary", "/reports/summary?status=failed")

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data SummaryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.Data.Count)
	assert.Equal(t, "123.45", resp.Data.TotalCost)
	assert.Equal(t, "98.76", resp.Data.TotalRevenue)
	assert.Equal(t, "24.69", resp.Data.TotalCommission)
	require.NotNil(t, mock.lastFilter.Status)
	assert.Equal(t, ledger.StatusFailed, *mock.lastFilter.Status)
}

func TestReportingHandler_GetOverview(t *testing.T) {
	accountID := uuid.New()

	t.Run("operator overview", func(t *testing.T) {
		overview := &reportingapp.AccountOverview{
			AccountID:     accountID,
			Name:          "Acme Platform",
			Kind:          account.KindOperator,
			CreditBalance: decimal.NewFromInt(1000),
			Billed: ledger.AggregateResult{
				Count:        10,
				TotalCost:    decimal.NewFromInt(100),
				TotalRevenue: decimal.NewFromInt(100),
			},
			FailedAttempts: 3,
			SubmasterCount: 5,
		}
		h := NewReportingHandler(&mockJournalReporter{overview: overview})
		w := serveGet(h.GetOverview, "/reports/accounts/:id/overview", "/reports/accounts/"+accountID.String()+"/overview")

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data OverviewResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, accountID.String(), resp.Data.AccountID)
		assert.Equal(t, "OPERATOR", resp.Data.Kind)
		assert.Equal(t, "100", resp.Data.EarnedShare)
		assert.Equal(t, int64(3), resp.Data.FailedAttempts)
		assert.Equal(t, int64(5), resp.Data.SubmasterCount)
	})

	t.Run("submaster earns its commission share", func(t *testing.T) {
		overview := &reportingapp.AccountOverview{
			AccountID:     accountID,
			Name:          "Reseller One",
			Kind:          account.KindSubmaster,
			CreditBalance: decimal.NewFromInt(50),
			Billed: ledger.AggregateResult{
				Count:           4,
				TotalCost:       decimal.NewFromInt(40),
				TotalRevenue:    decimal.NewFromInt(32),
				TotalCommission: decimal.NewFromInt(8),
			},
		}
		h := NewReportingHandler(&mockJournalReporter{overview: overview})
		w := serveGet(h.GetOverview, "/reports/accounts/:id/overview", "/reports/accounts/"+accountID.String()+"/overview")

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data OverviewResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "8", resp.Data.EarnedShare)
	})

	t.Run("invalid account id", func(t *testing.T) {
		h := NewReportingHandler(&mockJournalReporter{})
		w := serveGet(h.GetOverview, "/reports/accounts/:id/overview", "/reports/accounts/oops/overview")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("account not found", func(t *testing.T) {
		h := NewReportingHandler(&mockJournalReporter{err: shared.ErrNotFound})
		w := serveGet(h.GetOverview, "/reports/accounts/:id/overview", "/reports/accounts/"+accountID.String()+"/overview")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
