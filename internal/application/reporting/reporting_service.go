package reporting

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/resellbill/backend/internal/domain/account"
	"github.com/resellbill/backend/internal/domain/ledger"
)

// AccountOverview is the dashboard snapshot for one account. All figures are
// exact folds over the journal; nothing here is estimated.
type AccountOverview struct {
	AccountID      uuid.UUID
	Name           string
	Kind           account.AccountKind
	CreditBalance  decimal.Decimal
	Billed         ledger.AggregateResult // committed transactions only
	FailedAttempts int64
	SubmasterCount int64 // operators only
}

// EarnedShare returns the revenue this account recognized from the billed
// transactions: the full revenue for an operator, the commission share for a
// submaster.
func (o AccountOverview) EarnedShare() decimal.Decimal {
	if o.Kind == account.KindSubmaster {
		return o.Billed.TotalCommission
	}
	return o.Billed.TotalRevenue
}

// ReportingService answers read-only queries over the journal and account
// aggregates. It never mutates anything.
type ReportingService struct {
	accountRepo account.AccountRepository
	journal     ledger.TransactionJournal
	logger      *zap.Logger
}

// NewReportingService creates a new ReportingService
func NewReportingService(accountRepo account.AccountRepository, journal ledger.TransactionJournal, logger *zap.Logger) *ReportingService {
	return &ReportingService{
		accountRepo: accountRepo,
		journal:     journal,
		logger:      logger,
	}
}

// QueryTransactions returns the journal records matching the filter, ordered
// by timestamp ascending
func (s *ReportingService) QueryTransactions(ctx context.Context, filter ledger.QueryFilter) ([]*ledger.TransactionRecord, error) {
	return s.journal.Query(ctx, filter)
}

// Summarize folds the matching records into totals
func (s *ReportingService) Summarize(ctx context.Context, filter ledger.QueryFilter) (ledger.AggregateResult, error) {
	return s.journal.Aggregate(ctx, filter)
}

// GetOverview builds the dashboard snapshot for an account. For an operator it
// covers every transaction attributed to it, including those its submasters
// generated; for a submaster only its own.
func (s *ReportingService) GetOverview(ctx context.Context, accountID uuid.UUID) (*AccountOverview, error) {
	acct, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	filter := scopeFilter(acct)

	success := ledger.StatusSuccess
	filter.Status = &success
	billed, err := s.journal.Aggregate(ctx, filter)
	if err != nil {
		return nil, err
	}

	failed := ledger.StatusFailed
	filter.Status = &failed
	rejected, err := s.journal.Aggregate(ctx, filter)
	if err != nil {
		return nil, err
	}

	overview := &AccountOverview{
		AccountID:      acct.ID,
		Name:           acct.Name,
		Kind:           acct.Kind,
		CreditBalance:  acct.CreditBalance,
		Billed:         billed,
		FailedAttempts: rejected.Count,
	}

	if !acct.IsSubmaster() {
		count, err := s.accountRepo.CountSubmasters(ctx, acct.ID)
		if err != nil {
			return nil, err
		}
		overview.SubmasterCount = count
	}

	return overview, nil
}

// scopeFilter restricts a journal query to the transactions an account is
// party to
func scopeFilter(acct *account.Account) ledger.QueryFilter {
	id := acct.ID
	if acct.IsSubmaster() {
		return ledger.QueryFilter{SubmasterID: &id}
	}
	return ledger.QueryFilter{UserID: &id}
}
