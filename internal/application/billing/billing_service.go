package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/resellbill/backend/internal/domain/account"
	"github.com/resellbill/backend/internal/domain/ledger"
	"github.com/resellbill/backend/internal/domain/pricing"
	"github.com/resellbill/backend/internal/domain/shared"
)

// Billing application errors
var (
	// ErrAccountInactive indicates a billing attempt against a deactivated account
	ErrAccountInactive = shared.NewDomainError("ACCOUNT_INACTIVE", "Account is not active")
	// ErrSameAccount indicates a transfer with identical source and destination
	ErrSameAccount = shared.NewDomainError("TRANSFER_SAME_ACCOUNT", "Cannot transfer credit to the same account")
	// ErrInvalidAmount indicates a non-positive transfer amount
	ErrInvalidAmount = shared.NewDomainError("INVALID_AMOUNT", "Transfer amount must be greater than zero")
)

// maxPostingAttempts bounds retries when a concurrent posting batch wins the
// balance lock first
const maxPostingAttempts = 3

// AccountLedger applies a batch of balance postings and journals the
// transaction record in one atomic unit. Either every posting commits and the
// record is appended, or nothing changes. A debit that would push a balance
// below zero fails the whole batch with shared.ErrInsufficientCredit and
// nothing is written.
type AccountLedger interface {
	ApplyPostings(ctx context.Context, postings []account.Posting, record *ledger.TransactionRecord) error
}

// RateProvider resolves the rate card in force at a given instant
type RateProvider interface {
	GetCurrentRate(ctx context.Context) (*pricing.RateCard, error)
	GetRateAt(ctx context.Context, at time.Time) (*pricing.RateCard, error)
}

// TransferInput describes a credit transfer between two accounts
type TransferInput struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	RequestID     string // optional idempotency key
}

// BillingService turns usage events into priced, journaled transactions and
// moves credit between accounts. Pricing happens at request time: the rate
// card in force at the event's request timestamp decides the cost, so a card
// change mid-flight never reprices an event that was already submitted.
type BillingService struct {
	accountRepo account.AccountRepository
	journal     ledger.TransactionJournal
	accLedger   AccountLedger
	rates       RateProvider
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewBillingService creates a new BillingService. The idempotency store may be
// nil; the journal lookup alone still guarantees replay semantics.
func NewBillingService(
	accountRepo account.AccountRepository,
	journal ledger.TransactionJournal,
	accLedger AccountLedger,
	rates RateProvider,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		accountRepo: accountRepo,
		journal:     journal,
		accLedger:   accLedger,
		rates:       rates,
		idempotency: idempotency,
		idemConfig:  shared.DefaultIdempotencyConfig(),
		logger:      logger,
		now:         time.Now,
	}
}

// WithIdempotencyConfig overrides the fast-path replay settings
func (s *BillingService) WithIdempotencyConfig(cfg shared.IdempotencyConfig) *BillingService {
	s.idemConfig = cfg
	return s
}

// WithNow overrides the clock for testing
func (s *BillingService) WithNow(now func() time.Time) *BillingService {
	if now != nil {
		s.now = now
	}
	return s
}

// RecordUsage prices a usage event, debits the actor's credit balance and
// appends the journal record, all atomically. When the event carries a request
// ID that was billed before, the stored record is returned unchanged and no
// new charge happens. An actor that cannot cover the cost gets a failed record
// journaled and shared.ErrInsufficientCredit back; its balance is untouched.
func (s *BillingService) RecordUsage(ctx context.Context, event ledger.UsageEvent) (*ledger.TransactionRecord, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	if event.HasRequestID() {
		if existing, err := s.replayIfBilled(ctx, event.RequestID); existing != nil || err != nil {
			return existing, err
		}
	}

	actor, err := s.accountRepo.FindByID(ctx, event.ActorAccountID)
	if err != nil {
		return nil, err
	}
	if !actor.IsActive() {
		return nil, ErrAccountInactive
	}

	rate, err := s.resolveRate(ctx, event.RequestTimestamp)
	if err != nil {
		return nil, err
	}
	cost := rate.CostOf(event.InputTokens, event.OutputTokens, event.ComputeSeconds)

	record, postings, err := s.buildUsageTransaction(actor, event, cost)
	if err != nil {
		return nil, err
	}

	if err := s.applyWithRetry(ctx, postings, record); err != nil {
		return s.settleRejection(ctx, record, err)
	}

	s.markProcessed(ctx, event.RequestID)

	s.logger.Info("Usage billed",
		zap.String("transaction_id", record.ID.String()),
		zap.String("account_id", actor.ID.String()),
		zap.String("type", string(record.Type)),
		zap.String("cost", record.Cost.String()))

	return record, nil
}

// Transfer moves credit from one account to another in a single atomic batch.
// The debit and credit commit together; if the source cannot cover the amount
// a failed record is journaled and nothing moves.
func (s *BillingService) Transfer(ctx context.Context, input TransferInput) (*ledger.TransactionRecord, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, ErrSameAccount
	}

	if input.RequestID != "" {
		if existing, err := s.replayIfBilled(ctx, input.RequestID); existing != nil || err != nil {
			return existing, err
		}
	}

	from, err := s.accountRepo.FindByID(ctx, input.FromAccountID)
	if err != nil {
		return nil, err
	}
	to, err := s.accountRepo.FindByID(ctx, input.ToAccountID)
	if err != nil {
		return nil, err
	}
	if !from.IsActive() || !to.IsActive() {
		return nil, ErrAccountInactive
	}

	record, err := ledger.NewTransactionRecord(ownerOf(from), ledger.TypeCreditTransfer, input.Amount, s.now())
	if err != nil {
		return nil, err
	}
	record.WithRequestID(input.RequestID)
	if from.IsSubmaster() {
		record.WithSubmaster(from.ID)
	}

	postings := []account.Posting{
		account.NewDebit(from.ID, input.Amount),
		account.NewCredit(to.ID, input.Amount),
	}

	if err := s.applyWithRetry(ctx, postings, record); err != nil {
		return s.settleRejection(ctx, record, err)
	}

	s.markProcessed(ctx, input.RequestID)

	s.logger.Info("Credit transferred",
		zap.String("transaction_id", record.ID.String()),
		zap.String("from_account_id", from.ID.String()),
		zap.String("to_account_id", to.ID.String()),
		zap.String("amount", input.Amount.String()))

	return record, nil
}

// buildUsageTransaction derives the journal record and posting batch for a
// priced usage event. The actor pays the full cost; for a submaster the
// commission share counts toward its revenue aggregate and the remainder
// toward the parent operator's.
func (s *BillingService) buildUsageTransaction(
	actor *account.Account,
	event ledger.UsageEvent,
	cost decimal.Decimal,
) (*ledger.TransactionRecord, []account.Posting, error) {
	timestamp := event.RequestTimestamp
	if timestamp.IsZero() {
		timestamp = s.now()
	}

	record, err := ledger.NewTransactionRecord(ownerOf(actor), event.Type(), cost, timestamp)
	if err != nil {
		return nil, nil, err
	}
	record.WithRequestID(event.RequestID).
		WithUsage(event.InputTokens, event.OutputTokens, event.ComputeSeconds)

	var postings []account.Posting
	if actor.IsSubmaster() {
		commission, remainder := actor.CommissionOn(cost)
		record.WithSubmaster(actor.ID).WithSplit(remainder, commission)
		postings = []account.Posting{
			account.NewDebit(actor.ID, cost).WithRevenue(commission).WithCost(cost),
			account.NewCredit(*actor.ParentID, decimal.Zero).WithRevenue(remainder),
		}
	} else {
		record.WithSplit(cost, decimal.Zero)
		postings = []account.Posting{
			account.NewDebit(actor.ID, cost).WithRevenue(cost).WithCost(cost),
		}
	}

	if err := account.ValidatePostings(postings); err != nil {
		return nil, nil, err
	}
	return record, postings, nil
}

// resolveRate picks the card in force at the request timestamp, falling back
// to the current card when the caller supplied no timestamp
func (s *BillingService) resolveRate(ctx context.Context, at time.Time) (*pricing.RateCard, error) {
	if at.IsZero() {
		return s.rates.GetCurrentRate(ctx)
	}
	return s.rates.GetRateAt(ctx, at)
}

// replayIfBilled returns the stored record for a request ID that was billed
// before. The fast-path store is consulted first; on a miss the journal lookup
// is skipped entirely, because the unique request index still catches the rare
// duplicate that raced past the store and settleRejection replays it then.
func (s *BillingService) replayIfBilled(ctx context.Context, requestID string) (*ledger.TransactionRecord, error) {
	if !s.seenBefore(ctx, requestID) {
		return nil, nil
	}
	return s.replayFromJournal(ctx, requestID)
}

// replayFromJournal returns the journaled record for a request ID, or
// (nil, nil) when the journal holds none. A previously rejected attempt
// replays its rejection too.
func (s *BillingService) replayFromJournal(ctx context.Context, requestID string) (*ledger.TransactionRecord, error) {
	existing, err := s.journal.FindByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.logger.Info("Replaying already billed request",
		zap.String("request_id", requestID),
		zap.String("transaction_id", existing.ID.String()),
		zap.String("status", string(existing.Status)))

	if !existing.IsSuccess() {
		return existing, shared.ErrInsufficientCredit
	}
	return existing, nil
}

// seenBefore consults the fast-path store for a request ID. Without a usable
// store every request falls through to the authoritative journal lookup.
func (s *BillingService) seenBefore(ctx context.Context, requestID string) bool {
	if s.idempotency == nil || !s.idemConfig.Enabled {
		return true
	}
	seen, err := s.idempotency.IsProcessed(ctx, requestID)
	if err != nil {
		s.logger.Warn("Idempotency store lookup failed, falling back to journal",
			zap.String("request_id", requestID),
			zap.Error(err))
		return true
	}
	return seen
}

// settleRejection resolves a posting batch the ledger refused. A duplicate
// request ID means a concurrent attempt already committed the charge, so the
// winner's record is replayed instead of surfacing a duplicate error. Credit
// and conflict rejections are journaled as failed records so the attempt stays
// in the audit trail; an exhausted conflict drops its request ID first, since
// the client may retry the same request and be billed then.
func (s *BillingService) settleRejection(ctx context.Context, record *ledger.TransactionRecord, cause error) (*ledger.TransactionRecord, error) {
	switch {
	case errors.Is(cause, shared.ErrAlreadyExists) && record.RequestID != nil:
		existing, err := s.replayFromJournal(ctx, *record.RequestID)
		if existing != nil || err != nil {
			return existing, err
		}
		return nil, cause
	case errors.Is(cause, shared.ErrInsufficientCredit):
		return s.journalRejection(ctx, record, cause)
	case errors.Is(cause, shared.ErrConcurrencyConflict):
		record.ClearRequestID()
		return s.journalRejection(ctx, record, cause)
	default:
		return nil, cause
	}
}

// applyWithRetry hands the batch to the ledger, retrying a bounded number of
// times when a concurrent batch invalidated the balance read
func (s *BillingService) applyWithRetry(ctx context.Context, postings []account.Posting, record *ledger.TransactionRecord) error {
	var err error
	for attempt := 1; attempt <= maxPostingAttempts; attempt++ {
		err = s.accLedger.ApplyPostings(ctx, postings, record)
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		s.logger.Warn("Posting batch conflicted, retrying",
			zap.String("transaction_id", record.ID.String()),
			zap.Int("attempt", attempt))
	}
	return err
}

// journalRejection appends a failed record so the rejected attempt stays
// visible in the audit trail, then propagates the rejection. When an identical
// rejection already landed under the same request ID, that record is replayed.
func (s *BillingService) journalRejection(ctx context.Context, record *ledger.TransactionRecord, cause error) (*ledger.TransactionRecord, error) {
	record.MarkFailed()
	if err := s.journal.Append(ctx, record); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) && record.RequestID != nil {
			existing, rerr := s.replayFromJournal(ctx, *record.RequestID)
			if existing != nil || rerr != nil {
				return existing, rerr
			}
		}
		s.logger.Error("Failed to journal rejected transaction",
			zap.String("transaction_id", record.ID.String()),
			zap.Error(err))
		return nil, err
	}

	if record.RequestID != nil {
		s.markProcessed(ctx, *record.RequestID)
	}

	s.logger.Warn("Billing attempt rejected",
		zap.String("transaction_id", record.ID.String()),
		zap.String("cost", record.Cost.String()))

	return record, cause
}

// markProcessed records the request ID in the fast-path store. Best effort:
// the journal stays authoritative, so a store failure only costs a lookup on
// retry.
func (s *BillingService) markProcessed(ctx context.Context, requestID string) {
	if requestID == "" || s.idempotency == nil || !s.idemConfig.Enabled {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, requestID, s.idemConfig.TTL); err != nil {
		s.logger.Warn("Failed to mark request as processed",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}

// ownerOf resolves the operator account a transaction is attributed to
func ownerOf(acct *account.Account) uuid.UUID {
	if acct.IsSubmaster() && acct.ParentID != nil {
		return *acct.ParentID
	}
	return acct.ID
}
