package persistence

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/resellbill/backend/internal/domain/account"
	"github.com/resellbill/backend/internal/domain/ledger"
	"github.com/resellbill/backend/internal/domain/shared"
	"github.com/resellbill/backend/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements ledger.TransactionJournal and the billing
// engine's posting port on one GORM handle. Balance changes and the journal
// record commit in a single database transaction: either every posting lands
// and the record exists, or nothing does.
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// ApplyPostings locks the touched accounts, applies every balance delta and
// aggregate increment, and appends the journal record, all in one transaction.
// Accounts are locked in ascending ID order so concurrent batches touching the
// same accounts cannot deadlock. A debit that would push a balance below zero
// aborts the batch with shared.ErrInsufficientCredit and nothing is written.
func (r *GormLedgerRepository) ApplyPostings(ctx context.Context, postings []account.Posting, record *ledger.TransactionRecord) error {
	if err := account.ValidatePostings(postings); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// sqlite has no row locks and serializes writers on its own
		withLock := tx.Dialector.Name() == "postgres"

		for _, accountID := range lockOrder(postings) {
			locked := tx
			if withLock {
				locked = tx.Clauses(clause.Locking{Strength: "UPDATE"})
			}

			var model models.AccountModel
			if err := locked.
				First(&model, "id = ?", accountID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return shared.ErrNotFound
				}
				return err
			}

			balance := model.CreditBalance
			revenue := model.TotalRevenue
			costs := model.TotalCosts
			for _, p := range postings {
				if p.AccountID != accountID {
					continue
				}
				balance = balance.Add(p.Delta)
				revenue = revenue.Add(p.Revenue)
				costs = costs.Add(p.Cost)
			}
			if balance.IsNegative() {
				return shared.ErrInsufficientCredit
			}

			if err := tx.Model(&models.AccountModel{}).
				Where("id = ?", accountID).
				Updates(map[string]any{
					"credit_balance": balance,
					"total_revenue":  revenue,
					"total_costs":    costs,
					"updated_at":     time.Now(),
				}).Error; err != nil {
				return err
			}
		}

		return r.appendTx(tx, record)
	})

	if err != nil && isSerializationFailure(err) {
		return shared.ErrConcurrencyConflict
	}
	return err
}

// Append persists a record outside any posting batch, for journaling rejected
// attempts
func (r *GormLedgerRepository) Append(ctx context.Context, record *ledger.TransactionRecord) error {
	return r.appendTx(r.db.WithContext(ctx), record)
}

func (r *GormLedgerRepository) appendTx(tx *gorm.DB, record *ledger.TransactionRecord) error {
	model := models.TransactionRecordModelFromDomain(record)
	if err := tx.Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// FindByID finds a journal record by ID
func (r *GormLedgerRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.TransactionRecord, error) {
	var model models.TransactionRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByRequestID looks up the record for a client idempotency key
func (r *GormLedgerRepository) FindByRequestID(ctx context.Context, requestID string) (*ledger.TransactionRecord, error) {
	var model models.TransactionRecordModel
	if err := r.db.WithContext(ctx).First(&model, "request_id = ?", requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Query returns matching records ordered by timestamp ascending
func (r *GormLedgerRepository) Query(ctx context.Context, filter ledger.QueryFilter) ([]*ledger.TransactionRecord, error) {
	var recordModels []models.TransactionRecordModel
	query := applyQueryFilter(r.db.WithContext(ctx).Model(&models.TransactionRecordModel{}), filter)
	if err := query.Order("timestamp ASC, created_at ASC").Find(&recordModels).Error; err != nil {
		return nil, err
	}

	records := make([]*ledger.TransactionRecord, len(recordModels))
	for i := range recordModels {
		records[i] = recordModels[i].ToDomain()
	}
	return records, nil
}

// Aggregate folds the matching records into totals in the database
func (r *GormLedgerRepository) Aggregate(ctx context.Context, filter ledger.QueryFilter) (ledger.AggregateResult, error) {
	var row struct {
		Count           int64
		TotalCost       decimal.Decimal
		TotalRevenue    decimal.Decimal
		TotalCommission decimal.Decimal
	}

	query := applyQueryFilter(r.db.WithContext(ctx).Model(&models.TransactionRecordModel{}), filter)
	if err := query.
		Select("COUNT(*) AS count, " +
			"COALESCE(SUM(cost), 0) AS total_cost, " +
			"COALESCE(SUM(revenue), 0) AS total_revenue, " +
			"COALESCE(SUM(commission), 0) AS total_commission").
		Scan(&row).Error; err != nil {
		return ledger.AggregateResult{}, err
	}

	return ledger.AggregateResult{
		Count:           row.Count,
		TotalCost:       row.TotalCost,
		TotalRevenue:    row.TotalRevenue,
		TotalCommission: row.TotalCommission,
	}, nil
}

func applyQueryFilter(query *gorm.DB, filter ledger.QueryFilter) *gorm.DB {
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.SubmasterID != nil {
		query = query.Where("submaster_id = ?", *filter.SubmasterID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("timestamp <= ?", *filter.To)
	}
	return query
}

// lockOrder returns the distinct account IDs of a batch in ascending order
func lockOrder(postings []account.Posting) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(postings))
	ids := make([]uuid.UUID, 0, len(postings))
	for _, p := range postings {
		if _, ok := seen[p.AccountID]; ok {
			continue
		}
		seen[p.AccountID] = struct{}{}
		ids = append(ids, p.AccountID)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}

// isSerializationFailure reports whether the error is a transient conflict the
// caller may retry
func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "could not serialize access") ||
		strings.Contains(msg, "database is locked")
}
