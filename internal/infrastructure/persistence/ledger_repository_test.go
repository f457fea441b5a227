package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/resellbill/backend/internal/domain/account"
	"github.com/resellbill/backend/internal/domain/ledger"
	"github.com/resellbill/backend/internal/domain/shared"
	"github.com/resellbill/backend/internal/infrastructure/persistence/models"
)

func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.AccountModel{},
		&models.RateCardModel{},
		&models.TransactionRecordModel{},
		&models.APIKeyModel{},
	)
	require.NoError(t, err)

	return db
}

func createTestAccount(t *testing.T, db *gorm.DB, balance int64) *account.Account {
	t.Helper()
	acct, err := account.NewOperatorAccount("Acme", uuid.NewString()+"@acme.test")
	require.NoError(t, err)
	acct.WithCreditBalance(decimal.NewFromInt(balance))

	require.NoError(t, NewGormAccountRepository(db).Create(context.Background(), acct))
	return acct
}

func newUsageRecord(t *testing.T, userID uuid.UUID, cost float64, ts time.Time) *ledger.TransactionRecord {
	t.Helper()
	record, err := ledger.NewTransactionRecord(userID, ledger.TypeToken, decimal.NewFromFloat(cost), ts)
	require.NoError(t, err)
	return record
}

func TestGormLedgerRepository_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("appends and finds by ID", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)

		record := newUsageRecord(t, uuid.New(), 12.80, time.Now())
		require.NoError(t, repo.Append(ctx, record))

		found, err := repo.FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)
		assert.True(t, found.Cost.Equal(record.Cost))
	})

	t.Run("rejects a duplicate request ID", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)

		first := newUsageRecord(t, uuid.New(), 1.00, time.Now()).WithRequestID("req-1")
		require.NoError(t, repo.Append(ctx, first))

		second := newUsageRecord(t, uuid.New(), 2.00, time.Now()).WithRequestID("req-1")
		err := repo.Append(ctx, second)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})

	t.Run("finds by request ID", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)

		record := newUsageRecord(t, uuid.New(), 5.25, time.Now()).WithRequestID("req-2")
		require.NoError(t, repo.Append(ctx, record))

		found, err := repo.FindByRequestID(ctx, "req-2")
		require.NoError(t, err)
		assert.Equal(t, record.ID, found.ID)

		_, err = repo.FindByRequestID(ctx, "unknown")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormLedgerRepository_Query(t *testing.T) {
	ctx := context.Background()
	db := setupBillingTestDB(t)
	repo := NewGormLedgerRepository(db)

	userA := uuid.New()
	userB := uuid.New()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	// Appended out of order on purpose
	second := newUsageRecord(t, userA, 2.00, base.Add(2*time.Hour))
	first := newUsageRecord(t, userA, 1.00, base.Add(time.Hour))
	other := newUsageRecord(t, userB, 3.00, base.Add(3*time.Hour))
	failed := newUsageRecord(t, userA, 9.00, base.Add(4*time.Hour))
	failed.MarkFailed()

	for _, r := range []*ledger.TransactionRecord{second, first, other, failed} {
		require.NoError(t, repo.Append(ctx, r))
	}

	t.Run("orders by timestamp ascending", func(t *testing.T) {
		records, err := repo.Query(ctx, ledger.QueryFilter{UserID: &userA})
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, first.ID, records[0].ID)
		assert.Equal(t, second.ID, records[1].ID)
		assert.Equal(t, failed.ID, records[2].ID)
	})

	t.Run("filters by status", func(t *testing.T) {
		success := ledger.StatusSuccess
		records, err := repo.Query(ctx, ledger.QueryFilter{UserID: &userA, Status: &success})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("filters by time window", func(t *testing.T) {
		from := base.Add(90 * time.Minute)
		to := base.Add(3 * time.Hour)
		records, err := repo.Query(ctx, ledger.QueryFilter{From: &from, To: &to})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("aggregate agrees with summing query results", func(t *testing.T) {
		filter := ledger.QueryFilter{UserID: &userA}

		records, err := repo.Query(ctx, filter)
		require.NoError(t, err)
		expected := ledger.Summarize(records)

		agg, err := repo.Aggregate(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, expected.Count, agg.Count)
		assert.True(t, expected.TotalCost.Equal(agg.TotalCost))
		assert.True(t, expected.TotalRevenue.Equal(agg.TotalRevenue))
		assert.True(t, expected.TotalCommission.Equal(agg.TotalCommission))
	})
}

func TestGormLedgerRepository_ApplyPostings(t *testing.T) {
	ctx := context.Background()

	t.Run("commits balance change and record together", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)
		accountRepo := NewGormAccountRepository(db)

		acct := createTestAccount(t, db, 100)
		cost := decimal.NewFromFloat(12.80)

		record := newUsageRecord(t, acct.ID, 12.80, time.Now())
		record.WithSplit(cost, decimal.Zero)
		postings := []account.Posting{
			account.NewDebit(acct.ID, cost).WithRevenue(cost).WithCost(cost),
		}

		require.NoError(t, repo.ApplyPostings(ctx, postings, record))

		updated, err := accountRepo.FindByID(ctx, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, "87.2", updated.CreditBalance.String())
		assert.Equal(t, "12.8", updated.TotalRevenue.String())
		assert.Equal(t, "12.8", updated.TotalCosts.String())

		found, err := repo.FindByID(ctx, record.ID)
		require.NoError(t, err)
		assert.True(t, found.IsSuccess())
	})

	t.Run("rejects a debit below the balance floor and writes nothing", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)
		accountRepo := NewGormAccountRepository(db)

		acct := createTestAccount(t, db, 10)
		cost := decimal.NewFromInt(50)

		record := newUsageRecord(t, acct.ID, 50, time.Now())
		postings := []account.Posting{
			account.NewDebit(acct.ID, cost).WithRevenue(cost).WithCost(cost),
		}

		err := repo.ApplyPostings(ctx, postings, record)
		assert.ErrorIs(t, err, shared.ErrInsufficientCredit)

		untouched, err := accountRepo.FindByID(ctx, acct.ID)
		require.NoError(t, err)
		assert.Equal(t, "10", untouched.CreditBalance.String())

		_, err = repo.FindByID(ctx, record.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("moves credit between two accounts atomically", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)
		accountRepo := NewGormAccountRepository(db)

		from := createTestAccount(t, db, 100)
		to := createTestAccount(t, db, 20)
		amount := decimal.NewFromInt(30)

		record, err := ledger.NewTransactionRecord(from.ID, ledger.TypeCreditTransfer, amount, time.Now())
		require.NoError(t, err)

		postings := []account.Posting{
			account.NewDebit(from.ID, amount),
			account.NewCredit(to.ID, amount),
		}
		require.NoError(t, repo.ApplyPostings(ctx, postings, record))

		fromAfter, err := accountRepo.FindByID(ctx, from.ID)
		require.NoError(t, err)
		toAfter, err := accountRepo.FindByID(ctx, to.ID)
		require.NoError(t, err)
		assert.Equal(t, "70", fromAfter.CreditBalance.String())
		assert.Equal(t, "50", toAfter.CreditBalance.String())
	})

	t.Run("rolls back a transfer the source cannot cover", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)
		accountRepo := NewGormAccountRepository(db)

		from := createTestAccount(t, db, 10)
		to := createTestAccount(t, db, 20)
		amount := decimal.NewFromInt(30)

		record, err := ledger.NewTransactionRecord(from.ID, ledger.TypeCreditTransfer, amount, time.Now())
		require.NoError(t, err)

		postings := []account.Posting{
			account.NewDebit(from.ID, amount),
			account.NewCredit(to.ID, amount),
		}
		err = repo.ApplyPostings(ctx, postings, record)
		assert.ErrorIs(t, err, shared.ErrInsufficientCredit)

		toAfter, err := accountRepo.FindByID(ctx, to.ID)
		require.NoError(t, err)
		assert.Equal(t, "20", toAfter.CreditBalance.String())
	})

	t.Run("rejects an unknown account", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)

		record := newUsageRecord(t, uuid.New(), 1, time.Now())
		postings := []account.Posting{
			account.NewDebit(uuid.New(), decimal.NewFromInt(1)),
		}
		err := repo.ApplyPostings(ctx, postings, record)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects an empty batch", func(t *testing.T) {
		db := setupBillingTestDB(t)
		repo := NewGormLedgerRepository(db)

		record := newUsageRecord(t, uuid.New(), 1, time.Now())
		err := repo.ApplyPostings(ctx, nil, record)
		assert.Error(t, err)
	})
}

// newMockLedgerRepository creates a GormLedgerRepository with a mocked postgres
// connection for asserting the emitted SQL
func newMockLedgerRepository(t *testing.T) (*GormLedgerRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormLedgerRepository(gormDB), mock, mockDB
}

func TestGormLedgerRepository_ApplyPostings_RowLocking(t *testing.T) {
	t.Run("takes FOR UPDATE locks on postgres", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerRepository(t)
		defer mockDB.Close()

		acctID := uuid.New()
		cost := decimal.NewFromFloat(12.80)
		record := newUsageRecord(t, acctID, 12.80, time.Now())
		postings := []account.Posting{
			account.NewDebit(acctID, cost).WithRevenue(cost).WithCost(cost),
		}

		mock.ExpectBegin()
		rows := sqlmock.NewRows([]string{"id", "credit_balance", "total_revenue", "total_costs"}).
			AddRow(acctID, decimal.NewFromInt(100), decimal.Zero, decimal.Zero)
		mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1 .* FOR UPDATE`).
			WithArgs(acctID, 1).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE "accounts" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "transaction_records"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.ApplyPostings(context.Background(), postings, record)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps deadlock errors to a retryable conflict", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerRepository(t)
		defer mockDB.Close()

		acctID := uuid.New()
		record := newUsageRecord(t, acctID, 1, time.Now())
		postings := []account.Posting{
			account.NewDebit(acctID, decimal.NewFromInt(1)),
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "accounts"`).
			WillReturnError(errDeadlock{})
		mock.ExpectRollback()

		err := repo.ApplyPostings(context.Background(), postings, record)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}

type errDeadlock struct{}

func (errDeadlock) Error() string { return "ERROR: deadlock detected (SQLSTATE 40P01)" }
