package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/resellbill/backend/internal/domain/account"
	"github.com/resellbill/backend/internal/domain/apikey"
	"github.com/resellbill/backend/internal/domain/shared"
)

// ErrEmailTaken indicates a registration with an email already in use
var ErrEmailTaken = shared.NewDomainError("EMAIL_TAKEN", "An account with this email already exists")

// maxKeysPerAccount caps issued keys so a leaked admin credential cannot mint
// unbounded credentials
const maxKeysPerAccount = 10

// ErrKeyLimitReached indicates an account at its API key cap
var ErrKeyLimitReached = shared.NewDomainError("KEY_LIMIT_REACHED", "API key limit reached for this account")

// CreateOperatorInput groups the fields for registering an operator
type CreateOperatorInput struct {
	Name          string
	Email         string
	CreditBalance *decimal.Decimal // nil keeps the default seed
}

// CreateSubmasterInput groups the fields for registering a reseller
type CreateSubmasterInput struct {
	Name           string
	Email          string
	ParentID       uuid.UUID
	CommissionRate decimal.Decimal
	CreditBalance  *decimal.Decimal
}

// AccountService manages account registration, lifecycle and API keys.
// Balances are out of scope here: only the ledger's posting batch may change
// them.
type AccountService struct {
	accountRepo account.AccountRepository
	keyRepo     apikey.APIKeyRepository
	logger      *zap.Logger
	now         func() time.Time
}

// NewAccountService creates a new AccountService
func NewAccountService(accountRepo account.AccountRepository, keyRepo apikey.APIKeyRepository, logger *zap.Logger) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		keyRepo:     keyRepo,
		logger:      logger,
		now:         time.Now,
	}
}

// WithNow overrides the clock for testing
func (s *AccountService) WithNow(now func() time.Time) *AccountService {
	if now != nil {
		s.now = now
	}
	return s
}

// CreateOperator registers a top-level operator account
func (s *AccountService) CreateOperator(ctx context.Context, input CreateOperatorInput) (*account.Account, error) {
	if err := s.checkEmailFree(ctx, input.Email); err != nil {
		return nil, err
	}

	acct, err := account.NewOperatorAccount(input.Name, input.Email)
	if err != nil {
		return nil, err
	}
	if input.CreditBalance != nil {
		acct.WithCreditBalance(*input.CreditBalance)
	}

	if err := s.accountRepo.Create(ctx, acct); err != nil {
		return nil, err
	}

	s.logger.Info("Operator account created",
		zap.String("account_id", acct.ID.String()),
		zap.String("email", acct.Email))

	return acct, nil
}

// CreateSubmaster registers a reseller owned by an operator. The parent must
// exist, be an operator and be active.
func (s *AccountService) CreateSubmaster(ctx context.Context, input CreateSubmasterInput) (*account.Account, error) {
	if err := s.checkEmailFree(ctx, input.Email); err != nil {
		return nil, err
	}

	parent, err := s.accountRepo.FindByID(ctx, input.ParentID)
	if err != nil {
		return nil, err
	}
	if parent.IsSubmaster() || !parent.IsActive() {
		return nil, account.ErrParentNotOperator
	}

	acct, err := account.NewSubmasterAccount(input.Name, input.Email, parent.ID, input.CommissionRate)
	if err != nil {
		return nil, err
	}
	if input.CreditBalance != nil {
		acct.WithCreditBalance(*input.CreditBalance)
	}

	if err := s.accountRepo.Create(ctx, acct); err != nil {
		return nil, err
	}

	s.logger.Info("Submaster account created",
		zap.String("account_id", acct.ID.String()),
		zap.String("parent_id", parent.ID.String()),
		zap.String("commission_rate", acct.CommissionRate.String()))

	return acct, nil
}

// GetAccount returns one account by ID
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.FindByID(ctx, id)
}

// ListSubmasters returns the resellers owned by an operator
func (s *AccountService) ListSubmasters(ctx context.Context, parentID uuid.UUID) ([]*account.Account, error) {
	return s.accountRepo.ListSubmasters(ctx, parentID)
}

// SetAccountStatus activates or deactivates an account. Deactivation blocks
// new billing but keeps the balance and history intact.
func (s *AccountService) SetAccountStatus(ctx context.Context, id uuid.UUID, status account.AccountStatus) error {
	acct, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if acct.Status == status {
		return nil
	}

	if err := s.accountRepo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	s.logger.Info("Account status changed",
		zap.String("account_id", id.String()),
		zap.String("status", string(status)))

	return nil
}

// IssueAPIKey mints a new key for an account
func (s *AccountService) IssueAPIKey(ctx context.Context, accountID uuid.UUID, name string, expiresAt *time.Time) (*apikey.APIKey, error) {
	acct, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	count, err := s.keyRepo.CountByAccount(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	if count >= maxKeysPerAccount {
		return nil, ErrKeyLimitReached
	}

	key, err := apikey.NewAPIKey(acct.ID, name)
	if err != nil {
		return nil, err
	}
	if expiresAt != nil {
		key.WithExpiry(*expiresAt)
	}

	if err := s.keyRepo.Create(ctx, key); err != nil {
		return nil, err
	}

	s.logger.Info("API key issued",
		zap.String("key_id", key.ID.String()),
		zap.String("account_id", acct.ID.String()),
		zap.String("name", key.Name))

	return key, nil
}

// ResolveAPIKey maps a presented key string to its active owning account and
// records the use. Returns shared.ErrUnauthorized for unknown, revoked or
// expired keys so callers cannot distinguish the cases.
func (s *AccountService) ResolveAPIKey(ctx context.Context, keyString string) (*account.Account, error) {
	key, err := s.keyRepo.FindByKey(ctx, keyString)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUnauthorized
		}
		return nil, err
	}

	if err := key.ValidateAt(s.now()); err != nil {
		return nil, shared.ErrUnauthorized
	}

	acct, err := s.accountRepo.FindByID(ctx, key.AccountID)
	if err != nil {
		return nil, err
	}
	if !acct.IsActive() {
		return nil, shared.ErrUnauthorized
	}

	if err := s.keyRepo.TouchLastUsed(ctx, key.ID, s.now()); err != nil {
		s.logger.Warn("Failed to record API key use",
			zap.String("key_id", key.ID.String()),
			zap.Error(err))
	}

	return acct, nil
}

// ListAPIKeys returns the keys issued to an account
func (s *AccountService) ListAPIKeys(ctx context.Context, accountID uuid.UUID) ([]*apikey.APIKey, error) {
	return s.keyRepo.ListByAccount(ctx, accountID)
}

// RevokeAPIKey deactivates a key permanently
func (s *AccountService) RevokeAPIKey(ctx context.Context, keyID uuid.UUID) error {
	if err := s.keyRepo.Deactivate(ctx, keyID); err != nil {
		return err
	}
	s.logger.Info("API key revoked", zap.String("key_id", keyID.String()))
	return nil
}

func (s *AccountService) checkEmailFree(ctx context.Context, email string) error {
	_, err := s.accountRepo.FindByEmail(ctx, email)
	if err == nil {
		return ErrEmailTaken
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	return nil
}
