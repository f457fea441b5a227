package apikey

import (
	"time"

	"github.com/google/uuid"

	"github.com/resellbill/backend/internal/domain/shared"
)

// API key domain errors
var (
	// ErrKeyRevoked indicates a key that has been deactivated
	ErrKeyRevoked = shared.NewDomainError("KEY_REVOKED", "API key has been revoked")
	// ErrKeyExpired indicates a key past its expiry
	ErrKeyExpired = shared.NewDomainError("KEY_EXPIRED", "API key has expired")
)

// APIKey maps an opaque key string to a billed account. The billing core does
// not know about keys; resolution happens at the edge before the core is
// invoked, and the core only ever sees the resolved account ID.
type APIKey struct {
	shared.BaseEntity
	AccountID  uuid.UUID
	Key        string // opaque credential, generated, unique
	Name       string
	IsActive   bool
	LastUsedAt *time.Time
	ExpiresAt  *time.Time
}

// NewAPIKey issues a key for an account
func NewAPIKey(accountID uuid.UUID, name string) (*APIKey, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Account ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "API key name cannot be empty")
	}
	return &APIKey{
		BaseEntity: shared.NewBaseEntity(),
		AccountID:  accountID,
		Key:        uuid.NewString(),
		Name:       name,
		IsActive:   true,
	}, nil
}

// WithExpiry sets an expiration instant
func (k *APIKey) WithExpiry(expiresAt time.Time) *APIKey {
	k.ExpiresAt = &expiresAt
	return k
}

// ValidateAt checks whether the key may be used at the given instant
func (k *APIKey) ValidateAt(t time.Time) error {
	if !k.IsActive {
		return ErrKeyRevoked
	}
	if k.ExpiresAt != nil && t.After(*k.ExpiresAt) {
		return ErrKeyExpired
	}
	return nil
}

// Touch records a successful use
func (k *APIKey) Touch(t time.Time) {
	k.LastUsedAt = &t
}

// Revoke deactivates the key; it cannot be reactivated
func (k *APIKey) Revoke() {
	k.IsActive = false
	k.BaseEntity.Touch()
}
