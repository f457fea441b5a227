package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries the identity and audit timestamps every aggregate
// embeds. IDs are generated at construction, never by the database, so a
// record keeps its identity through a failed persist-and-retry.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity assigns a fresh identity with both timestamps at now
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps the update timestamp; mutators call it so the audit trail
// reflects the last state change
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}
