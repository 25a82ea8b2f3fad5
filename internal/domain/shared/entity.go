package shared

import "time"

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates a base entity stamped with the current time. The ID is
// assigned by storage on first insert.
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		CreatedAt: now,
		UpdatedAt: now,
	}
}
