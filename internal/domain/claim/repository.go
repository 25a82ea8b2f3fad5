package claim

import (
	"context"

	"github.com/claimswift/backend/internal/domain/shared"
)

// ClaimRepository persists claim aggregates.
type ClaimRepository interface {
	// FindByID returns nil, nil when no claim has the id.
	FindByID(ctx context.Context, id int64) (*Claim, error)
	// FindByIDForUpdate locks the row for the rest of the transaction.
	FindByIDForUpdate(ctx context.Context, id int64) (*Claim, error)
	FindByStatus(ctx context.Context, status Status, filter shared.Filter) ([]Claim, int64, error)
	FindByPolicyholder(ctx context.Context, policyholderID int64, filter shared.Filter) ([]Claim, int64, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Claim, int64, error)
	Create(ctx context.Context, c *Claim) error
	// Save updates an existing claim, failing with CONCURRENCY_CONFLICT when
	// the stored version moved on.
	Save(ctx context.Context, c *Claim) error
}

// HistoryRepository is append-only.
type HistoryRepository interface {
	Append(ctx context.Context, h *StatusHistory) error
	FindByClaimID(ctx context.Context, claimID int64) ([]StatusHistory, error)
}
