package client

import (
	"context"

	appclaim "github.com/claimswift/backend/internal/application/claim"
	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/collaborator"
)

// claimOperations is the slice of the claim application service the
// in-process adapter needs.
type claimOperations interface {
	GetByID(ctx context.Context, id int64) (*appclaim.ClaimResponse, error)
	UpdateStatus(ctx context.Context, id int64, rawStatus string) (*appclaim.ClaimResponse, error)
}

// ClaimAdapter implements collaborator.ClaimService by calling the claim
// application service directly. Claim status still changes only through
// that service.
type ClaimAdapter struct {
	claims claimOperations
}

// NewClaimAdapter wraps the claim application service.
func NewClaimAdapter(claims claimOperations) *ClaimAdapter {
	return &ClaimAdapter{claims: claims}
}

// FetchClaim implements collaborator.ClaimService.
func (a *ClaimAdapter) FetchClaim(ctx context.Context, claimID int64) (*collaborator.ClaimSnapshot, error) {
	c, err := a.claims.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return &collaborator.ClaimSnapshot{
		ID:              c.ID,
		ClaimNumber:     c.ClaimNumber,
		PolicyholderID:  c.PolicyholderID,
		ClaimType:       c.ClaimType,
		Status:          claim.Status(c.Status),
		EstimatedAmount: c.Amount,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}, nil
}

// UpdateClaimStatus implements collaborator.ClaimService.
func (a *ClaimAdapter) UpdateClaimStatus(ctx context.Context, claimID int64, status claim.Status) error {
	_, err := a.claims.UpdateStatus(ctx, claimID, string(status))
	return err
}

var (
	_ collaborator.ClaimService = (*ClaimAdapter)(nil)
	_ claimOperations           = (*appclaim.ClaimService)(nil)
)
