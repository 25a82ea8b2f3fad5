package claim

import (
	"fmt"
	"time"

	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/shopspring/decimal"
)

// SubmitClaimRequest represents a request to submit a new claim
type SubmitClaimRequest struct {
	PolicyNumber   string          `json:"policy_number" binding:"required,min=1,max=50"`
	PolicyholderID int64           `json:"policyholder_id" binding:"required,gt=0"`
	ClaimType      string          `json:"claim_type" binding:"required,max=50"`
	Amount         decimal.Decimal `json:"amount"`
	Description    string          `json:"description" binding:"max=2000"`
}

// UpdateStatusRequest asks the claim to move to NewStatus. PAID is accepted
// for SETTLED.
type UpdateStatusRequest struct {
	NewStatus string `json:"new_status" binding:"required"`
}

// ClaimListFilter represents filter options for the claim list
type ClaimListFilter struct {
	Status         string `form:"status"`
	PolicyholderID int64  `form:"policyholder_id" binding:"omitempty,gt=0"`
	Page           int    `form:"page" binding:"omitempty,min=1"`
	PageSize       int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ClaimResponse represents a claim in API responses
type ClaimResponse struct {
	ID             int64           `json:"id"`
	ClaimNumber    string          `json:"claim_number"`
	PolicyNumber   string          `json:"policy_number"`
	PolicyholderID int64           `json:"policyholder_id"`
	ClaimType      string          `json:"claim_type"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Status         string          `json:"status"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// StatusHistoryResponse is one history row
type StatusHistoryResponse struct {
	ClaimID        int64     `json:"claim_id"`
	OldStatus      string    `json:"old_status,omitempty"`
	NewStatus      string    `json:"new_status"`
	TransitionedAt time.Time `json:"transitioned_at"`
}

// ClaimNumber formats the display number for a claim id.
func ClaimNumber(id int64) string {
	return fmt.Sprintf("CLM-%06d", id)
}

// ToClaimResponse converts a domain Claim to ClaimResponse
func ToClaimResponse(c *claim.Claim) ClaimResponse {
	return ClaimResponse{
		ID:             c.ID,
		ClaimNumber:    ClaimNumber(c.ID),
		PolicyNumber:   c.PolicyNumber,
		PolicyholderID: c.PolicyholderID,
		ClaimType:      c.ClaimType,
		Description:    c.Description,
		Amount:         c.Amount,
		Status:         string(c.Status),
		Version:        c.Version,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// ToStatusHistoryResponses converts history rows
func ToStatusHistoryResponses(rows []claim.StatusHistory) []StatusHistoryResponse {
	out := make([]StatusHistoryResponse, len(rows))
	for i, h := range rows {
		out[i] = StatusHistoryResponse{
			ClaimID:        h.ClaimID,
			OldStatus:      string(h.OldStatus),
			NewStatus:      string(h.NewStatus),
			TransitionedAt: h.TransitionedAt,
		}
	}
	return out
}
