package assessment

import (
	"time"

	"github.com/claimswift/backend/internal/domain/assessment"
	"github.com/shopspring/decimal"
)

// CreateAssessmentRequest opens an assessment for a claim under review
type CreateAssessmentRequest struct {
	ClaimID int64 `json:"claim_id" binding:"required,gt=0"`
	UserID  int64 `json:"user_id" binding:"omitempty,gt=0"`
}

// AssignRequest hands a claim to an adjuster
type AssignRequest struct {
	ClaimID    int64 `json:"claim_id" binding:"required,gt=0"`
	AdjusterID int64 `json:"adjuster_id" binding:"required,gt=0"`
	ManagerID  int64 `json:"manager_id" binding:"omitempty,gt=0"`
}

// ApproveRequest approves a claim for AssessedAmount
type ApproveRequest struct {
	ClaimID        int64           `json:"claim_id" binding:"required,gt=0"`
	AssessedAmount decimal.Decimal `json:"assessed_amount"`
	UserID         int64           `json:"user_id" binding:"omitempty,gt=0"`
}

// RejectRequest rejects a claim
type RejectRequest struct {
	ClaimID int64 `json:"claim_id" binding:"required,gt=0"`
	UserID  int64 `json:"user_id" binding:"omitempty,gt=0"`
}

// AdjustRequest lowers the assessed amount of a claim
type AdjustRequest struct {
	ClaimID   int64           `json:"claim_id" binding:"required,gt=0"`
	NewAmount decimal.Decimal `json:"new_amount"`
	UserID    int64           `json:"user_id" binding:"omitempty,gt=0"`
}

// AssessmentResponse represents an assessment in API responses
type AssessmentResponse struct {
	ID             int64           `json:"id"`
	ClaimID        int64           `json:"claim_id"`
	AdjusterID     *int64          `json:"adjuster_id,omitempty"`
	AssessedAmount decimal.Decimal `json:"assessed_amount"`
	DeductibleRate decimal.Decimal `json:"deductible_rate"`
	Deductible     decimal.Decimal `json:"deductible"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
	Status         string          `json:"status"`
	DecidedBy      string          `json:"decided_by,omitempty"`
	DecidedAt      *time.Time      `json:"decided_at,omitempty"`
	Version        int             `json:"version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// AssignmentResponse is one assignment row
type AssignmentResponse struct {
	ClaimID    int64     `json:"claim_id"`
	AdjusterID int64     `json:"adjuster_id"`
	AssignedBy int64     `json:"assigned_by"`
	AssignedAt time.Time `json:"assigned_at"`
}

// WorkloadResponse is an adjuster's active claim count
type WorkloadResponse struct {
	AdjusterID       int64 `json:"adjuster_id"`
	ActiveClaimCount int64 `json:"active_claim_count"`
}

// ToAssessmentResponse converts a domain Assessment
func ToAssessmentResponse(a *assessment.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ID:             a.ID,
		ClaimID:        a.ClaimID,
		AdjusterID:     a.AdjusterID,
		AssessedAmount: a.AssessedAmount,
		DeductibleRate: a.DeductibleRate,
		Deductible:     a.Deductible,
		FinalAmount:    a.FinalAmount,
		Status:         string(a.Status),
		DecidedBy:      a.DecidedBy,
		DecidedAt:      a.DecidedAt,
		Version:        a.Version,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
