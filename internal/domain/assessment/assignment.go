package assessment

import "time"

// Assignment records who handed a claim to which adjuster.
type Assignment struct {
	ID         int64
	ClaimID    int64
	AdjusterID int64
	AssignedBy int64
	AssignedAt time.Time
}

// NewAssignment stamps an assignment with the current time.
func NewAssignment(claimID, adjusterID, assignedBy int64) *Assignment {
	return &Assignment{
		ClaimID:    claimID,
		AdjusterID: adjusterID,
		AssignedBy: assignedBy,
		AssignedAt: time.Now(),
	}
}

// Workload is the number of claims an adjuster currently holds. It is never
// negative.
type Workload struct {
	AdjusterID       int64
	ActiveClaimCount int64
	UpdatedAt        time.Time
}
