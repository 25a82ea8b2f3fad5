package claim

import "time"

// StatusHistory is one append-only row per status change. OldStatus is empty
// for the row written at submission.
type StatusHistory struct {
	ID             int64
	ClaimID        int64
	OldStatus      Status
	NewStatus      Status
	TransitionedAt time.Time
}

// InitialHistory is the row recorded when a claim is first submitted.
func InitialHistory(c *Claim) *StatusHistory {
	return &StatusHistory{
		ClaimID:        c.ID,
		NewStatus:      c.Status,
		TransitionedAt: c.CreatedAt,
	}
}
