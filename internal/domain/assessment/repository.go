package assessment

import "context"

// AssessmentRepository persists assessments.
type AssessmentRepository interface {
	// FindByClaimID returns nil, nil when the claim has no assessment.
	FindByClaimID(ctx context.Context, claimID int64) (*Assessment, error)
	// FindByClaimIDForUpdate locks the row for the rest of the transaction.
	FindByClaimIDForUpdate(ctx context.Context, claimID int64) (*Assessment, error)
	// Create fails with ASSESSMENT_ALREADY_EXISTS when the claim already has one.
	Create(ctx context.Context, a *Assessment) error
	Save(ctx context.Context, a *Assessment) error
}

// AssignmentRepository is append-only.
type AssignmentRepository interface {
	Append(ctx context.Context, a *Assignment) error
	FindByClaimID(ctx context.Context, claimID int64) ([]Assignment, error)
}

// WorkloadRepository mutates counters with single atomic statements.
type WorkloadRepository interface {
	// Increment adds one, creating the counter at zero first if absent.
	Increment(ctx context.Context, adjusterID int64) error
	// Decrement subtracts one with a floor of zero. Missing counters are left absent.
	Decrement(ctx context.Context, adjusterID int64) error
	// FindByAdjusterID returns nil, nil for an adjuster with no counter.
	FindByAdjusterID(ctx context.Context, adjusterID int64) (*Workload, error)
}
