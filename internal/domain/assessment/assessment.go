// Package assessment models an adjuster's adjudication of a single claim.
package assessment

import (
	"fmt"
	"time"

	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the assessment decision state.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// DefaultDeductibleRate is applied to every approval and adjustment.
var DefaultDeductibleRate = decimal.NewFromFloat(0.10)

// Assessment is the aggregate root. ClaimID is unique across assessments.
type Assessment struct {
	shared.BaseAggregateRoot
	ClaimID        int64
	AdjusterID     *int64
	AssessedAmount decimal.Decimal
	DeductibleRate decimal.Decimal
	Deductible     decimal.Decimal
	FinalAmount    decimal.Decimal
	Status         Status
	DecidedBy      string
	DecidedAt      *time.Time
}

// NewAssessment creates a PENDING assessment with zero amounts.
func NewAssessment(claimID int64) (*Assessment, error) {
	if claimID <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Claim ID must be positive")
	}
	return &Assessment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClaimID:           claimID,
		AssessedAmount:    decimal.Zero,
		DeductibleRate:    DefaultDeductibleRate,
		Deductible:        decimal.Zero,
		FinalAmount:       decimal.Zero,
		Status:            StatusPending,
	}, nil
}

// Breakdown is the result of applying a deductible rate to an amount.
type Breakdown struct {
	Assessed   decimal.Decimal
	Rate       decimal.Decimal
	Deductible decimal.Decimal
	Final      decimal.Decimal
}

// ComputeBreakdown returns deductible = round(amount*rate, 2) and
// final = amount - deductible.
func ComputeBreakdown(amount, rate decimal.Decimal) Breakdown {
	assessed := amount.Round(2)
	deductible := assessed.Mul(rate).Round(2)
	return Breakdown{
		Assessed:   assessed,
		Rate:       rate,
		Deductible: deductible,
		Final:      assessed.Sub(deductible),
	}
}

// IsAssigned reports whether an adjuster owns the assessment.
func (a *Assessment) IsAssigned() bool {
	return a.AdjusterID != nil
}

// AssignTo sets the adjuster and returns the previous one, if any.
func (a *Assessment) AssignTo(adjusterID int64) (previous *int64, err error) {
	if adjusterID <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Adjuster ID must be positive")
	}
	if a.Status != StatusPending {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot assign an assessment in %s status", a.Status))
	}
	previous = a.AdjusterID
	id := adjusterID
	a.AdjusterID = &id
	a.touch()
	return previous, nil
}

// Approve records the assessed amount and marks the assessment APPROVED.
func (a *Assessment) Approve(amount decimal.Decimal, userID string) error {
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeValidation, "Assessed amount must be positive")
	}
	if a.Status != StatusPending {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot approve an assessment in %s status", a.Status))
	}
	a.apply(ComputeBreakdown(amount, a.rate()))
	a.decide(StatusApproved, userID)
	return nil
}

// Reject marks the assessment REJECTED. Amounts are left as they were.
func (a *Assessment) Reject(userID string) error {
	if a.Status != StatusPending {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot reject an assessment in %s status", a.Status))
	}
	a.decide(StatusRejected, userID)
	return nil
}

// Adjust lowers the assessed amount and recomputes the deductible. Status is
// never changed. An amount above the current assessed amount fails with
// AMOUNT_EXCEEDED and leaves the assessment untouched.
func (a *Assessment) Adjust(newAmount decimal.Decimal) error {
	if !newAmount.IsPositive() {
		return shared.NewDomainError(shared.CodeValidation, "Adjusted amount must be positive")
	}
	if newAmount.GreaterThan(a.AssessedAmount) {
		return shared.NewDomainError(shared.CodeAmountExceeded,
			fmt.Sprintf("Adjusted amount %s exceeds assessed amount %s",
				newAmount.StringFixed(2), a.AssessedAmount.StringFixed(2)))
	}
	a.apply(ComputeBreakdown(newAmount, a.rate()))
	a.touch()
	return nil
}

func (a *Assessment) rate() decimal.Decimal {
	if a.DeductibleRate.IsZero() {
		return DefaultDeductibleRate
	}
	return a.DeductibleRate
}

func (a *Assessment) apply(b Breakdown) {
	a.AssessedAmount = b.Assessed
	a.DeductibleRate = b.Rate
	a.Deductible = b.Deductible
	a.FinalAmount = b.Final
}

func (a *Assessment) decide(status Status, userID string) {
	now := time.Now()
	a.Status = status
	a.DecidedBy = userID
	a.DecidedAt = &now
	a.touch()
}

func (a *Assessment) touch() {
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}
