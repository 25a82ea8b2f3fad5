// Package claim holds the claim aggregate and its status lifecycle.
package claim

import (
	"fmt"
	"strings"
	"time"

	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle status of a claim.
type Status string

const (
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusSettled     Status = "SETTLED"
)

// StatusPaid is the external name some callers use for SETTLED.
const StatusPaid Status = "PAID"

// transitions is the complete set of legal (from, to) pairs.
var transitions = map[Status][]Status{
	StatusSubmitted:   {StatusUnderReview},
	StatusUnderReview: {StatusApproved, StatusRejected},
	StatusApproved:    {StatusSettled},
}

// AllStatuses lists every claim status in lifecycle order.
func AllStatuses() []Status {
	return []Status{StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected, StatusSettled}
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusUnderReview, StatusApproved, StatusRejected, StatusSettled:
		return true
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusSettled
}

// CanTransitionTo reports whether (s, target) is in the transition table.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// ParseStatus normalizes user input into a Status. PAID maps to SETTLED.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if s == StatusPaid {
		return StatusSettled, nil
	}
	if !s.IsValid() {
		return "", shared.NewDomainError(shared.CodeValidation, fmt.Sprintf("Unknown claim status: %q", raw))
	}
	return s, nil
}

// Claim is the aggregate root for an insurance claim.
type Claim struct {
	shared.BaseAggregateRoot
	PolicyNumber   string
	PolicyholderID int64
	ClaimType      string
	Description    string
	Amount         decimal.Decimal
	Status         Status
}

// NewClaim creates a claim in SUBMITTED.
func NewClaim(policyNumber string, policyholderID int64, claimType, description string, amount decimal.Decimal) (*Claim, error) {
	if strings.TrimSpace(policyNumber) == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Policy number cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Claim amount must be positive")
	}
	if policyholderID <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Policyholder ID must be positive")
	}
	return &Claim{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PolicyNumber:      strings.TrimSpace(policyNumber),
		PolicyholderID:    policyholderID,
		ClaimType:         claimType,
		Description:       description,
		Amount:            amount.Round(2),
		Status:            StatusSubmitted,
	}, nil
}

// Transition moves the claim to target and returns the history row to record.
// Any pair outside the table, including a repeat of the current status,
// fails with INVALID_TRANSITION and leaves the claim untouched.
func (c *Claim) Transition(target Status) (*StatusHistory, error) {
	if !c.Status.CanTransitionTo(target) {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("Cannot transition claim %d from %s to %s", c.ID, c.Status, target))
	}
	now := time.Now()
	history := &StatusHistory{
		ClaimID:        c.ID,
		OldStatus:      c.Status,
		NewStatus:      target,
		TransitionedAt: now,
	}
	c.Status = target
	c.UpdatedAt = now
	c.IncrementVersion()
	return history, nil
}
