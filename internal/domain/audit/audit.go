// Package audit defines the append-only trail of mutating actions.
//
// Records are keyed by subject (a payment, an assessment or a claim) and are
// never updated or deleted once written.
package audit

import (
	"context"
	"strings"
	"time"

	"github.com/claimswift/backend/internal/domain/shared"
)

// SubjectType names the aggregate a record belongs to.
type SubjectType string

const (
	SubjectPayment    SubjectType = "PAYMENT"
	SubjectAssessment SubjectType = "ASSESSMENT"
	SubjectClaim      SubjectType = "CLAIM"
)

// IsValid reports whether t is a known subject type.
func (t SubjectType) IsValid() bool {
	switch t {
	case SubjectPayment, SubjectAssessment, SubjectClaim:
		return true
	}
	return false
}

// Actions written by the payment and assessment workflows.
const (
	ActionPaymentInitiated    = "PAYMENT_INITIATED"
	ActionPaymentSuccess      = "PAYMENT_SUCCESS"
	ActionPaymentFailed       = "PAYMENT_FAILED"
	ActionPaymentRetried      = "PAYMENT_RETRIED"
	ActionPaymentStalled      = "PAYMENT_STALLED"
	ActionClaimSyncFailed     = "CLAIM_SYNC_FAILED"
	ActionClaimSyncReconciled = "CLAIM_SYNC_RECONCILED"

	ActionAssessmentCreated = "CREATE"
	ActionAssign            = "ASSIGN"
	ActionApprove           = "APPROVE"
	ActionReject            = "REJECT"
	ActionAdjust            = "ADJUST"
)

// SystemActor is recorded as PerformedBy when no caller identity is known.
const SystemActor = "SYSTEM"

// Record is one immutable audit row.
type Record struct {
	ID          int64
	SubjectType SubjectType
	SubjectID   int64
	Action      string
	OldValue    string
	NewValue    string
	PerformedBy string
	Description string
	Timestamp   time.Time
}

// NewRecord builds a record stamped with the current time.
func NewRecord(subject SubjectType, subjectID int64, action, performedBy string) (*Record, error) {
	if !subject.IsValid() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Unknown audit subject type")
	}
	if strings.TrimSpace(action) == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Audit action cannot be empty")
	}
	if performedBy == "" {
		performedBy = SystemActor
	}
	return &Record{
		SubjectType: subject,
		SubjectID:   subjectID,
		Action:      action,
		PerformedBy: performedBy,
		Timestamp:   time.Now(),
	}, nil
}

// WithChange sets the before/after values.
func (r *Record) WithChange(oldValue, newValue string) *Record {
	r.OldValue = oldValue
	r.NewValue = newValue
	return r
}

// WithDescription sets a free-text description.
func (r *Record) WithDescription(desc string) *Record {
	r.Description = desc
	return r
}

// Trail is the append-only sink. It has no update or delete operation.
type Trail interface {
	Append(ctx context.Context, r *Record) error
	// FindBySubject returns records oldest first.
	FindBySubject(ctx context.Context, subject SubjectType, subjectID int64) ([]Record, error)
	CountByAction(ctx context.Context, subject SubjectType, subjectID int64, action string) (int64, error)
}
