// Package payment holds the settlement payment aggregate and its per-payment
// state machine:
//
//	INITIATED --gateway ok--> SUCCESS (terminal)
//	INITIATED --gateway error/decline--> FAILED
//	FAILED --retry--> INITIATED
package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the payment state.
type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusInitiated || s == StatusSuccess || s == StatusFailed
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// ClaimSync tracks whether the claim has been told about a successful payment.
type ClaimSync string

const (
	ClaimSyncNotRequired ClaimSync = "NOT_REQUIRED"
	// ClaimSyncPending is the settled-pending-sync condition: money moved but
	// the claim has not confirmed PAID yet.
	ClaimSyncPending ClaimSync = "PENDING"
	ClaimSyncSynced  ClaimSync = "SYNCED"
)

// IsValid reports whether c is a known sync state.
func (c ClaimSync) IsValid() bool {
	return c == ClaimSyncNotRequired || c == ClaimSyncPending || c == ClaimSyncSynced
}

// BankDetails is the payee account.
type BankDetails struct {
	AccountNumber     string
	BankName          string
	IFSCCode          string
	AccountHolderName string
}

// Validate checks that every field is present.
func (b BankDetails) Validate() error {
	switch {
	case strings.TrimSpace(b.AccountNumber) == "":
		return shared.NewDomainError(shared.CodeValidation, "Bank account number is required")
	case strings.TrimSpace(b.BankName) == "":
		return shared.NewDomainError(shared.CodeValidation, "Bank name is required")
	case strings.TrimSpace(b.IFSCCode) == "":
		return shared.NewDomainError(shared.CodeValidation, "IFSC code is required")
	case strings.TrimSpace(b.AccountHolderName) == "":
		return shared.NewDomainError(shared.CodeValidation, "Account holder name is required")
	}
	return nil
}

// MaskedAccountNumber keeps only the last four characters.
func (b BankDetails) MaskedAccountNumber() string {
	n := len(b.AccountNumber)
	if n <= 4 {
		return b.AccountNumber
	}
	return strings.Repeat("*", n-4) + b.AccountNumber[n-4:]
}

// Payment is the aggregate root. At most one payment exists per claim.
type Payment struct {
	shared.BaseAggregateRoot
	ClaimID          int64
	PolicyholderID   int64
	ApprovedAmount   decimal.Decimal
	PaymentReference string
	Status           Status
	ClaimSync        ClaimSync
	Bank             BankDetails
	Attempts         int
	ProcessedAt      *time.Time
}

// NewPaymentReference returns "PAY-" followed by eight upper-case hex chars.
func NewPaymentReference() string {
	return "PAY-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// NewPayment creates a payment in INITIATED.
func NewPayment(claimID, policyholderID int64, amount decimal.Decimal, bank BankDetails) (*Payment, error) {
	if claimID <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Claim ID must be positive")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Approved amount must be positive")
	}
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	return &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClaimID:           claimID,
		PolicyholderID:    policyholderID,
		ApprovedAmount:    amount.Round(2),
		PaymentReference:  NewPaymentReference(),
		Status:            StatusInitiated,
		ClaimSync:         ClaimSyncNotRequired,
		Bank:              bank,
	}, nil
}

// MarkSucceeded moves INITIATED to SUCCESS. The claim still has to be told,
// so ClaimSync becomes PENDING until MarkClaimSynced.
func (p *Payment) MarkSucceeded() error {
	if p.Status != StatusInitiated {
		return p.stateError("complete")
	}
	now := time.Now()
	p.Status = StatusSuccess
	p.ClaimSync = ClaimSyncPending
	p.ProcessedAt = &now
	p.Attempts++
	p.touch()
	return nil
}

// MarkFailed moves INITIATED to FAILED.
func (p *Payment) MarkFailed() error {
	if p.Status != StatusInitiated {
		return p.stateError("fail")
	}
	p.Status = StatusFailed
	p.Attempts++
	p.touch()
	return nil
}

// ResetForRetry moves FAILED back to INITIATED. Any other status fails with
// INVALID_PAYMENT_STATE.
func (p *Payment) ResetForRetry() error {
	if p.Status != StatusFailed {
		return shared.NewDomainError(shared.CodeInvalidPaymentState,
			fmt.Sprintf("Only failed payments can be retried. Current status: %s", p.Status))
	}
	p.Status = StatusInitiated
	p.ProcessedAt = nil
	p.touch()
	return nil
}

// MarkClaimSynced clears the settled-pending-sync condition.
func (p *Payment) MarkClaimSynced() error {
	if p.Status != StatusSuccess || p.ClaimSync != ClaimSyncPending {
		return shared.NewDomainError(shared.CodeInvalidPaymentState,
			fmt.Sprintf("Payment %s has no pending claim sync", p.PaymentReference))
	}
	p.ClaimSync = ClaimSyncSynced
	p.touch()
	return nil
}

// NeedsClaimSync reports whether the payment is settled but unconfirmed.
func (p *Payment) NeedsClaimSync() bool {
	return p.Status == StatusSuccess && p.ClaimSync == ClaimSyncPending
}

func (p *Payment) stateError(op string) error {
	return shared.NewDomainError(shared.CodeInvalidPaymentState,
		fmt.Sprintf("Cannot %s payment in %s status", op, p.Status))
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
