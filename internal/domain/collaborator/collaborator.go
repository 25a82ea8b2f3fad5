// Package collaborator declares the ports through which the assessment and
// payment workflows reach services they do not own: the claim service and the
// notification service.
//
// Claim status is owned exclusively by the claim subsystem. Other subsystems
// only request changes through ClaimService.
package collaborator

import (
	"context"
	"time"

	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ClaimSnapshot is the remote view of a claim at call time.
type ClaimSnapshot struct {
	ID              int64
	ClaimNumber     string
	PolicyholderID  int64
	ClaimType       string
	Status          claim.Status
	EstimatedAmount decimal.Decimal
	ApprovedAmount  decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ClaimService is the consumed claim interface.
type ClaimService interface {
	// FetchClaim returns ErrClaimNotFound when the claim does not exist and
	// ErrClaimServiceUnavailable when the service cannot be reached.
	FetchClaim(ctx context.Context, claimID int64) (*ClaimSnapshot, error)
	// UpdateClaimStatus must be a no-op when the claim already has status.
	UpdateClaimStatus(ctx context.Context, claimID int64, status claim.Status) error
}

// NotificationType classifies outbound notifications.
type NotificationType string

const (
	NotificationPaymentSuccess NotificationType = "PAYMENT_SUCCESS"
	NotificationPaymentFailed  NotificationType = "PAYMENT_FAILED"
)

// Notification is a fire-and-forget message to a policyholder.
type Notification struct {
	UserID  int64
	ClaimID int64
	Type    NotificationType
	Message string
}

// Notifier delivers notifications. Callers never propagate its errors.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

var (
	ErrClaimNotFound           = shared.NewDomainError(shared.CodeClaimNotFound, "Claim not found")
	ErrClaimServiceUnavailable = shared.NewDomainError(shared.CodeServiceCommunication, "Claim service is unavailable")
)
