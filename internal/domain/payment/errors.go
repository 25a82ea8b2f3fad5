package payment

import (
	"fmt"

	"github.com/claimswift/backend/internal/domain/shared"
)

var (
	ErrPaymentNotFound      = shared.NewDomainError(shared.CodePaymentNotFound, "Payment not found")
	ErrPaymentAlreadyExists = shared.NewDomainError(shared.CodePaymentAlreadyExists, "Payment already exists for claim")
	ErrInvalidPaymentState  = shared.NewDomainError(shared.CodeInvalidPaymentState, "Operation not allowed in current payment status")
	ErrInvalidClaimStatus   = shared.NewDomainError(shared.CodeInvalidClaimStatus, "Claim is not approved for payment")
)

// NotFound returns a PAYMENT_NOT_FOUND error naming id.
func NotFound(id int64) error {
	return shared.NewDomainError(shared.CodePaymentNotFound, fmt.Sprintf("Payment not found with id: %d", id))
}

// NotFoundForClaim returns a PAYMENT_NOT_FOUND error naming the claim.
func NotFoundForClaim(claimID int64) error {
	return shared.NewDomainError(shared.CodePaymentNotFound, fmt.Sprintf("Payment not found for claim: %d", claimID))
}

// AlreadyExists returns a PAYMENT_ALREADY_EXISTS error naming the claim.
func AlreadyExists(claimID int64) error {
	return shared.NewDomainError(shared.CodePaymentAlreadyExists,
		fmt.Sprintf("Payment already exists for claim: %d", claimID))
}
