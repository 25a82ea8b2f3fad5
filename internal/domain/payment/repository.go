package payment

import (
	"context"
	"time"

	"github.com/claimswift/backend/internal/domain/shared"
)

// ListFilter narrows FindAll.
type ListFilter struct {
	shared.Filter
	Status    Status
	ClaimSync ClaimSync
}

// PaymentRepository persists payments.
type PaymentRepository interface {
	// FindByID returns nil, nil when absent.
	FindByID(ctx context.Context, id int64) (*Payment, error)
	// FindByClaimID returns nil, nil when absent.
	FindByClaimID(ctx context.Context, claimID int64) (*Payment, error)
	ExistsByClaimID(ctx context.Context, claimID int64) (bool, error)
	FindAll(ctx context.Context, filter ListFilter) ([]Payment, int64, error)
	// FindPendingClaimSync returns SUCCESS payments whose claim is not yet PAID.
	FindPendingClaimSync(ctx context.Context, limit int) ([]Payment, error)
	// FindStalled returns INITIATED payments last touched before cutoff.
	FindStalled(ctx context.Context, cutoff time.Time, limit int) ([]Payment, error)
	// Create fails with PAYMENT_ALREADY_EXISTS when the claim already has a
	// payment, including when a concurrent insert won the race.
	Create(ctx context.Context, p *Payment) error
	// Save fails with CONCURRENCY_CONFLICT when the stored version moved on.
	Save(ctx context.Context, p *Payment) error
}

// TransactionRepository is append-only.
type TransactionRepository interface {
	Create(ctx context.Context, t *Transaction) error
	// FindLatestByPaymentID returns nil, nil when no attempt was recorded.
	FindLatestByPaymentID(ctx context.Context, paymentID int64) (*Transaction, error)
	FindByPaymentID(ctx context.Context, paymentID int64) ([]Transaction, error)
}
