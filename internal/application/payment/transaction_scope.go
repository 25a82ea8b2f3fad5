package payment

import (
	"context"

	"github.com/claimswift/backend/internal/domain/audit"
	"github.com/claimswift/backend/internal/domain/payment"
)

// TransactionScope runs fn with repositories that share one database
// transaction.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories groups the repositories a saga step writes. A
// payment row, its attempt and the audit row for the step commit together.
type TransactionalRepositories interface {
	PaymentRepo() payment.PaymentRepository
	TransactionRepo() payment.TransactionRepository
	AuditTrail() audit.Trail
}

// NoOpTransactionScope runs fn directly against the given repositories.
type NoOpTransactionScope struct {
	paymentRepo     payment.PaymentRepository
	transactionRepo payment.TransactionRepository
	auditTrail      audit.Trail
}

// NewNoOpTransactionScope creates a NoOpTransactionScope.
func NewNoOpTransactionScope(paymentRepo payment.PaymentRepository, transactionRepo payment.TransactionRepository, auditTrail audit.Trail) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		paymentRepo:     paymentRepo,
		transactionRepo: transactionRepo,
		auditTrail:      auditTrail,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) PaymentRepo() payment.PaymentRepository         { return s.paymentRepo }
func (s *NoOpTransactionScope) TransactionRepo() payment.TransactionRepository { return s.transactionRepo }
func (s *NoOpTransactionScope) AuditTrail() audit.Trail                        { return s.auditTrail }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
