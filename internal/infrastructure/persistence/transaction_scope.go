package persistence

import (
	"context"

	appassessment "github.com/claimswift/backend/internal/application/assessment"
	appclaim "github.com/claimswift/backend/internal/application/claim"
	apppayment "github.com/claimswift/backend/internal/application/payment"
	"github.com/claimswift/backend/internal/domain/assessment"
	"github.com/claimswift/backend/internal/domain/audit"
	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/payment"
	"gorm.io/gorm"
)

// gormTx carries the transaction handle shared by every scoped repository.
type gormTx struct {
	tx *gorm.DB
}

func (r gormTx) ClaimRepo() claim.ClaimRepository                { return NewGormClaimRepository(r.tx) }
func (r gormTx) HistoryRepo() claim.HistoryRepository            { return NewGormClaimHistoryRepository(r.tx) }
func (r gormTx) AssessmentRepo() assessment.AssessmentRepository { return NewGormAssessmentRepository(r.tx) }
func (r gormTx) AssignmentRepo() assessment.AssignmentRepository { return NewGormAssignmentRepository(r.tx) }
func (r gormTx) WorkloadRepo() assessment.WorkloadRepository     { return NewGormWorkloadRepository(r.tx) }
func (r gormTx) PaymentRepo() payment.PaymentRepository          { return NewGormPaymentRepository(r.tx) }
func (r gormTx) TransactionRepo() payment.TransactionRepository  { return NewGormPaymentTransactionRepository(r.tx) }
func (r gormTx) AuditTrail() audit.Trail                         { return NewGormAuditTrail(r.tx) }

// GormClaimTransactionScope runs claim mutations in one GORM transaction.
type GormClaimTransactionScope struct {
	db *gorm.DB
}

// NewGormClaimTransactionScope creates a new GormClaimTransactionScope.
func NewGormClaimTransactionScope(db *gorm.DB) *GormClaimTransactionScope {
	return &GormClaimTransactionScope{db: db}
}

// Execute runs fn within a database transaction. A returned error rolls back.
func (s *GormClaimTransactionScope) Execute(ctx context.Context, fn func(repos appclaim.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{tx: tx})
	})
}

// GormAssessmentTransactionScope runs assessment mutations and their audit
// rows in one GORM transaction.
type GormAssessmentTransactionScope struct {
	db *gorm.DB
}

// NewGormAssessmentTransactionScope creates a new GormAssessmentTransactionScope.
func NewGormAssessmentTransactionScope(db *gorm.DB) *GormAssessmentTransactionScope {
	return &GormAssessmentTransactionScope{db: db}
}

// Execute runs fn within a database transaction. A returned error rolls back.
func (s *GormAssessmentTransactionScope) Execute(ctx context.Context, fn func(repos appassessment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{tx: tx})
	})
}

// GormPaymentTransactionScope runs each saga step's writes in one GORM
// transaction.
type GormPaymentTransactionScope struct {
	db *gorm.DB
}

// NewGormPaymentTransactionScope creates a new GormPaymentTransactionScope.
func NewGormPaymentTransactionScope(db *gorm.DB) *GormPaymentTransactionScope {
	return &GormPaymentTransactionScope{db: db}
}

// Execute runs fn within a database transaction. A returned error rolls back.
func (s *GormPaymentTransactionScope) Execute(ctx context.Context, fn func(repos apppayment.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTx{tx: tx})
	})
}

var (
	_ appclaim.TransactionScope               = (*GormClaimTransactionScope)(nil)
	_ appassessment.TransactionScope          = (*GormAssessmentTransactionScope)(nil)
	_ apppayment.TransactionScope             = (*GormPaymentTransactionScope)(nil)
	_ appclaim.TransactionalRepositories      = gormTx{}
	_ appassessment.TransactionalRepositories = gormTx{}
	_ apppayment.TransactionalRepositories    = gormTx{}
)
