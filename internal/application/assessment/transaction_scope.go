package assessment

import (
	"context"

	"github.com/claimswift/backend/internal/domain/assessment"
	"github.com/claimswift/backend/internal/domain/audit"
)

// TransactionScope runs fn with repositories that share one database
// transaction.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories groups the repositories an assessment mutation
// touches. Audit rows are written in the same transaction.
type TransactionalRepositories interface {
	AssessmentRepo() assessment.AssessmentRepository
	AssignmentRepo() assessment.AssignmentRepository
	WorkloadRepo() assessment.WorkloadRepository
	AuditTrail() audit.Trail
}

// NoOpTransactionScope runs fn directly against the given repositories.
type NoOpTransactionScope struct {
	assessmentRepo assessment.AssessmentRepository
	assignmentRepo assessment.AssignmentRepository
	workloadRepo   assessment.WorkloadRepository
	auditTrail     audit.Trail
}

// NewNoOpTransactionScope creates a NoOpTransactionScope.
func NewNoOpTransactionScope(
	assessmentRepo assessment.AssessmentRepository,
	assignmentRepo assessment.AssignmentRepository,
	workloadRepo assessment.WorkloadRepository,
	auditTrail audit.Trail,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		assessmentRepo: assessmentRepo,
		assignmentRepo: assignmentRepo,
		workloadRepo:   workloadRepo,
		auditTrail:     auditTrail,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) AssessmentRepo() assessment.AssessmentRepository { return s.assessmentRepo }
func (s *NoOpTransactionScope) AssignmentRepo() assessment.AssignmentRepository { return s.assignmentRepo }
func (s *NoOpTransactionScope) WorkloadRepo() assessment.WorkloadRepository     { return s.workloadRepo }
func (s *NoOpTransactionScope) AuditTrail() audit.Trail                         { return s.auditTrail }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
