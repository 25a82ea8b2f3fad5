package claim

import (
	"context"

	"github.com/claimswift/backend/internal/domain/claim"
)

// TransactionScope runs fn with repositories that share one database
// transaction. A returned error rolls everything back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the claim repositories bound to the
// current transaction.
type TransactionalRepositories interface {
	ClaimRepo() claim.ClaimRepository
	HistoryRepo() claim.HistoryRepository
}

// NoOpTransactionScope runs fn directly against the given repositories.
type NoOpTransactionScope struct {
	claimRepo   claim.ClaimRepository
	historyRepo claim.HistoryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope.
func NewNoOpTransactionScope(claimRepo claim.ClaimRepository, historyRepo claim.HistoryRepository) *NoOpTransactionScope {
	return &NoOpTransactionScope{claimRepo: claimRepo, historyRepo: historyRepo}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ClaimRepo returns the claim repository.
func (s *NoOpTransactionScope) ClaimRepo() claim.ClaimRepository { return s.claimRepo }

// HistoryRepo returns the history repository.
func (s *NoOpTransactionScope) HistoryRepo() claim.HistoryRepository { return s.historyRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
