// Package claim implements the claim lifecycle use cases: submission, status
// transitions and history queries.
package claim

import (
	"context"
	"fmt"

	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/claimswift/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// TransitionRecorder receives one call per committed status change.
type TransitionRecorder interface {
	RecordClaimTransition(ctx context.Context, from, to string)
}

// ClaimService owns claim status. It makes no external calls.
type ClaimService struct {
	claimRepo   claim.ClaimRepository
	historyRepo claim.HistoryRepository
	txScope     TransactionScope
	recorder    TransitionRecorder
	logger      *zap.Logger
}

// ClaimServiceConfig holds the dependencies of ClaimService
type ClaimServiceConfig struct {
	ClaimRepo   claim.ClaimRepository
	HistoryRepo claim.HistoryRepository
	TxScope     TransactionScope
	Recorder    TransitionRecorder
	Logger      *zap.Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(cfg ClaimServiceConfig) *ClaimService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	txScope := cfg.TxScope
	if txScope == nil {
		txScope = NewNoOpTransactionScope(cfg.ClaimRepo, cfg.HistoryRepo)
	}
	return &ClaimService{
		claimRepo:   cfg.ClaimRepo,
		historyRepo: cfg.HistoryRepo,
		txScope:     txScope,
		recorder:    cfg.Recorder,
		logger:      logger,
	}
}

// Submit creates a claim in SUBMITTED together with its first history row.
func (s *ClaimService) Submit(ctx context.Context, req SubmitClaimRequest) (*ClaimResponse, error) {
	c, err := claim.NewClaim(req.PolicyNumber, req.PolicyholderID, req.ClaimType, req.Description, req.Amount)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.ClaimRepo().Create(ctx, c); err != nil {
			return fmt.Errorf("failed to create claim: %w", err)
		}
		if err := repos.HistoryRepo().Append(ctx, claim.InitialHistory(c)); err != nil {
			return fmt.Errorf("failed to append claim history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Claim submitted",
		zap.Int64("claim_id", c.ID),
		zap.String("policy_number", c.PolicyNumber),
		zap.String("amount", c.Amount.StringFixed(2)))

	resp := ToClaimResponse(c)
	return &resp, nil
}

// GetByID returns a claim or CLAIM_NOT_FOUND.
func (s *ClaimService) GetByID(ctx context.Context, id int64) (*ClaimResponse, error) {
	c, err := s.claimRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, claim.NotFound(id)
	}
	resp := ToClaimResponse(c)
	return &resp, nil
}

// Transition applies one step of the lifecycle. Pairs outside the table,
// repeats included, fail with INVALID_TRANSITION and change nothing. The
// claim row and its history row commit together.
func (s *ClaimService) Transition(ctx context.Context, id int64, target claim.Status) (_ *ClaimResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "claim", "transition",
		telemetry.SpanAttrClaimID, id,
		telemetry.SpanAttrClaimStatus, string(target),
	)
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	var (
		updated *claim.Claim
		from    claim.Status
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		c, err := repos.ClaimRepo().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return claim.NotFound(id)
		}
		from = c.Status

		history, err := c.Transition(target)
		if err != nil {
			return err
		}
		if err := repos.ClaimRepo().Save(ctx, c); err != nil {
			return fmt.Errorf("failed to save claim: %w", err)
		}
		if err := repos.HistoryRepo().Append(ctx, history); err != nil {
			return fmt.Errorf("failed to append claim history: %w", err)
		}
		updated = c
		return nil
	})
	if err != nil {
		s.logger.Warn("Claim transition rejected",
			zap.Int64("claim_id", id),
			zap.String("target", string(target)),
			zap.Error(err))
		return nil, err
	}

	if s.recorder != nil {
		s.recorder.RecordClaimTransition(ctx, string(from), string(target))
	}
	s.logger.Info("Claim transitioned",
		zap.Int64("claim_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(target)))

	resp := ToClaimResponse(updated)
	return &resp, nil
}

// UpdateStatus is the collaborator-facing entry point. It parses rawStatus
// (PAID means SETTLED) and succeeds without writing anything when the claim
// already has that status, so callers may re-apply it safely.
func (s *ClaimService) UpdateStatus(ctx context.Context, id int64, rawStatus string) (*ClaimResponse, error) {
	target, err := claim.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	current, err := s.claimRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, claim.NotFound(id)
	}
	if current.Status == target {
		s.logger.Debug("Claim status already applied",
			zap.Int64("claim_id", id),
			zap.String("status", string(target)))
		resp := ToClaimResponse(current)
		return &resp, nil
	}

	resp, err := s.Transition(ctx, id, target)
	if err != nil {
		// A concurrent caller may have applied the same status between our
		// read and the locked transition.
		if again, ferr := s.claimRepo.FindByID(ctx, id); ferr == nil && again != nil && again.Status == target {
			r := ToClaimResponse(again)
			return &r, nil
		}
		return nil, err
	}
	return resp, nil
}

// History returns the status history of a claim, oldest first.
func (s *ClaimService) History(ctx context.Context, id int64) ([]StatusHistoryResponse, error) {
	c, err := s.claimRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, claim.NotFound(id)
	}
	rows, err := s.historyRepo.FindByClaimID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToStatusHistoryResponses(rows), nil
}

// List returns claims filtered by status or policyholder.
func (s *ClaimService) List(ctx context.Context, f ClaimListFilter) ([]ClaimResponse, int64, error) {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}

	var (
		claims []claim.Claim
		total  int64
		err    error
	)
	switch {
	case f.Status != "":
		status, perr := claim.ParseStatus(f.Status)
		if perr != nil {
			return nil, 0, perr
		}
		claims, total, err = s.claimRepo.FindByStatus(ctx, status, filter)
	case f.PolicyholderID > 0:
		claims, total, err = s.claimRepo.FindByPolicyholder(ctx, f.PolicyholderID, filter)
	default:
		claims, total, err = s.claimRepo.FindAll(ctx, filter)
	}
	if err != nil {
		return nil, 0, err
	}

	out := make([]ClaimResponse, len(claims))
	for i := range claims {
		out[i] = ToClaimResponse(&claims[i])
	}
	return out, total, nil
}
