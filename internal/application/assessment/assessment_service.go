// Package assessment implements the adjuster workflow: opening an assessment,
// assigning it, and deciding or adjusting the payable amount. Claim status is
// driven through the claim collaborator, never written directly.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/claimswift/backend/internal/domain/assessment"
	"github.com/claimswift/backend/internal/domain/audit"
	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/collaborator"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/claimswift/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// AssessmentService coordinates assessment mutations.
type AssessmentService struct {
	assessmentRepo assessment.AssessmentRepository
	assignmentRepo assessment.AssignmentRepository
	workloadRepo   assessment.WorkloadRepository
	claims         collaborator.ClaimService
	txScope        TransactionScope
	logger         *zap.Logger
}

// AssessmentServiceConfig holds the dependencies of AssessmentService
type AssessmentServiceConfig struct {
	AssessmentRepo assessment.AssessmentRepository
	AssignmentRepo assessment.AssignmentRepository
	WorkloadRepo   assessment.WorkloadRepository
	AuditTrail     audit.Trail
	Claims         collaborator.ClaimService
	TxScope        TransactionScope
	Logger         *zap.Logger
}

// NewAssessmentService creates a new AssessmentService
func NewAssessmentService(cfg AssessmentServiceConfig) *AssessmentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	txScope := cfg.TxScope
	if txScope == nil {
		txScope = NewNoOpTransactionScope(cfg.AssessmentRepo, cfg.AssignmentRepo, cfg.WorkloadRepo, cfg.AuditTrail)
	}
	return &AssessmentService{
		assessmentRepo: cfg.AssessmentRepo,
		assignmentRepo: cfg.AssignmentRepo,
		workloadRepo:   cfg.WorkloadRepo,
		claims:         cfg.Claims,
		txScope:        txScope,
		logger:         logger,
	}
}

// Create opens a PENDING assessment. The claim must be UNDER_REVIEW.
func (s *AssessmentService) Create(ctx context.Context, req CreateAssessmentRequest) (*AssessmentResponse, error) {
	snapshot, err := s.claims.FetchClaim(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}
	if snapshot.Status != claim.StatusUnderReview {
		return nil, shared.NewDomainError(shared.CodeClaimNotEligible,
			fmt.Sprintf("Claim %d must be UNDER_REVIEW to be assessed, current status: %s", req.ClaimID, snapshot.Status))
	}

	a, err := assessment.NewAssessment(req.ClaimID)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.AssessmentRepo().Create(ctx, a); err != nil {
			return err
		}
		rec, err := audit.NewRecord(audit.SubjectAssessment, a.ClaimID, audit.ActionAssessmentCreated, actor(req.UserID))
		if err != nil {
			return err
		}
		rec.WithChange("", string(assessment.StatusPending))
		return repos.AuditTrail().Append(ctx, rec)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assessment created", zap.Int64("claim_id", a.ClaimID), zap.Int64("assessment_id", a.ID))
	resp := ToAssessmentResponse(a)
	return &resp, nil
}

// Assign sets the adjuster, records the assignment and bumps the adjuster's
// workload. Reassignment moves one unit of workload from the previous
// adjuster to the new one.
func (s *AssessmentService) Assign(ctx context.Context, req AssignRequest) (*AssessmentResponse, error) {
	var updated *assessment.Assessment
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		a, err := s.lockAssessment(ctx, repos, req.ClaimID)
		if err != nil {
			return err
		}

		previous, err := a.AssignTo(req.AdjusterID)
		if err != nil {
			return err
		}
		if err := repos.AssessmentRepo().Save(ctx, a); err != nil {
			return fmt.Errorf("failed to save assessment: %w", err)
		}
		if err := repos.AssignmentRepo().Append(ctx, assessment.NewAssignment(req.ClaimID, req.AdjusterID, req.ManagerID)); err != nil {
			return fmt.Errorf("failed to record assignment: %w", err)
		}

		sameAdjuster := previous != nil && *previous == req.AdjusterID
		if !sameAdjuster {
			if err := repos.WorkloadRepo().Increment(ctx, req.AdjusterID); err != nil {
				return fmt.Errorf("failed to increment workload: %w", err)
			}
			if previous != nil {
				if err := repos.WorkloadRepo().Decrement(ctx, *previous); err != nil {
					return fmt.Errorf("failed to decrement workload: %w", err)
				}
			}
		}

		rec, err := audit.NewRecord(audit.SubjectAssessment, a.ClaimID, audit.ActionAssign, actor(req.ManagerID))
		if err != nil {
			return err
		}
		oldAdjuster := ""
		if previous != nil {
			oldAdjuster = strconv.FormatInt(*previous, 10)
		}
		rec.WithChange(oldAdjuster, strconv.FormatInt(req.AdjusterID, 10)).
			WithDescription(fmt.Sprintf("Assigned to adjuster %d", req.AdjusterID))
		if err := repos.AuditTrail().Append(ctx, rec); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assessment assigned",
		zap.Int64("claim_id", req.ClaimID),
		zap.Int64("adjuster_id", req.AdjusterID),
		zap.Int64("manager_id", req.ManagerID))
	resp := ToAssessmentResponse(updated)
	return &resp, nil
}

// Approve decides the assessment for AssessedAmount, then asks the claim
// service to move the claim to APPROVED. The local decision commits first; a
// failed claim update is returned as SERVICE_COMMUNICATION and calling Approve
// again with the same amount re-applies only the claim update.
func (s *AssessmentService) Approve(ctx context.Context, req ApproveRequest) (*AssessmentResponse, error) {
	current, err := s.findAssessment(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}
	if current.Status == assessment.StatusApproved && current.AssessedAmount.Equal(req.AssessedAmount.Round(2)) {
		return s.syncClaim(ctx, current, claim.StatusApproved)
	}

	decided, err := s.decide(ctx, req.ClaimID, req.UserID, audit.ActionApprove, func(a *assessment.Assessment) error {
		return a.Approve(req.AssessedAmount, actor(req.UserID))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Assessment approved",
		zap.Int64("claim_id", req.ClaimID),
		zap.String("assessed_amount", decided.AssessedAmount.StringFixed(2)),
		zap.String("deductible", decided.Deductible.StringFixed(2)),
		zap.String("final_amount", decided.FinalAmount.StringFixed(2)))
	return s.syncClaim(ctx, decided, claim.StatusApproved)
}

// Reject decides the assessment as REJECTED and moves the claim to REJECTED,
// with the same commit-then-sync ordering as Approve.
func (s *AssessmentService) Reject(ctx context.Context, req RejectRequest) (*AssessmentResponse, error) {
	current, err := s.findAssessment(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}
	if current.Status == assessment.StatusRejected {
		return s.syncClaim(ctx, current, claim.StatusRejected)
	}

	decided, err := s.decide(ctx, req.ClaimID, req.UserID, audit.ActionReject, func(a *assessment.Assessment) error {
		return a.Reject(actor(req.UserID))
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Assessment rejected", zap.Int64("claim_id", req.ClaimID))
	return s.syncClaim(ctx, decided, claim.StatusRejected)
}

// Adjust lowers the assessed amount before settlement. The status is left as
// it was and recorded unchanged in the audit row.
func (s *AssessmentService) Adjust(ctx context.Context, req AdjustRequest) (*AssessmentResponse, error) {
	snapshot, err := s.claims.FetchClaim(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}
	if snapshot.Status == claim.StatusSettled {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Claim %d is already settled and can no longer be adjusted", req.ClaimID))
	}

	var updated *assessment.Assessment
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		a, err := s.lockAssessment(ctx, repos, req.ClaimID)
		if err != nil {
			return err
		}
		before := a.AssessedAmount
		if err := a.Adjust(req.NewAmount); err != nil {
			return err
		}
		if err := repos.AssessmentRepo().Save(ctx, a); err != nil {
			return fmt.Errorf("failed to save assessment: %w", err)
		}
		rec, err := audit.NewRecord(audit.SubjectAssessment, a.ClaimID, audit.ActionAdjust, actor(req.UserID))
		if err != nil {
			return err
		}
		rec.WithChange(string(a.Status), string(a.Status)).
			WithDescription(fmt.Sprintf("Assessed amount adjusted from %s to %s (deductible %s, final %s)",
				before.StringFixed(2), a.AssessedAmount.StringFixed(2),
				a.Deductible.StringFixed(2), a.FinalAmount.StringFixed(2)))
		if err := repos.AuditTrail().Append(ctx, rec); err != nil {
			return err
		}
		updated = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assessment adjusted",
		zap.Int64("claim_id", req.ClaimID),
		zap.String("assessed_amount", updated.AssessedAmount.StringFixed(2)))
	resp := ToAssessmentResponse(updated)
	return &resp, nil
}

// GetByClaimID returns the assessment of a claim.
func (s *AssessmentService) GetByClaimID(ctx context.Context, claimID int64) (*AssessmentResponse, error) {
	a, err := s.findAssessment(ctx, claimID)
	if err != nil {
		return nil, err
	}
	resp := ToAssessmentResponse(a)
	return &resp, nil
}

// Assignments lists every assignment made for a claim.
func (s *AssessmentService) Assignments(ctx context.Context, claimID int64) ([]AssignmentResponse, error) {
	rows, err := s.assignmentRepo.FindByClaimID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	out := make([]AssignmentResponse, len(rows))
	for i, r := range rows {
		out[i] = AssignmentResponse{
			ClaimID:    r.ClaimID,
			AdjusterID: r.AdjusterID,
			AssignedBy: r.AssignedBy,
			AssignedAt: r.AssignedAt,
		}
	}
	return out, nil
}

// Workload returns the active claim count of an adjuster, zero when unknown.
func (s *AssessmentService) Workload(ctx context.Context, adjusterID int64) (*WorkloadResponse, error) {
	w, err := s.workloadRepo.FindByAdjusterID(ctx, adjusterID)
	if err != nil {
		return nil, err
	}
	resp := &WorkloadResponse{AdjusterID: adjusterID}
	if w != nil {
		resp.ActiveClaimCount = w.ActiveClaimCount
	}
	return resp, nil
}

// decide applies a terminal decision, releases the adjuster's workload and
// writes the audit row, all in one transaction.
func (s *AssessmentService) decide(ctx context.Context, claimID, userID int64, action string, apply func(*assessment.Assessment) error) (_ *assessment.Assessment, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "assessment", "decide",
		telemetry.SpanAttrClaimID, claimID,
		telemetry.SpanAttrAssessmentAction, action,
	)
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()

	var decided *assessment.Assessment
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		a, err := s.lockAssessment(ctx, repos, claimID)
		if err != nil {
			return err
		}
		oldStatus := a.Status
		if err := apply(a); err != nil {
			return err
		}
		if err := repos.AssessmentRepo().Save(ctx, a); err != nil {
			return fmt.Errorf("failed to save assessment: %w", err)
		}
		if a.IsAssigned() {
			if err := repos.WorkloadRepo().Decrement(ctx, *a.AdjusterID); err != nil {
				return fmt.Errorf("failed to decrement workload: %w", err)
			}
		}
		rec, err := audit.NewRecord(audit.SubjectAssessment, a.ClaimID, action, actor(userID))
		if err != nil {
			return err
		}
		rec.WithChange(string(oldStatus), string(a.Status))
		if a.Status == assessment.StatusApproved {
			rec.WithDescription(fmt.Sprintf("Assessed %s, deductible %s at rate %s, final %s",
				a.AssessedAmount.StringFixed(2), a.Deductible.StringFixed(2),
				a.DeductibleRate.StringFixed(2), a.FinalAmount.StringFixed(2)))
		}
		if err := repos.AuditTrail().Append(ctx, rec); err != nil {
			return err
		}
		decided = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}

// syncClaim pushes the decided status to the claim service.
func (s *AssessmentService) syncClaim(ctx context.Context, a *assessment.Assessment, status claim.Status) (*AssessmentResponse, error) {
	if err := s.claims.UpdateClaimStatus(ctx, a.ClaimID, status); err != nil {
		s.logger.Error("Failed to update claim status after assessment decision",
			zap.Int64("claim_id", a.ClaimID),
			zap.String("status", string(status)),
			zap.Error(err))
		var de *shared.DomainError
		if errors.As(err, &de) && de.Category() != shared.CategoryServiceCommunication {
			return nil, err
		}
		return nil, shared.WrapDomainError(shared.CodeServiceCommunication,
			fmt.Sprintf("Assessment for claim %d is %s but the claim status update failed; repeat the request to re-apply it",
				a.ClaimID, a.Status), err)
	}
	resp := ToAssessmentResponse(a)
	return &resp, nil
}

func (s *AssessmentService) findAssessment(ctx context.Context, claimID int64) (*assessment.Assessment, error) {
	a, err := s.assessmentRepo.FindByClaimID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, assessment.NotFoundForClaim(claimID)
	}
	return a, nil
}

func (s *AssessmentService) lockAssessment(ctx context.Context, repos TransactionalRepositories, claimID int64) (*assessment.Assessment, error) {
	a, err := repos.AssessmentRepo().FindByClaimIDForUpdate(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, assessment.NotFoundForClaim(claimID)
	}
	return a, nil
}

func actor(userID int64) string {
	if userID <= 0 {
		return audit.SystemActor
	}
	return strconv.FormatInt(userID, 10)
}
