// Package payment implements the settlement saga that turns an approved claim
// into a paid one.
//
// Steps run in order for one request: verify the claim, create the payment,
// charge the gateway, record the outcome, confirm the claim as PAID, notify.
// Monetary state that has committed is never rolled back to match a failed
// claim confirmation; the payment is left in the settled-pending-sync
// condition instead and can be reconciled later.
package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/claimswift/backend/internal/domain/audit"
	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/collaborator"
	"github.com/claimswift/backend/internal/domain/payment"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/claimswift/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Outcome labels passed to SagaMetrics.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// SagaMetrics receives saga outcomes. Implementations must be safe for
// concurrent use.
type SagaMetrics interface {
	RecordPaymentOutcome(ctx context.Context, outcome string, retry bool)
	RecordClaimSync(ctx context.Context, ok bool)
}

// DefaultLockTTL bounds how long one request may hold a claim's payment lock.
// An INITIATED payment untouched for longer than this is treated as stalled.
const DefaultLockTTL = 30 * time.Second

// Outcome writes happen after the gateway was charged and are retried on
// transient storage errors.
const (
	outcomeWriteTries    = 3
	outcomeWriteInterval = 50 * time.Millisecond
)

// StalledReason is the failure reason recorded when a stalled payment is
// released for retry.
const StalledReason = "Payment outcome was not recorded; gateway result unknown"

// PaymentService runs the settlement saga.
type PaymentService struct {
	paymentRepo     payment.PaymentRepository
	transactionRepo payment.TransactionRepository
	claims          collaborator.ClaimService
	notifier        collaborator.Notifier
	gateway         payment.Gateway
	txScope         TransactionScope
	locker          shared.Locker
	lockTTL         time.Duration
	metrics         SagaMetrics
	logger          *zap.Logger
}

// PaymentServiceConfig holds the dependencies of PaymentService
type PaymentServiceConfig struct {
	PaymentRepo     payment.PaymentRepository
	TransactionRepo payment.TransactionRepository
	AuditTrail      audit.Trail
	Claims          collaborator.ClaimService
	Notifier        collaborator.Notifier
	Gateway         payment.Gateway
	TxScope         TransactionScope
	// Locker serializes saga requests per claim. Optional.
	Locker  shared.Locker
	LockTTL time.Duration
	Metrics SagaMetrics
	Logger  *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	txScope := cfg.TxScope
	if txScope == nil {
		txScope = NewNoOpTransactionScope(cfg.PaymentRepo, cfg.TransactionRepo, cfg.AuditTrail)
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = DefaultLockTTL
	}
	return &PaymentService{
		paymentRepo:     cfg.PaymentRepo,
		transactionRepo: cfg.TransactionRepo,
		claims:          cfg.Claims,
		notifier:        cfg.Notifier,
		gateway:         cfg.Gateway,
		txScope:         txScope,
		locker:          cfg.Locker,
		lockTTL:         lockTTL,
		metrics:         cfg.Metrics,
		logger:          logger,
	}
}

// ProcessPayment settles an approved claim. A gateway decline is not an error:
// the returned payment is FAILED and may be retried. The error is non-nil when
// the claim is missing or not APPROVED, a payment already exists for it, or
// the payment succeeded but the claim could not be confirmed as PAID
// (CLAIM_SYNC_PENDING, returned together with the payment).
func (s *PaymentService) ProcessPayment(ctx context.Context, req ProcessPaymentRequest, performedBy string) (_ *PaymentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "process")
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrClaimID, req.ClaimID,
		telemetry.SpanAttrAmount, req.ApprovedAmount.StringFixed(2),
	)

	bank := payment.BankDetails{
		AccountNumber:     req.BankAccountNumber,
		BankName:          req.BankName,
		IFSCCode:          req.IFSCCode,
		AccountHolderName: req.AccountHolderName,
	}
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	if !req.ApprovedAmount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeValidation, "Approved amount must be positive")
	}

	release, err := s.lock(ctx, req.ClaimID)
	if err != nil {
		return nil, err
	}
	defer release()

	log := s.logger.With(zap.Int64("claim_id", req.ClaimID))
	log.Info("Processing payment", zap.String("amount", req.ApprovedAmount.StringFixed(2)))

	snapshot, err := s.verifyClaim(ctx, req.ClaimID)
	if err != nil {
		log.Warn("Claim verification failed", zap.Error(err))
		return nil, err
	}

	exists, err := s.paymentRepo.ExistsByClaimID(ctx, req.ClaimID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing payment: %w", err)
	}
	if exists {
		return nil, payment.AlreadyExists(req.ClaimID)
	}

	p, err := payment.NewPayment(req.ClaimID, snapshot.PolicyholderID, req.ApprovedAmount, bank)
	if err != nil {
		return nil, err
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.PaymentRepo().Create(ctx, p); err != nil {
			return err
		}
		return s.appendAudit(ctx, repos, p, audit.ActionPaymentInitiated, performedBy, "", string(payment.StatusInitiated),
			fmt.Sprintf("Payment initiated for claim %d, amount %s", p.ClaimID, p.ApprovedAmount.StringFixed(2)))
	})
	if err != nil {
		return nil, err
	}
	log.Info("Payment initiated", zap.Int64("payment_id", p.ID), zap.String("reference", p.PaymentReference))

	return s.execute(ctx, p, performedBy, false)
}

// RetryPayment re-runs the gateway step for a FAILED payment with a fresh
// attempt row. Any other status fails with INVALID_PAYMENT_STATE and leaves
// the payment untouched.
func (s *PaymentService) RetryPayment(ctx context.Context, paymentID int64, performedBy string) (_ *PaymentResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "retry")
	defer span.End()
	defer func() { telemetry.RecordError(span, err) }()
	telemetry.SetAttributes(span, telemetry.SpanAttrPaymentID, paymentID)

	p, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, p.ClaimID)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.PaymentRepo().FindByID(ctx, paymentID)
		if err != nil {
			return err
		}
		if current == nil {
			return payment.NotFound(paymentID)
		}
		if err := current.ResetForRetry(); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Save(ctx, current); err != nil {
			return err
		}
		p = current
		return s.appendAudit(ctx, repos, p, audit.ActionPaymentRetried, performedBy,
			string(payment.StatusFailed), string(payment.StatusInitiated),
			fmt.Sprintf("Retry attempt %d", p.Attempts+1))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Retrying payment",
		zap.Int64("payment_id", p.ID),
		zap.String("reference", p.PaymentReference),
		zap.Int("attempt", p.Attempts+1))
	return s.execute(ctx, p, performedBy, true)
}

// ReconcileClaimSync re-applies the PAID update for a payment in the
// settled-pending-sync condition. Re-running it on an already synced payment
// succeeds without side effects.
func (s *PaymentService) ReconcileClaimSync(ctx context.Context, paymentID int64, performedBy string) (*PaymentResponse, error) {
	p, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, p.ClaimID)
	if err != nil {
		return nil, err
	}
	defer release()
	if p, err = s.findPayment(ctx, paymentID); err != nil {
		return nil, err
	}

	if p.Status == payment.StatusSuccess && p.ClaimSync == payment.ClaimSyncSynced {
		return s.project(ctx, p)
	}
	if !p.NeedsClaimSync() {
		return nil, shared.NewDomainError(shared.CodeInvalidPaymentState,
			fmt.Sprintf("Payment %s is %s and has nothing to reconcile", p.PaymentReference, p.Status))
	}

	if err := s.claims.UpdateClaimStatus(ctx, p.ClaimID, claim.StatusPaid); err != nil {
		s.recordClaimSync(ctx, false)
		s.logger.Warn("Claim sync reconciliation failed",
			zap.Int64("payment_id", p.ID),
			zap.Int64("claim_id", p.ClaimID),
			zap.Error(err))
		return nil, s.syncError(p, err)
	}
	s.recordClaimSync(ctx, true)

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := p.MarkClaimSynced(); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Save(ctx, p); err != nil {
			return err
		}
		return s.appendAudit(ctx, repos, p, audit.ActionClaimSyncReconciled, performedBy,
			string(payment.ClaimSyncPending), string(payment.ClaimSyncSynced),
			fmt.Sprintf("Claim %d confirmed as PAID", p.ClaimID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Claim sync reconciled", zap.Int64("payment_id", p.ID), zap.Int64("claim_id", p.ClaimID))
	return s.project(ctx, p)
}

// ReconcilePending is the sweep entry point. It first releases stalled
// INITIATED payments, then runs ReconcileClaimSync for up to limit payments in
// the settled-pending-sync condition. It returns how many payments it fixed.
func (s *PaymentService) ReconcilePending(ctx context.Context, limit int) (int, error) {
	released, err := s.ReleaseStalled(ctx, limit)
	if err != nil {
		s.logger.Warn("Stalled payment sweep failed", zap.Error(err))
	}
	pending, err := s.paymentRepo.FindPendingClaimSync(ctx, limit)
	if err != nil {
		return released, fmt.Errorf("failed to list pending claim syncs: %w", err)
	}
	fixed := released
	for _, p := range pending {
		if _, err := s.ReconcileClaimSync(ctx, p.ID, audit.SystemActor); err != nil {
			continue
		}
		fixed++
	}
	return fixed, nil
}

// ReleaseStalled moves INITIATED payments untouched for longer than the lock
// TTL to FAILED with a FAILED attempt row, so RetryPayment can pick them up.
// A payment whose claim lock is still held is skipped.
func (s *PaymentService) ReleaseStalled(ctx context.Context, limit int) (int, error) {
	cutoff := time.Now().Add(-s.lockTTL)
	stalled, err := s.paymentRepo.FindStalled(ctx, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list stalled payments: %w", err)
	}
	released := 0
	for i := range stalled {
		if err := s.releaseStalled(ctx, &stalled[i], cutoff); err != nil {
			s.logger.Warn("Failed to release stalled payment",
				zap.Int64("payment_id", stalled[i].ID),
				zap.Error(err))
			continue
		}
		released++
	}
	return released, nil
}

func (s *PaymentService) releaseStalled(ctx context.Context, p *payment.Payment, cutoff time.Time) error {
	release, err := s.lock(ctx, p.ClaimID)
	if err != nil {
		return err
	}
	defer release()

	var attempt int
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		current, err := repos.PaymentRepo().FindByID(ctx, p.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return payment.NotFound(p.ID)
		}
		if current.UpdatedAt.After(cutoff) {
			return shared.NewDomainError(shared.CodeConcurrencyConflict,
				fmt.Sprintf("Payment %s moved on while being released", current.PaymentReference))
		}
		if err := current.MarkFailed(); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Save(ctx, current); err != nil {
			return err
		}
		attempt = current.Attempts
		if err := repos.TransactionRepo().Create(ctx, payment.NewFailedTransaction(current.ID, attempt, StalledReason)); err != nil {
			return err
		}
		return s.appendAudit(ctx, repos, current, audit.ActionPaymentStalled, audit.SystemActor,
			string(payment.StatusInitiated), string(payment.StatusFailed), StalledReason)
	})
	if err != nil {
		return err
	}
	s.logger.Error("Released stalled payment; check the gateway before retrying",
		zap.Int64("payment_id", p.ID),
		zap.Int64("claim_id", p.ClaimID),
		zap.String("reference", p.PaymentReference),
		zap.Int("attempt", attempt))
	return nil
}

// GetByID returns a payment with its latest attempt.
func (s *PaymentService) GetByID(ctx context.Context, paymentID int64) (*PaymentResponse, error) {
	p, err := s.findPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	return s.project(ctx, p)
}

// GetByClaimID returns the payment of a claim.
func (s *PaymentService) GetByClaimID(ctx context.Context, claimID int64) (*PaymentResponse, error) {
	p, err := s.paymentRepo.FindByClaimID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, payment.NotFoundForClaim(claimID)
	}
	return s.project(ctx, p)
}

// List returns payments, newest first.
func (s *PaymentService) List(ctx context.Context, f PaymentListFilter) ([]PaymentResponse, int64, error) {
	filter := payment.ListFilter{
		Filter:    shared.DefaultFilter(),
		Status:    payment.Status(f.Status),
		ClaimSync: payment.ClaimSync(f.ClaimSync),
	}
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}

	payments, total, err := s.paymentRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		resp, err := s.project(ctx, &payments[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *resp)
	}
	return out, total, nil
}

// Transactions lists every gateway attempt of a payment, oldest first.
func (s *PaymentService) Transactions(ctx context.Context, paymentID int64) ([]TransactionResponse, error) {
	if _, err := s.findPayment(ctx, paymentID); err != nil {
		return nil, err
	}
	rows, err := s.transactionRepo.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	out := make([]TransactionResponse, len(rows))
	for i := range rows {
		out[i] = *ToTransactionResponse(&rows[i])
	}
	return out, nil
}

// verifyClaim fetches the claim and requires it to be APPROVED.
func (s *PaymentService) verifyClaim(ctx context.Context, claimID int64) (*collaborator.ClaimSnapshot, error) {
	snapshot, err := s.claims.FetchClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if snapshot.Status != claim.StatusApproved {
		return nil, shared.NewDomainError(shared.CodeInvalidClaimStatus,
			fmt.Sprintf("Claim %d is not approved for payment. Current status: %s", claimID, snapshot.Status))
	}
	return snapshot, nil
}

// execute charges the gateway for an INITIATED payment and records the outcome.
func (s *PaymentService) execute(ctx context.Context, p *payment.Payment, performedBy string, retry bool) (*PaymentResponse, error) {
	attempt := p.Attempts + 1
	telemetry.AddEvent(telemetry.SpanFromContext(ctx), "gateway_charge",
		telemetry.SpanAttrPaymentRef, p.PaymentReference,
		"attempt", attempt,
	)
	result, gwErr := s.gateway.Charge(ctx, payment.ChargeRequest{
		PaymentReference: p.PaymentReference,
		Attempt:          attempt,
		Amount:           p.ApprovedAmount,
		Bank:             p.Bank,
	})

	if gwErr == nil && result != nil && result.Approved {
		return s.onSuccess(ctx, p, attempt, result.BankReference, performedBy, retry)
	}

	reason := payment.DefaultFailureReason
	switch {
	case gwErr != nil:
		reason = "Payment gateway error: " + gwErr.Error()
	case result != nil && result.DeclineReason != "":
		reason = result.DeclineReason
	}
	return s.onFailure(ctx, p, attempt, reason, performedBy, retry)
}

func (s *PaymentService) onSuccess(ctx context.Context, p *payment.Payment, attempt int, bankRef, performedBy string, retry bool) (*PaymentResponse, error) {
	var txn *payment.Transaction
	err := s.persistOutcome(ctx, p, func(ctx context.Context, repos TransactionalRepositories) error {
		if err := p.MarkSucceeded(); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Save(ctx, p); err != nil {
			return err
		}
		txn = payment.NewCompletedTransaction(p.ID, attempt, bankRef)
		if err := repos.TransactionRepo().Create(ctx, txn); err != nil {
			return err
		}
		return s.appendAudit(ctx, repos, p, audit.ActionPaymentSuccess, performedBy,
			string(payment.StatusInitiated), string(payment.StatusSuccess),
			fmt.Sprintf("Payment of %s completed, bank reference %s", p.ApprovedAmount.StringFixed(2), txn.BankReference))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment success: %w", err)
	}
	s.recordOutcome(ctx, OutcomeSuccess, retry)
	s.logger.Info("Payment succeeded",
		zap.Int64("payment_id", p.ID),
		zap.String("reference", p.PaymentReference),
		zap.String("bank_reference", txn.BankReference))

	syncErr := s.confirmClaimPaid(ctx, p, performedBy)

	s.notify(ctx, collaborator.Notification{
		UserID:  p.PolicyholderID,
		ClaimID: p.ClaimID,
		Type:    collaborator.NotificationPaymentSuccess,
		Message: fmt.Sprintf("Your claim payment of %s has been processed successfully. Reference: %s",
			p.ApprovedAmount.StringFixed(2), p.PaymentReference),
	})

	resp := ToPaymentResponse(p, txn)
	if syncErr != nil {
		return &resp, syncErr
	}
	return &resp, nil
}

func (s *PaymentService) onFailure(ctx context.Context, p *payment.Payment, attempt int, reason, performedBy string, retry bool) (*PaymentResponse, error) {
	var txn *payment.Transaction
	err := s.persistOutcome(ctx, p, func(ctx context.Context, repos TransactionalRepositories) error {
		if err := p.MarkFailed(); err != nil {
			return err
		}
		if err := repos.PaymentRepo().Save(ctx, p); err != nil {
			return err
		}
		txn = payment.NewFailedTransaction(p.ID, attempt, reason)
		if err := repos.TransactionRepo().Create(ctx, txn); err != nil {
			return err
		}
		return s.appendAudit(ctx, repos, p, audit.ActionPaymentFailed, performedBy,
			string(payment.StatusInitiated), string(payment.StatusFailed), reason)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record payment failure: %w", err)
	}
	s.recordOutcome(ctx, OutcomeFailed, retry)
	s.logger.Warn("Payment failed",
		zap.Int64("payment_id", p.ID),
		zap.String("reference", p.PaymentReference),
		zap.Int("attempt", attempt),
		zap.String("reason", reason),
		zap.String("trace_id", telemetry.TraceID(ctx)))

	s.notify(ctx, collaborator.Notification{
		UserID:  p.PolicyholderID,
		ClaimID: p.ClaimID,
		Type:    collaborator.NotificationPaymentFailed,
		Message: fmt.Sprintf("Your claim payment of %s could not be processed. Reference: %s",
			p.ApprovedAmount.StringFixed(2), p.PaymentReference),
	})

	resp := ToPaymentResponse(p, txn)
	return &resp, nil
}

// persistOutcome runs fn in a transaction detached from ctx cancellation.
// Transient errors are retried with p restored to its pre-attempt state;
// domain errors are not. If every attempt fails p stays INITIATED and
// ReleaseStalled frees it once the lock TTL has passed.
func (s *PaymentService) persistOutcome(ctx context.Context, p *payment.Payment, fn func(context.Context, TransactionalRepositories) error) error {
	ctx = context.WithoutCancel(ctx)
	before := *p

	op := func() (struct{}, error) {
		*p = before
		err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			return fn(ctx, repos)
		})
		var de *shared.DomainError
		if errors.As(err, &de) {
			return struct{}{}, backoff.Permanent(err)
		}
		if err != nil {
			s.logger.Warn("Recording payment outcome failed",
				zap.Int64("payment_id", p.ID),
				zap.Error(err))
		}
		return struct{}{}, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = outcomeWriteInterval
	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(outcomeWriteTries),
	)
	if err != nil {
		*p = before
	}
	return err
}

// confirmClaimPaid asks the claim service to mark the claim PAID once. On
// failure the payment stays SUCCESS with ClaimSync PENDING and a
// CLAIM_SYNC_PENDING error is returned.
func (s *PaymentService) confirmClaimPaid(ctx context.Context, p *payment.Payment, performedBy string) error {
	if err := s.claims.UpdateClaimStatus(ctx, p.ClaimID, claim.StatusPaid); err != nil {
		s.recordClaimSync(ctx, false)
		s.logger.Error("Failed to update claim status after payment; manual intervention may be required",
			zap.Int64("payment_id", p.ID),
			zap.Int64("claim_id", p.ClaimID),
			zap.String("reference", p.PaymentReference),
			zap.String("trace_id", telemetry.TraceID(ctx)),
			zap.Error(err))
		if aerr := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			return s.appendAudit(ctx, repos, p, audit.ActionClaimSyncFailed, performedBy,
				string(payment.ClaimSyncPending), string(payment.ClaimSyncPending), err.Error())
		}); aerr != nil {
			s.logger.Error("Failed to audit claim sync failure", zap.Int64("payment_id", p.ID), zap.Error(aerr))
		}
		return s.syncError(p, err)
	}
	s.recordClaimSync(ctx, true)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := p.MarkClaimSynced(); err != nil {
			return err
		}
		return repos.PaymentRepo().Save(ctx, p)
	})
	if err != nil {
		// The claim is PAID; the sweep will flip the flag on its next pass.
		s.logger.Warn("Failed to mark claim as synced", zap.Int64("payment_id", p.ID), zap.Error(err))
	}
	return nil
}

func (s *PaymentService) syncError(p *payment.Payment, cause error) error {
	return shared.WrapDomainError(shared.CodeClaimSyncPending,
		fmt.Sprintf("Payment %s succeeded but the claim status update failed. Manual intervention may be required.",
			p.PaymentReference), cause)
}

func (s *PaymentService) notify(ctx context.Context, n collaborator.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Warn("Notification failed",
			zap.Int64("user_id", n.UserID),
			zap.Int64("claim_id", n.ClaimID),
			zap.String("type", string(n.Type)),
			zap.Error(err))
	}
}

func (s *PaymentService) appendAudit(ctx context.Context, repos TransactionalRepositories, p *payment.Payment, action, performedBy, oldValue, newValue, desc string) error {
	rec, err := audit.NewRecord(audit.SubjectPayment, p.ID, action, performedBy)
	if err != nil {
		return err
	}
	rec.WithChange(oldValue, newValue).WithDescription(desc)
	return repos.AuditTrail().Append(ctx, rec)
}

func (s *PaymentService) project(ctx context.Context, p *payment.Payment) (*PaymentResponse, error) {
	latest, err := s.transactionRepo.FindLatestByPaymentID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	resp := ToPaymentResponse(p, latest)
	return &resp, nil
}

func (s *PaymentService) findPayment(ctx context.Context, paymentID int64) (*payment.Payment, error) {
	p, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, payment.NotFound(paymentID)
	}
	return p, nil
}

func (s *PaymentService) lock(ctx context.Context, claimID int64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, "claim-payment:"+strconv.FormatInt(claimID, 10), s.lockTTL)
	if err != nil {
		if errors.Is(err, shared.ErrLockHeld) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to acquire payment lock: %w", err)
	}
	return release, nil
}

func (s *PaymentService) recordOutcome(ctx context.Context, outcome string, retry bool) {
	if s.metrics != nil {
		s.metrics.RecordPaymentOutcome(ctx, outcome, retry)
	}
}

func (s *PaymentService) recordClaimSync(ctx context.Context, ok bool) {
	if s.metrics != nil {
		s.metrics.RecordClaimSync(ctx, ok)
	}
}
