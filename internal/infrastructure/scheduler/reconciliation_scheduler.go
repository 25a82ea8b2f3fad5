package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// PendingReconciler re-applies the PAID status for payments that settled
// while the claim service was unreachable.
type PendingReconciler interface {
	ReconcilePending(ctx context.Context, limit int) (int, error)
}

// ReconciliationConfig holds configuration for the reconciliation sweep
type ReconciliationConfig struct {
	// Interval between sweeps
	Interval time.Duration
	// BatchSize caps how many pending payments one sweep touches
	BatchSize int
	// SweepTimeout bounds a single sweep. Zero means Interval.
	SweepTimeout time.Duration
}

// DefaultReconciliationConfig returns default reconciliation configuration
func DefaultReconciliationConfig() ReconciliationConfig {
	return ReconciliationConfig{
		Interval:  5 * time.Minute,
		BatchSize: 50,
	}
}

// Validate validates the configuration
func (c ReconciliationConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}
	return nil
}

// ReconciliationScheduler periodically sweeps payments stuck in the
// settled-pending-sync condition or stalled in INITIATED. Sweeps never
// overlap.
type ReconciliationScheduler struct {
	config     ReconciliationConfig
	reconciler PendingReconciler
	logger     *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	sweeping  atomic.Bool
}

// NewReconciliationScheduler creates a new reconciliation scheduler
func NewReconciliationScheduler(config ReconciliationConfig, reconciler PendingReconciler, logger *zap.Logger) (*ReconciliationScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = config.Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationScheduler{
		config:     config,
		reconciler: reconciler,
		logger:     logger,
	}, nil
}

// Start starts the sweep loop. Calling Start on a running scheduler is a no-op.
func (s *ReconciliationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("Reconciliation scheduler started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
	)
	return nil
}

// Stop stops the loop and waits for an in-flight sweep, bounded by ctx.
func (s *ReconciliationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconciliation scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active.
func (s *ReconciliationScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *ReconciliationScheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs one sweep and returns how many payments were reconciled.
// It returns 0 without sweeping when another sweep is in progress.
func (s *ReconciliationScheduler) RunOnce(ctx context.Context) int {
	if !s.sweeping.CompareAndSwap(false, true) {
		s.logger.Debug("Reconciliation sweep already in progress, skipping")
		return 0
	}
	defer s.sweeping.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	start := time.Now()
	fixed, err := s.reconciler.ReconcilePending(ctx, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Reconciliation sweep failed", zap.Error(err))
		return 0
	}
	if fixed > 0 {
		s.logger.Info("Reconciliation sweep completed",
			zap.Int("reconciled", fixed),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return fixed
}
