// Package gateway provides the payment gateway implementations. None of them
// move real money: simulated draws a random outcome per attempt, the fixed
// modes exist for demos and end-to-end tests.
package gateway

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/claimswift/backend/internal/domain/payment"
	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DeclineReason is reported for every simulated decline.
const DeclineReason = payment.DefaultFailureReason

// Simulated approves each attempt with probability successRate.
type Simulated struct {
	successRate float64
	latency     time.Duration
	draw        func() float64
	logger      *zap.Logger
}

// Option configures a Simulated gateway.
type Option func(*Simulated)

// WithLatency delays every charge by d, honoring context cancellation.
func WithLatency(d time.Duration) Option {
	return func(s *Simulated) { s.latency = d }
}

// WithDraw replaces the random source. draw must return values in [0, 1).
func WithDraw(draw func() float64) Option {
	return func(s *Simulated) { s.draw = draw }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Simulated) { s.logger = logger }
}

// NewSimulated creates a gateway approving with probability successRate.
func NewSimulated(successRate float64, opts ...Option) *Simulated {
	s := &Simulated{
		successRate: successRate,
		draw:        rand.Float64,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Charge implements payment.Gateway.
func (s *Simulated) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("gateway charge %s cancelled: %w", req.PaymentReference, ctx.Err())
		case <-timer.C:
		}
	}

	approved := s.draw() < s.successRate
	s.logger.Debug("simulated gateway decision",
		zap.String("payment_reference", req.PaymentReference),
		zap.Int("attempt", req.Attempt),
		zap.Bool("approved", approved),
	)
	return outcome(approved), nil
}

// Fixed returns the same decision for every charge.
type Fixed struct {
	approve bool
}

// AlwaysSucceed approves every charge.
func AlwaysSucceed() *Fixed { return &Fixed{approve: true} }

// AlwaysFail declines every charge.
func AlwaysFail() *Fixed { return &Fixed{approve: false} }

// Charge implements payment.Gateway.
func (f *Fixed) Charge(_ context.Context, _ payment.ChargeRequest) (*payment.ChargeResult, error) {
	return outcome(f.approve), nil
}

func outcome(approved bool) *payment.ChargeResult {
	if !approved {
		return &payment.ChargeResult{DeclineReason: DeclineReason}
	}
	return &payment.ChargeResult{Approved: true, BankReference: NewBankReference()}
}

// NewBankReference returns "TXN-" followed by twelve upper-case hex chars.
func NewBankReference() string {
	return "TXN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// New builds the gateway selected by cfg.Mode.
func New(cfg config.GatewayConfig, logger *zap.Logger) (payment.Gateway, error) {
	switch cfg.Mode {
	case config.GatewaySimulated, "":
		return NewSimulated(cfg.SuccessRate, WithLatency(cfg.Latency), WithLogger(logger)), nil
	case config.GatewayAlwaysSucceed:
		return AlwaysSucceed(), nil
	case config.GatewayAlwaysFail:
		return AlwaysFail(), nil
	default:
		return nil, fmt.Errorf("unknown gateway mode %q", cfg.Mode)
	}
}

var (
	_ payment.Gateway = (*Simulated)(nil)
	_ payment.Gateway = (*Fixed)(nil)
)
