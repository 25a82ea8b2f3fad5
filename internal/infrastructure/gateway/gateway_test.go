package gateway

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/claimswift/backend/internal/domain/payment"
	"github.com/claimswift/backend/internal/infrastructure/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var charge = payment.ChargeRequest{PaymentReference: "PAY-0000AAAA", Attempt: 1, Amount: decimal.NewFromInt(900)}

func TestSimulated_Threshold(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		draw     float64
		approved bool
	}{
		{"below rate approves", 0.9, 0.2, true},
		{"at rate declines", 0.9, 0.9, false},
		{"zero rate always declines", 0, 0, false},
		{"full rate always approves", 1, 0.999, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewSimulated(tt.rate, WithDraw(func() float64 { return tt.draw }))
			res, err := g.Charge(context.Background(), charge)
			require.NoError(t, err)
			assert.Equal(t, tt.approved, res.Approved)
			if tt.approved {
				assert.Regexp(t, regexp.MustCompile(`^TXN-[0-9A-F]{12}$`), res.BankReference)
				assert.Empty(t, res.DeclineReason)
			} else {
				assert.Equal(t, DeclineReason, res.DeclineReason)
				assert.Empty(t, res.BankReference)
			}
		})
	}
}

func TestSimulated_LatencyHonorsCancellation(t *testing.T) {
	g := NewSimulated(1, WithLatency(time.Minute))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Charge(ctx, charge)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFixed(t *testing.T) {
	ok, err := AlwaysSucceed().Charge(context.Background(), charge)
	require.NoError(t, err)
	assert.True(t, ok.Approved)

	no, err := AlwaysFail().Charge(context.Background(), charge)
	require.NoError(t, err)
	assert.False(t, no.Approved)
}

func TestNew(t *testing.T) {
	g, err := New(config.GatewayConfig{Mode: config.GatewaySimulated, SuccessRate: 0.5}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Simulated{}, g)

	g, err = New(config.GatewayConfig{Mode: config.GatewayAlwaysFail}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &Fixed{}, g)

	_, err = New(config.GatewayConfig{Mode: "stripe"}, zap.NewNop())
	assert.ErrorContains(t, err, "unknown gateway mode")
}

func TestNewBankReference_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		ref := NewBankReference()
		assert.False(t, seen[ref])
		seen[ref] = true
	}
}
