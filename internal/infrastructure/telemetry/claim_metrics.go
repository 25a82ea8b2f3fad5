package telemetry

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/metric"
)

// ClaimMetrics counts settlement outcomes, claim confirmations and claim
// status transitions. It satisfies the metric hooks of the payment and
// claim application services.
type ClaimMetrics struct {
	paymentTotal    *Counter
	claimSyncTotal  *Counter
	transitionTotal *Counter
}

// NewClaimMetrics registers the claims domain instruments on meter.
func NewClaimMetrics(meter metric.Meter) (*ClaimMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	payments, err := NewCounter(meter,
		"claims_payment_total",
		"Settlement attempts by outcome",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}
	syncs, err := NewCounter(meter,
		"claims_payment_claim_sync_total",
		"Attempts to confirm a paid claim with the claim service",
		"{updates}",
	)
	if err != nil {
		return nil, err
	}
	transitions, err := NewCounter(meter,
		"claims_status_transition_total",
		"Committed claim status transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	return &ClaimMetrics{
		paymentTotal:    payments,
		claimSyncTotal:  syncs,
		transitionTotal: transitions,
	}, nil
}

// RecordPaymentOutcome counts one gateway attempt that reached a terminal status.
func (m *ClaimMetrics) RecordPaymentOutcome(ctx context.Context, outcome string, retry bool) {
	m.paymentTotal.Inc(ctx,
		AttrPaymentOutcome.String(outcome),
		AttrPaymentRetry.String(strconv.FormatBool(retry)),
	)
}

// RecordClaimSync counts one PAID update sent to the claim service.
func (m *ClaimMetrics) RecordClaimSync(ctx context.Context, ok bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	m.claimSyncTotal.Inc(ctx, AttrClaimSync.String(result))
}

// RecordClaimTransition counts one committed status change.
func (m *ClaimMetrics) RecordClaimTransition(ctx context.Context, from, to string) {
	m.transitionTotal.Inc(ctx,
		AttrFromStatus.String(from),
		AttrToStatus.String(to),
	)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewClaimMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
