package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// ChargeRequest is what the gateway sees of a payment attempt.
type ChargeRequest struct {
	PaymentReference string
	Attempt          int
	Amount           decimal.Decimal
	Bank             BankDetails
}

// ChargeResult is a gateway decision. Approved false with a nil error is a
// decline.
type ChargeResult struct {
	Approved      bool
	BankReference string
	DeclineReason string
}

// Gateway is the payment-processing boundary. An error is treated the same as
// a decline by the saga.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
