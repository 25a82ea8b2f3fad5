package payment

import (
	"fmt"
	"time"
)

// TransactionStatus is the outcome of one gateway attempt.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// DefaultFailureReason is recorded when the gateway declines without a reason.
const DefaultFailureReason = "Payment gateway rejected the transaction"

// Transaction is one append-only row per gateway attempt.
type Transaction struct {
	ID              int64
	PaymentID       int64
	Attempt         int
	BankReference   string
	Status          TransactionStatus
	FailureReason   string
	TransactionTime time.Time
}

// NewCompletedTransaction records a successful attempt.
func NewCompletedTransaction(paymentID int64, attempt int, bankReference string) *Transaction {
	now := time.Now()
	if bankReference == "" {
		bankReference = fmt.Sprintf("TXN-%d", now.UnixMilli())
	}
	return &Transaction{
		PaymentID:       paymentID,
		Attempt:         attempt,
		BankReference:   bankReference,
		Status:          TransactionCompleted,
		TransactionTime: now,
	}
}

// NewFailedTransaction records a declined or errored attempt.
func NewFailedTransaction(paymentID int64, attempt int, reason string) *Transaction {
	if reason == "" {
		reason = DefaultFailureReason
	}
	return &Transaction{
		PaymentID:       paymentID,
		Attempt:         attempt,
		Status:          TransactionFailed,
		FailureReason:   reason,
		TransactionTime: time.Now(),
	}
}
