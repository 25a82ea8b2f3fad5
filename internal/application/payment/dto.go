package payment

import (
	"time"

	"github.com/claimswift/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// ProcessPaymentRequest starts settlement of an approved claim
type ProcessPaymentRequest struct {
	ClaimID           int64           `json:"claim_id" binding:"required,gt=0"`
	ApprovedAmount    decimal.Decimal `json:"approved_amount"`
	BankAccountNumber string          `json:"bank_account_number" binding:"required,min=4,max=34"`
	BankName          string          `json:"bank_name" binding:"required,max=100"`
	IFSCCode          string          `json:"ifsc_code" binding:"required,max=20"`
	AccountHolderName string          `json:"account_holder_name" binding:"required,max=100"`
}

// PaymentListFilter represents filter options for the payment list
type PaymentListFilter struct {
	Status    string `form:"status" binding:"omitempty,oneof=INITIATED SUCCESS FAILED"`
	ClaimSync string `form:"claim_sync" binding:"omitempty,oneof=NOT_REQUIRED PENDING SYNCED"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TransactionResponse is one gateway attempt
type TransactionResponse struct {
	ID              int64     `json:"id"`
	Attempt         int       `json:"attempt"`
	BankReference   string    `json:"bank_reference,omitempty"`
	Status          string    `json:"status"`
	FailureReason   string    `json:"failure_reason,omitempty"`
	TransactionTime time.Time `json:"transaction_time"`
}

// PaymentResponse represents a payment with its latest attempt
type PaymentResponse struct {
	ID                int64                `json:"id"`
	ClaimID           int64                `json:"claim_id"`
	PolicyholderID    int64                `json:"policyholder_id"`
	ApprovedAmount    decimal.Decimal      `json:"approved_amount"`
	PaymentReference  string               `json:"payment_reference"`
	Status            string               `json:"status"`
	ClaimSync         string               `json:"claim_sync"`
	BankAccountNumber string               `json:"bank_account_number"`
	BankName          string               `json:"bank_name"`
	AccountHolderName string               `json:"account_holder_name"`
	Attempts          int                  `json:"attempts"`
	ProcessedAt       *time.Time           `json:"processed_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
	LatestTransaction *TransactionResponse `json:"latest_transaction,omitempty"`
}

// ToTransactionResponse converts a domain Transaction
func ToTransactionResponse(t *payment.Transaction) *TransactionResponse {
	if t == nil {
		return nil
	}
	return &TransactionResponse{
		ID:              t.ID,
		Attempt:         t.Attempt,
		BankReference:   t.BankReference,
		Status:          string(t.Status),
		FailureReason:   t.FailureReason,
		TransactionTime: t.TransactionTime,
	}
}

// ToPaymentResponse converts a domain Payment and its latest attempt
func ToPaymentResponse(p *payment.Payment, latest *payment.Transaction) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID,
		ClaimID:           p.ClaimID,
		PolicyholderID:    p.PolicyholderID,
		ApprovedAmount:    p.ApprovedAmount,
		PaymentReference:  p.PaymentReference,
		Status:            string(p.Status),
		ClaimSync:         string(p.ClaimSync),
		BankAccountNumber: p.Bank.MaskedAccountNumber(),
		BankName:          p.Bank.BankName,
		AccountHolderName: p.Bank.AccountHolderName,
		Attempts:          p.Attempts,
		ProcessedAt:       p.ProcessedAt,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
		LatestTransaction: ToTransactionResponse(latest),
	}
}
