package models

import (
	"time"

	"github.com/claimswift/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// PaymentModel is the persistence model for the Payment aggregate root.
type PaymentModel struct {
	AggregateModel
	ClaimID           int64           `gorm:"not null;uniqueIndex"`
	PolicyholderID    int64           `gorm:"not null;index"`
	ApprovedAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	PaymentReference  string          `gorm:"type:varchar(20);not null;uniqueIndex"`
	Status            string          `gorm:"type:varchar(20);not null;index"`
	ClaimSync         string          `gorm:"type:varchar(20);not null;default:'NOT_REQUIRED';index"`
	BankAccountNumber string          `gorm:"type:varchar(34);not null"`
	BankName          string          `gorm:"type:varchar(100);not null"`
	IFSCCode          string          `gorm:"column:ifsc_code;type:varchar(20);not null"`
	AccountHolderName string          `gorm:"type:varchar(100);not null"`
	Attempts          int             `gorm:"not null;default:0"`
	ProcessedAt       *time.Time
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *payment.Payment {
	return &payment.Payment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ClaimID:           m.ClaimID,
		PolicyholderID:    m.PolicyholderID,
		ApprovedAmount:    m.ApprovedAmount,
		PaymentReference:  m.PaymentReference,
		Status:            payment.Status(m.Status),
		ClaimSync:         payment.ClaimSync(m.ClaimSync),
		Bank: payment.BankDetails{
			AccountNumber:     m.BankAccountNumber,
			BankName:          m.BankName,
			IFSCCode:          m.IFSCCode,
			AccountHolderName: m.AccountHolderName,
		},
		Attempts:    m.Attempts,
		ProcessedAt: m.ProcessedAt,
	}
}

// PaymentModelFromDomain creates a persistence model from a domain Payment.
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{
		ClaimID:           p.ClaimID,
		PolicyholderID:    p.PolicyholderID,
		ApprovedAmount:    p.ApprovedAmount,
		PaymentReference:  p.PaymentReference,
		Status:            string(p.Status),
		ClaimSync:         string(p.ClaimSync),
		BankAccountNumber: p.Bank.AccountNumber,
		BankName:          p.Bank.BankName,
		IFSCCode:          p.Bank.IFSCCode,
		AccountHolderName: p.Bank.AccountHolderName,
		Attempts:          p.Attempts,
		ProcessedAt:       p.ProcessedAt,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// PaymentTransactionModel is one gateway attempt.
type PaymentTransactionModel struct {
	ID              int64     `gorm:"primaryKey;autoIncrement"`
	PaymentID       int64     `gorm:"not null;index"`
	Attempt         int       `gorm:"not null"`
	BankReference   string    `gorm:"type:varchar(64)"`
	Status          string    `gorm:"type:varchar(20);not null"`
	FailureReason   string    `gorm:"type:text"`
	TransactionTime time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PaymentTransactionModel) TableName() string {
	return "payment_transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *PaymentTransactionModel) ToDomain() payment.Transaction {
	return payment.Transaction{
		ID:              m.ID,
		PaymentID:       m.PaymentID,
		Attempt:         m.Attempt,
		BankReference:   m.BankReference,
		Status:          payment.TransactionStatus(m.Status),
		FailureReason:   m.FailureReason,
		TransactionTime: m.TransactionTime,
	}
}

// PaymentTransactionModelFromDomain creates a persistence model from a domain Transaction.
func PaymentTransactionModelFromDomain(t *payment.Transaction) *PaymentTransactionModel {
	return &PaymentTransactionModel{
		ID:              t.ID,
		PaymentID:       t.PaymentID,
		Attempt:         t.Attempt,
		BankReference:   t.BankReference,
		Status:          string(t.Status),
		FailureReason:   t.FailureReason,
		TransactionTime: t.TransactionTime,
	}
}
