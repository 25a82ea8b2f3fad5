package models

import (
	"time"

	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/shopspring/decimal"
)

// ClaimModel is the persistence model for the Claim aggregate root.
type ClaimModel struct {
	AggregateModel
	PolicyNumber   string          `gorm:"type:varchar(50);not null;index"`
	PolicyholderID int64           `gorm:"not null;index"`
	ClaimType      string          `gorm:"type:varchar(50);not null"`
	Description    string          `gorm:"type:text"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2);not null"`
	Status         string          `gorm:"type:varchar(20);not null;index"`
}

// TableName returns the table name for GORM
func (ClaimModel) TableName() string {
	return "claims"
}

// ToDomain converts the persistence model to a domain Claim entity.
func (m *ClaimModel) ToDomain() *claim.Claim {
	return &claim.Claim{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		PolicyNumber:      m.PolicyNumber,
		PolicyholderID:    m.PolicyholderID,
		ClaimType:         m.ClaimType,
		Description:       m.Description,
		Amount:            m.Amount,
		Status:            claim.Status(m.Status),
	}
}

// ClaimModelFromDomain creates a persistence model from a domain Claim entity.
func ClaimModelFromDomain(c *claim.Claim) *ClaimModel {
	m := &ClaimModel{
		PolicyNumber:   c.PolicyNumber,
		PolicyholderID: c.PolicyholderID,
		ClaimType:      c.ClaimType,
		Description:    c.Description,
		Amount:         c.Amount,
		Status:         string(c.Status),
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// ClaimStatusHistoryModel is one row per claim status change.
type ClaimStatusHistoryModel struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	ClaimID        int64     `gorm:"not null;index"`
	OldStatus      string    `gorm:"type:varchar(20)"`
	NewStatus      string    `gorm:"type:varchar(20);not null"`
	TransitionedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ClaimStatusHistoryModel) TableName() string {
	return "claim_status_history"
}

// ToDomain converts the persistence model to a domain StatusHistory.
func (m *ClaimStatusHistoryModel) ToDomain() claim.StatusHistory {
	return claim.StatusHistory{
		ID:             m.ID,
		ClaimID:        m.ClaimID,
		OldStatus:      claim.Status(m.OldStatus),
		NewStatus:      claim.Status(m.NewStatus),
		TransitionedAt: m.TransitionedAt,
	}
}

// ClaimStatusHistoryModelFromDomain creates a persistence model from a domain StatusHistory.
func ClaimStatusHistoryModelFromDomain(h *claim.StatusHistory) *ClaimStatusHistoryModel {
	return &ClaimStatusHistoryModel{
		ID:             h.ID,
		ClaimID:        h.ClaimID,
		OldStatus:      string(h.OldStatus),
		NewStatus:      string(h.NewStatus),
		TransitionedAt: h.TransitionedAt,
	}
}
