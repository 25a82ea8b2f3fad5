package models

import (
	"time"

	"github.com/claimswift/backend/internal/domain/assessment"
	"github.com/shopspring/decimal"
)

// AssessmentModel is the persistence model for the Assessment aggregate root.
type AssessmentModel struct {
	AggregateModel
	ClaimID        int64           `gorm:"not null;uniqueIndex"`
	AdjusterID     *int64          `gorm:"index"`
	AssessedAmount decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	DeductibleRate decimal.Decimal `gorm:"type:decimal(5,4);not null"`
	Deductible     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0"`
	Status         string          `gorm:"type:varchar(20);not null;index"`
	DecidedBy      string          `gorm:"type:varchar(64)"`
	DecidedAt      *time.Time
}

// TableName returns the table name for GORM
func (AssessmentModel) TableName() string {
	return "assessments"
}

// ToDomain converts the persistence model to a domain Assessment.
func (m *AssessmentModel) ToDomain() *assessment.Assessment {
	return &assessment.Assessment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		ClaimID:           m.ClaimID,
		AdjusterID:        m.AdjusterID,
		AssessedAmount:    m.AssessedAmount,
		DeductibleRate:    m.DeductibleRate,
		Deductible:        m.Deductible,
		FinalAmount:       m.FinalAmount,
		Status:            assessment.Status(m.Status),
		DecidedBy:         m.DecidedBy,
		DecidedAt:         m.DecidedAt,
	}
}

// AssessmentModelFromDomain creates a persistence model from a domain Assessment.
func AssessmentModelFromDomain(a *assessment.Assessment) *AssessmentModel {
	m := &AssessmentModel{
		ClaimID:        a.ClaimID,
		AdjusterID:     a.AdjusterID,
		AssessedAmount: a.AssessedAmount,
		DeductibleRate: a.DeductibleRate,
		Deductible:     a.Deductible,
		FinalAmount:    a.FinalAmount,
		Status:         string(a.Status),
		DecidedBy:      a.DecidedBy,
		DecidedAt:      a.DecidedAt,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}

// AssessmentAssignmentModel records one adjuster assignment.
type AssessmentAssignmentModel struct {
	ID         int64     `gorm:"primaryKey;autoIncrement"`
	ClaimID    int64     `gorm:"not null;index"`
	AdjusterID int64     `gorm:"not null;index"`
	AssignedBy int64     `gorm:"not null"`
	AssignedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AssessmentAssignmentModel) TableName() string {
	return "assessment_assignments"
}

// ToDomain converts the persistence model to a domain Assignment.
func (m *AssessmentAssignmentModel) ToDomain() assessment.Assignment {
	return assessment.Assignment{
		ID:         m.ID,
		ClaimID:    m.ClaimID,
		AdjusterID: m.AdjusterID,
		AssignedBy: m.AssignedBy,
		AssignedAt: m.AssignedAt,
	}
}

// AdjusterWorkloadModel holds one counter per adjuster.
type AdjusterWorkloadModel struct {
	AdjusterID       int64     `gorm:"primaryKey;autoIncrement:false"`
	ActiveClaimCount int64     `gorm:"not null;default:0"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (AdjusterWorkloadModel) TableName() string {
	return "adjuster_workloads"
}

// ToDomain converts the persistence model to a domain Workload.
func (m *AdjusterWorkloadModel) ToDomain() *assessment.Workload {
	return &assessment.Workload{
		AdjusterID:       m.AdjusterID,
		ActiveClaimCount: m.ActiveClaimCount,
		UpdatedAt:        m.UpdatedAt,
	}
}
