package models

import (
	"time"

	"github.com/claimswift/backend/internal/domain/audit"
)

// AuditRecordModel is one append-only audit row.
type AuditRecordModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	SubjectType string    `gorm:"type:varchar(20);not null;index:idx_audit_subject,priority:1"`
	SubjectID   int64     `gorm:"not null;index:idx_audit_subject,priority:2"`
	Action      string    `gorm:"type:varchar(40);not null"`
	OldValue    string    `gorm:"type:text"`
	NewValue    string    `gorm:"type:text"`
	PerformedBy string    `gorm:"type:varchar(64);not null"`
	Description string    `gorm:"type:text"`
	Timestamp   time.Time `gorm:"column:recorded_at;not null"`
}

// TableName returns the table name for GORM
func (AuditRecordModel) TableName() string {
	return "audit_records"
}

// ToDomain converts the persistence model to a domain Record.
func (m *AuditRecordModel) ToDomain() audit.Record {
	return audit.Record{
		ID:          m.ID,
		SubjectType: audit.SubjectType(m.SubjectType),
		SubjectID:   m.SubjectID,
		Action:      m.Action,
		OldValue:    m.OldValue,
		NewValue:    m.NewValue,
		PerformedBy: m.PerformedBy,
		Description: m.Description,
		Timestamp:   m.Timestamp,
	}
}

// AuditRecordModelFromDomain creates a persistence model from a domain Record.
func AuditRecordModelFromDomain(r *audit.Record) *AuditRecordModel {
	return &AuditRecordModel{
		ID:          r.ID,
		SubjectType: string(r.SubjectType),
		SubjectID:   r.SubjectID,
		Action:      r.Action,
		OldValue:    r.OldValue,
		NewValue:    r.NewValue,
		PerformedBy: r.PerformedBy,
		Description: r.Description,
		Timestamp:   r.Timestamp,
	}
}

// All returns every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&ClaimModel{},
		&ClaimStatusHistoryModel{},
		&AssessmentModel{},
		&AssessmentAssignmentModel{},
		&AdjusterWorkloadModel{},
		&PaymentModel{},
		&PaymentTransactionModel{},
		&AuditRecordModel{},
	}
}
