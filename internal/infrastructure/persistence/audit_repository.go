package persistence

import (
	"context"
	"fmt"

	"github.com/claimswift/backend/internal/domain/audit"
	"github.com/claimswift/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAuditTrail implements audit.Trail. It only inserts and reads.
type GormAuditTrail struct {
	db *gorm.DB
}

// NewGormAuditTrail creates a new GormAuditTrail
func NewGormAuditTrail(db *gorm.DB) *GormAuditTrail {
	return &GormAuditTrail{db: db}
}

// Append inserts one audit row
func (r *GormAuditTrail) Append(ctx context.Context, rec *audit.Record) error {
	model := models.AuditRecordModelFromDomain(rec)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append audit record: %w", err)
	}
	rec.ID = model.ID
	return nil
}

// FindBySubject returns a subject's records, oldest first
func (r *GormAuditTrail) FindBySubject(ctx context.Context, subject audit.SubjectType, subjectID int64) ([]audit.Record, error) {
	var rows []models.AuditRecordModel
	if err := r.db.WithContext(ctx).
		Where("subject_type = ? AND subject_id = ?", string(subject), subjectID).
		Order("recorded_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load audit records: %w", err)
	}
	out := make([]audit.Record, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// CountByAction counts a subject's records with the given action
func (r *GormAuditTrail) CountByAction(ctx context.Context, subject audit.SubjectType, subjectID int64, action string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AuditRecordModel{}).
		Where("subject_type = ? AND subject_id = ? AND action = ?", string(subject), subjectID, action).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}
	return count, nil
}

var _ audit.Trail = (*GormAuditTrail)(nil)
