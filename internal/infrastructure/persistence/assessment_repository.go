package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claimswift/backend/internal/domain/assessment"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/claimswift/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAssessmentRepository implements AssessmentRepository using GORM
type GormAssessmentRepository struct {
	db *gorm.DB
}

// NewGormAssessmentRepository creates a new GormAssessmentRepository
func NewGormAssessmentRepository(db *gorm.DB) *GormAssessmentRepository {
	return &GormAssessmentRepository{db: db}
}

// FindByClaimID finds the assessment of a claim
func (r *GormAssessmentRepository) FindByClaimID(ctx context.Context, claimID int64) (*assessment.Assessment, error) {
	return r.findOne(r.db.WithContext(ctx), claimID)
}

// FindByClaimIDForUpdate finds the assessment of a claim and locks the row.
// Must be called inside a transaction.
func (r *GormAssessmentRepository) FindByClaimIDForUpdate(ctx context.Context, claimID int64) (*assessment.Assessment, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), claimID)
}

func (r *GormAssessmentRepository) findOne(query *gorm.DB, claimID int64) (*assessment.Assessment, error) {
	var model models.AssessmentModel
	if err := query.First(&model, "claim_id = ?", claimID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts an assessment. The unique claim_id index turns a racing
// second insert into ASSESSMENT_ALREADY_EXISTS.
func (r *GormAssessmentRepository) Create(ctx context.Context, a *assessment.Assessment) error {
	model := models.AssessmentModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.WrapDomainError(shared.CodeAssessmentAlreadyExists,
				fmt.Sprintf("Assessment already exists for claim %d", a.ClaimID), err)
		}
		return fmt.Errorf("failed to create assessment: %w", err)
	}
	a.ID = model.ID
	return nil
}

// Save updates an assessment with optimistic locking
func (r *GormAssessmentRepository) Save(ctx context.Context, a *assessment.Assessment) error {
	model := models.AssessmentModelFromDomain(a)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("id", "created_at").
		Where("id = ? AND version = ?", a.ID, a.Version-1).
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save assessment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			fmt.Sprintf("Assessment for claim %d was modified by another request", a.ClaimID))
	}
	return nil
}

// GormAssignmentRepository implements AssignmentRepository using GORM
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewGormAssignmentRepository creates a new GormAssignmentRepository
func NewGormAssignmentRepository(db *gorm.DB) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// Append inserts an assignment row
func (r *GormAssignmentRepository) Append(ctx context.Context, a *assessment.Assignment) error {
	model := &models.AssessmentAssignmentModel{
		ClaimID:    a.ClaimID,
		AdjusterID: a.AdjusterID,
		AssignedBy: a.AssignedBy,
		AssignedAt: a.AssignedAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append assignment: %w", err)
	}
	a.ID = model.ID
	return nil
}

// FindByClaimID returns a claim's assignments, oldest first
func (r *GormAssignmentRepository) FindByClaimID(ctx context.Context, claimID int64) ([]assessment.Assignment, error) {
	var rows []models.AssessmentAssignmentModel
	if err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("assigned_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load assignments: %w", err)
	}
	out := make([]assessment.Assignment, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// GormWorkloadRepository implements WorkloadRepository with single-statement
// counter updates.
type GormWorkloadRepository struct {
	db *gorm.DB
}

// NewGormWorkloadRepository creates a new GormWorkloadRepository
func NewGormWorkloadRepository(db *gorm.DB) *GormWorkloadRepository {
	return &GormWorkloadRepository{db: db}
}

// Increment upserts the counter: insert 1 or add 1 to the existing row.
func (r *GormWorkloadRepository) Increment(ctx context.Context, adjusterID int64) error {
	now := time.Now()
	model := &models.AdjusterWorkloadModel{
		AdjusterID:       adjusterID,
		ActiveClaimCount: 1,
		UpdatedAt:        now,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "adjuster_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"active_claim_count": gorm.Expr("adjuster_workloads.active_claim_count + 1"),
			"updated_at":         now,
		}),
	}).Create(model).Error
	if err != nil {
		return fmt.Errorf("failed to increment workload for adjuster %d: %w", adjusterID, err)
	}
	return nil
}

// Decrement subtracts one, never going below zero.
func (r *GormWorkloadRepository) Decrement(ctx context.Context, adjusterID int64) error {
	err := r.db.WithContext(ctx).
		Model(&models.AdjusterWorkloadModel{}).
		Where("adjuster_id = ?", adjusterID).
		Updates(map[string]any{
			"active_claim_count": gorm.Expr("CASE WHEN active_claim_count > 0 THEN active_claim_count - 1 ELSE 0 END"),
			"updated_at":         time.Now(),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to decrement workload for adjuster %d: %w", adjusterID, err)
	}
	return nil
}

// FindByAdjusterID returns an adjuster's counter
func (r *GormWorkloadRepository) FindByAdjusterID(ctx context.Context, adjusterID int64) (*assessment.Workload, error) {
	var model models.AdjusterWorkloadModel
	if err := r.db.WithContext(ctx).First(&model, "adjuster_id = ?", adjusterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var (
	_ assessment.AssessmentRepository = (*GormAssessmentRepository)(nil)
	_ assessment.AssignmentRepository = (*GormAssignmentRepository)(nil)
	_ assessment.WorkloadRepository   = (*GormWorkloadRepository)(nil)
)
