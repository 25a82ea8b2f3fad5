package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/claimswift/backend/internal/domain/claim"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/claimswift/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClaimRepository implements ClaimRepository using GORM
type GormClaimRepository struct {
	db *gorm.DB
}

// NewGormClaimRepository creates a new GormClaimRepository
func NewGormClaimRepository(db *gorm.DB) *GormClaimRepository {
	return &GormClaimRepository{db: db}
}

// FindByID finds a claim by ID
func (r *GormClaimRepository) FindByID(ctx context.Context, id int64) (*claim.Claim, error) {
	return r.findOne(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a claim by ID and locks the row (SELECT ... FOR UPDATE).
// Must be called inside a transaction.
func (r *GormClaimRepository) FindByIDForUpdate(ctx context.Context, id int64) (*claim.Claim, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormClaimRepository) findOne(query *gorm.DB, id int64) (*claim.Claim, error) {
	var model models.ClaimModel
	if err := query.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStatus lists claims in a status
func (r *GormClaimRepository) FindByStatus(ctx context.Context, status claim.Status, filter shared.Filter) ([]claim.Claim, int64, error) {
	return r.list(r.db.WithContext(ctx).Where("status = ?", string(status)), filter)
}

// FindByPolicyholder lists the claims of one policyholder
func (r *GormClaimRepository) FindByPolicyholder(ctx context.Context, policyholderID int64, filter shared.Filter) ([]claim.Claim, int64, error) {
	return r.list(r.db.WithContext(ctx).Where("policyholder_id = ?", policyholderID), filter)
}

// FindAll lists claims
func (r *GormClaimRepository) FindAll(ctx context.Context, filter shared.Filter) ([]claim.Claim, int64, error) {
	return r.list(r.db.WithContext(ctx), filter)
}

func (r *GormClaimRepository) list(query *gorm.DB, filter shared.Filter) ([]claim.Claim, int64, error) {
	// Session makes the filtered query reusable for both count and page.
	query = query.Model(&models.ClaimModel{}).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count claims: %w", err)
	}

	var rows []models.ClaimModel
	if err := paginate(query, filter, ClaimSortFields).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list claims: %w", err)
	}

	out := make([]claim.Claim, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Create inserts a new claim and sets its ID
func (r *GormClaimRepository) Create(ctx context.Context, c *claim.Claim) error {
	model := models.ClaimModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}
	c.ID = model.ID
	return nil
}

// Save updates a claim with optimistic locking. The domain has already
// bumped the version, so the stored row must still hold Version-1.
func (r *GormClaimRepository) Save(ctx context.Context, c *claim.Claim) error {
	model := models.ClaimModelFromDomain(c)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("id", "created_at").
		Where("id = ? AND version = ?", c.ID, c.Version-1).
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save claim: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			fmt.Sprintf("Claim %d was modified by another request", c.ID))
	}
	return nil
}

// GormClaimHistoryRepository implements HistoryRepository using GORM
type GormClaimHistoryRepository struct {
	db *gorm.DB
}

// NewGormClaimHistoryRepository creates a new GormClaimHistoryRepository
func NewGormClaimHistoryRepository(db *gorm.DB) *GormClaimHistoryRepository {
	return &GormClaimHistoryRepository{db: db}
}

// Append inserts a history row
func (r *GormClaimHistoryRepository) Append(ctx context.Context, h *claim.StatusHistory) error {
	model := models.ClaimStatusHistoryModelFromDomain(h)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append claim history: %w", err)
	}
	h.ID = model.ID
	return nil
}

// FindByClaimID returns a claim's history ordered by transition time
func (r *GormClaimHistoryRepository) FindByClaimID(ctx context.Context, claimID int64) ([]claim.StatusHistory, error) {
	var rows []models.ClaimStatusHistoryModel
	if err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("transitioned_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load claim history: %w", err)
	}
	out := make([]claim.StatusHistory, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var (
	_ claim.ClaimRepository   = (*GormClaimRepository)(nil)
	_ claim.HistoryRepository = (*GormClaimHistoryRepository)(nil)
)
