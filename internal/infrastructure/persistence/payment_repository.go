package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/claimswift/backend/internal/domain/payment"
	"github.com/claimswift/backend/internal/domain/shared"
	"github.com/claimswift/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id int64) (*payment.Payment, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByClaimID finds the payment of a claim
func (r *GormPaymentRepository) FindByClaimID(ctx context.Context, claimID int64) (*payment.Payment, error) {
	return r.findOne(ctx, "claim_id = ?", claimID)
}

func (r *GormPaymentRepository) findOne(ctx context.Context, cond string, arg any) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByClaimID checks whether a claim already has a payment
func (r *GormPaymentRepository) ExistsByClaimID(ctx context.Context, claimID int64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("claim_id = ?", claimID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists payments matching the filter
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter payment.ListFilter) ([]payment.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.ClaimSync != "" {
		query = query.Where("claim_sync = ?", string(filter.ClaimSync))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payments: %w", err)
	}

	var rows []models.PaymentModel
	if err := paginate(query, filter.Filter, PaymentSortFields).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	return toPayments(rows), total, nil
}

// FindPendingClaimSync returns SUCCESS payments whose claim was not yet
// confirmed as PAID, oldest first.
func (r *GormPaymentRepository) FindPendingClaimSync(ctx context.Context, limit int) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND claim_sync = ?", string(payment.StatusSuccess), string(payment.ClaimSyncPending)).
		Order("processed_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending claim syncs: %w", err)
	}
	return toPayments(rows), nil
}

// FindStalled returns INITIATED payments whose row has not moved since
// cutoff, oldest first.
func (r *GormPaymentRepository) FindStalled(ctx context.Context, cutoff time.Time, limit int) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", string(payment.StatusInitiated), cutoff).
		Order("updated_at ASC, id ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list stalled payments: %w", err)
	}
	return toPayments(rows), nil
}

// Create inserts a payment. The unique claim_id index turns a racing second
// insert into PAYMENT_ALREADY_EXISTS.
func (r *GormPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return payment.AlreadyExists(p.ClaimID)
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	p.ID = model.ID
	return nil
}

// Save updates a payment with optimistic locking
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	model := models.PaymentModelFromDomain(p)
	result := r.db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("id", "created_at").
		Where("id = ? AND version = ?", p.ID, p.Version-1).
		Updates(model)
	if result.Error != nil {
		return fmt.Errorf("failed to save payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict,
			fmt.Sprintf("Payment %s was modified by another request", p.PaymentReference))
	}
	return nil
}

func toPayments(rows []models.PaymentModel) []payment.Payment {
	out := make([]payment.Payment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormPaymentTransactionRepository implements TransactionRepository using GORM
type GormPaymentTransactionRepository struct {
	db *gorm.DB
}

// NewGormPaymentTransactionRepository creates a new GormPaymentTransactionRepository
func NewGormPaymentTransactionRepository(db *gorm.DB) *GormPaymentTransactionRepository {
	return &GormPaymentTransactionRepository{db: db}
}

// Create inserts an attempt row
func (r *GormPaymentTransactionRepository) Create(ctx context.Context, t *payment.Transaction) error {
	model := models.PaymentTransactionModelFromDomain(t)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to record payment transaction: %w", err)
	}
	t.ID = model.ID
	return nil
}

// FindLatestByPaymentID returns the most recent attempt
func (r *GormPaymentTransactionRepository) FindLatestByPaymentID(ctx context.Context, paymentID int64) (*payment.Transaction, error) {
	var model models.PaymentTransactionModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("attempt DESC, id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	t := model.ToDomain()
	return &t, nil
}

// FindByPaymentID returns every attempt, oldest first
func (r *GormPaymentTransactionRepository) FindByPaymentID(ctx context.Context, paymentID int64) ([]payment.Transaction, error) {
	var rows []models.PaymentTransactionModel
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("attempt ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load payment transactions: %w", err)
	}
	out := make([]payment.Transaction, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var (
	_ payment.PaymentRepository     = (*GormPaymentRepository)(nil)
	_ payment.TransactionRepository = (*GormPaymentTransactionRepository)(nil)
)
