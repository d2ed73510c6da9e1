package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/scientia-api/internal/models"
)

// FeeFilter filters fee ledger listings. Zero values are ignored.
type FeeFilter struct {
	ClassID uint
	Month   string
	RegNo   string
}

// FeeRepository persists the fee ledger.
type FeeRepository interface {
	Create(ctx context.Context, fee *models.Fee) error
	List(ctx context.Context, filter FeeFilter) ([]models.Fee, error)
	Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Fee, error)
	Delete(ctx context.Context, id uint) error
}

type feeRepository struct {
	db *gorm.DB
}

// NewFeeRepository constructs the repository implementation.
func NewFeeRepository(db *gorm.DB) FeeRepository {
	return &feeRepository{db: db}
}

func (r *feeRepository) Create(ctx context.Context, fee *models.Fee) error {
	return r.db.WithContext(ctx).Create(fee).Error
}

func (r *feeRepository) List(ctx context.Context, filter FeeFilter) ([]models.Fee, error) {
	query := r.db.WithContext(ctx).Model(&models.Fee{})
	if filter.ClassID != 0 {
		query = query.Where("class_id = ?", filter.ClassID)
	}
	if month := strings.TrimSpace(filter.Month); month != "" {
		query = query.Where("month = ?", month)
	}
	if regNo := strings.TrimSpace(filter.RegNo); regNo != "" {
		query = query.Where("reg_no = ?", regNo)
	}

	var fees []models.Fee
	if err := query.Order("payment_date DESC, id DESC").Find(&fees).Error; err != nil {
		return nil, err
	}
	return fees, nil
}

func (r *feeRepository) Update(ctx context.Context, id uint, updates map[string]interface{}) (models.Fee, error) {
	var fee models.Fee
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Fee{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&fee).Error
	})
	return fee, err
}

func (r *feeRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Fee{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
