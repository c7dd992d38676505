package repository

import (
	"context"
	"time"

	"datamart-checkout/internal/model"

	"gorm.io/gorm"
)

type PurchaseRelationshipRepository interface {
	Create(ctx context.Context, tx *gorm.DB, record *model.PurchaseRelationship) error
	FindByTransactionID(ctx context.Context, transactionID string) (*model.PurchaseRelationship, error)
	FindByDateRange(ctx context.Context, from, to time.Time) ([]*model.PurchaseRelationship, error)
}

type purchaseRelationshipRepoImpl struct {
	db *gorm.DB
}

func NewPurchaseRelationshipRepository(db *gorm.DB) PurchaseRelationshipRepository {
	return &purchaseRelationshipRepoImpl{
		db: db,
	}
}

func (r *purchaseRelationshipRepoImpl) Create(ctx context.Context, tx *gorm.DB, record *model.PurchaseRelationship) error {
	return tx.WithContext(ctx).Create(record).Error
}

func (r *purchaseRelationshipRepoImpl) FindByTransactionID(ctx context.Context, transactionID string) (*model.PurchaseRelationship, error) {
	var record model.PurchaseRelationship
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&record).Error

	if err != nil {
		return nil, err
	}

	return &record, nil
}

func (r *purchaseRelationshipRepoImpl) FindByDateRange(ctx context.Context, from, to time.Time) ([]*model.PurchaseRelationship, error) {
	var records []*model.PurchaseRelationship
	err := r.db.WithContext(ctx).
		Where("purchase_date BETWEEN ? AND ?", from, to).
		Order("purchase_date DESC").
		Find(&records).Error

	if err != nil {
		return nil, err
	}

	return records, nil
}
