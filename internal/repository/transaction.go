package repository

import (
	"context"
	"errors"

	"datamart-checkout/internal/model"

	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, transaction *model.Transaction) error
	FindByID(ctx context.Context, id string) (*model.Transaction, error)
	FindBySessionID(ctx context.Context, sessionID string) (*model.Transaction, error)
	FindByOrderID(ctx context.Context, orderID string) ([]*model.Transaction, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status model.TransactionStatus) error
}

type transactionRepoImpl struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepoImpl{
		db: db,
	}
}

// Create inserts the transaction row. The unique index on
// stripe_session_id makes the store reject a second payment row for the
// same session; callers detect that with IsDuplicate.
func (r *transactionRepoImpl) Create(ctx context.Context, tx *gorm.DB, transaction *model.Transaction) error {
	return tx.WithContext(ctx).Create(transaction).Error
}

func (r *transactionRepoImpl) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&transaction).Error

	if err != nil {
		return nil, err
	}

	return &transaction, nil
}

func (r *transactionRepoImpl) FindBySessionID(ctx context.Context, sessionID string) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&transaction).Error

	if err != nil {
		return nil, err
	}

	return &transaction, nil
}

func (r *transactionRepoImpl) FindByOrderID(ctx context.Context, orderID string) ([]*model.Transaction, error) {
	var transactions []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Find(&transactions).Error

	if err != nil {
		return nil, err
	}

	return transactions, nil
}

func (r *transactionRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status model.TransactionStatus) error {
	result := tx.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": status,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// IsDuplicate reports whether err is a unique-constraint rejection.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
