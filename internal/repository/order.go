package repository

import (
	"context"
	"errors"
	"time"

	"datamart-checkout/internal/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindByUserID(ctx context.Context, userID string) ([]*model.Order, error)
	Update(ctx context.Context, tx *gorm.DB, order *model.Order) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus) error
	ReplaceItems(ctx context.Context, tx *gorm.DB, orderID string, items []model.OrderItem) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error

	if err != nil {
		return nil, err
	}

	return orders, nil
}

// Update persists the order's scalar fields. Line items are managed through
// ReplaceItems so a save never duplicates association rows.
func (r *orderRepoImpl) Update(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	result := tx.WithContext(ctx).
		Omit("Items").
		Model(&model.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"total_amount":         order.TotalAmount,
			"loyalty_points":       order.LoyaltyPoints,
			"status":               order.Status,
			"stripe_session_id":    order.StripeSessionID,
			"payment_status":       order.PaymentStatus,
			"payment_method":       order.PaymentMethod,
			"payment_completed_at": order.PaymentCompletedAt,
			"updated_at":           time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus) error {
	result := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *orderRepoImpl) ReplaceItems(ctx context.Context, tx *gorm.DB, orderID string, items []model.OrderItem) error {
	err := tx.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&model.OrderItem{}).Error
	if err != nil {
		return err
	}

	for i := range items {
		items[i].ID = 0
		items[i].OrderID = orderID
	}

	return tx.WithContext(ctx).Create(&items).Error
}

// IsNotFound reports whether err is the store's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
