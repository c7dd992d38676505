package service

import (
	"context"
	"errors"

	"datamart-checkout/internal/client"
	"datamart-checkout/internal/model"
	"datamart-checkout/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService is the order-facing half of the lifecycle engine: reads with
// ownership enforcement, the admin status state machine, cancellation and
// refund.
type OrderService interface {
	GetOrder(ctx context.Context, caller model.Identity, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, caller model.Identity) ([]*model.Order, error)
	UpdateStatus(ctx context.Context, caller model.Identity, orderID string, next model.OrderStatus) (*model.Order, error)
	CancelOrder(ctx context.Context, caller model.Identity, orderID string) (*model.Order, error)
	RefundOrder(ctx context.Context, caller model.Identity, orderID string) (*model.Transaction, error)
	VerifyOwnership(ctx context.Context, orderID, userID string) bool
}

type orderServiceImpl struct {
	txRunner     repository.TxRunner
	orderRepo    repository.OrderRepository
	txRepo       repository.TransactionRepository
	stripeClient client.StripeClient
	logger       *zap.Logger
}

func NewOrderService(
	txRunner repository.TxRunner,
	orderRepo repository.OrderRepository,
	txRepo repository.TransactionRepository,
	stripeClient client.StripeClient,
	logger *zap.Logger,
) OrderService {
	return &orderServiceImpl{
		txRunner:     txRunner,
		orderRepo:    orderRepo,
		txRepo:       txRepo,
		stripeClient: stripeClient,
		logger:       logger,
	}
}

// GetOrder loads an order the caller may see. A non-owner gets the same
// not-found failure as a missing order so existence never leaks.
func (s *orderServiceImpl) GetOrder(ctx context.Context, caller model.Identity, orderID string) (*model.Order, error) {
	order, err := s.loadOwned(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderServiceImpl) ListOrders(ctx context.Context, caller model.Identity) ([]*model.Order, error) {
	orders, err := s.orderRepo.FindByUserID(ctx, caller.UserID)
	if err != nil {
		return nil, &StoreError{Op: "list orders", Err: err}
	}
	return orders, nil
}

// UpdateStatus applies an administrative transition. The transition table is
// enforced here, centrally; an illegal pair fails and leaves the order
// untouched.
func (s *orderServiceImpl) UpdateStatus(ctx context.Context, caller model.Identity, orderID string, next model.OrderStatus) (*model.Order, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, &StoreError{Op: "load order", Err: err}
	}

	if !order.Status.CanTransitionTo(next) {
		return nil, &InvalidStatusTransitionError{From: order.Status, To: next}
	}

	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		return s.orderRepo.UpdateStatus(ctx, tx, order.ID, next)
	})
	if err != nil {
		return nil, &StoreError{Op: "update status", Err: err}
	}

	s.logger.Info("order status updated",
		zap.String("order_id", order.ID),
		zap.String("from", string(order.Status)),
		zap.String("to", string(next)),
		zap.String("admin", caller.UserID))

	order.Status = next
	return order, nil
}

// CancelOrder cancels the order if its status allows it. Cancelling an
// already cancelled order succeeds (idempotent re-cancel).
func (s *orderServiceImpl) CancelOrder(ctx context.Context, caller model.Identity, orderID string) (*model.Order, error) {
	order, err := s.loadOwned(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.Cancellable() {
		return nil, &NotCancellableError{Status: order.Status}
	}

	if order.Status == model.StatusCancelled {
		return order, nil
	}

	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		return s.orderRepo.UpdateStatus(ctx, tx, order.ID, model.StatusCancelled)
	})
	if err != nil {
		return nil, &StoreError{Op: "cancel order", Err: err}
	}

	s.logger.Info("order cancelled",
		zap.String("order_id", order.ID),
		zap.String("user_id", caller.UserID))

	order.Status = model.StatusCancelled
	return order, nil
}

// RefundOrder refunds a delivered order through the payment provider. A
// provider failure marks the refund transaction FAILED and leaves the order
// status unchanged.
func (s *orderServiceImpl) RefundOrder(ctx context.Context, caller model.Identity, orderID string) (*model.Transaction, error) {
	order, err := s.loadOwned(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != model.StatusDelivered {
		return nil, &InvalidStatusTransitionError{From: order.Status, To: model.StatusRefunded}
	}

	payment, err := s.findSuccessfulPayment(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	refund := &model.Transaction{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		UserID:        order.UserID,
		Amount:        order.TotalAmount,
		Status:        model.TransactionProcessing,
		Type:          model.TransactionTypeRefund,
		Currency:      payment.Currency,
		PaymentMethod: payment.PaymentMethod,
	}

	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		return s.txRepo.Create(ctx, tx, refund)
	})
	if err != nil {
		return nil, &StoreError{Op: "create refund transaction", Err: err}
	}

	_, providerErr := s.stripeClient.CreateRefund(ctx, payment.StripePaymentIntentID)
	if providerErr != nil {
		if err := s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
			return s.txRepo.UpdateStatus(ctx, tx, refund.ID, model.TransactionFailed)
		}); err != nil {
			s.logger.Error("failed to mark refund transaction failed",
				zap.String("transaction_id", refund.ID),
				zap.Error(err))
		}
		return nil, &PaymentProviderError{Op: "create refund", Err: providerErr}
	}

	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.txRepo.UpdateStatus(ctx, tx, refund.ID, model.TransactionSuccess); err != nil {
			return err
		}
		return s.orderRepo.UpdateStatus(ctx, tx, order.ID, model.StatusRefunded)
	})
	if err != nil {
		return nil, &StoreError{Op: "finalize refund", Err: err}
	}

	s.logger.Info("order refunded",
		zap.String("order_id", order.ID),
		zap.String("transaction_id", refund.ID))

	refund.Status = model.TransactionSuccess
	return refund, nil
}

// VerifyOwnership is the boolean ownership check usable by any endpoint.
// A missing order is a verification failure, not an error, so callers can
// branch without catching anything for a routine existence check.
func (s *orderServiceImpl) VerifyOwnership(ctx context.Context, orderID, userID string) bool {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.logger.Error("ownership check store failure",
				zap.String("order_id", orderID),
				zap.Error(err))
		}
		return false
	}
	return order.UserID == userID
}

func (s *orderServiceImpl) loadOwned(ctx context.Context, caller model.Identity, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, &StoreError{Op: "load order", Err: err}
	}
	if order.UserID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderServiceImpl) findSuccessfulPayment(ctx context.Context, orderID string) (*model.Transaction, error) {
	transactions, err := s.txRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, &StoreError{Op: "load order transactions", Err: err}
	}
	for _, t := range transactions {
		if t.Type == model.TransactionTypePayment && t.Status == model.TransactionSuccess {
			return t, nil
		}
	}
	return nil, &PaymentProviderError{Op: "refund", Err: errors.New("no successful payment to refund")}
}
