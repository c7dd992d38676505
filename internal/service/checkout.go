package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"datamart-checkout/internal/client"
	"datamart-checkout/internal/dto"
	"datamart-checkout/internal/metrics"
	"datamart-checkout/internal/model"
	"datamart-checkout/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrOrderNotPayable means the order exists but is not awaiting payment, so
// a checkout session cannot be created for it.
var ErrOrderNotPayable = errors.New("order: not awaiting payment")

// CheckoutService is the order lifecycle engine's payment-facing half: it
// turns carts into orders, drives the hosted payment session, and reconciles
// the asynchronous payment outcome into order and transaction state.
type CheckoutService interface {
	InitiateCheckout(ctx context.Context, caller model.Identity, bearerToken string) (*model.Order, error)
	CreateSession(ctx context.Context, caller model.Identity, bearerToken, orderID string) (*dto.CheckoutResponse, error)
	ConfirmPayment(ctx context.Context, caller model.Identity, bearerToken, sessionID string) (*dto.PaymentConfirmation, error)
	SessionStatus(ctx context.Context, sessionID string) (*dto.SessionStatus, error)
	CancelBySession(ctx context.Context, caller model.Identity, sessionID string) (*model.Order, error)
}

type checkoutServiceImpl struct {
	txRunner      repository.TxRunner
	orderRepo     repository.OrderRepository
	txRepo        repository.TransactionRepository
	purchaseRepo  repository.PurchaseRelationshipRepository
	catalogClient client.CatalogClient
	stripeClient  client.StripeClient
	orderService  OrderService
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

func NewCheckoutService(
	txRunner repository.TxRunner,
	orderRepo repository.OrderRepository,
	txRepo repository.TransactionRepository,
	purchaseRepo repository.PurchaseRelationshipRepository,
	catalogClient client.CatalogClient,
	stripeClient client.StripeClient,
	orderService OrderService,
	m *metrics.Metrics,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutServiceImpl{
		txRunner:      txRunner,
		orderRepo:     orderRepo,
		txRepo:        txRepo,
		purchaseRepo:  purchaseRepo,
		catalogClient: catalogClient,
		stripeClient:  stripeClient,
		orderService:  orderService,
		metrics:       m,
		logger:        logger,
	}
}

// InitiateCheckout validates the caller's cart against live availability and
// persists a CHECKOUT_INITIATED order snapshotting the cart. Nothing on the
// catalog side is reserved or decremented here.
func (s *checkoutServiceImpl) InitiateCheckout(ctx context.Context, caller model.Identity, bearerToken string) (*model.Order, error) {
	cart, err := s.catalogClient.GetUserCart(ctx, bearerToken)
	if err != nil {
		if errors.Is(err, client.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("fetch cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if err := s.validateAvailability(ctx, bearerToken, cart.Items); err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:            uuid.NewString(),
		UserID:        caller.UserID,
		Items:         snapshotItems(cart.Items),
		TotalAmount:   itemsTotal(cart.Items),
		LoyaltyPoints: cart.LoyaltyPoints,
		Status:        model.StatusCheckoutInitiated,
	}

	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		return s.orderRepo.Create(ctx, tx, order)
	})
	if err != nil {
		return nil, &StoreError{Op: "create order", Err: err}
	}

	s.metrics.CheckoutsInitiated.Inc()
	s.logger.Info("checkout initiated",
		zap.String("order_id", order.ID),
		zap.String("user_id", order.UserID),
		zap.Int("items", len(order.Items)))

	return order, nil
}

// CreateSession re-validates availability, re-snapshots the cart onto the
// order, and opens a hosted payment session. Provider failures leave the
// order status untouched so the client may retry against the same order.
func (s *checkoutServiceImpl) CreateSession(ctx context.Context, caller model.Identity, bearerToken, orderID string) (*dto.CheckoutResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, &StoreError{Op: "load order", Err: err}
	}
	if order.UserID != caller.UserID && !caller.IsAdmin() {
		// Do not leak existence of another user's order.
		return nil, ErrOrderNotFound
	}
	if order.Status != model.StatusCheckoutInitiated {
		return nil, ErrOrderNotPayable
	}

	cart, err := s.catalogClient.GetUserCart(ctx, bearerToken)
	if err != nil {
		if errors.Is(err, client.ErrCartNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, fmt.Errorf("fetch cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	// Stock may have moved between initiation and session creation.
	if err := s.validateAvailability(ctx, bearerToken, cart.Items); err != nil {
		return nil, err
	}

	items := snapshotItems(cart.Items)
	order.TotalAmount = itemsTotal(cart.Items)
	order.LoyaltyPoints = cart.LoyaltyPoints

	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.orderRepo.ReplaceItems(ctx, tx, order.ID, items); err != nil {
			return err
		}
		return s.orderRepo.Update(ctx, tx, order)
	})
	if err != nil {
		return nil, &StoreError{Op: "refresh order", Err: err}
	}

	session, err := s.stripeClient.CreateCheckoutSession(ctx, items, client.SessionMetadata{
		OrderID: order.ID,
		UserID:  order.UserID,
	})
	if err != nil {
		return nil, &PaymentProviderError{Op: "create session", Err: err}
	}

	order.StripeSessionID = session.ID
	order.PaymentStatus = model.TransactionPending
	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		return s.orderRepo.Update(ctx, tx, order)
	})
	if err != nil {
		return nil, &StoreError{Op: "link session", Err: err}
	}

	s.logger.Info("checkout session created",
		zap.String("order_id", order.ID),
		zap.String("session_id", session.ID))

	return &dto.CheckoutResponse{
		SessionID:   session.ID,
		OrderID:     order.ID,
		CheckoutURL: session.URL,
	}, nil
}

// ConfirmPayment reconciles the provider's authoritative session state into
// local order and transaction state. It is idempotent: the persisted SUCCESS
// transaction keyed by session id short-circuits replays, and the store's
// unique index settles true races. A payment once recorded is never rolled
// back; failed downstream side effects are surfaced for reconciliation.
func (s *checkoutServiceImpl) ConfirmPayment(ctx context.Context, caller model.Identity, bearerToken, sessionID string) (*dto.PaymentConfirmation, error) {
	session, err := s.stripeClient.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, &PaymentProviderError{Op: "retrieve session", Err: err}
	}
	if session.Metadata.OrderID == "" || session.Metadata.UserID == "" {
		return nil, ErrInvalidSession
	}

	order, err := s.orderRepo.FindByID(ctx, session.Metadata.OrderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrOrderNotFound
		}
		return nil, &StoreError{Op: "load order", Err: err}
	}

	// Idempotency short-circuit: a recorded transaction for this session
	// means the confirmation already ran, side effects included.
	existing, err := s.txRepo.FindBySessionID(ctx, sessionID)
	if err == nil {
		s.metrics.DuplicateConfirmations.Inc()
		s.logger.Info("confirmation replayed",
			zap.String("session_id", sessionID),
			zap.String("transaction_id", existing.ID))
		return replayConfirmation(existing, order), nil
	}
	if !repository.IsNotFound(err) {
		return nil, &StoreError{Op: "check session transaction", Err: err}
	}

	// Session, order, and caller must all agree on the owner.
	if order.UserID != session.Metadata.UserID || session.Metadata.UserID != caller.UserID {
		s.logger.Warn("confirmation ownership mismatch",
			zap.String("session_id", sessionID),
			zap.String("order_user", order.UserID),
			zap.String("session_user", session.Metadata.UserID),
			zap.String("caller", caller.UserID))
		return nil, ErrOwnershipMismatch
	}

	if !session.Paid() {
		s.metrics.PaymentConfirmations.WithLabelValues("unpaid").Inc()
		// The session may still complete; nothing is recorded yet.
		return &dto.PaymentConfirmation{
			Status:  dto.ConfirmationPending,
			OrderID: order.ID,
			Message: "Payment not completed by provider",
		}, nil
	}

	transaction := &model.Transaction{
		ID:                    uuid.NewString(),
		OrderID:               order.ID,
		UserID:                order.UserID,
		Amount:                order.TotalAmount,
		Status:                model.TransactionSuccess,
		Type:                  model.TransactionTypePayment,
		StripeSessionID:       &session.ID,
		StripePaymentIntentID: session.PaymentIntentID,
		Currency:              session.Currency,
		PaymentMethod:         "card",
	}

	now := time.Now()
	err = s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		if err := s.txRepo.Create(ctx, tx, transaction); err != nil {
			return err
		}
		if order.Status.CanTransitionTo(model.StatusPaid) {
			order.Status = model.StatusPaid
		}
		order.PaymentStatus = model.TransactionSuccess
		order.PaymentMethod = transaction.PaymentMethod
		order.PaymentCompletedAt = &now
		return s.orderRepo.Update(ctx, tx, order)
	})
	if err != nil {
		if repository.IsDuplicate(err) {
			// Lost a race against a concurrent confirmation for the same
			// session. The winner's row is authoritative.
			s.metrics.DuplicateConfirmations.Inc()
			winner, ferr := s.txRepo.FindBySessionID(ctx, sessionID)
			if ferr != nil {
				return nil, &StoreError{Op: "load winning transaction", Err: ferr}
			}
			return replayConfirmation(winner, order), nil
		}
		return nil, &StoreError{Op: "record payment", Err: err}
	}

	s.metrics.PaymentConfirmations.WithLabelValues("paid").Inc()
	s.logger.Info("payment confirmed",
		zap.String("order_id", order.ID),
		zap.String("session_id", sessionID),
		zap.String("transaction_id", transaction.ID))

	s.completePurchase(ctx, bearerToken, order, transaction)

	return &dto.PaymentConfirmation{
		TransactionID: transaction.ID,
		Status:        dto.ConfirmationSuccess,
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		Message:       "Payment processed successfully",
	}, nil
}

// completePurchase runs the post-payment side effects: stock decrement,
// purchase relationship recording, and cart clearing. The payment record is
// already durable; a failure here must not undo it, so each step logs and
// counts a reconciliation-needed condition instead of returning an error.
func (s *checkoutServiceImpl) completePurchase(ctx context.Context, bearerToken string, order *model.Order, transaction *model.Transaction) {
	for _, item := range order.Items {
		if err := s.catalogClient.ReduceStock(ctx, bearerToken, item.ProductID, item.Quantity); err != nil {
			s.metrics.ReconciliationNeeded.WithLabelValues("stock").Inc()
			s.logger.Error("stock decrement failed after payment",
				zap.String("order_id", order.ID),
				zap.String("product_id", item.ProductID),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}

	names := make([]string, 0, len(order.Items))
	for _, item := range order.Items {
		name := item.Name
		if name == "" {
			// Older carts may lack display names in the snapshot.
			resolved, err := s.catalogClient.GetProductName(ctx, item.ProductID)
			if err != nil {
				s.logger.Warn("product name lookup failed",
					zap.String("product_id", item.ProductID),
					zap.Error(err))
				resolved = item.ProductID
			}
			name = resolved
		}
		names = append(names, name)
	}
	err := s.txRunner.InTx(ctx, func(tx *gorm.DB) error {
		return s.purchaseRepo.Create(ctx, tx, &model.PurchaseRelationship{
			TransactionID: transaction.ID,
			ProductNames:  names,
			PurchaseDate:  time.Now(),
		})
	})
	if err != nil {
		s.metrics.ReconciliationNeeded.WithLabelValues("relationship").Inc()
		s.logger.Error("purchase relationship recording failed after payment",
			zap.String("transaction_id", transaction.ID),
			zap.Error(err))
	}

	if err := s.catalogClient.ClearCart(ctx, bearerToken); err != nil {
		s.metrics.ReconciliationNeeded.WithLabelValues("cart").Inc()
		s.logger.Error("cart clearing failed after payment",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}

// SessionStatus answers polling clients: the recorded transaction status
// wins; otherwise the live provider state is consulted.
func (s *checkoutServiceImpl) SessionStatus(ctx context.Context, sessionID string) (*dto.SessionStatus, error) {
	transaction, err := s.txRepo.FindBySessionID(ctx, sessionID)
	if err == nil {
		return &dto.SessionStatus{
			Status:  string(transaction.Status),
			OrderID: transaction.OrderID,
		}, nil
	}
	if !repository.IsNotFound(err) {
		return nil, &StoreError{Op: "load session transaction", Err: err}
	}

	session, err := s.stripeClient.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, &PaymentProviderError{Op: "retrieve session", Err: err}
	}
	if session.Metadata.OrderID == "" {
		return &dto.SessionStatus{Status: string(model.TransactionFailed)}, nil
	}

	status := model.TransactionPending
	if session.Paid() {
		status = model.TransactionSuccess
	}

	return &dto.SessionStatus{
		Status:  string(status),
		OrderID: session.Metadata.OrderID,
	}, nil
}

// CancelBySession resolves the session's order and cancels it through the
// engine's cancellation rules.
func (s *checkoutServiceImpl) CancelBySession(ctx context.Context, caller model.Identity, sessionID string) (*model.Order, error) {
	session, err := s.stripeClient.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, &PaymentProviderError{Op: "retrieve session", Err: err}
	}
	if session.Metadata.OrderID == "" {
		return nil, ErrInvalidSession
	}

	return s.orderService.CancelOrder(ctx, caller, session.Metadata.OrderID)
}

func (s *checkoutServiceImpl) validateAvailability(ctx context.Context, bearerToken string, items []model.CartItem) error {
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return fmt.Errorf("invalid product data in cart")
		}
		available, err := s.catalogClient.CheckAvailability(ctx, bearerToken, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("availability check for %s: %w", item.ProductID, err)
		}
		if !available {
			return &ProductUnavailableError{ProductID: item.ProductID, Requested: item.Quantity}
		}
	}
	return nil
}

func snapshotItems(items []model.CartItem) []model.OrderItem {
	snapshot := make([]model.OrderItem, len(items))
	for i, item := range items {
		subtotal := item.Subtotal
		if subtotal.IsZero() {
			subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		snapshot[i] = model.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  item.Quantity,
			Discount:  item.Discount,
			BrandName: item.BrandName,
			Subtotal:  subtotal,
		}
	}
	return snapshot
}

func itemsTotal(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		subtotal := item.Subtotal
		if subtotal.IsZero() {
			subtotal = item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		total = total.Add(subtotal)
	}
	return total
}

func replayConfirmation(transaction *model.Transaction, order *model.Order) *dto.PaymentConfirmation {
	status := dto.ConfirmationFailed
	if transaction.Status == model.TransactionSuccess {
		status = dto.ConfirmationSuccess
	}
	return &dto.PaymentConfirmation{
		TransactionID: transaction.ID,
		Status:        status,
		OrderID:       order.ID,
		Amount:        transaction.Amount,
		Message:       "Payment already processed",
	}
}
