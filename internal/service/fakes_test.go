package service

import (
	"context"
	"errors"
	"time"

	"datamart-checkout/internal/client"
	"datamart-checkout/internal/model"

	"gorm.io/gorm"
)

type fakeTxRunner struct{}

func (fakeTxRunner) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeOrderRepo struct {
	orders map[string]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*model.Order{}}
}

func (r *fakeOrderRepo) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	stored := *order
	r.orders[order.ID] = &stored
	return nil
}

func (r *fakeOrderRepo) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	order, ok := r.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	copied.Items = append([]model.OrderItem(nil), order.Items...)
	return &copied, nil
}

func (r *fakeOrderRepo) FindByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	var out []*model.Order
	for _, order := range r.orders {
		if order.UserID == userID {
			copied := *order
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) Update(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	stored, ok := r.orders[order.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	items := stored.Items
	updated := *order
	updated.Items = items
	r.orders[order.ID] = &updated
	return nil
}

func (r *fakeOrderRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus) error {
	stored, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = status
	return nil
}

func (r *fakeOrderRepo) ReplaceItems(ctx context.Context, tx *gorm.DB, orderID string, items []model.OrderItem) error {
	stored, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Items = append([]model.OrderItem(nil), items...)
	return nil
}

type fakeTransactionRepo struct {
	transactions []*model.Transaction
	createErr    error
}

func (r *fakeTransactionRepo) Create(ctx context.Context, tx *gorm.DB, transaction *model.Transaction) error {
	if r.createErr != nil {
		return r.createErr
	}
	if transaction.StripeSessionID != nil {
		for _, existing := range r.transactions {
			if existing.StripeSessionID != nil && *existing.StripeSessionID == *transaction.StripeSessionID {
				return gorm.ErrDuplicatedKey
			}
		}
	}
	stored := *transaction
	r.transactions = append(r.transactions, &stored)
	return nil
}

func (r *fakeTransactionRepo) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	for _, t := range r.transactions {
		if t.ID == id {
			copied := *t
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTransactionRepo) FindBySessionID(ctx context.Context, sessionID string) (*model.Transaction, error) {
	for _, t := range r.transactions {
		if t.StripeSessionID != nil && *t.StripeSessionID == sessionID {
			copied := *t
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTransactionRepo) FindByOrderID(ctx context.Context, orderID string) ([]*model.Transaction, error) {
	var out []*model.Transaction
	for _, t := range r.transactions {
		if t.OrderID == orderID {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, status model.TransactionStatus) error {
	for _, t := range r.transactions {
		if t.ID == id {
			t.Status = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakePurchaseRepo struct {
	records   []*model.PurchaseRelationship
	createErr error
}

func (r *fakePurchaseRepo) Create(ctx context.Context, tx *gorm.DB, record *model.PurchaseRelationship) error {
	if r.createErr != nil {
		return r.createErr
	}
	stored := *record
	r.records = append(r.records, &stored)
	return nil
}

func (r *fakePurchaseRepo) FindByTransactionID(ctx context.Context, transactionID string) (*model.PurchaseRelationship, error) {
	for _, record := range r.records {
		if record.TransactionID == transactionID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePurchaseRepo) FindByDateRange(ctx context.Context, from, to time.Time) ([]*model.PurchaseRelationship, error) {
	return append([]*model.PurchaseRelationship(nil), r.records...), nil
}

type stockCall struct {
	productID string
	quantity  int
}

type fakeCatalogClient struct {
	cart         *model.Cart
	cartErr      error
	availability map[string]bool
	availErr     error
	reduceErr    error
	reduceCalls  []stockCall
	clearCalls   int
	clearErr     error
	productNames map[string]string
}

func (c *fakeCatalogClient) GetUserCart(ctx context.Context, bearerToken string) (*model.Cart, error) {
	if c.cartErr != nil {
		return nil, c.cartErr
	}
	return c.cart, nil
}

func (c *fakeCatalogClient) ClearCart(ctx context.Context, bearerToken string) error {
	c.clearCalls++
	return c.clearErr
}

func (c *fakeCatalogClient) CheckAvailability(ctx context.Context, bearerToken, productID string, quantity int) (bool, error) {
	if c.availErr != nil {
		return false, c.availErr
	}
	available, ok := c.availability[productID]
	if !ok {
		return true, nil
	}
	return available, nil
}

func (c *fakeCatalogClient) ReduceStock(ctx context.Context, bearerToken, productID string, quantity int) error {
	c.reduceCalls = append(c.reduceCalls, stockCall{productID: productID, quantity: quantity})
	return c.reduceErr
}

func (c *fakeCatalogClient) GetProductName(ctx context.Context, productID string) (string, error) {
	if name, ok := c.productNames[productID]; ok {
		return name, nil
	}
	return productID, nil
}

type fakeStripeClient struct {
	session     *client.CheckoutSession
	sessionErr  error
	created     *client.CheckoutSession
	createErr   error
	createCalls int
	refund      *client.Refund
	refundErr   error
	refundCalls int
}

func (c *fakeStripeClient) CreateCheckoutSession(ctx context.Context, items []model.OrderItem, meta client.SessionMetadata) (*client.CheckoutSession, error) {
	c.createCalls++
	if c.createErr != nil {
		return nil, c.createErr
	}
	if c.created != nil {
		session := *c.created
		session.Metadata = meta
		return &session, nil
	}
	return &client.CheckoutSession{ID: "cs_test", URL: "https://stripe.test/cs_test", Metadata: meta}, nil
}

func (c *fakeStripeClient) RetrieveSession(ctx context.Context, sessionID string) (*client.CheckoutSession, error) {
	if c.sessionErr != nil {
		return nil, c.sessionErr
	}
	if c.session == nil {
		return nil, errors.New("no such session")
	}
	session := *c.session
	return &session, nil
}

func (c *fakeStripeClient) CreateRefund(ctx context.Context, paymentIntentID string) (*client.Refund, error) {
	c.refundCalls++
	if c.refundErr != nil {
		return nil, c.refundErr
	}
	if c.refund != nil {
		refund := *c.refund
		return &refund, nil
	}
	return &client.Refund{ID: "re_test", Status: "succeeded"}, nil
}
