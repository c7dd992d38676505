package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	// Pre-payment
	StatusCart              OrderStatus = "CART"
	StatusCheckoutInitiated OrderStatus = "CHECKOUT_INITIATED"

	// Payment and shipping
	StatusPaid      OrderStatus = "PAID"
	StatusShipped   OrderStatus = "SHIPPED"
	StatusDelivered OrderStatus = "DELIVERED"

	// Terminal
	StatusCancelled OrderStatus = "CANCELLED"
	StatusRefunded  OrderStatus = "REFUNDED"
	StatusReturned  OrderStatus = "RETURNED"
)

// statusTransitions is the single source of truth for legal order status
// changes. Terminal statuses have no outgoing edges.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusCart:              {StatusCheckoutInitiated},
	StatusCheckoutInitiated: {StatusPaid, StatusCancelled},
	StatusPaid:              {StatusShipped, StatusCancelled},
	StatusShipped:           {StatusDelivered, StatusReturned},
	StatusDelivered:         {StatusReturned, StatusRefunded},
	StatusCancelled:         {},
	StatusRefunded:          {},
	StatusReturned:          {},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Cancellable reports whether an order in this status may be cancelled.
// Re-cancelling an already cancelled order is allowed (idempotent cancel).
func (s OrderStatus) Cancellable() bool {
	switch s {
	case StatusCart, StatusCheckoutInitiated, StatusReturned, StatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

type Order struct {
	ID            string          `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID        string          `gorm:"size:64;index;not null" json:"userId"`
	Items         []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	LoyaltyPoints int             `json:"loyaltyPoints"`
	Status        OrderStatus     `gorm:"size:32;index;not null" json:"status"`

	// Payment linkage
	StripeSessionID    string            `gorm:"size:128;index" json:"stripeSessionId,omitempty"`
	PaymentStatus      TransactionStatus `gorm:"size:32" json:"paymentStatus,omitempty"`
	PaymentMethod      string            `gorm:"size:32" json:"paymentMethod,omitempty"`
	PaymentCompletedAt *time.Time        `json:"paymentCompletedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OrderItem is the line item snapshot taken at order time. Prices and
// discounts are copied from the cart so later catalog changes never alter
// historical orders.
type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"-"`
	OrderID   string          `gorm:"size:36;index;not null" json:"-"`
	ProductID string          `gorm:"size:64;index;not null" json:"productId"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	Discount  int             `json:"discount"`
	BrandName string          `gorm:"size:128" json:"brandName,omitempty"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	CreatedAt time.Time       `json:"-"`
}
