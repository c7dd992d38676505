package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cart is the wire shape returned by the product service. It is owned by
// that service; the engine only reads it to snapshot an order.
type Cart struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Items         []CartItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	LoyaltyPoints int             `json:"loyaltyPoints"`
	LastModified  time.Time       `json:"lastModified"`
}

type CartItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     string          `json:"image,omitempty"`
	Discount  int             `json:"discount"`
	BrandName string          `json:"brandName,omitempty"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}
