package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionPending    TransactionStatus = "PENDING"
	TransactionProcessing TransactionStatus = "PROCESSING"
	TransactionSuccess    TransactionStatus = "SUCCESS"
	TransactionFailed     TransactionStatus = "FAILED"
	TransactionRefunded   TransactionStatus = "REFUNDED"
	TransactionCancelled  TransactionStatus = "CANCELLED"
	TransactionDisputed   TransactionStatus = "DISPUTED"
)

type TransactionType string

const (
	TransactionTypePayment TransactionType = "PAYMENT"
	TransactionTypeRefund  TransactionType = "REFUND"
)

// Transaction is one payment or refund attempt against an order. Rows are
// never deleted; terminal statuses are retained for audit.
//
// StripeSessionID carries a unique index: it is the idempotency key that
// lets the store itself reject a second SUCCESS payment for the same
// checkout session, even when two confirmations race. Refund rows leave it
// nil so multiple refund attempts do not collide.
type Transaction struct {
	ID      string            `gorm:"primaryKey;size:36;not null" json:"id"`
	OrderID string            `gorm:"size:36;index;not null" json:"orderId"`
	UserID  string            `gorm:"size:64;index;not null" json:"userId"`
	Amount  decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"amount"`
	Status  TransactionStatus `gorm:"size:32;index;not null" json:"status"`
	Type    TransactionType   `gorm:"size:16;not null" json:"type"`

	StripeSessionID       *string `gorm:"size:128;uniqueIndex" json:"stripeSessionId,omitempty"`
	StripePaymentIntentID string  `gorm:"size:128" json:"stripePaymentIntentId,omitempty"`
	StripeChargeID        string  `gorm:"size:128" json:"stripeChargeId,omitempty"`

	Currency      string `gorm:"size:8" json:"currency,omitempty"`
	PaymentMethod string `gorm:"size:32" json:"paymentMethod,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}
