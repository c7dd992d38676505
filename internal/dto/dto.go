package dto

import "github.com/shopspring/decimal"

type CheckoutResponse struct {
	SessionID   string `json:"stripeSessionId"`
	OrderID     string `json:"orderId"`
	CheckoutURL string `json:"checkoutUrl,omitempty"`
}

type CreateSessionRequest struct {
	OrderID string `json:"orderId"`
}

type PaymentConfirmation struct {
	TransactionID string          `json:"transactionId,omitempty"`
	Status        string          `json:"status"`
	OrderID       string          `json:"orderId,omitempty"`
	Amount        decimal.Decimal `json:"totalAmount,omitempty"`
	Message       string          `json:"message"`
}

const (
	ConfirmationSuccess = "success"
	ConfirmationPending = "pending"
	ConfirmationFailed  = "failed"
)

type SessionStatus struct {
	Status  string `json:"status"`
	OrderID string `json:"orderId,omitempty"`
}
