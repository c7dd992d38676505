package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"datamart-checkout/internal/config"
	"datamart-checkout/internal/model"

	"github.com/shopspring/decimal"
)

// StripeClient drives the hosted Checkout Sessions flow. Session creation
// and retrieval are never retried here; a duplicated create could open a
// second charge against the same order.
type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, items []model.OrderItem, meta SessionMetadata) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
	CreateRefund(ctx context.Context, paymentIntentID string) (*Refund, error)
}

// SessionMetadata travels opaquely through Stripe and links the session
// back to our order and user on confirmation.
type SessionMetadata struct {
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

type CheckoutSession struct {
	ID              string          `json:"id"`
	URL             string          `json:"url"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentIntentID string          `json:"payment_intent"`
	AmountTotal     int64           `json:"amount_total"`
	Currency        string          `json:"currency"`
	Metadata        SessionMetadata `json:"metadata"`
}

// Paid reports whether Stripe considers the session settled.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == "paid"
}

type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type stripeClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	secretKey  string
	successURL string
	cancelURL  string
}

func NewStripeClient(stripeCfg *config.Stripe) StripeClient {
	return &stripeClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: stripeCfg.BaseApiURL,
		secretKey:  stripeCfg.SecretKey,
		successURL: stripeCfg.SuccessURL,
		cancelURL:  stripeCfg.CancelURL,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, items []model.OrderItem, meta SessionMetadata) (*CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", c.successURL+"?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", c.cancelURL)
	form.Set("metadata[orderId]", meta.OrderID)
	form.Set("metadata[userId]", meta.UserID)

	for i, item := range items {
		prefix := fmt.Sprintf("line_items[%d]", i)
		form.Set(prefix+"[quantity]", strconv.Itoa(item.Quantity))
		form.Set(prefix+"[price_data][currency]", "usd")
		form.Set(prefix+"[price_data][unit_amount]", strconv.FormatInt(minorUnits(item.UnitPrice), 10))
		form.Set(prefix+"[price_data][product_data][name]", item.Name)
	}

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (c *stripeClientImpl) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var session CheckoutSession
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}

	return &session, nil
}

func (c *stripeClientImpl) CreateRefund(ctx context.Context, paymentIntentID string) (*Refund, error) {
	form := url.Values{}
	form.Set("payment_intent", paymentIntentID)

	var refund Refund
	if err := c.do(ctx, http.MethodPost, "/v1/refunds", form, &refund); err != nil {
		return nil, err
	}

	return &refund, nil
}

func (c *stripeClientImpl) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseApiURL+path, body)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("stripe request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("stripe error %d: %s", resp.StatusCode, string(b))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode stripe response: %w", err)
	}

	return nil
}

// minorUnits converts a decimal amount to the smallest currency unit
// (cents for USD), which is how Stripe prices line items.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
