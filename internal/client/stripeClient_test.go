package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"datamart-checkout/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStripeClient(baseURL string) *stripeClientImpl {
	return &stripeClientImpl{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseApiURL: baseURL,
		secretKey:  "sk_test_123",
		successURL: "https://shop.test/success",
		cancelURL:  "https://shop.test/cancel",
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	var gotForm url.Values
	var gotAuth, gotContentType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotForm = r.PostForm

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "cs_abc",
			"url":            "https://checkout.stripe.com/pay/cs_abc",
			"payment_status": "unpaid",
			"metadata":       map[string]string{"orderId": "O1", "userId": "U1"},
		})
	}))
	defer server.Close()

	c := newTestStripeClient(server.URL)
	items := []model.OrderItem{
		{ProductID: "P1", Name: "Widget", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: "P2", Name: "Gadget", UnitPrice: decimal.RequireFromString("3.99"), Quantity: 1},
	}

	session, err := c.CreateCheckoutSession(context.Background(), items,
		SessionMetadata{OrderID: "O1", UserID: "U1"})
	require.NoError(t, err)

	assert.Equal(t, "cs_abc", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_abc", session.URL)
	assert.False(t, session.Paid())
	assert.Equal(t, "O1", session.Metadata.OrderID)

	assert.Equal(t, "Bearer sk_test_123", gotAuth)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)

	assert.Equal(t, "payment", gotForm.Get("mode"))
	assert.Equal(t, "https://shop.test/success?session_id={CHECKOUT_SESSION_ID}", gotForm.Get("success_url"))
	assert.Equal(t, "https://shop.test/cancel", gotForm.Get("cancel_url"))
	assert.Equal(t, "O1", gotForm.Get("metadata[orderId]"))
	assert.Equal(t, "U1", gotForm.Get("metadata[userId]"))

	assert.Equal(t, "2", gotForm.Get("line_items[0][quantity]"))
	assert.Equal(t, "usd", gotForm.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "1000", gotForm.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "Widget", gotForm.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "399", gotForm.Get("line_items[1][price_data][unit_amount]"))
}

func TestRetrieveSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/checkout/sessions/cs_abc", r.URL.Path)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":             "cs_abc",
			"payment_status": "paid",
			"payment_intent": "pi_abc",
			"amount_total":   2399,
			"currency":       "usd",
			"metadata":       map[string]string{"orderId": "O1", "userId": "U1"},
		})
	}))
	defer server.Close()

	c := newTestStripeClient(server.URL)
	session, err := c.RetrieveSession(context.Background(), "cs_abc")
	require.NoError(t, err)

	assert.True(t, session.Paid())
	assert.Equal(t, "pi_abc", session.PaymentIntentID)
	assert.Equal(t, int64(2399), session.AmountTotal)
	assert.Equal(t, "U1", session.Metadata.UserID)
}

func TestRetrieveSessionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"No such checkout session"}}`))
	}))
	defer server.Close()

	c := newTestStripeClient(server.URL)
	_, err := c.RetrieveSession(context.Background(), "cs_missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stripe error 404")
}

func TestCreateRefund(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/refunds", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "pi_abc", r.PostForm.Get("payment_intent"))

		_ = json.NewEncoder(w).Encode(map[string]string{"id": "re_abc", "status": "succeeded"})
	}))
	defer server.Close()

	c := newTestStripeClient(server.URL)
	refund, err := c.CreateRefund(context.Background(), "pi_abc")
	require.NoError(t, err)
	assert.Equal(t, "re_abc", refund.ID)
	assert.Equal(t, "succeeded", refund.Status)
}

func TestMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"10.00": 1000,
		"3.99":  399,
		"0.01":  1,
		"19.90": 1990,
		"100":   10000,
	}
	for in, want := range cases {
		assert.Equal(t, want, minorUnits(decimal.RequireFromString(in)), in)
	}
}
