package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"datamart-checkout/internal/config"
	"datamart-checkout/internal/model"
)

var (
	// ErrCartNotFound means the product service has no cart for the user.
	ErrCartNotFound = errors.New("catalog: cart not found")
	// ErrInsufficientStock means a stock decrement was rejected.
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

const (
	stockRetryAttempts = 3
	stockRetryBackoff  = time.Second
)

// CatalogClient covers the two gateways owned by the product service: the
// user's cart and product availability/stock. Availability checks never
// reserve stock; the only mutation is ReduceStock.
type CatalogClient interface {
	GetUserCart(ctx context.Context, bearerToken string) (*model.Cart, error)
	ClearCart(ctx context.Context, bearerToken string) error
	CheckAvailability(ctx context.Context, bearerToken, productID string, quantity int) (bool, error)
	ReduceStock(ctx context.Context, bearerToken, productID string, quantity int) error
	GetProductName(ctx context.Context, productID string) (string, error)
}

type catalogClientImpl struct {
	httpClient    *http.Client
	baseApiURL    string
	retryAttempts int
	retryBackoff  time.Duration
}

func NewCatalogClient(servicesCfg *config.Services) CatalogClient {
	return &catalogClientImpl{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseApiURL:    servicesCfg.CatalogURL,
		retryAttempts: stockRetryAttempts,
		retryBackoff:  stockRetryBackoff,
	}
}

func (c *catalogClientImpl) GetUserCart(ctx context.Context, bearerToken string) (*model.Cart, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseApiURL+"/cart", nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrCartNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cart service error %d: %s", resp.StatusCode, string(b))
	}

	var cart model.Cart
	if err := json.NewDecoder(resp.Body).Decode(&cart); err != nil {
		return nil, fmt.Errorf("decode cart response: %w", err)
	}

	return &cart, nil
}

func (c *catalogClientImpl) ClearCart(ctx context.Context, bearerToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseApiURL+"/cart/clear", nil)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clear cart request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("clear cart error %d", resp.StatusCode)
	}

	return nil
}

// CheckAvailability asks the product service whether the requested quantity
// is purchasable. Retried a bounded number of times on transport failure;
// a definitive "not available" answer is returned as-is.
func (c *catalogClientImpl) CheckAvailability(ctx context.Context, bearerToken, productID string, quantity int) (bool, error) {
	var available bool
	err := withRetry(ctx, c.retryAttempts, c.retryBackoff, func() error {
		body, err := json.Marshal([]map[string]any{
			{"productId": productID, "quantity": quantity},
		})
		if err != nil {
			return fmt.Errorf("marshal availability payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			c.baseApiURL+"/products/validate-availability", bytes.NewBuffer(body))
		if err != nil {
			return fmt.Errorf("http new request: %w", err)
		}
		req.Header.Set("Authorization", bearerToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("availability request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("availability check error %d", resp.StatusCode)
		}

		var result map[string]bool
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("decode availability response: %w", err)
		}

		available = result[productID]
		return nil
	})
	if err != nil {
		return false, err
	}

	return available, nil
}

// ReduceStock decrements the product's stock after a confirmed payment.
// Retried on transport failure; an InsufficientStock rejection is final.
func (c *catalogClientImpl) ReduceStock(ctx context.Context, bearerToken, productID string, quantity int) error {
	return withRetry(ctx, c.retryAttempts, c.retryBackoff, func() error {
		body, err := json.Marshal(map[string]any{"quantity": quantity})
		if err != nil {
			return fmt.Errorf("marshal stock payload: %w", err)
		}

		url := fmt.Sprintf("%s/products/%s/reduce-stock", c.baseApiURL, productID)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
		if err != nil {
			return fmt.Errorf("http new request: %w", err)
		}
		req.Header.Set("Authorization", bearerToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("reduce stock request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusConflict {
			return ErrInsufficientStock
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("reduce stock error %d", resp.StatusCode)
		}

		return nil
	})
}

func (c *catalogClientImpl) GetProductName(ctx context.Context, productID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseApiURL+"/products/"+productID, nil)
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("product request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("product lookup error %d", resp.StatusCode)
	}

	var product struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return "", fmt.Errorf("decode product response: %w", err)
	}

	return product.Name, nil
}

// withRetry runs fn up to attempts times with a linear backoff between
// tries. A final rejection (ErrInsufficientStock) stops immediately.
func withRetry(ctx context.Context, attempts int, backoff time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if errors.Is(err, ErrInsufficientStock) {
			return err
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
