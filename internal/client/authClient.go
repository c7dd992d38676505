package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"datamart-checkout/internal/config"
	"datamart-checkout/internal/model"
)

// ErrUnauthenticated is returned when the auth service rejects the bearer
// token or resolves it to no user.
var ErrUnauthenticated = errors.New("auth: token rejected")

type AuthClient interface {
	ResolveIdentity(ctx context.Context, bearerToken string) (*model.Identity, error)
}

type authClientImpl struct {
	httpClient *http.Client
	baseApiURL string
}

func NewAuthClient(servicesCfg *config.Services) AuthClient {
	return &authClientImpl{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseApiURL: servicesCfg.AuthURL,
	}
}

func (c *authClientImpl) ResolveIdentity(ctx context.Context, bearerToken string) (*model.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseApiURL+"/api/v1/auth/current-user", nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", bearerToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrUnauthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("auth service error %d", resp.StatusCode)
	}

	var result struct {
		UserID string `json:"userId"`
		Role   string `json:"role"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if result.UserID == "" {
		return nil, ErrUnauthenticated
	}

	role := model.Role(result.Role)
	if role == "" {
		role = model.RoleCustomer
	}

	return &model.Identity{
		UserID: result.UserID,
		Role:   role,
	}, nil
}
