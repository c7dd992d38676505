package middleware

import (
	"net/http"

	"datamart-checkout/internal/client"
	"datamart-checkout/internal/model"

	"github.com/labstack/echo/v4"
)

const identityKey = "identity"

// Authenticate resolves the request's bearer token against the auth service
// and stores the caller's identity on the echo context. Requests without a
// resolvable identity never reach the handler.
func Authenticate(authClient client.AuthClient) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(echo.HeaderAuthorization)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing Authorization header")
			}

			identity, err := authClient.ResolveIdentity(c.Request().Context(), token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication failed")
			}

			c.Set(identityKey, identity)
			return next(c)
		}
	}
}

// Identity returns the caller identity stored by Authenticate.
func Identity(c echo.Context) (*model.Identity, bool) {
	identity, ok := c.Get(identityKey).(*model.Identity)
	return identity, ok
}
