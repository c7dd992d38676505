package handler

import (
	"errors"
	"net/http"

	"datamart-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

// httpError maps the engine's error taxonomy onto HTTP statuses. Client
// mistakes (validation, ownership, illegal transitions) are 4xx; provider
// and store failures are 5xx.
func httpError(err error) *echo.HTTPError {
	var (
		unavailable   *service.ProductUnavailableError
		badTransition *service.InvalidStatusTransitionError
		notCancel     *service.NotCancellableError
		provider      *service.PaymentProviderError
		store         *service.StoreError
	)

	switch {
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrOwnershipMismatch):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrOrderNotPayable):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &unavailable):
		return echo.NewHTTPError(http.StatusConflict, unavailable.Error())
	case errors.As(err, &badTransition):
		return echo.NewHTTPError(http.StatusConflict, badTransition.Error())
	case errors.As(err, &notCancel):
		return echo.NewHTTPError(http.StatusConflict, notCancel.Error())
	case errors.As(err, &provider):
		return echo.NewHTTPError(http.StatusBadGateway, "payment provider error")
	case errors.As(err, &store):
		return echo.NewHTTPError(http.StatusInternalServerError, "storage error")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func bearerToken(c echo.Context) (string, error) {
	token := c.Request().Header.Get("Authorization")
	if token == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing Authorization header")
	}
	return token, nil
}
