package handler

import (
	"net/http"

	"datamart-checkout/internal/dto"
	"datamart-checkout/internal/middleware"
	"datamart-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// InitiateCheckout turns the caller's cart into a CHECKOUT_INITIATED order.
func (h *CheckoutHandler) InitiateCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := middleware.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	token, err := bearerToken(c)
	if err != nil {
		return err
	}

	order, err := h.checkoutService.InitiateCheckout(ctx, *identity, token)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, order)
}

func (h *CheckoutHandler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := middleware.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	token, err := bearerToken(c)
	if err != nil {
		return err
	}

	var req dto.CreateSessionRequest
	if err := c.Bind(&req); err != nil || req.OrderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing orderId")
	}

	resp, err := h.checkoutService.CreateSession(ctx, *identity, token, req.OrderID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *CheckoutHandler) ConfirmPayment(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := middleware.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	token, err := bearerToken(c)
	if err != nil {
		return err
	}

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing session id")
	}

	result, err := h.checkoutService.ConfirmPayment(ctx, *identity, token, sessionID)
	if err != nil {
		return httpError(err)
	}

	// A declined or still-pending payment is a normal outcome, not a client
	// error; the payload carries the status.
	return c.JSON(http.StatusOK, result)
}

func (h *CheckoutHandler) SessionStatus(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing session id")
	}

	status, err := h.checkoutService.SessionStatus(ctx, sessionID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, status)
}

func (h *CheckoutHandler) CancelPayment(c echo.Context) error {
	ctx := c.Request().Context()

	identity, ok := middleware.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	sessionID := c.Param("sessionId")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing session id")
	}

	order, err := h.checkoutService.CancelBySession(ctx, *identity, sessionID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, order)
}
