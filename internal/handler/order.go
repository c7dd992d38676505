package handler

import (
	"net/http"

	"datamart-checkout/internal/middleware"
	"datamart-checkout/internal/model"
	"datamart-checkout/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	identity, ok := middleware.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), *identity, c.Param("orderId"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) ListOrders(c echo.Context) error {
	identity, ok := middleware.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	orders, err := h.orderService.ListOrders(c.Request().Context(), *identity)
	if err != nil {
		return httpError(err)
	}
	if len(orders) == 0 {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	identity, ok := middleware.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	next := model.OrderStatus(c.QueryParam("status"))
	if !next.Valid() {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown order status")
	}

	order, err := h.orderService.UpdateStatus(c.Request().Context(), *identity, c.Param("orderId"), next)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	identity, ok := middleware.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	order, err := h.orderService.CancelOrder(c.Request().Context(), *identity, c.Param("orderId"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) RefundOrder(c echo.Context) error {
	identity, ok := middleware.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	transaction, err := h.orderService.RefundOrder(c.Request().Context(), *identity, c.Param("orderId"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, transaction)
}
