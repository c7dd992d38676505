package handler

import (
	"net/http"
	"time"

	"datamart-checkout/internal/repository"

	"github.com/labstack/echo/v4"
)

// AnalyticsHandler exposes the co-purchase records to downstream consumers.
// These reads live outside the order engine.
type AnalyticsHandler struct {
	purchaseRepo repository.PurchaseRelationshipRepository
}

func NewAnalyticsHandler(purchaseRepo repository.PurchaseRelationshipRepository) *AnalyticsHandler {
	return &AnalyticsHandler{
		purchaseRepo: purchaseRepo,
	}
}

func (h *AnalyticsHandler) GetPurchase(c echo.Context) error {
	record, err := h.purchaseRepo.FindByTransactionID(c.Request().Context(), c.Param("transactionId"))
	if err != nil {
		if repository.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "purchase record not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "storage error")
	}

	return c.JSON(http.StatusOK, record)
}

func (h *AnalyticsHandler) ListPurchases(c echo.Context) error {
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
	}

	records, err := h.purchaseRepo.FindByDateRange(c.Request().Context(), from, to)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "storage error")
	}

	return c.JSON(http.StatusOK, records)
}
