package handler

import (
	"fmt"
	"net/http"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// StockHandler serves the stock figures and alert lists
type StockHandler struct {
	stock  *service.StockService
	alerts *service.AlertService
	logger *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stock *service.StockService, alerts *service.AlertService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		stock:  stock,
		alerts: alerts,
		logger: log,
	}
}

// Search looks a product up by barcode or free text
func (h *StockHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	result, err := h.stock.Lookup(r.Context(), q.Get("search"), q.Get("barcode"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Stock returns the product's current quantity and value
func (h *StockHandler) Stock(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	snap, err := h.stock.Snapshot(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, snap)
}

// QuickData returns the product card used when adding a sale line
func (h *StockHandler) QuickData(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	data, err := h.stock.QuickData(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, data)
}

// Price returns the lowest selling price, null when nothing is saleable
func (h *StockHandler) Price(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	price, err := h.stock.LowestActivePrice(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, struct {
		SellingPrice decimal.NullDecimal `json:"selling_price"`
	}{price})
}

// Batches lists saleable batches, soonest expiry first
func (h *StockHandler) Batches(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	limit, err := httputil.PositiveIntQuery(r, "limit", service.LookupBatchLimit, maxLimit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batches, err := h.stock.FEFOBatches(r.Context(), id, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batches)
}

// LowStockAlerts lists products at or below their minimum
func (h *StockHandler) LowStockAlerts(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.PositiveIntQuery(r, "limit", 0, maxLimit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	alerts, err := h.alerts.LowStockAlerts(r.Context(), limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alerts)
}

// ExpiryAlerts lists batches expiring within ?days=
func (h *StockHandler) ExpiryAlerts(w http.ResponseWriter, r *http.Request) {
	days, err := httputil.PositiveIntQuery(r, "days", 0, 0)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if days > service.MaxLookaheadDays {
		httputil.Error(w, errors.Validation(map[string]string{
			"days": fmt.Sprintf("must be at most %d", service.MaxLookaheadDays),
		}))
		return
	}
	limit, err := httputil.PositiveIntQuery(r, "limit", 0, maxLimit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	alerts, err := h.alerts.ExpiryAlerts(r.Context(), days, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alerts)
}
