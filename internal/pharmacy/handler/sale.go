package handler

import (
	"net/http"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// SaleHandler handles sale endpoints
type SaleHandler struct {
	sales  *service.SaleService
	logger *logger.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(sales *service.SaleService, log *logger.Logger) *SaleHandler {
	return &SaleHandler{
		sales:  sales,
		logger: log,
	}
}

// Process records a sale
func (h *SaleHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req service.SaleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	sale, err := h.sales.ProcessSale(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, sale)
}

// Get gets a sale with its items
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	sale, err := h.sales.GetSale(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, sale)
}

// DailySummary totals the sales of ?date=YYYY-MM-DD, today when absent
func (h *SaleHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	day, err := dateQuery(r, "date")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	if day.IsZero() {
		day = h.sales.Today()
	}

	summary, err := h.sales.DailySummary(r.Context(), day)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, summary)
}

// TopProducts ranks products by units sold between ?from= and ?to=
func (h *SaleHandler) TopProducts(w http.ResponseWriter, r *http.Request) {
	from, err := dateQuery(r, "from")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	to, err := dateQuery(r, "to")
	if err != nil {
		httputil.Error(w, err)
		return
	}
	limit, err := httputil.PositiveIntQuery(r, "limit", 0, maxLimit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	top, err := h.sales.TopProducts(r.Context(), from, to, limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, top)
}
