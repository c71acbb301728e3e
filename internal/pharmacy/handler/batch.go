package handler

import (
	"net/http"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// BatchHandler handles stock receipt endpoints
type BatchHandler struct {
	receipts *service.ReceiptService
	logger   *logger.Logger
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(receipts *service.ReceiptService, log *logger.Logger) *BatchHandler {
	return &BatchHandler{
		receipts: receipts,
		logger:   log,
	}
}

// Receive books a new batch of the product into a store
func (h *BatchHandler) Receive(w http.ResponseWriter, r *http.Request) {
	productID, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req service.ReceiveBatchRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.receipts.ReceiveBatch(r.Context(), productID, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, batch)
}

// Get gets a batch by ID
func (h *BatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	batch, err := h.receipts.GetBatch(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, batch)
}
