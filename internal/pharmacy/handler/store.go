package handler

import (
	"net/http"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// StoreHandler handles store endpoints
type StoreHandler struct {
	stores *service.StoreService
	logger *logger.Logger
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(stores *service.StoreService, log *logger.Logger) *StoreHandler {
	return &StoreHandler{
		stores: stores,
		logger: log,
	}
}

// List lists all stores
func (h *StoreHandler) List(w http.ResponseWriter, r *http.Request) {
	stores, err := h.stores.ListStores(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stores)
}

// Create creates a store
func (h *StoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.StoreRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	store, err := h.stores.CreateStore(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, store)
}

// Get gets a store by ID
func (h *StoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	store, err := h.stores.GetStore(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, store)
}
