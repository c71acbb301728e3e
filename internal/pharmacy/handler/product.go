package handler

import (
	"net/http"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// ProductHandler handles catalog endpoints
type ProductHandler struct {
	catalog *service.CatalogService
	logger  *logger.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog *service.CatalogService, log *logger.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  log,
	}
}

// List lists products with pagination
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.PositiveIntQuery(r, "page", 1, 0)
	if err != nil {
		httputil.Error(w, err)
		return
	}
	perPage, err := httputil.PositiveIntQuery(r, "per_page", service.DefaultPerPage, maxLimit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	filter := domain.ProductFilter{
		Search:  r.URL.Query().Get("search"),
		Status:  r.URL.Query().Get("status"),
		Page:    page,
		PerPage: perPage,
	}

	products, total, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, products, httputil.NewMeta(page, perPage, total))
}

// Create creates a product
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.ProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, product)
}

// Get returns a product with its stock
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Update updates a product
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req service.ProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	product, err := h.catalog.UpdateProduct(r.Context(), id, &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, product)
}

// Delete deletes a product without stock
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
