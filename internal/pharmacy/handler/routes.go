package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/pharmastock/pharmastock-backend/pkg/permissions"
)

// Handlers groups every HTTP handler of the service
type Handlers struct {
	Auth      *AuthHandler
	Stock     *StockHandler
	Products  *ProductHandler
	Batches   *BatchHandler
	Stores    *StoreHandler
	Sales     *SaleHandler
	Dashboard *DashboardHandler
}

// Mount registers the /api/v1 routes on r
func (h *Handlers) Mount(r chi.Router, authn *Authenticator) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/refresh", h.Auth.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authn.Authenticate)
			can := authn.RequirePermission

			r.Route("/products", func(r chi.Router) {
				// static paths before /{id}
				r.With(can(permissions.ProductsRead)).Get("/search", h.Stock.Search)
				r.With(can(permissions.StockRead)).Get("/low-stock-alerts", h.Stock.LowStockAlerts)
				r.With(can(permissions.StockRead)).Get("/expiry-alerts", h.Stock.ExpiryAlerts)

				r.With(can(permissions.ProductsRead)).Get("/", h.Products.List)
				r.With(can(permissions.ProductsWrite)).Post("/", h.Products.Create)
				r.With(can(permissions.ProductsRead)).Get("/{id}", h.Products.Get)
				r.With(can(permissions.ProductsWrite)).Put("/{id}", h.Products.Update)
				r.With(can(permissions.ProductsDelete)).Delete("/{id}", h.Products.Delete)

				r.With(can(permissions.StockRead)).Get("/{id}/stock", h.Stock.Stock)
				r.With(can(permissions.StockRead)).Get("/{id}/price", h.Stock.Price)
				r.With(can(permissions.ProductsRead)).Get("/{id}/quick-data", h.Stock.QuickData)
				r.With(can(permissions.StockRead)).Get("/{id}/batches", h.Stock.Batches)
				r.With(can(permissions.StockReceive)).Post("/{id}/batches", h.Batches.Receive)
			})

			r.With(can(permissions.StockRead)).Get("/batches/{id}", h.Batches.Get)

			r.Route("/stores", func(r chi.Router) {
				r.With(can(permissions.StoresRead)).Get("/", h.Stores.List)
				r.With(can(permissions.StoresWrite)).Post("/", h.Stores.Create)
				r.With(can(permissions.StoresRead)).Get("/{id}", h.Stores.Get)
			})

			r.Route("/sales", func(r chi.Router) {
				r.With(can(permissions.SalesCreate)).Post("/", h.Sales.Process)
				r.With(can(permissions.SalesRead)).Get("/daily-summary", h.Sales.DailySummary)
				r.With(can(permissions.SalesRead)).Get("/top-products", h.Sales.TopProducts)
				r.With(can(permissions.SalesRead)).Get("/{id}", h.Sales.Get)
			})

			r.With(can(permissions.DashboardRead)).Get("/dashboard", h.Dashboard.Get)
		})
	})
}
