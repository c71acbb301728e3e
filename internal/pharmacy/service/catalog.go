package service

import (
	"context"
	"fmt"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// DefaultPerPage is the catalog page size when none is requested
const DefaultPerPage = 25

// ProductRequest is the body of product create and update calls.
// ProductCode is ignored on update.
type ProductRequest struct {
	ProductCode       string  `json:"product_code" validate:"required,max=50"`
	ProductName       string  `json:"product_name" validate:"required,max=200"`
	GenericName       *string `json:"generic_name" validate:"omitempty,max=200"`
	Barcode           *string `json:"barcode" validate:"omitempty,max=100"`
	MinStock          *int    `json:"min_stock" validate:"required,gte=0"`
	MaxStock          *int    `json:"max_stock" validate:"omitempty,gte=0"`
	ReorderLevel      int     `json:"reorder_level" validate:"gte=0"`
	Status            string  `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE DISCONTINUED"`
	UnitName          *string `json:"unit_name" validate:"omitempty,max=50"`
	UnitSymbol        *string `json:"unit_symbol" validate:"omitempty,max=20"`
	Strength          *string `json:"strength" validate:"omitempty,max=50"`
	DosageForm        *string `json:"dosage_form" validate:"omitempty,max=50"`
	StorageConditions *string `json:"storage_conditions" validate:"omitempty,max=200"`
}

// ProductDetail is a product with its stock snapshot
type ProductDetail struct {
	*domain.Product
	Stock domain.StockSnapshot `json:"stock"`
}

// CatalogService manages the product catalog
type CatalogService struct {
	db       TxRunner
	products ProductStore
	batches  BatchStore
	stock    *StockService
	logger   *logger.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db TxRunner, products ProductStore, batches BatchStore, stock *StockService, log *logger.Logger) *CatalogService {
	return &CatalogService{
		db:       db,
		products: products,
		batches:  batches,
		stock:    stock,
		logger:   log.WithComponent("catalog"),
	}
}

// ListProducts returns a page of products by name and the total match count
func (s *CatalogService) ListProducts(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.Status != "" && !validProductStatus(f.Status) {
		return nil, 0, errors.Validation(map[string]string{"status": "must be one of ACTIVE INACTIVE DISCONTINUED"})
	}
	return s.products.List(ctx, f)
}

// CreateProduct adds a product. Products created without a barcode get
// "P" followed by their zero-padded id.
func (s *CatalogService) CreateProduct(ctx context.Context, req *ProductRequest) (*domain.Product, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	p := &domain.Product{ProductCode: req.ProductCode}
	applyProductRequest(p, req)

	err := s.db.WithTx(ctx, func(ctx context.Context) error {
		if err := s.products.Create(ctx, p); err != nil {
			return err
		}
		if p.Barcode != nil {
			return nil
		}
		barcode := GeneratedBarcode(p.ID)
		if err := s.products.SetBarcode(ctx, p.ID, barcode); err != nil {
			return err
		}
		p.Barcode = &barcode
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("product_id", p.ID).Str("product_code", p.ProductCode).Msg("product created")
	return p, nil
}

// GeneratedBarcode is the barcode assigned to a product created without one
func GeneratedBarcode(id int64) string {
	return fmt.Sprintf("P%09d", id)
}

// GetProduct returns a product and its stock snapshot
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*ProductDetail, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, err := s.stock.snapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ProductDetail{Product: p, Stock: snap}, nil
}

// UpdateProduct rewrites a product's mutable fields
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, req *ProductRequest) (*domain.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// the code is immutable, validate against the stored one
	req.ProductCode = p.ProductCode
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	applyProductRequest(p, req)
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product that holds no stock
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.products.GetByID(ctx, id); err != nil {
		return err
	}

	hasStock, err := s.batches.HasStock(ctx, id)
	if err != nil {
		return err
	}
	if hasStock {
		return errors.Conflict("cannot delete a product with stock on hand")
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("product_id", id).Msg("product deleted")
	return nil
}

func applyProductRequest(p *domain.Product, req *ProductRequest) {
	p.ProductName = req.ProductName
	p.GenericName = req.GenericName
	p.Barcode = emptyToNil(req.Barcode)
	p.MinStock = *req.MinStock
	p.MaxStock = req.MaxStock
	p.ReorderLevel = req.ReorderLevel
	p.Status = req.Status
	if p.Status == "" {
		p.Status = domain.ProductActive
	}
	p.UnitName = req.UnitName
	p.UnitSymbol = req.UnitSymbol
	p.Strength = req.Strength
	p.DosageForm = req.DosageForm
	p.StorageConditions = req.StorageConditions
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func validProductStatus(status string) bool {
	switch status {
	case domain.ProductActive, domain.ProductInactive, domain.ProductDiscontinued:
		return true
	}
	return false
}
