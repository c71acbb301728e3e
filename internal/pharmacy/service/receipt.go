package service

import (
	"context"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/events"
	"github.com/pharmastock/pharmastock-backend/pkg/actor"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// ReceiveBatchRequest is the body of a stock receipt
type ReceiveBatchRequest struct {
	StoreID      int64           `json:"store_id" validate:"required,gt=0"`
	BatchNumber  string          `json:"batch_number" validate:"required,max=50"`
	ExpiryDate   string          `json:"expiry_date" validate:"required,datetime=2006-01-02"`
	ReceivedDate string          `json:"received_date" validate:"omitempty,datetime=2006-01-02"`
	Quantity     int             `json:"quantity" validate:"required,gt=0"`
	UnitCost     decimal.Decimal `json:"unit_cost" validate:"gte=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"gte=0"`
}

// ReceiptService books stock into stores
type ReceiptService struct {
	products  ProductStore
	stores    StoreDirectory
	batches   BatchStore
	publisher *events.PharmacyEventPublisher
	clock     Clock
	logger    *logger.Logger
}

// NewReceiptService creates a new receipt service
func NewReceiptService(
	products ProductStore,
	stores StoreDirectory,
	batches BatchStore,
	publisher *events.PharmacyEventPublisher,
	clock Clock,
	log *logger.Logger,
) *ReceiptService {
	return &ReceiptService{
		products:  products,
		stores:    stores,
		batches:   batches,
		publisher: publisher,
		clock:     clock,
		logger:    log.WithComponent("receipts"),
	}
}

// ReceiveBatch creates an ACTIVE batch of the product at the requested store
func (s *ReceiptService) ReceiveBatch(ctx context.Context, productID int64, req *ReceiveBatchRequest) (*domain.StockBatch, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	expiry, err := domain.ParseDate(req.ExpiryDate)
	if err != nil {
		return nil, errors.Validation(map[string]string{"expiry_date": err.Error()})
	}
	received := s.clock.Today()
	if req.ReceivedDate != "" {
		if received, err = domain.ParseDate(req.ReceivedDate); err != nil {
			return nil, errors.Validation(map[string]string{"received_date": err.Error()})
		}
	}
	if !expiry.After(received) {
		return nil, errors.Validation(map[string]string{"expiry_date": "must be after the received date"})
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	if _, err := s.stores.GetByID(ctx, req.StoreID); err != nil {
		return nil, err
	}

	b := &domain.StockBatch{
		ProductID:       productID,
		StoreID:         req.StoreID,
		BatchNumber:     req.BatchNumber,
		ExpiryDate:      expiry,
		ReceivedDate:    received,
		InitialQuantity: req.Quantity,
		CurrentQuantity: req.Quantity,
		UnitCost:        req.UnitCost,
		SellingPrice:    req.SellingPrice,
		Status:          domain.BatchActive,
	}
	if err := s.batches.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("batch_id", b.ID).
		Int64("product_id", productID).
		Int64("store_id", req.StoreID).
		Int("quantity", req.Quantity).
		Msg("stock received")

	s.publisher.PublishStockReceived(ctx, b, actor.IDFromContext(ctx))
	return b, nil
}

// ReceiveByCode resolves product and store codes, as carried by purchasing
// events, and receives the batch.
func (s *ReceiptService) ReceiveByCode(ctx context.Context, productCode, storeCode string, req *ReceiveBatchRequest) (*domain.StockBatch, error) {
	product, err := s.products.GetByCode(ctx, productCode)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.GetByCode(ctx, storeCode)
	if err != nil {
		return nil, err
	}
	req.StoreID = store.ID
	return s.ReceiveBatch(ctx, product.ID, req)
}

// GetBatch gets a batch by ID
func (s *ReceiptService) GetBatch(ctx context.Context, id int64) (*domain.StockBatch, error) {
	return s.batches.GetByID(ctx, id)
}
