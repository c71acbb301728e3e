package service

import (
	"context"
	"iter"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// LookupBatchLimit is how many FEFO batches a product lookup returns
const LookupBatchLimit = 5

// StockService derives stock figures for one product from its batches.
// It never writes.
type StockService struct {
	products ProductStore
	batches  BatchStore
	logger   *logger.Logger
}

// NewStockService creates a new stock service
func NewStockService(products ProductStore, batches BatchStore, log *logger.Logger) *StockService {
	return &StockService{
		products: products,
		batches:  batches,
		logger:   log.WithComponent("stock"),
	}
}

// ProductLookup is the barcode/search answer for the sales counter
type ProductLookup struct {
	Product      *domain.Product      `json:"product"`
	CurrentStock int                  `json:"current_stock"`
	SellingPrice decimal.NullDecimal  `json:"selling_price"`
	UnitSymbol   string               `json:"unit_symbol"`
	Batches      []*domain.StockBatch `json:"batches"`
}

// QuickData is the compact product card the counter shows when a line is
// added to a sale
type QuickData struct {
	ProductID       int64               `json:"product_id"`
	ProductCode     string              `json:"product_code"`
	ProductName     string              `json:"product_name"`
	GenericName     *string             `json:"generic_name,omitempty"`
	Barcode         *string             `json:"barcode,omitempty"`
	UnitSymbol      string              `json:"unit_symbol"`
	CurrentQuantity int                 `json:"current_quantity"`
	Value           decimal.Decimal     `json:"value"`
	SellingPrice    decimal.NullDecimal `json:"selling_price"`
	NextExpiry      *domain.Date        `json:"next_expiry"`
}

// Snapshot returns the product's ACTIVE quantity and its cost value
func (s *StockService) Snapshot(ctx context.Context, productID int64) (domain.StockSnapshot, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return domain.StockSnapshot{}, err
	}
	return s.snapshot(ctx, productID)
}

func (s *StockService) snapshot(ctx context.Context, productID int64) (domain.StockSnapshot, error) {
	snap, err := s.batches.Snapshot(ctx, productID)
	return degrade(s.logger, "stock_snapshot", snap, err, domain.StockSnapshot{Value: decimal.Zero})
}

// CurrentStock sums current_quantity over the product's ACTIVE batches
func (s *StockService) CurrentStock(ctx context.Context, productID int64) (int, error) {
	snap, err := s.Snapshot(ctx, productID)
	if err != nil {
		return 0, err
	}
	return snap.CurrentQuantity, nil
}

// StockValue sums current_quantity × unit_cost over the product's ACTIVE batches
func (s *StockService) StockValue(ctx context.Context, productID int64) (decimal.Decimal, error) {
	snap, err := s.Snapshot(ctx, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return snap.Value, nil
}

// LowestActivePrice returns the cheapest selling price among saleable
// batches. The result is invalid when nothing is saleable.
func (s *StockService) LowestActivePrice(ctx context.Context, productID int64) (decimal.NullDecimal, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return decimal.NullDecimal{}, err
	}
	price, err := s.batches.LowestActivePrice(ctx, productID)
	return degrade(s.logger, "lowest_price", price, err, decimal.NullDecimal{})
}

// ActiveBatchesFEFO returns the product's saleable batches, soonest expiry
// first, at most limit of them. The sequence can be ranged over repeatedly.
func (s *StockService) ActiveBatchesFEFO(ctx context.Context, productID int64, limit int) (iter.Seq2[*domain.StockBatch, error], error) {
	if limit < 1 {
		return nil, errors.Validation(map[string]string{"limit": "must be a positive integer"})
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.fefo(ctx, productID, limit), nil
}

// fefo ends the sequence quietly when the batch table is unavailable
func (s *StockService) fefo(ctx context.Context, productID int64, limit int) iter.Seq2[*domain.StockBatch, error] {
	seq := s.batches.ActiveFEFO(ctx, productID, limit)
	return func(yield func(*domain.StockBatch, error) bool) {
		for b, err := range seq {
			if err != nil {
				if errors.IsUnavailable(err) {
					s.logger.Warn().Err(err).Int64("product_id", productID).Msg("batch table unavailable, no batches listed")
					return
				}
				yield(nil, err)
				return
			}
			if !yield(b, nil) {
				return
			}
		}
	}
}

// FEFOBatches collects ActiveBatchesFEFO into a slice
func (s *StockService) FEFOBatches(ctx context.Context, productID int64, limit int) ([]*domain.StockBatch, error) {
	seq, err := s.ActiveBatchesFEFO(ctx, productID, limit)
	if err != nil {
		return nil, err
	}
	return collect(seq)
}

func collect(seq iter.Seq2[*domain.StockBatch, error]) ([]*domain.StockBatch, error) {
	batches := []*domain.StockBatch{}
	for b, err := range seq {
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// Lookup finds a product by exact barcode or, without one, by the first
// name-ordered match of search, and returns it with its sale figures.
func (s *StockService) Lookup(ctx context.Context, search, barcode string) (*ProductLookup, error) {
	var (
		product *domain.Product
		err     error
	)
	switch {
	case barcode != "":
		product, err = s.products.GetByBarcode(ctx, barcode)
	case search != "":
		product, err = s.products.FindFirst(ctx, search)
	default:
		return nil, errors.Validation(map[string]string{"search": "search or barcode is required"})
	}
	if err != nil {
		return nil, err
	}

	snap, price, batches, err := s.figures(ctx, product.ID, LookupBatchLimit)
	if err != nil {
		return nil, err
	}

	return &ProductLookup{
		Product:      product,
		CurrentStock: snap.CurrentQuantity,
		SellingPrice: price,
		UnitSymbol:   product.Unit(),
		Batches:      batches,
	}, nil
}

// QuickData returns the product with its stock snapshot, lowest saleable
// price and the expiry of the batch that would be dispensed next.
func (s *StockService) QuickData(ctx context.Context, productID int64) (*QuickData, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	snap, price, next, err := s.figures(ctx, product.ID, 1)
	if err != nil {
		return nil, err
	}

	data := &QuickData{
		ProductID:       product.ID,
		ProductCode:     product.ProductCode,
		ProductName:     product.ProductName,
		GenericName:     product.GenericName,
		Barcode:         product.Barcode,
		UnitSymbol:      product.Unit(),
		CurrentQuantity: snap.CurrentQuantity,
		Value:           snap.Value,
		SellingPrice:    price,
	}
	if len(next) > 0 {
		data.NextExpiry = &next[0].ExpiryDate
	}
	return data, nil
}

// figures reads the snapshot, lowest price and the first batchLimit FEFO
// batches of a product already known to exist. Each degrades on its own.
func (s *StockService) figures(ctx context.Context, productID int64, batchLimit int) (domain.StockSnapshot, decimal.NullDecimal, []*domain.StockBatch, error) {
	snap, err := s.snapshot(ctx, productID)
	if err != nil {
		return domain.StockSnapshot{}, decimal.NullDecimal{}, nil, err
	}
	price, err := s.batches.LowestActivePrice(ctx, productID)
	if price, err = degrade(s.logger, "lowest_price", price, err, decimal.NullDecimal{}); err != nil {
		return domain.StockSnapshot{}, decimal.NullDecimal{}, nil, err
	}
	batches, err := collect(s.fefo(ctx, productID, batchLimit))
	if err != nil {
		return domain.StockSnapshot{}, decimal.NullDecimal{}, nil, err
	}
	return snap, price, batches, nil
}
