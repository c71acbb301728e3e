package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/events"
	"github.com/pharmastock/pharmastock-backend/pkg/actor"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/httputil"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// Top-products report bounds
const (
	DefaultTopProductsDays  = 30
	DefaultTopProductsLimit = 10
	MaxTopProductsDays      = 366
)

// SaleLineRequest asks for quantity units of a product
type SaleLineRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0"`
}

// SaleRequest is the body of a sale
type SaleRequest struct {
	StoreID int64             `json:"store_id" validate:"required,gt=0"`
	Items   []SaleLineRequest `json:"items" validate:"required,min=1,dive"`
}

// SaleService records sales, dispensing each line FEFO across batches
type SaleService struct {
	db        TxRunner
	products  ProductStore
	stores    StoreDirectory
	batches   BatchStore
	sales     SaleStore
	publisher *events.PharmacyEventPublisher
	clock     Clock
	logger    *logger.Logger
}

// NewSaleService creates a new sale service
func NewSaleService(
	db TxRunner,
	products ProductStore,
	stores StoreDirectory,
	batches BatchStore,
	sales SaleStore,
	publisher *events.PharmacyEventPublisher,
	clock Clock,
	log *logger.Logger,
) *SaleService {
	return &SaleService{
		db:        db,
		products:  products,
		stores:    stores,
		batches:   batches,
		sales:     sales,
		publisher: publisher,
		clock:     clock,
		logger:    log.WithComponent("sales"),
	}
}

// ProcessSale deducts every line from the store's unexpired batches, soonest
// expiry first, and records the sale. Either all lines are dispensed or
// nothing is written.
func (s *SaleService) ProcessSale(ctx context.Context, req *SaleRequest) (*domain.Sale, error) {
	if err := httputil.Validate(req); err != nil {
		return nil, err
	}

	store, err := s.stores.GetByID(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	performedBy := actor.IDFromContext(ctx)
	sale := &domain.Sale{
		ReceiptNumber:   newReceiptNumber(today),
		StoreID:         store.ID,
		StoreName:       store.StoreName,
		TransactionType: domain.TransactionSale,
		TotalAmount:     decimal.Zero,
		PerformedBy:     &performedBy,
	}

	err = s.db.WithTx(ctx, func(ctx context.Context) error {
		for _, line := range mergeLines(req.Items) {
			items, err := s.dispense(ctx, store.ID, line, today)
			if err != nil {
				return err
			}
			for _, item := range items {
				sale.TotalAmount = sale.TotalAmount.Add(item.LineTotal)
			}
			sale.Items = append(sale.Items, items...)
		}
		return s.sales.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("sale_id", sale.ID).
		Str("receipt_number", sale.ReceiptNumber).
		Str("total", sale.TotalAmount.StringFixed(2)).
		Msg("sale recorded")

	s.publisher.PublishSaleCompleted(ctx, sale)
	return sale, nil
}

// dispense locks the product's saleable batches and takes from the head
func (s *SaleService) dispense(ctx context.Context, storeID int64, line SaleLineRequest, today domain.Date) ([]domain.SaleItem, error) {
	product, err := s.products.GetByID(ctx, line.ProductID)
	if err != nil {
		return nil, err
	}

	batches, err := s.batches.LockSaleable(ctx, product.ID, storeID, today)
	if err != nil {
		return nil, err
	}

	available := 0
	for _, b := range batches {
		available += b.CurrentQuantity
	}
	if available < line.Quantity {
		return nil, errors.Conflict(fmt.Sprintf(
			"insufficient stock for %s: requested %d, available %d",
			product.ProductName, line.Quantity, available,
		)).WithDetails(map[string]string{
			"product_id": strconv.FormatInt(product.ID, 10),
			"requested":  strconv.Itoa(line.Quantity),
			"available":  strconv.Itoa(available),
			"shortfall":  strconv.Itoa(line.Quantity - available),
		})
	}

	var items []domain.SaleItem
	remaining := line.Quantity
	for _, b := range batches {
		if remaining == 0 {
			break
		}
		take := min(remaining, b.CurrentQuantity)
		if _, _, err := s.batches.Deduct(ctx, b.ID, take); err != nil {
			return nil, err
		}
		items = append(items, domain.SaleItem{
			ProductID:   product.ID,
			ProductName: product.ProductName,
			BatchID:     b.ID,
			BatchNumber: b.BatchNumber,
			Quantity:    take,
			UnitPrice:   b.SellingPrice,
			LineTotal:   b.SellingPrice.Mul(decimal.NewFromInt(int64(take))),
		})
		remaining -= take
	}
	return items, nil
}

// mergeLines folds repeated products into one line, keeping first-seen order
func mergeLines(lines []SaleLineRequest) []SaleLineRequest {
	merged := make([]SaleLineRequest, 0, len(lines))
	index := make(map[int64]int, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

func newReceiptNumber(day domain.Date) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
	return "RCP-" + day.Format("20060102") + "-" + suffix
}

// GetSale loads a sale with its items
func (s *SaleService) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	return s.sales.GetByID(ctx, id)
}

// DailySummary totals the sales recorded on day in the clock's zone
func (s *SaleService) DailySummary(ctx context.Context, day domain.Date) (domain.DailySummary, error) {
	from, to := dayBounds(day, s.clock.Location)
	summary, err := s.sales.Summary(ctx, from, to)
	if err != nil {
		return domain.DailySummary{}, err
	}
	summary.Date = day
	return summary, nil
}

// TopProducts ranks the products sold between from and to, both inclusive
// days in the clock's zone. A zero to means today and a zero from means 29
// days before to. limit defaults to 10.
func (s *SaleService) TopProducts(ctx context.Context, from, to domain.Date, limit int) (*domain.TopProducts, error) {
	if to.IsZero() {
		to = s.clock.Today()
	}
	if from.IsZero() {
		from = to.AddDays(-(DefaultTopProductsDays - 1))
	}
	if to.Before(from) {
		return nil, errors.Validation(map[string]string{"from": "must not be after to"})
	}
	if from.DaysUntil(to) >= MaxTopProductsDays {
		return nil, errors.Validation(map[string]string{"from": fmt.Sprintf("range must not exceed %d days", MaxTopProductsDays)})
	}
	if limit < 1 {
		limit = DefaultTopProductsLimit
	}

	start, _ := dayBounds(from, s.clock.Location)
	_, end := dayBounds(to, s.clock.Location)
	top, err := s.sales.TopProducts(ctx, start, end, limit)
	if err != nil {
		return nil, err
	}
	return &domain.TopProducts{From: from, To: to, Products: top}, nil
}

// Today is the current calendar date used for sales
func (s *SaleService) Today() domain.Date {
	return s.clock.Today()
}

func dayBounds(day domain.Date, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	return from, from.AddDate(0, 0, 1)
}
