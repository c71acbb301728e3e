package service

import (
	"context"
	"iter"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/shopspring/decimal"
)

// The services depend on these narrow views of the repositories so the
// stock and alert rules can be exercised against in-memory stores.

// ProductStore is the product persistence the services need
type ProductStore interface {
	Create(ctx context.Context, p *domain.Product) error
	SetBarcode(ctx context.Context, id int64, barcode string) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error)
	GetByCode(ctx context.Context, code string) (*domain.Product, error)
	FindFirst(ctx context.Context, term string) (*domain.Product, error)
	List(ctx context.Context, f domain.ProductFilter) ([]*domain.Product, int64, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	MonitoredProducts(ctx context.Context) ([]domain.MonitoredProduct, error)
}

// BatchStore is the batch persistence the services need
type BatchStore interface {
	Create(ctx context.Context, b *domain.StockBatch) error
	GetByID(ctx context.Context, id int64) (*domain.StockBatch, error)
	Snapshot(ctx context.Context, productID int64) (domain.StockSnapshot, error)
	LowestActivePrice(ctx context.Context, productID int64) (decimal.NullDecimal, error)
	ActiveFEFO(ctx context.Context, productID int64, limit int) iter.Seq2[*domain.StockBatch, error]
	LockSaleable(ctx context.Context, productID, storeID int64, today domain.Date) ([]*domain.StockBatch, error)
	Deduct(ctx context.Context, batchID int64, qty int) (int, string, error)
	HasStock(ctx context.Context, productID int64) (bool, error)
	ExpiringBetween(ctx context.Context, after, through domain.Date, limit int) ([]domain.ExpiringBatch, error)
	CountExpiringBetween(ctx context.Context, after, through domain.Date) (int, error)
}

// StoreDirectory is the store persistence the services need
type StoreDirectory interface {
	Create(ctx context.Context, s *domain.Store) error
	GetByID(ctx context.Context, id int64) (*domain.Store, error)
	GetByCode(ctx context.Context, code string) (*domain.Store, error)
	List(ctx context.Context) ([]*domain.Store, error)
	Count(ctx context.Context) (int, error)
}

// SaleStore is the sale persistence the services need
type SaleStore interface {
	Create(ctx context.Context, s *domain.Sale) error
	GetByID(ctx context.Context, id int64) (*domain.Sale, error)
	Summary(ctx context.Context, from, to time.Time) (domain.DailySummary, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.TopProduct, error)
	Recent(ctx context.Context, limit int) ([]domain.Sale, error)
}

// UserStore is the user persistence the services need
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// TxRunner runs fn in a transaction carried by ctx. *database.DB satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Clock supplies "now" and the zone that decides the calendar date
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// SystemClock uses the wall clock in loc
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return Clock{Now: time.Now, Location: loc}
}

// Today is the current calendar date in the clock's zone
func (c Clock) Today() domain.Date {
	return domain.DateOf(c.now(), c.Location)
}

func (c Clock) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}
