package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// FixtureFactory builds domain objects with unique codes
type FixtureFactory struct {
	seq atomic.Int64
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

func (f *FixtureFactory) next() int64 {
	return f.seq.Add(1)
}

// Product returns an ACTIVE product with a unique code
func (f *FixtureFactory) Product(name string, minStock int) *domain.Product {
	n := f.next()
	unit := "tab"
	return &domain.Product{
		ProductCode: fmt.Sprintf("P%04d", n),
		ProductName: name,
		MinStock:    minStock,
		Status:      domain.ProductActive,
		UnitSymbol:  &unit,
	}
}

// Store returns an ACTIVE store with a unique code
func (f *FixtureFactory) Store(name string) *domain.Store {
	return &domain.Store{
		StoreCode: fmt.Sprintf("S%03d", f.next()),
		StoreName: name,
		Status:    domain.StoreActive,
	}
}

// Batch returns an ACTIVE batch of qty units expiring on expiry
func (f *FixtureFactory) Batch(productID, storeID int64, qty int, expiry domain.Date, cost, price string) *domain.StockBatch {
	return &domain.StockBatch{
		ProductID:       productID,
		StoreID:         storeID,
		BatchNumber:     fmt.Sprintf("B%05d", f.next()),
		ExpiryDate:      expiry,
		ReceivedDate:    domain.DateOf(time.Now(), time.UTC),
		InitialQuantity: qty,
		CurrentQuantity: qty,
		UnitCost:        decimal.RequireFromString(cost),
		SellingPrice:    decimal.RequireFromString(price),
		Status:          domain.BatchActive,
	}
}

// User returns an active user whose password hash matches password.
// Uses the minimum bcrypt cost to keep tests fast.
func (f *FixtureFactory) User(username, password, role string) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt: %v", err))
	}
	return &domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
}
