package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Batch lifecycle statuses
const (
	BatchActive   = "ACTIVE"
	BatchExpired  = "EXPIRED"
	BatchDepleted = "DEPLETED"
	BatchRecalled = "RECALLED"
)

// StockBatch is one receipt of stock for a product at a store.
type StockBatch struct {
	ID              int64           `json:"id" db:"id"`
	ProductID       int64           `json:"product_id" db:"product_id"`
	StoreID         int64           `json:"store_id" db:"store_id"`
	BatchNumber     string          `json:"batch_number" db:"batch_number"`
	ExpiryDate      Date            `json:"expiry_date" db:"expiry_date"`
	ReceivedDate    Date            `json:"received_date" db:"received_date"`
	InitialQuantity int             `json:"initial_quantity" db:"initial_quantity"`
	CurrentQuantity int             `json:"current_quantity" db:"current_quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost" db:"unit_cost"`
	SellingPrice    decimal.Decimal `json:"selling_price" db:"selling_price"`
	Status          string          `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Saleable reports whether the batch can be dispensed from.
func (b *StockBatch) Saleable() bool {
	return b.Status == BatchActive && b.CurrentQuantity > 0
}

// ExpiringBatch is an active batch joined with its product and store names.
type ExpiringBatch struct {
	BatchID         int64  `db:"batch_id"`
	ProductID       int64  `db:"product_id"`
	ProductName     string `db:"product_name"`
	BatchNumber     string `db:"batch_number"`
	ExpiryDate      Date   `db:"expiry_date"`
	CurrentQuantity int    `db:"current_quantity"`
	StoreName       string `db:"store_name"`
}
