package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionSale is the only transaction type recorded.
const TransactionSale = "SALE"

// Sale is a recorded sale transaction.
type Sale struct {
	ID              int64           `json:"id" db:"id"`
	ReceiptNumber   string          `json:"receipt_number" db:"receipt_number"`
	StoreID         int64           `json:"store_id" db:"store_id"`
	StoreName       string          `json:"store_name,omitempty" db:"store_name"`
	TransactionType string          `json:"transaction_type" db:"transaction_type"`
	TransactionDate time.Time       `json:"transaction_date" db:"transaction_date"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	PerformedBy     *string         `json:"performed_by,omitempty" db:"performed_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	Items           []SaleItem      `json:"items,omitempty" db:"-"`
}

// SaleItem is the slice of one batch dispensed by a sale.
type SaleItem struct {
	ID          int64           `json:"id" db:"id"`
	SaleID      int64           `json:"sale_id" db:"sale_id"`
	ProductID   int64           `json:"product_id" db:"product_id"`
	ProductName string          `json:"product_name,omitempty" db:"product_name"`
	BatchID     int64           `json:"batch_id" db:"batch_id"`
	BatchNumber string          `json:"batch_number,omitempty" db:"batch_number"`
	Quantity    int             `json:"quantity" db:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" db:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total" db:"line_total"`
}

// TopProduct is one product's sales over a date range.
type TopProduct struct {
	ProductID    int64           `json:"product_id" db:"product_id"`
	ProductCode  string          `json:"product_code" db:"product_code"`
	ProductName  string          `json:"product_name" db:"product_name"`
	QuantitySold int             `json:"quantity_sold" db:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue" db:"revenue"`
	Transactions int             `json:"transactions" db:"transactions"`
}

// TopProducts ranks products by units sold between two dates, both inclusive.
type TopProducts struct {
	From     Date         `json:"from"`
	To       Date         `json:"to"`
	Products []TopProduct `json:"products"`
}

// DailySummary totals the sales of one calendar day.
type DailySummary struct {
	Date         Date            `json:"date"`
	Transactions int             `json:"transactions" db:"transactions"`
	TotalAmount  decimal.Decimal `json:"total_amount" db:"total_amount"`
}
