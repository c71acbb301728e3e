package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product lifecycle statuses
const (
	ProductActive       = "ACTIVE"
	ProductInactive     = "INACTIVE"
	ProductDiscontinued = "DISCONTINUED"
)

// Product is a catalog entry. Stock lives in its batches.
type Product struct {
	ID                int64     `json:"id" db:"id"`
	ProductCode       string    `json:"product_code" db:"product_code"`
	ProductName       string    `json:"product_name" db:"product_name"`
	GenericName       *string   `json:"generic_name,omitempty" db:"generic_name"`
	Barcode           *string   `json:"barcode,omitempty" db:"barcode"`
	MinStock          int       `json:"min_stock" db:"min_stock"`
	MaxStock          *int      `json:"max_stock,omitempty" db:"max_stock"`
	ReorderLevel      int       `json:"reorder_level" db:"reorder_level"`
	Status            string    `json:"status" db:"status"`
	UnitName          *string   `json:"unit_name,omitempty" db:"unit_name"`
	UnitSymbol        *string   `json:"unit_symbol,omitempty" db:"unit_symbol"`
	Strength          *string   `json:"strength,omitempty" db:"strength"`
	DosageForm        *string   `json:"dosage_form,omitempty" db:"dosage_form"`
	StorageConditions *string   `json:"storage_conditions,omitempty" db:"storage_conditions"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Unit returns the display unit, preferring the symbol.
func (p *Product) Unit() string {
	return displayUnit(p.UnitSymbol, p.UnitName)
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	Search  string
	Status  string
	Page    int
	PerPage int
}

// StockSnapshot is the saleable quantity of a product and its cost value,
// read in one statement so the two agree.
type StockSnapshot struct {
	CurrentQuantity int             `json:"current_quantity" db:"current_quantity"`
	Value           decimal.Decimal `json:"value" db:"value"`
}

// MonitoredProduct is a product with a minimum stock and its current active stock.
type MonitoredProduct struct {
	ProductID       int64   `db:"product_id"`
	ProductName     string  `db:"product_name"`
	MinStock        int     `db:"min_stock"`
	CurrentQuantity int     `db:"current_quantity"`
	UnitName        *string `db:"unit_name"`
	UnitSymbol      *string `db:"unit_symbol"`
}

// Unit returns the display unit, preferring the symbol.
func (m *MonitoredProduct) Unit() string {
	return displayUnit(m.UnitSymbol, m.UnitName)
}

func displayUnit(symbol, name *string) string {
	switch {
	case symbol != nil && *symbol != "":
		return *symbol
	case name != nil:
		return *name
	default:
		return ""
	}
}
