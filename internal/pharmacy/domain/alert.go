package domain

// LowStockAlert is a monitored product at or below its minimum.
type LowStockAlert struct {
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name"`
	CurrentQuantity int    `json:"current_quantity"`
	MinStock        int    `json:"min_stock"`
	Unit            string `json:"unit"`
}

// Deficit is how far below the minimum the product is. Zero when exactly at it.
func (a LowStockAlert) Deficit() int {
	return a.MinStock - a.CurrentQuantity
}

// ExpiryAlert is an active batch expiring within the lookahead window.
type ExpiryAlert struct {
	BatchID     int64  `json:"batch_id"`
	ProductName string `json:"product_name"`
	BatchNumber string `json:"batch_number"`
	ExpiryDate  Date   `json:"expiry_date"`
	DaysLeft    int    `json:"days_left"`
	Quantity    int    `json:"quantity"`
	StoreName   string `json:"store_name"`
}
