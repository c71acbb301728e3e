package domain

import "github.com/shopspring/decimal"

// DashboardStats are the headline counters.
type DashboardStats struct {
	TotalProducts     int             `json:"total_products"`
	LowStock          int             `json:"low_stock"`
	ExpiringSoon      int             `json:"expiring_soon"`
	TodaySales        decimal.Decimal `json:"today_sales"`
	TodayTransactions int             `json:"today_transactions"`
	TotalStores       int             `json:"total_stores"`
}

// Dashboard is the landing page payload.
type Dashboard struct {
	Stats         DashboardStats  `json:"stats"`
	RecentSales   []Sale          `json:"recent_sales"`
	LowStockItems []LowStockAlert `json:"low_stock_items"`
	ExpiringSoon  []ExpiryAlert   `json:"expiring_soon"`
}
