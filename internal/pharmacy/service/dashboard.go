package service

import (
	"context"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	dashboardRecentSales = 10
	dashboardAlertItems  = 5
)

// DashboardService assembles the landing page figures. Every figure degrades
// on its own, so a missing sales table still shows stock alerts.
type DashboardService struct {
	products ProductStore
	stores   StoreDirectory
	sales    SaleStore
	alerts   *AlertService
	clock    Clock
	logger   *logger.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(products ProductStore, stores StoreDirectory, sales SaleStore, alerts *AlertService, clock Clock, log *logger.Logger) *DashboardService {
	return &DashboardService{
		products: products,
		stores:   stores,
		sales:    sales,
		alerts:   alerts,
		clock:    clock,
		logger:   log.WithComponent("dashboard"),
	}
}

// Dashboard returns the headline stats and the short lists
func (s *DashboardService) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	var (
		d   = &domain.Dashboard{Stats: domain.DashboardStats{TodaySales: decimal.Zero}}
		err error
	)

	n, err := s.products.Count(ctx)
	if d.Stats.TotalProducts, err = degrade(s.logger, "product_count", n, err, 0); err != nil {
		return nil, err
	}
	if d.Stats.LowStock, err = s.alerts.LowStockCount(ctx); err != nil {
		return nil, err
	}
	if d.Stats.ExpiringSoon, err = s.alerts.ExpiringCount(ctx); err != nil {
		return nil, err
	}

	from, to := dayBounds(s.clock.Today(), s.clock.Location)
	summary, err := s.sales.Summary(ctx, from, to)
	if summary, err = degrade(s.logger, "today_sales", summary, err, domain.DailySummary{TotalAmount: decimal.Zero}); err != nil {
		return nil, err
	}
	d.Stats.TodaySales = summary.TotalAmount
	d.Stats.TodayTransactions = summary.Transactions

	n, err = s.stores.Count(ctx)
	if d.Stats.TotalStores, err = degrade(s.logger, "store_count", n, err, 0); err != nil {
		return nil, err
	}

	recent, err := s.sales.Recent(ctx, dashboardRecentSales)
	if d.RecentSales, err = degrade(s.logger, "recent_sales", recent, err, []domain.Sale{}); err != nil {
		return nil, err
	}
	if d.LowStockItems, err = s.alerts.LowStockAlerts(ctx, dashboardAlertItems); err != nil {
		return nil, err
	}
	if d.ExpiringSoon, err = s.alerts.ExpiryAlerts(ctx, 0, dashboardAlertItems); err != nil {
		return nil, err
	}

	return d, nil
}
