package service_test

import (
	"testing"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/events"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/config"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/testutil"
)

type fixture struct {
	db        *memDB
	today     domain.Date
	clock     service.Clock
	published *testutil.MockPublisher

	stock     *service.StockService
	alerts    *service.AlertService
	catalog   *service.CatalogService
	stores    *service.StoreService
	receipts  *service.ReceiptService
	sales     *service.SaleService
	dashboard *service.DashboardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newMemDB()
	today := domain.NewDate(2026, 3, 1)
	clock := fixedClock(today)
	db.now = clock.Now

	log := logger.Nop()
	published := testutil.NewMockPublisher()
	publisher := events.NewWithPublisher(published, log)

	products, batches := fakeProducts{db}, fakeBatches{db}
	stores, sales := fakeStores{db}, fakeSales{db}

	stock := service.NewStockService(products, batches, log)
	alerts := service.NewAlertService(products, batches, config.AlertsConfig{LookaheadDays: 30, MaxResults: 10}, clock, log)

	return &fixture{
		db:        db,
		today:     today,
		clock:     clock,
		published: published,
		stock:     stock,
		alerts:    alerts,
		catalog:   service.NewCatalogService(db, products, batches, stock, log),
		stores:    service.NewStoreService(stores, log),
		receipts:  service.NewReceiptService(products, stores, batches, publisher, clock, log),
		sales:     service.NewSaleService(db, products, stores, batches, sales, publisher, clock, log),
		dashboard: service.NewDashboardService(products, stores, sales, alerts, clock, log),
	}
}
