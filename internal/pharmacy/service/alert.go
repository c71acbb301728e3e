package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/config"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// MaxLookaheadDays bounds the expiry window. Wider windows are clamped.
const MaxLookaheadDays = 3650

// AlertService evaluates low-stock and expiry conditions over the batch store.
// Both lists come back empty rather than failing when storage is unavailable.
type AlertService struct {
	products ProductStore
	batches  BatchStore
	cfg      config.AlertsConfig
	clock    Clock
	logger   *logger.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(products ProductStore, batches BatchStore, cfg config.AlertsConfig, clock Clock, log *logger.Logger) *AlertService {
	if cfg.LookaheadDays < 1 {
		cfg.LookaheadDays = 30
	}
	if cfg.MaxResults < 1 {
		cfg.MaxResults = 10
	}
	cfg.LookaheadDays = min(cfg.LookaheadDays, MaxLookaheadDays)
	return &AlertService{
		products: products,
		batches:  batches,
		cfg:      cfg,
		clock:    clock,
		logger:   log.WithComponent("alerts"),
	}
}

// LookaheadDays is the configured expiry window
func (s *AlertService) LookaheadDays() int {
	return s.cfg.LookaheadDays
}

// LowStockAlerts lists monitored products at or below their minimum, largest
// deficit first. maxResults < 1 uses the configured cap.
func (s *AlertService) LowStockAlerts(ctx context.Context, maxResults int) ([]domain.LowStockAlert, error) {
	if maxResults < 1 {
		maxResults = s.cfg.MaxResults
	}
	alerts, err := s.lowStock(ctx)
	if err != nil {
		return nil, err
	}
	if len(alerts) > maxResults {
		alerts = alerts[:maxResults]
	}
	return alerts, nil
}

// LowStockCount is the number of products LowStockAlerts would list without a cap
func (s *AlertService) LowStockCount(ctx context.Context) (int, error) {
	alerts, err := s.lowStock(ctx)
	return len(alerts), err
}

func (s *AlertService) lowStock(ctx context.Context) ([]domain.LowStockAlert, error) {
	monitored, err := s.products.MonitoredProducts(ctx)
	if monitored, err = degrade(s.logger, "monitored_products", monitored, err, nil); err != nil {
		return nil, err
	}

	alerts := []domain.LowStockAlert{}
	for _, m := range monitored {
		// min_stock 0 means the product is not monitored
		if m.MinStock <= 0 || m.CurrentQuantity > m.MinStock {
			continue
		}
		alerts = append(alerts, domain.LowStockAlert{
			ProductID:       m.ProductID,
			ProductName:     m.ProductName,
			CurrentQuantity: m.CurrentQuantity,
			MinStock:        m.MinStock,
			Unit:            m.Unit(),
		})
	}

	slices.SortFunc(alerts, func(a, b domain.LowStockAlert) int {
		if c := cmp.Compare(b.Deficit(), a.Deficit()); c != 0 {
			return c
		}
		if c := strings.Compare(a.ProductName, b.ProductName); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductID, b.ProductID)
	})
	return alerts, nil
}

// ExpiryAlerts lists ACTIVE batches expiring after today and no later than
// today + lookaheadDays, soonest first. Non-positive arguments use the
// configured defaults.
func (s *AlertService) ExpiryAlerts(ctx context.Context, lookaheadDays, maxResults int) ([]domain.ExpiryAlert, error) {
	if lookaheadDays < 1 {
		lookaheadDays = s.cfg.LookaheadDays
	}
	lookaheadDays = min(lookaheadDays, MaxLookaheadDays)
	if maxResults < 1 {
		maxResults = s.cfg.MaxResults
	}

	today := s.clock.Today()
	rows, err := s.batches.ExpiringBetween(ctx, today, today.AddDays(lookaheadDays), maxResults)
	if rows, err = degrade(s.logger, "expiring_batches", rows, err, nil); err != nil {
		return nil, err
	}

	alerts := make([]domain.ExpiryAlert, 0, len(rows))
	for _, b := range rows {
		alerts = append(alerts, domain.ExpiryAlert{
			BatchID:     b.BatchID,
			ProductName: b.ProductName,
			BatchNumber: b.BatchNumber,
			ExpiryDate:  b.ExpiryDate,
			DaysLeft:    today.DaysUntil(b.ExpiryDate),
			Quantity:    b.CurrentQuantity,
			StoreName:   b.StoreName,
		})
	}
	return alerts, nil
}

// ExpiringCount counts the batches in the configured expiry window
func (s *AlertService) ExpiringCount(ctx context.Context) (int, error) {
	today := s.clock.Today()
	n, err := s.batches.CountExpiringBetween(ctx, today, today.AddDays(s.cfg.LookaheadDays))
	return degrade(s.logger, "expiring_count", n, err, 0)
}
