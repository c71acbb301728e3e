package service

import (
	"context"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/events"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
)

// AlertNotifier periodically evaluates the alerts and publishes every
// non-empty list.
type AlertNotifier struct {
	alerts    *AlertService
	publisher *events.PharmacyEventPublisher
	interval  time.Duration
	clock     Clock
	logger    *logger.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewAlertNotifier creates a new alert notifier
func NewAlertNotifier(alerts *AlertService, publisher *events.PharmacyEventPublisher, interval time.Duration, clock Clock, log *logger.Logger) *AlertNotifier {
	return &AlertNotifier{
		alerts:    alerts,
		publisher: publisher,
		interval:  interval,
		clock:     clock,
		logger:    log.WithComponent("alert-notifier"),
	}
}

// Start runs a scan immediately and then on every tick until ctx is
// cancelled or Stop is called.
func (n *AlertNotifier) Start(ctx context.Context) {
	ctx, n.cancel = context.WithCancel(ctx)
	n.done = make(chan struct{})

	go func() {
		defer close(n.done)
		n.logger.Info().Dur("interval", n.interval).Msg("alert notifier started")

		n.RunOnce(ctx)

		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				n.logger.Info().Msg("alert notifier stopped")
				return
			case <-ticker.C:
				n.RunOnce(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit
func (n *AlertNotifier) Stop() {
	if n.cancel == nil {
		return
	}
	n.cancel()
	<-n.done
}

// RunOnce evaluates both alert lists and publishes the non-empty ones
func (n *AlertNotifier) RunOnce(ctx context.Context) {
	now := n.clock.now()

	low, err := n.alerts.LowStockAlerts(ctx, 0)
	switch {
	case err != nil:
		n.logger.Error().Err(err).Msg("low stock evaluation failed")
	case len(low) > 0:
		if err := n.publisher.PublishLowStockAlert(ctx, low, now); err != nil {
			n.logger.Error().Err(err).Msg("failed to publish low stock alert")
		}
	}

	expiring, err := n.alerts.ExpiryAlerts(ctx, 0, 0)
	switch {
	case err != nil:
		n.logger.Error().Err(err).Msg("expiry evaluation failed")
	case len(expiring) > 0:
		if err := n.publisher.PublishExpiryAlert(ctx, expiring, n.alerts.LookaheadDays(), now); err != nil {
			n.logger.Error().Err(err).Msg("failed to publish expiry alert")
		}
	}

	n.logger.Debug().Int("low_stock", len(low)).Int("expiring", len(expiring)).Msg("alert scan completed")
}
