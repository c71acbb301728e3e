package events

import (
	"context"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/messaging"
)

// EventPublisher is satisfied by *messaging.Publisher
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// PharmacyEventPublisher publishes pharmacy events. A nil publisher drops
// every event, which is how the service runs with messaging disabled.
type PharmacyEventPublisher struct {
	publisher EventPublisher
	logger    *logger.Logger
}

// NewPharmacyEventPublisher declares the pharmacy exchange on rmq and returns a publisher for it
func NewPharmacyEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*PharmacyEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangePharmacyEvents, "pharmacy-service", log)
	if err != nil {
		return nil, err
	}
	return NewWithPublisher(publisher, log), nil
}

// NewWithPublisher wraps an existing publisher
func NewWithPublisher(publisher EventPublisher, log *logger.Logger) *PharmacyEventPublisher {
	return &PharmacyEventPublisher{publisher: publisher, logger: log}
}

// PublishStockReceived publishes a stock received event
func (p *PharmacyEventPublisher) PublishStockReceived(ctx context.Context, b *domain.StockBatch, performedBy string) {
	if p == nil {
		return
	}

	data := messaging.StockReceivedEvent{
		BatchID:      b.ID,
		ProductID:    b.ProductID,
		StoreID:      b.StoreID,
		BatchNumber:  b.BatchNumber,
		ExpiryDate:   b.ExpiryDate.String(),
		Quantity:     b.InitialQuantity,
		UnitCost:     b.UnitCost,
		SellingPrice: b.SellingPrice,
		PerformedBy:  performedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventStockReceived, data); err != nil {
		p.logger.Error().Err(err).Int64("batch_id", b.ID).Msg("failed to publish stock received event")
	}
}

// PublishSaleCompleted publishes a sale completed event
func (p *PharmacyEventPublisher) PublishSaleCompleted(ctx context.Context, s *domain.Sale) {
	if p == nil {
		return
	}

	performedBy := ""
	if s.PerformedBy != nil {
		performedBy = *s.PerformedBy
	}

	rows := make([]messaging.SaleCompletedRow, len(s.Items))
	for i, item := range s.Items {
		rows[i] = messaging.SaleCompletedRow{
			ProductID: item.ProductID,
			BatchID:   item.BatchID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		}
	}

	data := messaging.SaleCompletedEvent{
		SaleID:        s.ID,
		ReceiptNumber: s.ReceiptNumber,
		StoreID:       s.StoreID,
		TotalAmount:   s.TotalAmount,
		PerformedBy:   performedBy,
		Items:         rows,
	}

	if err := p.publisher.Publish(ctx, messaging.EventSaleCompleted, data); err != nil {
		p.logger.Error().Err(err).Int64("sale_id", s.ID).Msg("failed to publish sale completed event")
	}
}

// PublishLowStockAlert publishes the current low-stock list
func (p *PharmacyEventPublisher) PublishLowStockAlert(ctx context.Context, alerts []domain.LowStockAlert, at time.Time) error {
	if p == nil {
		return nil
	}

	rows := make([]messaging.LowStockAlertRow, len(alerts))
	for i, a := range alerts {
		rows[i] = messaging.LowStockAlertRow{
			ProductID:       a.ProductID,
			ProductName:     a.ProductName,
			CurrentQuantity: a.CurrentQuantity,
			MinStock:        a.MinStock,
		}
	}

	return p.publisher.Publish(ctx, messaging.EventLowStockAlert, messaging.LowStockAlertEvent{
		GeneratedAt: at,
		Items:       rows,
	})
}

// PublishExpiryAlert publishes the batches expiring within lookaheadDays
func (p *PharmacyEventPublisher) PublishExpiryAlert(ctx context.Context, alerts []domain.ExpiryAlert, lookaheadDays int, at time.Time) error {
	if p == nil {
		return nil
	}

	rows := make([]messaging.ExpiryAlertRow, len(alerts))
	for i, a := range alerts {
		rows[i] = messaging.ExpiryAlertRow{
			BatchID:     a.BatchID,
			ProductName: a.ProductName,
			BatchNumber: a.BatchNumber,
			ExpiryDate:  a.ExpiryDate.String(),
			DaysLeft:    a.DaysLeft,
			Quantity:    a.Quantity,
			StoreName:   a.StoreName,
		}
	}

	return p.publisher.Publish(ctx, messaging.EventExpiryAlert, messaging.ExpiryAlertEvent{
		GeneratedAt:   at,
		LookaheadDays: lookaheadDays,
		Items:         rows,
	})
}
