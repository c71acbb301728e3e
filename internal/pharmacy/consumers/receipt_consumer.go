package consumers

import (
	"context"
	"fmt"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/service"
	"github.com/pharmastock/pharmastock-backend/pkg/actor"
	"github.com/pharmastock/pharmastock-backend/pkg/errors"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/messaging"
)

// BatchReceiver books a delivery identified by product and store codes
type BatchReceiver interface {
	ReceiveByCode(ctx context.Context, productCode, storeCode string, req *service.ReceiveBatchRequest) (*domain.StockBatch, error)
}

// GoodsReceivedHandler turns purchasing receipts into stock batches (testable without RabbitMQ)
type GoodsReceivedHandler struct {
	receipts BatchReceiver
	logger   *logger.Logger
}

// NewGoodsReceivedHandler creates a new goods received handler
func NewGoodsReceivedHandler(receipts BatchReceiver, log *logger.Logger) *GoodsReceivedHandler {
	return &GoodsReceivedHandler{
		receipts: receipts,
		logger:   log.WithComponent("goods-received"),
	}
}

// HandleEvent receives the delivery as the system actor. Events that can
// never succeed are marked permanent so they go straight to the dead letter
// queue; storage failures are retried.
func (h *GoodsReceivedHandler) HandleEvent(ctx context.Context, event *messaging.Event) error {
	var data messaging.GoodsReceivedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return messaging.Permanent(fmt.Errorf("decode goods received event: %w", err))
	}

	h.logger.Info().
		Str("event_id", event.ID).
		Str("product_code", data.ProductCode).
		Str("store_code", data.StoreCode).
		Str("batch_number", data.BatchNumber).
		Int("quantity", data.Quantity).
		Msg("received goods received event")

	ctx = actor.WithActor(ctx, actor.SystemActor())
	batch, err := h.receipts.ReceiveByCode(ctx, data.ProductCode, data.StoreCode, &service.ReceiveBatchRequest{
		BatchNumber:  data.BatchNumber,
		ExpiryDate:   data.ExpiryDate,
		Quantity:     data.Quantity,
		UnitCost:     data.UnitCost,
		SellingPrice: data.SellingPrice,
	})
	if err != nil {
		if isRejected(err) {
			return messaging.Permanent(err)
		}
		return err
	}

	h.logger.Info().Int64("batch_id", batch.ID).Str("event_id", event.ID).Msg("goods receipt booked")
	return nil
}

// isRejected reports errors that redelivery cannot fix
func isRejected(err error) bool {
	var appErr *errors.AppError
	return errors.As(err, &appErr) && appErr.StatusCode < 500
}

// ReceiptConsumer consumes purchasing receipts from RabbitMQ
type ReceiptConsumer struct {
	consumer *messaging.Consumer
	handler  *GoodsReceivedHandler
	logger   *logger.Logger
}

// NewReceiptConsumer declares queueName, binds it to purchasing events and
// registers the goods received handler
func NewReceiptConsumer(rmq *messaging.RabbitMQ, queueName string, receipts BatchReceiver, log *logger.Logger) (*ReceiptConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, queueName, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangePurchasingEvents, messaging.EventGoodsReceived); err != nil {
		return nil, err
	}

	c := &ReceiptConsumer{
		consumer: consumer,
		handler:  NewGoodsReceivedHandler(receipts, log),
		logger:   log,
	}
	consumer.RegisterHandler(messaging.EventGoodsReceived, c.handler.HandleEvent)

	return c, nil
}

// Start starts consuming messages
func (c *ReceiptConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}
