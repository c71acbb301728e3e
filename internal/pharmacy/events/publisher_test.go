package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/domain"
	"github.com/pharmastock/pharmastock-backend/internal/pharmacy/events"
	"github.com/pharmastock/pharmastock-backend/pkg/logger"
	"github.com/pharmastock/pharmastock-backend/pkg/messaging"
	"github.com/pharmastock/pharmastock-backend/pkg/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPharmacyEventPublisher_NilIsNoop(t *testing.T) {
	var p *events.PharmacyEventPublisher

	assert.NotPanics(t, func() {
		p.PublishStockReceived(context.Background(), &domain.StockBatch{}, "")
		p.PublishSaleCompleted(context.Background(), &domain.Sale{})
	})
	assert.NoError(t, p.PublishLowStockAlert(context.Background(), nil, time.Now()))
	assert.NoError(t, p.PublishExpiryAlert(context.Background(), nil, 30, time.Now()))
}

func TestPharmacyEventPublisher_StockReceived(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := events.NewWithPublisher(mock, logger.Nop())

	p.PublishStockReceived(context.Background(), &domain.StockBatch{
		ID: 9, ProductID: 1, StoreID: 2, BatchNumber: "LOT-1",
		ExpiryDate: domain.NewDate(2027, 1, 31), InitialQuantity: 20,
		UnitCost: decimal.NewFromInt(500), SellingPrice: decimal.NewFromInt(1000),
	}, "user-1")

	payload := mock.AssertEventPublished(t, messaging.EventStockReceived)
	data, ok := payload.(messaging.StockReceivedEvent)
	require.True(t, ok)
	assert.Equal(t, "2027-01-31", data.ExpiryDate)
	assert.Equal(t, 20, data.Quantity)
	assert.Equal(t, "user-1", data.PerformedBy)
}

func TestPharmacyEventPublisher_SaleCompleted(t *testing.T) {
	mock := testutil.NewMockPublisher()
	p := events.NewWithPublisher(mock, logger.Nop())

	by := "user-2"
	p.PublishSaleCompleted(context.Background(), &domain.Sale{
		ID: 3, ReceiptNumber: "RCP-1", StoreID: 1, TotalAmount: decimal.NewFromInt(2100), PerformedBy: &by,
		Items: []domain.SaleItem{
			{ProductID: 1, BatchID: 10, Quantity: 1, UnitPrice: decimal.NewFromInt(1000)},
			{ProductID: 1, BatchID: 11, Quantity: 1, UnitPrice: decimal.NewFromInt(1100)},
		},
	})

	data := mock.AssertEventPublished(t, messaging.EventSaleCompleted).(messaging.SaleCompletedEvent)
	assert.Equal(t, "user-2", data.PerformedBy)
	require.Len(t, data.Items, 2)
	assert.Equal(t, int64(11), data.Items[1].BatchID)
}

func TestPharmacyEventPublisher_PublishFailureIsLogged(t *testing.T) {
	mock := testutil.NewMockPublisher()
	mock.Err = assert.AnError
	p := events.NewWithPublisher(mock, logger.Nop())

	assert.NotPanics(t, func() {
		p.PublishStockReceived(context.Background(), &domain.StockBatch{ID: 1}, "")
	})
	assert.ErrorIs(t, p.PublishLowStockAlert(context.Background(), []domain.LowStockAlert{{ProductID: 1}}, time.Now()), assert.AnError)
}
