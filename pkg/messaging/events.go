package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	// Stock events
	EventStockReceived = "pharmacy.stock.received"

	// Sale events
	EventSaleCompleted = "pharmacy.sale.completed"

	// Alert events
	EventLowStockAlert = "pharmacy.alert.low_stock"
	EventExpiryAlert   = "pharmacy.alert.expiry"

	// Inbound from purchasing
	EventGoodsReceived = "purchasing.goods.received"
)

// Exchange names
const (
	ExchangePharmacyEvents   = "pharmacy.events"
	ExchangePurchasingEvents = "purchasing.events"
	ExchangeDeadLetter       = "dlx.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// StockReceivedEvent is published when a batch is received into a store
type StockReceivedEvent struct {
	BatchID      int64           `json:"batch_id"`
	ProductID    int64           `json:"product_id"`
	StoreID      int64           `json:"store_id"`
	BatchNumber  string          `json:"batch_number"`
	ExpiryDate   string          `json:"expiry_date"`
	Quantity     int             `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	PerformedBy  string          `json:"performed_by"`
}

// SaleCompletedEvent is published after a sale transaction commits
type SaleCompletedEvent struct {
	SaleID        int64              `json:"sale_id"`
	ReceiptNumber string             `json:"receipt_number"`
	StoreID       int64              `json:"store_id"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	PerformedBy   string             `json:"performed_by"`
	Items         []SaleCompletedRow `json:"items"`
}

// SaleCompletedRow is one batch slice dispensed by a sale
type SaleCompletedRow struct {
	ProductID int64           `json:"product_id"`
	BatchID   int64           `json:"batch_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LowStockAlertEvent carries the current low-stock list
type LowStockAlertEvent struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Items       []LowStockAlertRow `json:"items"`
}

// LowStockAlertRow is one product at or below its minimum
type LowStockAlertRow struct {
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name"`
	CurrentQuantity int    `json:"current_quantity"`
	MinStock        int    `json:"min_stock"`
}

// ExpiryAlertEvent carries the batches expiring within the lookahead window
type ExpiryAlertEvent struct {
	GeneratedAt   time.Time        `json:"generated_at"`
	LookaheadDays int              `json:"lookahead_days"`
	Items         []ExpiryAlertRow `json:"items"`
}

// ExpiryAlertRow is one batch nearing expiry
type ExpiryAlertRow struct {
	BatchID     int64  `json:"batch_id"`
	ProductName string `json:"product_name"`
	BatchNumber string `json:"batch_number"`
	ExpiryDate  string `json:"expiry_date"`
	DaysLeft    int    `json:"days_left"`
	Quantity    int    `json:"quantity"`
	StoreName   string `json:"store_name"`
}

// GoodsReceivedEvent is consumed from purchasing when a delivery is booked in
type GoodsReceivedEvent struct {
	ProductCode  string          `json:"product_code"`
	StoreCode    string          `json:"store_code"`
	BatchNumber  string          `json:"batch_number"`
	ExpiryDate   string          `json:"expiry_date"`
	Quantity     int             `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}
