package product

import "time"

// StockUpdatedEvent is emitted on every committed stock adjustment, for
// external metrics and audit consumers. Delivery is best-effort.
type StockUpdatedEvent struct {
	ProductID     string
	QuantityDelta int
	NewQuantity   int
	OccurredAt    time.Time
}

func (StockUpdatedEvent) EventName() string { return "stock.updated" }

func NewStockUpdatedEvent(productID string, delta, newQuantity int) StockUpdatedEvent {
	return StockUpdatedEvent{
		ProductID:     productID,
		QuantityDelta: delta,
		NewQuantity:   newQuantity,
		OccurredAt:    time.Now().UTC(),
	}
}

// LowStockEvent is emitted after a committed adjustment leaves the quantity
// below the configured threshold. Notification happens outside the stock
// critical section by handling this event asynchronously.
type LowStockEvent struct {
	ProductID      string
	Name           string
	SKU            string
	Quantity       int
	MinimumStock   int
	RecipientEmail string
	RecipientPhone string
	OccurredAt     time.Time
}

func (LowStockEvent) EventName() string { return "stock.low" }
