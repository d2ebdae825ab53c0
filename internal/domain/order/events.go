package order

import "time"

// ConfirmedEvent is emitted after an order's stock has been committed.
type ConfirmedEvent struct {
	OrderID    string
	CustomerID string
	Total      string
	OccurredAt time.Time
}

func (ConfirmedEvent) EventName() string { return "order.confirmed" }

func NewConfirmedEvent(o *Order) ConfirmedEvent {
	return ConfirmedEvent{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Total:      o.TotalAmount.String(),
		OccurredAt: time.Now().UTC(),
	}
}
