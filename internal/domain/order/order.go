package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrItemNotFound           = errors.New("order: item not found")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	// StatusCancelled is reachable from pending only. No current flow
	// exercises it.
	StatusCancelled Status = "cancelled"
)

// Item is a line of an order. UnitPrice is captured when the item is added so
// confirming later never silently reprices the cart.
type Item struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

func (it Item) Subtotal() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Order is the aggregate owning items, the derived total and the status
// machine. TotalAmount is never stored independently of the items; every item
// mutation recomputes it.
type Order struct {
	ID          string
	CustomerID  string
	Status      Status
	Items       []Item
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(id, customerID string) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:          id,
		CustomerID:  customerID,
		Status:      StatusPending,
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddItem appends a line with the price captured now. Legal only before
// confirmation.
func (o *Order) AddItem(productID string, quantity int, unitPrice decimal.Decimal) error {
	if o.Status != StatusPending {
		return ErrInvalidStateTransition
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	o.Items = append(o.Items, Item{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
	o.recalculateTotal()
	o.touch()
	return nil
}

// RemoveItem removes the first line matching the product id entirely. Partial
// quantity decrements are not supported.
func (o *Order) RemoveItem(productID string) (Item, error) {
	if o.Status != StatusPending {
		return Item{}, ErrInvalidStateTransition
	}
	for i, it := range o.Items {
		if it.ProductID == productID {
			o.Items = append(o.Items[:i], o.Items[i+1:]...)
			o.recalculateTotal()
			o.touch()
			return it, nil
		}
	}
	return Item{}, ErrItemNotFound
}

// Confirm transitions the order to confirmed exactly once.
func (o *Order) Confirm() error {
	if o.Status != StatusPending {
		return ErrInvalidStateTransition
	}
	o.Status = StatusConfirmed
	o.touch()
	return nil
}

func (o *Order) recalculateTotal() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Subtotal())
	}
	o.TotalAmount = total
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]Item(nil), o.Items...)
	return &clone
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
