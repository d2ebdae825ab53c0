package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInvalidName       = errors.New("product: name is required")
	ErrInvalidPrice      = errors.New("product: price must be greater than zero")
	ErrInvalidQuantity   = errors.New("product: quantity must be zero or greater")
	ErrInsufficientStock = errors.New("product: insufficient stock")
	ErrDuplicateSKU      = errors.New("product: sku already exists")
	ErrPastRestockDate   = errors.New("product: restock date cannot be in the past")
	ErrLockContention    = errors.New("product: stock lock contention")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Product is the stock consistency boundary. Quantity is mutated only through
// AdjustStock so the non-negative invariant holds at every point.
type Product struct {
	ID                   string
	Name                 string
	Description          string
	SKU                  string
	Price                decimal.Decimal
	Quantity             int
	MinimumStock         int
	Status               Status
	Version              int
	RestockDate          *time.Time
	LastNotificationSent *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func New(id, name, description, sku string, price decimal.Decimal, quantity, minimumStock int, restockDate *time.Time) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 || minimumStock < 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &Product{
		ID:           id,
		Name:         name,
		Description:  description,
		SKU:          sku,
		Price:        price,
		Quantity:     quantity,
		MinimumStock: minimumStock,
		Status:       StatusActive,
		RestockDate:  restockDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AdjustStock applies a signed delta. A delta that would take the quantity
// below zero is rejected and the product is left unchanged.
func (p *Product) AdjustStock(delta int) error {
	if p.Quantity+delta < 0 {
		return ErrInsufficientStock
	}
	p.Quantity += delta
	p.Version++
	p.touch()
	return nil
}

func (p *Product) HasEnoughStock(quantity int) bool {
	return p.Quantity >= quantity
}

func (p *Product) NeedsRestock() bool {
	return p.Quantity <= p.MinimumStock
}

func (p *Product) UpdatePrice(price decimal.Decimal) error {
	if price.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}
	p.Price = price
	p.touch()
	return nil
}

// UpdateRestockDate re-arms the restock monitor by clearing the last
// notification stamp.
func (p *Product) UpdateRestockDate(date *time.Time) error {
	if date != nil && date.Before(Day(time.Now().UTC())) {
		return ErrPastRestockDate
	}
	p.RestockDate = date
	p.LastNotificationSent = nil
	p.touch()
	return nil
}

// MarkNotified stamps the given day as the last restock notification, which
// suppresses repeat notifications within that day.
func (p *Product) MarkNotified(day time.Time) {
	d := Day(day)
	p.LastNotificationSent = &d
	p.touch()
}

// NotifiedOn reports whether a restock notification was already sent on the
// given day or later.
func (p *Product) NotifiedOn(day time.Time) bool {
	return p.LastNotificationSent != nil && !p.LastNotificationSent.Before(Day(day))
}

// RestockDue reports whether the product's restock date has arrived.
func (p *Product) RestockDue(day time.Time) bool {
	return p.RestockDate != nil && !p.RestockDate.After(Day(day))
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	if p.RestockDate != nil {
		d := *p.RestockDate
		clone.RestockDate = &d
	}
	if p.LastNotificationSent != nil {
		d := *p.LastNotificationSent
		clone.LastNotificationSent = &d
	}
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

// Day truncates a timestamp to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
