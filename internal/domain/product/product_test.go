package product

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestProduct(t *testing.T, quantity, minimum int) *Product {
	t.Helper()
	p, err := New("product-1", "Keyboard", "", "KB-1", decimal.NewFromInt(100), quantity, minimum, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name     string
		prodName string
		price    decimal.Decimal
		quantity int
		minimum  int
		wantErr  error
	}{
		{"empty name", "", decimal.NewFromInt(10), 1, 1, ErrInvalidName},
		{"zero price", "Keyboard", decimal.Zero, 1, 1, ErrInvalidPrice},
		{"negative price", "Keyboard", decimal.NewFromInt(-1), 1, 1, ErrInvalidPrice},
		{"negative quantity", "Keyboard", decimal.NewFromInt(10), -1, 1, ErrInvalidQuantity},
		{"negative minimum", "Keyboard", decimal.NewFromInt(10), 1, -1, ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New("id", tc.prodName, "", "SKU", tc.price, tc.quantity, tc.minimum, nil)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("New err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestAdjustStock(t *testing.T) {
	p := newTestProduct(t, 10, 2)

	if err := p.AdjustStock(-4); err != nil {
		t.Fatalf("AdjustStock(-4): %v", err)
	}
	if p.Quantity != 6 {
		t.Errorf("Quantity = %d, want 6", p.Quantity)
	}

	if err := p.AdjustStock(-7); !errors.Is(err, ErrInsufficientStock) {
		t.Errorf("AdjustStock(-7) err = %v, want ErrInsufficientStock", err)
	}
	if p.Quantity != 6 {
		t.Errorf("Quantity after rejected adjust = %d, want 6", p.Quantity)
	}

	if err := p.AdjustStock(-6); err != nil {
		t.Fatalf("AdjustStock(-6): %v", err)
	}
	if p.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0", p.Quantity)
	}
}

func TestAdjustStockBumpsVersion(t *testing.T) {
	p := newTestProduct(t, 5, 0)
	v := p.Version
	if err := p.AdjustStock(1); err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if p.Version != v+1 {
		t.Errorf("Version = %d, want %d", p.Version, v+1)
	}
}

func TestHasEnoughStock(t *testing.T) {
	p := newTestProduct(t, 5, 0)
	if !p.HasEnoughStock(5) {
		t.Error("HasEnoughStock(5) = false, want true")
	}
	if p.HasEnoughStock(6) {
		t.Error("HasEnoughStock(6) = true, want false")
	}
}

func TestUpdateRestockDateRejectsPast(t *testing.T) {
	p := newTestProduct(t, 5, 0)
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	if err := p.UpdateRestockDate(&yesterday); !errors.Is(err, ErrPastRestockDate) {
		t.Errorf("UpdateRestockDate err = %v, want ErrPastRestockDate", err)
	}
}

func TestUpdateRestockDateRearmsNotification(t *testing.T) {
	p := newTestProduct(t, 5, 0)
	today := time.Now().UTC()
	p.MarkNotified(today)
	if !p.NotifiedOn(today) {
		t.Fatal("NotifiedOn(today) = false after MarkNotified")
	}

	nextWeek := today.AddDate(0, 0, 7)
	if err := p.UpdateRestockDate(&nextWeek); err != nil {
		t.Fatalf("UpdateRestockDate: %v", err)
	}
	if p.LastNotificationSent != nil {
		t.Error("LastNotificationSent not cleared by UpdateRestockDate")
	}
}

func TestRestockDue(t *testing.T) {
	p := newTestProduct(t, 5, 0)
	today := Day(time.Now().UTC())

	if p.RestockDue(today) {
		t.Error("RestockDue with nil date = true, want false")
	}

	tomorrow := today.AddDate(0, 0, 1)
	p.RestockDate = &tomorrow
	if p.RestockDue(today) {
		t.Error("RestockDue before date = true, want false")
	}
	if !p.RestockDue(tomorrow) {
		t.Error("RestockDue on date = false, want true")
	}
	if !p.RestockDue(tomorrow.AddDate(0, 0, 3)) {
		t.Error("RestockDue after date = false, want true")
	}
}

func TestNotifiedOnSameDayOnly(t *testing.T) {
	p := newTestProduct(t, 5, 0)
	today := Day(time.Now().UTC())
	p.MarkNotified(today)

	if !p.NotifiedOn(today) {
		t.Error("NotifiedOn(today) = false, want true")
	}
	if p.NotifiedOn(today.AddDate(0, 0, 1)) {
		t.Error("NotifiedOn(tomorrow) = true, want false")
	}
}
