package order

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestAddItemRecalculatesTotal(t *testing.T) {
	o := New("order-1", "customer-1")

	if err := o.AddItem("product-a", 2, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := o.AddItem("product-b", 1, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	want := decimal.NewFromInt(250)
	if !o.TotalAmount.Equal(want) {
		t.Errorf("TotalAmount = %s, want %s", o.TotalAmount, want)
	}
}

func TestRemoveItemRecalculatesTotal(t *testing.T) {
	o := New("order-1", "customer-1")
	if err := o.AddItem("product-a", 2, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := o.AddItem("product-b", 1, decimal.NewFromInt(50)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	removed, err := o.RemoveItem("product-a")
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if removed.Quantity != 2 {
		t.Errorf("removed quantity = %d, want 2", removed.Quantity)
	}

	want := decimal.NewFromInt(50)
	if !o.TotalAmount.Equal(want) {
		t.Errorf("TotalAmount = %s, want %s", o.TotalAmount, want)
	}
	if len(o.Items) != 1 {
		t.Errorf("items left = %d, want 1", len(o.Items))
	}
}

func TestRemoveItemNotFound(t *testing.T) {
	o := New("order-1", "customer-1")
	if err := o.AddItem("product-a", 1, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if _, err := o.RemoveItem("product-x"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("RemoveItem err = %v, want ErrItemNotFound", err)
	}
	want := decimal.NewFromInt(10)
	if !o.TotalAmount.Equal(want) {
		t.Errorf("TotalAmount changed on failed remove: %s", o.TotalAmount)
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	o := New("order-1", "customer-1")
	for _, qty := range []int{0, -1} {
		if err := o.AddItem("product-a", qty, decimal.NewFromInt(10)); !errors.Is(err, ErrInvalidQuantity) {
			t.Errorf("AddItem(qty=%d) err = %v, want ErrInvalidQuantity", qty, err)
		}
	}
	if len(o.Items) != 0 {
		t.Errorf("items = %d, want 0", len(o.Items))
	}
}

func TestUnitPriceCapturedAtAddTime(t *testing.T) {
	o := New("order-1", "customer-1")
	price := decimal.NewFromFloat(19.90)
	if err := o.AddItem("product-a", 3, price); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	// A later catalog price change must not affect the captured line price.
	if !o.Items[0].UnitPrice.Equal(price) {
		t.Errorf("UnitPrice = %s, want %s", o.Items[0].UnitPrice, price)
	}
	want := decimal.NewFromFloat(59.70)
	if !o.TotalAmount.Equal(want) {
		t.Errorf("TotalAmount = %s, want %s", o.TotalAmount, want)
	}
}

func TestConfirmOnce(t *testing.T) {
	o := New("order-1", "customer-1")
	if err := o.AddItem("product-a", 1, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	if err := o.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if o.Status != StatusConfirmed {
		t.Errorf("Status = %s, want %s", o.Status, StatusConfirmed)
	}

	if err := o.Confirm(); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("second Confirm err = %v, want ErrInvalidStateTransition", err)
	}
}

func TestMutationsRejectedAfterConfirm(t *testing.T) {
	o := New("order-1", "customer-1")
	if err := o.AddItem("product-a", 1, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := o.Confirm(); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	if err := o.AddItem("product-b", 1, decimal.NewFromInt(5)); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("AddItem after confirm err = %v, want ErrInvalidStateTransition", err)
	}
	if _, err := o.RemoveItem("product-a"); !errors.Is(err, ErrInvalidStateTransition) {
		t.Errorf("RemoveItem after confirm err = %v, want ErrInvalidStateTransition", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	o := New("order-1", "customer-1")
	if err := o.AddItem("product-a", 1, decimal.NewFromInt(10)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	clone := o.Clone()
	if err := clone.AddItem("product-b", 1, decimal.NewFromInt(5)); err != nil {
		t.Fatalf("AddItem on clone: %v", err)
	}

	if len(o.Items) != 1 {
		t.Errorf("original items = %d, want 1", len(o.Items))
	}
}
