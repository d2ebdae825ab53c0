package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rbritto/stockflow/internal/domain/product"

	"github.com/shopspring/decimal"
)

func seedProduct(t *testing.T, repo *ProductRepository, id, sku string, quantity int) *product.Product {
	t.Helper()
	p, err := product.New(id, "Product "+id, "", sku, decimal.NewFromInt(10), quantity, 0, nil)
	if err != nil {
		t.Fatalf("product.New: %v", err)
	}
	if err := repo.Insert(context.Background(), p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return p
}

func TestInsertDuplicateSKU(t *testing.T) {
	repo := NewProductRepository(time.Second)
	seedProduct(t, repo, "p1", "SKU-1", 5)

	p2, err := product.New("p2", "Other", "", "SKU-1", decimal.NewFromInt(10), 5, 0, nil)
	if err != nil {
		t.Fatalf("product.New: %v", err)
	}
	if err := repo.Insert(context.Background(), p2); !errors.Is(err, product.ErrDuplicateSKU) {
		t.Errorf("Insert err = %v, want ErrDuplicateSKU", err)
	}
}

func TestFindByIDReturnsClone(t *testing.T) {
	repo := NewProductRepository(time.Second)
	seedProduct(t, repo, "p1", "SKU-1", 5)

	got, err := repo.FindByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	got.Quantity = 999

	again, err := repo.FindByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if again.Quantity != 5 {
		t.Errorf("stored quantity mutated through returned value: %d", again.Quantity)
	}
}

func TestAcquireLockSavePersistsAndReleases(t *testing.T) {
	repo := NewProductRepository(time.Second)
	seedProduct(t, repo, "p1", "SKU-1", 5)
	ctx := context.Background()

	lock, err := repo.AcquireLock(ctx, "p1")
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if err := lock.Product().AdjustStock(-2); err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	if err := lock.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}

	p, err := repo.FindByID(ctx, "p1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if p.Quantity != 3 {
		t.Errorf("Quantity = %d, want 3", p.Quantity)
	}

	// Save released the slot, so a second acquire must not block.
	lock2, err := repo.AcquireLock(ctx, "p1")
	if err != nil {
		t.Fatalf("AcquireLock after Save: %v", err)
	}
	lock2.Release()
}

func TestAcquireLockContentionTimesOut(t *testing.T) {
	repo := NewProductRepository(50 * time.Millisecond)
	seedProduct(t, repo, "p1", "SKU-1", 5)
	ctx := context.Background()

	lock, err := repo.AcquireLock(ctx, "p1")
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer lock.Release()

	if _, err := repo.AcquireLock(ctx, "p1"); !errors.Is(err, product.ErrLockContention) {
		t.Errorf("second AcquireLock err = %v, want ErrLockContention", err)
	}
}

func TestAcquireLockDifferentProductsDoNotBlock(t *testing.T) {
	repo := NewProductRepository(50 * time.Millisecond)
	seedProduct(t, repo, "p1", "SKU-1", 5)
	seedProduct(t, repo, "p2", "SKU-2", 5)
	ctx := context.Background()

	lock1, err := repo.AcquireLock(ctx, "p1")
	if err != nil {
		t.Fatalf("AcquireLock p1: %v", err)
	}
	defer lock1.Release()

	lock2, err := repo.AcquireLock(ctx, "p2")
	if err != nil {
		t.Fatalf("AcquireLock p2 blocked by p1: %v", err)
	}
	lock2.Release()
}

func TestAcquireLockUnknownProduct(t *testing.T) {
	repo := NewProductRepository(time.Second)
	if _, err := repo.AcquireLock(context.Background(), "missing"); !errors.Is(err, product.ErrNotFound) {
		t.Errorf("AcquireLock err = %v, want ErrNotFound", err)
	}
}

func TestReleaseWithoutSaveDiscards(t *testing.T) {
	repo := NewProductRepository(time.Second)
	seedProduct(t, repo, "p1", "SKU-1", 5)
	ctx := context.Background()

	lock, err := repo.AcquireLock(ctx, "p1")
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	if err := lock.Product().AdjustStock(-2); err != nil {
		t.Fatalf("AdjustStock: %v", err)
	}
	lock.Release()

	p, err := repo.FindByID(ctx, "p1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if p.Quantity != 5 {
		t.Errorf("Quantity = %d, want 5 after discarded lock", p.Quantity)
	}
}

func TestConcurrentLockedDecrements(t *testing.T) {
	repo := NewProductRepository(5 * time.Second)
	seedProduct(t, repo, "p1", "SKU-1", 100)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock, err := repo.AcquireLock(ctx, "p1")
			if err != nil {
				t.Errorf("AcquireLock: %v", err)
				return
			}
			if err := lock.Product().AdjustStock(-5); err != nil {
				t.Errorf("AdjustStock: %v", err)
				lock.Release()
				return
			}
			if err := lock.Save(ctx); err != nil {
				t.Errorf("Save: %v", err)
			}
		}()
	}
	wg.Wait()

	p, err := repo.FindByID(ctx, "p1")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if p.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0 after 20 decrements of 5", p.Quantity)
	}
}

func TestFindDueForRestock(t *testing.T) {
	repo := NewProductRepository(time.Second)
	ctx := context.Background()
	today := product.Day(time.Now().UTC())

	due := seedProduct(t, repo, "p1", "SKU-1", 2)
	due.RestockDate = &today
	if err := repo.Update(ctx, due); err != nil {
		t.Fatalf("Update: %v", err)
	}

	future := seedProduct(t, repo, "p2", "SKU-2", 2)
	futureDate := today.AddDate(0, 0, 5)
	future.RestockDate = &futureDate
	if err := repo.Update(ctx, future); err != nil {
		t.Fatalf("Update: %v", err)
	}

	notified := seedProduct(t, repo, "p3", "SKU-3", 2)
	notified.RestockDate = &today
	notified.MarkNotified(today)
	if err := repo.Update(ctx, notified); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := repo.FindDueForRestock(ctx, today)
	if err != nil {
		t.Fatalf("FindDueForRestock: %v", err)
	}
	if len(got) != 1 || got[0].ID != "p1" {
		t.Errorf("due = %v, want exactly p1", ids(got))
	}
}

func ids(ps []*product.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}
