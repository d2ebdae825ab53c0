package product

import (
	"context"
	"time"
)

type Repository interface {
	// Insert persists a new product. Returns ErrDuplicateSKU when another
	// product already carries the same SKU.
	Insert(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	// FindDueForRestock returns products whose restock date has arrived and
	// that have not been notified on the given day yet.
	FindDueForRestock(ctx context.Context, day time.Time) ([]*Product, error)
}

// StockLock is an exclusive handle on one product's stock state. Holders must
// call Release promptly; Save commits the mutated product and releases.
type StockLock interface {
	// Product returns the locked product state. Mutations are only visible to
	// other readers after Save.
	Product() *Product
	Save(ctx context.Context) error
	// Release gives up the lock without committing. Safe to call after Save.
	Release()
}

// LockingRepository extends Repository with pessimistic, bounded-wait
// exclusive access to a single product.
type LockingRepository interface {
	Repository
	// AcquireLock blocks up to the repository's configured timeout and then
	// fails with ErrLockContention. ErrNotFound when the product is absent.
	AcquireLock(ctx context.Context, productID string) (StockLock, error)
}
