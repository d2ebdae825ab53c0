package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rbritto/stockflow/internal/domain/product"
)

// ProductRepository is an in-memory product store with pessimistic per-product
// stock locks. The lock slot serializes stock mutation for one product; reads
// and other products proceed in parallel.
type ProductRepository struct {
	mu          sync.RWMutex
	products    map[string]*product.Product
	skuIndex    map[string]string
	locks       *keyLocks
	lockTimeout time.Duration
}

func NewProductRepository(lockTimeout time.Duration) *ProductRepository {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &ProductRepository{
		products:    make(map[string]*product.Product),
		skuIndex:    make(map[string]string),
		locks:       newKeyLocks(),
		lockTimeout: lockTimeout,
	}
}

func (r *ProductRepository) Insert(ctx context.Context, p *product.Product) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.SKU != "" {
		if _, exists := r.skuIndex[p.SKU]; exists {
			return product.ErrDuplicateSKU
		}
	}
	r.products[p.ID] = p.Clone()
	if p.SKU != "" {
		r.skuIndex[p.SKU] = p.ID
	}
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*product.Product, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; !exists {
		return product.ErrNotFound
	}
	r.products[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepository) FindDueForRestock(ctx context.Context, day time.Time) ([]*product.Product, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	var due []*product.Product
	for _, p := range r.products {
		if p.RestockDue(day) && !p.NotifiedOn(day) {
			due = append(due, p.Clone())
		}
	}
	return due, nil
}

// AcquireLock obtains the product's exclusive stock slot, then snapshots the
// current state under it. The snapshot is authoritative until Save or Release.
func (r *ProductRepository) AcquireLock(ctx context.Context, productID string) (product.StockLock, error) {
	r.mu.RLock()
	_, exists := r.products[productID]
	r.mu.RUnlock()
	if !exists {
		return nil, product.ErrNotFound
	}

	release, err := r.locks.acquire(ctx, productID, r.lockTimeout)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	p, ok := r.products[productID]
	r.mu.RUnlock()
	if !ok {
		release()
		return nil, product.ErrNotFound
	}

	return &stockLock{repo: r, product: p.Clone(), release: release}, nil
}

type stockLock struct {
	repo    *ProductRepository
	product *product.Product
	release func()
	saved   bool
}

func (l *stockLock) Product() *product.Product { return l.product }

func (l *stockLock) Save(ctx context.Context) error {
	if err := l.repo.Update(ctx, l.product); err != nil {
		return err
	}
	l.saved = true
	l.release()
	return nil
}

func (l *stockLock) Release() {
	l.release()
}
