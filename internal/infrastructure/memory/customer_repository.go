package memory

import (
	"context"
	"sync"

	"github.com/rbritto/stockflow/internal/domain/customer"
)

type CustomerRepository struct {
	mu        sync.RWMutex
	customers map[string]*customer.Customer
	emails    map[string]string
	documents map[string]string
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{
		customers: make(map[string]*customer.Customer),
		emails:    make(map[string]string),
		documents: make(map[string]string),
	}
}

func (r *CustomerRepository) Insert(ctx context.Context, c *customer.Customer) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.emails[c.Email]; exists {
		return customer.ErrDuplicateKey
	}
	if c.Document != "" {
		if _, exists := r.documents[c.Document]; exists {
			return customer.ErrDuplicateKey
		}
	}

	r.customers[c.ID] = c.Clone()
	r.emails[c.Email] = c.ID
	if c.Document != "" {
		r.documents[c.Document] = c.ID
	}
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c.Clone(), nil
}
