package customer

import "context"

type Repository interface {
	// Insert persists a new customer. Returns ErrDuplicateKey on email or
	// document collisions.
	Insert(ctx context.Context, c *Customer) error
	FindByID(ctx context.Context, id string) (*Customer, error)
}
