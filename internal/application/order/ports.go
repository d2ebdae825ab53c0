package order

import (
	"context"

	"github.com/rbritto/stockflow/internal/application/stock"
	"github.com/rbritto/stockflow/internal/domain/product"
)

type IDGenerator interface {
	NewID() string
}

// StockService is the workflow's view of the stock ledger: the advisory
// pre-check plus the exclusive adjust path.
type StockService interface {
	HasEnoughStock(ctx context.Context, productID string, quantity int) (bool, error)
	AcquireExclusive(ctx context.Context, productID string) (product.StockLock, error)
	Adjust(ctx context.Context, lock product.StockLock, delta int, notify stock.Recipient) (int, error)
}
