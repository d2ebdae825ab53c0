package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/rbritto/stockflow/internal/domain/outbox"
	"github.com/rbritto/stockflow/internal/domain/product"
	"github.com/rbritto/stockflow/internal/observability"

	"go.uber.org/zap"
)

const publishTimeout = 300 * time.Millisecond

// AvailabilityCache holds the latest committed quantity per product for the
// advisory availability pre-check.
type AvailabilityCache interface {
	GetStock(ctx context.Context, productID string) (int, bool, error)
	SetStock(ctx context.Context, productID string, quantity int) error
}

// Recipient carries where low-stock alerts raised by an adjustment should go.
// Zero value means no addressable party; the alert is dropped with a log.
type Recipient struct {
	Email string
	Phone string
}

// Ledger owns stock mutation for products. The exclusive lock acquired through
// AcquireExclusive is the only serialization point per product; everything
// else proceeds in parallel. Notifications and events are published after the
// commit, never inside the critical section.
type Ledger struct {
	products  product.LockingRepository
	cache     AvailabilityCache
	publisher outbox.Publisher
	threshold int

	log             *zap.Logger
	adjustments     observability.Counter
	publishFailures observability.Counter
}

func NewLedger(
	products product.LockingRepository,
	cache AvailabilityCache,
	publisher outbox.Publisher,
	lowStockThreshold int,
	logger *zap.Logger,
	metrics observability.Metrics,
) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &Ledger{
		products:        products,
		cache:           cache,
		publisher:       publisher,
		threshold:       lowStockThreshold,
		log:             logger.With(zap.String("component", "stock_ledger")),
		adjustments:     metrics.Counter(observability.MStockAdjustments),
		publishFailures: metrics.Counter(observability.MEventPublishFailed),
	}
}

// AcquireExclusive obtains exclusive access to one product's stock state.
// Blocks up to the repository's configured timeout, then fails with
// product.ErrLockContention.
func (l *Ledger) AcquireExclusive(ctx context.Context, productID string) (product.StockLock, error) {
	return l.products.AcquireLock(ctx, productID)
}

// Adjust applies a signed delta under the given lock and commits. On success
// it returns the new quantity, refreshes the availability cache, emits a
// StockUpdated event and, when the quantity fell below the threshold, a
// LowStock event addressed to the given recipient. Event delivery is
// best-effort and never fails the adjustment.
func (l *Ledger) Adjust(ctx context.Context, lock product.StockLock, delta int, notify Recipient) (int, error) {
	p := lock.Product()
	if err := p.AdjustStock(delta); err != nil {
		return 0, err
	}
	if err := lock.Save(ctx); err != nil {
		return 0, fmt.Errorf("stock: persist adjustment: %w", err)
	}

	direction := "increase"
	if delta < 0 {
		direction = "decrease"
	}
	l.adjustments.Add(1, observability.L("direction", direction))

	if l.cache != nil {
		if err := l.cache.SetStock(ctx, p.ID, p.Quantity); err != nil {
			l.log.Warn("stock_cache_refresh_failed",
				zap.String("product_id", p.ID),
				zap.Error(err),
			)
		}
	}

	l.publish(ctx, product.NewStockUpdatedEvent(p.ID, delta, p.Quantity))

	if p.Quantity < l.threshold {
		l.publish(ctx, product.LowStockEvent{
			ProductID:      p.ID,
			Name:           p.Name,
			SKU:            p.SKU,
			Quantity:       p.Quantity,
			MinimumStock:   p.MinimumStock,
			RecipientEmail: notify.Email,
			RecipientPhone: notify.Phone,
			OccurredAt:     time.Now().UTC(),
		})
	}

	return p.Quantity, nil
}

// HasEnoughStock is the lock-free availability pre-check. It is advisory
// only; callers must re-check inside the exclusive adjust path before
// committing.
func (l *Ledger) HasEnoughStock(ctx context.Context, productID string, quantity int) (bool, error) {
	if l.cache != nil {
		qty, ok, err := l.cache.GetStock(ctx, productID)
		if err != nil {
			l.log.Warn("stock_cache_read_failed",
				zap.String("product_id", productID),
				zap.Error(err),
			)
		} else if ok {
			return qty >= quantity, nil
		}
	}

	p, err := l.products.FindByID(ctx, productID)
	if err != nil {
		return false, err
	}
	if l.cache != nil {
		if err := l.cache.SetStock(ctx, productID, p.Quantity); err != nil {
			l.log.Warn("stock_cache_refresh_failed",
				zap.String("product_id", productID),
				zap.Error(err),
			)
		}
	}
	return p.HasEnoughStock(quantity), nil
}

func (l *Ledger) publish(ctx context.Context, e outbox.Event) {
	if l.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := l.publisher.Publish(pubCtx, e); err != nil {
		l.publishFailures.Add(1, observability.L("event", e.EventName()))
		l.log.Warn("event_publish_failed",
			zap.String("event", e.EventName()),
			zap.Error(err),
		)
	}
}
