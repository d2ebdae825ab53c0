package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/rbritto/stockflow/internal/domain/outbox"
	"github.com/rbritto/stockflow/internal/domain/product"
	"github.com/rbritto/stockflow/internal/notification"

	"go.uber.org/zap"
)

// Notifier is the outbound notification capability; satisfied by
// notification.Facade.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LowStockWorker turns LowStock events into notifications. Running it off the
// event bus keeps slow external channels out of the stock critical path.
// Delivery failure is logged, never escalated.
type LowStockWorker struct {
	notifier   Notifier
	subscriber outbox.Subscriber
	log        *zap.Logger
}

func NewLowStockWorker(subscriber outbox.Subscriber, notifier Notifier, logger *zap.Logger) *LowStockWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LowStockWorker{
		notifier:   notifier,
		subscriber: subscriber,
		log:        logger.With(zap.String("component", "low_stock_worker")),
	}
}

func (w *LowStockWorker) Start() {
	if w.subscriber == nil || w.notifier == nil {
		return
	}
	w.subscriber.Subscribe(product.LowStockEvent{}.EventName(), w.handle)
}

func (w *LowStockWorker) handle(ctx context.Context, e outbox.Event) error {
	evt, ok := e.(product.LowStockEvent)
	if !ok {
		return nil
	}

	to := evt.RecipientEmail
	if to == "" {
		to = evt.RecipientPhone
	}
	if to == "" {
		w.log.Warn("low_stock_alert_dropped_no_recipient",
			zap.String("product_id", evt.ProductID),
		)
		return nil
	}

	subject := "Low stock alert - " + evt.Name
	body := fmt.Sprintf(
		"Product running low on stock:\n\nName: %s\nSKU: %s\nCurrent stock: %d\nMinimum stock: %d\n\nPlease arrange replenishment.",
		evt.Name, evt.SKU, evt.Quantity, evt.MinimumStock,
	)

	err := w.notifier.Send(ctx, to, subject, body)
	var deliveryErr *notification.DeliveryError
	if errors.As(err, &deliveryErr) {
		// Advisory side channel: total delivery failure is observable but
		// must not fail anything upstream.
		w.log.Error("low_stock_alert_undeliverable",
			zap.String("product_id", evt.ProductID),
			zap.Int("failed_channels", len(deliveryErr.Causes)),
			zap.Error(err),
		)
		return nil
	}
	if err != nil {
		w.log.Error("low_stock_alert_failed",
			zap.String("product_id", evt.ProductID),
			zap.Error(err),
		)
		return nil
	}

	w.log.Info("low_stock_alert_sent",
		zap.String("product_id", evt.ProductID),
		zap.Int("quantity", evt.Quantity),
	)
	return nil
}
