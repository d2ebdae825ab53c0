package restock

import (
	"context"
	"fmt"
	"time"

	"github.com/rbritto/stockflow/internal/domain/product"
	"github.com/rbritto/stockflow/internal/observability"

	"go.uber.org/zap"
)

// Notifier is the outbound notification capability; satisfied by
// notification.Facade.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Monitor is the periodic restock policy: every product whose restock date
// has arrived and that was not yet notified today gets one notification to
// the operations recipient. Stamping lastNotificationSent makes re-triggered
// runs within the same day no-ops.
type Monitor struct {
	products  product.Repository
	notifier  Notifier
	recipient string

	log      *zap.Logger
	outcomes observability.Counter
	now      func() time.Time
}

func NewMonitor(
	products product.Repository,
	notifier Notifier,
	recipient string,
	logger *zap.Logger,
	metrics observability.Metrics,
) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &Monitor{
		products:  products,
		notifier:  notifier,
		recipient: recipient,
		log:       logger.With(zap.String("component", "restock_monitor")),
		outcomes:  metrics.Counter(observability.MRestockNotified),
		now:       time.Now,
	}
}

// Run executes one scan. A notification failure for one product never stops
// the remaining products from being processed.
func (m *Monitor) Run(ctx context.Context) error {
	today := product.Day(m.now())

	due, err := m.products.FindDueForRestock(ctx, today)
	if err != nil {
		return fmt.Errorf("restock monitor: scan: %w", err)
	}

	for _, p := range due {
		m.notifyProduct(ctx, p, today)
	}

	m.log.Info("restock_scan_done", zap.Int("products_due", len(due)))
	return nil
}

// Start runs the policy on a fixed cadence until the context is canceled.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Run(ctx); err != nil {
					m.log.Error("restock_scan_failed", zap.Error(err))
				}
			}
		}
	}()
}

func (m *Monitor) notifyProduct(ctx context.Context, p *product.Product, today time.Time) {
	subject := "Restock required - " + p.Name
	restockDate := ""
	if p.RestockDate != nil {
		restockDate = p.RestockDate.Format("2006-01-02")
	}
	body := fmt.Sprintf(
		"Product needs restocking:\n\nName: %s\nSKU: %s\nCurrent stock: %d\nMinimum stock: %d\nExpected date: %s\n\nPlease arrange replenishment.",
		p.Name, p.SKU, p.Quantity, p.MinimumStock, restockDate,
	)

	outcome := "sent"
	if err := m.notifier.Send(ctx, m.recipient, subject, body); err != nil {
		outcome = "failed"
		m.log.Error("restock_notification_failed",
			zap.String("product_id", p.ID),
			zap.String("sku", p.SKU),
			zap.Error(err),
		)
	}
	m.outcomes.Add(1, observability.L("outcome", outcome))

	// Stamp even after a failed attempt: the idempotence guard is about the
	// scheduled job re-running within the day, not about delivery success.
	p.MarkNotified(today)
	if err := m.products.Update(ctx, p); err != nil {
		m.log.Error("restock_stamp_failed",
			zap.String("product_id", p.ID),
			zap.Error(err),
		)
	}
}
