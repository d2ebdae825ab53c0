package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbritto/stockflow/internal/application/stock"
	domcustomer "github.com/rbritto/stockflow/internal/domain/customer"
	domain "github.com/rbritto/stockflow/internal/domain/order"
	"github.com/rbritto/stockflow/internal/domain/outbox"
	domproduct "github.com/rbritto/stockflow/internal/domain/product"
	"github.com/rbritto/stockflow/internal/observability"
	"github.com/rbritto/stockflow/internal/pkg/logging"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	useCaseCreate     = "order.create"
	useCaseAddItem    = "order.add_item"
	useCaseRemoveItem = "order.remove_item"
	useCaseConfirm    = "order.confirm"
	spanPrefix        = "UC."
)

// ErrValidation marks malformed input rejected before reaching the ledger or
// the aggregate.
var ErrValidation = errors.New("order workflow: validation")

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Workflow coordinates the order aggregate with the stock ledger. Each
// operation is one logical transaction: createOrder and addItem only validate
// availability; confirmOrder is the single point where stock is committed.
type Workflow struct {
	orders    domain.Repository
	customers domcustomer.Repository
	products  domproduct.Repository
	ledger    StockService
	idGen     IDGenerator
	publisher outbox.Publisher

	tracer       trace.Tracer
	log          *zap.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewWorkflow(
	orders domain.Repository,
	customers domcustomer.Repository,
	products domproduct.Repository,
	ledger StockService,
	idGen IDGenerator,
	publisher outbox.Publisher,
	logger *zap.Logger,
	metrics observability.Metrics,
) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = observability.NopMetrics()
	}
	return &Workflow{
		orders:       orders,
		customers:    customers,
		products:     products,
		ledger:       ledger,
		idGen:        idGen,
		publisher:    publisher,
		tracer:       otel.Tracer("stockflow/order"),
		log:          logger.With(zap.String("component", "order_workflow")),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

type ItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	CustomerID string
	Items      []ItemInput
}

// instrument opens a span and returns a closer that records RED metrics, span
// status and the outcome log line.
func (w *Workflow) instrument(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := w.tracer.Start(ctx, spanPrefix+spanName, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, func(err error) {
		lat := time.Since(start).Seconds()
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		span.End()

		w.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
		w.durHistogram.Observe(lat, observability.L("use_case", useCase))

		fields := []zap.Field{
			zap.String("use_case", useCase),
			zap.String("outcome", outcome),
			zap.Float64("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		logging.WithTrace(ctx, w.log).Info("use_case_done", fields...)
	}
}

// CreateOrder builds a pending order after validating stock for every
// requested item. Any item failing the availability check aborts the whole
// order; nothing is persisted. Stock is not reserved here; the decrement
// happens at confirm time.
func (w *Workflow) CreateOrder(ctx context.Context, input CreateOrderInput) (_ *domain.Order, err error) {
	ctx, done := w.instrument(ctx, useCaseCreate, "CreateOrder",
		attribute.String("order.customer_id", input.CustomerID),
		attribute.Int("order.item_count", len(input.Items)),
	)
	defer func() { done(err) }()

	if input.CustomerID == "" {
		return nil, newValidation("customer id is required")
	}
	if len(input.Items) == 0 {
		return nil, newValidation("at least one item is required")
	}
	for _, it := range input.Items {
		if it.ProductID == "" {
			return nil, newValidation("product id is required")
		}
		if it.Quantity <= 0 {
			return nil, newValidation("quantity must be greater than zero")
		}
	}

	cust, err := w.customers.FindByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	o := domain.New(w.idGen.NewID(), cust.ID)
	for _, it := range input.Items {
		prod, err := w.products.FindByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		ok, err := w.ledger.HasEnoughStock(ctx, prod.ID, it.Quantity)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: product %s", domproduct.ErrInsufficientStock, prod.ID)
		}
		if err := o.AddItem(prod.ID, it.Quantity, prod.Price); err != nil {
			return nil, err
		}
	}

	if err := w.orders.Insert(ctx, o); err != nil {
		return nil, fmt.Errorf("order workflow: persist: %w", err)
	}
	return o, nil
}

// AddItem appends one line to an existing pending order after the advisory
// stock check.
func (w *Workflow) AddItem(ctx context.Context, orderID, productID string, quantity int) (_ *domain.Order, err error) {
	ctx, done := w.instrument(ctx, useCaseAddItem, "AddItem",
		attribute.String("order.id", orderID),
		attribute.String("order.product_id", productID),
	)
	defer func() { done(err) }()

	if quantity <= 0 {
		return nil, newValidation("quantity must be greater than zero")
	}

	o, err := w.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	prod, err := w.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	ok, err := w.ledger.HasEnoughStock(ctx, prod.ID, quantity)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: product %s", domproduct.ErrInsufficientStock, prod.ID)
	}

	if err := o.AddItem(prod.ID, quantity, prod.Price); err != nil {
		return nil, err
	}
	if err := w.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("order workflow: persist: %w", err)
	}
	return o, nil
}

// RemoveItem removes the matching line entirely and recomputes the total.
func (w *Workflow) RemoveItem(ctx context.Context, orderID, productID string) (_ *domain.Order, err error) {
	ctx, done := w.instrument(ctx, useCaseRemoveItem, "RemoveItem",
		attribute.String("order.id", orderID),
		attribute.String("order.product_id", productID),
	)
	defer func() { done(err) }()

	o, err := w.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := o.RemoveItem(productID); err != nil {
		return nil, err
	}
	if err := w.orders.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("order workflow: persist: %w", err)
	}
	return o, nil
}

// ConfirmOrder transitions the order to confirmed, then commits the stock
// decrement for every item through the exclusive adjust path. A failure on
// any item re-increments the already-applied decrements before surfacing the
// error, so no partial decrement of this order remains committed.
func (w *Workflow) ConfirmOrder(ctx context.Context, orderID string) (_ *domain.Order, err error) {
	ctx, done := w.instrument(ctx, useCaseConfirm, "ConfirmOrder",
		attribute.String("order.id", orderID),
	)
	defer func() { done(err) }()

	o, err := w.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	cust, err := w.customers.FindByID(ctx, o.CustomerID)
	if err != nil {
		return nil, err
	}

	// Fail fast on double confirm before touching any stock.
	if err := o.Confirm(); err != nil {
		return nil, err
	}

	notify := stock.Recipient{Email: cust.Email, Phone: cust.PrimaryPhone()}

	var applied []domain.Item
	for _, it := range o.Items {
		if err := w.commitItem(ctx, it, notify); err != nil {
			w.compensate(ctx, o.ID, applied)
			return nil, err
		}
		applied = append(applied, it)
	}

	if err := w.orders.Update(ctx, o); err != nil {
		w.compensate(ctx, o.ID, applied)
		return nil, fmt.Errorf("order workflow: persist: %w", err)
	}

	w.publishConfirmed(ctx, o)
	return o, nil
}

// publishConfirmed emits the confirmation event best-effort; failure never
// fails the already-committed confirmation.
func (w *Workflow) publishConfirmed(ctx context.Context, o *domain.Order) {
	if w.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 300*time.Millisecond)
	defer cancel()
	if err := w.publisher.Publish(pubCtx, domain.NewConfirmedEvent(o)); err != nil {
		w.log.Warn("order_confirmed_publish_failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}

func (w *Workflow) commitItem(ctx context.Context, it domain.Item, notify stock.Recipient) error {
	lock, err := w.ledger.AcquireExclusive(ctx, it.ProductID)
	if err != nil {
		return err
	}
	defer lock.Release()

	if _, err := w.ledger.Adjust(ctx, lock, -it.Quantity, notify); err != nil {
		return err
	}
	return nil
}

// compensate re-increments stock for items already decremented by a failed
// confirm. Failures here leave stock inconsistent and are logged at error
// level for operator intervention.
func (w *Workflow) compensate(ctx context.Context, orderID string, applied []domain.Item) {
	for _, it := range applied {
		lock, err := w.ledger.AcquireExclusive(ctx, it.ProductID)
		if err != nil {
			w.log.Error("confirm_compensation_failed",
				zap.String("order_id", orderID),
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
				zap.Error(err),
			)
			continue
		}
		if _, err := w.ledger.Adjust(ctx, lock, it.Quantity, stock.Recipient{}); err != nil {
			w.log.Error("confirm_compensation_failed",
				zap.String("order_id", orderID),
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
				zap.Error(err),
			)
		}
		lock.Release()
	}
}

// Get loads one order.
func (w *Workflow) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	if orderID == "" {
		return nil, newValidation("order id is required")
	}
	return w.orders.FindByID(ctx, orderID)
}
