package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rbritto/stockflow/internal/domain/product"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OrderRequestMessage is the wire payload for asynchronous order intake.
type OrderRequestMessage struct {
	CustomerID string             `json:"customer_id"`
	Items      []OrderItemMessage `json:"items"`
}

type OrderItemMessage struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// StockUpdatedMessage is the outbound audit payload for committed stock
// adjustments.
type StockUpdatedMessage struct {
	ProductID     string    `json:"product_id"`
	QuantityDelta int       `json:"quantity_delta"`
	NewQuantity   int       `json:"new_quantity"`
	Timestamp     time.Time `json:"timestamp"`
}

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// PublishOrderRequest enqueues an order for asynchronous creation.
func (p *Publisher) PublishOrderRequest(ctx context.Context, msg OrderRequestMessage) error {
	return p.publish(ctx, OrderRequestKey, msg)
}

// PublishStockUpdated relays a committed stock adjustment to the broker for
// external metrics/audit consumers.
func (p *Publisher) PublishStockUpdated(ctx context.Context, e product.StockUpdatedEvent) error {
	return p.publish(ctx, StockUpdatedKey, StockUpdatedMessage{
		ProductID:     e.ProductID,
		QuantityDelta: e.QuantityDelta,
		NewQuantity:   e.NewQuantity,
		Timestamp:     e.OccurredAt,
	})
}

func (p *Publisher) publish(ctx context.Context, routingKey string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("could not marshal %s payload: %w", routingKey, err)
	}

	return p.ch.PublishWithContext(ctx,
		ExchangeName, // exchange
		routingKey,   // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
