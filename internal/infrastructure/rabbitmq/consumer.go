package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	apporder "github.com/rbritto/stockflow/internal/application/order"
	domorder "github.com/rbritto/stockflow/internal/domain/order"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// OrderCreator is the consumer's view of the order workflow.
type OrderCreator interface {
	CreateOrder(ctx context.Context, input apporder.CreateOrderInput) (*domorder.Order, error)
}

// OrderConsumer drives order creation from queued OrderRequest payloads. A
// malformed or failing message is logged and skipped; consumption continues.
type OrderConsumer struct {
	ch       *amqp.Channel
	workflow OrderCreator
	log      *zap.Logger
}

func NewOrderConsumer(ch *amqp.Channel, workflow OrderCreator, logger *zap.Logger) *OrderConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderConsumer{
		ch:       ch,
		workflow: workflow,
		log:      logger.With(zap.String("component", "order_consumer")),
	}
}

func (c *OrderConsumer) Start(ctx context.Context) error {
	q, err := c.ch.QueueDeclare(
		OrderQueueName, // name
		true,           // durable
		false,          // delete when unused
		false,          // exclusive
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("could not declare queue: %w", err)
	}

	err = c.ch.QueueBind(
		q.Name,          // queue name
		OrderRequestKey, // routing key
		ExchangeName,    // exchange
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("could not bind queue: %w", err)
	}

	msgs, err := c.ch.Consume(
		q.Name, // queue
		"",     // consumer tag
		false,  // auto-ack
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return fmt.Errorf("could not start consume: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				c.handle(ctx, d)
			}
		}
	}()

	return nil
}

func (c *OrderConsumer) handle(ctx context.Context, d amqp.Delivery) {
	var msg OrderRequestMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		c.log.Error("order_request_decode_failed", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	input := apporder.CreateOrderInput{CustomerID: msg.CustomerID}
	for _, it := range msg.Items {
		input.Items = append(input.Items, apporder.ItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
		})
	}

	o, err := c.workflow.CreateOrder(ctx, input)
	if err != nil {
		// Business failures are terminal for the message; requeueing would
		// just replay the same rejection.
		c.log.Error("order_request_rejected",
			zap.String("customer_id", msg.CustomerID),
			zap.Error(err),
		)
		_ = d.Nack(false, false)
		return
	}

	c.log.Info("order_request_processed",
		zap.String("order_id", o.ID),
		zap.String("customer_id", o.CustomerID),
	)
	_ = d.Ack(false)
}
