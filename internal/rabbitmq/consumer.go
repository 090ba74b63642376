package rabbitmq

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	consumerPrefetch = 8
	handlerTimeout   = 30 * time.Second
)

// HandlerFunc processes a single delivery. A nil return acks the message,
// an error nacks it without requeue.
type HandlerFunc func(ctx context.Context, body []byte) error

// Consume opens a dedicated channel on the given queue and dispatches
// deliveries to the handler until ctx is cancelled. It returns when the
// delivery stream closes, so the caller decides whether to re-enter after
// a reconnect.
func (client *Client) Consume(ctx context.Context, queue, consumerTag string, handler HandlerFunc) error {
	client.mu.RLock()
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return fmt.Errorf("rabbitmq: connection is not available for consumer %s", consumerTag)
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: failed to open consumer channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(consumerPrefetch, 0, false); err != nil {
		return fmt.Errorf("rabbitmq: failed to set prefetch: %w", err)
	}

	deliveries, err := ch.Consume(
		queue,
		consumerTag,
		false, // manual ack
		false, // not exclusive
		false, // no-local unsupported
		false, // wait for broker
		nil,
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: failed to start consuming %s: %w", queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = ch.Cancel(consumerTag, false)
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("rabbitmq: delivery stream for %s closed", queue)
			}
			client.handleDelivery(ctx, queue, d, handler)
		}
	}
}

func (client *Client) handleDelivery(ctx context.Context, queue string, d amqp.Delivery, handler HandlerFunc) {
	hCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	if err := handler(hCtx, d.Body); err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_handler_failed",
			"Message handler failed; dropping delivery", err,
			map[string]any{"queue": queue, "routingKey": d.RoutingKey})

		// poison messages are dropped rather than requeued in a tight loop
		if nackErr := d.Nack(false, false); nackErr != nil {
			client.logger.Error(client.logCtx, "rabbitmq_nack_failed", "Failed to nack delivery", nackErr, nil)
		}
		return
	}

	if ackErr := d.Ack(false); ackErr != nil {
		client.logger.Error(client.logCtx, "rabbitmq_ack_failed", "Failed to ack delivery", ackErr, nil)
	}
}
