package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// PublishMessage publishes a persistent JSON message and waits for the broker confirm.
func (client *Client) PublishMessage(ctx context.Context, exchange, routingKey string, body []byte) error {
	client.mu.RLock()
	ch := client.pubChan
	client.mu.RUnlock()

	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publishing channel is not available")
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	// publishes are serialized so confirms can be matched to the message just sent
	client.pubMu.Lock()
	defer client.pubMu.Unlock()

	confirms := client.pubConfirms
	if confirms == nil {
		return errors.New("rabbitmq: confirms channel is not available")
	}

	err := ch.PublishWithContext(pubCtx,
		exchange,
		routingKey,
		true,  // mandatory: returned if unroutable
		false, // immediate is unsupported by modern brokers
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: publish to %s/%s failed: %w", exchange, routingKey, err)
	}

	select {
	case confirm, ok := <-confirms:
		if !ok {
			return errors.New("rabbitmq: confirms channel closed while awaiting ack")
		}
		if !confirm.Ack {
			return fmt.Errorf("rabbitmq: broker nacked publish to %s/%s", exchange, routingKey)
		}
		return nil
	case <-pubCtx.Done():
		return fmt.Errorf("rabbitmq: timed out awaiting confirm for %s/%s: %w", exchange, routingKey, pubCtx.Err())
	}
}
