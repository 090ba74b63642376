package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"quicklift/internal/contracts"
)

// declareTopology sets up exchanges, queues and bindings. It is idempotent
// and re-runs on every (re)connect.
func declareTopology(ch *amqp.Channel) error {
	topicExchanges := []string{
		contracts.ExchangeTripTopic,
		contracts.ExchangeDriverTopic,
	}
	for _, ex := range topicExchanges {
		if err := ch.ExchangeDeclare(ex, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex, err)
		}
	}

	if err := ch.ExchangeDeclare(contracts.ExchangeLocationFanout, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", contracts.ExchangeLocationFanout, err)
	}

	queues := []string{
		contracts.QueueTripRequests,
		contracts.QueueTripStatus,
		contracts.QueueDriverStatus,
		contracts.QueueLocationUpdatesTrip,
	}
	for _, q := range queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	bindings := []struct {
		queue    string
		key      string
		exchange string
	}{
		{contracts.QueueTripRequests, contracts.RouteTripRequestPrefix + "*", contracts.ExchangeTripTopic},
		{contracts.QueueTripStatus, contracts.RouteTripStatusPrefix + "*", contracts.ExchangeTripTopic},
		{contracts.QueueDriverStatus, contracts.RouteDriverStatusPrefix + "*", contracts.ExchangeDriverTopic},
		{contracts.QueueLocationUpdatesTrip, "", contracts.ExchangeLocationFanout},
	}
	for _, b := range bindings {
		if err := ch.QueueBind(b.queue, b.key, b.exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s to %s with %q: %w", b.queue, b.exchange, b.key, err)
		}
	}

	return nil
}
