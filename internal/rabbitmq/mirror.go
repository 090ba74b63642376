package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"quicklift/internal/contracts"
)

// Mirror forwards in-process relay events to the shared broker so other
// services (and external consumers) see the same stream.
type Mirror struct {
	client *Client
}

func NewMirror(client *Client) *Mirror {
	return &Mirror{client: client}
}

func (m *Mirror) TripStatus(ctx context.Context, msg contracts.TripStatusMessage) error {
	key := contracts.RouteTripStatusPrefix + strings.ToLower(msg.Status)
	return m.publish(ctx, contracts.ExchangeTripTopic, key, msg)
}

func (m *Mirror) TripOffer(ctx context.Context, msg contracts.TripOfferMessage) error {
	key := contracts.RouteTripRequestPrefix + strings.ToLower(msg.VehicleClass)
	return m.publish(ctx, contracts.ExchangeTripTopic, key, msg)
}

func (m *Mirror) DriverStatus(ctx context.Context, msg contracts.DriverStatusMessage) error {
	key := contracts.RouteDriverStatusPrefix + msg.DriverID
	return m.publish(ctx, contracts.ExchangeDriverTopic, key, msg)
}

func (m *Mirror) Location(ctx context.Context, msg contracts.LocationUpdateMessage) error {
	return m.publish(ctx, contracts.ExchangeLocationFanout, "", msg)
}

func (m *Mirror) publish(ctx context.Context, exchange, key string, msg any) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal message for %s/%s: %w", exchange, key, err)
	}
	return m.client.PublishMessage(ctx, exchange, key, body)
}
