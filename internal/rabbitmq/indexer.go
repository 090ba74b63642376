package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quicklift/internal/contracts"
	"quicklift/internal/domain/geo"
	"quicklift/internal/logger"
)

// GeoUpserter refreshes a driver's position in the geo index. Upserts are
// idempotent, so replayed or duplicated deliveries are harmless.
type GeoUpserter interface {
	Upsert(ctx context.Context, driverID string, location geo.Coordinate) error
}

// RunLocationIndexer consumes the shared location queue and feeds every
// report into the geo index. In a multi-instance deployment this keeps the
// index current for positions reported to other instances. Blocks until ctx
// is cancelled; the delivery stream is re-entered after reconnects.
func RunLocationIndexer(ctx context.Context, client *Client, index GeoUpserter, log *logger.Logger) {
	handler := func(ctx context.Context, body []byte) error {
		var msg contracts.LocationUpdateMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return fmt.Errorf("decode location update: %w", err)
		}
		location, err := geo.NewCoordinate(msg.Location.Lat, msg.Location.Lng)
		if err != nil {
			return fmt.Errorf("location update for %s: %w", msg.DriverID, err)
		}
		return index.Upsert(ctx, msg.DriverID, location)
	}

	for {
		err := client.Consume(ctx, contracts.QueueLocationUpdatesTrip, "geo-indexer", handler)
		if ctx.Err() != nil {
			return
		}
		log.Error(client.logCtx, "location_indexer_interrupted",
			"Location consumer stopped; retrying after reconnect", err, nil)

		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}
