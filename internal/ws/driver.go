package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quicklift/internal/contracts"
	"quicklift/internal/domain/user"
	"quicklift/internal/jwt"
	"quicklift/internal/ports"
	"quicklift/internal/relay"
)

// ConnectDriver handles WebSocket connections from drivers with JWT auth.
// After the handshake the driver receives trip offers and status echoes from
// the relay, and streams "location_update" frames back.
func (g *Gateway) ConnectDriver(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer conn.Close()
	defer g.writeLocks.Delete(conn)

	conn.SetReadLimit(1 << 20)
	if err := conn.SetReadDeadline(time.Now().Add(authDeadline)); err != nil {
		g.logger.Error(r.Context(), "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		_ = g.sendAuthError(conn, "internal server error")
		return
	}

	msgType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			g.logger.Error(r.Context(), "ws_auth_timeout", "Client disconnected before authentication", err, nil)
		} else {
			g.logger.Error(r.Context(), "ws_auth_read_failed", "Failed to read auth message", err, nil)
		}
		_ = g.sendAuthError(conn, "authentication timeout: please send auth message within 10 seconds")
		return
	}
	if msgType != websocket.TextMessage {
		_ = g.sendAuthError(conn, "auth message must be in text format")
		return
	}

	res, err := jwt.ValidateWSAuth(firstFrame, g.jwtMgr, user.RoleDriver)
	if err != nil {
		g.logger.Error(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		_ = g.sendAuthError(conn, "authentication failed: invalid token")
		return
	}

	driverID := res.Claims.DriverID
	if driverID == "" {
		g.logger.Error(r.Context(), "ws_auth_failed", "Token carries no driver identity", nil, nil)
		_ = g.sendAuthError(conn, "token carries no driver identity")
		return
	}
	if pathID := r.PathValue("driver_id"); pathID != "" && pathID != driverID {
		g.logger.Error(r.Context(), "ws_auth_failed", "Driver ID mismatch", nil, map[string]any{
			"path_driver_id":  pathID,
			"token_driver_id": driverID,
		})
		_ = g.sendAuthError(conn, "driver ID mismatch")
		return
	}

	if err := g.sendAuthSuccess(conn, map[string]any{"driver_id": driverID}); err != nil {
		g.logger.Error(r.Context(), "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}

	g.logger.Info(r.Context(), "ws_connected", "Driver WebSocket connected",
		map[string]any{"driver_id": driverID})

	_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	g.startPingLoop(conn, done)

	offers := g.broker.Subscribe(relay.DriverRequestsTopic(driverID))
	defer offers.Close()
	statuses := g.broker.Subscribe(relay.DriverStatusTopic(driverID))
	defer statuses.Close()
	go g.forwardDriverEvents(conn, driverID, offers, statuses, done)

	var lastLocAt time.Time

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.logger.Error(r.Context(), "ws_unexpected_close", "Driver connection closed unexpectedly", err, map[string]any{
					"driver_id": driverID,
				})
				g.writeClose(conn, websocket.CloseInternalServerErr, "internal error")
			} else {
				g.logger.Info(r.Context(), "ws_connection_closed", "Driver connection closed normally", map[string]any{
					"driver_id": driverID,
				})
				g.writeClose(conn, websocket.CloseNormalClosure, "bye")
			}
			return
		}

		var msg frame
		if err := json.Unmarshal(payload, &msg); err != nil {
			_ = g.writeMessage(conn, websocket.TextMessage, errBadJSON)
			continue
		}

		switch msg.Type {
		case "location_update":
			if err := g.handleLocationReport(r.Context(), conn, driverID, msg.Data, &lastLocAt); err != nil {
				g.logger.Error(r.Context(), "driver_ws_message_failed", "location report failed", err, map[string]any{
					"driver_id": driverID,
				})
			}
		default:
			_ = g.writeMessage(conn, websocket.TextMessage, errUnknownType)
		}
	}
}

// forwardDriverEvents pushes relay offers and status echoes to the driver's
// socket until the connection tears down.
func (g *Gateway) forwardDriverEvents(conn *websocket.Conn, driverID string, offers, statuses *relay.Subscription, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case m, ok := <-offers.C:
			if !ok {
				return
			}
			offer, ok := m.Payload.(contracts.TripOfferMessage)
			if !ok {
				continue
			}
			out := contracts.WSDriverTripOffer{
				Type:          "trip_offer",
				TripID:        offer.TripID,
				TripNumber:    offer.TripNumber,
				Pickup:        offer.Pickup,
				Destination:   offer.Destination,
				VehicleClass:  offer.VehicleClass,
				EstimatedFare: offer.EstimatedFare,
				Envelope:      offer.Envelope,
			}
			if err := g.writeJSON(conn, out); err != nil {
				g.logger.Error(context.Background(), "ws_offer_send_failed", "Failed to push trip offer", err, map[string]any{
					"driver_id": driverID, "trip_id": offer.TripID,
				})
				return
			}
		case m, ok := <-statuses.C:
			if !ok {
				return
			}
			if err := g.writeJSON(conn, m.Payload); err != nil {
				return
			}
		}
	}
}

// handleLocationReport applies a driver position frame, rate limited to one
// per second.
func (g *Gateway) handleLocationReport(ctx context.Context, conn *websocket.Conn, driverID string, data json.RawMessage, lastLocAt *time.Time) error {
	now := time.Now()
	if now.Sub(*lastLocAt) < locationInterval {
		return nil
	}
	*lastLocAt = now

	var report contracts.WSDriverLocationReport
	if err := json.Unmarshal(data, &report); err != nil {
		_ = g.writeMessage(conn, websocket.TextMessage, []byte(`{"type":"error","error":"invalid location data"}`))
		return err
	}

	err := g.svc.ReportLocation(ctx, ports.LocationReport{
		DriverID:       driverID,
		TripID:         report.TripID,
		Latitude:       report.Lat,
		Longitude:      report.Lng,
		SpeedKMH:       report.SpeedKMH,
		HeadingDegrees: report.HeadingDegrees,
		ReportedAt:     now.UTC(),
	})
	if err != nil {
		_ = g.writeMessage(conn, websocket.TextMessage, []byte(`{"type":"error","error":"failed to apply location"}`))
		return err
	}

	return g.writeJSON(conn, map[string]any{
		"type":    "location_update_ack",
		"status":  "success",
		"message": "Location updated and broadcasted",
	})
}
