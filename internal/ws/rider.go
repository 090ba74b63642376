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
	"quicklift/internal/relay"
)

// ConnectRider handles WebSocket connections from riders with JWT auth.
// A rider sends "watch_trip" frames naming their own trips; the gateway then
// streams status changes and live driver positions for those trips.
func (g *Gateway) ConnectRider(w http.ResponseWriter, r *http.Request) {
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

	res, err := jwt.ValidateWSAuth(firstFrame, g.jwtMgr, user.RoleRider)
	if err != nil {
		g.logger.Error(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		_ = g.sendAuthError(conn, "authentication failed: invalid token")
		return
	}

	riderID := res.Claims.Subject
	if pathID := r.PathValue("rider_id"); pathID != "" && pathID != riderID {
		g.logger.Error(r.Context(), "ws_auth_failed", "Rider ID mismatch", nil, map[string]any{
			"path_rider_id": pathID,
			"token_subject": riderID,
		})
		_ = g.sendAuthError(conn, "rider ID mismatch")
		return
	}

	if err := g.sendAuthSuccess(conn, map[string]any{"rider_id": riderID}); err != nil {
		g.logger.Error(r.Context(), "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		return
	}

	g.logger.Info(r.Context(), "ws_connected", "Rider WebSocket connected",
		map[string]any{"rider_id": riderID})

	_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	g.startPingLoop(conn, done)

	// trip_id -> stop channel for that trip's forwarder
	watched := make(map[string]chan struct{})
	defer func() {
		for _, stop := range watched {
			close(stop)
		}
	}()

	for {
		_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				g.logger.Error(r.Context(), "ws_unexpected_close", "Rider connection closed unexpectedly", err, map[string]any{
					"rider_id": riderID,
				})
				g.writeClose(conn, websocket.CloseInternalServerErr, "internal error")
			} else {
				g.logger.Info(r.Context(), "ws_connection_closed", "Rider connection closed normally", map[string]any{
					"rider_id": riderID,
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
		case "watch_trip":
			g.handleWatchTrip(r.Context(), conn, riderID, msg.Data, watched)
		case "unwatch_trip":
			g.handleUnwatchTrip(conn, msg.Data, watched)
		default:
			_ = g.writeMessage(conn, websocket.TextMessage, errUnknownType)
		}
	}
}

type watchTripData struct {
	TripID string `json:"trip_id"`
}

// handleWatchTrip verifies the trip belongs to the rider and starts a relay
// forwarder for its status and location topics.
func (g *Gateway) handleWatchTrip(ctx context.Context, conn *websocket.Conn, riderID string, data json.RawMessage, watched map[string]chan struct{}) {
	var req watchTripData
	if err := json.Unmarshal(data, &req); err != nil || req.TripID == "" {
		_ = g.writeMessage(conn, websocket.TextMessage, []byte(`{"type":"error","error":"watch_trip needs a trip_id"}`))
		return
	}
	if _, already := watched[req.TripID]; already {
		return
	}

	t, err := g.svc.GetTrip(ctx, req.TripID)
	if err != nil || t.RiderID != riderID {
		g.logger.Error(ctx, "ws_watch_denied", "Rider may not watch this trip", err, map[string]any{
			"rider_id": riderID, "trip_id": req.TripID,
		})
		_ = g.writeMessage(conn, websocket.TextMessage, []byte(`{"type":"error","error":"trip not found"}`))
		return
	}

	stop := make(chan struct{})
	watched[req.TripID] = stop

	statuses := g.broker.Subscribe(relay.TripStatusTopic(req.TripID))
	locations := g.broker.Subscribe(relay.TripLocationTopic(req.TripID))
	go g.forwardTripEvents(conn, req.TripID, statuses, locations, stop)

	_ = g.writeJSON(conn, map[string]any{"type": "watching", "trip_id": req.TripID})
}

func (g *Gateway) handleUnwatchTrip(conn *websocket.Conn, data json.RawMessage, watched map[string]chan struct{}) {
	var req watchTripData
	if err := json.Unmarshal(data, &req); err != nil || req.TripID == "" {
		_ = g.writeMessage(conn, websocket.TextMessage, []byte(`{"type":"error","error":"unwatch_trip needs a trip_id"}`))
		return
	}
	if stop, ok := watched[req.TripID]; ok {
		close(stop)
		delete(watched, req.TripID)
	}
}

// forwardTripEvents translates relay messages for one trip into rider-facing
// frames until the watch is cancelled.
func (g *Gateway) forwardTripEvents(conn *websocket.Conn, tripID string, statuses, locations *relay.Subscription, stop <-chan struct{}) {
	defer statuses.Close()
	defer locations.Close()

	for {
		select {
		case <-stop:
			return
		case m, ok := <-statuses.C:
			if !ok {
				return
			}
			status, ok := m.Payload.(contracts.TripStatusMessage)
			if !ok {
				continue
			}
			out := contracts.WSRiderTripStatus{
				Type:       "trip_status_update",
				TripID:     status.TripID,
				TripNumber: status.TripNumber,
				Status:     status.Status,
				Envelope:   status.Envelope,
			}
			if status.DriverID != "" {
				out.DriverInfo = &contracts.DriverBrief{DriverID: status.DriverID}
			}
			if err := g.writeJSON(conn, out); err != nil {
				return
			}
		case m, ok := <-locations.C:
			if !ok {
				return
			}
			loc, ok := m.Payload.(contracts.LocationUpdateMessage)
			if !ok {
				continue
			}
			out := contracts.WSRiderLocationUpdate{
				Type:           "driver_location_update",
				TripID:         tripID,
				Location:       loc.Location,
				SpeedKMH:       loc.SpeedKMH,
				HeadingDegrees: loc.HeadingDegrees,
				Timestamp:      loc.Timestamp,
				Envelope:       loc.Envelope,
			}
			if err := g.writeJSON(conn, out); err != nil {
				return
			}
		}
	}
}
