package wsserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"bigtwo/internal/bus"
	"bigtwo/internal/events"
	"bigtwo/internal/identity"
	"bigtwo/internal/rooms"
	"bigtwo/internal/session"
)

// Server owns the /ws/{room_id} upgrade endpoint plus the hub of connected
// clients. Grounded on the pack's upgrader/registry split
// (_examples/lox-pokerforbots/internal/server/server.go).
type Server struct {
	upgrader         websocket.Upgrader
	bus              *bus.Bus
	rooms            *rooms.Coordinator
	sessions         session.Validator
	identities       *identity.Registry
	hub              *Hub
	logger           *log.Logger
	outboundDeadline time.Duration
}

// New builds a Server. Call Egress(roomID) once per room (typically from a
// rooms.Coordinator.OnRoomCreated hook) to start fanning out that room's
// bus events to connected clients.
func New(b *bus.Bus, coordinator *rooms.Coordinator, sessions session.Validator, identities *identity.Registry, outboundDeadline time.Duration, logger *log.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			Subprotocols:    []string{"bearer"},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		bus:              b,
		rooms:            coordinator,
		sessions:         sessions,
		identities:       identities,
		hub:              newHub(),
		logger:           logger,
		outboundDeadline: outboundDeadline,
	}
}

// Egress starts the per-room socket subscriber. It is not idempotent: each
// call subscribes another consumer, so calling it twice for the same room
// delivers every event to clients twice. Invoke it exactly once per room,
// e.g. from rooms.Coordinator.OnRoomCreated.
func (s *Server) Egress(roomID string) {
	sub := newEgressSubscriber(s.bus, s.hub, s.rooms, s.identities, s.logger)
	go sub.Run(roomID)
}

// Router exposes the upgrade endpoint at {room_id}, meant to be mounted
// under a "/ws" prefix by the process entrypoint alongside internal/httpapi's
// router (spec.md §6: GET /ws/{room_id}).
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/{room_id}", s.handleUpgrade)
	return r
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "room_id")
	room, ok := s.rooms.Get(roomID)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	token := bearerFromSubprotocol(r)
	sess, err := s.sessions.Validate(r.Context(), token)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	seats, _, _ := room.Snapshot()
	seated := false
	for _, seat := range seats {
		if seat.PlayerID == sess.PlayerID {
			seated = true
			break
		}
	}
	if !seated {
		http.Error(w, "not seated in this room", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, http.Header{"Sec-WebSocket-Protocol": []string{"bearer"}})
	if err != nil {
		if s.logger != nil {
			s.logger.Error("websocket upgrade failed", "error", err)
		}
		return
	}

	reconnect := false
	if player, ok := s.identities.Get(sess.PlayerID); ok {
		reconnect = player.ConnectionState == identity.Disconnected
	}

	client := newConnection(conn, roomID, sess.PlayerID, s.bus, s.outboundDeadline, s.logger)
	s.hub.register(roomID, sess.PlayerID, client)
	s.identities.SetConnectionState(sess.PlayerID, identity.Connected)
	s.rooms.Touch(roomID)
	s.bus.Publish(roomID, events.Broadcast(events.KindPlayerConnected, events.PlayerConnectedPayload{SeatID: sess.PlayerID}))
	if reconnect {
		s.bus.Publish(roomID, events.Targeted(events.KindRoomSnapshot, s.roomSnapshot(room), sess.PlayerID))
	}

	client.Start()
	go func() {
		<-client.closed
		s.hub.unregister(roomID, sess.PlayerID, client)
		s.identities.SetConnectionState(sess.PlayerID, identity.Disconnected)
		s.bus.Publish(roomID, events.Broadcast(events.KindPlayerDisconnected, events.PlayerDisconnectedPayload{SeatID: sess.PlayerID}))
	}()
}

// roomSnapshot builds the unicast reconnect payload (spec.md §4.7 line 126):
// the room roster plus, if a game is in progress, that game's snapshot.
// Egress redacts the game snapshot per recipient (see redactSnapshot), so
// this builder passes the full, unredacted internal view through.
func (s *Server) roomSnapshot(room *rooms.Room) events.RoomSnapshotPayload {
	seats, hostID, status := room.Snapshot()
	summary := events.RoomSummary{
		ID:     room.ID,
		HostID: hostID,
		Status: string(status),
		Seats:  make([]events.SeatSummary, len(seats)),
	}
	for i, seat := range seats {
		summary.Seats[i] = events.SeatSummary{PlayerID: seat.PlayerID, Name: seat.Name, Kind: string(seat.Kind)}
	}

	payload := events.RoomSnapshotPayload{Room: summary}
	if game := room.CurrentGame(); game != nil {
		snapshot := events.BuildGameSnapshot(room.ID, game)
		payload.Game = &snapshot
	}
	return payload
}

// bearerFromSubprotocol extracts the bearer token a browser client carries
// via the Sec-WebSocket-Protocol header (spec.md §6): "bearer, <token>".
func bearerFromSubprotocol(r *http.Request) string {
	raw := r.Header.Get("Sec-WebSocket-Protocol")
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	if len(parts) >= 2 && parts[0] == "bearer" {
		return parts[1]
	}
	return ""
}
