// Package roomsub implements the room-lifecycle subscriber (spec.md §4.9):
// the only bus consumer permitted to call Coordinator.Leave, translating a
// client-initiated LEAVE frame's PlayerLeaveRequested intent into a real
// seat departure, host succession, and (if the last human left) room
// deletion. Grounded on internal/gamesub's Run-per-room, one-intent-kind
// switch shape.
package roomsub

import (
	"github.com/charmbracelet/log"

	"bigtwo/internal/bus"
	"bigtwo/internal/events"
	"bigtwo/internal/rooms"
)

// Subscriber is the room-lifecycle subscriber. One Subscriber serves every
// room; Run is invoked once per room from a dedicated goroutine.
type Subscriber struct {
	bus    *bus.Bus
	rooms  *rooms.Coordinator
	logger *log.Logger
}

// New builds a Subscriber.
func New(b *bus.Bus, coordinator *rooms.Coordinator, logger *log.Logger) *Subscriber {
	return &Subscriber{bus: b, rooms: coordinator, logger: logger}
}

// Run consumes roomID's bus channel until it closes (room deletion).
func (s *Subscriber) Run(roomID string) {
	ch := s.bus.Subscribe(roomID)
	if s.logger != nil {
		s.logger.Debug("room subscriber started", "room", roomID)
	}
	for ev := range ch {
		if p, ok := ev.Payload.(events.PlayerLeaveRequestedPayload); ok && ev.Kind == events.KindPlayerLeaveRequested {
			s.handleLeaveRequested(roomID, p)
		}
	}
	if s.logger != nil {
		s.logger.Debug("room subscriber stopped", "room", roomID)
	}
}

// handleLeaveRequested carries out the seat departure spec.md §4.9
// describes: Coordinator.Leave itself emits PlayerLeft/HostChanged (and
// deletes the room if the departing seat was the last human), so this is a
// thin translation from intent to coordinator call.
func (s *Subscriber) handleLeaveRequested(roomID string, payload events.PlayerLeaveRequestedPayload) {
	if err := s.rooms.Leave(roomID, payload.SeatID); err != nil {
		if s.logger != nil {
			s.logger.Debug("ignoring leave request", "room", roomID, "seat", payload.SeatID, "error", err)
		}
	}
}
