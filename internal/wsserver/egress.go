// Package wsserver implements socket ingress and egress (spec.md §4.7,
// §4.8): upgrade authentication, inbound frame parsing, and per-recipient
// serialization of bus events into the wire envelope. Grounded on the
// pack's Connection/Server split
// (_examples/lox-pokerforbots/internal/server/{connection.go,server.go}).
package wsserver

import (
	"github.com/charmbracelet/log"

	"bigtwo/internal/bus"
	"bigtwo/internal/events"
	"bigtwo/internal/identity"
	"bigtwo/internal/rooms"
)

// EgressSubscriber is the socket subscriber (spec.md §2's "Socket
// subscriber"): one Run(roomID) goroutine per room, translating every bus
// event into wire envelopes delivered to that room's connected clients.
type EgressSubscriber struct {
	bus        *bus.Bus
	hub        *Hub
	rooms      *rooms.Coordinator
	identities *identity.Registry
	logger     *log.Logger
}

func newEgressSubscriber(b *bus.Bus, hub *Hub, coordinator *rooms.Coordinator, identities *identity.Registry, logger *log.Logger) *EgressSubscriber {
	return &EgressSubscriber{bus: b, hub: hub, rooms: coordinator, identities: identities, logger: logger}
}

// Run consumes roomID's bus channel until it closes.
func (s *EgressSubscriber) Run(roomID string) {
	ch := s.bus.Subscribe(roomID)
	for ev := range ch {
		s.dispatch(roomID, ev)
	}
}

func (s *EgressSubscriber) dispatch(roomID string, ev events.Event) {
	wireType, payload, ok := s.translate(roomID, ev)
	if !ok {
		return
	}

	if len(ev.Recipients) > 0 {
		for _, playerID := range ev.Recipients {
			s.deliver(roomID, playerID, wireType, payload(playerID))
		}
		return
	}
	for _, conn := range s.hub.connections(roomID) {
		s.deliver(roomID, conn.playerID, wireType, payload(conn.playerID))
	}
}

func (s *EgressSubscriber) deliver(roomID, playerID, wireType string, payload any) {
	conn, ok := s.hub.get(roomID, playerID)
	if !ok {
		return
	}
	env, err := newEnvelope(wireType, payload)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("failed to encode outbound envelope", "type", wireType, "error", err)
		}
		return
	}
	conn.Enqueue(env)
}

// translate maps one bus Event to a wire type plus a per-recipient payload
// builder. The builder exists because GameSnapshot-bearing payloads must be
// redacted per recipient (see redactSnapshot). ok is false for events with
// no wire representation (e.g. internal-only Kinds).
func (s *EgressSubscriber) translate(roomID string, ev events.Event) (wireType string, payload func(forPlayerID string) any, ok bool) {
	switch ev.Kind {
	case events.KindChatMessage:
		p := ev.Payload.(events.ChatMessagePayload)
		return wireChat, func(string) any { return p }, true

	case events.KindRoomSnapshot:
		p := ev.Payload.(events.RoomSnapshotPayload)
		return wireRoomSnapshot, func(forPlayerID string) any {
			out := events.RoomSnapshotPayload{Room: p.Room}
			if p.Game != nil {
				redacted := redactSnapshot(*p.Game, forPlayerID)
				out.Game = &redacted
			}
			return out
		}, true

	case events.KindPlayerJoined, events.KindPlayerLeft, events.KindPlayerConnected, events.KindPlayerDisconnected:
		list := s.playersList(roomID)
		return wirePlayersList, func(string) any { return list }, true

	case events.KindHostChanged:
		p := ev.Payload.(events.HostChangedPayload)
		return wireHostChange, func(string) any { return p }, true

	case events.KindMovePlayed:
		p := ev.Payload.(events.MovePlayedPayload)
		return wireMovePlayed, func(forPlayerID string) any {
			return map[string]any{
				"seat_id":        p.SeatID,
				"hand":           p.Hand,
				"new_game_state": redactSnapshot(p.NewGameState, forPlayerID),
			}
		}, true

	case events.KindPassed:
		p := ev.Payload.(events.PassedPayload)
		return wireMovePlayed, func(forPlayerID string) any {
			return map[string]any{
				"seat_id":        p.SeatID,
				"hand":           nil,
				"new_game_state": redactSnapshot(p.NewGameState, forPlayerID),
			}
		}, true

	case events.KindTurnChanged:
		p := ev.Payload.(events.TurnChangedPayload)
		return wireTurnChange, func(string) any { return p }, true

	case events.KindGameStarted:
		p := ev.Payload.(events.GameStartedPayload)
		return wireGameStarted, func(forPlayerID string) any {
			return map[string]any{"snapshot": redactSnapshot(p.Snapshot, forPlayerID)}
		}, true

	case events.KindGameWon:
		p := ev.Payload.(events.GameWonPayload)
		return wireGameWon, func(string) any { return p }, true

	case events.KindGameReset:
		return wireGameReset, func(string) any { return events.GameResetPayload{} }, true

	case events.KindBotAdded:
		p := ev.Payload.(events.BotAddedPayload)
		return wireBotAdded, func(string) any { return p }, true

	case events.KindBotRemoved:
		p := ev.Payload.(events.BotRemovedPayload)
		return wireBotRemoved, func(string) any { return p }, true

	case events.KindStatsUpdated:
		p := ev.Payload.(events.StatsUpdatedPayload)
		return wireStatsUpdated, func(string) any { return p.RoomSnapshot }, true

	case events.KindError:
		p := ev.Payload.(events.ErrorPayload)
		return wireError, func(string) any { return p }, true

	default:
		return "", nil, false
	}
}

type playerView struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Kind            string `json:"kind"`
	ConnectionState string `json:"connection_state"`
}

func (s *EgressSubscriber) playersList(roomID string) []playerView {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return nil
	}
	seats, _, _ := room.Snapshot()
	out := make([]playerView, len(seats))
	for i, seat := range seats {
		state := string(identity.Connected)
		if player, ok := s.identities.Get(seat.PlayerID); ok {
			state = string(player.ConnectionState)
		}
		out[i] = playerView{ID: seat.PlayerID, Name: seat.Name, Kind: string(seat.Kind), ConnectionState: state}
	}
	return out
}

// redactSnapshot returns a copy of snap with every seat's Cards cleared
// except forPlayerID's own — the internal GameSnapshot carries every hand
// in full (see events.SeatView's doc comment) so this is the one place per
// spec.md §3's Player-visibility rule where that gets narrowed for the
// wire.
func redactSnapshot(snap events.GameSnapshot, forPlayerID string) events.GameSnapshot {
	redacted := snap
	redacted.Seats = make([]events.SeatView, len(snap.Seats))
	for i, seat := range snap.Seats {
		if seat.PlayerID != forPlayerID {
			seat.Cards = nil
		}
		redacted.Seats[i] = seat
	}
	return redacted
}
