package rooms

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"bigtwo/internal/bus"
	"bigtwo/internal/events"
	"bigtwo/internal/identity"
)

// Errors surfaced by Coordinator methods, mapped to HTTP codes in
// internal/httpapi per spec.md §7's Room kind.
var (
	ErrRoomNotFound  = errors.New("room: not found")
	ErrRoomFull      = errors.New("room: full")
	ErrAlreadyJoined = errors.New("room: already joined")
	ErrNotHost       = errors.New("room: caller is not host")
)

// TokenSource generates the human-readable room ids spec.md §3 calls for.
type TokenSource interface {
	GenerateToken() string
}

// Coordinator is the single index of rooms for the process, structurally
// mutated under its own lock (create/delete) with membership changes
// mutated under each Room's own lock (spec.md §5 Shared resources).
type Coordinator struct {
	logger *log.Logger
	bus    *bus.Bus
	tokens TokenSource

	mu    sync.RWMutex
	rooms map[string]*Room

	onCreate []func(roomID string)
}

// NewCoordinator builds an empty Coordinator publishing lifecycle events to
// b and minting room ids from tokens.
func NewCoordinator(b *bus.Bus, tokens TokenSource, logger *log.Logger) *Coordinator {
	return &Coordinator{logger: logger, bus: b, tokens: tokens, rooms: make(map[string]*Room)}
}

// OnRoomCreated registers a hook run (synchronously, before Create returns)
// every time a new room is created. Used by the process entrypoint to
// launch each room's subscriber goroutines (gamesub/botplay/statsub) — the
// Coordinator itself has no knowledge of those packages, keeping the
// dependency direction pointing from subscribers to rooms, never back.
func (c *Coordinator) OnRoomCreated(fn func(roomID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCreate = append(c.onCreate, fn)
}

// Create makes a fresh lobby room with hostID seated first.
func (c *Coordinator) Create(hostID, hostName string) *Room {
	room := &Room{
		ID:           c.uniqueToken(),
		Seats:        []Seat{{PlayerID: hostID, Name: hostName, Kind: identity.Human}},
		HostID:       hostID,
		Status:       StatusLobby,
		LastActivity: time.Now(),
		CreatedAt:    time.Now(),
	}
	c.mu.Lock()
	c.rooms[room.ID] = room
	hooks := append([]func(string){}, c.onCreate...)
	c.mu.Unlock()
	if c.logger != nil {
		c.logger.Debug("room created", "room", room.ID, "host", hostID)
	}
	for _, hook := range hooks {
		hook(room.ID)
	}
	return room
}

func (c *Coordinator) uniqueToken() string {
	for {
		token := c.tokens.GenerateToken()
		c.mu.RLock()
		_, exists := c.rooms[token]
		c.mu.RUnlock()
		if !exists {
			return token
		}
	}
}

// Get looks up a room by id.
func (c *Coordinator) Get(id string) (*Room, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rooms[id]
	return r, ok
}

// List returns every currently known room, in no particular order.
func (c *Coordinator) List() []*Room {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		out = append(out, r)
	}
	return out
}

// Join seats playerID into roomID. Atomic per spec.md §4.9: either the seat
// is added and PlayerJoined emitted, or the caller is rejected with
// RoomFull/AlreadyJoined and nothing changes.
func (c *Coordinator) Join(roomID, playerID, name string, kind identity.Kind) error {
	room, ok := c.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	if room.seatIndex(playerID) != -1 {
		room.mu.Unlock()
		return ErrAlreadyJoined
	}
	if len(room.Seats) >= MaxSeats {
		room.mu.Unlock()
		return ErrRoomFull
	}
	room.Seats = append(room.Seats, Seat{PlayerID: playerID, Name: name, Kind: kind})
	room.LastActivity = time.Now()
	room.mu.Unlock()

	c.bus.Publish(roomID, events.Broadcast(events.KindPlayerJoined, events.PlayerJoinedPayload{SeatID: playerID, Name: name}))
	return nil
}

// Leave removes playerID's seat. If the departing seat was host, the
// earliest remaining human is promoted; if the room is left with zero
// humans, it is deleted along with any running game (I3, spec.md §4.9).
func (c *Coordinator) Leave(roomID, playerID string) error {
	room, ok := c.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	idx := room.seatIndex(playerID)
	if idx == -1 {
		room.mu.Unlock()
		return ErrRoomNotFound
	}
	wasHost := room.HostID == playerID
	room.Seats = append(room.Seats[:idx], room.Seats[idx+1:]...)
	room.LastActivity = time.Now()

	disband := room.humanCount() == 0
	var newHost string
	if !disband && wasHost {
		for _, s := range room.Seats {
			if s.Kind == identity.Human {
				newHost = s.PlayerID
				break
			}
		}
		room.HostID = newHost
	}
	room.mu.Unlock()

	c.bus.Publish(roomID, events.Broadcast(events.KindPlayerLeft, events.PlayerLeftPayload{SeatID: playerID}))
	if !disband && wasHost && newHost != "" {
		c.bus.Publish(roomID, events.Broadcast(events.KindHostChanged, events.HostChangedPayload{Old: playerID, New: newHost}))
	}
	if disband {
		c.Delete(roomID)
	}
	return nil
}

// Delete removes roomID from the index and closes its bus channels,
// discarding any running game.
func (c *Coordinator) Delete(roomID string) {
	c.mu.Lock()
	_, ok := c.rooms[roomID]
	delete(c.rooms, roomID)
	c.mu.Unlock()
	if !ok {
		return
	}
	c.bus.DeleteRoom(roomID)
	if c.logger != nil {
		c.logger.Debug("room deleted", "room", roomID)
	}
}

// AddBot seats a bot identity into roomID.
func (c *Coordinator) AddBot(roomID, botID, name string) error {
	room, ok := c.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	room.mu.Lock()
	if len(room.Seats) >= MaxSeats {
		room.mu.Unlock()
		return ErrRoomFull
	}
	room.Seats = append(room.Seats, Seat{PlayerID: botID, Name: name, Kind: identity.Bot})
	room.LastActivity = time.Now()
	room.mu.Unlock()

	c.bus.Publish(roomID, events.Broadcast(events.KindBotAdded, events.BotAddedPayload{BotID: botID, Name: name}))
	return nil
}

// RemoveBot removes a bot's seat. I3 only auto-disbands on human
// departure, so removing a bot never deletes the room by itself.
func (c *Coordinator) RemoveBot(roomID, botID string) error {
	room, ok := c.Get(roomID)
	if !ok {
		return ErrRoomNotFound
	}
	room.mu.Lock()
	idx := room.seatIndex(botID)
	if idx == -1 || room.Seats[idx].Kind != identity.Bot {
		room.mu.Unlock()
		return ErrRoomNotFound
	}
	room.Seats = append(room.Seats[:idx], room.Seats[idx+1:]...)
	room.LastActivity = time.Now()
	room.mu.Unlock()

	c.bus.Publish(roomID, events.Broadcast(events.KindBotRemoved, events.BotRemovedPayload{BotID: botID}))
	return nil
}

// Touch records traffic on roomID for the idle reaper (SPEC_FULL.md §4.10).
func (c *Coordinator) Touch(roomID string) {
	if room, ok := c.Get(roomID); ok {
		room.touch()
	}
}
