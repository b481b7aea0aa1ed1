// Package botplay implements the bot subscriber (spec.md §4.6): on
// TurnChanged for a bot seat, waits a randomized think-time then emits
// TryPlayMove or TryPass on the same bus. Grounded on the teacher's
// Agent/StandardBot (_examples/LarryBui-ThirteenV4/Server/internal/bot/{agent.go,strategies.go}),
// scaled down from Tien Len's multi-tier difficulty ladder to spec.md's
// single "basic" strategy (strategy.go).
package botplay

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"bigtwo/internal/bus"
	"bigtwo/internal/events"
	"bigtwo/internal/identity"
	"bigtwo/internal/rooms"
)

// Default think-time bounds (spec.md §5 Timeouts).
const (
	DefaultMinThink = 500 * time.Millisecond
	DefaultMaxThink = 2 * time.Second
)

// Subscriber is the bot subscriber. One Subscriber serves every room.
type Subscriber struct {
	bus        *bus.Bus
	rooms      *rooms.Coordinator
	identities *identity.Registry
	logger     *log.Logger
	minThink   time.Duration
	maxThink   time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer // "roomID|seatID" -> pending think timer
}

// New builds a Subscriber. minThink/maxThink of zero use the spec.md
// default bounds.
func New(b *bus.Bus, coordinator *rooms.Coordinator, identities *identity.Registry, minThink, maxThink time.Duration, logger *log.Logger) *Subscriber {
	if minThink <= 0 {
		minThink = DefaultMinThink
	}
	if maxThink <= minThink {
		maxThink = DefaultMaxThink
	}
	return &Subscriber{
		bus:        b,
		rooms:      coordinator,
		identities: identities,
		logger:     logger,
		minThink:   minThink,
		maxThink:   maxThink,
		pending:    make(map[string]*time.Timer),
	}
}

// Run consumes roomID's bus channel until it closes, cancelling every
// pending think-timer for the room on exit.
func (s *Subscriber) Run(roomID string) {
	ch := s.bus.Subscribe(roomID)
	if s.logger != nil {
		s.logger.Debug("bot subscriber started", "room", roomID)
	}
	for ev := range ch {
		switch ev.Kind {
		case events.KindTurnChanged:
			if p, ok := ev.Payload.(events.TurnChangedPayload); ok {
				s.handleTurnChanged(roomID, p.SeatID)
			}
		case events.KindGameWon, events.KindGameReset:
			s.cancelAll(roomID)
		case events.KindPlayerLeft:
			if p, ok := ev.Payload.(events.PlayerLeftPayload); ok {
				s.cancel(roomID, p.SeatID)
			}
		case events.KindBotRemoved:
			if p, ok := ev.Payload.(events.BotRemovedPayload); ok {
				s.cancel(roomID, p.BotID)
			}
		}
	}
	s.cancelAll(roomID)
	if s.logger != nil {
		s.logger.Debug("bot subscriber stopped", "room", roomID)
	}
}

func (s *Subscriber) handleTurnChanged(roomID, seatID string) {
	if s.identities == nil {
		return
	}
	player, ok := s.identities.Get(seatID)
	if !ok || player.Kind != identity.Bot {
		return
	}
	if room, ok := s.rooms.Get(roomID); !ok || room.CurrentGame() == nil {
		return
	}

	think := s.minThink
	if span := int64(s.maxThink - s.minThink); span > 0 {
		think += time.Duration(rand.Int63n(span + 1))
	}

	key := roomID + "|" + seatID
	timer := time.AfterFunc(think, func() {
		s.mu.Lock()
		delete(s.pending, key)
		s.mu.Unlock()
		s.act(roomID, seatID)
	})

	s.mu.Lock()
	if existing, ok := s.pending[key]; ok {
		existing.Stop()
	}
	s.pending[key] = timer
	s.mu.Unlock()
}

func (s *Subscriber) act(roomID, seatID string) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return
	}
	game := room.CurrentGame()
	if game == nil {
		return
	}
	seat := game.SeatOf(seatID)
	if seat == -1 || seat != game.TurnIndex {
		return
	}

	move := ChooseMove(game.Hands[seat], game.LastPlayed)
	if move == nil {
		s.bus.Publish(roomID, events.Broadcast(events.KindTryPass, events.TryPassPayload{SeatID: seatID}))
		return
	}
	tokens := make([]string, len(move))
	for i, c := range move {
		tokens[i] = c.String()
	}
	s.bus.Publish(roomID, events.Broadcast(events.KindTryPlayMove, events.TryPlayMovePayload{SeatID: seatID, Cards: tokens}))
}

func (s *Subscriber) cancel(roomID, seatID string) {
	key := roomID + "|" + seatID
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[key]; ok {
		t.Stop()
		delete(s.pending, key)
	}
}

func (s *Subscriber) cancelAll(roomID string) {
	prefix := roomID + "|"
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.pending {
		if strings.HasPrefix(key, prefix) {
			t.Stop()
			delete(s.pending, key)
		}
	}
}
