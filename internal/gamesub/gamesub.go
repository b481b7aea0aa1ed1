// Package gamesub implements the game subscriber (spec.md §4.4): the only
// bus consumer permitted to mutate game state. It translates TryPlayMove/
// TryPass/TryStartGame intent events into gameplay.Game calls and emits the
// resulting state events, serialized because a single goroutine per room
// (Run) processes one bus message at a time.
package gamesub

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"bigtwo/internal/bus"
	"bigtwo/internal/cards"
	"bigtwo/internal/events"
	"bigtwo/internal/gameplay"
	"bigtwo/internal/rooms"
)

// DefaultResetDelay is the design value from spec.md §4.4/§5: how long
// after GameWon the game subscriber waits before emitting GameReset.
const DefaultResetDelay = 5 * time.Second

// Subscriber is the game subscriber. One Subscriber serves every room; Run
// is invoked once per room from a dedicated goroutine.
type Subscriber struct {
	bus        *bus.Bus
	rooms      *rooms.Coordinator
	logger     *log.Logger
	resetDelay time.Duration

	mu          sync.Mutex
	resetTimers map[string]*time.Timer
}

// New builds a Subscriber. resetDelay of zero uses DefaultResetDelay.
func New(b *bus.Bus, coordinator *rooms.Coordinator, resetDelay time.Duration, logger *log.Logger) *Subscriber {
	if resetDelay <= 0 {
		resetDelay = DefaultResetDelay
	}
	return &Subscriber{
		bus:         b,
		rooms:       coordinator,
		logger:      logger,
		resetDelay:  resetDelay,
		resetTimers: make(map[string]*time.Timer),
	}
}

// Run consumes roomID's bus channel until it closes (room deletion),
// cancelling any pending reset timer on exit (spec.md §5 cancellation).
func (s *Subscriber) Run(roomID string) {
	ch := s.bus.Subscribe(roomID)
	if s.logger != nil {
		s.logger.Debug("game subscriber started", "room", roomID)
	}
	for ev := range ch {
		switch ev.Kind {
		case events.KindTryStartGame:
			if p, ok := ev.Payload.(events.TryStartGamePayload); ok {
				s.handleTryStartGame(roomID, p)
			}
		case events.KindTryPlayMove:
			if p, ok := ev.Payload.(events.TryPlayMovePayload); ok {
				s.handleTryPlayMove(roomID, p)
			}
		case events.KindTryPass:
			if p, ok := ev.Payload.(events.TryPassPayload); ok {
				s.handleTryPass(roomID, p)
			}
		}
	}
	s.cancelReset(roomID)
	if s.logger != nil {
		s.logger.Debug("game subscriber stopped", "room", roomID)
	}
}

func (s *Subscriber) handleTryStartGame(roomID string, payload events.TryStartGamePayload) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return
	}
	if !room.IsHost(payload.HostID) {
		s.emitError(roomID, payload.HostID, "NotHost", "only the host may start a game")
		return
	}
	seats, _, status := room.Snapshot()
	if status == rooms.StatusInGame {
		return
	}
	if len(seats) != rooms.MaxSeats {
		if s.logger != nil {
			s.logger.Debug("refusing to start game with an incomplete room", "room", roomID, "seats", len(seats))
		}
		return
	}

	playerIDs := make([]string, len(seats))
	for i, seat := range seats {
		playerIDs[i] = seat.PlayerID
	}
	game := gameplay.Create(playerIDs, time.Now().UnixNano(), room.IsFirstGame())
	game.RoomID = roomID
	room.StartGame(game)
	s.rooms.Touch(roomID)

	s.bus.Publish(roomID, events.Broadcast(events.KindGameStarted, events.GameStartedPayload{
		Snapshot: events.BuildGameSnapshot(roomID, game),
	}))
}

func (s *Subscriber) handleTryPlayMove(roomID string, payload events.TryPlayMovePayload) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return
	}
	game := room.CurrentGame()
	if game == nil {
		return
	}
	seat := game.SeatOf(payload.SeatID)
	if seat == -1 {
		return
	}

	played, err := cards.ParseCards(payload.Cards)
	if err != nil {
		s.emitError(roomID, payload.SeatID, gameplay.ErrInvalidHand.Kind, gameplay.ErrInvalidHand.Error())
		return
	}

	result, err := game.ApplyMove(seat, played)
	if err != nil {
		s.emitGameError(roomID, payload.SeatID, err)
		return
	}
	s.rooms.Touch(roomID)

	handView := events.HandView{Variant: result.Hand.Variant.String(), Cards: events.CardStrings(result.Hand.Cards)}
	snapshot := events.BuildGameSnapshot(roomID, game)
	s.bus.Publish(roomID, events.Broadcast(events.KindMovePlayed, events.MovePlayedPayload{
		SeatID:       payload.SeatID,
		Hand:         handView,
		NewGameState: snapshot,
	}))

	if result.Winner != nil {
		winnerID := game.Seats[*result.Winner]
		s.bus.Publish(roomID, events.Broadcast(events.KindGameWon, events.GameWonPayload{WinnerID: winnerID}))
		s.scheduleReset(roomID)
		return
	}
	nextSeatID := game.Seats[game.TurnIndex]
	s.bus.Publish(roomID, events.Broadcast(events.KindTurnChanged, events.TurnChangedPayload{SeatID: nextSeatID}))
}

func (s *Subscriber) handleTryPass(roomID string, payload events.TryPassPayload) {
	room, ok := s.rooms.Get(roomID)
	if !ok {
		return
	}
	game := room.CurrentGame()
	if game == nil {
		return
	}
	seat := game.SeatOf(payload.SeatID)
	if seat == -1 {
		return
	}

	result, err := game.ApplyPass(seat)
	if err != nil {
		s.emitGameError(roomID, payload.SeatID, err)
		return
	}
	s.rooms.Touch(roomID)

	snapshot := events.BuildGameSnapshot(roomID, game)
	s.bus.Publish(roomID, events.Broadcast(events.KindPassed, events.PassedPayload{
		SeatID:       payload.SeatID,
		NewGameState: snapshot,
	}))
	_ = result.TrickDied // reflected in NewGameState.LastPlayed being cleared; no separate wire signal defined

	nextSeatID := game.Seats[game.TurnIndex]
	s.bus.Publish(roomID, events.Broadcast(events.KindTurnChanged, events.TurnChangedPayload{SeatID: nextSeatID}))
}

// scheduleReset arms a cancellable timer that clears the finished game and
// transitions the room to between_games after resetDelay (spec.md §4.4).
func (s *Subscriber) scheduleReset(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.resetTimers[roomID]; ok {
		existing.Stop()
	}
	s.resetTimers[roomID] = time.AfterFunc(s.resetDelay, func() {
		room, ok := s.rooms.Get(roomID)
		if ok {
			room.ResetGame()
			s.bus.Publish(roomID, events.Broadcast(events.KindGameReset, events.GameResetPayload{}))
		}
		s.mu.Lock()
		delete(s.resetTimers, roomID)
		s.mu.Unlock()
	})
}

func (s *Subscriber) cancelReset(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.resetTimers[roomID]; ok {
		t.Stop()
		delete(s.resetTimers, roomID)
	}
}

func (s *Subscriber) emitGameError(roomID, seatID string, err error) {
	if gerr, ok := err.(*gameplay.Error); ok {
		s.emitError(roomID, seatID, gerr.Kind, gerr.Error())
		return
	}
	s.emitError(roomID, seatID, "InvalidHand", err.Error())
}

func (s *Subscriber) emitError(roomID, seatID, code, message string) {
	if s.logger != nil {
		s.logger.Debug("rejecting client action", "room", roomID, "seat", seatID, "code", code)
	}
	s.bus.Publish(roomID, events.Targeted(events.KindError, events.ErrorPayload{Code: code, Message: message}, seatID))
}
