// Package statsub implements the stats subscriber (spec.md §4.5): per-room,
// per-seat aggregates updated solely on GameWon. Grounded on
// _examples/original_source/src/stats/models.rs's RoomStats/PlayerStats/
// GameResult shapes and its card_count.rs score calculator.
package statsub

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"bigtwo/internal/bus"
	"bigtwo/internal/events"
	"bigtwo/internal/identity"
)

// PlayerStats is one seat's aggregate record within a room (spec.md §4.5).
type PlayerStats struct {
	PlayerID         string
	GamesPlayed      int
	Wins             int
	TotalScore       int
	CurrentWinStreak int
	BestWinStreak    int
}

// GameResult is one completed game's outcome, supplemented from
// original_source's GameResult (had_bots kept "for potential future
// filtering", per spec.md §4.5).
type GameResult struct {
	WinnerID string
	Scores   map[string]int
	HadBots  bool
}

// RoomStats is a room's full aggregate: totals plus per-completed-game
// history.
type RoomStats struct {
	mu          sync.Mutex
	RoomID      string
	GamesPlayed int
	Players     map[string]*PlayerStats
	History     []GameResult
}

// Subscriber is the stats subscriber. One Subscriber serves every room.
type Subscriber struct {
	bus        *bus.Bus
	identities *identity.Registry
	logger     *log.Logger

	mu           sync.RWMutex
	repo         map[string]*RoomStats
	lastSnapshot map[string]events.GameSnapshot
}

// New builds a Subscriber. identities may be nil, in which case had_bots is
// always reported false.
func New(b *bus.Bus, identities *identity.Registry, logger *log.Logger) *Subscriber {
	return &Subscriber{
		bus:          b,
		identities:   identities,
		logger:       logger,
		repo:         make(map[string]*RoomStats),
		lastSnapshot: make(map[string]events.GameSnapshot),
	}
}

// Run consumes roomID's bus channel, watching MovePlayed to remember the
// latest snapshot and updating aggregates on GameWon. It discards the
// room's stats once the channel closes — spec.md §4.5: "when the last
// human leaves a room, stats are discarded", which coincides exactly with
// room deletion (I3) closing this channel.
func (s *Subscriber) Run(roomID string) {
	ch := s.bus.Subscribe(roomID)
	if s.logger != nil {
		s.logger.Debug("stats subscriber started", "room", roomID)
	}
	for ev := range ch {
		switch ev.Kind {
		case events.KindMovePlayed:
			if p, ok := ev.Payload.(events.MovePlayedPayload); ok {
				s.rememberSnapshot(roomID, p.NewGameState)
			}
		case events.KindGameWon:
			if p, ok := ev.Payload.(events.GameWonPayload); ok {
				s.handleGameWon(roomID, p.WinnerID)
			}
		}
	}
	s.discard(roomID)
	if s.logger != nil {
		s.logger.Debug("stats subscriber stopped", "room", roomID)
	}
}

func (s *Subscriber) rememberSnapshot(roomID string, snap events.GameSnapshot) {
	s.mu.Lock()
	s.lastSnapshot[roomID] = snap
	s.mu.Unlock()
}

func (s *Subscriber) handleGameWon(roomID, winnerID string) {
	s.mu.Lock()
	snap, ok := s.lastSnapshot[roomID]
	s.mu.Unlock()
	if !ok {
		return
	}

	stats := s.getOrCreate(roomID)
	stats.mu.Lock()
	stats.GamesPlayed++
	hadBots := false
	scores := make(map[string]int, len(snap.Seats))

	for _, seat := range snap.Seats {
		p, ok := stats.Players[seat.PlayerID]
		if !ok {
			p = &PlayerStats{PlayerID: seat.PlayerID}
			stats.Players[seat.PlayerID] = p
		}
		p.GamesPlayed++

		if seat.PlayerID == winnerID {
			p.Wins++
			p.CurrentWinStreak++
			if p.CurrentWinStreak > p.BestWinStreak {
				p.BestWinStreak = p.CurrentWinStreak
			}
			scores[seat.PlayerID] = 0
		} else {
			multiplier := 1
			if seat.HandSize >= 10 {
				multiplier = 2
			}
			score := seat.HandSize * multiplier
			p.TotalScore += score
			p.CurrentWinStreak = 0
			scores[seat.PlayerID] = score
		}

		if s.identities != nil {
			if pl, ok := s.identities.Get(seat.PlayerID); ok && pl.Kind == identity.Bot {
				hadBots = true
			}
		}
	}

	stats.History = append(stats.History, GameResult{WinnerID: winnerID, Scores: scores, HadBots: hadBots})
	view := buildView(stats)
	stats.mu.Unlock()

	s.bus.Publish(roomID, events.Broadcast(events.KindStatsUpdated, events.StatsUpdatedPayload{RoomSnapshot: view}))
}

// Snapshot returns roomID's current stats view for the REST stats endpoint
// (spec.md §6, GET /room/{id}/stats).
func (s *Subscriber) Snapshot(roomID string) (events.RoomStatsView, bool) {
	s.mu.RLock()
	st, ok := s.repo[roomID]
	s.mu.RUnlock()
	if !ok {
		return events.RoomStatsView{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return buildView(st), true
}

func (s *Subscriber) getOrCreate(roomID string) *RoomStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.repo[roomID]
	if !ok {
		st = &RoomStats{RoomID: roomID, Players: make(map[string]*PlayerStats)}
		s.repo[roomID] = st
	}
	return st
}

func (s *Subscriber) discard(roomID string) {
	s.mu.Lock()
	delete(s.repo, roomID)
	delete(s.lastSnapshot, roomID)
	s.mu.Unlock()
}

// buildView must be called with st.mu already held.
func buildView(st *RoomStats) events.RoomStatsView {
	players := make([]events.PlayerStatsView, 0, len(st.Players))
	for _, p := range st.Players {
		players = append(players, events.PlayerStatsView{
			PlayerID:         p.PlayerID,
			GamesPlayed:      p.GamesPlayed,
			Wins:             p.Wins,
			TotalScore:       p.TotalScore,
			CurrentWinStreak: p.CurrentWinStreak,
			BestWinStreak:    p.BestWinStreak,
		})
	}
	sort.Slice(players, func(i, j int) bool { return players[i].PlayerID < players[j].PlayerID })
	return events.RoomStatsView{RoomID: st.RoomID, GamesPlayed: st.GamesPlayed, Players: players}
}
