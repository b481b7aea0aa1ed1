// Package events defines the bus wire taxonomy (spec.md §4.3): the closed
// set of Intent and State events, and the snapshot types bundled into
// them. Grounded on the teacher's Event{Kind, Payload, Recipients} shape
// (_examples/LarryBui-ThirteenV4/Server/internal/app/events.go), widened
// from Tien Len's event set to Big Two's.
package events

import (
	"time"

	"bigtwo/internal/cards"
	"bigtwo/internal/gameplay"
)

// Kind identifies an event's shape. String-typed so it serializes directly
// as a socket envelope's "type" field without a translation table.
type Kind string

// Intent events: emitted by socket ingress from a parsed client frame.
// Every subscriber receives them, but only the game subscriber acts on
// TryStartGame/TryPlayMove/TryPass, only the room subscriber acts on
// PlayerLeaveRequested, and the socket subscriber relays ChatMessage to
// clients (spec.md §4.3).
const (
	KindTryStartGame          Kind = "TryStartGame"
	KindTryPlayMove           Kind = "TryPlayMove"
	KindTryPass               Kind = "TryPass"
	KindPlayerLeaveRequested  Kind = "PlayerLeaveRequested"
	KindChatMessage           Kind = "ChatMessage"
)

// State events: emitted by subscribers as the durable record of what
// happened. Apart from ChatMessage, these are the only events the socket
// subscriber fans out to clients.
// KindError is emitted by the game subscriber on a rejected TryPlayMove or
// TryPass (spec.md §7): always Targeted at the acting seat alone, never
// broadcast, so no other subscriber observes a rejected move (preserves
// I1 — the rest of the system never sees cards that were never played).
const KindError Kind = "Error"

const (
	KindPlayerJoined       Kind = "PlayerJoined"
	KindPlayerLeft         Kind = "PlayerLeft"
	KindHostChanged        Kind = "HostChanged"
	KindPlayerConnected    Kind = "PlayerConnected"
	KindPlayerDisconnected Kind = "PlayerDisconnected"
	// KindGameCreated is never published by internal/gamesub: gameplay.Create
	// deals every hand and assigns the opening turn in one call, so this
	// engine has no "record allocated but not yet playable" moment between
	// creation and start for GameCreated to name. GameStarted always carries
	// the same first snapshot GameCreated would have. Kept declared (with
	// GameCreatedPayload) for wire-taxonomy parity; a future engine change
	// that separates dealing from starting should emit it here.
	KindGameCreated Kind = "GameCreated"
	KindGameStarted Kind = "GameStarted"
	KindMovePlayed         Kind = "MovePlayed"
	KindPassed             Kind = "Passed"
	KindTurnChanged        Kind = "TurnChanged"
	KindGameWon            Kind = "GameWon"
	KindGameReset          Kind = "GameReset"
	KindStatsUpdated       Kind = "StatsUpdated"
	KindBotAdded           Kind = "BotAdded"
	KindBotRemoved         Kind = "BotRemoved"

	// KindRoomSnapshot is always Targeted at a single reconnecting seat
	// (spec.md §4.7 line 126: "PlayerConnected on reconnect additionally
	// triggers a unicast snapshot"), emitted alongside — never instead of —
	// the broadcast PlayerConnected that refreshes everyone's roster.
	KindRoomSnapshot Kind = "RoomSnapshot"
)

// Event is the single envelope type that travels through the bus. Payload
// holds one of the Kind-specific payload structs below. An empty
// Recipients means broadcast to every seat currently connected to the
// room; a non-empty Recipients targets exactly those stable ids (used for
// ERROR replies and reconnect snapshots).
type Event struct {
	Kind       Kind
	Payload    any
	Recipients []string
}

// Broadcast builds an Event with no recipient restriction.
func Broadcast(kind Kind, payload any) Event {
	return Event{Kind: kind, Payload: payload}
}

// Targeted builds an Event addressed only to the given stable ids.
func Targeted(kind Kind, payload any, recipients ...string) Event {
	return Event{Kind: kind, Payload: payload, Recipients: recipients}
}

// --- Intent payloads ---

type TryStartGamePayload struct {
	HostID string `json:"host_id"`
}

type TryPlayMovePayload struct {
	SeatID string   `json:"seat_id"`
	Cards  []string `json:"cards"`
}

type TryPassPayload struct {
	SeatID string `json:"seat_id"`
}

type PlayerLeaveRequestedPayload struct {
	SeatID string `json:"seat_id"`
}

type ChatMessagePayload struct {
	SeatID string `json:"seat_id"`
	Text   string `json:"text"`
}

// --- State payloads ---

type PlayerJoinedPayload struct {
	SeatID string `json:"seat_id"`
	Name   string `json:"name"`
}

type PlayerLeftPayload struct {
	SeatID string `json:"seat_id"`
}

type HostChangedPayload struct {
	Old string `json:"old"`
	New string `json:"new"`
}

type PlayerConnectedPayload struct {
	SeatID string `json:"seat_id"`
}

type PlayerDisconnectedPayload struct {
	SeatID string `json:"seat_id"`
}

type GameCreatedPayload struct {
	Snapshot GameSnapshot `json:"snapshot"`
}

type GameStartedPayload struct {
	Snapshot GameSnapshot `json:"snapshot"`
}

type MovePlayedPayload struct {
	SeatID       string       `json:"seat_id"`
	Hand         HandView     `json:"hand"`
	NewGameState GameSnapshot `json:"new_game_state"`
}

type PassedPayload struct {
	SeatID       string       `json:"seat_id"`
	NewGameState GameSnapshot `json:"new_game_state"`
}

type TurnChangedPayload struct {
	SeatID string `json:"seat_id"`
}

type GameWonPayload struct {
	WinnerID string `json:"winner_id"`
}

// GameResetPayload carries no data; the event's Kind alone tells clients to
// return the room to its lobby view.
type GameResetPayload struct{}

type StatsUpdatedPayload struct {
	RoomSnapshot RoomStatsView `json:"room_snapshot"`
}

type BotAddedPayload struct {
	BotID string `json:"bot_id"`
	Name  string `json:"name"`
}

type BotRemovedPayload struct {
	BotID string `json:"bot_id"`
}

// ErrorPayload is the KindError payload, wire-identical to the ERROR
// envelope's payload spec.md §7 describes. Code is the taxonomy's error
// kind string (e.g. "NotYourTurn", "MustInclude3D").
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Snapshot types ---

// HandView is the wire form of a classified hand: its variant name and the
// cards that produced it, in the order spec.md's wire form specifies.
type HandView struct {
	Variant string   `json:"variant"`
	Cards   []string `json:"cards"`
}

// SeatView is one seat's public state within a GameSnapshot. Cards holds
// that seat's actual hand; wsserver redacts this to a bare HandSize when
// serializing a broadcast recipient who isn't the seat's own occupant —
// the snapshot itself stays complete so the stats and game subscribers,
// which also read it, never need a second privileged accessor.
type SeatView struct {
	SeatIndex int      `json:"seat_index"`
	PlayerID  string   `json:"player_id"`
	HandSize  int      `json:"hand_size"`
	Cards     []string `json:"cards,omitempty"`
}

// GameSnapshot is the immutable capture of gameplay.Game bundled into
// GameCreated/GameStarted/MovePlayed/Passed events (glossary: Snapshot).
type GameSnapshot struct {
	RoomID          string     `json:"room_id"`
	Seats           []SeatView `json:"seats"`
	TurnIndex       int        `json:"turn_index"`
	TrickLeader     int        `json:"trick_leader"`
	LastPlayed      []string   `json:"last_played,omitempty"`
	ConsecutivePass int        `json:"consecutive_pass"`
	Winner          *int       `json:"winner,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
}

// PlayerStatsView is one seat's aggregate record within a RoomStatsView
// (spec.md §4.5).
type PlayerStatsView struct {
	PlayerID         string `json:"player_id"`
	GamesPlayed      int    `json:"games_played"`
	Wins             int    `json:"wins"`
	TotalScore       int    `json:"total_score"`
	CurrentWinStreak int    `json:"current_win_streak"`
	BestWinStreak    int    `json:"best_win_streak"`
}

// RoomStatsView is the snapshot bundled into StatsUpdated.
type RoomStatsView struct {
	RoomID      string            `json:"room_id"`
	GamesPlayed int               `json:"games_played"`
	Players     []PlayerStatsView `json:"players"`
}

// RoomSummary is the roster/host/status view bundled into RoomSnapshot
// (spec.md §4.7's reconnect unicast: "room + optional game").
type RoomSummary struct {
	ID     string        `json:"id"`
	HostID string        `json:"host_id"`
	Status string        `json:"status"`
	Seats  []SeatSummary `json:"seats"`
}

// SeatSummary is one occupant of a RoomSummary's roster.
type SeatSummary struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
}

// RoomSnapshotPayload is the KindRoomSnapshot payload: a reconnecting
// seat's targeted room-plus-optional-game snapshot (spec.md §4.7 line 126).
// Game is nil when the room has no active game (lobby or between_games).
type RoomSnapshotPayload struct {
	Room RoomSummary   `json:"room"`
	Game *GameSnapshot `json:"game,omitempty"`
}

// BuildGameSnapshot captures g's current state into the wire-ready
// GameSnapshot bundled into GameCreated/GameStarted/MovePlayed/Passed/
// RoomSnapshot events. Shared by internal/gamesub (state events) and
// internal/wsserver (reconnect snapshots) so there is exactly one place
// that knows how to read a gameplay.Game.
func BuildGameSnapshot(roomID string, g *gameplay.Game) GameSnapshot {
	seatViews := make([]SeatView, len(g.Seats))
	for i, playerID := range g.Seats {
		seatViews[i] = SeatView{
			SeatIndex: i,
			PlayerID:  playerID,
			HandSize:  len(g.Hands[i]),
			Cards:     CardStrings(g.Hands[i]),
		}
	}
	var lastPlayed []string
	if g.LastPlayed != nil {
		lastPlayed = CardStrings(g.LastPlayed.Cards)
	}
	var winner *int
	if g.Winner >= 0 {
		w := g.Winner
		winner = &w
	}
	return GameSnapshot{
		RoomID:          roomID,
		Seats:           seatViews,
		TurnIndex:       g.TurnIndex,
		TrickLeader:     g.TrickLeader,
		LastPlayed:      lastPlayed,
		ConsecutivePass: g.ConsecutivePass,
		Winner:          winner,
		StartedAt:       g.StartedAt,
	}
}

// CardStrings renders cs in the wire token form spec.md's Card format uses,
// e.g. ["3D", "KH"].
func CardStrings(cs []cards.Card) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.String()
	}
	return out
}
