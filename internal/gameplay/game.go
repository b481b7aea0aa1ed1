package gameplay

import (
	"time"

	"bigtwo/internal/cards"
)

// PlayedEntry is one line of a game's played_hands history (spec.md §3).
// Hand is nil for a pass.
type PlayedEntry struct {
	Seat       int
	Hand       *cards.Hand
	TurnNumber int
}

// Game is the per-room mutable record spec.md §3 describes: seat order,
// hands, turn index, trick state, and history. Everything here is
// serialized through the game subscriber (internal/gamesub) — Game itself
// has no locking, matching the teacher's MatchState, which the Nakama
// match loop also mutates from a single goroutine at a time.
type Game struct {
	RoomID   string
	Seats    []string // player stable ids, indexed by seat
	NumSeats int

	StartingHands [][]cards.Card // immutable per-seat snapshot at deal time
	Hands         [][]cards.Card // mutable current hands, per seat

	// TurnIndex is the seat whose move is awaited. ApplyMove/ApplyPass never
	// look at a seat's connection state: a disconnected seat keeps the turn
	// until it moves, with no timeout and no auto-pass.
	TurnIndex       int
	TrickLeader     int
	LastPlayed      *cards.Hand // nil when the trick is dead (open lead)
	ConsecutivePass int

	// RequireOpeningThreeOfDiamonds is I5: only the very first move of the
	// room's first game must contain 3♦. It is cleared unconditionally
	// after the first successful move of this Game, and a Game created for
	// any later room game (post-GameReset) is constructed with this false
	// from the start — see gamesub, which tracks whether a room has
	// completed its first game yet.
	RequireOpeningThreeOfDiamonds bool

	PlayedHands []PlayedEntry
	StartedAt   time.Time

	// Winner is -1 while the game is in progress.
	Winner int
}

// Create deals a fresh 52-card game to seats and sets turn_index to the
// seat holding 3♦ (spec.md §4.2). requireOpeningThreeOfDiamonds should be
// true only when this is the very first game ever played in the room.
func Create(seats []string, deckSeed int64, requireOpeningThreeOfDiamonds bool) *Game {
	numSeats := len(seats)
	deck := cards.Shuffle(cards.FullDeck(), deckSeed)
	dealt := cards.Deal(deck, numSeats)

	starting := make([][]cards.Card, numSeats)
	hands := make([][]cards.Card, numSeats)
	openingSeat := 0
	for seat, hand := range dealt {
		snapshot := make([]cards.Card, len(hand))
		copy(snapshot, hand)
		starting[seat] = snapshot
		hands[seat] = hand
		for _, c := range hand {
			if c == cards.ThreeOfDiamonds {
				openingSeat = seat
			}
		}
	}

	return &Game{
		RoomID:                        "",
		Seats:                         seats,
		NumSeats:                      numSeats,
		StartingHands:                 starting,
		Hands:                         hands,
		TurnIndex:                     openingSeat,
		TrickLeader:                   openingSeat,
		LastPlayed:                    nil,
		ConsecutivePass:               0,
		RequireOpeningThreeOfDiamonds: requireOpeningThreeOfDiamonds,
		PlayedHands:                   nil,
		StartedAt:                     time.Now(),
		Winner:                        -1,
	}
}

func (g *Game) nextSeat(seat int) int {
	return (seat + 1) % g.NumSeats
}

// MoveResult is what a successful ApplyMove reports back to the caller
// (internal/gamesub), which turns it into MovePlayed plus either
// TurnChanged or GameWon.
type MoveResult struct {
	Hand   cards.Hand
	Winner *int // non-nil seat index if this move ended the game
	Next   int  // next turn_index; meaningless if Winner is non-nil
}

// ApplyMove validates and applies a play by seat (spec.md §4.2). Ownership,
// classification, the opening 3♦ constraint, and trick dominance are
// checked in that order; the first failure short-circuits with no mutation.
func (g *Game) ApplyMove(seat int, played []cards.Card) (MoveResult, error) {
	if seat != g.TurnIndex {
		return MoveResult{}, ErrNotYourTurn
	}
	if !cards.ContainsAll(g.Hands[seat], played) {
		return MoveResult{}, ErrDontOwnCards
	}
	hand, err := cards.Classify(played)
	if err != nil {
		if err == cards.ErrWrongCardCount {
			return MoveResult{}, ErrWrongCardCount
		}
		return MoveResult{}, ErrInvalidHand
	}
	if g.RequireOpeningThreeOfDiamonds && !containsThreeOfDiamonds(played) {
		return MoveResult{}, ErrMustInclude3D
	}
	if g.LastPlayed != nil {
		if len(hand.Cards) != len(g.LastPlayed.Cards) {
			return MoveResult{}, ErrWrongCardCount
		}
		if !hand.Dominates(*g.LastPlayed) {
			return MoveResult{}, ErrCannotBeatLastHand
		}
	}

	g.Hands[seat] = cards.RemoveCards(g.Hands[seat], played)
	g.LastPlayed = &hand
	g.TrickLeader = seat
	g.ConsecutivePass = 0
	g.RequireOpeningThreeOfDiamonds = false
	g.PlayedHands = append(g.PlayedHands, PlayedEntry{
		Seat:       seat,
		Hand:       &hand,
		TurnNumber: len(g.PlayedHands),
	})

	if len(g.Hands[seat]) == 0 {
		winner := seat
		g.Winner = seat
		return MoveResult{Hand: hand, Winner: &winner}, nil
	}
	g.TurnIndex = g.nextSeat(seat)
	return MoveResult{Hand: hand, Next: g.TurnIndex}, nil
}

// PassResult is what a successful ApplyPass reports back to the caller.
type PassResult struct {
	TrickDied bool
	Next      int
}

// ApplyPass validates and applies a pass by seat (spec.md §4.2). The trick
// leader can never pass into their own trick, and I5 blocks a pass on the
// opening move of the room's first game the same way it blocks an
// incomplete move.
func (g *Game) ApplyPass(seat int) (PassResult, error) {
	if seat != g.TurnIndex {
		return PassResult{}, ErrNotYourTurn
	}
	if g.RequireOpeningThreeOfDiamonds {
		return PassResult{}, ErrMustInclude3D
	}
	if seat == g.TrickLeader {
		return PassResult{}, ErrLeaderCannotPass
	}

	g.ConsecutivePass++
	trickDied := false
	if g.ConsecutivePass >= g.NumSeats-1 {
		g.LastPlayed = nil
		g.ConsecutivePass = 0
		trickDied = true
	}
	g.TurnIndex = g.nextSeat(seat)
	return PassResult{TrickDied: trickDied, Next: g.TurnIndex}, nil
}

// SeatOf returns the seat index holding playerID, or -1 if playerID does
// not occupy a seat in this game.
func (g *Game) SeatOf(playerID string) int {
	for i, id := range g.Seats {
		if id == playerID {
			return i
		}
	}
	return -1
}

func containsThreeOfDiamonds(played []cards.Card) bool {
	for _, c := range played {
		if c == cards.ThreeOfDiamonds {
			return true
		}
	}
	return false
}
