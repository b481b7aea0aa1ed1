package gameplay

import (
	"testing"

	"bigtwo/internal/cards"
)

func fourSeats() []string { return []string{"alice", "bob", "carol", "dave"} }

func play(t *testing.T, g *Game, seat int, tokens ...string) MoveResult {
	t.Helper()
	c, err := cards.ParseCards(tokens)
	if err != nil {
		t.Fatalf("ParseCards(%v): %v", tokens, err)
	}
	res, err := g.ApplyMove(seat, c)
	if err != nil {
		t.Fatalf("ApplyMove(seat=%d, %v): unexpected error %v", seat, tokens, err)
	}
	return res
}

// TestCreateOpensOnThreeOfDiamonds covers scenario 1 of spec.md §8: the
// dealt game's turn_index and trick_leader must be the seat holding 3♦.
func TestCreateOpensOnThreeOfDiamonds(t *testing.T) {
	g := Create(fourSeats(), 1, true)

	holder := -1
	for seat, hand := range g.Hands {
		for _, c := range hand {
			if c == cards.ThreeOfDiamonds {
				holder = seat
			}
		}
	}
	if holder == -1 {
		t.Fatal("3♦ was not dealt to any seat")
	}
	if g.TurnIndex != holder || g.TrickLeader != holder {
		t.Fatalf("TurnIndex=%d TrickLeader=%d, want both %d", g.TurnIndex, g.TrickLeader, holder)
	}
}

// TestCardConservation is P1: at every point, the union of current hands and
// all played cards equals the full 52-card deck.
func TestCardConservation(t *testing.T) {
	g := Create(fourSeats(), 42, false)

	// Play out a handful of legal single-card tricks driven by whatever the
	// current leader actually holds, to exercise several ApplyMove calls
	// without needing a curated deck.
	for i := 0; i < 8; i++ {
		seat := g.TurnIndex
		hand := g.Hands[seat]
		if len(hand) == 0 {
			break
		}
		lowest := hand[0]
		if g.LastPlayed != nil {
			// find a legal single higher than last played, else pass
			beat := findBeatingSingle(hand, *g.LastPlayed)
			if beat == nil {
				if _, err := g.ApplyPass(seat); err != nil {
					t.Fatalf("ApplyPass(%d): %v", seat, err)
				}
				assertConservation(t, g)
				continue
			}
			lowest = *beat
		}
		if _, err := g.ApplyMove(seat, []cards.Card{lowest}); err != nil {
			t.Fatalf("ApplyMove(%d, %v): %v", seat, lowest, err)
		}
		assertConservation(t, g)
	}
}

func findBeatingSingle(hand []cards.Card, last cards.Hand) *cards.Card {
	for _, c := range hand {
		candidate, err := cards.Classify([]cards.Card{c})
		if err != nil {
			continue
		}
		if candidate.Dominates(last) {
			cc := c
			return &cc
		}
	}
	return nil
}

func assertConservation(t *testing.T, g *Game) {
	t.Helper()
	seen := make(map[cards.Card]bool)
	for _, hand := range g.Hands {
		for _, c := range hand {
			if seen[c] {
				t.Fatalf("card %v appears more than once across hands", c)
			}
			seen[c] = true
		}
	}
	for _, entry := range g.PlayedHands {
		if entry.Hand == nil {
			continue
		}
		for _, c := range entry.Hand.Cards {
			if seen[c] {
				t.Fatalf("card %v appears both in a hand and in played_hands", c)
			}
			seen[c] = true
		}
	}
	if len(seen) != 52 {
		t.Fatalf("card conservation broken: saw %d distinct cards, want 52", len(seen))
	}
}

// TestApplyMoveRejectsWrongTurn is P2: a non-turn seat's move is rejected
// and never mutates state.
func TestApplyMoveRejectsWrongTurn(t *testing.T) {
	g := Create(fourSeats(), 7, false)
	wrongSeat := g.nextSeat(g.TurnIndex)
	before := len(g.Hands[wrongSeat])

	_, err := g.ApplyMove(wrongSeat, g.Hands[wrongSeat][:1])
	if err != ErrNotYourTurn {
		t.Fatalf("error = %v, want ErrNotYourTurn", err)
	}
	if len(g.Hands[wrongSeat]) != before {
		t.Fatalf("hand mutated despite rejected move: len=%d, want %d", len(g.Hands[wrongSeat]), before)
	}
	if g.TurnIndex == wrongSeat {
		t.Fatalf("turn index should not have changed to the rejected seat")
	}
}

// TestConsecutivePassKillsTrick is P4: consecutive_pass never reaches
// seats, and hitting seats-1 kills the trick and resets the counter.
func TestConsecutivePassKillsTrick(t *testing.T) {
	g := Create(fourSeats(), 3, false)
	leader := g.TurnIndex
	play(t, g, leader, cards.Card{Rank: cards.Three, Suit: cards.Diamonds}.String())

	for i := 0; i < g.NumSeats-1; i++ {
		if g.ConsecutivePass >= g.NumSeats-1 {
			t.Fatalf("consecutive_pass reached %d before the final pass", g.ConsecutivePass)
		}
		seat := g.TurnIndex
		res, err := g.ApplyPass(seat)
		if err != nil {
			t.Fatalf("ApplyPass(%d): %v", seat, err)
		}
		if i < g.NumSeats-2 && res.TrickDied {
			t.Fatalf("trick died too early on pass %d", i)
		}
		if i == g.NumSeats-2 && !res.TrickDied {
			t.Fatalf("trick did not die on the final pass")
		}
	}
	if g.ConsecutivePass != 0 {
		t.Fatalf("consecutive_pass = %d after trick death, want 0", g.ConsecutivePass)
	}
	if g.LastPlayed != nil {
		t.Fatalf("last_played not cleared after trick death")
	}
	if g.TurnIndex != leader {
		t.Fatalf("turn did not return to the trick leader: got %d, want %d", g.TurnIndex, leader)
	}
}

func TestLeaderCannotPass(t *testing.T) {
	g := Create(fourSeats(), 9, false)
	if _, err := g.ApplyPass(g.TrickLeader); err != ErrLeaderCannotPass {
		t.Fatalf("error = %v, want ErrLeaderCannotPass", err)
	}
}

func TestOpeningMoveMustIncludeThreeOfDiamonds(t *testing.T) {
	g := Create(fourSeats(), 11, true)
	seat := g.TurnIndex
	// find a card in hand that is not 3♦
	var other cards.Card
	for _, c := range g.Hands[seat] {
		if c != cards.ThreeOfDiamonds {
			other = c
			break
		}
	}
	if _, err := g.ApplyMove(seat, []cards.Card{other}); err != ErrMustInclude3D {
		t.Fatalf("error = %v, want ErrMustInclude3D", err)
	}
	if _, err := g.ApplyPass(seat); err != ErrMustInclude3D {
		t.Fatalf("pass error = %v, want ErrMustInclude3D", err)
	}
}

func TestSecondGameHasNoOpeningConstraint(t *testing.T) {
	g := Create(fourSeats(), 5, false)
	seat := g.TurnIndex
	other := g.Hands[seat][0]
	if _, err := g.ApplyMove(seat, []cards.Card{other}); err != nil {
		t.Fatalf("ApplyMove: unexpected error %v", err)
	}
}

// TestStraightBeatsPairRejectsWrongCount covers scenario 2 of spec.md §8.
func TestStraightBeatsPairRejectsWrongCount(t *testing.T) {
	seats := []string{"a", "b", "c", "d"}
	g := &Game{
		RoomID:   "room1",
		Seats:    seats,
		NumSeats: 4,
		Hands: [][]cards.Card{
			mustCards(t, "3D", "3C"),
			mustCards(t, "3S", "4C", "5D", "6H", "7S", "8C"),
			mustCards(t, "9D", "9C", "9H", "TH", "JH", "QH", "KH"),
			mustCards(t, "2S"),
		},
		TurnIndex:   1,
		TrickLeader: 1,
		Winner:      -1,
	}
	play(t, g, 1, "4C", "5D", "6H", "7S", "8C")

	if _, err := g.ApplyMove(2, mustCards(t, "9D", "9C")); err != ErrWrongCardCount {
		t.Fatalf("error = %v, want ErrWrongCardCount", err)
	}

	res := play(t, g, 2, "9H", "TH", "JH", "QH", "KH")
	if res.Winner != nil {
		t.Fatalf("unexpected winner")
	}
	if g.TurnIndex != 3 {
		t.Fatalf("TurnIndex = %d, want 3", g.TurnIndex)
	}
}

// TestFinalCardEndsGame covers scenario 3 of spec.md §8: playing the last
// card in hand ends the game with that seat as winner.
func TestFinalCardEndsGame(t *testing.T) {
	g := &Game{
		Seats:       []string{"a", "b", "c", "d"},
		NumSeats:    4,
		Hands:       [][]cards.Card{mustCards(t, "3D"), mustCards(t, "4D"), mustCards(t, "5D"), mustCards(t, "2S")},
		TurnIndex:   3,
		TrickLeader: 3,
		Winner:      -1,
	}
	res := play(t, g, 3, "2S")
	if res.Winner == nil || *res.Winner != 3 {
		t.Fatalf("Winner = %v, want 3", res.Winner)
	}
	if g.Winner != 3 {
		t.Fatalf("g.Winner = %d, want 3", g.Winner)
	}
	if len(g.Hands[3]) != 0 {
		t.Fatalf("winning seat still holds cards: %v", g.Hands[3])
	}
}

func mustCards(t *testing.T, tokens ...string) []cards.Card {
	t.Helper()
	c, err := cards.ParseCards(tokens)
	if err != nil {
		t.Fatalf("ParseCards(%v): %v", tokens, err)
	}
	return c
}
