package cards

import (
	"math/rand"
	"sort"
)

// Shuffle returns a shuffled copy of deck using the given seed, so callers
// can reproduce a deal deterministically (spec's create(seats, deck_seed)).
// Grounded on the teacher's ShuffleDeck (internal/domain/deck.go), widened
// to take an explicit seed instead of a package-global RNG.
func Shuffle(deck []Card, seed int64) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Deal splits a 52-card shuffled deck into numSeats equal hands, in seat
// order. Panics if len(deck) is not evenly divisible by numSeats; callers
// only ever pass a full 52-card deck and numSeats=4.
func Deal(deck []Card, numSeats int) [][]Card {
	if numSeats <= 0 || len(deck)%numSeats != 0 {
		panic("cards: deck does not divide evenly across seats")
	}
	perSeat := len(deck) / numSeats
	hands := make([][]Card, numSeats)
	for seat := 0; seat < numSeats; seat++ {
		hand := make([]Card, perSeat)
		copy(hand, deck[seat*perSeat:(seat+1)*perSeat])
		SortHand(hand)
		hands[seat] = hand
	}
	return hands
}

// SortHand orders cards ascending by the total card order, in place.
func SortHand(hand []Card) {
	sort.Slice(hand, func(i, j int) bool { return hand[i].Less(hand[j]) })
}

// RemoveCards returns hand with every card in remove subtracted out
// (multiset difference — a duplicate in remove only removes one matching
// card). Grounded on the teacher's RemoveCards (internal/domain/match_state.go).
func RemoveCards(hand []Card, remove []Card) []Card {
	if len(remove) == 0 {
		return hand
	}
	counts := make(map[Card]int, len(remove))
	for _, c := range remove {
		counts[c]++
	}
	out := make([]Card, 0, len(hand))
	for _, c := range hand {
		if counts[c] > 0 {
			counts[c]--
			continue
		}
		out = append(out, c)
	}
	return out
}

// ContainsAll reports whether hand holds every card in want (as a
// multiset), i.e. the seat actually owns the cards it is trying to play.
func ContainsAll(hand []Card, want []Card) bool {
	counts := make(map[Card]int, len(hand))
	for _, c := range hand {
		counts[c]++
	}
	for _, c := range want {
		if counts[c] == 0 {
			return false
		}
		counts[c]--
	}
	return true
}
