package cards

import (
	"errors"
	"sort"
)

// Variant is a classified Big Two hand shape (spec.md §3).
type Variant int

const (
	Single Variant = iota
	Pair
	Triple
	Straight
	Flush
	FullHouse
	FourPlusOne
	StraightFlush
)

func (v Variant) String() string {
	switch v {
	case Single:
		return "Single"
	case Pair:
		return "Pair"
	case Triple:
		return "Triple"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "FullHouse"
	case FourPlusOne:
		return "FourPlusOne"
	case StraightFlush:
		return "StraightFlush"
	default:
		return "Unknown"
	}
}

func (v Variant) size() int {
	switch v {
	case Single:
		return 1
	case Pair:
		return 2
	case Triple:
		return 3
	default:
		return 5
	}
}

func isFiveCardVariant(v Variant) bool {
	switch v {
	case Straight, Flush, FullHouse, FourPlusOne, StraightFlush:
		return true
	default:
		return false
	}
}

// categoryRank totally orders the five-card variants: Straight < Flush <
// FullHouse < FourPlusOne < StraightFlush (spec.md §3).
func categoryRank(v Variant) int {
	switch v {
	case Straight:
		return 0
	case Flush:
		return 1
	case FullHouse:
		return 2
	case FourPlusOne:
		return 3
	case StraightFlush:
		return 4
	default:
		return -1
	}
}

// Errors returned by Classify. These are the classifier's only two failure
// modes (spec.md §4.1); everything else the caller might reject (turn
// order, ownership, dominance) is a gameplay-level error, not a
// classification error.
var (
	ErrWrongCardCount       = errors.New("cards: wrong card count")
	ErrNotAValidCombination = errors.New("cards: not a valid combination")
)

// Hand is a classified, immutable Big Two play: a Variant plus the cards
// that produced it, sorted ascending. The classifier (Classify) is the
// single source of truth for hand shape; nothing else in the system
// pattern-matches on raw card sets (spec.md §4.1).
type Hand struct {
	Variant Variant
	Cards   []Card
}

// Classify determines the Big Two hand a set of cards forms, or reports why
// it doesn't form one. Grounded on the teacher's IdentifyCombination
// (internal/domain/rules.go), generalized from Tien Len's combination set
// (which includes bombs and 3+ card straights) to Big Two's fixed
// 1/2/3/5-card variants.
func Classify(cards []Card) (Hand, error) {
	n := len(cards)
	if n == 0 || n == 4 || n > 5 {
		return Hand{}, ErrWrongCardCount
	}

	sorted := make([]Card, n)
	copy(sorted, cards)
	SortHand(sorted)

	switch n {
	case 1:
		return Hand{Variant: Single, Cards: sorted}, nil
	case 2:
		if !sameRank(sorted) {
			return Hand{}, ErrNotAValidCombination
		}
		return Hand{Variant: Pair, Cards: sorted}, nil
	case 3:
		if !sameRank(sorted) {
			return Hand{}, ErrNotAValidCombination
		}
		return Hand{Variant: Triple, Cards: sorted}, nil
	case 5:
		return classifyFive(sorted)
	}
	return Hand{}, ErrWrongCardCount
}

func classifyFive(sorted []Card) (Hand, error) {
	straight := isStraight(sorted)
	flush := isFlush(sorted)

	switch {
	case straight && flush:
		return Hand{Variant: StraightFlush, Cards: sorted}, nil
	case straight:
		return Hand{Variant: Straight, Cards: sorted}, nil
	case flush:
		return Hand{Variant: Flush, Cards: sorted}, nil
	}

	counts := rankCounts(sorted)
	switch {
	case hasCountShape(counts, 3, 2):
		return Hand{Variant: FullHouse, Cards: sorted}, nil
	case hasCountShape(counts, 4, 1):
		return Hand{Variant: FourPlusOne, Cards: sorted}, nil
	}
	return Hand{}, ErrNotAValidCombination
}

// Dominates reports whether h legally beats prev as the next play onto an
// alive trick. Non-five-card variants may only beat the identical variant;
// any five-card variant may beat any strictly lesser five-card variant,
// where "lesser" is category rank first, then the defining card/rank
// within a category (spec.md §3, §4.2).
func (h Hand) Dominates(prev Hand) bool {
	if isFiveCardVariant(h.Variant) && isFiveCardVariant(prev.Variant) {
		hc, pc := categoryRank(h.Variant), categoryRank(prev.Variant)
		if hc != pc {
			return hc > pc
		}
		return h.definingValue() > prev.definingValue()
	}
	if h.Variant != prev.Variant {
		return false
	}
	return h.definingValue() > prev.definingValue()
}

// definingValue is the comparable strength of a hand within its own
// variant: the highest card's power for Single/Pair/Triple/Straight/
// Flush/StraightFlush, and the rank of the same-rank group for FullHouse
// (the triple) and FourPlusOne (the quad).
func (h Hand) definingValue() int {
	switch h.Variant {
	case FullHouse:
		return int(groupRank(h.Cards, 3))
	case FourPlusOne:
		return int(groupRank(h.Cards, 4))
	default:
		return maxPower(h.Cards)
	}
}

// HighCard returns the strongest card in the hand — the card a client
// would show as leading the play in a MOVE_PLAYED envelope.
func (h Hand) HighCard() Card {
	best := h.Cards[0]
	for _, c := range h.Cards[1:] {
		if c.power() > best.power() {
			best = c
		}
	}
	return best
}

func sameRank(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	r := cards[0].Rank
	for _, c := range cards[1:] {
		if c.Rank != r {
			return false
		}
	}
	return true
}

func isFlush(cards []Card) bool {
	if len(cards) == 0 {
		return false
	}
	s := cards[0].Suit
	for _, c := range cards[1:] {
		if c.Suit != s {
			return false
		}
	}
	return true
}

// isStraight reports whether five sorted, distinct-rank cards form a
// consecutive run. Because Two is defined as the highest Rank value (see
// card.go), the only run that includes Two is J-Q-K-A-2 (ranks 8..12); any
// other combination touching rank Two fails the consecutive check here,
// which is exactly the boundary spec.md §3/§4.1 calls for — see
// SPEC_FULL.md §3 for why this repo does not follow the original
// implementation's alternate low-ace straight.
func isStraight(sorted []Card) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Rank == sorted[i-1].Rank {
			return false
		}
		if int(sorted[i].Rank) != int(sorted[i-1].Rank)+1 {
			return false
		}
	}
	return true
}

func rankCounts(cards []Card) map[Rank]int {
	counts := make(map[Rank]int, len(cards))
	for _, c := range cards {
		counts[c.Rank]++
	}
	return counts
}

// hasCountShape reports whether the rank-count histogram is exactly one
// group of size a and one group of size b (a full house or four-plus-one).
func hasCountShape(counts map[Rank]int, a, b int) bool {
	if len(counts) != 2 {
		return false
	}
	var sizes []int
	for _, n := range counts {
		sizes = append(sizes, n)
	}
	sort.Ints(sizes)
	return sizes[0] == min(a, b) && sizes[1] == max(a, b)
}

// groupRank returns the rank of the same-rank group of the given size
// (3 for a full house's triple, 4 for a four-plus-one's quad).
func groupRank(cards []Card, size int) Rank {
	counts := rankCounts(cards)
	for r, n := range counts {
		if n == size {
			return r
		}
	}
	return -1
}

func maxPower(cards []Card) int {
	best := -1
	for _, c := range cards {
		if p := c.power(); p > best {
			best = p
		}
	}
	return best
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
