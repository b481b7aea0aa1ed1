package botplay

import "bigtwo/internal/cards"

// ChooseMove implements the basic bot strategy (spec.md §4.6): if the trick
// is dead, play the lowest-ranked single the bot owns; if alive, enumerate
// every subset of hand with the same card count as lastPlayed, classify
// each, keep the ones that dominate lastPlayed, and return the
// minimum-ranked of those. Returns nil when no legal beating hand exists,
// which the caller reads as "pass".
func ChooseMove(hand []cards.Card, lastPlayed *cards.Hand) []cards.Card {
	if lastPlayed == nil {
		return lowestSingle(hand)
	}
	return minimumDominating(hand, len(lastPlayed.Cards), *lastPlayed)
}

func lowestSingle(hand []cards.Card) []cards.Card {
	if len(hand) == 0 {
		return nil
	}
	lowest := hand[0]
	for _, c := range hand[1:] {
		if c.Less(lowest) {
			lowest = c
		}
	}
	return []cards.Card{lowest}
}

func minimumDominating(hand []cards.Card, size int, last cards.Hand) []cards.Card {
	if size <= 0 || size > len(hand) {
		return nil
	}
	var best *cards.Hand
	var bestCards []cards.Card
	for _, combo := range combinations(hand, size) {
		h, err := cards.Classify(combo)
		if err != nil {
			continue
		}
		if !h.Dominates(last) {
			continue
		}
		if best == nil || best.Dominates(h) {
			hCopy := h
			best = &hCopy
			bestCards = combo
		}
	}
	return bestCards
}

// combinations enumerates every k-card subset of deck, in lexicographic
// index order. Fine for hands of up to 13 cards (worst case C(13,5)=1287
// candidates to classify), which a bot's turn-change think-timer easily
// absorbs.
func combinations(deck []cards.Card, k int) [][]cards.Card {
	n := len(deck)
	if k <= 0 || k > n {
		return nil
	}
	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}

	var result [][]cards.Card
	for {
		combo := make([]cards.Card, k)
		for i, idx := range indices {
			combo[i] = deck[idx]
		}
		result = append(result, combo)

		i := k - 1
		for i >= 0 && indices[i] == i+n-k {
			i--
		}
		if i < 0 {
			return result
		}
		indices[i]++
		for j := i + 1; j < k; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
}
