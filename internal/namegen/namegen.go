// Package namegen implements the NameSource collaborator spec.md §1 names
// as out of scope: a pseudo-random human-readable name generator, used for
// both player display names and room tokens (glossary: Pet name).
// Grounded on the teacher's static JSON identity pool
// (_examples/LarryBui-ThirteenV4/Server/internal/bot/identities.go),
// replaced here with github.com/brianvoe/gofakeit/v7, whose dependency the
// pack's Black-And-White-Club-frolf-bot already pulls in for generated
// fixtures.
package namegen

import (
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
)

// Source generates player display names and room tokens. It implements
// internal/identity.NameSource and internal/rooms.TokenSource.
type Source struct{}

// New returns a ready-to-use Source. gofakeit's package-level generator
// needs no seeding for our purposes; callers only ever read from it.
func New() *Source {
	return &Source{}
}

// GenerateName returns a human display name, e.g. "Priscilla Kunze".
func (s *Source) GenerateName() string {
	return gofakeit.Name()
}

// GenerateBotName returns a display name for a bot seat, visually
// distinguishable from a human's in room rosters and chat.
func (s *Source) GenerateBotName() string {
	return fmt.Sprintf("%s Bot", gofakeit.FirstName())
}

// GenerateToken returns a human-readable room token: two adjectives and an
// animal name, lowercased and joined by hyphens, e.g. "quiet-amber-otter".
func (s *Source) GenerateToken() string {
	words := []string{gofakeit.Adjective(), gofakeit.Adjective(), gofakeit.Animal()}
	for i, w := range words {
		words[i] = strings.ToLower(strings.ReplaceAll(w, " ", "-"))
	}
	return strings.Join(words, "-")
}
