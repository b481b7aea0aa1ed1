// Package identity maps stable player ids to display names and connection
// state (spec.md §2 "Player identity mapping", §3 Player). Grounded on the
// teacher's bot identity pool (_examples/LarryBui-ThirteenV4/Server/internal/bot/identities.go),
// generalized from a bot-only JSON-file pool to a live registry covering
// both human and bot players.
package identity

import (
	"sync"

	"github.com/google/uuid"
)

// Kind distinguishes a human-controlled seat from a bot-controlled one
// (spec.md §3 Player.kind).
type Kind string

const (
	Human Kind = "human"
	Bot   Kind = "bot"
)

// ConnectionState is a human player's live socket state (spec.md §3
// Player.connection_state). Bots are always Connected.
type ConnectionState string

const (
	Connected    ConnectionState = "connected"
	Disconnected ConnectionState = "disconnected"
)

// NameSource is the external collaborator spec.md §1 names as out of
// scope: a pseudo-random human-readable name generator. internal/namegen
// provides the concrete implementation.
type NameSource interface {
	GenerateName() string
}

// Player is a stable identity independent of any one room or game
// (spec.md §3).
type Player struct {
	ID              string
	Name            string
	Kind            Kind
	ConnectionState ConnectionState
}

// Registry is the process-wide stable-id to Player index. I6 (globally
// unique ids per process lifetime) holds because ids are minted from
// uuid.NewString, whose collision probability is negligible over any
// process's lifetime.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*Player
	names   NameSource
}

// NewRegistry builds an empty Registry that mints display names from names.
func NewRegistry(names NameSource) *Registry {
	return &Registry{players: make(map[string]*Player), names: names}
}

// NewHuman mints a fresh human Player with a generated display name and
// registers it.
func (r *Registry) NewHuman() *Player {
	return r.new(Human)
}

// NewBot mints a fresh bot Player with a generated display name and
// registers it.
func (r *Registry) NewBot() *Player {
	return r.new(Bot)
}

// botNameSource is the optional extension namegen.Source implements; a bot
// gets a visually distinct name when the configured NameSource supports it,
// otherwise it falls back to the same pool a human draws from.
type botNameSource interface {
	GenerateBotName() string
}

func (r *Registry) new(kind Kind) *Player {
	name := r.names.GenerateName()
	if kind == Bot {
		if botNames, ok := r.names.(botNameSource); ok {
			name = botNames.GenerateBotName()
		}
	}
	p := &Player{
		ID:              uuid.NewString(),
		Name:            name,
		Kind:            kind,
		ConnectionState: Connected,
	}
	r.mu.Lock()
	r.players[p.ID] = p
	r.mu.Unlock()
	return p
}

// Get looks up a Player by stable id.
func (r *Registry) Get(id string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// SetConnectionState updates a human player's connection state. No-op if
// id is unknown or belongs to a bot.
func (r *Registry) SetConnectionState(id string, state ConnectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if !ok || p.Kind == Bot {
		return
	}
	p.ConnectionState = state
}

// Remove forgets id entirely, e.g. once its seat has left every room it
// occupied.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.players, id)
}

// DisplayName returns the current name for id, if known.
func (r *Registry) DisplayName(id string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return "", false
	}
	return p.Name, true
}
