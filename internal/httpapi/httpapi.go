// Package httpapi implements the REST surface of spec.md §6: session
// issuance/validation and room lifecycle/stats endpoints, thin boundary
// handlers over internal/session and internal/rooms. Grounded on the
// pack's chi-plus-encoding/json handler style
// (_examples/Black-And-White-Club-frolf-bot/app/handlers/leaderboard_handler.go),
// generalized from package-level handler funcs to methods on a Server
// struct so dependencies are explicit rather than package globals.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"bigtwo/internal/events"
	"bigtwo/internal/identity"
	"bigtwo/internal/rooms"
	"bigtwo/internal/session"
	"bigtwo/internal/statsub"
)

// Server holds every collaborator the REST surface calls into. It has no
// mutable state of its own.
type Server struct {
	sessions   *session.Manager
	rooms      *rooms.Coordinator
	identities *identity.Registry
	stats      *statsub.Subscriber
}

// New builds a Server.
func New(sessions *session.Manager, coordinator *rooms.Coordinator, identities *identity.Registry, stats *statsub.Subscriber) *Server {
	return &Server{sessions: sessions, rooms: coordinator, identities: identities, stats: stats}
}

// Router builds the chi.Router exposing every endpoint in spec.md §6's
// table.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/session", s.handleCreateSession)
	r.Get("/rooms", s.handleListRooms)
	r.Get("/room/{id}", s.handleGetRoom)
	r.Get("/room/{id}/stats", s.handleGetRoomStats)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/session/validate", s.handleValidateSession)
		r.Post("/room", s.handleCreateRoom)
		r.Post("/room/{id}/join", s.handleJoinRoom)
		r.Delete("/room/{id}", s.handleDeleteRoom)
		r.Post("/room/{id}/bot/add", s.handleAddBot)
		r.Delete("/room/{id}/bot/{bot_id}", s.handleRemoveBot)
	})

	return r
}

type contextKey string

const ctxSession contextKey = "session"

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	// X-Session-ID accepted as a legacy alias (spec.md §6, §9).
	return r.Header.Get("X-Session-ID")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func roomView(r *rooms.Room) map[string]any {
	seats, host, status := r.Snapshot()
	players := make([]map[string]any, len(seats))
	for i, seat := range seats {
		players[i] = map[string]any{"id": seat.PlayerID, "name": seat.Name, "kind": seat.Kind}
	}
	return map[string]any{
		"id":      r.ID,
		"host":    host,
		"status":  status,
		"players": players,
	}
}

func statsView(v events.RoomStatsView) map[string]any {
	return map[string]any{
		"games_played": v.GamesPlayed,
		"players":      v.Players,
	}
}
