package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"bigtwo/internal/identity"
	"bigtwo/internal/rooms"
)

// POST /session — mints a fresh player identity and bearer token. Anonymous:
// this server has no notion of accounts beyond a generated display name.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	player := s.identities.NewHuman()
	sess, token, err := s.sessions.Issue(r.Context(), player.ID, player.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "IssueFailed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": sess.ID,
		"token":      token,
		"username":   sess.Username,
		"player_id":  sess.PlayerID,
	})
}

// GET /session/validate
func (s *Server) handleValidateSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid":     true,
		"username":  sess.Username,
		"player_id": sess.PlayerID,
	})
}

// POST /room
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r)
	room := s.rooms.Create(sess.PlayerID, sess.Username)
	writeJSON(w, http.StatusCreated, roomView(room))
}

// GET /rooms
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	all := s.rooms.List()
	out := make([]map[string]any, len(all))
	for i, room := range all {
		seats, host, status := room.Snapshot()
		out[i] = map[string]any{
			"id":           room.ID,
			"host":         host,
			"player_count": len(seats),
			"status":       status,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /room/{id}
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := s.rooms.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "RoomNotFound")
		return
	}
	writeJSON(w, http.StatusOK, roomView(room))
}

// GET /room/{id}/stats
func (s *Server) handleGetRoomStats(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.rooms.Get(id); !ok {
		writeError(w, http.StatusNotFound, "RoomNotFound")
		return
	}
	view, ok := s.stats.Snapshot(id)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"games_played": 0, "players": []any{}})
		return
	}
	writeJSON(w, http.StatusOK, statsView(view))
}

// POST /room/{id}/join
func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r)
	id := chi.URLParam(r, "id")

	err := s.rooms.Join(id, sess.PlayerID, sess.Username, identity.Human)
	switch {
	case err == nil:
	case errors.Is(err, rooms.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "RoomNotFound")
		return
	case errors.Is(err, rooms.ErrRoomFull):
		writeError(w, http.StatusConflict, "RoomFull")
		return
	case errors.Is(err, rooms.ErrAlreadyJoined):
		writeError(w, http.StatusConflict, "AlreadyJoined")
		return
	default:
		writeError(w, http.StatusInternalServerError, "JoinFailed")
		return
	}

	room, _ := s.rooms.Get(id)
	writeJSON(w, http.StatusOK, map[string]any{"room": roomView(room)})
}

// DELETE /room/{id} — host-only.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r)
	id := chi.URLParam(r, "id")

	room, ok := s.rooms.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "RoomNotFound")
		return
	}
	if !room.IsHost(sess.PlayerID) {
		writeError(w, http.StatusForbidden, "NotHost")
		return
	}
	s.rooms.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// POST /room/{id}/bot/add — host-only.
func (s *Server) handleAddBot(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r)
	id := chi.URLParam(r, "id")

	room, ok := s.rooms.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "RoomNotFound")
		return
	}
	if !room.IsHost(sess.PlayerID) {
		writeError(w, http.StatusForbidden, "NotHost")
		return
	}

	bot := s.identities.NewBot()
	if err := s.rooms.AddBot(id, bot.ID, bot.Name); err != nil {
		if errors.Is(err, rooms.ErrRoomFull) {
			writeError(w, http.StatusConflict, "RoomFull")
			return
		}
		writeError(w, http.StatusNotFound, "RoomNotFound")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"bot_id": bot.ID, "name": bot.Name})
}

// DELETE /room/{id}/bot/{bot_id} — host-only.
func (s *Server) handleRemoveBot(w http.ResponseWriter, r *http.Request) {
	sess, _ := sessionFromContext(r)
	id := chi.URLParam(r, "id")
	botID := chi.URLParam(r, "bot_id")

	room, ok := s.rooms.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "RoomNotFound")
		return
	}
	if !room.IsHost(sess.PlayerID) {
		writeError(w, http.StatusForbidden, "NotHost")
		return
	}
	if err := s.rooms.RemoveBot(id, botID); err != nil {
		writeError(w, http.StatusNotFound, "RoomNotFound")
		return
	}
	s.identities.Remove(botID)
	w.WriteHeader(http.StatusNoContent)
}
