package httpapi

import (
	"context"
	"errors"
	"net/http"

	"bigtwo/internal/session"
)

// requireAuth validates the bearer token per spec.md §7's Auth error
// taxonomy and stores the resulting session on the request context for
// downstream handlers.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "MissingToken")
			return
		}
		sess, err := s.sessions.Validate(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, authErrorCode(err))
			return
		}
		ctx := context.WithValue(r.Context(), ctxSession, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authErrorCode(err error) string {
	switch {
	case errors.Is(err, session.ErrMissingToken):
		return "MissingToken"
	case errors.Is(err, session.ErrExpiredToken):
		return "ExpiredToken"
	case errors.Is(err, session.ErrSessionRevoked):
		return "SessionRevoked"
	default:
		return "InvalidToken"
	}
}

func sessionFromContext(r *http.Request) (session.Session, bool) {
	sess, ok := r.Context().Value(ctxSession).(session.Session)
	return sess, ok
}
