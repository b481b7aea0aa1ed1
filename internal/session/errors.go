package session

import "errors"

// Auth error taxonomy (spec.md §7): MissingToken, InvalidToken, ExpiredToken,
// SessionRevoked all map to HTTP 401 at the httpapi/wsserver boundary.
var (
	ErrMissingToken  = errors.New("missing token")
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("expired token")
	ErrSessionRevoked = errors.New("session revoked")

	// ErrNotFound is returned by a Store when no session exists for an id,
	// whether it was never created, already deleted, or expired.
	ErrNotFound = errors.New("session not found")
)
