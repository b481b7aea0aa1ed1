// Package session implements bearer-token issuance/validation and
// persistent session storage (spec.md §6). A Manager issues a signed JWT
// per spec.md's SessionValidator role and pairs it with a Store record,
// grounded on the pack's token/claims split
// (_examples/Black-And-White-Club-frolf-bot/pkg/jwt/{jwt.go,claims.go}).
package session

import (
	"context"
	"time"
)

// DefaultExpiration matches spec.md §6's SESSION_EXPIRATION_DAYS default.
const DefaultExpiration = 365 * 24 * time.Hour

// Session is the persisted record backing a bearer token (spec.md §6's
// user_sessions table).
type Session struct {
	ID           string
	PlayerID     string
	Username     string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	LastAccessed time.Time
}

// Store persists Sessions. Implementations: MemoryStore (default) and
// PostgresStore (used only when DATABASE_URL is configured).
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, id string) (Session, error)
	Delete(ctx context.Context, id string) error
	// Touch sets the session's LastAccessed to at. It never rotates the
	// token and never changes ExpiresAt; a new token comes only from a
	// fresh Issue.
	Touch(ctx context.Context, id string, at time.Time) error
}

// Validator is the narrow interface wsserver depends on; it lets
// tests substitute a stub without pulling in JWT signing or a Store.
type Validator interface {
	Validate(ctx context.Context, token string) (Session, error)
}

// Issuer mints new sessions. Kept separate from Validator because only the
// POST /session handler needs it.
type Issuer interface {
	Issue(ctx context.Context, playerID, username string) (Session, string, error)
}
