package session

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the session id (as the JWT id) plus the denormalized
// player id and username so a validator never needs a store round trip
// just to answer "who is this" — the store lookup exists to check
// revocation, not to resolve identity. Grounded on the pack's PWAClaims
// (_examples/Black-And-White-Club-frolf-bot/pkg/jwt/claims.go).
type Claims struct {
	jwt.RegisteredClaims
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
}

// Manager is the SessionValidator/Issuer implementation: it signs and
// verifies bearer tokens and keeps a Store record per session so tokens can
// be revoked (session deleted) before they expire.
type Manager struct {
	secret []byte
	ttl    time.Duration
	store  Store
}

// NewManager builds a Manager. ttl of zero uses DefaultExpiration.
func NewManager(secret string, ttl time.Duration, store Store) *Manager {
	if ttl == 0 {
		ttl = DefaultExpiration
	}
	return &Manager{secret: []byte(secret), ttl: ttl, store: store}
}

// Issue creates a new session for playerID/username, persists it, and
// returns both the record and its signed bearer token.
func (m *Manager) Issue(ctx context.Context, playerID, username string) (Session, string, error) {
	now := time.Now()
	s := Session{
		ID:        uuid.NewString(),
		PlayerID:  playerID,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, s); err != nil {
		return Session{}, "", err
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
		PlayerID: playerID,
		Username: username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return Session{}, "", err
	}
	return s, signed, nil
}

// Validate parses and verifies tokenString, then confirms the session it
// names has not been revoked (deleted from the store ahead of its natural
// expiry). Touches the session's last-accessed time on success.
func (m *Manager) Validate(ctx context.Context, tokenString string) (Session, error) {
	if tokenString == "" {
		return Session{}, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrExpiredToken
		}
		return Session{}, ErrInvalidToken
	}
	if !token.Valid {
		return Session{}, ErrInvalidToken
	}

	s, err := m.store.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, ErrSessionRevoked
		}
		return Session{}, err
	}

	_ = m.store.Touch(ctx, s.ID, time.Now())
	return s, nil
}

// Revoke deletes a session, invalidating its token immediately regardless
// of expiry.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	return m.store.Delete(ctx, sessionID)
}
