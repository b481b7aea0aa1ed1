package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueThenValidateRoundTrips(t *testing.T) {
	m := NewManager("secret", time.Hour, NewMemoryStore())
	s, token, err := m.Issue(context.Background(), "player-1", "Silver Otter")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	got, err := m.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.ID != s.ID || got.PlayerID != "player-1" || got.Username != "Silver Otter" {
		t.Fatalf("Validate = %+v, want session for player-1/Silver Otter", got)
	}
}

func TestValidateEmptyTokenIsMissingToken(t *testing.T) {
	m := NewManager("secret", time.Hour, NewMemoryStore())
	_, err := m.Validate(context.Background(), "")
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}
}

func TestValidateGarbageTokenIsInvalid(t *testing.T) {
	m := NewManager("secret", time.Hour, NewMemoryStore())
	_, err := m.Validate(context.Background(), "not-a-jwt")
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestValidateExpiredToken(t *testing.T) {
	m := NewManager("secret", -time.Hour, NewMemoryStore())
	_, token, err := m.Issue(context.Background(), "player-1", "name")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	_, err = m.Validate(context.Background(), token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

func TestValidateRevokedSession(t *testing.T) {
	m := NewManager("secret", time.Hour, NewMemoryStore())
	s, token, err := m.Issue(context.Background(), "player-1", "name")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := m.Revoke(context.Background(), s.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	_, err = m.Validate(context.Background(), token)
	if !errors.Is(err, ErrSessionRevoked) {
		t.Fatalf("err = %v, want ErrSessionRevoked", err)
	}
}

func TestValidateRejectsWrongSigningMethod(t *testing.T) {
	m := NewManager("secret", time.Hour, NewMemoryStore())
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "some-session",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	_, err = m.Validate(context.Background(), signed)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}
