package config

import (
	"sync"
	"testing"
	"time"
)

func resetForTest() {
	cfg = nil
	loadErr = nil
	loadOnce = sync.Once{}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	resetForTest()

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "3000" {
		t.Fatalf("Port = %q, want default 3000", c.Port)
	}
	if c.SessionExpiration != 365*24*time.Hour {
		t.Fatalf("SessionExpiration = %v, want 365 days", c.SessionExpiration)
	}
	if c.GameResetDelay != 5*time.Second {
		t.Fatalf("GameResetDelay = %v, want 5s", c.GameResetDelay)
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	resetForTest()

	if _, err := Load(); err == nil {
		t.Fatal("expected an error when JWT_SECRET is unset")
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "s")
	t.Setenv("PORT", "8080")
	t.Setenv("BOT_THINK_MIN_MS", "100")
	t.Setenv("BOT_THINK_MAX_MS", "300")
	resetForTest()

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", c.Port)
	}
	if c.BotThinkMin != 100*time.Millisecond || c.BotThinkMax != 300*time.Millisecond {
		t.Fatalf("BotThinkMin/Max = %v/%v, want 100ms/300ms", c.BotThinkMin, c.BotThinkMax)
	}
}
