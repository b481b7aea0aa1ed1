package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists sessions to spec.md §6's user_sessions table. Used
// only when DATABASE_URL is set (internal/config); grounded on the pack's
// pgxpool usage (_examples/Black-And-White-Club-frolf-bot, e.g.
// integration_tests/testutils/db_helper.go's pgxpool.ParseConfig/NewWithConfig).
// No migration framework is wired in for this single table — bootstrapping
// with a hand-rolled CREATE TABLE IF NOT EXISTS is the standard pgx idiom
// for a schema this small, and pulling in the pack's bun/river migration
// stack would only serve one table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects and ensures the schema exists.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

func (p *PostgresStore) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS user_sessions (
	id TEXT PRIMARY KEY,
	username TEXT NOT NULL,
	player_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	last_accessed TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS user_sessions_expires_at_idx ON user_sessions (expires_at);
CREATE INDEX IF NOT EXISTS user_sessions_username_idx ON user_sessions (username);
`)
	return err
}

func (p *PostgresStore) Close() {
	p.pool.Close()
}

func (p *PostgresStore) Create(ctx context.Context, s Session) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO user_sessions (id, username, player_id, created_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		s.ID, s.Username, s.PlayerID, s.CreatedAt, s.ExpiresAt,
	)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (Session, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, username, player_id, created_at, expires_at, last_accessed
		 FROM user_sessions WHERE id = $1 AND expires_at > now()`,
		id,
	)
	var s Session
	var lastAccessed *time.Time
	if err := row.Scan(&s.ID, &s.Username, &s.PlayerID, &s.CreatedAt, &s.ExpiresAt, &lastAccessed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}
	if lastAccessed != nil {
		s.LastAccessed = *lastAccessed
	}
	return s, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM user_sessions WHERE id = $1`, id)
	return err
}

func (p *PostgresStore) Touch(ctx context.Context, id string, at time.Time) error {
	tag, err := p.pool.Exec(ctx, `UPDATE user_sessions SET last_accessed = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
