package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks the pool can still reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the interview tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS conversation_sessions (
	user_id                  TEXT PRIMARY KEY,
	mode                     TEXT NOT NULL DEFAULT 'idle',
	state_token              TEXT NOT NULL DEFAULT 'idle',
	current_step_id          TEXT NOT NULL DEFAULT '',
	last_inbound_message_sid TEXT NOT NULL DEFAULT '',
	last_reply_message       TEXT NOT NULL DEFAULT '',
	dropout_nudge_sent_at    TIMESTAMPTZ,
	updated_at               TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE conversation_sessions ADD COLUMN IF NOT EXISTS last_reply_message TEXT NOT NULL DEFAULT '';

CREATE TABLE IF NOT EXISTS profiles (
	user_id              TEXT PRIMARY KEY,
	state                TEXT NOT NULL DEFAULT 'empty',
	is_complete_mvp      BOOLEAN NOT NULL DEFAULT false,
	completeness_percent INTEGER NOT NULL DEFAULT 0,
	completed_at         TIMESTAMPTZ,
	fingerprint          JSONB NOT NULL DEFAULT '{}',
	activity_patterns    JSONB NOT NULL DEFAULT '[]',
	boundaries           JSONB NOT NULL DEFAULT '{}',
	preferences          JSONB NOT NULL DEFAULT '{}',
	active_intent        JSONB,
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profile_events (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	event_type TEXT NOT NULL,
	step_id    TEXT NOT NULL,
	payload    JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS profile_events_user_idx ON profile_events (user_id, created_at);

CREATE TABLE IF NOT EXISTS conversation_turns (
	id          UUID PRIMARY KEY,
	user_id     TEXT NOT NULL,
	role        TEXT NOT NULL,
	body        TEXT NOT NULL,
	message_sid TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS conversation_turns_user_idx ON conversation_turns (user_id, created_at);
`
