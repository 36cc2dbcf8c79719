package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
)

// Event is one domain event row.
type Event struct {
	Type    string
	StepID  string
	Payload map[string]any
}

// TurnWrite is everything one processed message persists.
type TurnWrite struct {
	UserID     string
	MessageSID string
	Session    profile.Session
	Patch      *profile.Patch
	Event      *Event
	Inbound    string
	Reply      string
	At         time.Time
}

// ApplyTurn writes the session, profile patch, event and both conversation
// turns in a single transaction. It returns the event id, or uuid.Nil when no
// event was written.
func (s *Store) ApplyTurn(ctx context.Context, w TurnWrite) (uuid.UUID, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := upsertSession(ctx, tx, w.Session); err != nil {
		return uuid.Nil, err
	}
	if w.Patch != nil {
		if err := upsertProfile(ctx, tx, w.UserID, *w.Patch); err != nil {
			return uuid.Nil, err
		}
	}

	eventID := uuid.Nil
	if w.Event != nil {
		payload, err := json.Marshal(w.Event.Payload)
		if err != nil {
			return uuid.Nil, fmt.Errorf("encode event payload: %w", err)
		}
		eventID = uuid.New()
		_, err = tx.Exec(ctx, `
			INSERT INTO profile_events (id, user_id, event_type, step_id, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			eventID, w.UserID, w.Event.Type, w.Event.StepID, string(payload), w.At,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert profile event: %w", err)
		}
	}

	// Reply turns sort after the inbound turn.
	for _, t := range []struct {
		role, body string
		at         time.Time
	}{
		{profile.RoleUser, w.Inbound, w.At},
		{profile.RoleAssistant, w.Reply, w.At.Add(time.Microsecond)},
	} {
		if t.body == "" {
			continue
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO conversation_turns (id, user_id, role, body, message_sid, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New(), w.UserID, t.role, t.body, w.MessageSID, t.at,
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert turn: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit: %w", err)
	}
	return eventID, nil
}
