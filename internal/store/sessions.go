package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
)

// GetSession fetches the conversation session for a user. A user with no row
// gets a fresh idle session.
func (s *Store) GetSession(ctx context.Context, userID string) (profile.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, mode, state_token, current_step_id, last_inbound_message_sid, last_reply_message, dropout_nudge_sent_at, updated_at
		FROM conversation_sessions WHERE user_id = $1`, userID)

	var sess profile.Session
	var mode string
	err := row.Scan(&sess.UserID, &mode, &sess.StateToken, &sess.CurrentStepID, &sess.LastInboundMessageSID, &sess.LastReplyMessage, &sess.DropoutNudgeSentAt, &sess.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return profile.Session{UserID: userID, Mode: profile.ModeIdle, StateToken: profile.TokenIdle}, nil
	}
	if err != nil {
		return profile.Session{}, fmt.Errorf("get session %s: %w", userID, err)
	}
	sess.Mode = profile.Mode(mode)
	return sess, nil
}

// MarkDropoutNudge records that a dropout nudge was sent to a user.
func (s *Store) MarkDropoutNudge(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE conversation_sessions SET dropout_nudge_sent_at = now(), updated_at = now()
		WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("mark dropout nudge: %w", err)
	}
	return nil
}

func upsertSession(ctx context.Context, tx pgx.Tx, sess profile.Session) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO conversation_sessions (user_id, mode, state_token, current_step_id, last_inbound_message_sid, last_reply_message, dropout_nudge_sent_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id)
		DO UPDATE SET
			mode = $2,
			state_token = $3,
			current_step_id = $4,
			last_inbound_message_sid = $5,
			last_reply_message = $6,
			dropout_nudge_sent_at = $7,
			updated_at = $8`,
		sess.UserID, string(sess.Mode), sess.StateToken, sess.CurrentStepID, sess.LastInboundMessageSID, sess.LastReplyMessage, sess.DropoutNudgeSentAt, sess.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}
