package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
)

// GetProfile fetches a user's profile. A user with no row gets an empty
// profile.
func (s *Store) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, state, is_complete_mvp, completeness_percent, completed_at,
		       fingerprint, activity_patterns, boundaries, preferences, active_intent
		FROM profiles WHERE user_id = $1`, userID)

	var p profile.Profile
	var state string
	var fingerprint, activities, boundaries, preferences, intent []byte
	err := row.Scan(&p.UserID, &state, &p.IsCompleteMVP, &p.CompletenessPercent, &p.CompletedAt,
		&fingerprint, &activities, &boundaries, &preferences, &intent)
	if errors.Is(err, pgx.ErrNoRows) {
		return profile.Profile{UserID: userID, State: profile.StateEmpty}, nil
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	p.State = profile.State(state)

	for _, col := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"fingerprint", fingerprint, &p.Fingerprint},
		{"activity_patterns", activities, &p.ActivityPatterns},
		{"boundaries", boundaries, &p.Boundaries},
		{"preferences", preferences, &p.Preferences},
		{"active_intent", intent, &p.ActiveIntent},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return profile.Profile{}, fmt.Errorf("decode profile %s %s: %w", userID, col.name, err)
		}
	}
	return p, nil
}

func upsertProfile(ctx context.Context, tx pgx.Tx, userID string, pt profile.Patch) error {
	fingerprint, err := json.Marshal(pt.Fingerprint)
	if err != nil {
		return fmt.Errorf("encode fingerprint: %w", err)
	}
	activities, err := json.Marshal(pt.ActivityPatterns)
	if err != nil {
		return fmt.Errorf("encode activity patterns: %w", err)
	}
	boundaries, err := json.Marshal(pt.Boundaries)
	if err != nil {
		return fmt.Errorf("encode boundaries: %w", err)
	}
	preferences, err := json.Marshal(pt.Preferences)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	var intent []byte
	if pt.ActiveIntent != nil {
		if intent, err = json.Marshal(pt.ActiveIntent); err != nil {
			return fmt.Errorf("encode active intent: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO profiles (user_id, state, is_complete_mvp, completeness_percent, completed_at,
		                      fingerprint, activity_patterns, boundaries, preferences, active_intent, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (user_id)
		DO UPDATE SET
			state = $2,
			is_complete_mvp = $3,
			completeness_percent = $4,
			completed_at = $5,
			fingerprint = $6,
			activity_patterns = $7,
			boundaries = $8,
			preferences = $9,
			active_intent = $10,
			updated_at = now()`,
		userID, string(pt.State), pt.IsCompleteMVP, pt.CompletenessPercent, pt.CompletedAt,
		string(fingerprint), string(activities), string(boundaries), string(preferences), nullableJSON(intent),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

func nullableJSON(b []byte) *string {
	if b == nil {
		return nil
	}
	s := string(b)
	return &s
}
