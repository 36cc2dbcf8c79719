package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
)

// RecentTurns returns the last n conversation turns for a user, oldest first.
func (s *Store) RecentTurns(ctx context.Context, userID string, n int) ([]profile.Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role, body, created_at
		FROM conversation_turns
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, n)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var turns []profile.Turn
	for rows.Next() {
		var t profile.Turn
		if err := rows.Scan(&t.Role, &t.Body, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	slices.Reverse(turns)
	return turns, nil
}
