//go:build integration

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func cleanupUser(t *testing.T, s *Store, userID string) {
	t.Cleanup(func() {
		ctx := context.Background()
		for _, table := range []string{"conversation_sessions", "profiles", "profile_events", "conversation_turns"} {
			s.pool.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = $1", userID)
		}
	})
}

func TestIntegration_MissingRowsAreFresh(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "integration-" + uuid.New().String()[:8]

	sess, err := s.GetSession(ctx, userID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess.Mode != profile.ModeIdle || sess.StateToken != profile.TokenIdle {
		t.Errorf("expected idle session, got %+v", sess)
	}

	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.State != profile.StateEmpty || p.UserID != userID {
		t.Errorf("expected empty profile, got %+v", p)
	}
}

func TestIntegration_ApplyTurn(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "integration-" + uuid.New().String()[:8]
	cleanupUser(t, s, userID)
	at := time.Now().UTC().Truncate(time.Millisecond)

	sess := profile.Session{UserID: userID}.Interviewing("activity_02", "SM1", at)
	sess.LastReplyMessage = "Which of those would you do first?"
	completed := at
	pt := profile.Patch{
		Fingerprint: map[profile.FactorKey]profile.FactorValue{
			profile.FactorSocialPace: {Value: 0.5, Confidence: 0.65, Source: profile.SourceDeterministic},
		},
		ActivityPatterns: []profile.ActivityPattern{{ActivityKey: "coffee", Confidence: 0.7, Source: profile.SourceDeterministic}},
		Boundaries:       profile.Boundaries{NoThanks: []string{}, Skipped: true},
		Preferences: profile.Preferences{
			TimePreferences: []string{"evening"},
			InterviewProgress: &profile.InterviewProgress{
				Status:           profile.ProgressInProgress,
				CurrentStepID:    "activity_02",
				CompletedStepIDs: []string{"activity_01"},
			},
		},
		State:               profile.StatePartial,
		CompletenessPercent: 25,
		CompletedAt:         &completed,
	}

	eventID, err := s.ApplyTurn(ctx, TurnWrite{
		UserID:     userID,
		MessageSID: "SM1",
		Session:    sess,
		Patch:      &pt,
		Event:      &Event{Type: "interview_answer_recorded", StepID: "activity_01", Payload: map[string]any{"next_step_id": "activity_02"}},
		Inbound:    "coffee, walk, museum",
		Reply:      "Which of those would you do first?",
		At:         at,
	})
	if err != nil {
		t.Fatalf("ApplyTurn failed: %v", err)
	}
	if eventID == uuid.Nil {
		t.Fatal("expected non-nil event ID")
	}

	gotSess, err := s.GetSession(ctx, userID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if gotSess.StepID() != "activity_02" || gotSess.LastInboundMessageSID != "SM1" || gotSess.LastReplyMessage != sess.LastReplyMessage {
		t.Errorf("unexpected session %+v", gotSess)
	}

	p, err := s.GetProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p.Fingerprint[profile.FactorSocialPace].Confidence != 0.65 {
		t.Errorf("unexpected fingerprint %+v", p.Fingerprint)
	}
	if !p.Boundaries.Skipped || p.Boundaries.NoThanks == nil {
		t.Errorf("unexpected boundaries %+v", p.Boundaries)
	}
	if !p.Preferences.InterviewProgress.HasCompleted("activity_01") {
		t.Errorf("progress lost completed step: %+v", p.Preferences.InterviewProgress)
	}
	if p.ActiveIntent != nil {
		t.Errorf("expected nil active intent, got %+v", p.ActiveIntent)
	}

	turns, err := s.RecentTurns(ctx, userID, 8)
	if err != nil {
		t.Fatalf("RecentTurns failed: %v", err)
	}
	if len(turns) != 2 || turns[0].Role != profile.RoleUser || turns[1].Role != profile.RoleAssistant {
		t.Errorf("unexpected turns %+v", turns)
	}

	var eventType string
	err = s.pool.QueryRow(ctx, "SELECT event_type FROM profile_events WHERE id = $1", eventID).Scan(&eventType)
	if err != nil {
		t.Fatalf("query event failed: %v", err)
	}
	if eventType != "interview_answer_recorded" {
		t.Errorf("expected event type, got %q", eventType)
	}
}

func TestIntegration_MarkDropoutNudge(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	userID := "integration-" + uuid.New().String()[:8]
	cleanupUser(t, s, userID)

	sess := profile.Session{UserID: userID}.Interviewing("pace_01", "SM9", time.Now().UTC())
	if _, err := s.ApplyTurn(ctx, TurnWrite{UserID: userID, Session: sess, At: time.Now().UTC()}); err != nil {
		t.Fatalf("ApplyTurn failed: %v", err)
	}
	if err := s.MarkDropoutNudge(ctx, userID); err != nil {
		t.Fatalf("MarkDropoutNudge failed: %v", err)
	}

	got, err := s.GetSession(ctx, userID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.DropoutNudgeSentAt == nil {
		t.Error("expected dropout nudge timestamp")
	}
}
