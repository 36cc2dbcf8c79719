package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaxJericho/josh-2.0-sub000/internal/coverage"
	"github.com/JaxJericho/josh-2.0-sub000/internal/hermes"
	"github.com/JaxJericho/josh-2.0-sub000/internal/planner"
	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProcessor struct {
	got hermes.InboundSMS
	res planner.Result
	err error
}

func (f *fakeProcessor) Process(_ context.Context, in hermes.InboundSMS) (planner.Result, error) {
	f.got = in
	return f.res, f.err
}

type fakeStore struct {
	pingErr error
	profile profile.Profile
	err     error
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) GetProfile(_ context.Context, userID string) (profile.Profile, error) {
	p := f.profile
	p.UserID = userID
	return p, f.err
}

func newTestServer(token string, proc Processor, db Store) *Server {
	return NewServer(8760, token, proc, db, discardLogger())
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		pingErr error
		code    int
		status  string
	}{
		{"ok", nil, http.StatusOK, "ok"},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer("", &fakeProcessor{}, &fakeStore{pingErr: tt.pingErr})

			req := httptest.NewRequest("GET", "/health", nil)
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			if w.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, w.Code)
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if body["status"] != tt.status {
				t.Errorf("expected status %q, got %q", tt.status, body["status"])
			}
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer("secret", &fakeProcessor{}, &fakeStore{})

	req := httptest.NewRequest("GET", "/api/v1/interview/status", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["agent"] != "josh-interview" {
		t.Errorf("expected agent josh-interview, got %q", body["agent"])
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := newTestServer("", &fakeProcessor{}, &fakeStore{})

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestPostMessage(t *testing.T) {
	proc := &fakeProcessor{res: planner.Result{
		Action:       planner.ActionStart,
		ReplyMessage: "prompt",
		NextStepID:   steps.Activity01,
	}}
	srv := newTestServer("", proc, &fakeStore{})

	body := `{"user_id":" user-1 ","message_sid":"SM001","body":"yes"}`
	req := httptest.NewRequest("POST", "/api/v1/interview/messages", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if proc.got.UserID != "user-1" || proc.got.MessageSID != "SM001" || proc.got.Body != "yes" {
		t.Errorf("processor got %+v", proc.got)
	}
	var res planner.Result
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if res.Action != planner.ActionStart || res.NextStepID != steps.Activity01 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestPostMessage_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		code int
	}{
		{"invalid json", `{`, nil, http.StatusBadRequest},
		{"missing user", `{"message_sid":"SM001","body":"hi"}`, nil, http.StatusBadRequest},
		{"missing sid", `{"user_id":"user-1","body":"hi"}`, nil, http.StatusBadRequest},
		{"onboarding session", `{"user_id":"user-1","message_sid":"SM001","body":"hi"}`, fmt.Errorf("plan turn: %w", planner.ErrOnboardingRouted), http.StatusUnprocessableEntity},
		{"unknown step", `{"user_id":"user-1","message_sid":"SM001","body":"hi"}`, fmt.Errorf("plan turn: %w", planner.ErrUnknownStep), http.StatusUnprocessableEntity},
		{"store failure", `{"user_id":"user-1","message_sid":"SM001","body":"hi"}`, errors.New("persist turn: boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer("", &fakeProcessor{err: tt.err}, &fakeStore{})

			req := httptest.NewRequest("POST", "/api/v1/interview/messages", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			if w.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, w.Code)
			}
		})
	}
}

func TestBearerAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret", http.StatusUnauthorized},
		{"ok", "Bearer secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer("secret", &fakeProcessor{}, &fakeStore{})

			req := httptest.NewRequest("GET", "/api/v1/interview/user-1/coverage", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.router.ServeHTTP(w, req)

			if w.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, w.Code)
			}
		})
	}
}

func TestCoverageEndpoint(t *testing.T) {
	db := &fakeStore{profile: profile.Profile{
		State: profile.StatePartial,
		ActivityPatterns: []profile.ActivityPattern{
			{ActivityKey: "coffee", Confidence: 0.7},
			{ActivityKey: "walk", Confidence: 0.7},
			{ActivityKey: "museum", Confidence: 0.7},
		},
	}}
	srv := newTestServer("", &fakeProcessor{}, db)

	req := httptest.NewRequest("GET", "/api/v1/interview/user-1/coverage", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body coverageResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.UserID != "user-1" || body.State != profile.StatePartial {
		t.Errorf("unexpected identity %q %q", body.UserID, body.State)
	}
	if body.Status.MVPComplete {
		t.Error("partial profile reported MVP complete")
	}
	if body.CompletenessPercent != 6 {
		t.Errorf("expected 6%%, got %d", body.CompletenessPercent)
	}
	if body.NextQuestion.QuestionID != steps.Activity02 {
		t.Errorf("expected next question activity_02, got %s", body.NextQuestion.QuestionID)
	}
	if body.Status.NextSignalTarget != coverage.Target(profile.FactorConnectionDepth) {
		t.Errorf("expected next signal connection_depth, got %s", body.Status.NextSignalTarget)
	}
}

func TestCoverageEndpoint_StoreError(t *testing.T) {
	srv := newTestServer("", &fakeProcessor{}, &fakeStore{err: errors.New("boom")})

	req := httptest.NewRequest("GET", "/api/v1/interview/user-1/coverage", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
}
