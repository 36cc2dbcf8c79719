package hermes

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeInbound(t *testing.T) {
	raw := `{
		"user_id": " user-001 ",
		"message_sid": "SM123",
		"body": "coffee, walk, museum",
		"received_at": "2026-03-01T18:30:00Z"
	}`

	in, err := DecodeInbound([]byte(raw))
	if err != nil {
		t.Fatalf("failed to decode InboundSMS: %v", err)
	}

	if in.UserID != "user-001" {
		t.Errorf("expected user_id 'user-001', got '%s'", in.UserID)
	}
	if in.MessageSID != "SM123" {
		t.Errorf("expected message_sid 'SM123', got '%s'", in.MessageSID)
	}
	if in.Body != "coffee, walk, museum" {
		t.Errorf("expected body preserved, got '%s'", in.Body)
	}
	if !in.ReceivedAt.Equal(time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected received_at %s", in.ReceivedAt)
	}
}

func TestDecodeInbound_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		missing bool
	}{
		{"not json", `sms`, false},
		{"missing user", `{"message_sid":"SM1","body":"hi"}`, true},
		{"blank sid", `{"user_id":"u1","message_sid":"  ","body":"hi"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeInbound([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, errMissingField); got != tt.missing {
				t.Errorf("errors.Is(err, errMissingField) = %v, want %v (%v)", got, tt.missing, err)
			}
		})
	}
}

func TestSubjectConstants(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{SubjectInbound, "swarm.sms.inbound"},
		{SubjectOutbound, "swarm.sms.outbound"},
		{SubjectProfileEvent, "swarm.interview.profile.event"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("expected subject '%s', got '%s'", tt.want, tt.got)
		}
	}
}
