package profile

import (
	"strings"
	"time"
)

// Mode is the conversation mode owned by the session collaborator.
type Mode string

const (
	ModeIdle         Mode = "idle"
	ModeInterviewing Mode = "interviewing"
	ModeOnboarding   Mode = "onboarding"
)

const (
	TokenIdle            = "idle"
	interviewTokenPrefix = "interview:"
	onboardingPrefix     = "onboarding:"
)

// Session is the ephemeral per-user conversation state.
type Session struct {
	UserID                string     `json:"user_id"`
	Mode                  Mode       `json:"mode"`
	StateToken            string     `json:"state_token"`
	CurrentStepID         string     `json:"current_step_id,omitempty"`
	LastInboundMessageSID string     `json:"last_inbound_message_sid,omitempty"`
	LastReplyMessage      string     `json:"last_reply_message,omitempty"`
	DropoutNudgeSentAt    *time.Time `json:"dropout_nudge_sent_at,omitempty"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// InterviewToken builds the state token for a step.
func InterviewToken(stepID string) string {
	return interviewTokenPrefix + stepID
}

// InterviewStep returns the step id encoded in an interview token.
func InterviewStep(token string) (string, bool) {
	if !strings.HasPrefix(token, interviewTokenPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(token, interviewTokenPrefix)
	return id, id != ""
}

// IsOnboardingToken reports whether the token belongs to the onboarding flow.
func IsOnboardingToken(token string) bool {
	return strings.HasPrefix(token, onboardingPrefix)
}

// IsInterviewing reports whether the session is mid-interview, either by mode
// or by a leftover interview token.
func (s Session) IsInterviewing() bool {
	if s.Mode == ModeInterviewing {
		return true
	}
	_, ok := InterviewStep(s.StateToken)
	return ok
}

// StepID resolves the current step from the explicit field, falling back to
// the state token.
func (s Session) StepID() string {
	if s.CurrentStepID != "" {
		return s.CurrentStepID
	}
	id, _ := InterviewStep(s.StateToken)
	return id
}

// Interviewing returns a copy of s positioned at stepID.
func (s Session) Interviewing(stepID, inboundSID string, now time.Time) Session {
	s.Mode = ModeInterviewing
	s.StateToken = InterviewToken(stepID)
	s.CurrentStepID = stepID
	s.LastInboundMessageSID = inboundSID
	s.UpdatedAt = now
	return s
}

// Idle returns a copy of s reset to idle.
func (s Session) Idle(inboundSID string, now time.Time) Session {
	s.Mode = ModeIdle
	s.StateToken = TokenIdle
	s.CurrentStepID = ""
	s.LastInboundMessageSID = inboundSID
	s.DropoutNudgeSentAt = nil
	s.UpdatedAt = now
	return s
}
