package hermes

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	SubjectInbound      = "swarm.sms.inbound"
	SubjectOutbound     = "swarm.sms.outbound"
	SubjectProfileEvent = "swarm.interview.profile.event"
)

// InboundSMS is one user message delivered by the SMS gateway.
type InboundSMS struct {
	UserID     string    `json:"user_id"`
	MessageSID string    `json:"message_sid"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
}

// OutboundSMS is the reply for one processed inbound message.
type OutboundSMS struct {
	UserID    string    `json:"user_id"`
	InReplyTo string    `json:"in_reply_to"`
	Body      string    `json:"body"`
	Action    string    `json:"action"`
	SentAt    time.Time `json:"sent_at"`
}

// ProfileEvent is the domain event emitted when an answer is recorded or the
// interview completes.
type ProfileEvent struct {
	EventID   string         `json:"event_id"`
	UserID    string         `json:"user_id"`
	EventType string         `json:"event_type"`
	StepID    string         `json:"step_id"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

var errMissingField = errors.New("missing required field")

// DecodeInbound parses and validates an inbound SMS payload.
func DecodeInbound(data []byte) (InboundSMS, error) {
	var in InboundSMS
	if err := json.Unmarshal(data, &in); err != nil {
		return InboundSMS{}, fmt.Errorf("decode inbound sms: %w", err)
	}
	in.UserID = strings.TrimSpace(in.UserID)
	in.MessageSID = strings.TrimSpace(in.MessageSID)
	switch {
	case in.UserID == "":
		return InboundSMS{}, fmt.Errorf("decode inbound sms: user_id: %w", errMissingField)
	case in.MessageSID == "":
		return InboundSMS{}, fmt.Errorf("decode inbound sms: message_sid: %w", errMissingField)
	}
	return in, nil
}
