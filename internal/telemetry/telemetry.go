// Package telemetry is the best-effort observability sink used by the
// interview engine. Sinks never return errors and never panic into callers.
package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// Sink receives metrics and structured events.
type Sink interface {
	EmitMetric(name string, value float64, tags map[string]string)
	LogEvent(level slog.Level, event string, payload map[string]any)
}

// Nop discards everything.
type Nop struct{}

func (Nop) EmitMetric(string, float64, map[string]string) {}
func (Nop) LogEvent(slog.Level, string, map[string]any) {}

// SlogSink writes metrics and events to a logger.
type SlogSink struct {
	logger *slog.Logger
}

func NewSlogSink(logger *slog.Logger) *SlogSink {
	return &SlogSink{logger: logger}
}

func (s *SlogSink) EmitMetric(name string, value float64, tags map[string]string) {
	s.logger.Debug("metric", "name", name, "value", value, "tags", tags)
}

func (s *SlogSink) LogEvent(level slog.Level, event string, payload map[string]any) {
	attrs := make([]any, 0, len(payload)*2)
	for k, v := range payload {
		attrs = append(attrs, k, v)
	}
	s.logger.Log(context.Background(), level, event, attrs...)
}

// Publisher is the subset of the NATS client the hermes sink needs.
type Publisher interface {
	Publish(subject string, data any) error
}

const (
	SubjectMetric = "swarm.interview.metric"
	SubjectEvent  = "swarm.interview.log"
)

// Metric is the wire form of one metric sample.
type Metric struct {
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Tags      map[string]string `json:"tags,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Event is the wire form of one structured event.
type Event struct {
	Level     string         `json:"level"`
	Event     string         `json:"event"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// HermesSink publishes metrics and events on NATS. Publish failures are
// logged and dropped.
type HermesSink struct {
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

func NewHermesSink(pub Publisher, logger *slog.Logger) *HermesSink {
	return &HermesSink{pub: pub, logger: logger, now: time.Now}
}

func (h *HermesSink) EmitMetric(name string, value float64, tags map[string]string) {
	m := Metric{Name: name, Value: value, Tags: tags, Timestamp: h.now().UTC()}
	if err := h.pub.Publish(SubjectMetric, m); err != nil {
		h.logger.Warn("publish metric failed", "name", name, "error", err)
	}
}

func (h *HermesSink) LogEvent(level slog.Level, event string, payload map[string]any) {
	e := Event{Level: level.String(), Event: event, Payload: payload, Timestamp: h.now().UTC()}
	if err := h.pub.Publish(SubjectEvent, e); err != nil {
		h.logger.Warn("publish event failed", "event", event, "error", err)
	}
}

// Fanout forwards to every sink. A panicking sink is skipped.
type Fanout []Sink

func (f Fanout) EmitMetric(name string, value float64, tags map[string]string) {
	for _, s := range f {
		guard(func() { s.EmitMetric(name, value, tags) })
	}
}

func (f Fanout) LogEvent(level slog.Level, event string, payload map[string]any) {
	for _, s := range f {
		guard(func() { s.LogEvent(level, event, payload) })
	}
}

// Safe wraps a sink so that panics inside it are swallowed.
func Safe(s Sink) Sink {
	if s == nil {
		return Nop{}
	}
	if f, ok := s.(Fanout); ok {
		return f
	}
	return Fanout{s}
}

func guard(fn func()) {
	defer func() { _ = recover() }()
	fn()
}
