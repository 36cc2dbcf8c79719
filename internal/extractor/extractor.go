package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JaxJericho/josh-2.0-sub000/internal/guardrail"
	"github.com/JaxJericho/josh-2.0-sub000/internal/llm"
	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
	"github.com/JaxJericho/josh-2.0-sub000/internal/telemetry"
)

// Provider generates text for a single-shot prompt.
type Provider interface {
	GenerateText(ctx context.Context, req llm.Request) (llm.Response, error)
}

// Guard is an atomic check-and-set keyed by user and inbound message. Acquire
// returns false when the key was already taken.
type Guard interface {
	Acquire(ctx context.Context, key string) (bool, error)
}

// GuardKey builds the guard key for one inbound message.
func GuardKey(userID, inboundSID string) string {
	return userID + ":" + inboundSID
}

// Config tunes the orchestrator. Prices are USD per million tokens and only
// feed cost estimates.
type Config struct {
	Timeout          time.Duration
	MaxRetries       int
	MaxTokens        int
	InputUSDPerMTok  float64
	OutputUSDPerMTok float64
}

// DefaultConfig is one retry under a six second timeout.
func DefaultConfig() Config {
	return Config{
		Timeout:          6 * time.Second,
		MaxRetries:       1,
		MaxTokens:        1024,
		InputUSDPerMTok:  3,
		OutputUSDPerMTok: 15,
	}
}

// Input describes the step being answered.
type Input struct {
	UserID            string
	InboundMessageSID string
	StepID            steps.ID
	SignalTarget      string
	Question          string
	Answer            string
	History           []profile.Turn
	Profile           profile.Profile
	Guard             Guard
}

// Extractor is the extraction orchestrator.
type Extractor struct {
	llm    Provider
	sink   telemetry.Sink
	cfg    Config
	logger *slog.Logger
}

func New(llm Provider, sink telemetry.Sink, cfg Config, logger *slog.Logger) *Extractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConfig().MaxTokens
	}
	return &Extractor{llm: llm, sink: telemetry.Safe(sink), cfg: cfg, logger: logger}
}

// Extract calls the provider and returns a validated payload for in.StepID.
// Every failure is an *Error.
func (e *Extractor) Extract(ctx context.Context, in Input) (*Output, error) {
	cid := uuid.NewString()
	fail := func(code Code, transient bool, err error) (*Output, error) {
		e.logger.Warn("extraction failed",
			"correlation_id", cid,
			"step_id", in.StepID,
			"code", code,
			"error", err,
		)
		e.sink.LogEvent(slog.LevelWarn, "extraction_failed", map[string]any{
			"correlation_id": cid,
			"step_id":        string(in.StepID),
			"code":           string(code),
		})
		return nil, &Error{Code: code, Transient: transient, CorrelationID: cid, Err: err}
	}

	if in.Guard != nil {
		acquired, err := in.Guard.Acquire(ctx, GuardKey(in.UserID, in.InboundMessageSID))
		if err != nil {
			return fail(CodeRateLimited, false, fmt.Errorf("guard: %w", err))
		}
		if !acquired {
			return fail(CodeRateLimited, false, errors.New("extraction already attempted for this message"))
		}
	}

	userPrompt, err := buildUserPrompt(in)
	if err != nil {
		return fail(CodeProviderNonTransient, false, err)
	}
	req := llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Timeout:      e.cfg.Timeout,
		MaxTokens:    e.cfg.MaxTokens,
	}

	var resp llm.Response
	for attempt := 0; ; attempt++ {
		var code Code
		var transient bool
		resp, code, transient, err = e.attempt(ctx, req, in.StepID, cid, attempt)
		if err == nil {
			break
		}
		if !transient || attempt >= e.cfg.MaxRetries || ctx.Err() != nil {
			return fail(code, transient, err)
		}
		e.logger.Info("retrying extraction", "correlation_id", cid, "attempt", attempt+1, "code", code)
	}

	res := guardrail.Validate(resp.Text, true)
	if prohibited := res.Prohibited(); len(prohibited) > 0 {
		return fail(CodeGuardrailViolation, false, fmt.Errorf("prohibited content: %v", prohibited))
	}
	if !res.OK || res.Structural() {
		return fail(CodeInvalidJSON, false, fmt.Errorf("output not clean json: %v", res.Violations))
	}

	out, err := ParseOutput(res.SanitizedText)
	if err != nil {
		return fail(CodeSchemaInvalid, false, err)
	}
	if steps.Normalize(out.StepID) != steps.Normalize(in.StepID) {
		return fail(CodeStepMismatch, false, fmt.Errorf("model answered %q, expected %q", out.StepID, in.StepID))
	}
	normalizeFollowUp(out)

	e.logger.Info("extraction complete",
		"correlation_id", cid,
		"step_id", in.StepID,
		"fingerprint_patches", len(out.Extracted.FingerprintPatches),
		"activities", len(out.Extracted.ActivityPatternsAdd),
	)
	e.sink.LogEvent(slog.LevelInfo, "extraction_succeeded", map[string]any{
		"correlation_id": cid,
		"step_id":        string(in.StepID),
		"model":          resp.Model,
	})
	return out, nil
}

// attempt makes one provider call under the configured timeout and emits its
// telemetry whatever the outcome.
func (e *Extractor) attempt(ctx context.Context, req llm.Request, stepID steps.ID, cid string, n int) (llm.Response, Code, bool, error) {
	actx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.llm.GenerateText(actx, req)
	latency := time.Since(start)

	outcome := "ok"
	var code Code
	var transient bool
	if err != nil {
		code, transient = classify(actx, err)
		outcome = string(code)
	}
	e.emitAttempt(resp, latency, stepID, cid, n, outcome)

	if err != nil {
		return llm.Response{}, code, transient, err
	}
	return resp, "", false, nil
}

func (e *Extractor) emitAttempt(resp llm.Response, latency time.Duration, stepID steps.ID, cid string, n int, outcome string) {
	tags := map[string]string{
		"step_id":        string(stepID),
		"attempt":        strconv.Itoa(n),
		"outcome":        outcome,
		"correlation_id": cid,
	}
	var in, out int
	if resp.Usage != nil {
		in, out = resp.Usage.InputTokens, resp.Usage.OutputTokens
	}
	cost := float64(in)/1e6*e.cfg.InputUSDPerMTok + float64(out)/1e6*e.cfg.OutputUSDPerMTok

	e.sink.EmitMetric("extraction.tokens.input", float64(in), tags)
	e.sink.EmitMetric("extraction.tokens.output", float64(out), tags)
	e.sink.EmitMetric("extraction.cost_usd", cost, tags)
	e.sink.EmitMetric("extraction.latency_ms", float64(latency.Milliseconds()), tags)
}

var mismatchSignal = regexp.MustCompile(`(?i)\b(mismatch\w*|conflict\w*|contradict\w*|inconsistent|doesn'?t match|does not match)\b`)

// followUpMotiveThreshold is the motive weight at which a follow-up may stand.
const followUpMotiveThreshold = 0.55

// normalizeFollowUp only ever clears needsFollowUp. A follow-up survives when
// some motive weight is strong or the question itself names a conflict.
func normalizeFollowUp(out *Output) {
	if out.Notes == nil || !out.Notes.NeedsFollowUp {
		return
	}
	if out.MaxMotiveWeight() >= followUpMotiveThreshold {
		return
	}
	if mismatchSignal.MatchString(out.Notes.FollowUpQuestion) {
		return
	}
	out.Notes.NeedsFollowUp = false
}

type promptTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type promptPattern struct {
	ActivityKey string  `json:"activity_key"`
	Confidence  float64 `json:"confidence"`
}

type promptPayload struct {
	StepID       string                         `json:"stepId"`
	SignalTarget string                         `json:"signalTarget,omitempty"`
	Question     string                         `json:"question"`
	Answer       string                         `json:"answer"`
	RecentTurns  []promptTurn                   `json:"recentTurns"`
	Fingerprint  map[string]profile.FactorValue `json:"fingerprint"`
	Activities   []promptPattern                `json:"activityPatterns"`
	Boundaries   profile.Boundaries             `json:"boundaries"`
	GroupSize    *profile.GroupSize             `json:"groupSizePref,omitempty"`
	Times        []string                       `json:"timePreferences,omitempty"`
}

func buildUserPrompt(in Input) (string, error) {
	p := promptPayload{
		StepID:       string(in.StepID),
		SignalTarget: in.SignalTarget,
		Question:     in.Question,
		Answer:       in.Answer,
		RecentTurns:  []promptTurn{},
		Fingerprint:  make(map[string]profile.FactorValue, len(in.Profile.Fingerprint)),
		Activities:   []promptPattern{},
		Boundaries:   in.Profile.Boundaries,
		GroupSize:    in.Profile.Preferences.GroupSizePref,
		Times:        in.Profile.Preferences.TimePreferences,
	}
	for _, t := range profile.RecentTurns(in.History, maxPromptTurns) {
		p.RecentTurns = append(p.RecentTurns, promptTurn{Role: t.Role, Text: t.Body})
	}
	for k, v := range in.Profile.Fingerprint {
		p.Fingerprint[string(k)] = v
	}
	for _, ap := range in.Profile.ActivityPatterns {
		p.Activities = append(p.Activities, promptPattern{ActivityKey: ap.ActivityKey, Confidence: ap.Confidence})
	}
	sort.Slice(p.Activities, func(i, j int) bool { return p.Activities[i].ActivityKey < p.Activities[j].ActivityKey })

	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal prompt payload: %w", err)
	}
	return fmt.Sprintf(extractionUserPrompt, string(b)), nil
}
