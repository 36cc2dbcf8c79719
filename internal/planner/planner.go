// Package planner is the per-message interview state machine. It reads one
// inbound message plus the current session and profile and decides the reply,
// the next session, the profile patch and the domain event. It performs no
// I/O apart from the optional extraction call.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JaxJericho/josh-2.0-sub000/internal/coverage"
	"github.com/JaxJericho/josh-2.0-sub000/internal/extractor"
	"github.com/JaxJericho/josh-2.0-sub000/internal/patch"
	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/steps"
	"github.com/JaxJericho/josh-2.0-sub000/internal/telemetry"
)

// Action is the kind of transition a turn produced.
type Action string

const (
	ActionStart      Action = "start"
	ActionAdvance    Action = "advance"
	ActionRetry      Action = "retry"
	ActionPause      Action = "pause"
	ActionResume     Action = "resume"
	ActionComplete   Action = "complete"
	ActionIdempotent Action = "idempotent"
)

// Domain event types.
const (
	EventAnswerRecorded = "interview_answer_recorded"
	EventCompleted      = "interview_completed"
)

// Extraction sources recorded on events.
const (
	SourceLLM           = "llm"
	SourceDeterministic = "deterministic"
)

// Fixed replies outside the step catalog.
const (
	AlreadyCompleteMessage = "Your profile is already set. I'll text you when a group plan fits."
	PauseMessage           = "No problem. Text me anytime and we'll pick up where we left off."
	ResumePrefix           = "Welcome back! Picking up where we left off."
)

var (
	// ErrUnknownStep means the session points at a step the catalog does not
	// know.
	ErrUnknownStep = errors.New("unknown interview step")
	// ErrOnboardingRouted means an onboarding session was sent to the
	// interview engine.
	ErrOnboardingRouted = errors.New("onboarding session routed to interview")
)

// Extractor is the extraction orchestrator as seen by the planner.
type Extractor interface {
	Extract(ctx context.Context, in extractor.Input) (*extractor.Output, error)
}

// Message is one inbound SMS.
type Message struct {
	SID  string `json:"sid"`
	Body string `json:"body"`
}

// Input is everything one turn reads. History is the recent conversation
// before this message, oldest first.
type Input struct {
	Message Message
	Session profile.Session
	Profile profile.Profile
	History []profile.Turn
	Now     time.Time
}

// Result is the full output of one turn. ProfilePatch is nil when the turn
// does not touch the profile; the event fields are empty unless the turn
// advanced or completed the interview.
type Result struct {
	Action              Action          `json:"action"`
	ReplyMessage        string          `json:"reply_message"`
	CurrentStepID       steps.ID        `json:"current_step_id,omitempty"`
	NextStepID          steps.ID        `json:"next_step_id,omitempty"`
	NextSession         profile.Session `json:"next_session"`
	ProfilePatch        *profile.Patch  `json:"profile_patch,omitempty"`
	ProfileEventType    string          `json:"profile_event_type,omitempty"`
	ProfileEventStepID  steps.ID        `json:"profile_event_step_id,omitempty"`
	ProfileEventPayload map[string]any  `json:"profile_event_payload,omitempty"`
}

// Planner runs interview turns. A nil extractor disables extraction.
type Planner struct {
	extractor Extractor
	guard     extractor.Guard
	sink      telemetry.Sink
	logger    *slog.Logger
}

func New(ext Extractor, guard extractor.Guard, sink telemetry.Sink, logger *slog.Logger) *Planner {
	return &Planner{extractor: ext, guard: guard, sink: telemetry.Safe(sink), logger: logger}
}

// Plan decides one turn. The only errors are caller contract violations
// (ErrUnknownStep, ErrOnboardingRouted) and patch construction failures.
func (p *Planner) Plan(ctx context.Context, in Input) (Result, error) {
	if in.Session.Mode == profile.ModeOnboarding || profile.IsOnboardingToken(in.Session.StateToken) {
		return Result{}, ErrOnboardingRouted
	}
	if in.Now.IsZero() {
		in.Now = time.Now().UTC()
	}

	res, err := p.plan(ctx, in)
	if err != nil {
		return Result{}, err
	}
	if res.Action != ActionIdempotent {
		res.NextSession.LastReplyMessage = res.ReplyMessage
	}
	p.logger.Debug("interview turn planned",
		"user_id", in.Profile.UserID,
		"sid", in.Message.SID,
		"action", res.Action,
		"current_step_id", res.CurrentStepID,
		"next_step_id", res.NextStepID,
	)
	p.sink.LogEvent(slog.LevelInfo, "interview_transition", map[string]any{
		"action":          string(res.Action),
		"current_step_id": string(res.CurrentStepID),
		"next_step_id":    string(res.NextStepID),
	})
	return res, nil
}

func (p *Planner) plan(ctx context.Context, in Input) (Result, error) {
	status := coverage.GetStatus(in.Profile)

	if status.MVPComplete || in.Profile.State == profile.StateCompleteFull {
		return p.alreadyComplete(in), nil
	}
	if isReplay(in) {
		return p.replay(in)
	}
	if !in.Session.IsInterviewing() {
		return p.coldStart(in), nil
	}
	if in.Session.DropoutNudgeSentAt != nil {
		return p.resume(in), nil
	}
	return p.answer(ctx, in)
}

func (p *Planner) alreadyComplete(in Input) Result {
	if in.Session.IsInterviewing() {
		return Result{
			Action:        ActionComplete,
			ReplyMessage:  steps.WrapMessage,
			CurrentStepID: steps.ID(in.Session.StepID()),
			NextStepID:    steps.Wrap01,
			NextSession:   in.Session.Idle(in.Message.SID, in.Now),
		}
	}
	reply := AlreadyCompleteMessage
	if isReplay(in) && in.Session.LastReplyMessage != "" {
		reply = in.Session.LastReplyMessage
	}
	return Result{
		Action:       ActionIdempotent,
		ReplyMessage: reply,
		NextSession:  in.Session,
	}
}

func isReplay(in Input) bool {
	return in.Message.SID != "" && in.Message.SID == in.Session.LastInboundMessageSID
}

// replay re-emits the reply recorded for the last inbound message without
// parsing or mutating. Sessions saved before replies were recorded fall back
// to the current step's prompt.
func (p *Planner) replay(in Input) (Result, error) {
	current := steps.ID(in.Session.StepID())
	if current == "" {
		current = resolveStart(in.Profile, in.History)
	}
	step, ok := steps.Lookup(current)
	if !ok {
		return Result{}, fmt.Errorf("replay %q: %w", current, ErrUnknownStep)
	}
	reply := in.Session.LastReplyMessage
	if reply == "" {
		if step.Kind == steps.KindTerminal {
			step = steps.MustLookup(resolveStart(in.Profile, in.History))
		}
		reply = step.Prompt
	}
	return Result{
		Action:        ActionIdempotent,
		ReplyMessage:  reply,
		CurrentStepID: current,
		NextStepID:    current,
		NextSession:   in.Session,
	}, nil
}

func (p *Planner) coldStart(in Input) Result {
	next := resolveStart(in.Profile, in.History)
	pt := patch.BuildStart(in.Profile, next, in.Now)
	return Result{
		Action:        ActionStart,
		ReplyMessage:  steps.MustLookup(next).Prompt,
		CurrentStepID: steps.ID(in.Session.StepID()),
		NextStepID:    next,
		NextSession:   in.Session.Interviewing(string(next), in.Message.SID, in.Now),
		ProfilePatch:  &pt,
	}
}

func (p *Planner) resume(in Input) Result {
	sel := coverage.SelectNextQuestion(in.Profile, in.History)
	next := sel.QuestionID
	pt := patch.BuildStart(in.Profile, next, in.Now)
	session := in.Session.Interviewing(string(next), in.Message.SID, in.Now)
	session.DropoutNudgeSentAt = nil
	return Result{
		Action:        ActionResume,
		ReplyMessage:  ResumePrefix + " " + steps.MustLookup(next).Prompt,
		CurrentStepID: steps.ID(in.Session.StepID()),
		NextStepID:    next,
		NextSession:   session,
		ProfilePatch:  &pt,
	}
}

// resolveStart picks the step to open with: the unanswered current step in
// progress when there is one, otherwise the coverage selection.
func resolveStart(p profile.Profile, history []profile.Turn) steps.ID {
	if ip := p.Preferences.InterviewProgress; ip != nil && ip.CurrentStepID != "" {
		id := steps.Normalize(steps.ID(ip.CurrentStepID))
		if s, ok := steps.Lookup(id); ok && s.Kind == steps.KindQuestion && !ip.HasCompleted(string(id)) {
			return id
		}
	}
	return coverage.SelectNextQuestion(p, history).QuestionID
}

func (p *Planner) answer(ctx context.Context, in Input) (Result, error) {
	current := steps.ID(in.Session.StepID())
	step, ok := steps.Lookup(current)
	if !ok {
		return Result{}, fmt.Errorf("answer %q: %w", current, ErrUnknownStep)
	}
	if step.Kind == steps.KindTerminal {
		// Terminal step without MVP coverage: ask whatever is still missing.
		return p.coldStart(in), nil
	}

	parseCtx := steps.ParseContext{}
	if ip := in.Profile.Preferences.InterviewProgress; ip != nil {
		parseCtx.Answers = steps.DecodeAnswers(ip.Answers)
	}

	if current == steps.IntroID {
		parsed := steps.Parse(steps.IntroID, in.Message.Body, parseCtx)
		if parsed.OK {
			consent, _ := parsed.Value.(steps.ConsentAnswer)
			if consent.Consent == "later" {
				pt := patch.BuildPause(in.Profile, steps.IntroID, in.Now)
				return Result{
					Action:        ActionPause,
					ReplyMessage:  PauseMessage,
					CurrentStepID: steps.IntroID,
					NextStepID:    steps.IntroID,
					NextSession:   in.Session.Interviewing(string(steps.IntroID), in.Message.SID, in.Now),
					ProfilePatch:  &pt,
				}, nil
			}
			return p.record(in, steps.IntroID, parsed.Value, nil, "")
		}
		// Anything other than yes/later is treated as an activities answer.
		current = steps.Normalize(current)
		step = steps.MustLookup(current)
	}

	parsed, out, extErr := p.parseAndExtract(ctx, in, step, parseCtx)

	var answer steps.Answer
	switch {
	case parsed.OK:
		answer = parsed.Value
	case out != nil:
		if a, ok := synthesize(current, out); ok {
			answer = a
		}
	}
	if answer == nil {
		session := in.Session
		session.LastInboundMessageSID = in.Message.SID
		session.UpdatedAt = in.Now
		return Result{
			Action:        ActionRetry,
			ReplyMessage:  step.RetryPrompt,
			CurrentStepID: current,
			NextStepID:    current,
			NextSession:   session,
		}, nil
	}

	reason := ""
	if extErr != nil {
		reason = extractor.FallbackReason(extErr)
	}
	return p.record(in, current, answer, out, reason)
}

// parseAndExtract runs the deterministic parser and the extraction call side
// by side. Extraction failures are returned, never propagated.
func (p *Planner) parseAndExtract(ctx context.Context, in Input, step steps.Step, parseCtx steps.ParseContext) (steps.ParseResult, *extractor.Output, error) {
	var (
		parsed steps.ParseResult
		out    *extractor.Output
		extErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		parsed = steps.Parse(step.ID, in.Message.Body, parseCtx)
		return nil
	})
	if p.extractor != nil {
		g.Go(func() error {
			out, extErr = p.extractor.Extract(ctx, extractor.Input{
				UserID:            in.Profile.UserID,
				InboundMessageSID: in.Message.SID,
				StepID:            step.ID,
				SignalTarget:      signalTarget(step.ID),
				Question:          step.Prompt,
				Answer:            in.Message.Body,
				History:           in.History,
				Profile:           in.Profile,
				Guard:             p.guard,
			})
			return nil
		})
	} else {
		extErr = &extractor.Error{Code: extractor.CodeDisabled}
	}
	_ = g.Wait()

	if extErr != nil {
		out = nil
	}
	return parsed, out, extErr
}

// record applies an answer, picks the next step against the post-answer
// profile and builds the final patch and event.
func (p *Planner) record(in Input, stepID steps.ID, answer steps.Answer, out *extractor.Output, fallbackReason string) (Result, error) {
	draft, err := patch.BuildForAnswer(in.Profile, stepID, answer, "", in.Now, out)
	if err != nil {
		return Result{}, fmt.Errorf("plan answer: %w", err)
	}
	post := draft.Apply(in.Profile)
	status := coverage.GetStatus(post)

	history := append(append([]profile.Turn(nil), in.History...), profile.Turn{
		Role:      profile.RoleUser,
		Body:      in.Message.Body,
		CreatedAt: in.Now,
	})

	next := steps.Wrap01
	var sel coverage.Selection
	if !status.MVPComplete {
		sel = coverage.SelectNextQuestion(post, history)
		next = sel.QuestionID
	}

	pt, err := patch.BuildForAnswer(in.Profile, stepID, answer, next, in.Now, out)
	if err != nil {
		return Result{}, fmt.Errorf("plan answer: %w", err)
	}

	source := SourceDeterministic
	if out != nil {
		source = SourceLLM
	}
	payload := map[string]any{
		"step_id":            string(stepID),
		"answer":             answer,
		"next_step_id":       string(next),
		"next_signal_target": string(sel.SignalTarget),
		"extraction_source":  source,
		"selection_metadata": sel.Metadata,
	}
	if fallbackReason != "" {
		payload["extraction_fallback_reason"] = fallbackReason
	}

	res := Result{
		CurrentStepID:       stepID,
		NextStepID:          next,
		ProfilePatch:        &pt,
		ProfileEventStepID:  stepID,
		ProfileEventPayload: payload,
	}
	if status.MVPComplete {
		res.Action = ActionComplete
		res.ReplyMessage = steps.WrapMessage
		res.NextSession = in.Session.Idle(in.Message.SID, in.Now)
		res.ProfileEventType = EventCompleted
		return res, nil
	}
	res.Action = ActionAdvance
	res.ReplyMessage = steps.MustLookup(next).Prompt
	res.NextSession = in.Session.Interviewing(string(next), in.Message.SID, in.Now)
	res.ProfileEventType = EventAnswerRecorded
	return res, nil
}

// signalTarget names the first coverage target the step fills.
func signalTarget(id steps.ID) string {
	for _, t := range coverage.RequiredTargets {
		if s, ok := coverage.StepFor(t); ok && s == id {
			return string(t)
		}
	}
	for _, t := range []coverage.Target{coverage.TargetTopActivityIntent, coverage.TargetLocationCapture} {
		if s, _ := coverage.StepFor(t); s == id {
			return string(t)
		}
	}
	return ""
}
