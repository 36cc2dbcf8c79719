package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JaxJericho/josh-2.0-sub000/internal/hermes"
	"github.com/JaxJericho/josh-2.0-sub000/internal/planner"
	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
	"github.com/JaxJericho/josh-2.0-sub000/internal/store"
	"github.com/JaxJericho/josh-2.0-sub000/internal/tracing"
)

// historyTurns is how much conversation the planner sees.
const historyTurns = 8

// Store is the persistence the processor needs.
type Store interface {
	GetSession(ctx context.Context, userID string) (profile.Session, error)
	GetProfile(ctx context.Context, userID string) (profile.Profile, error)
	RecentTurns(ctx context.Context, userID string, n int) ([]profile.Turn, error)
	ApplyTurn(ctx context.Context, w store.TurnWrite) (uuid.UUID, error)
}

// Publisher sends replies and domain events.
type Publisher interface {
	PublishReply(msg hermes.OutboundSMS) error
	PublishEvent(ev hermes.ProfileEvent) error
}

// Processor runs one interview turn per inbound SMS: load, plan, persist,
// publish. Turns for the same user are serialized.
type Processor struct {
	store   Store
	planner *planner.Planner
	hermes  Publisher
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*userLock // keyed by user id
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func New(s Store, pl *planner.Planner, pub Publisher, logger *slog.Logger) *Processor {
	return &Processor{
		store:   s,
		planner: pl,
		hermes:  pub,
		logger:  logger,
		tracer:  tracing.Tracer(),
		now:     func() time.Time { return time.Now().UTC() },
		locks:   make(map[string]*userLock),
	}
}

// HandleInbound is the NATS handler for swarm.sms.inbound.
func (p *Processor) HandleInbound(in hermes.InboundSMS) {
	if _, err := p.Process(context.Background(), in); err != nil {
		p.logger.Error("inbound sms dropped",
			"user_id", in.UserID,
			"message_sid", in.MessageSID,
			"error", err,
		)
	}
}

// Process runs one turn and returns the planner's result. Contract violations
// from the planner come back as errors and nothing is persisted or sent.
func (p *Processor) Process(ctx context.Context, in hermes.InboundSMS) (planner.Result, error) {
	ctx, span := p.tracer.Start(ctx, "interview.turn", trace.WithAttributes(
		attribute.String("user_id", in.UserID),
		attribute.String("message_sid", in.MessageSID),
	))
	defer span.End()

	res, err := p.process(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "turn failed")
		return res, err
	}
	span.SetAttributes(
		attribute.String("action", string(res.Action)),
		attribute.String("next_step_id", string(res.NextStepID)),
	)
	return res, nil
}

func (p *Processor) process(ctx context.Context, in hermes.InboundSMS) (planner.Result, error) {
	unlock := p.lock(in.UserID)
	defer unlock()

	session, err := p.store.GetSession(ctx, in.UserID)
	if err != nil {
		return planner.Result{}, fmt.Errorf("load session: %w", err)
	}
	prof, err := p.store.GetProfile(ctx, in.UserID)
	if err != nil {
		return planner.Result{}, fmt.Errorf("load profile: %w", err)
	}
	history, err := p.store.RecentTurns(ctx, in.UserID, historyTurns)
	if err != nil {
		return planner.Result{}, fmt.Errorf("load turns: %w", err)
	}

	now := in.ReceivedAt
	if now.IsZero() {
		now = p.now()
	}
	session.UserID = in.UserID
	prof.UserID = in.UserID

	res, err := p.planner.Plan(ctx, planner.Input{
		Message: planner.Message{SID: in.MessageSID, Body: in.Body},
		Session: session,
		Profile: prof,
		History: history,
		Now:     now,
	})
	if err != nil {
		return planner.Result{}, fmt.Errorf("plan turn: %w", err)
	}

	eventID := uuid.Nil
	if res.Action != planner.ActionIdempotent {
		w := store.TurnWrite{
			UserID:     in.UserID,
			MessageSID: in.MessageSID,
			Session:    res.NextSession,
			Patch:      res.ProfilePatch,
			Inbound:    in.Body,
			Reply:      res.ReplyMessage,
			At:         now,
		}
		if res.ProfileEventType != "" {
			w.Event = &store.Event{
				Type:    res.ProfileEventType,
				StepID:  string(res.ProfileEventStepID),
				Payload: res.ProfileEventPayload,
			}
		}
		if eventID, err = p.store.ApplyTurn(ctx, w); err != nil {
			return planner.Result{}, fmt.Errorf("persist turn: %w", err)
		}
	}

	p.logger.Info("interview turn processed",
		"user_id", in.UserID,
		"message_sid", in.MessageSID,
		"action", res.Action,
		"current_step_id", res.CurrentStepID,
		"next_step_id", res.NextStepID,
	)
	p.publish(in, res, eventID, now)
	return res, nil
}

// publish is best-effort: the turn is already committed.
func (p *Processor) publish(in hermes.InboundSMS, res planner.Result, eventID uuid.UUID, now time.Time) {
	if p.hermes == nil {
		return
	}
	if err := p.hermes.PublishReply(hermes.OutboundSMS{
		UserID:    in.UserID,
		InReplyTo: in.MessageSID,
		Body:      res.ReplyMessage,
		Action:    string(res.Action),
		SentAt:    now,
	}); err != nil {
		p.logger.Error("failed to publish reply", "user_id", in.UserID, "error", err)
	}
	if eventID == uuid.Nil {
		return
	}
	if err := p.hermes.PublishEvent(hermes.ProfileEvent{
		EventID:   eventID.String(),
		UserID:    in.UserID,
		EventType: res.ProfileEventType,
		StepID:    string(res.ProfileEventStepID),
		Payload:   res.ProfileEventPayload,
		CreatedAt: now,
	}); err != nil {
		p.logger.Error("failed to publish profile event", "user_id", in.UserID, "error", err)
	}
}

// lock takes the per-user lock and returns its release. Entries are dropped
// once no turn holds or waits on them.
func (p *Processor) lock(userID string) func() {
	p.mu.Lock()
	l, ok := p.locks[userID]
	if !ok {
		l = &userLock{}
		p.locks[userID] = l
	}
	l.refs++
	p.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.locks, userID)
		}
		p.mu.Unlock()
	}
}

// IsContractViolation reports whether err came from a caller routing mistake
// rather than from infrastructure.
func IsContractViolation(err error) bool {
	return errors.Is(err, planner.ErrUnknownStep) || errors.Is(err, planner.ErrOnboardingRouted)
}
