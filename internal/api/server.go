package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JaxJericho/josh-2.0-sub000/internal/coverage"
	"github.com/JaxJericho/josh-2.0-sub000/internal/hermes"
	"github.com/JaxJericho/josh-2.0-sub000/internal/planner"
	"github.com/JaxJericho/josh-2.0-sub000/internal/processor"
	"github.com/JaxJericho/josh-2.0-sub000/internal/profile"
)

const maxBodyBytes = 64 << 10

// Processor runs one interview turn.
type Processor interface {
	Process(ctx context.Context, in hermes.InboundSMS) (planner.Result, error)
}

// Store is the read side the API needs.
type Store interface {
	Ping(ctx context.Context) error
	GetProfile(ctx context.Context, userID string) (profile.Profile, error)
}

type Server struct {
	router *chi.Mux
	port   int
	proc   Processor
	db     Store
	logger *slog.Logger
	http   *http.Server
}

// NewServer builds the router. When apiToken is empty the interview routes
// are open.
func NewServer(port int, apiToken string, proc Processor, db Store, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		proc:   proc,
		db:     db,
		logger: logger,
	}

	router.Get("/health", s.health)
	router.Route("/api/v1/interview", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Group(func(r chi.Router) {
			if apiToken != "" {
				r.Use(BearerAuthMiddleware(apiToken))
			}
			r.Post("/messages", s.postMessage)
			r.Get("/{userID}/coverage", s.coverage)
		})
	})

	return s
}

// BearerAuthMiddleware rejects requests without the expected bearer token.
func BearerAuthMiddleware(token string) func(http.Handler) http.Handler {
	want := []byte("Bearer " + token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get("Authorization"))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("API server starting", "addr", addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			s.logger.Warn("health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"agent":  "josh-interview",
		"status": "live",
	})
}

// postMessage handles POST /api/v1/interview/messages. It runs the same turn
// the NATS subscriber would and returns the planner result.
func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
		return
	}
	in, err := hermes.DecodeInbound(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.proc.Process(r.Context(), in)
	switch {
	case processor.IsContractViolation(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.Error("interview turn failed", "user_id", in.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "interview turn failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type coverageResponse struct {
	UserID              string             `json:"user_id"`
	State               profile.State      `json:"state"`
	CompletenessPercent int                `json:"completeness_percent"`
	Status              coverage.Status    `json:"coverage"`
	NextQuestion        coverage.Selection `json:"next_question"`
}

// coverage handles GET /api/v1/interview/{userID}/coverage.
func (s *Server) coverage(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user id required")
		return
	}
	p, err := s.db.GetProfile(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to load profile", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	st := coverage.GetStatus(p)
	writeJSON(w, http.StatusOK, coverageResponse{
		UserID:              userID,
		State:               p.State,
		CompletenessPercent: st.CompletenessPercent(),
		Status:              st,
		NextQuestion:        coverage.SelectNextQuestion(p, nil),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
