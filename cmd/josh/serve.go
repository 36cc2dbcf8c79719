package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/JaxJericho/josh-2.0-sub000/internal/anthropic"
	"github.com/JaxJericho/josh-2.0-sub000/internal/api"
	"github.com/JaxJericho/josh-2.0-sub000/internal/extractor"
	"github.com/JaxJericho/josh-2.0-sub000/internal/hermes"
	"github.com/JaxJericho/josh-2.0-sub000/internal/idempotency"
	"github.com/JaxJericho/josh-2.0-sub000/internal/planner"
	"github.com/JaxJericho/josh-2.0-sub000/internal/processor"
	"github.com/JaxJericho/josh-2.0-sub000/internal/store"
	"github.com/JaxJericho/josh-2.0-sub000/internal/telemetry"
	"github.com/JaxJericho/josh-2.0-sub000/internal/tracing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview service (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger := loadConfig()
	logger.Info("josh interview starting", "port", cfg.Port, "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		Insecure:    cfg.TracingInsecure,
		SampleRatio: cfg.TracingSampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	// Database
	if cfg.DatabaseURL == "" {
		return errNoDatabase
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	logger.Info("database connected")

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, logger)
	if err != nil {
		return fmt.Errorf("connect NATS: %w", err)
	}
	defer hermesClient.Close()
	logger.Info("NATS connected", "url", cfg.NatsURL)

	sink := telemetry.Fanout{
		telemetry.NewSlogSink(logger),
		telemetry.NewHermesSink(hermesClient, logger),
	}

	// Extraction guard: Redis when configured so replays are caught across
	// replicas, otherwise in-process.
	var guard extractor.Guard
	if cfg.RedisAddr != "" {
		rg, err := idempotency.NewRedisGuard(ctx, cfg.RedisAddr, cfg.ExtractionGuardTTL, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rg.Close()
		guard = rg
		logger.Info("redis guard ready", "addr", cfg.RedisAddr)
	} else {
		guard = idempotency.NewMemoryGuard(cfg.ExtractionGuardTTL)
		logger.Warn("REDIS_ADDR not set, using in-memory extraction guard")
	}

	// Extractor (optional, the interview runs deterministically without it)
	var ext planner.Extractor
	switch {
	case !cfg.ExtractionEnabled:
		logger.Warn("extraction disabled")
	case cfg.AnthropicAPIKey == "":
		logger.Warn("ANTHROPIC_API_KEY not set, extraction disabled")
	default:
		llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		ext = extractor.New(llm, sink, extractor.Config{
			Timeout:          cfg.ExtractionTimeout,
			MaxRetries:       cfg.ExtractionMaxRetries,
			InputUSDPerMTok:  cfg.InputUSDPerMTok,
			OutputUSDPerMTok: cfg.OutputUSDPerMTok,
		}, logger)
		logger.Info("anthropic client ready", "model", cfg.AnthropicModel)
	}

	// Processor: the main pipeline
	pl := planner.New(ext, guard, sink, logger)
	proc := processor.New(db, pl, hermesClient, logger)

	if err := hermesClient.SubscribeInbound(proc.HandleInbound); err != nil {
		return fmt.Errorf("subscribe inbound sms: %w", err)
	}

	// HTTP API
	srv := api.NewServer(cfg.Port, cfg.APIToken, proc, db, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	// Announce registration
	if err := hermesClient.Publish("swarm.agent.josh-interview.registered", map[string]any{
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"port":       cfg.Port,
		"extraction": ext != nil,
	}); err != nil {
		logger.Warn("failed to publish registration", "error", err)
	}

	logger.Info("josh interview ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown error", "error", err)
	}
	if err := hermesClient.Drain(shutdownCtx); err != nil {
		logger.Warn("NATS drain error", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown error", "error", err)
	}
	logger.Info("josh interview stopped")
	return nil
}
