package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            int
	NatsURL         string
	NatsToken       string
	DatabaseURL     string
	RedisAddr       string
	LogLevel        string
	AnthropicAPIKey string
	AnthropicModel  string
	APIToken        string

	ExtractionEnabled    bool
	ExtractionTimeout    time.Duration
	ExtractionMaxRetries int
	ExtractionGuardTTL   time.Duration
	InputUSDPerMTok      float64
	OutputUSDPerMTok     float64

	TracingEnabled     bool
	TracingEndpoint    string
	TracingInsecure    bool
	TracingSampleRatio float64
}

func Load() Config {
	return Config{
		Port:            envInt("JOSH_PORT", 8760),
		NatsURL:         envStr("NATS_URL", "nats://hermes:4222"),
		NatsToken:       envStr("NATS_TOKEN", ""),
		DatabaseURL:     envStr("DATABASE_URL", ""),
		RedisAddr:       envStr("REDIS_ADDR", ""),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey: envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  envStr("JOSH_MODEL", "claude-sonnet-4-20250514"),
		APIToken:        envStr("JOSH_API_TOKEN", ""),

		ExtractionEnabled:    envBool("EXTRACTION_ENABLED", true),
		ExtractionTimeout:    time.Duration(envInt("EXTRACTION_TIMEOUT_MS", 6000)) * time.Millisecond,
		ExtractionMaxRetries: envInt("EXTRACTION_MAX_RETRIES", 1),
		ExtractionGuardTTL:   time.Duration(envInt("EXTRACTION_GUARD_TTL_SECONDS", 86400)) * time.Second,
		InputUSDPerMTok:      envFloat("LLM_INPUT_USD_PER_MTOK", 3),
		OutputUSDPerMTok:     envFloat("LLM_OUTPUT_USD_PER_MTOK", 15),

		TracingEnabled:     envBool("OTEL_ENABLED", false),
		TracingEndpoint:    envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TracingInsecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		TracingSampleRatio: envFloat("OTEL_SAMPLER_RATIO", 0.1),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
