// Package idempotency provides the extraction guard: an atomic
// check-and-set keyed by user and inbound message id.
package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// MemoryGuard is a process-local guard. Entries expire after ttl; a zero ttl
// keeps them forever.
type MemoryGuard struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	return &MemoryGuard{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

// Acquire returns true the first time key is seen within the ttl.
func (g *MemoryGuard) Acquire(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if exp, ok := g.seen[key]; ok && (g.ttl == 0 || now.Before(exp)) {
		return false, nil
	}
	g.seen[key] = now.Add(g.ttl)
	if len(g.seen) > 4096 {
		g.sweep(now)
	}
	return true, nil
}

func (g *MemoryGuard) sweep(now time.Time) {
	if g.ttl == 0 {
		return
	}
	for k, exp := range g.seen {
		if !now.Before(exp) {
			delete(g.seen, k)
		}
	}
}

const redisKeyPrefix = "josh:extract:"

// RedisGuard shares the guard across processes with SET NX.
type RedisGuard struct {
	rdb    *goredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisGuard connects to addr and verifies the connection.
func NewRedisGuard(ctx context.Context, addr string, ttl time.Duration, logger *slog.Logger) (*RedisGuard, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisGuard{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// Acquire sets the key if absent. Redis errors are returned so the caller can
// decide whether to skip extraction.
func (g *RedisGuard) Acquire(ctx context.Context, key string) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, redisKeyPrefix+key, 1, g.ttl).Result()
	if err != nil {
		g.logger.Warn("redis guard failed", "key", key, "error", err)
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

func (g *RedisGuard) Close() error {
	return g.rdb.Close()
}
