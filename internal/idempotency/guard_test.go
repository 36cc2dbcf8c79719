package idempotency

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryGuard_FirstWins(t *testing.T) {
	g := NewMemoryGuard(time.Hour)
	ctx := context.Background()

	ok, err := g.Acquire(ctx, "user-1:SM1")
	if err != nil || !ok {
		t.Fatalf("first acquire = %v, %v", ok, err)
	}
	ok, _ = g.Acquire(ctx, "user-1:SM1")
	if ok {
		t.Error("second acquire of the same key should be denied")
	}
	ok, _ = g.Acquire(ctx, "user-1:SM2")
	if !ok {
		t.Error("a different key should be granted")
	}
}

func TestMemoryGuard_Expires(t *testing.T) {
	g := NewMemoryGuard(time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }
	ctx := context.Background()

	g.Acquire(ctx, "k")
	now = now.Add(30 * time.Second)
	if ok, _ := g.Acquire(ctx, "k"); ok {
		t.Error("key should still be held inside the ttl")
	}
	now = now.Add(time.Minute)
	if ok, _ := g.Acquire(ctx, "k"); !ok {
		t.Error("key should be free after the ttl")
	}
}

func TestMemoryGuard_ConcurrentAcquireIsAtomic(t *testing.T) {
	g := NewMemoryGuard(0)
	var granted atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := g.Acquire(context.Background(), "user-1:SM1"); ok {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	if granted.Load() != 1 {
		t.Errorf("expected exactly one grant, got %d", granted.Load())
	}
}

func TestMemoryGuard_SweepDropsExpired(t *testing.T) {
	g := NewMemoryGuard(time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return now }

	for i := 0; i < 4096; i++ {
		g.Acquire(context.Background(), fmt.Sprintf("old-%d", i))
	}
	now = now.Add(time.Minute)
	g.Acquire(context.Background(), "fresh")

	if len(g.seen) != 1 {
		t.Errorf("expected expired entries to be swept, %d remain", len(g.seen))
	}
}
