package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestRateLimitRepository_RecordAndCount(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "limit", TTL: time.Minute})

	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		if err := repo.RecordAttempt(ctx, "login:198.51.100.7", now.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("RecordAttempt returned error: %v", err)
		}
	}

	count, err := repo.CountAttempts(ctx, "login:198.51.100.7", time.Minute, now.Add(3*time.Second))
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 attempts in window, got %d", count)
	}
}

func TestRateLimitRepository_CountExcludesOldAttempts(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "limit"})

	ctx := context.Background()
	now := time.Now()

	if err := repo.RecordAttempt(ctx, "register:client-1", now.Add(-2*time.Minute)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "register:client-1", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "register:client-1", time.Minute, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected stale attempt excluded, got %d", count)
	}
}

func TestRateLimitRepository_TrimWindow(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "limit"})

	ctx := context.Background()
	now := time.Now()

	if err := repo.RecordAttempt(ctx, "refresh:acc-1", now.Add(-time.Hour)); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "refresh:acc-1", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	if err := repo.TrimWindow(ctx, "refresh:acc-1", time.Minute, now); err != nil {
		t.Fatalf("TrimWindow returned error: %v", err)
	}

	count, err := repo.CountAttempts(ctx, "refresh:acc-1", 24*time.Hour, now)
	if err != nil {
		t.Fatalf("CountAttempts returned error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected trimmed set to hold 1 attempt, got %d", count)
	}
}

func TestRateLimitRepository_OldestAttempt(t *testing.T) {
	client, _ := newTestRedis(t)
	repo := NewRateLimitRepository(client, SlidingWindowConfig{KeyPrefix: "limit"})

	ctx := context.Background()
	now := time.Now()
	first := now.Add(-30 * time.Second)

	if err := repo.RecordAttempt(ctx, "login:acc-1", first); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}
	if err := repo.RecordAttempt(ctx, "login:acc-1", now); err != nil {
		t.Fatalf("RecordAttempt returned error: %v", err)
	}

	oldest, found, err := repo.OldestAttempt(ctx, "login:acc-1", time.Minute, now)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if !found {
		t.Fatalf("expected an attempt inside the window")
	}
	if !oldest.Equal(time.Unix(0, first.UnixNano())) {
		t.Fatalf("expected oldest %v, got %v", first, oldest)
	}

	_, found, err = repo.OldestAttempt(ctx, "login:acc-2", time.Minute, now)
	if err != nil {
		t.Fatalf("OldestAttempt returned error: %v", err)
	}
	if found {
		t.Fatalf("expected empty window for unknown identifier")
	}
}
