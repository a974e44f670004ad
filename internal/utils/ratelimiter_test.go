package utils

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_ReserveSpacing(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2)
	rl.now = func() time.Time { return base }

	want := []time.Duration{0, 500 * time.Millisecond, time.Second}
	for i, w := range want {
		if got := rl.reserve("backend"); got != w {
			t.Fatalf("reserve #%d = %v, want %v", i, got, w)
		}
	}

	// 別ホストは独立
	if got := rl.reserve("other"); got != 0 {
		t.Fatalf("other host delay = %v, want 0", got)
	}
}

func TestRateLimiter_SlotResetsAfterIdle(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1)
	now := base
	rl.now = func() time.Time { return now }

	rl.reserve("h")
	now = base.Add(10 * time.Second)
	if got := rl.reserve("h"); got != 0 {
		t.Fatalf("delay after idle = %v, want 0", got)
	}
}

func TestRateLimiter_Unlimited(t *testing.T) {
	rl := NewRateLimiter(0)
	for i := 0; i < 100; i++ {
		if err := rl.Wait(context.Background(), "h"); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}

	var nilLimiter *RateLimiter
	if err := nilLimiter.Wait(context.Background(), "h"); err != nil {
		t.Fatalf("nil Wait: %v", err)
	}
}

func TestRateLimiter_WaitHonoursContext(t *testing.T) {
	rl := NewRateLimiter(0.1) // 10s 間隔
	ctx := context.Background()
	if err := rl.Wait(ctx, "h"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx, "h"); err != context.DeadlineExceeded {
		t.Fatalf("second Wait err = %v, want deadline exceeded", err)
	}
}
