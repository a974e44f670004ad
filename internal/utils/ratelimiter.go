package utils

import (
	"context"
	"sync"
	"time"
)

// RateLimiter ホスト別にリクエスト間隔を空ける
type RateLimiter struct {
	interval time.Duration
	mu       sync.Mutex
	next     map[string]time.Time
	now      func() time.Time
}

// NewRateLimiter 新しいレートリミッターを作成 (rps <= 0 なら制限なし)
func NewRateLimiter(rps float64) *RateLimiter {
	var interval time.Duration
	if rps > 0 {
		interval = time.Duration(float64(time.Second) / rps)
	}
	return &RateLimiter{
		interval: interval,
		next:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Wait host の次の枠まで待機する。ctx が先に終われば ctx.Err() を返す
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	if rl == nil || rl.interval <= 0 {
		return ctx.Err()
	}

	delay := rl.reserve(host)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// reserve 枠を予約し、待つべき時間を返す
func (rl *RateLimiter) reserve(host string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	slot := rl.next[host]
	if slot.Before(now) {
		slot = now
	}
	rl.next[host] = slot.Add(rl.interval)
	return slot.Sub(now)
}
