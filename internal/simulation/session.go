package simulation

import (
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"Floodsim_discord_bot/internal/geometry"
	"Floodsim_discord_bot/internal/hotspot"
	"Floodsim_discord_bot/internal/metadata"
)

// Result is one completed simulation. It is never modified after it has
// been stored in a Session.
type Result struct {
	ID        uuid.UUID
	Before    image.Image
	After     image.Image // hotspots already drawn
	Metrics   metadata.Metrics
	Hotspots  []hotspot.Hotspot
	Rendered  int
	Selection *geometry.Selection
	Prompt    string
	CreatedAt time.Time
}

// Session holds the latest result for one user.
type Session struct {
	result atomic.Pointer[Result]
}

// NewSession 空のセッションを作成
func NewSession() *Session {
	return &Session{}
}

// Result returns the latest stored result, or nil.
func (s *Session) Result() *Result {
	if s == nil {
		return nil
	}
	return s.result.Load()
}

func (s *Session) publish(r *Result) {
	if s == nil || r == nil {
		return
	}
	s.result.Store(r)
}

// Sessions ユーザーID別のセッション
// ttl > 0 の場合、最後に使われてから ttl を過ぎたセッションは破棄される
type Sessions struct {
	mu    sync.Mutex
	items map[string]*sessionEntry
	ttl   time.Duration
	now   func() time.Time
}

type sessionEntry struct {
	sess     *Session
	lastUsed time.Time
}

// SessionsOption configures a Sessions store.
type SessionsOption func(*Sessions)

// WithSessionTTL drops sessions idle for longer than ttl. Zero keeps them forever.
func WithSessionTTL(ttl time.Duration) SessionsOption {
	return func(s *Sessions) {
		s.ttl = ttl
	}
}

// NewSessions 空のストアを作成
func NewSessions(opts ...SessionsOption) *Sessions {
	s := &Sessions{items: make(map[string]*sessionEntry), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session for userID, creating it on first use.
func (s *Sessions) Get(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)
	entry, ok := s.items[userID]
	if !ok {
		entry = &sessionEntry{sess: NewSession()}
		s.items[userID] = entry
	}
	entry.lastUsed = now
	return entry.sess
}

// Len 保持しているセッション数
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	return len(s.items)
}

// sweepLocked 期限切れのセッションを削除
func (s *Sessions) sweepLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	for id, entry := range s.items {
		if now.Sub(entry.lastUsed) > s.ttl {
			delete(s.items, id)
		}
	}
}
