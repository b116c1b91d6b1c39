// file: internal/services/quota.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ecolearn/internal/cache"
)

// QuotaWindow is the persisted per-user quota state. The window is
// anchored at the first message, not at midnight.
type QuotaWindow struct {
	WindowStart time.Time `json:"window_start"`
	Used        int       `json:"used"`
}

// QuotaStore persists quota windows keyed by user
type QuotaStore interface {
	Get(ctx context.Context, userID string) (*QuotaWindow, error)
	Put(ctx context.Context, userID string, window *QuotaWindow, ttl time.Duration) error
}

// ChatQuota enforces a sliding daily message limit per user
type ChatQuota struct {
	store  QuotaStore
	limit  int
	window time.Duration
	mu     sync.Mutex
	now    func() time.Time
}

// NewChatQuota creates a quota limiter with a 24h window
func NewChatQuota(store QuotaStore, limit int) *ChatQuota {
	return &ChatQuota{
		store:  store,
		limit:  limit,
		window: 24 * time.Hour,
		now:    time.Now,
	}
}

// CheckAndConsume atomically consumes one message from the user's quota.
// An expired window restarts at the current message.
func (q *ChatQuota) CheckAndConsume(ctx context.Context, userID string) (*QuotaResult, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()

	window, err := q.store.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load quota state: %w", err)
	}
	if window == nil || now.Sub(window.WindowStart) >= q.window {
		window = &QuotaWindow{WindowStart: now}
	}

	resetAt := window.WindowStart.Add(q.window)
	if window.Used >= q.limit {
		return &QuotaResult{
			Allowed:   false,
			Remaining: 0,
			ResetAt:   resetAt,
		}, nil
	}

	window.Used++
	if err := q.store.Put(ctx, userID, window, resetAt.Sub(now)); err != nil {
		return nil, fmt.Errorf("failed to persist quota state: %w", err)
	}

	return &QuotaResult{
		Allowed:   true,
		Remaining: q.limit - window.Used,
		ResetAt:   resetAt,
	}, nil
}

// Limit returns the configured daily limit
func (q *ChatQuota) Limit() int {
	return q.limit
}

// ===============================
// CACHE-BACKED STORE
// ===============================

type cacheQuotaStore struct {
	cache cache.Cache
}

// NewCacheQuotaStore persists quota windows in the shared cache. With the
// memory provider this is the in-process default; with redis the quota
// survives restarts and is shared between instances.
func NewCacheQuotaStore(c cache.Cache) QuotaStore {
	return &cacheQuotaStore{cache: c}
}

func (s *cacheQuotaStore) key(userID string) string {
	return "chat:quota:" + userID
}

func (s *cacheQuotaStore) Get(ctx context.Context, userID string) (*QuotaWindow, error) {
	v, ok := s.cache.Get(ctx, s.key(userID))
	if !ok {
		return nil, nil
	}
	data, ok := cache.AsBytes(v)
	if !ok {
		return nil, fmt.Errorf("unexpected quota state type %T", v)
	}

	window := &QuotaWindow{}
	if err := json.Unmarshal(data, window); err != nil {
		return nil, fmt.Errorf("corrupt quota state: %w", err)
	}
	return window, nil
}

func (s *cacheQuotaStore) Put(ctx context.Context, userID string, window *QuotaWindow, ttl time.Duration) error {
	data, err := json.Marshal(window)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.key(userID), data, ttl)
}
