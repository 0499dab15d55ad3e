package limiters

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type attemptWindow struct {
	count     int
	expiresAt time.Time
}

// MemoryThrottle is the in-process counterpart of AttemptThrottle.
type MemoryThrottle struct {
	mu     sync.Mutex
	cache  *ttlcache.Cache[string, attemptWindow]
	config ThrottleConfig
	now    func() time.Time
}

// NewMemoryThrottle creates a throttle. Call Close to stop its cleanup
// goroutine.
func NewMemoryThrottle(cfg ThrottleConfig) *MemoryThrottle {
	cfg = cfg.normalized()
	cache := ttlcache.New(
		ttlcache.WithTTL[string, attemptWindow](cfg.Window),
		ttlcache.WithDisableTouchOnHit[string, attemptWindow](),
	)
	go cache.Start()
	return &MemoryThrottle{cache: cache, config: cfg, now: time.Now}
}

func (l *MemoryThrottle) HasExceededAttemptLimit(ctx context.Context, userID string) (bool, error) {
	if l == nil {
		return false, nil
	}
	count, err := l.Attempts(ctx, userID)
	if err != nil {
		return false, err
	}
	return count >= l.config.MaxAttempts, nil
}

func (l *MemoryThrottle) RecordFailedAttempt(_ context.Context, userID string) error {
	if l == nil || userID == "" {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := attemptWindow{expiresAt: now.Add(l.config.Window)}
	if item := l.cache.Get(userID); item != nil && now.Before(item.Value().expiresAt) {
		w = item.Value()
	}
	w.count++
	l.cache.Set(userID, w, w.expiresAt.Sub(now))
	return nil
}

func (l *MemoryThrottle) ResetAttempts(_ context.Context, userID string) error {
	if l == nil || userID == "" {
		return nil
	}
	l.cache.Delete(userID)
	return nil
}

// Attempts returns the failures counted in the current window.
func (l *MemoryThrottle) Attempts(_ context.Context, userID string) (int, error) {
	if l == nil || userID == "" {
		return 0, nil
	}
	item := l.cache.Get(userID)
	if item == nil || !l.now().Before(item.Value().expiresAt) {
		return 0, nil
	}
	return item.Value().count, nil
}

// Close stops the cleanup goroutine.
func (l *MemoryThrottle) Close() {
	l.cache.Stop()
}

// MemoryBlocker is the in-process counterpart of Blocker.
type MemoryBlocker struct {
	cache  *ttlcache.Cache[string, time.Time]
	config BlockConfig
	now    func() time.Time
}

// NewMemoryBlocker creates a blocker. Call Close to stop its cleanup
// goroutine.
func NewMemoryBlocker(cfg BlockConfig) *MemoryBlocker {
	cfg = cfg.normalized()
	cache := ttlcache.New(
		ttlcache.WithTTL[string, time.Time](cfg.Duration),
		ttlcache.WithDisableTouchOnHit[string, time.Time](),
	)
	go cache.Start()
	return &MemoryBlocker{cache: cache, config: cfg, now: time.Now}
}

func (b *MemoryBlocker) BlockUser(_ context.Context, userID string) error {
	if b == nil || userID == "" {
		return nil
	}
	b.cache.Set(userID, b.now().Add(b.config.Duration), b.config.Duration)
	return nil
}

func (b *MemoryBlocker) IsTemporarilyBlockedYet(_ context.Context, userID string) (bool, error) {
	if b == nil || userID == "" {
		return false, nil
	}
	item := b.cache.Get(userID)
	return item != nil && b.now().Before(item.Value()), nil
}

// Remaining returns how long the block lasts, or zero when not blocked.
func (b *MemoryBlocker) Remaining(_ context.Context, userID string) (time.Duration, error) {
	if b == nil || userID == "" {
		return 0, nil
	}
	item := b.cache.Get(userID)
	if item == nil {
		return 0, nil
	}
	if left := item.Value().Sub(b.now()); left > 0 {
		return left, nil
	}
	return 0, nil
}

// Clear lifts the block before its window ends.
func (b *MemoryBlocker) Clear(_ context.Context, userID string) error {
	if b == nil || userID == "" {
		return nil
	}
	b.cache.Delete(userID)
	return nil
}

// Close stops the cleanup goroutine.
func (b *MemoryBlocker) Close() {
	b.cache.Stop()
}
