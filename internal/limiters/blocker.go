package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrBlockerUnavailable indicates the block backend is unreachable.
	ErrBlockerUnavailable = errors.New("user blocker backend unavailable")
)

// BlockConfig holds the temporary block window.
type BlockConfig struct {
	Duration time.Duration
	Prefix   string
}

// DefaultBlockConfig returns a 15 minute block.
func DefaultBlockConfig() BlockConfig {
	return BlockConfig{Duration: 15 * time.Minute, Prefix: "ilb"}
}

func (c BlockConfig) normalized() BlockConfig {
	d := DefaultBlockConfig()
	if c.Duration <= 0 {
		c.Duration = d.Duration
	}
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	return c
}

// Blocker keeps a self-expiring block marker per user in Redis.
type Blocker struct {
	redis  redis.UniversalClient
	config BlockConfig
}

// NewBlocker creates a blocker.
func NewBlocker(redisClient redis.UniversalClient, cfg BlockConfig) *Blocker {
	return &Blocker{redis: redisClient, config: cfg.normalized()}
}

func (b *Blocker) key(userID string) string {
	return b.config.Prefix + ":" + userID
}

// BlockUser starts (or restarts) the block window.
func (b *Blocker) BlockUser(ctx context.Context, userID string) error {
	if b == nil || userID == "" {
		return nil
	}

	if err := b.redis.Set(ctx, b.key(userID), time.Now().Unix(), b.config.Duration).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBlockerUnavailable, err)
	}
	return nil
}

// IsTemporarilyBlockedYet reports whether the block window is still open.
func (b *Blocker) IsTemporarilyBlockedYet(ctx context.Context, userID string) (bool, error) {
	if b == nil || userID == "" {
		return false, nil
	}

	n, err := b.redis.Exists(ctx, b.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBlockerUnavailable, err)
	}
	return n == 1, nil
}

// Remaining returns how long the block lasts, or zero when not blocked.
func (b *Blocker) Remaining(ctx context.Context, userID string) (time.Duration, error) {
	if b == nil || userID == "" {
		return 0, nil
	}

	ttl, err := b.redis.TTL(ctx, b.key(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBlockerUnavailable, err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// Clear lifts the block before its window ends.
func (b *Blocker) Clear(ctx context.Context, userID string) error {
	if b == nil || userID == "" {
		return nil
	}

	if err := b.redis.Del(ctx, b.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBlockerUnavailable, err)
	}
	return nil
}
