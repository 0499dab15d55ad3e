package limiters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrThrottleUnavailable indicates the attempt counter backend is unreachable.
	ErrThrottleUnavailable = errors.New("login throttle backend unavailable")
)

// ThrottleConfig holds the failed-login window.
type ThrottleConfig struct {
	MaxAttempts int
	Window      time.Duration
	Prefix      string
}

// DefaultThrottleConfig returns 3 attempts within 5 minutes.
func DefaultThrottleConfig() ThrottleConfig {
	return ThrottleConfig{MaxAttempts: 3, Window: 5 * time.Minute, Prefix: "ila"}
}

func (c ThrottleConfig) normalized() ThrottleConfig {
	d := DefaultThrottleConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	return c
}

// AttemptThrottle counts failed logins per user in Redis. The window
// starts with the first failure and is not extended by later ones.
type AttemptThrottle struct {
	redis  redis.UniversalClient
	config ThrottleConfig
}

// NewAttemptThrottle creates a throttle.
func NewAttemptThrottle(redisClient redis.UniversalClient, cfg ThrottleConfig) *AttemptThrottle {
	return &AttemptThrottle{redis: redisClient, config: cfg.normalized()}
}

func (l *AttemptThrottle) key(userID string) string {
	return l.config.Prefix + ":" + userID
}

// HasExceededAttemptLimit reports whether the user reached MaxAttempts
// within the current window.
func (l *AttemptThrottle) HasExceededAttemptLimit(ctx context.Context, userID string) (bool, error) {
	if l == nil {
		return false, nil
	}
	count, err := l.Attempts(ctx, userID)
	if err != nil {
		return false, err
	}
	return count >= l.config.MaxAttempts, nil
}

// RecordFailedAttempt increments the counter, opening the window on the
// first failure.
//
//	Performance: 1 INCR, plus 1 EXPIRE on the first failure.
func (l *AttemptThrottle) RecordFailedAttempt(ctx context.Context, userID string) error {
	if l == nil || userID == "" {
		return nil
	}

	count, err := l.redis.Incr(ctx, l.key(userID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, l.key(userID), l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
		}
	}
	return nil
}

// ResetAttempts clears the counter.
func (l *AttemptThrottle) ResetAttempts(ctx context.Context, userID string) error {
	if l == nil || userID == "" {
		return nil
	}

	if err := l.redis.Del(ctx, l.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	return nil
}

// Attempts returns the failures counted in the current window.
func (l *AttemptThrottle) Attempts(ctx context.Context, userID string) (int, error) {
	if l == nil || userID == "" {
		return 0, nil
	}

	count, err := l.redis.Get(ctx, l.key(userID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrThrottleUnavailable, err)
	}
	return int(count), nil
}
