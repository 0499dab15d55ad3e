package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	rotateStatusConflict int64 = 0
	rotateStatusRotated  int64 = 1
)

// rotateSessionLua swaps the record under one fingerprint only while it
// still carries the expected session ID.
// KEYS[1] = user hash key
// ARGV[1] = fingerprint hash (field)
// ARGV[2] = expected session ID
// ARGV[3] = next encoded record
// ARGV[4] = key expiry, unix milliseconds
const rotateSessionScript = `
local data = redis.call("HGET", KEYS[1], ARGV[1])
if not data then
  return 0
end

local sid_len = string.byte(data, 2)
if not sid_len or #data < 2 + sid_len then
  return 0
end

if string.sub(data, 3, 2 + sid_len) ~= ARGV[2] then
  return 0
end

redis.call("HSET", KEYS[1], ARGV[1], ARGV[3])
redis.call("PEXPIREAT", KEYS[1], ARGV[4])
return 1
`

var rotateSessionLua = redis.NewScript(rotateSessionScript)

// RedisManager stores every session of a user in one Redis hash keyed by
// fingerprint hash. The hash expires with its newest session.
type RedisManager struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisManager creates a manager. prefix defaults to "ius".
func NewRedisManager(client redis.UniversalClient, prefix string) *RedisManager {
	if prefix == "" {
		prefix = "ius"
	}
	return &RedisManager{redis: client, prefix: prefix}
}

func (m *RedisManager) key(userID string) string {
	return m.prefix + ":" + userID
}

// StartSession registers data under fingerprintHash.
//
//	Performance: 1 MULTI/EXEC (HSET + PEXPIREAT).
func (m *RedisManager) StartSession(ctx context.Context, userID string, data Data, fingerprintHash string) error {
	encoded, err := Encode(data)
	if err != nil {
		return err
	}

	key := m.key(userID)
	_, err = m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fingerprintHash, encoded)
		pipe.ExpireAt(ctx, key, time.Unix(data.ExpiresAt, 0))
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RevokeSession removes the session under fingerprintHash. Revoking a
// missing session is not an error.
func (m *RedisManager) RevokeSession(ctx context.Context, userID, fingerprintHash string) error {
	if err := m.redis.HDel(ctx, m.key(userID), fingerprintHash).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RevokeAll removes every session of userID.
func (m *RedisManager) RevokeAll(ctx context.Context, userID string) error {
	if err := m.redis.Del(ctx, m.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// GetAll returns the sessions of userID by fingerprint hash. Corrupt
// records are removed and skipped.
func (m *RedisManager) GetAll(ctx context.Context, userID string) (map[string]Data, error) {
	key := m.key(userID)
	raw, err := m.redis.HGetAll(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return map[string]Data{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	out := make(map[string]Data, len(raw))
	var corrupt []string
	for fp, blob := range raw {
		d, err := Decode([]byte(blob))
		if err != nil {
			corrupt = append(corrupt, fp)
			continue
		}
		out[fp] = d
	}

	if len(corrupt) > 0 {
		if err := m.redis.HDel(ctx, key, corrupt...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}
	return out, nil
}

// RotateSession implements Rotator with a Lua compare-and-swap on the
// stored session ID.
//
//	Performance: 1 Lua EVALSHA.
func (m *RedisManager) RotateSession(ctx context.Context, userID, fingerprintHash, previousSessionID string, next Data) error {
	encoded, err := Encode(next)
	if err != nil {
		return err
	}

	status, err := rotateSessionLua.Run(ctx, m.redis,
		[]string{m.key(userID)},
		fingerprintHash,
		previousSessionID,
		encoded,
		time.Unix(next.ExpiresAt, 0).UnixMilli(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	switch status {
	case rotateStatusRotated:
		return nil
	case rotateStatusConflict:
		return ErrRotationConflict
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", ErrRedisUnavailable, status)
	}
}

// Ping returns a point-in-time Redis availability check and latency.
func (m *RedisManager) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := m.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}
