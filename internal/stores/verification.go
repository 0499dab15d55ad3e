package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/MrEthical07/goIdentity/internal"
	"github.com/redis/go-redis/v9"
)

const verificationRecordVersionV1 = 1

var (
	ErrVerificationNotFound         = errors.New("verification record not found")
	ErrVerificationExpired          = errors.New("verification code expired")
	ErrVerificationSecretMismatch   = errors.New("verification secret mismatch")
	ErrVerificationInProgress       = errors.New("verification already in progress")
	ErrVerificationRedisUnavailable = errors.New("verification redis unavailable")
)

// consumeVerificationLua reads and deletes a record in one step so a code
// can be tried exactly once.
// KEYS[1] = record key
var consumeVerificationLua = redis.NewScript(`
local data = redis.call('GET', KEYS[1])
if not data then
  return false
end
redis.call('DEL', KEYS[1])
return data
`)

// VerificationConfig holds code shape and lifetime.
type VerificationConfig struct {
	CodeLength int
	TTL        time.Duration
	Prefix     string
}

// DefaultVerificationConfig returns 12 character codes valid for 15 minutes.
func DefaultVerificationConfig() VerificationConfig {
	return VerificationConfig{CodeLength: 12, TTL: 15 * time.Minute, Prefix: "iuv"}
}

func (c VerificationConfig) normalized() VerificationConfig {
	d := DefaultVerificationConfig()
	if c.CodeLength <= 0 {
		c.CodeLength = d.CodeLength
	}
	if c.TTL <= 0 {
		c.TTL = d.TTL
	}
	if c.Prefix == "" {
		c.Prefix = d.Prefix
	}
	return c
}

// VerificationRecord is the stored challenge. Only the code hash is kept.
type VerificationRecord struct {
	ExpiresAt  int64
	SecretHash [32]byte
}

// VerificationStore keeps one email verification challenge per user in
// Redis.
type VerificationStore struct {
	redis  redis.UniversalClient
	config VerificationConfig
	now    func() time.Time
}

// NewVerificationStore creates a store.
func NewVerificationStore(redisClient redis.UniversalClient, cfg VerificationConfig) *VerificationStore {
	return &VerificationStore{redis: redisClient, config: cfg.normalized(), now: time.Now}
}

func (s *VerificationStore) key(userID string) string {
	return s.config.Prefix + ":" + userID
}

// InitializeUserVerification creates a challenge and returns its code. A
// live challenge is never overwritten.
func (s *VerificationStore) InitializeUserVerification(ctx context.Context, userID string) (string, error) {
	code, err := internal.NewVerificationCode(s.config.CodeLength)
	if err != nil {
		return "", err
	}
	record := VerificationRecord{
		ExpiresAt:  s.now().Add(s.config.TTL).Unix(),
		SecretHash: internal.HashToken(code),
	}

	ok, err := s.redis.SetNX(ctx, s.key(userID), encodeVerificationRecord(record), s.config.TTL).Result()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVerificationRedisUnavailable, err)
	}
	if !ok {
		return "", ErrVerificationInProgress
	}
	return code, nil
}

// IsVerificationInProgress reports whether a live challenge exists.
func (s *VerificationStore) IsVerificationInProgress(ctx context.Context, userID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(userID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerificationRedisUnavailable, err)
	}
	return n == 1, nil
}

// ValidateVerificationCode consumes the challenge and reports whether code
// matched it. Missing, expired and wrong codes all report false.
func (s *VerificationStore) ValidateVerificationCode(ctx context.Context, userID, code string) (bool, error) {
	return mergeConsume(s.Consume(ctx, userID, code))
}

// Consume removes the challenge and checks code against it.
//
//	Performance: 1 Lua EVALSHA (GET + DEL).
func (s *VerificationStore) Consume(ctx context.Context, userID, code string) error {
	result, err := consumeVerificationLua.Run(ctx, s.redis, []string{s.key(userID)}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrVerificationNotFound
		}
		return fmt.Errorf("%w: %v", ErrVerificationRedisUnavailable, err)
	}

	data, ok := result.(string)
	if !ok {
		return fmt.Errorf("%w: unexpected lua result type", ErrVerificationRedisUnavailable)
	}
	record, err := decodeVerificationRecord([]byte(data))
	if err != nil {
		return ErrVerificationNotFound
	}
	return checkVerification(record, code, s.now())
}

// Cancel drops a pending challenge.
func (s *VerificationStore) Cancel(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationRedisUnavailable, err)
	}
	return nil
}

func checkVerification(record VerificationRecord, code string, now time.Time) error {
	if now.Unix() >= record.ExpiresAt {
		return ErrVerificationExpired
	}
	// Codes are issued uppercase; users often type them in lowercase.
	provided := internal.HashToken(strings.ToUpper(strings.TrimSpace(code)))
	if subtle.ConstantTimeCompare(provided[:], record.SecretHash[:]) != 1 {
		return ErrVerificationSecretMismatch
	}
	return nil
}

func mergeConsume(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrVerificationNotFound),
		errors.Is(err, ErrVerificationExpired),
		errors.Is(err, ErrVerificationSecretMismatch):
		return false, nil
	default:
		return false, err
	}
}

func encodeVerificationRecord(record VerificationRecord) []byte {
	var buf bytes.Buffer
	buf.Grow(1 + 8 + 32)
	buf.WriteByte(verificationRecordVersionV1)
	_ = binary.Write(&buf, binary.BigEndian, record.ExpiresAt)
	buf.Write(record.SecretHash[:])
	return buf.Bytes()
}

func decodeVerificationRecord(data []byte) (VerificationRecord, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return VerificationRecord{}, err
	}
	if version != verificationRecordVersionV1 {
		return VerificationRecord{}, errors.New("invalid verification record version")
	}

	var record VerificationRecord
	if err := binary.Read(reader, binary.BigEndian, &record.ExpiresAt); err != nil {
		return VerificationRecord{}, err
	}
	if _, err := io.ReadFull(reader, record.SecretHash[:]); err != nil {
		return VerificationRecord{}, err
	}
	if reader.Len() != 0 {
		return VerificationRecord{}, errors.New("trailing bytes in verification record")
	}
	return record, nil
}
