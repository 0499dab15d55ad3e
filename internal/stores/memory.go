package stores

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goIdentity/internal"
	"github.com/jellydator/ttlcache/v3"
)

// MemoryVerificationStore is the in-process counterpart of
// VerificationStore.
type MemoryVerificationStore struct {
	mu     sync.Mutex
	cache  *ttlcache.Cache[string, VerificationRecord]
	config VerificationConfig
	now    func() time.Time
}

// NewMemoryVerificationStore creates a store. Call Close to stop its
// cleanup goroutine.
func NewMemoryVerificationStore(cfg VerificationConfig) *MemoryVerificationStore {
	cfg = cfg.normalized()
	cache := ttlcache.New(
		ttlcache.WithTTL[string, VerificationRecord](cfg.TTL),
		ttlcache.WithDisableTouchOnHit[string, VerificationRecord](),
	)
	go cache.Start()
	return &MemoryVerificationStore{cache: cache, config: cfg, now: time.Now}
}

func (s *MemoryVerificationStore) live(userID string) (VerificationRecord, bool) {
	item := s.cache.Get(userID)
	if item == nil {
		return VerificationRecord{}, false
	}
	record := item.Value()
	if s.now().Unix() >= record.ExpiresAt {
		s.cache.Delete(userID)
		return VerificationRecord{}, false
	}
	return record, true
}

func (s *MemoryVerificationStore) InitializeUserVerification(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(userID); ok {
		return "", ErrVerificationInProgress
	}
	code, err := internal.NewVerificationCode(s.config.CodeLength)
	if err != nil {
		return "", err
	}
	s.cache.Set(userID, VerificationRecord{
		ExpiresAt:  s.now().Add(s.config.TTL).Unix(),
		SecretHash: internal.HashToken(code),
	}, s.config.TTL)
	return code, nil
}

func (s *MemoryVerificationStore) IsVerificationInProgress(_ context.Context, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.live(userID)
	return ok, nil
}

func (s *MemoryVerificationStore) ValidateVerificationCode(ctx context.Context, userID, code string) (bool, error) {
	return mergeConsume(s.Consume(ctx, userID, code))
}

// Consume removes the challenge and checks code against it.
func (s *MemoryVerificationStore) Consume(_ context.Context, userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.cache.Get(userID)
	if item == nil {
		return ErrVerificationNotFound
	}
	s.cache.Delete(userID)
	return checkVerification(item.Value(), code, s.now())
}

// Cancel drops a pending challenge.
func (s *MemoryVerificationStore) Cancel(_ context.Context, userID string) error {
	s.cache.Delete(userID)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryVerificationStore) Close() {
	s.cache.Stop()
}
