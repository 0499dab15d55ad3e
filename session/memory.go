package session

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryManager keeps sessions in process memory. It suits tests and
// single-instance deployments.
type MemoryManager struct {
	mu    sync.Mutex
	cache *ttlcache.Cache[string, map[string]Data]
	now   func() time.Time
}

// NewMemoryManager creates a manager whose per-user entries expire after
// ttl without activity. Call Close to stop the cleanup goroutine.
func NewMemoryManager(ttl time.Duration) *MemoryManager {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, map[string]Data](ttl),
		ttlcache.WithDisableTouchOnHit[string, map[string]Data](),
	)
	go cache.Start()

	return &MemoryManager{cache: cache, now: time.Now}
}

func (m *MemoryManager) load(userID string) map[string]Data {
	item := m.cache.Get(userID)
	if item == nil {
		return map[string]Data{}
	}
	return maps.Clone(item.Value())
}

func (m *MemoryManager) store(userID string, sessions map[string]Data) {
	if len(sessions) == 0 {
		m.cache.Delete(userID)
		return
	}
	var latest int64
	for _, d := range sessions {
		if d.ExpiresAt > latest {
			latest = d.ExpiresAt
		}
	}
	ttl := time.Unix(latest, 0).Sub(m.now())
	if ttl <= 0 {
		m.cache.Delete(userID)
		return
	}
	m.cache.Set(userID, sessions, ttl)
}

func (m *MemoryManager) StartSession(_ context.Context, userID string, data Data, fingerprintHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := m.load(userID)
	sessions[fingerprintHash] = data
	m.store(userID, sessions)
	return nil
}

func (m *MemoryManager) RevokeSession(_ context.Context, userID, fingerprintHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := m.load(userID)
	delete(sessions, fingerprintHash)
	m.store(userID, sessions)
	return nil
}

func (m *MemoryManager) RevokeAll(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache.Delete(userID)
	return nil
}

func (m *MemoryManager) GetAll(_ context.Context, userID string) (map[string]Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(userID), nil
}

// RotateSession implements Rotator under the manager lock.
func (m *MemoryManager) RotateSession(_ context.Context, userID, fingerprintHash, previousSessionID string, next Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sessions := m.load(userID)
	current, ok := sessions[fingerprintHash]
	if !ok || current.SessionID != previousSessionID {
		return ErrRotationConflict
	}
	sessions[fingerprintHash] = next
	m.store(userID, sessions)
	return nil
}

// Close stops the cleanup goroutine.
func (m *MemoryManager) Close() {
	m.cache.Stop()
}
