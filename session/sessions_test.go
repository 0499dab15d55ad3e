package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type stubIssuer struct{ calls int }

func (s *stubIssuer) Generate(sessionID string, subject Subject, ttl time.Duration) (string, error) {
	s.calls++
	return "access." + subject.UserID + "." + sessionID, nil
}

type stubDevice string

func (d stubDevice) Hash(context.Context) (string, error)      { return "fp-" + string(d), nil }
func (d stubDevice) Encrypted(context.Context) (string, error) { return "sealed-" + string(d), nil }

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

const testUserID = "8f2b5c7e-3c1d-4b7a-9a55-0f4e2d6c1a90"

func newRedisManagerTest(t *testing.T) (*RedisManager, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisManager(rdb, ""), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func testPolicy(c *testClock) Policy {
	return Policy{AccessTTL: 15 * time.Minute, SessionTTL: time.Hour, Now: c.Now}
}

func testSubject() Subject {
	return Subject{UserID: testUserID, Email: "ada@example.com", FullName: "Ada Lovelace", Status: "verified"}
}

func load(t *testing.T, m Manager, c *testClock) *UserSessions {
	t.Helper()
	us, err := Load(context.Background(), m, testUserID, testPolicy(c))
	if err != nil {
		t.Fatalf("load sessions: %v", err)
	}
	return us
}

func TestStartSessionTwiceOnSameDeviceKeepsOne(t *testing.T) {
	m, _, done := newRedisManagerTest(t)
	defer done()
	ctx := context.Background()
	clock := &testClock{now: time.Now()}
	issuer := &stubIssuer{}
	device := stubDevice("laptop")

	first, err := load(t, m, clock).StartSession(ctx, issuer, m, device, testSubject())
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := load(t, m, clock).StartSession(ctx, issuer, m, device, testSubject())
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first.SessionID == second.SessionID {
		t.Fatalf("expected a new session id")
	}

	us := load(t, m, clock)
	if us.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", us.Len())
	}
	d, ok := us.Session("fp-laptop")
	if !ok || d.SessionID != second.SessionID {
		t.Fatalf("expected the second session to remain, got %+v", d)
	}
	if d.Fingerprint != "sealed-laptop" {
		t.Fatalf("expected sealed fingerprint, got %q", d.Fingerprint)
	}
	if second.TokenType != TokenType || second.ExpiresIn != int64((15*time.Minute)/time.Second) {
		t.Fatalf("unexpected token shape: %+v", second)
	}
}

func TestSessionsPerDeviceAreIndependent(t *testing.T) {
	m, _, done := newRedisManagerTest(t)
	defer done()
	ctx := context.Background()
	clock := &testClock{now: time.Now()}
	issuer := &stubIssuer{}

	if _, err := load(t, m, clock).StartSession(ctx, issuer, m, stubDevice("laptop"), testSubject()); err != nil {
		t.Fatalf("start laptop: %v", err)
	}
	clock.now = clock.now.Add(time.Second)
	phone, err := load(t, m, clock).StartSession(ctx, issuer, m, stubDevice("phone"), testSubject())
	if err != nil {
		t.Fatalf("start phone: %v", err)
	}

	us := load(t, m, clock)
	list := us.Sessions()
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].SessionID != phone.SessionID {
		t.Fatalf("expected newest session first")
	}
	if e, ok := us.FindBySessionID(phone.SessionID); !ok || e.FingerprintHash != "fp-phone" {
		t.Fatalf("expected to find phone session, got %+v", e)
	}
}

func TestRefreshSessionRotates(t *testing.T) {
	m, _, done := newRedisManagerTest(t)
	defer done()
	ctx := context.Background()
	clock := &testClock{now: time.Now()}
	issuer := &stubIssuer{}
	device := stubDevice("laptop")

	started, err := load(t, m, clock).StartSession(ctx, issuer, m, device, testSubject())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	refreshed, err := load(t, m, clock).RefreshSession(ctx, issuer, m, device, testSubject(), started.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.SessionID == started.SessionID || refreshed.RefreshToken == started.RefreshToken {
		t.Fatalf("expected a rotated token pair")
	}

	_, err = load(t, m, clock).RefreshSession(ctx, issuer, m, device, testSubject(), started.RefreshToken)
	if !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken on replay, got %v", err)
	}

	// A replayed token revokes the device session.
	if us := load(t, m, clock); us.Len() != 0 {
		t.Fatalf("expected session revoked after replay, got %d", us.Len())
	}
}

func TestRefreshSessionLostRace(t *testing.T) {
	m, _, done := newRedisManagerTest(t)
	defer done()
	ctx := context.Background()
	clock := &testClock{now: time.Now()}
	issuer := &stubIssuer{}
	device := stubDevice("laptop")

	started, err := load(t, m, clock).StartSession(ctx, issuer, m, device, testSubject())
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	a := load(t, m, clock)
	b := load(t, m, clock)
	if _, err := a.RefreshSession(ctx, issuer, m, device, testSubject(), started.RefreshToken); err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if _, err := b.RefreshSession(ctx, issuer, m, device, testSubject(), started.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Fatalf("expected ErrInvalidRefreshToken for the stale snapshot, got %v", err)
	}

	if us := load(t, m, clock); us.Len() != 1 {
		t.Fatalf("expected winner session to survive, got %d", us.Len())
	}
}

func TestRefreshSessionWithoutSession(t *testing.T) {
	m, _, done := newRedisManagerTest(t)
	defer done()
	clock := &testClock{now: time.Now()}

	_, err := load(t, m, clock).RefreshSession(context.Background(), &stubIssuer{}, m, stubDevice("laptop"), testSubject(), "whatever")
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestFinishSession(t *testing.T) {
	m, _, done := newRedisManagerTest(t)
	defer done()
	ctx := context.Background()
	clock := &testClock{now: time.Now()}
	device := stubDevice("laptop")

	if _, err := load(t, m, clock).StartSession(ctx, &stubIssuer{}, m, device, testSubject()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := load(t, m, clock).FinishSession(ctx, m, device); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := load(t, m, clock).FinishSession(ctx, m, device); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed on second finish, got %v", err)
	}
}

func TestFinishAllRemovesKey(t *testing.T) {
	m, mr, done := newRedisManagerTest(t)
	defer done()
	ctx := context.Background()
	clock := &testClock{now: time.Now()}

	for _, d := range []stubDevice{"laptop", "phone", "tablet"} {
		if _, err := load(t, m, clock).StartSession(ctx, &stubIssuer{}, m, d, testSubject()); err != nil {
			t.Fatalf("start %s: %v", d, err)
		}
	}
	us := load(t, m, clock)
	if err := us.FinishAll(ctx, m); err != nil {
		t.Fatalf("finish all: %v", err)
	}
	if us.Len() != 0 {
		t.Fatalf("expected empty set, got %d", us.Len())
	}
	if mr.Exists("ius:" + testUserID) {
		t.Fatalf("expected session hash deleted")
	}
}

func TestLoadPrunesExpiredSessions(t *testing.T) {
	m, mr, done := newRedisManagerTest(t)
	defer done()
	ctx := context.Background()
	clock := &testClock{now: time.Now()}

	if _, err := load(t, m, clock).StartSession(ctx, &stubIssuer{}, m, stubDevice("laptop"), testSubject()); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.now = clock.now.Add(2 * time.Hour)
	if us := load(t, m, clock); us.Len() != 0 {
		t.Fatalf("expected expired session pruned, got %d", us.Len())
	}
	if fields, _ := mr.HKeys("ius:" + testUserID); len(fields) != 0 {
		t.Fatalf("expected expired record revoked, got %v", fields)
	}
}

func TestGetAllDropsCorruptRecords(t *testing.T) {
	m, mr, done := newRedisManagerTest(t)
	defer done()
	ctx := context.Background()
	clock := &testClock{now: time.Now()}

	if _, err := load(t, m, clock).StartSession(ctx, &stubIssuer{}, m, stubDevice("laptop"), testSubject()); err != nil {
		t.Fatalf("start: %v", err)
	}
	mr.HSet("ius:"+testUserID, "fp-garbage", "\x09not-a-session")

	all, err := m.GetAll(ctx, testUserID)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 valid session, got %d", len(all))
	}
	if mr.HGet("ius:"+testUserID, "fp-garbage") != "" {
		t.Fatalf("expected corrupt record removed")
	}
}

func TestBuildRejectsForeignSubject(t *testing.T) {
	m, _, done := newRedisManagerTest(t)
	defer done()
	clock := &testClock{now: time.Now()}

	subject := testSubject()
	subject.UserID = "someone-else"
	_, err := load(t, m, clock).StartSession(context.Background(), &stubIssuer{}, m, stubDevice("laptop"), subject)
	if !errors.Is(err, ErrBadBuiltSession) {
		t.Fatalf("expected ErrBadBuiltSession, got %v", err)
	}
}

func TestLoadRequiresUser(t *testing.T) {
	m, _, done := newRedisManagerTest(t)
	defer done()

	if _, err := Load(context.Background(), m, "", DefaultPolicy()); !errors.Is(err, ErrBadBuiltSession) {
		t.Fatalf("expected ErrBadBuiltSession, got %v", err)
	}
}

func TestRedisUnavailable(t *testing.T) {
	m, mr, done := newRedisManagerTest(t)
	defer done()
	mr.Close()

	if _, err := m.GetAll(context.Background(), testUserID); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}

func TestMemoryManagerLifecycle(t *testing.T) {
	m := NewMemoryManager(time.Hour)
	defer m.Close()
	ctx := context.Background()
	clock := &testClock{now: time.Now()}
	device := stubDevice("laptop")

	started, err := load(t, m, clock).StartSession(ctx, &stubIssuer{}, m, device, testSubject())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	refreshed, err := load(t, m, clock).RefreshSession(ctx, &stubIssuer{}, m, device, testSubject(), started.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	us := load(t, m, clock)
	if d, ok := us.Session("fp-laptop"); !ok || d.SessionID != refreshed.SessionID {
		t.Fatalf("expected refreshed session stored, got %+v", d)
	}

	stale := Data{SessionID: started.SessionID, CreatedAt: clock.now.Unix(), ExpiresAt: clock.now.Add(time.Hour).Unix()}
	if err := m.RotateSession(ctx, testUserID, "fp-laptop", started.SessionID, stale); !errors.Is(err, ErrRotationConflict) {
		t.Fatalf("expected ErrRotationConflict, got %v", err)
	}

	if err := us.FinishAll(ctx, m); err != nil {
		t.Fatalf("finish all: %v", err)
	}
	if all, _ := m.GetAll(ctx, testUserID); len(all) != 0 {
		t.Fatalf("expected no sessions, got %d", len(all))
	}
}

func TestMemoryManagerRevokeAllDuringRotation(t *testing.T) {
	m := NewMemoryManager(time.Hour)
	defer m.Close()
	ctx := context.Background()
	now := time.Now()
	data := func(id string) Data {
		return Data{SessionID: id, CreatedAt: now.Unix(), ExpiresAt: now.Add(time.Hour).Unix()}
	}

	for i := 0; i < 200; i++ {
		if err := m.StartSession(ctx, testUserID, data("s0"), "fp-laptop"); err != nil {
			t.Fatalf("start: %v", err)
		}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := m.RotateSession(ctx, testUserID, "fp-laptop", "s0", data("s1"))
			if err != nil && !errors.Is(err, ErrRotationConflict) {
				t.Errorf("rotate: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := m.RevokeAll(ctx, testUserID); err != nil {
				t.Errorf("revoke all: %v", err)
			}
		}()
		wg.Wait()

		sessions, err := m.GetAll(ctx, testUserID)
		if err != nil {
			t.Fatalf("get all: %v", err)
		}
		if len(sessions) != 0 {
			t.Fatalf("round %d: session survived RevokeAll: %+v", i, sessions)
		}
	}
}
