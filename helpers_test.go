package goIdentity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goIdentity/mfa"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testPassword = "Sup3r-secret!"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu            sync.Mutex
	verifications map[string]string
	multifactor   map[string]string
	fail          error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		verifications: map[string]string{},
		multifactor:   map[string]string{},
	}
}

func (n *recordingNotifier) SendVerificationCode(_ context.Context, email, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.verifications[email] = code
	return nil
}

func (n *recordingNotifier) SendMultifactorCode(_ context.Context, _ mfa.Kind, contact, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.multifactor[contact] = code
	return nil
}

func (n *recordingNotifier) verificationCode(t *testing.T, email string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	code, ok := n.verifications[email]
	if !ok {
		t.Fatalf("no verification code sent to %s", email)
	}
	return code
}

func (n *recordingNotifier) multifactorCode(t *testing.T, contact string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	code, ok := n.multifactor[contact]
	if !ok {
		t.Fatalf("no multifactor code sent to %s", contact)
	}
	return code
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.SigningMethod = "hs256"
	cfg.JWT.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Fingerprint.Secret = []byte("fingerprint-secret-0123456789")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Events.Sink = "none"
	return cfg
}

type testEngine struct {
	*Engine
	redis    *miniredis.Miniredis
	client   *redis.Client
	notifier *recordingNotifier
	clock    *testClock
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func newTestEngine(t *testing.T, cfg Config) *testEngine {
	t.Helper()

	mr, client := newTestRedis(t)
	notifier := newRecordingNotifier()
	clock := newTestClock()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(client).
		WithMemoryRepository().
		WithNotifier(notifier).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEngine{Engine: engine, redis: mr, client: client, notifier: notifier, clock: clock}
}

func deviceContext(name string) context.Context {
	return WithClient(context.Background(), "203.0.113.7", "test-agent/1.0", name)
}

// registerVerified creates an account and completes email verification.
func (te *testEngine) registerVerified(t *testing.T, email string) string {
	t.Helper()
	ctx := context.Background()

	userID, err := te.Register(ctx, email, testPassword)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := te.RequestVerification(ctx, userID); err != nil {
		t.Fatalf("RequestVerification failed: %v", err)
	}
	if err := te.VerifyAccount(ctx, userID, te.notifier.verificationCode(t, email)); err != nil {
		t.Fatalf("VerifyAccount failed: %v", err)
	}
	return userID
}

func (te *testEngine) login(t *testing.T, ctx context.Context, email string) LoginResult {
	t.Helper()
	res, err := te.Login(ctx, email, testPassword)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !res.Authenticated() {
		t.Fatalf("expected authenticated login, got %s", res.Outcome)
	}
	return res
}

func mustErr(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected %v, got %v", target, err)
	}
}
