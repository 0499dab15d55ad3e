package user

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/goIdentity/event"
)

type clock struct {
	now time.Time
}

func newTestClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakePasswords struct{}

func (fakePasswords) Secure(_ context.Context, plain string) (string, error) {
	return "hashed$" + plain, nil
}

func (fakePasswords) Check(_ context.Context, plain, hash string) (bool, error) {
	return strings.TrimPrefix(hash, "hashed$") == plain, nil
}

type fakeThrottle struct {
	max      int
	attempts map[string]int
	records  int
}

func newFakeThrottle(max int) *fakeThrottle {
	return &fakeThrottle{max: max, attempts: map[string]int{}}
}

func (t *fakeThrottle) HasExceededAttemptLimit(_ context.Context, id string) (bool, error) {
	return t.attempts[id] >= t.max, nil
}

func (t *fakeThrottle) RecordFailedAttempt(_ context.Context, id string) error {
	t.records++
	t.attempts[id]++
	return nil
}

func (t *fakeThrottle) ResetAttempts(_ context.Context, id string) error {
	delete(t.attempts, id)
	return nil
}

type fakeBlocker struct {
	clock  *clock
	ttl    time.Duration
	blocks map[string]time.Time
}

func newFakeBlocker(c *clock, ttl time.Duration) *fakeBlocker {
	return &fakeBlocker{clock: c, ttl: ttl, blocks: map[string]time.Time{}}
}

func (b *fakeBlocker) BlockUser(_ context.Context, id string) error {
	b.blocks[id] = b.clock.Now().Add(b.ttl)
	return nil
}

func (b *fakeBlocker) IsTemporarilyBlockedYet(_ context.Context, id string) (bool, error) {
	until, ok := b.blocks[id]
	return ok && b.clock.Now().Before(until), nil
}

type fakeVerifications struct {
	codes map[string]string
	calls int
}

func newFakeVerifications() *fakeVerifications {
	return &fakeVerifications{codes: map[string]string{}}
}

func (v *fakeVerifications) IsVerificationInProgress(_ context.Context, id string) (bool, error) {
	v.calls++
	_, ok := v.codes[id]
	return ok, nil
}

func (v *fakeVerifications) ValidateVerificationCode(_ context.Context, id, code string) (bool, error) {
	v.calls++
	stored, ok := v.codes[id]
	delete(v.codes, id)
	return ok && stored == code, nil
}

func (v *fakeVerifications) InitializeUserVerification(_ context.Context, id string) (string, error) {
	v.calls++
	v.codes[id] = "ABC123DEF456"
	return v.codes[id], nil
}

// harness plays the part of the event handlers an orchestrator would wire.
type harness struct {
	clock         *clock
	throttle      *fakeThrottle
	blocker       *fakeBlocker
	verifications *fakeVerifications
	passwords     fakePasswords
}

func newHarness() *harness {
	c := newTestClock()
	return &harness{
		clock:         c,
		throttle:      newFakeThrottle(3),
		blocker:       newFakeBlocker(c, 15*time.Minute),
		verifications: newFakeVerifications(),
	}
}

func (h *harness) flush(a *Account) []event.Event {
	ctx := context.Background()
	events := a.PullEvents()
	for _, e := range events {
		switch ev := e.(type) {
		case event.UserBlocked:
			_ = h.blocker.BlockUser(ctx, ev.UserID)
			_ = h.throttle.ResetAttempts(ctx, ev.UserID)
		case event.UserUnblocked:
			_ = h.throttle.ResetAttempts(ctx, ev.UserID)
		case event.UserAuthenticated:
			_ = h.throttle.ResetAttempts(ctx, ev.UserID)
		case event.InitializedUserVerification:
			_, _ = h.verifications.InitializeUserVerification(ctx, ev.UserID)
		}
	}
	return events
}

func (h *harness) authenticate(a *Account, password string) (AuthResult, error) {
	res, err := a.Authenticate(context.Background(), h.throttle, h.passwords, h.blocker, password)
	h.flush(a)
	return res, err
}

func eventNames(events []event.Event) []event.Name {
	out := make([]event.Name, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventName())
	}
	return out
}

// upgradingPasswords treats every hash not made by itself as outdated.
type upgradingPasswords struct{}

func (upgradingPasswords) Secure(_ context.Context, plain string) (string, error) {
	return "v2$" + plain, nil
}

func (upgradingPasswords) Check(_ context.Context, plain, hash string) (bool, error) {
	_, rest, _ := strings.Cut(hash, "$")
	return rest == plain, nil
}

func (upgradingPasswords) NeedsUpgrade(hash string) (bool, error) {
	return !strings.HasPrefix(hash, "v2$"), nil
}
