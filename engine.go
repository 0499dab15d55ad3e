package goIdentity

import (
	"context"
	"time"

	"github.com/MrEthical07/goIdentity/event"
	"github.com/MrEthical07/goIdentity/fingerprint"
	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/password"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/user"
	"github.com/rs/zerolog"
)

// Engine is the identity core: registration, verification, credential
// checks with throttling and blocking, multifactor challenges and
// device-bound sessions.
//
// Account operations load the aggregate, run it, persist it and then
// publish the events it queued to the handlers wired by Build. The Engine
// is immutable after Build and safe for concurrent use; aggregates are
// rebuilt on every call.
type Engine struct {
	config        Config
	flows         flows.Service
	repository    user.Repository
	bus           *event.Bus
	throttle      user.LoginThrottle
	blocker       blockStore
	verifications verificationStore
	sessions      session.Manager
	sessionPolicy session.Policy
	passwords     *password.Argon2
	tokens        *jwt.Manager
	fingerprints  *fingerprint.Service
	notifier      Notifier
	metrics       *Metrics
	logger        zerolog.Logger

	accountOptions []user.Option
	closers        []func()
}

// blockStore is the block window backend. Clear and Remaining serve
// admin unblocks and retry hints.
type blockStore interface {
	user.UserBlocker
	Clear(ctx context.Context, userID string) error
	Remaining(ctx context.Context, userID string) (time.Duration, error)
}

// verificationStore is the verification backend. Cancel drops a challenge
// whose address is no longer current.
type verificationStore interface {
	user.VerificationService
	Cancel(ctx context.Context, userID string) error
}

func (e *Engine) ready() error {
	if e == nil || !e.flows.Initialized() || e.tokens == nil || e.sessions == nil {
		return ErrEngineNotReady
	}
	return nil
}

// Close drains the event dispatcher and stops memory backends.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.bus.Close()
	for _, closeFn := range e.closers {
		closeFn()
	}
}

// EventsDropped reports events the asynchronous sink discarded under
// backpressure.
func (e *Engine) EventsDropped() uint64 {
	if e == nil {
		return 0
	}
	return e.bus.Dropped()
}

// MetricsSnapshot copies the Engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) loadSessions(ctx context.Context, userID string) (*session.UserSessions, error) {
	return session.Load(ctx, e.sessions, userID, e.sessionPolicy)
}

func subjectOf(u user.AuthenticatedUser) session.Subject {
	return session.Subject{
		UserID:   u.UserID,
		Email:    u.Email,
		FullName: u.FullName,
		Status:   string(u.Status),
	}
}

func accountSubject(a *user.Account) session.Subject {
	return session.Subject{
		UserID:   a.ID(),
		Email:    a.Email(),
		FullName: a.FullName(),
		Status:   string(a.Status()),
	}
}

// HealthStatus is an on-demand backend health result.
type HealthStatus struct {
	Backend          Backend
	BackendAvailable bool
	BackendLatency   time.Duration
}

// Health pings the session backend. In-process backends are always
// available.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	if e == nil || e.sessions == nil {
		return HealthStatus{}
	}
	status := HealthStatus{Backend: e.config.Backend, BackendAvailable: true}

	pinger, ok := e.sessions.(interface {
		Ping(ctx context.Context) (time.Duration, error)
	})
	if !ok {
		return status
	}
	latency, err := pinger.Ping(ctx)
	status.BackendAvailable = err == nil
	status.BackendLatency = latency
	if err != nil {
		e.logger.Warn().Err(err).Str("operation", "health").Msg("session backend unavailable")
	}
	return status
}
