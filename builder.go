package goIdentity

import (
	"errors"
	"time"

	"github.com/MrEthical07/goIdentity/event"
	"github.com/MrEthical07/goIdentity/fingerprint"
	"github.com/MrEthical07/goIdentity/internal/flows"
	"github.com/MrEthical07/goIdentity/internal/limiters"
	"github.com/MrEthical07/goIdentity/internal/stores"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/mfa"
	"github.com/MrEthical07/goIdentity/password"
	"github.com/MrEthical07/goIdentity/repository/memory"
	"github.com/MrEthical07/goIdentity/repository/postgres"
	"github.com/MrEthical07/goIdentity/session"
	"github.com/MrEthical07/goIdentity/user"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Builder assembles an Engine. A Builder is single-use and is not safe for
// concurrent use.
type Builder struct {
	config     Config
	redis      redis.UniversalClient
	repository user.Repository
	db         *gorm.DB
	lookups    postgres.Lookups
	inMemory   bool
	notifier   Notifier
	sink       event.Sink
	logger     *zerolog.Logger
	now        func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client used by the Redis backend.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithRepository sets the account store. With BackendMemory an in-process
// repository is used when none is set.
func (b *Builder) WithRepository(repo user.Repository) *Builder {
	b.repository = repo
	return b
}

// WithMemoryRepository keeps accounts in process memory whatever the
// state backend. Accounts are lost on restart.
func (b *Builder) WithMemoryRepository() *Builder {
	b.inMemory = true
	return b
}

// WithPostgres stores accounts in db. The repository is created by Build
// so it rebuilds accounts with the configured multifactor policy. See
// OpenPostgres.
func (b *Builder) WithPostgres(db *gorm.DB, lookups postgres.Lookups) *Builder {
	b.db = db
	b.lookups = lookups
	return b
}

// WithNotifier sets code delivery. Defaults to a LogNotifier.
func (b *Builder) WithNotifier(n Notifier) *Builder {
	b.notifier = n
	return b
}

// WithEventSink sets the asynchronous event sink. It only takes effect
// when Config.Events.Enabled is true.
func (b *Builder) WithEventSink(sink event.Sink) *Builder {
	b.sink = sink
	return b
}

// WithLogger sets the Engine logger. Defaults to zerolog.Nop.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = &logger
	return b
}

// WithClock replaces the clock used for session and multifactor code
// expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the ValidateAccess latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend == BackendRedis && b.redis == nil {
		return nil, errors.New("redis client required")
	}

	logger := zerolog.Nop()
	if b.logger != nil {
		logger = *b.logger
	}
	now := b.now
	if now == nil {
		now = time.Now
	}

	accountOptions := []user.Option{
		user.WithMultifactorPolicy(mfa.Policy{
			CodeTTL:    cfg.Multifactor.CodeTTL,
			CodeDigits: cfg.Multifactor.CodeDigits,
		}),
		user.WithClock(now),
	}

	repo := b.repository
	if repo == nil && b.db != nil {
		repo = postgres.NewUserRepository(b.db, b.lookups, logger, accountOptions...)
	}
	if repo == nil {
		if cfg.Backend != BackendMemory && !b.inMemory {
			return nil, errors.New("user repository required")
		}
		repo = memory.NewUserRepository(accountOptions...)
	}

	engine := &Engine{
		config:         cloneConfig(cfg),
		repository:     repo,
		accountOptions: accountOptions,
		sessionPolicy: session.Policy{
			AccessTTL:  cfg.JWT.AccessTTL,
			SessionTTL: cfg.Session.TTL,
			Now:        now,
		},
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
	}

	// -------- CREDENTIALS --------
	ph, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
		Pepper:           cloneBytes(cfg.Password.Pepper),
	})
	if err != nil {
		return nil, err
	}
	engine.passwords = ph

	jm, err := jwt.NewManager(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		RequireIAT:    true,
		KeyID:         cfg.JWT.KeyID,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = jm

	fp, err := fingerprint.New(cfg.Fingerprint.Secret)
	if err != nil {
		return nil, err
	}
	engine.fingerprints = fp

	// -------- STATE BACKEND --------
	throttleCfg := limiters.ThrottleConfig{
		MaxAttempts: cfg.Throttle.MaxAttempts,
		Window:      cfg.Throttle.Window,
		Prefix:      cfg.Throttle.AttemptsPrefix,
	}
	blockCfg := limiters.BlockConfig{
		Duration: cfg.Throttle.BlockDuration,
		Prefix:   cfg.Throttle.BlockPrefix,
	}
	verificationCfg := stores.VerificationConfig{
		CodeLength: cfg.Verification.CodeLength,
		TTL:        cfg.Verification.TTL,
		Prefix:     cfg.Verification.RedisPrefix,
	}

	switch cfg.Backend {
	case BackendMemory:
		throttle := limiters.NewMemoryThrottle(throttleCfg)
		blocker := limiters.NewMemoryBlocker(blockCfg)
		verifications := stores.NewMemoryVerificationStore(verificationCfg)
		sessions := session.NewMemoryManager(cfg.Session.MemorySweep)
		engine.throttle, engine.blocker, engine.verifications, engine.sessions = throttle, blocker, verifications, sessions
		engine.closers = append(engine.closers, throttle.Close, blocker.Close, verifications.Close, sessions.Close)
	default:
		engine.throttle = limiters.NewAttemptThrottle(b.redis, throttleCfg)
		engine.blocker = limiters.NewBlocker(b.redis, blockCfg)
		engine.verifications = stores.NewVerificationStore(b.redis, verificationCfg)
		engine.sessions = session.NewRedisManager(b.redis, cfg.Session.RedisPrefix)
	}

	// -------- EVENTS --------
	sink := b.sink
	if sink == nil {
		switch cfg.Events.Sink {
		case "none":
			sink = event.NoOpSink{}
		default:
			sink = event.NewLogSink(logger)
		}
	}
	dispatcher := event.NewDispatcher(event.DispatcherConfig{
		Enabled:    cfg.Events.Enabled,
		BufferSize: cfg.Events.BufferSize,
		DropIfFull: cfg.Events.DropIfFull,
	}, sink)
	engine.bus = event.NewBus(dispatcher, logger)

	engine.notifier = b.notifier
	if engine.notifier == nil {
		engine.notifier = NewLogNotifier(logger)
	}

	engine.subscribe()
	engine.flows = flows.New(flows.Deps{
		Repository: repo,
		Publisher:  engine.bus,
		Logger:     logger,
	})

	b.built = true

	return engine, nil
}
