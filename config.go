package goIdentity

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete Engine configuration.
//
// Config values are copied into the Engine by Build and are not read again
// afterwards.
type Config struct {
	JWT            JWTConfig
	Session        SessionConfig
	Password       PasswordConfig
	Throttle       ThrottleConfig
	Verification   VerificationConfig
	Multifactor    MultifactorConfig
	Fingerprint    FingerprintConfig
	Events         EventsConfig
	Metrics        MetricsConfig
	Logging        LoggingConfig
	Redis          RedisConfig
	Database       DatabaseConfig
	Backend        Backend
	ValidationMode ValidationMode
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls access-token signing.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "ed25519" (default) or "hs256"
	// PrivateKey is the Ed25519 private key (raw or PEM) or the HS256 secret.
	PrivateKey []byte
	PublicKey  []byte
	Issuer     string
	Audience   string
	Leeway     time.Duration
	KeyID      string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls session lifetime and storage. TTL is also the
// refresh-token lifetime.
type SessionConfig struct {
	TTL         time.Duration
	RedisPrefix string
	// MemorySweep is the idle lifetime of per-user entries in the memory
	// backend.
	MemorySweep time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds Argon2id parameters. With UpgradeOnLogin, hashes
// made under weaker parameters are replaced after a successful login.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
	Pepper           []byte
	UpgradeOnLogin   bool
}

/*
====================================
THROTTLE / BLOCK CONFIG
====================================
*/

// ThrottleConfig holds the failed-login window and the block it triggers.
type ThrottleConfig struct {
	MaxAttempts    int
	Window         time.Duration
	BlockDuration  time.Duration
	AttemptsPrefix string
	BlockPrefix    string
}

// VerificationConfig controls email verification codes.
type VerificationConfig struct {
	CodeLength  int
	TTL         time.Duration
	RedisPrefix string
}

// MultifactorConfig controls multifactor codes.
type MultifactorConfig struct {
	CodeTTL    time.Duration
	CodeDigits int
}

// FingerprintConfig holds the secret the device context is sealed with.
type FingerprintConfig struct {
	Secret []byte
}

// EventsConfig controls the asynchronous event sink. The synchronous
// handlers always run.
type EventsConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// Sink is "log" (default) or "none".
	Sink string
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// LoggingConfig controls NewLogger.
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// RedisConfig is used by callers that let LoadConfig describe the Redis
// connection. The Engine itself receives a client through the Builder.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DatabaseConfig describes the Postgres account store.
type DatabaseConfig struct {
	DSN            string
	MaxConnections int
}

// Backend selects where throttles, blocks, verification codes and
// sessions live.
type Backend string

const (
	// BackendRedis keeps state in Redis and is required for more than one
	// process.
	BackendRedis Backend = "redis"
	// BackendMemory keeps state in process memory.
	BackendMemory Backend = "memory"
)

// ValidationMode selects how ValidateAccess checks an access token.
type ValidationMode int

const (
	// ModeInherit uses Config.ValidationMode.
	ModeInherit ValidationMode = -1
	// ModeJWTOnly verifies the signature and claims only.
	ModeJWTOnly ValidationMode = iota
	// ModeStrict also requires the session to still be open.
	ModeStrict
)

func (m ValidationMode) String() string {
	switch m {
	case ModeInherit:
		return "inherit"
	case ModeJWTOnly:
		return "jwt_only"
	case ModeStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// UnmarshalText parses "jwt_only" or "strict".
func (m *ValidationMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "jwt_only", "jwt-only", "jwtonly":
		*m = ModeJWTOnly
	case "strict":
		*m = ModeStrict
	case "inherit", "":
		*m = ModeInherit
	default:
		return fmt.Errorf("unknown validation mode %q", text)
	}
	return nil
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns 15 minute access tokens, 7 day sessions, 3 failed
// logins per 5 minutes before a 15 minute block, 12 character verification
// codes valid for 15 minutes and 6 digit multifactor codes valid for 5.
//
// Keys and secrets are left empty and must be supplied.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "ed25519",
			Issuer:        "goIdentity",
			Leeway:        30 * time.Second,
		},
		Session: SessionConfig{
			TTL:         7 * 24 * time.Hour,
			RedisPrefix: "ius",
			MemorySweep: 7 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:           65536,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MaxPasswordBytes: 1024,
			UpgradeOnLogin:   true,
		},
		Throttle: ThrottleConfig{
			MaxAttempts:    3,
			Window:         5 * time.Minute,
			BlockDuration:  15 * time.Minute,
			AttemptsPrefix: "ila",
			BlockPrefix:    "ilb",
		},
		Verification: VerificationConfig{
			CodeLength:  12,
			TTL:         15 * time.Minute,
			RedisPrefix: "iuv",
		},
		Multifactor: MultifactorConfig{
			CodeTTL:    5 * time.Minute,
			CodeDigits: 6,
		},
		Events: EventsConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
			Sink:       "log",
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Database: DatabaseConfig{
			MaxConnections: 10,
		},
		Backend:        BackendRedis,
		ValidationMode: ModeStrict,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	out.Password.Pepper = cloneBytes(cfg.Password.Pepper)
	out.Fingerprint.Secret = cloneBytes(cfg.Fingerprint.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	switch c.JWT.SigningMethod {
	case "ed25519":
		if len(c.JWT.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.JWT.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	case "hs256":
		if len(c.JWT.PrivateKey) < 32 {
			return errors.New("hs256 requires a PrivateKey of at least 32 bytes")
		}
	default:
		return errors.New("unsupported JWT signing method")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Session
	if c.Session.TTL <= 0 {
		return errors.New("Session TTL must be > 0")
	}
	if c.Session.TTL < c.JWT.AccessTTL {
		return errors.New("Session TTL must be >= JWT AccessTTL")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Throttle
	if c.Throttle.MaxAttempts <= 0 {
		return errors.New("Throttle MaxAttempts must be > 0")
	}
	if c.Throttle.Window <= 0 {
		return errors.New("Throttle Window must be > 0")
	}
	if c.Throttle.BlockDuration <= 0 {
		return errors.New("Throttle BlockDuration must be > 0")
	}

	// Verification and multifactor codes
	if c.Verification.CodeLength < 6 || c.Verification.CodeLength > 64 {
		return errors.New("Verification CodeLength must be between 6 and 64")
	}
	if c.Verification.TTL <= 0 {
		return errors.New("Verification TTL must be > 0")
	}
	if c.Multifactor.CodeDigits < 4 || c.Multifactor.CodeDigits > 10 {
		return errors.New("Multifactor CodeDigits must be between 4 and 10")
	}
	if c.Multifactor.CodeTTL <= 0 {
		return errors.New("Multifactor CodeTTL must be > 0")
	}

	// Fingerprint
	if len(c.Fingerprint.Secret) < 16 {
		return errors.New("Fingerprint Secret must be at least 16 bytes")
	}

	// Events
	if c.Events.Enabled && c.Events.BufferSize <= 0 {
		return errors.New("Events BufferSize must be > 0 when events are enabled")
	}
	switch c.Events.Sink {
	case "", "log", "none":
	default:
		return errors.New("Events Sink must be 'log' or 'none'")
	}

	// Logging
	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}

	switch c.Backend {
	case BackendRedis, BackendMemory:
	default:
		return errors.New("Backend must be 'redis' or 'memory'")
	}

	if c.ValidationMode != ModeJWTOnly && c.ValidationMode != ModeStrict {
		return errors.New("invalid ValidationMode")
	}

	return nil
}

/*
====================================
LOADING
====================================
*/

// configFile mirrors the YAML schema. Secrets are not read from the file;
// they come from the environment or from key files.
type configFile struct {
	Backend        string `yaml:"backend"`
	ValidationMode string `yaml:"validation_mode"`
	JWT            struct {
		AccessTTL      time.Duration `yaml:"access_ttl"`
		SigningMethod  string        `yaml:"signing_method"`
		PrivateKeyFile string        `yaml:"private_key_file"`
		PublicKeyFile  string        `yaml:"public_key_file"`
		Issuer         string        `yaml:"issuer"`
		Audience       string        `yaml:"audience"`
		Leeway         time.Duration `yaml:"leeway"`
		KeyID          string        `yaml:"key_id"`
	} `yaml:"jwt"`
	Session struct {
		TTL         time.Duration `yaml:"ttl"`
		RedisPrefix string        `yaml:"redis_prefix"`
	} `yaml:"session"`
	Password struct {
		Memory         uint32 `yaml:"memory_kb"`
		Time           uint32 `yaml:"time"`
		Parallelism    uint8  `yaml:"parallelism"`
		UpgradeOnLogin *bool  `yaml:"upgrade_on_login"`
	} `yaml:"password"`
	Throttle struct {
		MaxAttempts   int           `yaml:"max_attempts"`
		Window        time.Duration `yaml:"window"`
		BlockDuration time.Duration `yaml:"block_duration"`
	} `yaml:"throttle"`
	Verification struct {
		CodeLength int           `yaml:"code_length"`
		TTL        time.Duration `yaml:"ttl"`
	} `yaml:"verification"`
	Multifactor struct {
		CodeTTL    time.Duration `yaml:"code_ttl"`
		CodeDigits int           `yaml:"code_digits"`
	} `yaml:"multifactor"`
	Events struct {
		Enabled    *bool  `yaml:"enabled"`
		BufferSize int    `yaml:"buffer_size"`
		DropIfFull *bool  `yaml:"drop_if_full"`
		Sink       string `yaml:"sink"`
	} `yaml:"events"`
	Metrics struct {
		Enabled           *bool `yaml:"enabled"`
		LatencyHistograms *bool `yaml:"latency_histograms"`
	} `yaml:"metrics"`
	Logging struct {
		Level  string `yaml:"level"`
		Pretty *bool  `yaml:"pretty"`
	} `yaml:"logging"`
	Redis struct {
		Addr string `yaml:"addr"`
		DB   int    `yaml:"db"`
	} `yaml:"redis"`
	Database struct {
		MaxConnections int `yaml:"max_connections"`
	} `yaml:"database"`
}

// LoadConfig resolves configuration in priority order: defaults, then the
// YAML file at path, then IDENTITY_* environment variables. A missing file
// is not an error, so deployments can run on environment alone.
//
// The result is not validated; Build does that.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			var f configFile
			if err := yaml.Unmarshal(raw, &f); err != nil {
				return Config{}, fmt.Errorf("parse config file: %w", err)
			}
			if err := f.apply(&cfg); err != nil {
				return Config{}, err
			}
		case !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (f configFile) apply(cfg *Config) error {
	if f.Backend != "" {
		cfg.Backend = Backend(strings.ToLower(f.Backend))
	}
	if f.ValidationMode != "" {
		if err := cfg.ValidationMode.UnmarshalText([]byte(f.ValidationMode)); err != nil {
			return err
		}
	}

	if f.JWT.AccessTTL > 0 {
		cfg.JWT.AccessTTL = f.JWT.AccessTTL
	}
	if f.JWT.SigningMethod != "" {
		cfg.JWT.SigningMethod = strings.ToLower(f.JWT.SigningMethod)
	}
	if f.JWT.PrivateKeyFile != "" {
		key, err := os.ReadFile(f.JWT.PrivateKeyFile)
		if err != nil {
			return fmt.Errorf("read jwt private key: %w", err)
		}
		cfg.JWT.PrivateKey = key
	}
	if f.JWT.PublicKeyFile != "" {
		key, err := os.ReadFile(f.JWT.PublicKeyFile)
		if err != nil {
			return fmt.Errorf("read jwt public key: %w", err)
		}
		cfg.JWT.PublicKey = key
	}
	if f.JWT.Issuer != "" {
		cfg.JWT.Issuer = f.JWT.Issuer
	}
	if f.JWT.Audience != "" {
		cfg.JWT.Audience = f.JWT.Audience
	}
	if f.JWT.Leeway > 0 {
		cfg.JWT.Leeway = f.JWT.Leeway
	}
	if f.JWT.KeyID != "" {
		cfg.JWT.KeyID = f.JWT.KeyID
	}

	if f.Session.TTL > 0 {
		cfg.Session.TTL = f.Session.TTL
	}
	if f.Session.RedisPrefix != "" {
		cfg.Session.RedisPrefix = f.Session.RedisPrefix
	}

	if f.Password.Memory > 0 {
		cfg.Password.Memory = f.Password.Memory
	}
	if f.Password.Time > 0 {
		cfg.Password.Time = f.Password.Time
	}
	if f.Password.Parallelism > 0 {
		cfg.Password.Parallelism = f.Password.Parallelism
	}
	if f.Password.UpgradeOnLogin != nil {
		cfg.Password.UpgradeOnLogin = *f.Password.UpgradeOnLogin
	}

	if f.Throttle.MaxAttempts > 0 {
		cfg.Throttle.MaxAttempts = f.Throttle.MaxAttempts
	}
	if f.Throttle.Window > 0 {
		cfg.Throttle.Window = f.Throttle.Window
	}
	if f.Throttle.BlockDuration > 0 {
		cfg.Throttle.BlockDuration = f.Throttle.BlockDuration
	}

	if f.Verification.CodeLength > 0 {
		cfg.Verification.CodeLength = f.Verification.CodeLength
	}
	if f.Verification.TTL > 0 {
		cfg.Verification.TTL = f.Verification.TTL
	}
	if f.Multifactor.CodeTTL > 0 {
		cfg.Multifactor.CodeTTL = f.Multifactor.CodeTTL
	}
	if f.Multifactor.CodeDigits > 0 {
		cfg.Multifactor.CodeDigits = f.Multifactor.CodeDigits
	}

	if f.Events.Enabled != nil {
		cfg.Events.Enabled = *f.Events.Enabled
	}
	if f.Events.BufferSize > 0 {
		cfg.Events.BufferSize = f.Events.BufferSize
	}
	if f.Events.DropIfFull != nil {
		cfg.Events.DropIfFull = *f.Events.DropIfFull
	}
	if f.Events.Sink != "" {
		cfg.Events.Sink = strings.ToLower(f.Events.Sink)
	}

	if f.Metrics.Enabled != nil {
		cfg.Metrics.Enabled = *f.Metrics.Enabled
	}
	if f.Metrics.LatencyHistograms != nil {
		cfg.Metrics.EnableLatencyHistograms = *f.Metrics.LatencyHistograms
	}

	if f.Logging.Level != "" {
		cfg.Logging.Level = f.Logging.Level
	}
	if f.Logging.Pretty != nil {
		cfg.Logging.Pretty = *f.Logging.Pretty
	}

	if f.Redis.Addr != "" {
		cfg.Redis.Addr = f.Redis.Addr
	}
	if f.Redis.DB > 0 {
		cfg.Redis.DB = f.Redis.DB
	}
	if f.Database.MaxConnections > 0 {
		cfg.Database.MaxConnections = f.Database.MaxConnections
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Backend = Backend(strings.ToLower(envOrDefault("IDENTITY_BACKEND", string(cfg.Backend))))
	if v := os.Getenv("IDENTITY_VALIDATION_MODE"); v != "" {
		if err := cfg.ValidationMode.UnmarshalText([]byte(v)); err != nil {
			return err
		}
	}

	cfg.JWT.SigningMethod = strings.ToLower(envOrDefault("IDENTITY_JWT_SIGNING_METHOD", cfg.JWT.SigningMethod))
	cfg.JWT.Issuer = envOrDefault("IDENTITY_JWT_ISSUER", cfg.JWT.Issuer)
	cfg.JWT.Audience = envOrDefault("IDENTITY_JWT_AUDIENCE", cfg.JWT.Audience)
	cfg.JWT.KeyID = envOrDefault("IDENTITY_JWT_KEY_ID", cfg.JWT.KeyID)
	if v := os.Getenv("IDENTITY_JWT_SECRET"); v != "" {
		cfg.JWT.PrivateKey = []byte(v)
	}
	if v := os.Getenv("IDENTITY_JWT_PRIVATE_KEY_PEM"); v != "" {
		cfg.JWT.PrivateKey = []byte(v)
	}
	if v := os.Getenv("IDENTITY_JWT_PUBLIC_KEY_PEM"); v != "" {
		cfg.JWT.PublicKey = []byte(v)
	}

	if v := os.Getenv("IDENTITY_FINGERPRINT_SECRET"); v != "" {
		cfg.Fingerprint.Secret = []byte(v)
	}
	if v := os.Getenv("IDENTITY_PASSWORD_PEPPER"); v != "" {
		cfg.Password.Pepper = []byte(v)
	}

	var err error
	if cfg.JWT.AccessTTL, err = envDuration("IDENTITY_JWT_ACCESS_TTL", cfg.JWT.AccessTTL); err != nil {
		return err
	}
	if cfg.Session.TTL, err = envDuration("IDENTITY_SESSION_TTL", cfg.Session.TTL); err != nil {
		return err
	}
	if cfg.Throttle.MaxAttempts, err = envInt("IDENTITY_THROTTLE_MAX_ATTEMPTS", cfg.Throttle.MaxAttempts); err != nil {
		return err
	}
	if cfg.Throttle.BlockDuration, err = envDuration("IDENTITY_THROTTLE_BLOCK_DURATION", cfg.Throttle.BlockDuration); err != nil {
		return err
	}

	cfg.Password.UpgradeOnLogin = envBool("IDENTITY_PASSWORD_UPGRADE_ON_LOGIN", cfg.Password.UpgradeOnLogin)
	cfg.Metrics.Enabled = envBool("IDENTITY_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Events.Enabled = envBool("IDENTITY_EVENTS_ENABLED", cfg.Events.Enabled)
	cfg.Logging.Level = envOrDefault("IDENTITY_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Pretty = envBool("IDENTITY_LOG_PRETTY", cfg.Logging.Pretty)

	cfg.Redis.Addr = envOrDefault("IDENTITY_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envOrDefault("IDENTITY_REDIS_PASSWORD", cfg.Redis.Password)
	if cfg.Redis.DB, err = envInt("IDENTITY_REDIS_DB", cfg.Redis.DB); err != nil {
		return err
	}
	cfg.Database.DSN = envOrDefault("IDENTITY_DATABASE_DSN", cfg.Database.DSN)
	if cfg.Database.MaxConnections, err = envInt("IDENTITY_DATABASE_MAX_CONNECTIONS", cfg.Database.MaxConnections); err != nil {
		return err
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
