package goIdentity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigNeedsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected default config without keys to be rejected")
	}

	cfg = testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config should validate: %v", err)
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Throttle.MaxAttempts != 3 || cfg.Throttle.Window != 5*time.Minute || cfg.Throttle.BlockDuration != 15*time.Minute {
		t.Fatalf("unexpected throttle defaults: %+v", cfg.Throttle)
	}
	if cfg.Verification.CodeLength != 12 || cfg.Verification.TTL != 15*time.Minute {
		t.Fatalf("unexpected verification defaults: %+v", cfg.Verification)
	}
	if cfg.Multifactor.CodeDigits != 6 || cfg.Multifactor.CodeTTL != 5*time.Minute {
		t.Fatalf("unexpected multifactor defaults: %+v", cfg.Multifactor)
	}
	if cfg.ValidationMode != ModeStrict || cfg.Backend != BackendRedis {
		t.Fatalf("unexpected mode/backend defaults: %s %s", cfg.ValidationMode, cfg.Backend)
	}
}

func TestConfigValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }, "AccessTTL"},
		{"signing method", func(c *Config) { c.JWT.SigningMethod = "rs256" }, "signing method"},
		{"short hs256 secret", func(c *Config) { c.JWT.PrivateKey = []byte("short") }, "hs256"},
		{"ed25519 without keys", func(c *Config) { c.JWT.SigningMethod = "ed25519" }, "ed25519"},
		{"leeway", func(c *Config) { c.JWT.Leeway = time.Hour }, "Leeway"},
		{"session shorter than access", func(c *Config) { c.Session.TTL = time.Minute }, "Session TTL"},
		{"weak argon2 memory", func(c *Config) { c.Password.Memory = 1024 }, "Memory"},
		{"zero attempts", func(c *Config) { c.Throttle.MaxAttempts = 0 }, "MaxAttempts"},
		{"zero block", func(c *Config) { c.Throttle.BlockDuration = 0 }, "BlockDuration"},
		{"verification length", func(c *Config) { c.Verification.CodeLength = 2 }, "CodeLength"},
		{"mfa digits", func(c *Config) { c.Multifactor.CodeDigits = 20 }, "CodeDigits"},
		{"fingerprint secret", func(c *Config) { c.Fingerprint.Secret = []byte("tiny") }, "Fingerprint"},
		{"event sink", func(c *Config) { c.Events.Sink = "kafka" }, "Sink"},
		{"event buffer", func(c *Config) { c.Events.Enabled = true; c.Events.BufferSize = 0 }, "BufferSize"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "Logging Level"},
		{"backend", func(c *Config) { c.Backend = "etcd" }, "Backend"},
		{"validation mode", func(c *Config) { c.ValidationMode = ModeInherit }, "ValidationMode"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestValidationModeText(t *testing.T) {
	var m ValidationMode
	if err := m.UnmarshalText([]byte("JWT_ONLY")); err != nil || m != ModeJWTOnly {
		t.Fatalf("expected jwt_only, got %s (%v)", m, err)
	}
	if err := m.UnmarshalText([]byte("strict")); err != nil || m != ModeStrict {
		t.Fatalf("expected strict, got %s (%v)", m, err)
	}
	if err := m.UnmarshalText([]byte("paranoid")); err == nil {
		t.Fatal("expected unknown mode to fail")
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Throttle.MaxAttempts != DefaultConfig().Throttle.MaxAttempts {
		t.Fatalf("expected defaults, got %+v", cfg.Throttle)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, "jwt.key")
	if err := os.WriteFile(keyPath, []byte("0123456789abcdef0123456789abcdef"), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}

	yamlBody := `
backend: memory
validation_mode: jwt_only
jwt:
  signing_method: HS256
  private_key_file: ` + keyPath + `
  access_ttl: 10m
  issuer: accounts.example.com
session:
  ttl: 48h
throttle:
  max_attempts: 5
  window: 10m
  block_duration: 30m
multifactor:
  code_digits: 8
events:
  enabled: true
  sink: none
logging:
  level: debug
`
	path := filepath.Join(dir, "identity.yaml")
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("IDENTITY_FINGERPRINT_SECRET", "fingerprint-secret-0123456789")
	t.Setenv("IDENTITY_THROTTLE_MAX_ATTEMPTS", "7")
	t.Setenv("IDENTITY_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Backend != BackendMemory || cfg.ValidationMode != ModeJWTOnly {
		t.Fatalf("unexpected backend/mode: %s %s", cfg.Backend, cfg.ValidationMode)
	}
	if cfg.JWT.SigningMethod != "hs256" || string(cfg.JWT.PrivateKey) != "0123456789abcdef0123456789abcdef" {
		t.Fatalf("unexpected jwt config: %s", cfg.JWT.SigningMethod)
	}
	if cfg.JWT.AccessTTL != 10*time.Minute || cfg.Session.TTL != 48*time.Hour {
		t.Fatalf("unexpected ttls: %s %s", cfg.JWT.AccessTTL, cfg.Session.TTL)
	}
	if cfg.Throttle.MaxAttempts != 7 {
		t.Fatalf("expected env to override attempts, got %d", cfg.Throttle.MaxAttempts)
	}
	if cfg.Throttle.Window != 10*time.Minute || cfg.Throttle.BlockDuration != 30*time.Minute {
		t.Fatalf("unexpected throttle: %+v", cfg.Throttle)
	}
	if cfg.Multifactor.CodeDigits != 8 || !cfg.Events.Enabled || cfg.Events.Sink != "none" {
		t.Fatalf("unexpected file values: %+v %+v", cfg.Multifactor, cfg.Events)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected env log level, got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("loaded config should validate: %v", err)
	}
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	if err := os.WriteFile(path, []byte("jwt: [unterminated"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}

	t.Setenv("IDENTITY_SESSION_TTL", "forever")
	if _, err := LoadConfig(""); err == nil || !strings.Contains(err.Error(), "IDENTITY_SESSION_TTL") {
		t.Fatalf("expected env duration error, got %v", err)
	}
}

func TestBuilderValidation(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected redis backend without client to fail")
	}

	cfg := testConfig()
	_, client := newTestRedis(t)
	if _, err := New().WithConfig(cfg).WithRedis(client).Build(); err == nil {
		t.Fatal("expected redis backend without repository to fail")
	}

	cfg.Backend = BackendMemory
	b := New().WithConfig(cfg)
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected builder reuse to fail")
	}
}

func TestBuilderCopiesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Backend = BackendMemory
	b := New().WithConfig(cfg)
	cfg.JWT.PrivateKey[0] = 'X'

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()
	if engine.config.JWT.PrivateKey[0] != '0' {
		t.Fatal("expected builder to copy key material")
	}
}
