// Command identity-demo walks one account through its whole lifecycle:
// registration, email verification, login, multifactor enrolment, a
// challenged login, refresh rotation, refresh-token replay and logout.
//
// State lives in Redis (-redis-addr, REDIS_ADDR, or an embedded miniredis)
// and accounts in memory unless -postgres-dsn is given.
//
//	go run ./cmd/identity-demo -config identity.yaml -metrics
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"os"
	"sync"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/domainerr"
	"github.com/MrEthical07/goIdentity/metrics/export/prometheus"
	"github.com/MrEthical07/goIdentity/mfa"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// inbox records the codes that would have been emailed or texted.
type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (i *inbox) SendVerificationCode(_ context.Context, email, code string) error {
	i.put(email, code)
	return nil
}

func (i *inbox) SendMultifactorCode(_ context.Context, _ mfa.Kind, contact, code string) error {
	i.put(contact, code)
	return nil
}

func (i *inbox) put(contact, code string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.codes[contact] = code
}

func (i *inbox) take(contact string) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	code := i.codes[contact]
	delete(i.codes, contact)
	return code
}

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file; IDENTITY_* env vars override it")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		postgresDSN = flag.String("postgres-dsn", "", "postgres DSN for the account store; memory when empty")
		email       = flag.String("email", "ada@example.com", "account email")
		passwd      = flag.String("password", "Sup3r-secret!", "account password")
		phone       = flag.String("phone", "+14155550123", "phone used for the SMS method")
		showMetrics = flag.Bool("metrics", false, "print metrics in Prometheus format at the end")
	)
	flag.Parse()

	if err := run(*configPath, *redisAddr, *postgresDSN, *email, *passwd, *phone, *showMetrics); err != nil {
		fmt.Fprintf(os.Stderr, "identity-demo: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, redisAddr, postgresDSN, email, passwd, phone string, showMetrics bool) error {
	ctx := context.Background()

	cfg, err := goIdentity.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := fillDemoSecrets(&cfg); err != nil {
		return err
	}
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true

	logger, err := goIdentity.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}

	addr := redisAddr
	if addr == "" {
		addr = cfg.Redis.Addr
	}
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		addr = mr.Addr()
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		fmt.Printf("using redis at %s\n", addr)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{addr},
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer client.Close()

	notes := &inbox{codes: map[string]string{}}
	builder := goIdentity.New().
		WithConfig(cfg).
		WithRedis(client).
		WithNotifier(notes).
		WithLogger(logger)

	if postgresDSN != "" {
		cfg.Database.DSN = postgresDSN
	}
	if cfg.Database.DSN != "" {
		db, lookups, err := goIdentity.OpenPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		builder = builder.WithPostgres(db, lookups)
		fmt.Println("accounts stored in postgres")
	} else {
		builder = builder.WithMemoryRepository()
	}

	engine, err := builder.Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	device := goIdentity.WithClient(ctx, "203.0.113.7", "identity-demo/1.0", "laptop")

	// -------- REGISTRATION --------
	userID, err := engine.Register(ctx, email, passwd)
	if err != nil {
		return step("register", err)
	}
	fmt.Printf("registered %s as %s\n", email, userID)

	if err := engine.RequestVerification(ctx, userID); err != nil {
		return step("request verification", err)
	}
	if err := engine.VerifyAccount(ctx, userID, notes.take(email)); err != nil {
		return step("verify", err)
	}
	fmt.Println("email verified")

	// -------- MULTIFACTOR --------
	methodID, err := engine.AddMultifactorMethod(ctx, userID, mfa.KindSMS, phone)
	if err != nil {
		return step("add multifactor", err)
	}
	if err := engine.StartMultifactorVerification(ctx, userID, methodID); err != nil {
		return step("start multifactor verification", err)
	}
	if err := engine.CompleteMultifactorVerification(ctx, userID, methodID, notes.take(phone)); err != nil {
		return step("complete multifactor verification", err)
	}
	if err := engine.ActivateMultifactor(ctx, userID, methodID); err != nil {
		return step("activate multifactor", err)
	}
	fmt.Printf("sms method %s active\n", methodID)

	// -------- LOGIN --------
	res, err := engine.Login(device, email, passwd)
	if err != nil {
		return step("login", err)
	}
	fmt.Printf("login outcome: %s\n", res.Outcome)
	if !res.Authenticated() {
		res, err = engine.ConfirmMultifactor(device, userID, notes.take(phone))
		if err != nil {
			return step("confirm multifactor", err)
		}
		fmt.Printf("confirm outcome: %s\n", res.Outcome)
	}

	identity, err := engine.ValidateAccess(device, res.Token.AccessToken, goIdentity.ModeStrict)
	if err != nil {
		return step("validate", err)
	}
	fmt.Printf("access token valid for %s (session %s)\n", identity.Email, identity.SessionID)

	// -------- REFRESH --------
	rotated, err := engine.Refresh(device, res.Token.RefreshToken)
	if err != nil {
		return step("refresh", err)
	}
	fmt.Printf("refreshed into session %s\n", rotated.SessionID)

	if _, err := engine.Refresh(device, res.Token.RefreshToken); err != nil {
		fmt.Printf("replayed refresh token rejected: %s\n", describe(err))
	}
	if _, err := engine.ValidateAccess(device, rotated.AccessToken, goIdentity.ModeStrict); err != nil {
		fmt.Printf("rotated session revoked after replay: %s\n", describe(err))
	}

	// -------- SESSIONS --------
	again, err := engine.Login(device, email, passwd)
	if err == nil && !again.Authenticated() {
		again, err = engine.ConfirmMultifactor(device, userID, notes.take(phone))
	}
	if err != nil {
		return step("second login", err)
	}
	sessions, err := engine.ListSessions(device, userID)
	if err != nil {
		return step("list sessions", err)
	}
	for _, s := range sessions {
		fmt.Printf("session %s device=%q current=%t expires=%s\n", s.SessionID, s.Device.Platform, s.Current, s.ExpiresAt.Format("2006-01-02 15:04"))
	}
	if err := engine.LogoutAll(device, userID); err != nil {
		return step("logout all", err)
	}
	fmt.Println("logged out everywhere")

	if showMetrics {
		fmt.Println("---- metrics ----")
		fmt.Print(prometheus.NewPrometheusExporter(engine).Render())
	}
	return nil
}

// fillDemoSecrets generates throwaway keys for whatever the config left
// empty so the demo runs without setup.
func fillDemoSecrets(cfg *goIdentity.Config) error {
	if len(cfg.JWT.PrivateKey) == 0 && cfg.JWT.SigningMethod == "ed25519" {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return err
		}
		cfg.JWT.PrivateKey, cfg.JWT.PublicKey = priv, pub
	}
	if len(cfg.Fingerprint.Secret) == 0 {
		cfg.Fingerprint.Secret = make([]byte, 32)
		if _, err := rand.Read(cfg.Fingerprint.Secret); err != nil {
			return err
		}
	}
	return nil
}

func step(name string, err error) error {
	return fmt.Errorf("%s: %s", name, describe(err))
}

func describe(err error) string {
	var de *domainerr.Error
	if errors.As(err, &de) {
		return fmt.Sprintf("%s/%s: %s", de.Scope, de.Key, de.Message)
	}
	return err.Error()
}
