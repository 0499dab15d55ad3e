package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/goIdentity/mfa"
	"github.com/MrEthical07/goIdentity/user"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

func fixedLookups() Lookups {
	rows := func(table string, vals []string) Lookup {
		out := make([]enumModel, len(vals))
		for i, v := range vals {
			out[i] = enumModel{ID: uint(i + 1), Value: v}
		}
		return newLookup(table, out)
	}
	return Lookups{
		UserStatuses: rows(userStatusTable, values(user.SupportedStatuses)),
		MFAMethods:   rows(mfaMethodTable, values(mfa.SupportedKinds)),
		MFAStatuses:  rows(mfaStatusTable, values(mfa.SupportedStatuses)),
	}
}

func sampleParams() user.Params {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return user.Params{
		ID:           uuid.NewString(),
		Email:        "ada@example.com",
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$salt$hash",
		Status:       user.StatusVerified,
		Information:  user.Information{FirstName: "Ada", LastName: "Lovelace", City: "London", Country: "UK"},
		CreatedAt:    created,
		Multifactor: []mfa.Params{{
			ID:            uuid.NewString(),
			Kind:          mfa.KindSMS,
			Contact:       "+441234567890",
			Active:        true,
			Verified:      true,
			Status:        mfa.StatusInitialized,
			Code:          "123456",
			CodeExpiresAt: created.Add(5 * time.Minute),
		}},
	}
}

func TestLookupRoundTrip(t *testing.T) {
	l := fixedLookups().UserStatuses
	if l.Len() != len(user.SupportedStatuses) {
		t.Fatalf("expected %d statuses, got %d", len(user.SupportedStatuses), l.Len())
	}
	for _, s := range user.SupportedStatuses {
		id, err := l.ID(string(s))
		if err != nil {
			t.Fatalf("id of %s: %v", s, err)
		}
		v, err := l.Value(id)
		if err != nil || v != string(s) {
			t.Fatalf("value of %d: %q err=%v", id, v, err)
		}
	}
	if _, err := l.ID("archived"); !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("expected ErrUnknownEnum, got %v", err)
	}
	if _, err := l.Value(99); !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("expected ErrUnknownEnum, got %v", err)
	}

	snapshot := l.Values()
	snapshot["archived"] = 42
	if _, err := l.ID("archived"); err == nil {
		t.Fatal("lookup must not change through Values")
	}
}

func TestMappersRoundTrip(t *testing.T) {
	lookups := fixedLookups()
	p := sampleParams()

	rec, err := toUserModel(p, lookups, time.Now())
	if err != nil {
		t.Fatalf("to user model: %v", err)
	}
	m, err := toMultifactorModel(rec.UserID, 2, p.Multifactor[0], lookups)
	if err != nil {
		t.Fatalf("to multifactor model: %v", err)
	}
	if m.LastUsedAt != nil {
		t.Fatal("expected zero last-used time stored as NULL")
	}
	if m.Position != 2 {
		t.Fatalf("expected position 2, got %d", m.Position)
	}

	back, err := toParams(rec, []multifactorModel{m}, lookups)
	if err != nil {
		t.Fatalf("to params: %v", err)
	}
	if back.ID != p.ID || back.Email != p.Email || back.Status != p.Status || back.Information != p.Information {
		t.Fatalf("account fields differ: %+v", back)
	}
	if len(back.Multifactor) != 1 || back.Multifactor[0] != p.Multifactor[0] {
		t.Fatalf("multifactor differs: %+v", back.Multifactor)
	}
}

func TestMappersRejectBadInput(t *testing.T) {
	lookups := fixedLookups()

	p := sampleParams()
	p.ID = "not-a-uuid"
	if _, err := toUserModel(p, lookups, time.Now()); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}

	p = sampleParams()
	if _, err := toUserModel(p, Lookups{}, time.Now()); !errors.Is(err, ErrUnknownEnum) {
		t.Fatalf("expected ErrUnknownEnum for unsynced lookups, got %v", err)
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("IDENTITY_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("IDENTITY_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	db, err := Connect(ctx, dsn, 4, zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestSyncEnumsIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	first, err := SyncEnums(ctx, db)
	if err != nil {
		t.Fatalf("first sync: %v", err)
	}
	second, err := SyncEnums(ctx, db)
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	for _, s := range user.SupportedStatuses {
		a, _ := first.UserStatuses.ID(string(s))
		b, _ := second.UserStatuses.ID(string(s))
		if a == 0 || a != b {
			t.Fatalf("status %s id changed between syncs: %d vs %d", s, a, b)
		}
	}
}

func TestUserRepositoryRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	lookups, err := SyncEnums(ctx, db)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	repo := NewUserRepository(db, lookups, zerolog.Nop())

	p := sampleParams()
	p.Email = "ada-" + strings.ReplaceAll(uuid.NewString(), "-", "") + "@example.com"
	account, err := user.Build(p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := repo.Save(ctx, account); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.FindByEmail(ctx, strings.ToUpper(p.Email))
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if loaded.ID() != p.ID || len(loaded.MultifactorMethods()) != 1 {
		t.Fatalf("unexpected account %+v", loaded.Params())
	}

	if err := repo.UpdateStatus(ctx, p.ID, user.StatusInactive); err != nil {
		t.Fatalf("update status: %v", err)
	}
	loaded, err = repo.FindByID(ctx, p.ID)
	if err != nil || loaded.Status() != user.StatusInactive {
		t.Fatalf("expected inactive account, got %v err=%v", loaded, err)
	}

	dup := sampleParams()
	dup.Email = p.Email
	other, _ := user.Build(dup)
	if err := repo.Save(ctx, other); !errors.Is(err, user.ErrEmailAlreadyRegistered) {
		t.Fatalf("expected ErrEmailAlreadyRegistered, got %v", err)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryKeepsMultifactorOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	lookups, err := SyncEnums(ctx, db)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	repo := NewUserRepository(db, lookups, zerolog.Nop())

	p := sampleParams()
	p.Email = "order-" + strings.ReplaceAll(uuid.NewString(), "-", "") + "@example.com"
	first := p.Multifactor[0]
	// IDs chosen so that sorting by id would reorder them.
	ids := []string{
		"c" + uuid.NewString()[1:],
		"1" + uuid.NewString()[1:],
		"8" + uuid.NewString()[1:],
	}
	p.Multifactor = []mfa.Params{
		{ID: ids[0], Kind: first.Kind, Contact: first.Contact, Active: true, Verified: true, Status: mfa.StatusNotStarted},
		{ID: ids[1], Kind: mfa.KindEmail, Contact: "backup@example.com", Status: mfa.StatusNotStarted},
		{ID: ids[2], Kind: mfa.KindSMS, Contact: "+441234567891", Status: mfa.StatusNotStarted},
	}
	account, err := user.Build(p)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := repo.Save(ctx, account); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	methods := loaded.MultifactorMethods()
	if len(methods) != len(ids) {
		t.Fatalf("expected %d methods, got %d", len(ids), len(methods))
	}
	for i, m := range methods {
		if m.ID() != ids[i] {
			t.Fatalf("method %d: expected %s, got %s", i, ids[i], m.ID())
		}
	}

	// Saving again must not reorder.
	if err := repo.Save(ctx, loaded); err != nil {
		t.Fatalf("second save: %v", err)
	}
	reloaded, err := repo.FindByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	for i, m := range reloaded.MultifactorMethods() {
		if m.ID() != ids[i] {
			t.Fatalf("after resave, method %d: expected %s, got %s", i, ids[i], m.ID())
		}
	}
}

func TestMigrateDeclaresEnumForeignKeys(t *testing.T) {
	db := openTestDB(t)
	m := db.Migrator()
	for _, c := range []struct {
		model any
		name  string
	}{
		{&userModel{}, "Status"},
		{&multifactorModel{}, "User"},
		{&multifactorModel{}, "Method"},
		{&multifactorModel{}, "Status"},
	} {
		if !m.HasConstraint(c.model, c.name) {
			t.Fatalf("expected %T to declare constraint %s", c.model, c.name)
		}
	}
}
