package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens and pings a Postgres-backed gorm pool.
func Connect(ctx context.Context, dsn string, maxConns int, logger zerolog.Logger) (*gorm.DB, error) {
	log := logger.With().Str("module", "postgres").Str("operation", "connect").Logger()
	log.Info().Str("outcome", "start").Msg("postgres connect started")

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
	}
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	log.Info().Str("outcome", "success").Msg("postgres connect completed")
	return db, nil
}

// Migrate creates or updates every table the repository uses. Account
// status and multifactor kind/status columns reference the enum tables.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&userStatusModel{}, &mfaMethodModel{}, &mfaStatusModel{}); err != nil {
		return fmt.Errorf("migrate enum tables: %w", err)
	}
	if err := db.WithContext(ctx).AutoMigrate(&userModel{}, &multifactorModel{}); err != nil {
		return fmt.Errorf("migrate accounts: %w", err)
	}
	return nil
}
