package goIdentity

import (
	"context"
	"errors"

	"github.com/MrEthical07/goIdentity/repository/postgres"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// OpenPostgres connects to cfg.DSN, migrates the account tables and syncs
// the enum lookups. Hand both results to Builder.WithPostgres.
func OpenPostgres(ctx context.Context, cfg DatabaseConfig, logger zerolog.Logger) (*gorm.DB, postgres.Lookups, error) {
	if cfg.DSN == "" {
		return nil, postgres.Lookups{}, errors.New("database dsn required")
	}
	db, err := postgres.Connect(ctx, cfg.DSN, cfg.MaxConnections, logger)
	if err != nil {
		return nil, postgres.Lookups{}, err
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		closeGorm(db)
		return nil, postgres.Lookups{}, err
	}
	lookups, err := postgres.SyncEnums(ctx, db)
	if err != nil {
		closeGorm(db)
		return nil, postgres.Lookups{}, err
	}
	return db, lookups, nil
}

func closeGorm(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
