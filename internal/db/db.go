// Package db opens the gorm connection, migrates the schema and seeds
// bootstrap data.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/scanpos/internal/config"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const connectAttempts = 5

// Open connects with the configured driver. PostgreSQL connections are
// retried with exponential backoff so the server can start alongside the
// database container.
func Open(ctx context.Context, cfg config.DatabaseConfig, dev bool, log zerolog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres:
		dialector = postgres.Open(cfg.DSN())
		log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("dbname", cfg.DBName).
			Str("user", cfg.User).Msg("connecting to postgres")
	case DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
		log.Info().Str("path", cfg.SQLitePath).Msg("opening sqlite database")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormCfg := &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if dev {
		gormCfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	var conn *gorm.DB
	attempt := 0
	op := func() error {
		attempt++
		var err error
		conn, err = gorm.Open(dialector, gormCfg)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempt).Msg("database connection failed")
			return err
		}
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(backoff.WithInitialInterval(500*time.Millisecond)), connectAttempts-1),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return conn, nil
}
