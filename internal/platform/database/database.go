// Package database opens the gorm connection used by the quote store.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrUnsupportedDriver is returned for drivers without a gorm dialector.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Config describes the connection.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnectRetries  int
	RetryDelay      time.Duration
	Debug           bool
}

// Open connects with retries and applies the pool settings. SQLite is
// limited to one connection because it allows a single writer.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*gorm.DB, error) {
	if log == nil {
		log = slog.Default()
	}

	dialector, err := dialectorFor(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}

	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	}

	var db *gorm.DB

	for attempt := 0; ; attempt++ {
		db, err = gorm.Open(dialector, gormCfg)
		if err == nil {
			err = ping(ctx, db)
		}

		if err == nil || attempt >= cfg.ConnectRetries {
			break
		}

		log.WarnContext(ctx, "database not reachable, retrying",
			slog.String("driver", cfg.Driver),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connecting to %s: %w", cfg.Driver, ctx.Err())
		case <-time.After(cfg.RetryDelay):
		}
	}

	if err != nil {
		return nil, fmt.Errorf("connecting to %s after %d attempts: %w", cfg.Driver, cfg.ConnectRetries+1, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql handle: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	log.InfoContext(ctx, "database connected", slog.String("driver", cfg.Driver))

	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}
