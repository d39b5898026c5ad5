// Package database provides the fetch ledger store and its connections.
package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	// DriverSQLite is the default ledger driver.
	DriverSQLite = "sqlite3"
	// DriverPostgres is selected for postgres:// DSNs.
	DriverPostgres = "postgres"
	// DefaultDSN is the SQLite ledger file used when none is configured.
	DefaultDSN = "data/runs.db"

	// DefaultMaxOpenConns is the Postgres pool size.
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the Postgres idle pool size.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the maximum Postgres connection lifetime.
	DefaultConnMaxLifetime = 5 * time.Minute
	// DefaultPingTimeout bounds the initial connection check.
	DefaultPingTimeout = 5 * time.Second

	sqliteBusyTimeoutMillis = 5000
)

// ErrUnsupportedDriver is returned for a ledger driver other than sqlite3 or postgres.
var ErrUnsupportedDriver = errors.New("unsupported ledger driver")

// Config selects the ledger backend.
type Config struct {
	// Driver is sqlite3 or postgres. Empty means inferred from DSN.
	Driver string `mapstructure:"driver" yaml:"driver"`
	// DSN is a SQLite file path or a postgres:// URL.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

// WithDefaults returns a copy of the config with an inferred driver and default DSN.
func (c Config) WithDefaults() Config {
	out := c
	if out.DSN == "" {
		out.DSN = DefaultDSN
	}
	if out.Driver == "" {
		if strings.HasPrefix(out.DSN, "postgres://") || strings.HasPrefix(out.DSN, "postgresql://") {
			out.Driver = DriverPostgres
		} else {
			out.Driver = DriverSQLite
		}
	}
	return out
}

// Open connects to the configured ledger store and verifies the connection.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	cfg = cfg.WithDefaults()

	switch cfg.Driver {
	case DriverSQLite:
		return openSQLite(ctx, cfg.DSN)
	case DriverPostgres:
		return openPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

func openSQLite(ctx context.Context, dsn string) (*sqlx.DB, error) {
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create ledger directory: %w", err)
			}
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn = fmt.Sprintf("%s%s_busy_timeout=%d&_journal_mode=WAL", dsn, sep, sqliteBusyTimeoutMillis)

	db, err := connect(ctx, DriverSQLite, dsn)
	if err != nil {
		return nil, err
	}

	// One connection serializes writers instead of surfacing "database is locked".
	db.SetMaxOpenConns(1)

	return db, nil
}

func openPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := connect(ctx, DriverPostgres, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	return db, nil
}

func connect(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	if pingErr := db.PingContext(pingCtx); pingErr != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping ledger: %w", pingErr)
	}

	return db, nil
}
