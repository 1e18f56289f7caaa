package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aryan0dhankhar/librarydesk/internal/reliability/retry"
)

// Config holds database configuration
type Config struct {
	Driver          string // postgres (lib/pq), pgx or sqlite3
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Retry           *retry.Config
}

// sqliteParams makes SQLite behave like a server database for the loan
// workflow: writers wait instead of failing, foreign keys are enforced and
// every transaction takes the write lock up front.
var sqliteParams = []string{"_busy_timeout=5000", "_foreign_keys=1", "_txlock=immediate"}

// ConnectionPool manages database connections
type ConnectionPool struct {
	db     *sql.DB
	driver string
	logger *slog.Logger
}

// NewConnectionPool opens the database and verifies it answers a ping,
// retrying with backoff while it comes up.
func NewConnectionPool(ctx context.Context, config *Config, logger *slog.Logger) (*ConnectionPool, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := config.DSN
	if config.Driver == "sqlite3" {
		dsn = withSQLiteParams(dsn)
	}

	db, err := sql.Open(config.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	} else {
		db.SetMaxOpenConns(25) // default
	}

	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	} else {
		db.SetMaxIdleConns(5) // default
	}

	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(5 * time.Minute) // default
	}

	retryCfg := config.Retry
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}

	_, err = retry.Do(ctx, retryCfg, logger, "database ping", func(ctx context.Context) (struct{}, error) {
		ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return struct{}{}, db.PingContext(ctxPing)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected successfully",
		slog.String("driver", config.Driver),
	)

	return &ConnectionPool{
		db:     db,
		driver: config.Driver,
		logger: logger,
	}, nil
}

// GetDB returns the underlying sql.DB connection
func (cp *ConnectionPool) GetDB() *sql.DB {
	return cp.db
}

// Driver returns the database/sql driver name the pool was opened with
func (cp *ConnectionPool) Driver() string {
	return cp.driver
}

// Close closes the database connection
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Health checks the database health
func (cp *ConnectionPool) Health(ctx context.Context) error {
	ctxTest, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return cp.db.PingContext(ctxTest)
}

// DefaultConfig returns default database configuration for development
func DefaultConfig() *Config {
	return &Config{
		Driver:          "sqlite3",
		DSN:             "file:librarydesk.db",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func withSQLiteParams(dsn string) string {
	for _, p := range sqliteParams {
		key := p[:strings.Index(p, "=")+1]
		if strings.Contains(dsn, key) {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + p
		} else {
			dsn += "?" + p
		}
	}
	return dsn
}
