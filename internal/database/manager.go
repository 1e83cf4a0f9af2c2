// file: internal/database/manager.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Config holds database connection settings.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// Manager owns the connection pool and schema migrations. Repositories go
// through it for all statement execution.
type Manager struct {
	db     *sql.DB
	config *Config
	logger *zap.Logger
}

// NewManager opens the connection pool and verifies connectivity.
func NewManager(config *Config, logger *zap.Logger) (*Manager, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connected",
		zap.Int("max_open_conns", config.MaxOpenConns),
		zap.Int("max_idle_conns", config.MaxIdleConns),
	)

	return &Manager{db: db, config: config, logger: logger}, nil
}

// NewManagerFromDB wraps an existing connection pool. Used by tests that
// substitute a mock driver.
func NewManagerFromDB(db *sql.DB, logger *zap.Logger) *Manager {
	return &Manager{db: db, config: &Config{}, logger: logger}
}

// Migrate applies pending schema migrations from the configured path.
func (m *Manager) Migrate() error {
	if m.config.MigrationsPath == "" {
		return fmt.Errorf("migrations path is not configured")
	}

	driver, err := postgres.WithInstance(m.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithDatabaseInstance(
		"file://"+m.config.MigrationsPath,
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("database schema up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	m.logger.Info("database migrated",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// ExecContext executes a statement.
func (m *Manager) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return m.db.ExecContext(ctx, query, args...)
}

// QueryContext executes a query that returns rows.
func (m *Manager) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.QueryContext(ctx, query, args...)
}

// QueryRowContext executes a query that returns at most one row.
func (m *Manager) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return m.db.QueryRowContext(ctx, query, args...)
}

// BeginTx starts a transaction.
func (m *Manager) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return m.db.BeginTx(ctx, opts)
}

// Health verifies the pool can reach the database.
func (m *Manager) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.db.PingContext(ctx)
}

// Stats returns pool statistics for diagnostics.
func (m *Manager) Stats() sql.DBStats {
	return m.db.Stats()
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	m.logger.Info("closing database connections")
	return m.db.Close()
}
