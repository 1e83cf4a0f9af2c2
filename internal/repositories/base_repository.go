// file: internal/repositories/base_repository.go
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"skillforge/internal/database"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint breaches.
// The gamification engine leans on it for dedup keys and earned badges.
const uniqueViolation = "23505"

// BaseRepository provides the shared database plumbing for all repositories.
type BaseRepository struct {
	db     *database.Manager
	logger *zap.Logger
}

// NewBaseRepository creates a new base repository.
func NewBaseRepository(db *database.Manager, logger *zap.Logger) *BaseRepository {
	return &BaseRepository{db: db, logger: logger}
}

// ExecContext executes a statement with slow-query logging.
func (r *BaseRepository) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := r.db.ExecContext(ctx, query, args...)
	r.logSlow("exec", query, time.Since(start))
	return result, err
}

// QueryContext executes a query that returns rows.
func (r *BaseRepository) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := r.db.QueryContext(ctx, query, args...)
	r.logSlow("query", query, time.Since(start))
	return rows, err
}

// QueryRowContext executes a query that returns a single row.
func (r *BaseRepository) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := r.db.QueryRowContext(ctx, query, args...)
	r.logSlow("query_row", query, time.Since(start))
	return row
}

// WithTransaction executes fn within a database transaction.
func (r *BaseRepository) WithTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("cause", err),
			)
		}
		return err
	}

	return tx.Commit()
}

// IsNotFound reports whether err is a missing-row error.
func (r *BaseRepository) IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsUniqueViolation reports whether err is a unique constraint breach.
func (r *BaseRepository) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// GetLogger returns the logger instance.
func (r *BaseRepository) GetLogger() *zap.Logger {
	return r.logger
}

func (r *BaseRepository) logSlow(kind, query string, duration time.Duration) {
	if duration > 100*time.Millisecond {
		r.logger.Warn("slow query detected",
			zap.String("type", kind),
			zap.String("query", truncateQuery(query)),
			zap.Duration("duration", duration),
		)
	}
}

// truncateQuery truncates long queries for logging.
func truncateQuery(query string) string {
	const maxLength = 200
	if len(query) <= maxLength {
		return query
	}
	return query[:maxLength] + "..."
}
