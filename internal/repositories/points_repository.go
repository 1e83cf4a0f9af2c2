// file: internal/repositories/points_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"skillforge/internal/database"
	"skillforge/internal/gamification"
	"skillforge/internal/models"

	"go.uber.org/zap"
)

// pointsRepository implements PointsRepository over the append-only
// point_transactions table and the user_points_summaries cache.
type pointsRepository struct {
	*BaseRepository
}

// NewPointsRepository creates a new instance of PointsRepository.
func NewPointsRepository(db *database.Manager, logger *zap.Logger) PointsRepository {
	return &pointsRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// ===============================
// LEDGER WRITES
// ===============================

// RecordAward appends one ledger row and folds its points into the user's
// summary inside a single database transaction. A failed increment rolls the
// ledger row back with it, so total_points always equals the ledger sum.
// Dedup rides on the unique index over (user_id, dedup_key): ON CONFLICT DO
// NOTHING returns no row when the milestone was already recorded, which we
// report as inserted=false and commit without touching the summary. The
// increment itself is a single upsert under the database's own concurrency
// control, so simultaneous awards never lose updates.
func (r *pointsRepository) RecordAward(ctx context.Context, tx *models.PointTransaction) (bool, int64, error) {
	insertQuery := `
		INSERT INTO point_transactions (
			user_id, event_type, points, resource_type, resource_id, description, dedup_key
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, dedup_key) WHERE dedup_key IS NOT NULL DO NOTHING
		RETURNING id, created_at`

	incrementQuery := `
		INSERT INTO user_points_summaries (user_id, total_points, level)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id) DO UPDATE SET
			total_points = user_points_summaries.total_points + EXCLUDED.total_points,
			updated_at = CURRENT_TIMESTAMP
		RETURNING total_points`

	var inserted bool
	var newTotal int64

	err := r.WithTransaction(ctx, func(dbTx *sql.Tx) error {
		err := dbTx.QueryRowContext(
			ctx, insertQuery,
			tx.UserID, tx.EventType, tx.Points,
			tx.ResourceType, tx.ResourceID, tx.Description, tx.DedupKey,
		).Scan(&tx.ID, &tx.CreatedAt)

		if err != nil {
			if r.IsNotFound(err) {
				// Conflict with an existing dedup key: already awarded.
				return nil
			}
			return fmt.Errorf("failed to insert point transaction: %w", err)
		}
		inserted = true

		if err := dbTx.QueryRowContext(ctx, incrementQuery, tx.UserID, tx.Points).Scan(&newTotal); err != nil {
			return fmt.Errorf("failed to increment points summary: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, 0, err
	}

	return inserted, newTotal, nil
}

// SetSummaryLevel caches the derived level for fast reads. The value is
// reproducible from total_points alone, so a lost update here is cosmetic.
func (r *pointsRepository) SetSummaryLevel(ctx context.Context, userID int64, level int) error {
	query := `UPDATE user_points_summaries SET level = $2 WHERE user_id = $1`
	if _, err := r.ExecContext(ctx, query, userID, level); err != nil {
		return fmt.Errorf("failed to cache level: %w", err)
	}
	return nil
}

// ===============================
// LEDGER READS
// ===============================

// GetSummary returns the user's summary row, or nil when the user has never
// been awarded points.
func (r *pointsRepository) GetSummary(ctx context.Context, userID int64) (*models.UserPointsSummary, error) {
	query := `
		SELECT user_id, total_points, level, updated_at
		FROM user_points_summaries
		WHERE user_id = $1`

	var summary models.UserPointsSummary
	err := r.QueryRowContext(ctx, query, userID).Scan(
		&summary.UserID, &summary.TotalPoints, &summary.Level, &summary.UpdatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get points summary: %w", err)
	}

	return &summary, nil
}

// ListRecentTransactions returns the user's most recent ledger rows in
// descending created_at order.
func (r *pointsRepository) ListRecentTransactions(ctx context.Context, userID int64, limit int) ([]*models.PointTransaction, error) {
	query := `
		SELECT id, user_id, event_type, points, resource_type, resource_id, description, created_at
		FROM point_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list point transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*models.PointTransaction
	for rows.Next() {
		var tx models.PointTransaction
		if err := rows.Scan(
			&tx.ID, &tx.UserID, &tx.EventType, &tx.Points,
			&tx.ResourceType, &tx.ResourceID, &tx.Description, &tx.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan point transaction: %w", err)
		}
		transactions = append(transactions, &tx)
	}

	return transactions, rows.Err()
}

// SumPoints recomputes the user's total directly from the ledger.
func (r *pointsRepository) SumPoints(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(points), 0) FROM point_transactions WHERE user_id = $1`

	var total int64
	if err := r.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum point transactions: %w", err)
	}
	return total, nil
}

// CountEvents counts the user's ledger rows of one event type.
func (r *pointsRepository) CountEvents(ctx context.Context, userID int64, eventType gamification.EventType) (int64, error) {
	query := `SELECT COUNT(*) FROM point_transactions WHERE user_id = $1 AND event_type = $2`

	var count int64
	if err := r.QueryRowContext(ctx, query, userID, string(eventType)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// ===============================
// LEADERBOARD
// ===============================

// GetLeaderboard reads the ranked projection. The composite index on
// (total_points DESC, updated_at ASC, user_id ASC) serves the ordering
// without an application-side sort.
func (r *pointsRepository) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT s.user_id, u.username, u.display_name, u.avatar_url,
			s.total_points, s.level, s.updated_at
		FROM user_points_summaries s
		INNER JOIN users u ON s.user_id = u.id
		WHERE u.is_active = true
		ORDER BY s.total_points DESC, s.updated_at ASC, s.user_id ASC
		LIMIT $1`

	rows, err := r.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(
			&entry.UserID, &entry.Username, &entry.DisplayName, &entry.AvatarURL,
			&entry.TotalPoints, &entry.Level, &entry.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
