// file: internal/repositories/badge_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"skillforge/internal/database"
	"skillforge/internal/models"

	"go.uber.org/zap"
)

// badgeRepository implements BadgeRepository over the badges catalog and the
// user_badges junction table.
type badgeRepository struct {
	*BaseRepository
}

// NewBadgeRepository creates a new instance of BadgeRepository.
func NewBadgeRepository(db *database.Manager, logger *zap.Logger) BadgeRepository {
	return &badgeRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// ===============================
// CATALOG
// ===============================

// SeedBadges upserts the static catalog keyed by slug. Running it on every
// deploy is safe: existing rows are refreshed, never duplicated.
func (r *badgeRepository) SeedBadges(ctx context.Context, badges []*models.Badge) error {
	return r.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO badges (
				slug, name, description, icon, category,
				requirement_kind, requirement_subject, threshold, bonus_points
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (slug) DO UPDATE SET
				name = EXCLUDED.name,
				description = EXCLUDED.description,
				icon = EXCLUDED.icon,
				category = EXCLUDED.category,
				requirement_kind = EXCLUDED.requirement_kind,
				requirement_subject = EXCLUDED.requirement_subject,
				threshold = EXCLUDED.threshold,
				bonus_points = EXCLUDED.bonus_points`

		for _, badge := range badges {
			if _, err := tx.ExecContext(ctx, query,
				badge.Slug, badge.Name, badge.Description, badge.Icon, badge.Category,
				badge.RequirementKind, badge.RequirementSubject, badge.Threshold, badge.BonusPoints,
			); err != nil {
				return fmt.Errorf("failed to seed badge %q: %w", badge.Slug, err)
			}
		}

		r.GetLogger().Info("badge catalog seeded", zap.Int("badge_count", len(badges)))
		return nil
	})
}

const badgeColumns = `id, slug, name, description, icon, category,
	requirement_kind, requirement_subject, threshold, bonus_points, created_at`

// ListBadges returns the full catalog.
func (r *badgeRepository) ListBadges(ctx context.Context) ([]*models.Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM badges ORDER BY category, threshold`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	defer rows.Close()

	return scanBadges(rows)
}

// ListBadgesWithStats returns the catalog with per-badge earned counts
// across all users.
func (r *badgeRepository) ListBadgesWithStats(ctx context.Context) ([]*models.BadgeWithStats, error) {
	query := `
		SELECT b.id, b.slug, b.name, b.description, b.icon, b.category,
			b.requirement_kind, b.requirement_subject, b.threshold, b.bonus_points, b.created_at,
			COUNT(ub.user_id) AS earned_count
		FROM badges b
		LEFT JOIN user_badges ub ON b.id = ub.badge_id
		GROUP BY b.id
		ORDER BY b.category, b.threshold`

	rows, err := r.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges with stats: %w", err)
	}
	defer rows.Close()

	var badges []*models.BadgeWithStats
	for rows.Next() {
		var b models.BadgeWithStats
		if err := rows.Scan(
			&b.ID, &b.Slug, &b.Name, &b.Description, &b.Icon, &b.Category,
			&b.RequirementKind, &b.RequirementSubject, &b.Threshold, &b.BonusPoints, &b.CreatedAt,
			&b.EarnedCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan badge stats: %w", err)
		}
		badges = append(badges, &b)
	}

	return badges, rows.Err()
}

// ListUnearnedBadges returns catalog entries the user has not earned yet.
// This is the badge evaluator's work list.
func (r *badgeRepository) ListUnearnedBadges(ctx context.Context, userID int64) ([]*models.Badge, error) {
	query := `
		SELECT ` + badgeColumns + `
		FROM badges b
		WHERE NOT EXISTS (
			SELECT 1 FROM user_badges ub
			WHERE ub.badge_id = b.id AND ub.user_id = $1
		)
		ORDER BY b.threshold`

	rows, err := r.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unearned badges: %w", err)
	}
	defer rows.Close()

	return scanBadges(rows)
}

// ===============================
// EARNED BADGES
// ===============================

// InsertUserBadge records an earned badge. The unique (user_id, badge_id)
// constraint is the authoritative guard against double-awarding: a duplicate
// insert from a concurrent evaluation reports inserted=false, not an error.
func (r *badgeRepository) InsertUserBadge(ctx context.Context, userID, badgeID int64) (bool, error) {
	query := `
		INSERT INTO user_badges (user_id, badge_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, badge_id) DO NOTHING`

	result, err := r.ExecContext(ctx, query, userID, badgeID)
	if err != nil {
		if r.IsUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert user badge: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListUserBadges returns the user's earned badges with their definitions,
// most recent first.
func (r *badgeRepository) ListUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error) {
	query := `
		SELECT ub.user_id, ub.badge_id, ub.earned_at,
			b.id, b.slug, b.name, b.description, b.icon, b.category,
			b.requirement_kind, b.requirement_subject, b.threshold, b.bonus_points, b.created_at
		FROM user_badges ub
		INNER JOIN badges b ON ub.badge_id = b.id
		WHERE ub.user_id = $1
		ORDER BY ub.earned_at DESC`

	rows, err := r.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user badges: %w", err)
	}
	defer rows.Close()

	var earned []*models.UserBadge
	for rows.Next() {
		var ub models.UserBadge
		var b models.Badge
		if err := rows.Scan(
			&ub.UserID, &ub.BadgeID, &ub.EarnedAt,
			&b.ID, &b.Slug, &b.Name, &b.Description, &b.Icon, &b.Category,
			&b.RequirementKind, &b.RequirementSubject, &b.Threshold, &b.BonusPoints, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user badge: %w", err)
		}
		ub.Badge = &b
		earned = append(earned, &ub)
	}

	return earned, rows.Err()
}

// ===============================
// HELPERS
// ===============================

func scanBadges(rows *sql.Rows) ([]*models.Badge, error) {
	var badges []*models.Badge
	for rows.Next() {
		var b models.Badge
		if err := rows.Scan(
			&b.ID, &b.Slug, &b.Name, &b.Description, &b.Icon, &b.Category,
			&b.RequirementKind, &b.RequirementSubject, &b.Threshold, &b.BonusPoints, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, &b)
	}
	return badges, rows.Err()
}
