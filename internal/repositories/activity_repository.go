// file: internal/repositories/activity_repository.go
package repositories

import (
	"context"
	"fmt"

	"skillforge/internal/database"
	"skillforge/internal/models"

	"go.uber.org/zap"
)

// activityRepository implements ActivityRepository over the append-only
// activities table.
type activityRepository struct {
	*BaseRepository
}

// NewActivityRepository creates a new instance of ActivityRepository.
func NewActivityRepository(db *database.Manager, logger *zap.Logger) ActivityRepository {
	return &activityRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// Insert appends one activity entry.
func (r *activityRepository) Insert(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO activities (user_id, activity_type, resource_type, resource_id, summary)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.QueryRowContext(
		ctx, query,
		activity.UserID, activity.ActivityType,
		activity.ResourceType, activity.ResourceID, activity.Summary,
	).Scan(&activity.ID, &activity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}

	return nil
}

// ListRecent returns the user's most recent activity entries.
func (r *activityRepository) ListRecent(ctx context.Context, userID int64, limit int) ([]*models.Activity, error) {
	query := `
		SELECT id, user_id, activity_type, resource_type, resource_id, summary, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.ActivityType,
			&a.ResourceType, &a.ResourceID, &a.Summary, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, &a)
	}

	return activities, rows.Err()
}
