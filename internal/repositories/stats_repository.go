// file: internal/repositories/stats_repository.go
package repositories

import (
	"context"
	"fmt"

	"skillforge/internal/database"
	"skillforge/internal/gamification"

	"go.uber.org/zap"
)

// statsRepository reads per-user resource counts from tables owned by other
// subsystems. No locks are taken on collaborator data: a slightly stale count
// only delays a badge until the next evaluation.
type statsRepository struct {
	*BaseRepository
}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository(db *database.Manager, logger *zap.Logger) StatsRepository {
	return &statsRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// resourceCountQueries maps each countable resource kind to its query.
var resourceCountQueries = map[gamification.ResourceKind]string{
	gamification.ResourceDiscussion:      `SELECT COUNT(*) FROM discussions WHERE user_id = $1`,
	gamification.ResourceProject:         `SELECT COUNT(*) FROM projects WHERE user_id = $1`,
	gamification.ResourceApprovedProject: `SELECT COUNT(*) FROM projects WHERE user_id = $1 AND status = 'approved'`,
	gamification.ResourceReview:          `SELECT COUNT(*) FROM tool_reviews WHERE user_id = $1`,
	gamification.ResourceLesson:          `SELECT COUNT(*) FROM lesson_completions WHERE user_id = $1`,
	gamification.ResourceCourse:          `SELECT COUNT(*) FROM enrollments WHERE user_id = $1`,
}

// CountResources counts resources of the given kind owned by the user.
func (r *statsRepository) CountResources(ctx context.Context, userID int64, kind gamification.ResourceKind) (int64, error) {
	query, ok := resourceCountQueries[kind]
	if !ok {
		return 0, fmt.Errorf("unknown resource kind: %q", kind)
	}

	var count int64
	if err := r.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s resources: %w", kind, err)
	}
	return count, nil
}
