// file: internal/services/interface.go
package services

import (
	"context"

	"skillforge/internal/models"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================

// GamificationService is the engine behind points, levels, badges, and the
// leaderboard. External action handlers call AwardPoints (or the async
// variant) with an event descriptor; everything else is read-only.
type GamificationService interface {
	// Ledger
	AwardPoints(ctx context.Context, req *AwardPointsRequest) (*AwardResult, error)
	AwardPointsAsync(req *AwardPointsRequest)
	GetUserPointsAndLevel(ctx context.Context, userID int64) (*UserPointsResponse, error)
	GetRecentTransactions(ctx context.Context, userID int64, limit int) ([]*models.PointTransaction, error)

	// Badges
	EvaluateBadges(ctx context.Context, userID int64) ([]*models.Badge, error)
	GetUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error)
	GetBadgeCatalog(ctx context.Context) ([]*models.BadgeWithStats, error)
	SeedBadges(ctx context.Context) error

	// Leaderboard
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// ActivityService records and reads the human-readable activity feed. It is
// invoked from the same action handlers as the gamification engine, but the
// engine does not depend on it.
type ActivityService interface {
	RecordActivity(ctx context.Context, userID int64, detail ActivityDetail) error
	GetRecentActivity(ctx context.Context, userID int64, limit int) ([]*models.Activity, error)
}
