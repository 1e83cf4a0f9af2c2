// file: internal/repositories/interfaces.go
package repositories

import (
	"context"

	"skillforge/internal/gamification"
	"skillforge/internal/models"
)

// ===============================
// GAMIFICATION REPOSITORIES
// ===============================

// PointsRepository owns the append-only ledger and the per-user summary.
type PointsRepository interface {
	// RecordAward appends one ledger row and adds its points to the user's
	// summary inside a single storage transaction, so a partial failure
	// leaves no trace and the summary never diverges from the ledger sum.
	// The increment happens at the storage layer (never read-then-write)
	// and the summary row is created lazily on first award. When the
	// transaction carries a dedup key that already exists for the user,
	// nothing is written and inserted is false. That is a no-op success,
	// not an error.
	RecordAward(ctx context.Context, tx *models.PointTransaction) (inserted bool, newTotal int64, err error)

	// SetSummaryLevel caches the level derived from the current total.
	SetSummaryLevel(ctx context.Context, userID int64, level int) error

	GetSummary(ctx context.Context, userID int64) (*models.UserPointsSummary, error)
	ListRecentTransactions(ctx context.Context, userID int64, limit int) ([]*models.PointTransaction, error)

	// SumPoints recomputes the total from the ledger (invariant checks,
	// reconciliation jobs).
	SumPoints(ctx context.Context, userID int64) (int64, error)

	// CountEvents counts a user's ledger rows of one event type, for
	// event_count badge requirements.
	CountEvents(ctx context.Context, userID int64, eventType gamification.EventType) (int64, error)

	// GetLeaderboard returns up to limit entries ordered by total points
	// descending, ties broken by updated_at ascending then user_id ascending.
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// BadgeRepository owns the badge catalog and earned-badge junction rows.
type BadgeRepository interface {
	// SeedBadges upserts the catalog by slug; calling it repeatedly leaves
	// exactly one row per slug.
	SeedBadges(ctx context.Context, badges []*models.Badge) error

	ListBadges(ctx context.Context) ([]*models.Badge, error)
	ListBadgesWithStats(ctx context.Context) ([]*models.BadgeWithStats, error)

	// ListUnearnedBadges returns catalog entries the user has not earned yet.
	ListUnearnedBadges(ctx context.Context, userID int64) ([]*models.Badge, error)

	// InsertUserBadge awards a badge. The (user_id, badge_id) uniqueness
	// constraint is the authoritative guard: a concurrent duplicate insert
	// reports inserted=false with a nil error.
	InsertUserBadge(ctx context.Context, userID, badgeID int64) (inserted bool, err error)

	ListUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error)
}

// StatsRepository reads resource counts owned by external collaborators
// (discussions, projects, reviews, lesson completions). Reads take no locks;
// a momentarily stale count is acceptable since the next evaluation catches up.
type StatsRepository interface {
	CountResources(ctx context.Context, userID int64, kind gamification.ResourceKind) (int64, error)
}

// ===============================
// SUPPORTING REPOSITORIES
// ===============================

// UserRepository reads the user rows the engine validates and displays.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
}

// ActivityRepository is the append-only activity feed store.
type ActivityRepository interface {
	Insert(ctx context.Context, activity *models.Activity) error
	ListRecent(ctx context.Context, userID int64, limit int) ([]*models.Activity, error)
}

// Collection bundles the repositories the service layer is constructed with.
// Everything is an explicit parameter so tests can substitute the in-memory
// implementations.
type Collection struct {
	Points   PointsRepository
	Badges   BadgeRepository
	Stats    StatsRepository
	Users    UserRepository
	Activity ActivityRepository
}
