// file: internal/services/types.go
package services

import (
	"time"

	"skillforge/internal/models"
)

// ===============================
// GAMIFICATION REQUESTS
// ===============================

// AwardPointsRequest describes one point-earning action event. Standard
// event types take their point value from configuration; Points overrides
// the table and is meant for ad-hoc, admin-granted bonuses only.
type AwardPointsRequest struct {
	UserID       int64   `json:"user_id" validate:"required,min=1"`
	EventType    string  `json:"event_type" validate:"required,max=64"`
	ResourceType *string `json:"resource_type,omitempty" validate:"omitempty,max=64"`
	ResourceID   *int64  `json:"resource_id,omitempty" validate:"omitempty,min=1"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Points       *int    `json:"points,omitempty" validate:"omitempty,min=1,max=10000"`
}

// AwardResult is the first-class outcome of an award. Callers whose primary
// action must not depend on awarding use AwardPointsAsync and never see it.
type AwardResult struct {
	Transaction *models.PointTransaction `json:"transaction,omitempty"`

	// Deduplicated is true when the event's dedup key had already been
	// recorded; nothing was written and the totals are unchanged.
	Deduplicated bool `json:"deduplicated"`

	NewTotal  int64 `json:"new_total"`
	Level     int   `json:"level"`
	LeveledUp bool  `json:"leveled_up"`

	// BadgesEarned lists badges unlocked by this award, including ones
	// unlocked by badge bonus points during the same evaluation.
	BadgesEarned []*models.Badge `json:"badges_earned,omitempty"`
}

// ===============================
// GAMIFICATION RESPONSES
// ===============================

// UserPointsResponse is the read model for a user's points and level.
type UserPointsResponse struct {
	UserID        int64   `json:"user_id"`
	TotalPoints   int64   `json:"total_points"`
	Level         int     `json:"level"`
	LevelProgress float64 `json:"level_progress"`

	// NextLevelPoints is nil at the maximum level.
	NextLevelPoints *int64 `json:"next_level_points,omitempty"`

	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Optional includes.
	RecentTransactions []*models.PointTransaction `json:"recent_transactions,omitempty"`
	Badges             []*models.UserBadge        `json:"badges,omitempty"`
}
