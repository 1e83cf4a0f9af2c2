// file: internal/models/gamification.go
package models

import "time"

// ===============================
// GAMIFICATION ENTITIES
// ===============================

// PointTransaction is one immutable row in the append-only points ledger.
// Rows are created only by the award path and are never updated or deleted:
// the ledger is the audit trail and the source of truth for running totals.
type PointTransaction struct {
	ID           int64   `json:"id" db:"id"`
	UserID       int64   `json:"user_id" db:"user_id"`
	EventType    string  `json:"event_type" db:"event_type"`
	Points       int     `json:"points" db:"points"`
	ResourceType *string `json:"resource_type,omitempty" db:"resource_type"`
	ResourceID   *int64  `json:"resource_id,omitempty" db:"resource_id"`
	Description  *string `json:"description,omitempty" db:"description"`

	// DedupKey is non-nil only for deduplicable event types; a unique index
	// on (user_id, dedup_key) makes re-awarding the same milestone a no-op.
	DedupKey *string `json:"-" db:"dedup_key"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UserPointsSummary is the materialized per-user cache over the ledger.
// TotalPoints must always equal the sum of the user's transactions; Level is
// derived from TotalPoints via the shared level curve and cached for reads.
type UserPointsSummary struct {
	UserID      int64     `json:"user_id" db:"user_id"`
	TotalPoints int64     `json:"total_points" db:"total_points"`
	Level       int       `json:"level" db:"level"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Badge requirement kinds.
const (
	RequirementTotalPoints   = "total_points"
	RequirementResourceCount = "resource_count"
	RequirementEventCount    = "event_count"
)

// Badge is a static catalog entry. Seeding upserts by slug, so definitions
// can be tuned without duplicating rows.
type Badge struct {
	ID          int64  `json:"id" db:"id"`
	Slug        string `json:"slug" db:"slug" validate:"required,max=64"`
	Name        string `json:"name" db:"name" validate:"required,max=100"`
	Description string `json:"description" db:"description"`
	Icon        string `json:"icon" db:"icon"`
	Category    string `json:"category" db:"category"`

	// RequirementKind discriminates what RequirementSubject and Threshold
	// mean: total_points (subject empty), resource_count (subject is a
	// resource kind), or event_count (subject is an event type).
	RequirementKind    string `json:"requirement_kind" db:"requirement_kind" validate:"required,oneof=total_points resource_count event_count"`
	RequirementSubject string `json:"requirement_subject,omitempty" db:"requirement_subject"`
	Threshold          int64  `json:"threshold" db:"threshold" validate:"required,min=1"`

	// BonusPoints is awarded as a badge_bonus ledger transaction on unlock.
	BonusPoints int `json:"bonus_points" db:"bonus_points" validate:"min=0"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// BadgeWithStats decorates a catalog entry with its community-wide earned
// count for the public badge listing.
type BadgeWithStats struct {
	Badge
	EarnedCount int64 `json:"earned_count" db:"earned_count"`
}

// UserBadge is the (user, badge) junction. The pair is unique: a badge is
// earned at most once, ever, and is never revoked.
type UserBadge struct {
	UserID   int64     `json:"user_id" db:"user_id"`
	BadgeID  int64     `json:"badge_id" db:"badge_id"`
	EarnedAt time.Time `json:"earned_at" db:"earned_at"`

	// Joined definition for display.
	Badge *Badge `json:"badge,omitempty" db:"-"`
}

// LeaderboardEntry is a read-only projection of a summary row joined with
// user display fields. It is never persisted.
type LeaderboardEntry struct {
	Rank        int     `json:"rank" db:"-"`
	UserID      int64   `json:"user_id" db:"user_id"`
	Username    string  `json:"username" db:"username"`
	DisplayName *string `json:"display_name,omitempty" db:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty" db:"avatar_url"`
	TotalPoints int64   `json:"total_points" db:"total_points"`
	Level       int     `json:"level" db:"level"`

	// UpdatedAt is the tie-break field: at equal totals the user who got
	// there first ranks higher.
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}
