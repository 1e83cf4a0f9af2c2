// file: internal/models/models.go
package models

import "time"

// ===============================
// CORE ENTITIES
// ===============================

// User represents a community member. Authentication and profile editing are
// handled by external collaborators; this service reads the display fields it
// needs for leaderboards and activity feeds.
type User struct {
	ID          int64   `json:"id" db:"id"`
	Username    string  `json:"username" db:"username" validate:"required,min=3,max=50"`
	DisplayName *string `json:"display_name,omitempty" db:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty" db:"avatar_url"`
	IsActive    bool    `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Activity is one append-only entry in a user's human-readable activity feed.
// It is recorded alongside point awards but the gamification engine does not
// depend on it.
type Activity struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"user_id" db:"user_id"`
	ActivityType string    `json:"activity_type" db:"activity_type"`
	ResourceType *string   `json:"resource_type,omitempty" db:"resource_type"`
	ResourceID   *int64    `json:"resource_id,omitempty" db:"resource_id"`
	Summary      string    `json:"summary" db:"summary"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
