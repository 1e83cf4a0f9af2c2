// file: internal/gamification/config.go
package gamification

import (
	"fmt"
	"time"
)

// EventType identifies a point-earning action. The set is closed: awards for
// unknown event types are rejected before anything is written.
type EventType string

const (
	EventCourseEnrolled    EventType = "course_enrolled"
	EventFirstEnrollment   EventType = "first_enrollment"
	EventLessonCompleted   EventType = "lesson_completed"
	EventDiscussionCreated EventType = "discussion_created"
	EventCommentAdded      EventType = "comment_added"
	EventProjectSubmitted  EventType = "project_submitted"
	EventProjectApproved   EventType = "project_approved"
	EventProjectFeatured   EventType = "project_featured"
	EventReviewAdded       EventType = "review_added"
	EventFirstProject      EventType = "first_project"
	EventBadgeBonus        EventType = "badge_bonus"
)

// ResourceKind names a countable collaborator-owned resource used by
// resource_count badge requirements.
type ResourceKind string

const (
	ResourceDiscussion      ResourceKind = "discussion"
	ResourceProject         ResourceKind = "project"
	ResourceApprovedProject ResourceKind = "approved_project"
	ResourceReview          ResourceKind = "review"
	ResourceLesson          ResourceKind = "lesson"
	ResourceCourse          ResourceKind = "course"
)

// Config is the single source of truth for point values and the level curve.
// Both the write path (cached level) and the read path (recomputation)
// consult the same instance, so the cached level on a summary row is always
// reproducible from the total alone.
type Config struct {
	// EventPoints maps each standard event type to its point value.
	// badge_bonus is intentionally absent: its value comes from the badge.
	EventPoints map[EventType]int

	// LevelThresholds is a strictly increasing sequence starting at 0.
	// level(points) = 1 + number of thresholds after the first that are <= points.
	LevelThresholds []int64

	// LeaderboardLimit is the hard cap on leaderboard size.
	LeaderboardLimit int

	// MaxEvaluationPasses bounds the badge-evaluation fixed-point loop.
	MaxEvaluationPasses int

	// LeaderboardCacheTTL and CatalogCacheTTL bound read-path staleness.
	// Zero disables caching for the respective view.
	LeaderboardCacheTTL time.Duration
	CatalogCacheTTL     time.Duration
}

// DefaultConfig returns the production point table and level curve.
func DefaultConfig() *Config {
	return &Config{
		EventPoints: map[EventType]int{
			EventCourseEnrolled:    10,
			EventFirstEnrollment:   25,
			EventLessonCompleted:   5,
			EventDiscussionCreated: 10,
			EventCommentAdded:      2,
			EventProjectSubmitted:  15,
			EventProjectApproved:   25,
			EventProjectFeatured:   50,
			EventReviewAdded:       5,
			EventFirstProject:      20,
		},
		LevelThresholds:     []int64{0, 100, 250, 500, 1000, 2000, 3500, 5500, 8000, 11000},
		LeaderboardLimit:    100,
		MaxEvaluationPasses: 5,
		LeaderboardCacheTTL: 30 * time.Second,
		CatalogCacheTTL:     5 * time.Minute,
	}
}

// Validate checks the configuration invariants at startup.
func (c *Config) Validate() error {
	if len(c.LevelThresholds) == 0 || c.LevelThresholds[0] != 0 {
		return fmt.Errorf("level thresholds must start at 0")
	}
	for i := 1; i < len(c.LevelThresholds); i++ {
		if c.LevelThresholds[i] <= c.LevelThresholds[i-1] {
			return fmt.Errorf("level thresholds must be strictly increasing (index %d)", i)
		}
	}
	for et, pts := range c.EventPoints {
		if !IsKnownEventType(et) {
			return fmt.Errorf("unknown event type in point table: %q", et)
		}
		if pts <= 0 {
			return fmt.Errorf("event type %q must have a positive point value", et)
		}
	}
	if c.LeaderboardLimit <= 0 {
		return fmt.Errorf("leaderboard limit must be positive")
	}
	if c.MaxEvaluationPasses <= 0 {
		return fmt.Errorf("max evaluation passes must be positive")
	}
	if c.LeaderboardCacheTTL < 0 || c.CatalogCacheTTL < 0 {
		return fmt.Errorf("cache TTLs cannot be negative")
	}
	return nil
}

// PointsFor resolves the configured point value for a standard event type.
func (c *Config) PointsFor(et EventType) (int, bool) {
	pts, ok := c.EventPoints[et]
	return pts, ok
}

// IsKnownEventType reports whether et belongs to the closed event-type set.
func IsKnownEventType(et EventType) bool {
	switch et {
	case EventCourseEnrolled, EventFirstEnrollment, EventLessonCompleted,
		EventDiscussionCreated, EventCommentAdded, EventProjectSubmitted,
		EventProjectApproved, EventProjectFeatured, EventReviewAdded,
		EventFirstProject, EventBadgeBonus:
		return true
	}
	return false
}

// IsDeduplicable reports whether a transaction for et must carry a dedup key.
// Deduplicable events represent one-time milestones tied to a specific
// resource; repeated occurrences (comments, discussions) recur freely.
func IsDeduplicable(et EventType) bool {
	switch et {
	case EventCourseEnrolled, EventFirstEnrollment, EventLessonCompleted,
		EventProjectSubmitted, EventProjectApproved, EventProjectFeatured,
		EventReviewAdded, EventFirstProject:
		return true
	}
	return false
}

// IsKnownResourceKind reports whether r is a countable resource kind.
func IsKnownResourceKind(r ResourceKind) bool {
	switch r {
	case ResourceDiscussion, ResourceProject, ResourceApprovedProject,
		ResourceReview, ResourceLesson, ResourceCourse:
		return true
	}
	return false
}
