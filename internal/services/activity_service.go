// file: internal/services/activity_service.go
package services

import (
	"context"
	"fmt"

	"skillforge/internal/models"
	"skillforge/internal/repositories"

	"go.uber.org/zap"
)

// ===============================
// ACTIVITY DETAILS
// ===============================

// ActivityDetail is a closed set of recordable activities. Each variant
// carries exactly the fields its feed line needs, so malformed payloads are
// unrepresentable at the call site.
type ActivityDetail interface {
	activityType() string
	resourceRef() (kind *string, id *int64)
	summary() string
}

// EnrollmentActivity records a course enrollment.
type EnrollmentActivity struct {
	CourseID    int64
	CourseTitle string
}

func (a EnrollmentActivity) activityType() string { return "course_enrolled" }
func (a EnrollmentActivity) resourceRef() (*string, *int64) {
	return ref("course", a.CourseID)
}
func (a EnrollmentActivity) summary() string {
	return fmt.Sprintf("Enrolled in %s", a.CourseTitle)
}

// LessonCompletedActivity records a finished lesson.
type LessonCompletedActivity struct {
	LessonID    int64
	LessonTitle string
	CourseTitle string
}

func (a LessonCompletedActivity) activityType() string { return "lesson_completed" }
func (a LessonCompletedActivity) resourceRef() (*string, *int64) {
	return ref("lesson", a.LessonID)
}
func (a LessonCompletedActivity) summary() string {
	return fmt.Sprintf("Completed lesson %s in %s", a.LessonTitle, a.CourseTitle)
}

// DiscussionActivity records a newly created discussion.
type DiscussionActivity struct {
	DiscussionID int64
	Title        string
}

func (a DiscussionActivity) activityType() string { return "discussion_created" }
func (a DiscussionActivity) resourceRef() (*string, *int64) {
	return ref("discussion", a.DiscussionID)
}
func (a DiscussionActivity) summary() string {
	return fmt.Sprintf("Started discussion %s", a.Title)
}

// CommentActivity records a comment on a discussion.
type CommentActivity struct {
	DiscussionID    int64
	DiscussionTitle string
}

func (a CommentActivity) activityType() string { return "comment_added" }
func (a CommentActivity) resourceRef() (*string, *int64) {
	return ref("discussion", a.DiscussionID)
}
func (a CommentActivity) summary() string {
	return fmt.Sprintf("Commented on %s", a.DiscussionTitle)
}

// ProjectActivity records a project lifecycle step.
type ProjectActivity struct {
	ProjectID    int64
	ProjectTitle string
	// Stage is one of submitted, approved, featured.
	Stage string
}

func (a ProjectActivity) activityType() string { return "project_" + a.Stage }
func (a ProjectActivity) resourceRef() (*string, *int64) {
	return ref("project", a.ProjectID)
}
func (a ProjectActivity) summary() string {
	switch a.Stage {
	case "approved":
		return fmt.Sprintf("Project %s was approved", a.ProjectTitle)
	case "featured":
		return fmt.Sprintf("Project %s was featured", a.ProjectTitle)
	default:
		return fmt.Sprintf("Submitted project %s", a.ProjectTitle)
	}
}

// ReviewActivity records a tool review.
type ReviewActivity struct {
	ReviewID int64
	ToolName string
}

func (a ReviewActivity) activityType() string { return "review_added" }
func (a ReviewActivity) resourceRef() (*string, *int64) {
	return ref("review", a.ReviewID)
}
func (a ReviewActivity) summary() string {
	return fmt.Sprintf("Reviewed %s", a.ToolName)
}

// BadgeActivity records an earned badge.
type BadgeActivity struct {
	BadgeID   int64
	BadgeName string
}

func (a BadgeActivity) activityType() string { return "badge_earned" }
func (a BadgeActivity) resourceRef() (*string, *int64) {
	return ref("badge", a.BadgeID)
}
func (a BadgeActivity) summary() string {
	return fmt.Sprintf("Earned the %s badge", a.BadgeName)
}

func ref(kind string, id int64) (*string, *int64) {
	if id <= 0 {
		return nil, nil
	}
	return &kind, &id
}

// ===============================
// ACTIVITY SERVICE
// ===============================

type activityService struct {
	activities repositories.ActivityRepository
	users      repositories.UserRepository
	logger     *zap.Logger
}

// NewActivityService creates the activity feed service.
func NewActivityService(
	activities repositories.ActivityRepository,
	users repositories.UserRepository,
	logger *zap.Logger,
) ActivityService {
	return &activityService{
		activities: activities,
		users:      users,
		logger:     logger,
	}
}

// RecordActivity appends one feed entry for the user.
func (s *activityService) RecordActivity(ctx context.Context, userID int64, detail ActivityDetail) error {
	if detail == nil {
		return NewValidationError("activity detail is required", nil)
	}

	kind, id := detail.resourceRef()
	activity := &models.Activity{
		UserID:       userID,
		ActivityType: detail.activityType(),
		ResourceType: kind,
		ResourceID:   id,
		Summary:      detail.summary(),
	}

	if err := s.activities.Insert(ctx, activity); err != nil {
		return NewInternalError("failed to record activity", err)
	}

	s.logger.Debug("activity recorded",
		zap.Int64("user_id", userID),
		zap.String("activity_type", activity.ActivityType),
	)
	return nil
}

// GetRecentActivity returns the user's most recent feed entries.
func (s *activityService) GetRecentActivity(ctx context.Context, userID int64, limit int) ([]*models.Activity, error) {
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to verify user", err)
	}
	if !exists {
		return nil, NewNotFoundError(fmt.Sprintf("user %d not found", userID))
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	activities, err := s.activities.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, NewInternalError("failed to load activity feed", err)
	}
	return activities, nil
}
