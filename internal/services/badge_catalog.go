// file: internal/services/badge_catalog.go
package services

import (
	"skillforge/internal/gamification"
	"skillforge/internal/models"
)

// DefaultBadgeCatalog returns the built-in badge definitions, keyed by slug.
// Seeding upserts by slug so redeploys update names and thresholds without
// duplicating rows or revoking earned badges.
func DefaultBadgeCatalog() []*models.Badge {
	return []*models.Badge{
		// Point milestones.
		{
			Slug:            "getting-started",
			Name:            "Getting Started",
			Description:     "Earn your first 50 points",
			Icon:            "seedling",
			Category:        "points",
			RequirementKind: models.RequirementTotalPoints,
			Threshold:       50,
		},
		{
			Slug:            "rising-star",
			Name:            "Rising Star",
			Description:     "Reach 500 points",
			Icon:            "star",
			Category:        "points",
			RequirementKind: models.RequirementTotalPoints,
			Threshold:       500,
			BonusPoints:     25,
		},
		{
			Slug:            "community-pillar",
			Name:            "Community Pillar",
			Description:     "Reach 2000 points",
			Icon:            "landmark",
			Category:        "points",
			RequirementKind: models.RequirementTotalPoints,
			Threshold:       2000,
			BonusPoints:     100,
		},

		// Participation.
		{
			Slug:               "conversation-starter",
			Name:               "Conversation Starter",
			Description:        "Create 3 discussions",
			Icon:               "comments",
			Category:           "community",
			RequirementKind:    models.RequirementResourceCount,
			RequirementSubject: string(gamification.ResourceDiscussion),
			Threshold:          3,
			BonusPoints:        15,
		},
		{
			Slug:               "commentator",
			Name:               "Commentator",
			Description:        "Add 100 comments",
			Icon:               "megaphone",
			Category:           "community",
			RequirementKind:    models.RequirementEventCount,
			RequirementSubject: string(gamification.EventCommentAdded),
			Threshold:          100,
			BonusPoints:        50,
		},
		{
			Slug:               "helpful-reviewer",
			Name:               "Helpful Reviewer",
			Description:        "Write 10 tool reviews",
			Icon:               "clipboard-check",
			Category:           "community",
			RequirementKind:    models.RequirementResourceCount,
			RequirementSubject: string(gamification.ResourceReview),
			Threshold:          10,
			BonusPoints:        25,
		},

		// Learning.
		{
			Slug:               "dedicated-learner",
			Name:               "Dedicated Learner",
			Description:        "Complete 25 lessons",
			Icon:               "graduation-cap",
			Category:           "learning",
			RequirementKind:    models.RequirementResourceCount,
			RequirementSubject: string(gamification.ResourceLesson),
			Threshold:          25,
			BonusPoints:        30,
		},
		{
			Slug:               "course-collector",
			Name:               "Course Collector",
			Description:        "Enroll in 5 courses",
			Icon:               "books",
			Category:           "learning",
			RequirementKind:    models.RequirementResourceCount,
			RequirementSubject: string(gamification.ResourceCourse),
			Threshold:          5,
			BonusPoints:        20,
		},

		// Building.
		{
			Slug:               "builder",
			Name:               "Builder",
			Description:        "Submit 3 projects",
			Icon:               "hammer",
			Category:           "projects",
			RequirementKind:    models.RequirementResourceCount,
			RequirementSubject: string(gamification.ResourceProject),
			Threshold:          3,
			BonusPoints:        20,
		},
		{
			Slug:               "shipped-it",
			Name:               "Shipped It",
			Description:        "Have 5 projects approved",
			Icon:               "rocket",
			Category:           "projects",
			RequirementKind:    models.RequirementResourceCount,
			RequirementSubject: string(gamification.ResourceApprovedProject),
			Threshold:          5,
			BonusPoints:        50,
		},
	}
}
