// file: internal/services/gamification_service.go
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"skillforge/internal/cache"
	"skillforge/internal/events"
	"skillforge/internal/gamification"
	"skillforge/internal/models"
	"skillforge/internal/repositories"
	"skillforge/internal/validation"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

const (
	leaderboardCacheKey  = "gamification:leaderboard"
	badgeCatalogCacheKey = "gamification:badge_catalog"

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// gamificationService implements GamificationService. All storage access
// goes through the repository collection, which is an explicit constructor
// parameter so tests can substitute the in-memory implementations.
type gamificationService struct {
	repos  *repositories.Collection
	config *gamification.Config
	bus    *events.Bus
	cache  cache.Cache
	logger *zap.Logger
}

// NewGamificationService creates the gamification engine.
func NewGamificationService(
	repos *repositories.Collection,
	config *gamification.Config,
	bus *events.Bus,
	cacheInstance cache.Cache,
	logger *zap.Logger,
) GamificationService {
	return &gamificationService{
		repos:  repos,
		config: config,
		bus:    bus,
		cache:  cacheInstance,
		logger: logger,
	}
}

// ===============================
// AWARDING
// ===============================

// AwardPoints appends one ledger transaction, atomically updates the user's
// summary, and re-evaluates badges. Validation failures are rejected before
// anything is written; a deduplicated milestone is a no-op success.
func (s *gamificationService) AwardPoints(ctx context.Context, req *AwardPointsRequest) (*AwardResult, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid award request", err)
	}

	eventType := gamification.EventType(req.EventType)
	if !gamification.IsKnownEventType(eventType) {
		return nil, NewValidationError(fmt.Sprintf("unknown event type %q", req.EventType), nil)
	}
	if eventType == gamification.EventBadgeBonus {
		// badge_bonus rows are written only by the evaluator itself.
		return nil, NewValidationError("badge_bonus cannot be awarded directly", nil)
	}
	if (req.ResourceType == nil) != (req.ResourceID == nil) {
		// A partial reference would silently widen a milestone's dedup key
		// to the whole event type.
		return nil, NewValidationError("resource_type and resource_id must be provided together", nil)
	}

	points, configured := s.config.PointsFor(eventType)
	if req.Points != nil {
		points = *req.Points
	} else if !configured {
		return nil, NewValidationError(fmt.Sprintf("event type %q requires explicit points", req.EventType), nil)
	}

	exists, err := s.repos.Users.Exists(ctx, req.UserID)
	if err != nil {
		return nil, NewInternalError("failed to verify user", err)
	}
	if !exists {
		return nil, NewNotFoundError(fmt.Sprintf("user %d not found", req.UserID))
	}

	tx := &models.PointTransaction{
		UserID:       req.UserID,
		EventType:    req.EventType,
		Points:       points,
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Description:  req.Description,
		DedupKey:     dedupKey(eventType, req.ResourceType, req.ResourceID),
	}

	// The ledger append and the summary increment commit or roll back as one
	// unit, so a failure here leaves no trace and the caller can retry.
	inserted, newTotal, err := s.repos.Points.RecordAward(ctx, tx)
	if err != nil {
		return nil, NewInternalError("failed to record point award", err)
	}
	if !inserted {
		// The milestone was already recorded; report current state.
		result := &AwardResult{Deduplicated: true}
		if summary, err := s.repos.Points.GetSummary(ctx, req.UserID); err == nil && summary != nil {
			result.NewTotal = summary.TotalPoints
		}
		result.Level = s.config.LevelForPoints(result.NewTotal)
		return result, nil
	}

	level, leveledUp := s.refreshLevel(ctx, req.UserID, newTotal, points)

	s.bus.Publish(ctx, events.PointsAwarded{
		UserID:    req.UserID,
		EventName: req.EventType,
		Points:    points,
		NewTotal:  newTotal,
		Level:     level,
		Timestamp: time.Now().UTC(),
	})

	result := &AwardResult{
		Transaction: tx,
		NewTotal:    newTotal,
		Level:       level,
		LeveledUp:   leveledUp,
	}

	// Badge evaluation is downstream of the committed ledger write: its
	// failure never invalidates the award.
	earned, evalErr := s.EvaluateBadges(ctx, req.UserID)
	if evalErr != nil {
		s.logger.Warn("badge evaluation incomplete after award",
			zap.Int64("user_id", req.UserID),
			zap.Error(evalErr),
		)
	}
	result.BadgesEarned = earned

	if len(earned) > 0 {
		// Bonus points may have moved the total and level.
		if summary, err := s.repos.Points.GetSummary(ctx, req.UserID); err == nil && summary != nil {
			result.NewTotal = summary.TotalPoints
			result.LeveledUp = result.LeveledUp || summary.Level > result.Level
			result.Level = summary.Level
		}
	}

	s.invalidateLeaderboard(ctx)

	s.logger.Info("points awarded",
		zap.Int64("user_id", req.UserID),
		zap.String("event_type", req.EventType),
		zap.Int("points", points),
		zap.Int64("new_total", result.NewTotal),
		zap.Int("badges_earned", len(earned)),
	)

	return result, nil
}

// refreshLevel recaches the level derived from the new total and publishes a
// level-up event when the delta crossed a threshold.
func (s *gamificationService) refreshLevel(ctx context.Context, userID int64, newTotal int64, delta int) (level int, leveledUp bool) {
	level = s.config.LevelForPoints(newTotal)
	oldLevel := s.config.LevelForPoints(newTotal - int64(delta))
	if err := s.repos.Points.SetSummaryLevel(ctx, userID, level); err != nil {
		// Cosmetic cache only; the level is reproducible from the total.
		s.logger.Warn("failed to cache level", zap.Int64("user_id", userID), zap.Error(err))
	}

	if level > oldLevel {
		s.bus.Publish(ctx, events.LevelUp{
			UserID:    userID,
			OldLevel:  oldLevel,
			NewLevel:  level,
			Timestamp: time.Now().UTC(),
		})
		return level, true
	}
	return level, false
}

// dedupKey builds the uniqueness key for deduplicable milestones. Events
// without a triggering resource dedup on the event type alone (at most once
// per user, ever).
func dedupKey(eventType gamification.EventType, resourceType *string, resourceID *int64) *string {
	if !gamification.IsDeduplicable(eventType) {
		return nil
	}
	key := string(eventType)
	if resourceType != nil && resourceID != nil {
		key = fmt.Sprintf("%s:%s:%d", eventType, *resourceType, *resourceID)
	}
	return &key
}

// ===============================
// BADGE EVALUATION
// ===============================

// EvaluateBadges re-checks the user's unearned badges and awards any whose
// requirement is now met. Safe to call redundantly and concurrently: the
// (user_id, badge_id) uniqueness constraint guards double-awarding. Bonus
// points can unlock further point-based badges, so evaluation repeats until
// a pass earns nothing (bounded by MaxEvaluationPasses).
func (s *gamificationService) EvaluateBadges(ctx context.Context, userID int64) ([]*models.Badge, error) {
	var newlyEarned []*models.Badge
	var errs *multierror.Error

	for pass := 0; pass < s.config.MaxEvaluationPasses; pass++ {
		unearned, err := s.repos.Badges.ListUnearnedBadges(ctx, userID)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("list unearned badges: %w", err))
			break
		}

		earnedThisPass := 0
		for _, badge := range unearned {
			// One badge's failure must not block the rest.
			current, err := s.requirementValue(ctx, userID, badge)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("badge %s: %w", badge.Slug, err))
				continue
			}
			if current < badge.Threshold {
				continue
			}

			inserted, err := s.repos.Badges.InsertUserBadge(ctx, userID, badge.ID)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("badge %s: %w", badge.Slug, err))
				continue
			}
			if !inserted {
				// A concurrent evaluation got there first.
				continue
			}

			earnedThisPass++
			newlyEarned = append(newlyEarned, badge)

			s.bus.Publish(ctx, events.BadgeEarned{
				UserID:    userID,
				BadgeSlug: badge.Slug,
				BadgeName: badge.Name,
				Bonus:     badge.BonusPoints,
				Timestamp: time.Now().UTC(),
			})
			s.logger.Info("badge earned",
				zap.Int64("user_id", userID),
				zap.String("badge", badge.Slug),
			)

			if badge.BonusPoints > 0 {
				if err := s.awardBadgeBonus(ctx, userID, badge); err != nil {
					errs = multierror.Append(errs, fmt.Errorf("badge %s bonus: %w", badge.Slug, err))
				}
			}
		}

		if earnedThisPass == 0 {
			break
		}
	}

	return newlyEarned, errs.ErrorOrNil()
}

// awardBadgeBonus appends the badge_bonus transaction through the same
// ledger path as any other award.
func (s *gamificationService) awardBadgeBonus(ctx context.Context, userID int64, badge *models.Badge) error {
	description := fmt.Sprintf("Bonus for earning the %s badge", badge.Name)
	tx := &models.PointTransaction{
		UserID:      userID,
		EventType:   string(gamification.EventBadgeBonus),
		Points:      badge.BonusPoints,
		Description: &description,
	}

	_, newTotal, err := s.repos.Points.RecordAward(ctx, tx)
	if err != nil {
		return err
	}
	level, _ := s.refreshLevel(ctx, userID, newTotal, badge.BonusPoints)

	s.bus.Publish(ctx, events.PointsAwarded{
		UserID:    userID,
		EventName: string(gamification.EventBadgeBonus),
		Points:    badge.BonusPoints,
		NewTotal:  newTotal,
		Level:     level,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// requirementValue resolves the user's current value for a badge's
// requirement kind.
func (s *gamificationService) requirementValue(ctx context.Context, userID int64, badge *models.Badge) (int64, error) {
	switch badge.RequirementKind {
	case models.RequirementTotalPoints:
		summary, err := s.repos.Points.GetSummary(ctx, userID)
		if err != nil {
			return 0, err
		}
		if summary == nil {
			return 0, nil
		}
		return summary.TotalPoints, nil

	case models.RequirementResourceCount:
		return s.repos.Stats.CountResources(ctx, userID, gamification.ResourceKind(badge.RequirementSubject))

	case models.RequirementEventCount:
		return s.repos.Points.CountEvents(ctx, userID, gamification.EventType(badge.RequirementSubject))

	default:
		return 0, fmt.Errorf("unknown requirement kind %q", badge.RequirementKind)
	}
}

// ===============================
// READS
// ===============================

// GetUserPointsAndLevel returns the current total, level, and progress
// toward the next level. Users without a summary row are level 1 at zero.
func (s *gamificationService) GetUserPointsAndLevel(ctx context.Context, userID int64) (*UserPointsResponse, error) {
	exists, err := s.repos.Users.Exists(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to verify user", err)
	}
	if !exists {
		return nil, NewNotFoundError(fmt.Sprintf("user %d not found", userID))
	}

	summary, err := s.repos.Points.GetSummary(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load points summary", err)
	}

	resp := &UserPointsResponse{UserID: userID, Level: 1}
	if summary != nil {
		resp.TotalPoints = summary.TotalPoints
		updatedAt := summary.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}

	// Levels are recomputed from the total on read; the cached column is a
	// display shortcut, never the authority.
	resp.Level = s.config.LevelForPoints(resp.TotalPoints)
	resp.LevelProgress = s.config.ProgressForPoints(resp.TotalPoints)
	if next, ok := s.config.NextLevelThreshold(resp.TotalPoints); ok {
		resp.NextLevelPoints = &next
	}

	return resp, nil
}

// GetRecentTransactions returns the most recent ledger rows for a user.
func (s *gamificationService) GetRecentTransactions(ctx context.Context, userID int64, limit int) ([]*models.PointTransaction, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	transactions, err := s.repos.Points.ListRecentTransactions(ctx, userID, limit)
	if err != nil {
		return nil, NewInternalError("failed to load point transactions", err)
	}
	return transactions, nil
}

// GetUserBadges returns the user's earned badges with definitions.
func (s *gamificationService) GetUserBadges(ctx context.Context, userID int64) ([]*models.UserBadge, error) {
	badges, err := s.repos.Badges.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load user badges", err)
	}
	return badges, nil
}

// GetBadgeCatalog returns the catalog with community-wide earned counts.
func (s *gamificationService) GetBadgeCatalog(ctx context.Context) ([]*models.BadgeWithStats, error) {
	if data, ok := s.cacheGet(ctx, badgeCatalogCacheKey); ok {
		var cached []*models.BadgeWithStats
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	catalog, err := s.repos.Badges.ListBadgesWithStats(ctx)
	if err != nil {
		return nil, NewInternalError("failed to load badge catalog", err)
	}

	s.cacheSet(ctx, badgeCatalogCacheKey, catalog, s.config.CatalogCacheTTL)
	return catalog, nil
}

// SeedBadges upserts the default badge catalog. Administrative and
// idempotent; not part of the award hot path.
func (s *gamificationService) SeedBadges(ctx context.Context) error {
	if err := s.repos.Badges.SeedBadges(ctx, DefaultBadgeCatalog()); err != nil {
		return NewInternalError("failed to seed badge catalog", err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, badgeCatalogCacheKey)
	}
	return nil
}

// ===============================
// LEADERBOARD
// ===============================

// GetLeaderboard returns the ranked projection, clamped to the configured
// hard cap. The full capped list is cached and sliced per request.
func (s *gamificationService) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 || limit > s.config.LeaderboardLimit {
		limit = s.config.LeaderboardLimit
	}

	if data, ok := s.cacheGet(ctx, leaderboardCacheKey); ok {
		var cached []*models.LeaderboardEntry
		if err := json.Unmarshal(data, &cached); err == nil {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			return cached, nil
		}
	}

	entries, err := s.repos.Points.GetLeaderboard(ctx, s.config.LeaderboardLimit)
	if err != nil {
		return nil, NewInternalError("failed to load leaderboard", err)
	}

	s.cacheSet(ctx, leaderboardCacheKey, entries, s.config.LeaderboardCacheTTL)

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *gamificationService) invalidateLeaderboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, leaderboardCacheKey); err != nil {
		s.logger.Debug("failed to invalidate leaderboard cache", zap.Error(err))
	}
}

// ===============================
// CACHE HELPERS
// ===============================

func (s *gamificationService) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, key)
}

func (s *gamificationService) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s.cache == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Debug("failed to marshal cache value", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		s.logger.Debug("failed to set cache value", zap.String("key", key), zap.Error(err))
	}
}
