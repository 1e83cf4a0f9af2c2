// file: internal/services/gamification_service_test.go
package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"skillforge/internal/cache"
	"skillforge/internal/events"
	"skillforge/internal/gamification"
	"skillforge/internal/models"
	"skillforge/internal/repositories/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (GamificationService, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	bus := events.NewBus(zap.NewNop())
	t.Cleanup(bus.Close)

	c := cache.NewMemoryCache(zap.NewNop())
	t.Cleanup(func() { _ = c.Close() })

	svc := NewGamificationService(store.Collection(), gamification.DefaultConfig(), bus, c, zap.NewNop())
	return svc, store
}

func addUser(store *memory.Store, id int64) {
	store.AddUser(&models.User{
		ID:       id,
		Username: fmt.Sprintf("user%d", id),
		IsActive: true,
	})
}

func award(t *testing.T, svc GamificationService, userID int64, eventType gamification.EventType) *AwardResult {
	t.Helper()
	result, err := svc.AwardPoints(context.Background(), &AwardPointsRequest{
		UserID:    userID,
		EventType: string(eventType),
	})
	require.NoError(t, err)
	return result
}

// ===============================
// AWARDING
// ===============================

func TestAwardPointsUpdatesTotalAndLevel(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	result := award(t, svc, 1, gamification.EventProjectFeatured)

	assert.False(t, result.Deduplicated)
	assert.Equal(t, int64(50), result.NewTotal)
	assert.Equal(t, 1, result.Level)
	assert.False(t, result.LeveledUp)

	result = award(t, svc, 1, gamification.EventProjectFeatured)
	require.False(t, result.Deduplicated)
	assert.Equal(t, int64(100), result.NewTotal)
	assert.Equal(t, 2, result.Level)
	assert.True(t, result.LeveledUp)
}

func TestAwardPointsRejectsUnknownEventType(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	_, err := svc.AwardPoints(context.Background(), &AwardPointsRequest{
		UserID:    1,
		EventType: "logged_in",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, store.Transactions())
}

func TestAwardPointsRejectsDirectBadgeBonus(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	_, err := svc.AwardPoints(context.Background(), &AwardPointsRequest{
		UserID:    1,
		EventType: string(gamification.EventBadgeBonus),
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestAwardPointsUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AwardPoints(context.Background(), &AwardPointsRequest{
		UserID:    42,
		EventType: string(gamification.EventCommentAdded),
	})
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestAwardPointsOverride(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	override := 77
	result, err := svc.AwardPoints(context.Background(), &AwardPointsRequest{
		UserID:    1,
		EventType: string(gamification.EventCommentAdded),
		Points:    &override,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(77), result.NewTotal)
}

// ===============================
// DEDUPLICATION
// ===============================

func TestAwardPointsDeduplicatesMilestones(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	first := award(t, svc, 1, gamification.EventFirstEnrollment)
	require.False(t, first.Deduplicated)
	assert.Equal(t, int64(25), first.NewTotal)

	second := award(t, svc, 1, gamification.EventFirstEnrollment)
	assert.True(t, second.Deduplicated)
	assert.Nil(t, second.Transaction)
	assert.Equal(t, int64(25), second.NewTotal)

	assert.Len(t, store.Transactions(), 1)
}

func TestAwardPointsDedupScopedToResource(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	courseType := "course"
	awardForCourse := func(courseID int64) *AwardResult {
		result, err := svc.AwardPoints(context.Background(), &AwardPointsRequest{
			UserID:       1,
			EventType:    string(gamification.EventCourseEnrolled),
			ResourceType: &courseType,
			ResourceID:   &courseID,
		})
		require.NoError(t, err)
		return result
	}

	assert.False(t, awardForCourse(10).Deduplicated)
	assert.False(t, awardForCourse(11).Deduplicated)
	assert.True(t, awardForCourse(10).Deduplicated)
	assert.Len(t, store.Transactions(), 2)
}

func TestAwardPointsRejectsPartialResourceReference(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	courseType := "course"
	_, err := svc.AwardPoints(context.Background(), &AwardPointsRequest{
		UserID:       1,
		EventType:    string(gamification.EventCourseEnrolled),
		ResourceType: &courseType,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, store.Transactions())
}

func TestRecurringEventsNeverDeduplicate(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	for i := 0; i < 5; i++ {
		result := award(t, svc, 1, gamification.EventCommentAdded)
		require.False(t, result.Deduplicated)
	}
	assert.Len(t, store.Transactions(), 5)
}

// ===============================
// LEDGER INVARIANT
// ===============================

func TestSummaryMatchesLedgerSum(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)
	require.NoError(t, svc.SeedBadges(context.Background()))

	award(t, svc, 1, gamification.EventDiscussionCreated)
	award(t, svc, 1, gamification.EventProjectSubmitted)
	award(t, svc, 1, gamification.EventProjectFeatured)
	for i := 0; i < 10; i++ {
		award(t, svc, 1, gamification.EventCommentAdded)
	}

	ctx := context.Background()
	summary, err := store.GetSummary(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, summary)

	sum, err := store.SumPoints(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, sum, summary.TotalPoints)
}

func TestFailedAwardWritesNothing(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)
	ctx := context.Background()

	store.FailNextAward()
	_, err := svc.AwardPoints(ctx, &AwardPointsRequest{
		UserID:    1,
		EventType: string(gamification.EventFirstEnrollment),
	})
	require.Error(t, err)
	assert.Empty(t, store.Transactions())

	// The failed attempt left no ledger row behind, so the retry is a real
	// award rather than a dedup hit.
	result := award(t, svc, 1, gamification.EventFirstEnrollment)
	assert.False(t, result.Deduplicated)
	assert.Equal(t, int64(25), result.NewTotal)

	summary, err := store.GetSummary(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, summary)
	sum, err := store.SumPoints(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, sum, summary.TotalPoints)
	assert.Len(t, store.Transactions(), 1)
}

func TestConcurrentAwardsCountExactlyOnce(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.AwardPoints(context.Background(), &AwardPointsRequest{
				UserID:    1,
				EventType: string(gamification.EventCommentAdded),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	summary, err := store.GetSummary(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, int64(workers*2), summary.TotalPoints)
	assert.Len(t, store.Transactions(), workers)
}

// ===============================
// ASYNC AWARDS
// ===============================

func TestAwardPointsAsyncRetriesTransientFailure(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	store.FailNextAward()
	svc.AwardPointsAsync(&AwardPointsRequest{
		UserID:    1,
		EventType: string(gamification.EventCommentAdded),
	})

	// The first attempt fails; backoff retries until the award lands.
	require.Eventually(t, func() bool {
		summary, err := store.GetSummary(context.Background(), 1)
		return err == nil && summary != nil && summary.TotalPoints == 2
	}, 5*time.Second, 20*time.Millisecond)
	assert.Len(t, store.Transactions(), 1)
}

func TestAwardPointsAsyncValidationIsTerminal(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	svc.AwardPointsAsync(&AwardPointsRequest{
		UserID:    1,
		EventType: "logged_in",
	})

	// A rejected request is never retried into the ledger.
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, store.Transactions())
}

// ===============================
// BADGES
// ===============================

func seedBadges(t *testing.T, store *memory.Store, badges ...*models.Badge) {
	t.Helper()
	require.NoError(t, store.SeedBadges(context.Background(), badges))
}

func TestResourceCountBadgeEarnedOnce(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)
	seedBadges(t, store, &models.Badge{
		Slug:               "conversation-starter",
		Name:               "Conversation Starter",
		RequirementKind:    models.RequirementResourceCount,
		RequirementSubject: string(gamification.ResourceDiscussion),
		Threshold:          3,
	})

	ctx := context.Background()
	store.SetResourceCount(1, gamification.ResourceDiscussion, 2)
	award(t, svc, 1, gamification.EventDiscussionCreated)

	badges, err := svc.GetUserBadges(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, badges)

	store.SetResourceCount(1, gamification.ResourceDiscussion, 3)
	result := award(t, svc, 1, gamification.EventDiscussionCreated)
	require.Len(t, result.BadgesEarned, 1)
	assert.Equal(t, "conversation-starter", result.BadgesEarned[0].Slug)

	// Re-evaluation is idempotent.
	earned, err := svc.EvaluateBadges(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, earned)

	badges, err = svc.GetUserBadges(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, badges, 1)
}

func TestEventCountBadge(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)
	seedBadges(t, store, &models.Badge{
		Slug:               "commentator",
		Name:               "Commentator",
		RequirementKind:    models.RequirementEventCount,
		RequirementSubject: string(gamification.EventCommentAdded),
		Threshold:          3,
	})

	award(t, svc, 1, gamification.EventCommentAdded)
	result := award(t, svc, 1, gamification.EventCommentAdded)
	assert.Empty(t, result.BadgesEarned)

	// The third comment_added ledger row meets the threshold.
	result = award(t, svc, 1, gamification.EventCommentAdded)
	require.Len(t, result.BadgesEarned, 1)
	assert.Equal(t, "commentator", result.BadgesEarned[0].Slug)

	badges, err := svc.GetUserBadges(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, badges, 1)
}

func TestBadgeBonusUnlocksFurtherBadges(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)
	seedBadges(t, store,
		&models.Badge{
			Slug:            "first-fifty",
			Name:            "First Fifty",
			RequirementKind: models.RequirementTotalPoints,
			Threshold:       50,
			BonusPoints:     25,
		},
		&models.Badge{
			Slug:            "sixty-club",
			Name:            "Sixty Club",
			RequirementKind: models.RequirementTotalPoints,
			Threshold:       60,
		},
	)

	result := award(t, svc, 1, gamification.EventProjectFeatured)

	// 50 base points earn first-fifty; its 25 bonus pushes the total to 75,
	// which unlocks sixty-club in the following pass.
	require.Len(t, result.BadgesEarned, 2)
	assert.Equal(t, "first-fifty", result.BadgesEarned[0].Slug)
	assert.Equal(t, "sixty-club", result.BadgesEarned[1].Slug)
	assert.Equal(t, int64(75), result.NewTotal)

	sum, err := store.SumPoints(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(75), sum)
}

func TestBadgeEvaluationSurvivesFailingRequirement(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)
	seedBadges(t, store,
		&models.Badge{
			Slug:               "broken-lookup",
			Name:               "Broken Lookup",
			RequirementKind:    models.RequirementResourceCount,
			RequirementSubject: string(gamification.ResourceProject),
			Threshold:          1,
		},
		&models.Badge{
			Slug:            "first-ten",
			Name:            "First Ten",
			RequirementKind: models.RequirementTotalPoints,
			Threshold:       10,
		},
	)
	store.FailResourceKinds[gamification.ResourceProject] = true

	result := award(t, svc, 1, gamification.EventDiscussionCreated)
	require.Len(t, result.BadgesEarned, 1)
	assert.Equal(t, "first-ten", result.BadgesEarned[0].Slug)

	// The failing lookup surfaces from a direct evaluation, but never blocks
	// the badges that could be checked.
	_, err := svc.EvaluateBadges(context.Background(), 1)
	assert.Error(t, err)
}

func TestSeedBadgesIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedBadges(ctx))
	require.NoError(t, svc.SeedBadges(ctx))

	catalog, err := svc.GetBadgeCatalog(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, len(DefaultBadgeCatalog()))
}

// ===============================
// READS
// ===============================

func TestGetUserPointsAndLevelWithoutSummary(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	resp, err := svc.GetUserPointsAndLevel(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.TotalPoints)
	assert.Equal(t, 1, resp.Level)
	assert.Equal(t, float64(0), resp.LevelProgress)
	require.NotNil(t, resp.NextLevelPoints)
	assert.Equal(t, int64(100), *resp.NextLevelPoints)
}

func TestGetUserPointsAndLevelProgress(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	award(t, svc, 1, gamification.EventProjectFeatured)

	resp, err := svc.GetUserPointsAndLevel(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), resp.TotalPoints)
	assert.Equal(t, 1, resp.Level)
	assert.InDelta(t, 50.0, resp.LevelProgress, 0.001)
}

func TestGetRecentTransactionsOrderAndLimit(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)

	award(t, svc, 1, gamification.EventDiscussionCreated)
	award(t, svc, 1, gamification.EventCommentAdded)
	award(t, svc, 1, gamification.EventProjectSubmitted)

	transactions, err := svc.GetRecentTransactions(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, string(gamification.EventProjectSubmitted), transactions[0].EventType)
	assert.Equal(t, string(gamification.EventCommentAdded), transactions[1].EventType)
}

// ===============================
// LEADERBOARD
// ===============================

func TestLeaderboardOrderingAndRanks(t *testing.T) {
	svc, store := newTestService(t)
	for id := int64(1); id <= 3; id++ {
		addUser(store, id)
	}

	award(t, svc, 1, gamification.EventCommentAdded)
	award(t, svc, 2, gamification.EventProjectFeatured)
	award(t, svc, 3, gamification.EventDiscussionCreated)

	entries, err := svc.GetLeaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []int64{2, 3, 1}, []int64{entries[0].UserID, entries[1].UserID, entries[2].UserID})
	for i, entry := range entries {
		assert.Equal(t, i+1, entry.Rank)
	}
}

func TestLeaderboardTieBreaksByEarlierUpdate(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)
	addUser(store, 2)

	award(t, svc, 1, gamification.EventDiscussionCreated)
	time.Sleep(5 * time.Millisecond)
	award(t, svc, 2, gamification.EventDiscussionCreated)

	entries, err := svc.GetLeaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Equal totals; user 1 reached the score first and ranks higher.
	assert.Equal(t, int64(1), entries[0].UserID)
	assert.Equal(t, int64(2), entries[1].UserID)
}

func TestLeaderboardClampsLimit(t *testing.T) {
	svc, store := newTestService(t)
	for id := int64(1); id <= 5; id++ {
		addUser(store, id)
		award(t, svc, id, gamification.EventCommentAdded)
	}

	entries, err := svc.GetLeaderboard(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = svc.GetLeaderboard(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 5)

	entries, err = svc.GetLeaderboard(context.Background(), 100000)
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestLeaderboardExcludesInactiveUsers(t *testing.T) {
	svc, store := newTestService(t)
	addUser(store, 1)
	store.AddUser(&models.User{ID: 2, Username: "ghost", IsActive: false})

	award(t, svc, 1, gamification.EventCommentAdded)
	_, err := store.IncrementSummary(context.Background(), 2, 500)
	require.NoError(t, err)

	entries, err := svc.GetLeaderboard(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].UserID)
}
