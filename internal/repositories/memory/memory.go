// file: internal/repositories/memory/memory.go
//
// In-memory implementations of the gamification repositories. They back the
// engine's unit tests and local development without postgres, and they mirror
// the storage-level guarantees the SQL implementations rely on: atomic
// increments, dedup-key uniqueness, and unique (user, badge) pairs.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"skillforge/internal/gamification"
	"skillforge/internal/models"
	"skillforge/internal/repositories"

	"golang.org/x/exp/slices"
)

// Store holds all in-memory state behind one mutex. Operations are short and
// the guard keeps the cross-table invariants simple to reason about.
type Store struct {
	mu sync.Mutex

	users          map[int64]*models.User
	transactions   []*models.PointTransaction
	dedupKeys      map[string]struct{} // "userID:dedupKey"
	summaries      map[int64]*models.UserPointsSummary
	badges         map[int64]*models.Badge
	badgesBySlug   map[string]int64
	userBadges     map[string]time.Time // "userID:badgeID"
	resourceCounts map[string]int64     // "userID:kind"
	activities     []*models.Activity

	nextTransactionID int64
	nextBadgeID       int64
	nextActivityID    int64

	failAwardsRemaining int

	// FailResourceKinds simulates transient collaborator lookup failures for
	// the named resource kinds.
	FailResourceKinds map[gamification.ResourceKind]bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:             map[int64]*models.User{},
		dedupKeys:         map[string]struct{}{},
		summaries:         map[int64]*models.UserPointsSummary{},
		badges:            map[int64]*models.Badge{},
		badgesBySlug:      map[string]int64{},
		userBadges:        map[string]time.Time{},
		resourceCounts:    map[string]int64{},
		FailResourceKinds: map[gamification.ResourceKind]bool{},
	}
}

// Collection returns the store wired as a repository collection.
func (s *Store) Collection() *repositories.Collection {
	return &repositories.Collection{
		Points:   s,
		Badges:   s,
		Stats:    s,
		Users:    s,
		Activity: s,
	}
}

// ===============================
// TEST FIXTURES
// ===============================

// AddUser registers a user.
func (s *Store) AddUser(user *models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

// SetResourceCount fixes the collaborator-owned count for a user and kind.
func (s *Store) SetResourceCount(userID int64, kind gamification.ResourceKind, count int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resourceCounts[fmt.Sprintf("%d:%s", userID, kind)] = count
}

// FailNextAward makes the next RecordAward fail before writing anything,
// mirroring a rolled-back storage transaction.
func (s *Store) FailNextAward() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAwardsRemaining++
}

// Transactions returns a snapshot of the ledger.
func (s *Store) Transactions() []*models.PointTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.PointTransaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// ===============================
// PointsRepository
// ===============================

// RecordAward mirrors the SQL implementation's all-or-nothing contract: the
// ledger append and the summary increment happen under one lock, and an
// injected failure writes nothing at all.
func (s *Store) RecordAward(_ context.Context, tx *models.PointTransaction) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var dedupMapKey string
	if tx.DedupKey != nil {
		dedupMapKey = fmt.Sprintf("%d:%s", tx.UserID, *tx.DedupKey)
		if _, exists := s.dedupKeys[dedupMapKey]; exists {
			return false, 0, nil
		}
	}

	if s.failAwardsRemaining > 0 {
		s.failAwardsRemaining--
		return false, 0, fmt.Errorf("simulated storage failure")
	}

	if dedupMapKey != "" {
		s.dedupKeys[dedupMapKey] = struct{}{}
	}

	s.nextTransactionID++
	tx.ID = s.nextTransactionID
	tx.CreatedAt = time.Now().UTC()

	cp := *tx
	s.transactions = append(s.transactions, &cp)

	summary, ok := s.summaries[tx.UserID]
	if !ok {
		summary = &models.UserPointsSummary{UserID: tx.UserID, Level: 1}
		s.summaries[tx.UserID] = summary
	}
	summary.TotalPoints += int64(tx.Points)
	summary.UpdatedAt = time.Now().UTC()

	return true, summary.TotalPoints, nil
}

// IncrementSummary seeds a summary row without a ledger counterpart. Fixture
// only; production writes go through RecordAward.
func (s *Store) IncrementSummary(_ context.Context, userID int64, delta int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, ok := s.summaries[userID]
	if !ok {
		summary = &models.UserPointsSummary{UserID: userID, Level: 1}
		s.summaries[userID] = summary
	}
	summary.TotalPoints += int64(delta)
	summary.UpdatedAt = time.Now().UTC()
	return summary.TotalPoints, nil
}

func (s *Store) SetSummaryLevel(_ context.Context, userID int64, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if summary, ok := s.summaries[userID]; ok {
		summary.Level = level
	}
	return nil
}

func (s *Store) GetSummary(_ context.Context, userID int64) (*models.UserPointsSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary, ok := s.summaries[userID]
	if !ok {
		return nil, nil
	}
	cp := *summary
	return &cp, nil
}

func (s *Store) ListRecentTransactions(_ context.Context, userID int64, limit int) ([]*models.PointTransaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.PointTransaction
	for i := len(s.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if s.transactions[i].UserID == userID {
			cp := *s.transactions[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) SumPoints(_ context.Context, userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			total += int64(tx.Points)
		}
	}
	return total, nil
}

func (s *Store) CountEvents(_ context.Context, userID int64, eventType gamification.EventType) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, tx := range s.transactions {
		if tx.UserID == userID && tx.EventType == string(eventType) {
			count++
		}
	}
	return count, nil
}

func (s *Store) GetLeaderboard(_ context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []*models.LeaderboardEntry
	for userID, summary := range s.summaries {
		user, ok := s.users[userID]
		if !ok || !user.IsActive {
			continue
		}
		entries = append(entries, &models.LeaderboardEntry{
			UserID:      userID,
			Username:    user.Username,
			DisplayName: user.DisplayName,
			AvatarURL:   user.AvatarURL,
			TotalPoints: summary.TotalPoints,
			Level:       summary.Level,
			UpdatedAt:   summary.UpdatedAt,
		})
	}

	slices.SortFunc(entries, func(a, b *models.LeaderboardEntry) int {
		if a.TotalPoints != b.TotalPoints {
			if a.TotalPoints > b.TotalPoints {
				return -1
			}
			return 1
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			if a.UpdatedAt.Before(b.UpdatedAt) {
				return -1
			}
			return 1
		}
		if a.UserID < b.UserID {
			return -1
		}
		if a.UserID > b.UserID {
			return 1
		}
		return 0
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	for i, entry := range entries {
		entry.Rank = i + 1
	}
	return entries, nil
}

// ===============================
// BadgeRepository
// ===============================

func (s *Store) SeedBadges(_ context.Context, badges []*models.Badge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, badge := range badges {
		if id, exists := s.badgesBySlug[badge.Slug]; exists {
			cp := *badge
			cp.ID = id
			cp.CreatedAt = s.badges[id].CreatedAt
			s.badges[id] = &cp
			continue
		}
		s.nextBadgeID++
		cp := *badge
		cp.ID = s.nextBadgeID
		cp.CreatedAt = time.Now().UTC()
		s.badges[cp.ID] = &cp
		s.badgesBySlug[cp.Slug] = cp.ID
	}
	return nil
}

func (s *Store) ListBadges(_ context.Context) ([]*models.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedBadgesLocked(), nil
}

func (s *Store) ListBadgesWithStats(_ context.Context) ([]*models.BadgeWithStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := map[int64]int64{}
	for key := range s.userBadges {
		var userID, badgeID int64
		fmt.Sscanf(key, "%d:%d", &userID, &badgeID)
		counts[badgeID]++
	}

	var out []*models.BadgeWithStats
	for _, badge := range s.sortedBadgesLocked() {
		out = append(out, &models.BadgeWithStats{Badge: *badge, EarnedCount: counts[badge.ID]})
	}
	return out, nil
}

func (s *Store) ListUnearnedBadges(_ context.Context, userID int64) ([]*models.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Badge
	for _, badge := range s.sortedBadgesLocked() {
		if _, earned := s.userBadges[fmt.Sprintf("%d:%d", userID, badge.ID)]; !earned {
			out = append(out, badge)
		}
	}
	return out, nil
}

func (s *Store) InsertUserBadge(_ context.Context, userID, badgeID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := fmt.Sprintf("%d:%d", userID, badgeID)
	if _, exists := s.userBadges[key]; exists {
		return false, nil
	}
	s.userBadges[key] = time.Now().UTC()
	return true, nil
}

func (s *Store) ListUserBadges(_ context.Context, userID int64) ([]*models.UserBadge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.UserBadge
	for _, badge := range s.sortedBadgesLocked() {
		key := fmt.Sprintf("%d:%d", userID, badge.ID)
		earnedAt, exists := s.userBadges[key]
		if !exists {
			continue
		}
		cp := *badge
		out = append(out, &models.UserBadge{
			UserID:   userID,
			BadgeID:  badge.ID,
			EarnedAt: earnedAt,
			Badge:    &cp,
		})
	}
	return out, nil
}

func (s *Store) sortedBadgesLocked() []*models.Badge {
	out := make([]*models.Badge, 0, len(s.badges))
	for _, badge := range s.badges {
		out = append(out, badge)
	}
	slices.SortFunc(out, func(a, b *models.Badge) int {
		return int(a.ID - b.ID)
	})
	return out
}

// ===============================
// StatsRepository
// ===============================

func (s *Store) CountResources(_ context.Context, userID int64, kind gamification.ResourceKind) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailResourceKinds[kind] {
		return 0, fmt.Errorf("simulated lookup failure for %s", kind)
	}
	return s.resourceCounts[fmt.Sprintf("%d:%s", userID, kind)], nil
}

// ===============================
// UserRepository
// ===============================

func (s *Store) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (s *Store) Exists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	return ok && user.IsActive, nil
}

// ===============================
// ActivityRepository
// ===============================

func (s *Store) Insert(_ context.Context, activity *models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextActivityID++
	activity.ID = s.nextActivityID
	activity.CreatedAt = time.Now().UTC()
	cp := *activity
	s.activities = append(s.activities, &cp)
	return nil
}

func (s *Store) ListRecent(_ context.Context, userID int64, limit int) ([]*models.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Activity
	for i := len(s.activities) - 1; i >= 0 && len(out) < limit; i-- {
		if s.activities[i].UserID == userID {
			cp := *s.activities[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

var _ repositories.PointsRepository = (*Store)(nil)
var _ repositories.BadgeRepository = (*Store)(nil)
var _ repositories.StatsRepository = (*Store)(nil)
var _ repositories.UserRepository = (*Store)(nil)
var _ repositories.ActivityRepository = (*Store)(nil)
