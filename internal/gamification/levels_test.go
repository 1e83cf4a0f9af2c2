package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidateRejectsBadThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LevelThresholds = []int64{10, 100}
	assert.Error(t, cfg.Validate(), "first threshold must be 0")

	cfg.LevelThresholds = []int64{0, 100, 100}
	assert.Error(t, cfg.Validate(), "thresholds must be strictly increasing")
}

func TestLevelForPoints(t *testing.T) {
	cfg := &Config{LevelThresholds: []int64{0, 100, 300}}

	assert.Equal(t, 1, cfg.LevelForPoints(0))
	assert.Equal(t, 1, cfg.LevelForPoints(99))
	assert.Equal(t, 2, cfg.LevelForPoints(100))
	assert.Equal(t, 2, cfg.LevelForPoints(250))
	assert.Equal(t, 3, cfg.LevelForPoints(300))
	assert.Equal(t, 3, cfg.LevelForPoints(100000))
	assert.Equal(t, 1, cfg.LevelForPoints(-5))
}

func TestLevelIsNonDecreasing(t *testing.T) {
	cfg := DefaultConfig()
	prev := 0
	for pts := int64(0); pts <= 12000; pts += 7 {
		level := cfg.LevelForPoints(pts)
		require.GreaterOrEqual(t, level, prev, "level regressed at %d points", pts)
		prev = level
	}
}

func TestProgressForPoints(t *testing.T) {
	cfg := &Config{LevelThresholds: []int64{0, 100, 300}}

	assert.InDelta(t, 75.0, cfg.ProgressForPoints(250), 0.001)
	assert.InDelta(t, 0.0, cfg.ProgressForPoints(0), 0.001)
	assert.InDelta(t, 50.0, cfg.ProgressForPoints(50), 0.001)

	// Max level reports zero progress.
	assert.Equal(t, 0.0, cfg.ProgressForPoints(300))
	assert.Equal(t, 0.0, cfg.ProgressForPoints(9999))
}

func TestNextLevelThreshold(t *testing.T) {
	cfg := &Config{LevelThresholds: []int64{0, 100, 300}}

	next, ok := cfg.NextLevelThreshold(40)
	require.True(t, ok)
	assert.Equal(t, int64(100), next)

	_, ok = cfg.NextLevelThreshold(300)
	assert.False(t, ok)
}

func TestDeduplicableEvents(t *testing.T) {
	assert.True(t, IsDeduplicable(EventFirstEnrollment))
	assert.True(t, IsDeduplicable(EventLessonCompleted))
	assert.False(t, IsDeduplicable(EventCommentAdded))
	assert.False(t, IsDeduplicable(EventDiscussionCreated))
	assert.False(t, IsDeduplicable(EventBadgeBonus))
}

func TestEventTypeSetIsClosed(t *testing.T) {
	assert.True(t, IsKnownEventType(EventProjectFeatured))
	assert.False(t, IsKnownEventType("karma_added"))
}
