// file: internal/gamification/levels.go
package gamification

// LevelForPoints maps a point total to a 1-indexed level. The first threshold
// is always 0, so every user is at least level 1. Negative totals (which the
// ledger should never produce, but ad-hoc corrections can) clamp to level 1.
func (c *Config) LevelForPoints(points int64) int {
	level := 1
	for i := 1; i < len(c.LevelThresholds); i++ {
		if points < c.LevelThresholds[i] {
			break
		}
		level = i + 1
	}
	return level
}

// ProgressForPoints returns the percentage progress toward the next level,
// 0 at the maximum level. For thresholds [0, 100, 300] and 250 points the
// user is level 2 at 75%.
func (c *Config) ProgressForPoints(points int64) float64 {
	level := c.LevelForPoints(points)
	if level >= len(c.LevelThresholds) {
		return 0
	}
	lower := c.LevelThresholds[level-1]
	upper := c.LevelThresholds[level]
	if points < lower {
		return 0
	}
	return float64(points-lower) / float64(upper-lower) * 100
}

// NextLevelThreshold returns the point total required for the next level and
// false at the maximum level.
func (c *Config) NextLevelThreshold(points int64) (int64, bool) {
	level := c.LevelForPoints(points)
	if level >= len(c.LevelThresholds) {
		return 0, false
	}
	return c.LevelThresholds[level], true
}
