// file: internal/handlers/api/v1/gamification/gamification_controller.go
package gamification

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"skillforge/internal/response"
	"skillforge/internal/services"
)

// Controller exposes the gamification engine over HTTP.
type Controller struct {
	gamification services.GamificationService
	activity     services.ActivityService
	logger       *zap.Logger
	builder      *response.Builder
}

// NewController creates a new gamification controller.
func NewController(
	gamificationService services.GamificationService,
	activityService services.ActivityService,
	logger *zap.Logger,
	builder *response.Builder,
) *Controller {
	return &Controller{
		gamification: gamificationService,
		activity:     activityService,
		logger:       logger,
		builder:      builder,
	}
}

// AwardPoints handles POST /gamification/events.
func (c *Controller) AwardPoints(w http.ResponseWriter, r *http.Request) {
	var req services.AwardPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.builder.Error(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	result, err := c.gamification.AwardPoints(r.Context(), &req)
	if err != nil {
		c.builder.Error(w, r, err)
		return
	}

	if result.Deduplicated {
		c.builder.Success(w, r, result)
		return
	}
	c.builder.Created(w, r, result)
}

// GetUserPoints handles GET /users/{id}/points. The include query parameter
// accepts a comma-separated subset of "history" and "badges".
func (c *Controller) GetUserPoints(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.pathUserID(w, r)
	if !ok {
		return
	}

	resp, err := c.gamification.GetUserPointsAndLevel(r.Context(), userID)
	if err != nil {
		c.builder.Error(w, r, err)
		return
	}

	for _, include := range strings.Split(r.URL.Query().Get("include"), ",") {
		switch strings.TrimSpace(include) {
		case "history":
			transactions, err := c.gamification.GetRecentTransactions(r.Context(), userID, c.queryLimit(r))
			if err != nil {
				c.builder.Error(w, r, err)
				return
			}
			resp.RecentTransactions = transactions
		case "badges":
			badges, err := c.gamification.GetUserBadges(r.Context(), userID)
			if err != nil {
				c.builder.Error(w, r, err)
				return
			}
			resp.Badges = badges
		}
	}

	c.builder.Success(w, r, resp)
}

// GetUserBadges handles GET /users/{id}/badges.
func (c *Controller) GetUserBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.pathUserID(w, r)
	if !ok {
		return
	}

	badges, err := c.gamification.GetUserBadges(r.Context(), userID)
	if err != nil {
		c.builder.Error(w, r, err)
		return
	}
	c.builder.Success(w, r, badges)
}

// GetUserActivity handles GET /users/{id}/activity.
func (c *Controller) GetUserActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := c.pathUserID(w, r)
	if !ok {
		return
	}

	activities, err := c.activity.GetRecentActivity(r.Context(), userID, c.queryLimit(r))
	if err != nil {
		c.builder.Error(w, r, err)
		return
	}
	c.builder.Success(w, r, activities)
}

// GetBadgeCatalog handles GET /badges.
func (c *Controller) GetBadgeCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := c.gamification.GetBadgeCatalog(r.Context())
	if err != nil {
		c.builder.Error(w, r, err)
		return
	}
	c.builder.Success(w, r, catalog)
}

// GetLeaderboard handles GET /leaderboard.
func (c *Controller) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := c.gamification.GetLeaderboard(r.Context(), c.queryLimit(r))
	if err != nil {
		c.builder.Error(w, r, err)
		return
	}
	c.builder.Success(w, r, entries)
}

// SeedBadges handles POST /admin/badges/seed.
func (c *Controller) SeedBadges(w http.ResponseWriter, r *http.Request) {
	if err := c.gamification.SeedBadges(r.Context()); err != nil {
		c.builder.Error(w, r, err)
		return
	}
	c.builder.Success(w, r, map[string]string{"status": "seeded"})
}

// ===============================
// HELPERS
// ===============================

func (c *Controller) pathUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		c.builder.BadRequest(w, r, "invalid user id")
		return 0, false
	}
	return userID, true
}

func (c *Controller) queryLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return limit
}
