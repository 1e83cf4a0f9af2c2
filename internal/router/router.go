package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"skillforge/internal/database"
	gamificationapi "skillforge/internal/handlers/api/v1/gamification"
	"skillforge/internal/middleware"
	"skillforge/internal/realtime"
	"skillforge/internal/response"
	"skillforge/internal/services"
)

// Dependencies holds everything the router wires together.
type Dependencies struct {
	Gamification services.GamificationService
	Activity     services.ActivityService
	Auth         *middleware.AuthMiddleware
	Builder      *response.Builder
	Hub          *realtime.Hub
	DB           *database.Manager
	Logger       *zap.Logger
}

// New configures all HTTP routes and returns the root handler.
func New(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recovery(deps.Builder, deps.Logger))

	r.Get("/health", healthHandler(deps))

	controller := gamificationapi.NewController(deps.Gamification, deps.Activity, deps.Logger, deps.Builder)

	r.Route("/api/v1", func(r chi.Router) {
		// Public reads.
		r.Get("/badges", controller.GetBadgeCatalog)
		r.Get("/leaderboard", controller.GetLeaderboard)
		r.Get("/users/{id}/points", controller.GetUserPoints)
		r.Get("/users/{id}/badges", controller.GetUserBadges)
		r.Get("/users/{id}/activity", controller.GetUserActivity)

		// Writes require authentication.
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireAuth)
			r.Post("/gamification/events", controller.AwardPoints)
			r.Post("/admin/badges/seed", controller.SeedBadges)
		})
	})

	r.Get("/ws", deps.Hub.ServeWS)

	return r
}

func healthHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.Health(r.Context()); err != nil {
			deps.Builder.InternalError(w, r, "database unavailable")
			return
		}
		deps.Builder.Success(w, r, map[string]string{"status": "ok"})
	}
}
