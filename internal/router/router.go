// file: internal/router/router.go
package router

import (
	"net/http"

	"ecolearn/internal/cache"
	"ecolearn/internal/config"
	"ecolearn/internal/database"
	"ecolearn/internal/handlers/api/v1/challenges"
	"ecolearn/internal/handlers/api/v1/chat"
	"ecolearn/internal/handlers/api/v1/profiles"
	"ecolearn/internal/handlers/api/v1/submissions"
	"ecolearn/internal/middleware"
	"ecolearn/internal/response"
	"ecolearn/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Dependencies holds everything the router needs
type Dependencies struct {
	Config   *config.Config
	Services *services.Collection
	DB       *database.Manager
	Cache    cache.Cache
	Logger   *zap.Logger
}

// New builds the HTTP handler with the full middleware chain and all
// API routes.
func New(deps *Dependencies) http.Handler {
	logger := deps.Logger
	responseBuilder := response.NewBuilder(&response.Config{Version: "v1"}, logger)

	challengeController := challenges.NewChallengeController(deps.Services.Challenges, logger, responseBuilder)
	submissionController := submissions.NewSubmissionController(deps.Services.Submissions, logger, responseBuilder)
	profileController := profiles.NewProfileController(deps.Services.Profiles, logger, responseBuilder)
	chatController := chat.NewChatController(deps.Services.Chat, logger, responseBuilder)

	rateLimitCfg := &middleware.RateLimiterConfig{
		Enabled:           deps.Config.RateLimit.Enabled,
		RequestsPerMinute: deps.Config.RateLimit.RequestsPerMinute,
	}
	requireAdmin := middleware.RequireAdmin(deps.Config.Auth.JWTSecret, logger)

	r := chi.NewRouter()

	// Order matters: request ID first so every later stage logs with it.
	r.Use(middleware.RequestID(logger))
	r.Use(middleware.RequestLogging())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RateLimit(rateLimitCfg, deps.Cache, logger))

	r.Get("/health", healthHandler(responseBuilder))
	r.Get("/readyz", readyzHandler(deps, responseBuilder))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/challenges", func(r chi.Router) {
			r.Get("/", challengeController.ListChallenges)
			r.Get("/{id}", challengeController.GetChallenge)
			r.Post("/{id}/submit", submissionController.Submit)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", challengeController.CreateChallenge)
				r.Put("/{id}", challengeController.UpdateChallenge)
			})
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Get("/user/{userID}", submissionController.ListByUser)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/pending", submissionController.ListPending)
				r.Put("/{id}/review", submissionController.Review)
			})
		})

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/leaderboard", profileController.Leaderboard)
			r.Get("/{userID}", profileController.GetProfile)
			r.Put("/{userID}", profileController.UpdateProfile)
		})

		r.Post("/chat", chatController.Send)
	})

	return r
}

func healthHandler(b *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.WriteSuccess(w, r, map[string]string{"status": "ok"})
	}
}

// readyzHandler checks the dependencies a live instance needs to serve.
func readyzHandler(deps *Dependencies, b *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbHealth := deps.DB.Health(r.Context())
		cacheErr := deps.Cache.Health(r.Context())

		ready := dbHealth.Healthy && cacheErr == nil
		payload := map[string]interface{}{
			"database": dbHealth,
			"cache":    "ok",
		}
		if cacheErr != nil {
			payload["cache"] = cacheErr.Error()
		}

		if !ready {
			b.WriteJSON(w, r, b.Error(r.Context(), services.NewServiceUnavailableError("dependencies not ready")), http.StatusServiceUnavailable)
			return
		}
		b.WriteSuccess(w, r, payload)
	}
}
