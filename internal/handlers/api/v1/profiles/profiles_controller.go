// ===============================
// FILE: internal/handlers/api/v1/profiles/profiles_controller.go
// ===============================

package profiles

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ecolearn/internal/response"
	"ecolearn/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProfileController handles student profile endpoints
type ProfileController struct {
	service         services.ProfileService
	logger          *zap.Logger
	responseBuilder *response.Builder
}

// NewProfileController creates a new profile controller
func NewProfileController(service services.ProfileService, logger *zap.Logger, responseBuilder *response.Builder) *ProfileController {
	return &ProfileController{
		service:         service,
		logger:          logger,
		responseBuilder: responseBuilder,
	}
}

// GetProfile handles GET /api/v1/profiles/{userID}
func (c *ProfileController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	profile, err := c.service.GetProfile(r.Context(), userID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{"profile": profile})
}

type updateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

// UpdateProfile handles PUT /api/v1/profiles/{userID}
func (c *ProfileController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.logger.Warn("Failed to decode profile update", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	profile, err := c.service.UpdateDisplayName(r.Context(), userID, body.DisplayName)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{"profile": profile})
}

// Leaderboard handles GET /api/v1/profiles/leaderboard
func (c *ProfileController) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	profiles, err := c.service.Leaderboard(r.Context(), limit)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{"profiles": profiles})
}
