// ===============================
// FILE: internal/handlers/api/v1/challenges/challenges_controller.go
// ===============================

package challenges

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ecolearn/internal/models"
	"ecolearn/internal/response"
	"ecolearn/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ChallengeController handles the challenge catalog endpoints
type ChallengeController struct {
	service         services.ChallengeService
	logger          *zap.Logger
	responseBuilder *response.Builder
}

// NewChallengeController creates a new challenge controller
func NewChallengeController(service services.ChallengeService, logger *zap.Logger, responseBuilder *response.Builder) *ChallengeController {
	return &ChallengeController{
		service:         service,
		logger:          logger,
		responseBuilder: responseBuilder,
	}
}

// ListChallenges handles GET /api/v1/challenges
func (c *ChallengeController) ListChallenges(w http.ResponseWriter, r *http.Request) {
	filter := &models.ChallengeFilter{}

	query := r.URL.Query()
	if v := query.Get("week"); v != "" {
		week, err := strconv.Atoi(v)
		if err != nil {
			c.responseBuilder.WriteError(w, r, services.NewValidationError("week must be a number", err))
			return
		}
		filter.Week = &week
	}
	if v := query.Get("category"); v != "" {
		filter.Category = &v
	}
	if v := query.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			c.responseBuilder.WriteError(w, r, services.NewValidationError("is_active must be true or false", err))
			return
		}
		filter.IsActive = &active
	}
	if v := query.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}
	if v := query.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil {
			filter.Offset = offset
		}
	}

	challenges, err := c.service.ListChallenges(r.Context(), filter)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{"challenges": challenges})
}

// GetChallenge handles GET /api/v1/challenges/{id}
func (c *ChallengeController) GetChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid challenge id", err))
		return
	}

	challenge, err := c.service.GetChallenge(r.Context(), id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{"challenge": challenge})
}

// CreateChallenge handles POST /api/v1/challenges (admin)
func (c *ChallengeController) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req services.CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode create challenge request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	challenge, err := c.service.CreateChallenge(r.Context(), &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteCreated(w, r, map[string]interface{}{"challenge": challenge})
}

// UpdateChallenge handles PUT /api/v1/challenges/{id} (admin)
func (c *ChallengeController) UpdateChallenge(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid challenge id", err))
		return
	}

	var req services.UpdateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode update challenge request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}
	req.ID = id

	challenge, err := c.service.UpdateChallenge(r.Context(), &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{"challenge": challenge})
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
