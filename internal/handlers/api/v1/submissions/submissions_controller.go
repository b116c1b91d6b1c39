// ===============================
// FILE: internal/handlers/api/v1/submissions/submissions_controller.go
// ===============================

package submissions

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ecolearn/internal/middleware"
	"ecolearn/internal/response"
	"ecolearn/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxUploadBytes bounds the multipart form we are willing to parse.
// Slightly above the photo limit so oversized photos get a clean
// validation error instead of a truncated read.
const maxUploadBytes = 12 << 20

// SubmissionController handles submission and moderation endpoints
type SubmissionController struct {
	service         services.SubmissionService
	logger          *zap.Logger
	responseBuilder *response.Builder
}

// NewSubmissionController creates a new submission controller
func NewSubmissionController(service services.SubmissionService, logger *zap.Logger, responseBuilder *response.Builder) *SubmissionController {
	return &SubmissionController{
		service:         service,
		logger:          logger,
		responseBuilder: responseBuilder,
	}
}

// Submit handles POST /api/v1/challenges/{id}/submit
func (c *SubmissionController) Submit(w http.ResponseWriter, r *http.Request) {
	challengeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid challenge id", err))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid multipart form", err))
		return
	}

	photo, header, err := r.FormFile("photo")
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("photo file is required", err))
		return
	}
	defer photo.Close()

	req := &services.SubmitChallengeRequest{
		UserID:      r.FormValue("user_id"),
		ChallengeID: challengeID,
		Caption:     r.FormValue("caption"),
		Photo:       photo,
		PhotoSize:   header.Size,
	}

	submission, err := c.service.Submit(r.Context(), req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteCreated(w, r, map[string]interface{}{"submission": submission})
}

// reviewRequest is the JSON body for a moderation decision
type reviewRequest struct {
	Status   string  `json:"status"`
	Feedback *string `json:"feedback,omitempty"`
}

// Review handles PUT /api/v1/submissions/{id}/review (admin)
func (c *SubmissionController) Review(w http.ResponseWriter, r *http.Request) {
	submissionID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid submission id", err))
		return
	}

	var body reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		c.logger.Warn("Failed to decode review request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	// The reviewer identity comes from the verified token, not the body.
	req := &services.ReviewSubmissionRequest{
		SubmissionID: submissionID,
		Status:       body.Status,
		Feedback:     body.Feedback,
		ReviewerID:   middleware.GetAdminID(r.Context()),
	}

	submission, err := c.service.Review(r.Context(), req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{"submission": submission})
}

// ListByUser handles GET /api/v1/submissions/user/{userID}
func (c *SubmissionController) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	subs, err := c.service.GetUserSubmissions(r.Context(), userID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{"submissions": subs})
}

// ListPending handles GET /api/v1/submissions/pending (admin)
func (c *SubmissionController) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	subs, err := c.service.GetPendingSubmissions(r.Context(), limit, offset)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, map[string]interface{}{"submissions": subs})
}
