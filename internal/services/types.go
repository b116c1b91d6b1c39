// file: internal/services/types.go
package services

import (
	"io"
	"time"

	"ecolearn/internal/models"

	"github.com/go-playground/validator/v10"
)

// ===============================
// REQUEST TYPES
// ===============================

// SubmitChallengeRequest carries a student's photo proof for a challenge
type SubmitChallengeRequest struct {
	UserID      string `validate:"required,max=128"`
	ChallengeID int64  `validate:"required,gt=0"`
	Caption     string `validate:"max=200"`
	Photo       io.ReadSeeker
	PhotoSize   int64
}

// ReviewSubmissionRequest carries a moderation decision
type ReviewSubmissionRequest struct {
	SubmissionID int64   `validate:"required,gt=0"`
	Status       string  `validate:"required,oneof=approved rejected"`
	Feedback     *string `validate:"omitempty,max=500"`
	ReviewerID   string  `validate:"required,max=128"`
}

// CreateChallengeRequest creates a catalog entry
type CreateChallengeRequest struct {
	Title       string `json:"title" validate:"required,max=150"`
	Description string `json:"description" validate:"max=2000"`
	Points      int    `json:"points" validate:"required,gt=0"`
	Category    string `json:"category" validate:"required,max=50"`
	Week        int    `json:"week" validate:"gte=0"`
	IsActive    bool   `json:"is_active"`
}

// UpdateChallengeRequest replaces a catalog entry's fields
type UpdateChallengeRequest struct {
	ID          int64  `json:"-" validate:"required,gt=0"`
	Title       string `json:"title" validate:"required,max=150"`
	Description string `json:"description" validate:"max=2000"`
	Points      int    `json:"points" validate:"required,gt=0"`
	Category    string `json:"category" validate:"required,max=50"`
	Week        int    `json:"week" validate:"gte=0"`
	IsActive    bool   `json:"is_active"`
}

// ChatRequest is one student message to the assistant
type ChatRequest struct {
	UserID  string              `json:"user_id" validate:"required,max=128"`
	Message string              `json:"message" validate:"required,max=2000"`
	Context *models.ChatContext `json:"context,omitempty"`
}

// ===============================
// RESPONSE TYPES
// ===============================

// ChatResponse is the assistant's reply plus remaining quota
type ChatResponse struct {
	Reply     string `json:"reply"`
	Remaining int    `json:"remaining"`
}

// QuotaResult is the outcome of a quota check
type QuotaResult struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// ===============================
// VALIDATION
// ===============================

// validateRequest runs struct validation and converts failures to a
// detailed validation error.
func validateRequest(validate *validator.Validate, req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return NewValidationError("invalid request", err)
	}

	fields := make([]FieldError, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, FieldError{
			Field:   fieldErr.Field(),
			Message: fieldErr.Error(),
			Code:    fieldErr.Tag(),
		})
	}
	return NewDetailedValidationError("request validation failed", fields)
}
