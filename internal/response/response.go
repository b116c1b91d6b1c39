// file: internal/response/response.go
package response

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ecolearn/internal/middleware"
	"ecolearn/internal/services"

	"go.uber.org/zap"
)

// APIResponse is the standard envelope for every JSON response
type APIResponse struct {
	Success   bool         `json:"success"`
	Data      interface{}  `json:"data,omitempty"`
	Error     *ErrorDetail `json:"error,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Timestamp int64        `json:"timestamp"`
	Version   string       `json:"version,omitempty"`
}

// ErrorDetail carries the client-facing error description
type ErrorDetail struct {
	Type    string                 `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Fields  []services.FieldError  `json:"fields,omitempty"`
}

// Config controls response metadata
type Config struct {
	Version string
}

// Builder constructs and writes API responses
type Builder struct {
	config *Config
	logger *zap.Logger
}

// NewBuilder creates a response builder
func NewBuilder(config *Config, logger *zap.Logger) *Builder {
	if config == nil {
		config = &Config{Version: "v1"}
	}
	return &Builder{config: config, logger: logger}
}

// Success builds a success envelope
func (b *Builder) Success(ctx context.Context, data interface{}) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		RequestID: middleware.GetRequestID(ctx),
		Timestamp: time.Now().Unix(),
		Version:   b.config.Version,
	}
}

// Error builds an error envelope from any error
func (b *Builder) Error(ctx context.Context, err error) *APIResponse {
	return &APIResponse{
		Success:   false,
		Error:     b.convertError(err),
		RequestID: middleware.GetRequestID(ctx),
		Timestamp: time.Now().Unix(),
		Version:   b.config.Version,
	}
}

// WriteJSON serializes a response with the given status code
func (b *Builder) WriteJSON(w http.ResponseWriter, r *http.Request, response *APIResponse, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		b.logger.Error("Failed to encode response",
			zap.String("request_id", response.RequestID),
			zap.Error(err))
	}
}

// WriteSuccess writes a 200 response
func (b *Builder) WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusOK)
}

// WriteCreated writes a 201 response
func (b *Builder) WriteCreated(w http.ResponseWriter, r *http.Request, data interface{}) {
	b.WriteJSON(w, r, b.Success(r.Context(), data), http.StatusCreated)
}

// WriteError maps a service error onto its HTTP status and writes it
func (b *Builder) WriteError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := services.GetServiceError(err)
	if serviceErr.GetStatusCode() >= 500 {
		middleware.GetLogger(r.Context()).Error("Request failed",
			zap.String("error_type", serviceErr.Type),
			zap.Error(err))
	}
	b.WriteJSON(w, r, b.Error(r.Context(), err), serviceErr.GetStatusCode())
}

func (b *Builder) convertError(err error) *ErrorDetail {
	if valErr, ok := err.(*services.ValidationError); ok {
		return &ErrorDetail{
			Type:    valErr.Type,
			Message: valErr.Message,
			Code:    valErr.Code,
			Fields:  valErr.Fields,
		}
	}

	serviceErr := services.GetServiceError(err)
	detail := &ErrorDetail{
		Type:    serviceErr.Type,
		Message: serviceErr.Message,
		Code:    serviceErr.Code,
		Details: serviceErr.Details,
	}
	// Internal messages may leak implementation detail; mask them.
	if serviceErr.GetStatusCode() >= 500 {
		detail.Message = "an internal error occurred"
		detail.Details = nil
	}
	return detail
}
