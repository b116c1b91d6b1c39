// ===============================
// FILE: internal/handlers/api/v1/chat/chat_controller.go
// ===============================

package chat

import (
	"encoding/json"
	"net/http"

	"ecolearn/internal/response"
	"ecolearn/internal/services"

	"go.uber.org/zap"
)

// ChatController handles the AI assistant endpoint
type ChatController struct {
	service         services.ChatService
	logger          *zap.Logger
	responseBuilder *response.Builder
}

// NewChatController creates a new chat controller
func NewChatController(service services.ChatService, logger *zap.Logger, responseBuilder *response.Builder) *ChatController {
	return &ChatController{
		service:         service,
		logger:          logger,
		responseBuilder: responseBuilder,
	}
}

// Send handles POST /api/v1/chat
func (c *ChatController) Send(w http.ResponseWriter, r *http.Request) {
	var req services.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.logger.Warn("Failed to decode chat request", zap.Error(err))
		c.responseBuilder.WriteError(w, r, services.NewValidationError("invalid request body", err))
		return
	}

	resp, err := c.service.Send(r.Context(), &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, resp)
}
