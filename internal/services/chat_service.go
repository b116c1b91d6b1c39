// file: internal/services/chat_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ecolearn/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// fallbackReply is returned when the AI provider is unavailable. The
// student still gets a successful response and their quota message back.
const fallbackReply = "I'm having trouble answering right now. Please try again in a little while, and keep up the great eco work in the meantime!"

// ChatProvider generates assistant replies
type ChatProvider interface {
	Generate(ctx context.Context, message string, chatCtx *models.ChatContext) (string, error)
}

type chatService struct {
	provider ChatProvider
	quota    *ChatQuota
	validate *validator.Validate
	logger   *zap.Logger
	timeout  time.Duration
}

// NewChatService creates the assistant relay
func NewChatService(provider ChatProvider, quota *ChatQuota, validate *validator.Validate, timeout time.Duration, logger *zap.Logger) ChatService {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &chatService{
		provider: provider,
		quota:    quota,
		validate: validate,
		logger:   logger,
		timeout:  timeout,
	}
}

// Send relays one message. Quota is consumed before the provider call;
// a provider failure degrades to a friendly substitute reply rather than
// an error, so the client flow never breaks on upstream trouble.
func (s *chatService) Send(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	if req.Context != nil {
		if err := validateRequest(s.validate, req.Context); err != nil {
			return nil, err
		}
	}

	result, err := s.quota.CheckAndConsume(ctx, req.UserID)
	if err != nil {
		s.logger.Error("Quota check failed", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, NewInternalError("failed to check message quota")
	}
	if !result.Allowed {
		return nil, NewRateLimitError("daily message limit reached", map[string]interface{}{
			"limit":    s.quota.Limit(),
			"reset_at": result.ResetAt,
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply, err := s.provider.Generate(callCtx, req.Message, req.Context)
	if err != nil {
		s.logger.Warn("Chat provider failed, returning fallback reply",
			zap.String("user_id", req.UserID),
			zap.Error(err))
		reply = fallbackReply
	}

	return &ChatResponse{
		Reply:     reply,
		Remaining: result.Remaining,
	}, nil
}

// ===============================
// HTTP PROVIDER
// ===============================

// HTTPChatProviderConfig configures the upstream AI endpoint
type HTTPChatProviderConfig struct {
	URL        string
	APIKey     string
	Model      string
	MaxRetries int
}

type httpChatProvider struct {
	config *HTTPChatProviderConfig
	client *http.Client
	logger *zap.Logger
}

// NewHTTPChatProvider creates a provider that calls a JSON completion API
func NewHTTPChatProvider(cfg *HTTPChatProviderConfig, logger *zap.Logger) (ChatProvider, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("chat provider URL is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	return &httpChatProvider{
		config: cfg,
		client: &http.Client{},
		logger: logger,
	}, nil
}

type providerRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type providerResponse struct {
	Reply string `json:"reply"`
}

func (p *httpChatProvider) Generate(ctx context.Context, message string, chatCtx *models.ChatContext) (string, error) {
	body, err := json.Marshal(providerRequest{
		Model:  p.config.Model,
		Prompt: buildPrompt(message, chatCtx),
	})
	if err != nil {
		return "", err
	}

	var reply string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.URL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.config.APIKey != "" {
			req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
		}

		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("provider returned %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("provider returned %d", resp.StatusCode))
		}

		data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return err
		}
		var parsed providerResponse
		if err := json.Unmarshal(data, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("malformed provider response: %w", err))
		}
		reply = parsed.Reply
		return nil
	}

	b := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err = backoff.RetryNotify(
		operation,
		backoff.WithMaxRetries(b, uint64(p.config.MaxRetries)),
		func(err error, d time.Duration) {
			p.logger.Warn("Chat provider attempt failed",
				zap.Error(err),
				zap.Duration("backoff", d))
		},
	)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", fmt.Errorf("provider returned an empty reply")
	}
	return reply, nil
}

// buildPrompt folds the app context into the model prompt so answers
// stay grounded in what the student is looking at.
func buildPrompt(message string, chatCtx *models.ChatContext) string {
	var sb strings.Builder
	sb.WriteString("You are the EcoLearn assistant, helping students learn about the environment.\n")
	if chatCtx != nil {
		sb.WriteString("The student is on the " + chatCtx.Page + " page")
		if chatCtx.ModuleID != nil {
			sb.WriteString(", module " + *chatCtx.ModuleID)
		}
		if chatCtx.LessonID != nil {
			sb.WriteString(", lesson " + *chatCtx.LessonID)
		}
		if chatCtx.QuizID != nil {
			sb.WriteString(", quiz " + *chatCtx.QuizID)
		}
		if chatCtx.ChallengeID != nil {
			sb.WriteString(fmt.Sprintf(", challenge %d", *chatCtx.ChallengeID))
		}
		sb.WriteString(".\n")
	}
	sb.WriteString("Student: ")
	sb.WriteString(message)
	return sb.String()
}
