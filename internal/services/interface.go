// file: internal/services/interface.go
package services

import (
	"context"

	"ecolearn/internal/models"
)

// ChallengeService manages the challenge catalog
type ChallengeService interface {
	CreateChallenge(ctx context.Context, req *CreateChallengeRequest) (*models.Challenge, error)
	UpdateChallenge(ctx context.Context, req *UpdateChallengeRequest) (*models.Challenge, error)
	GetChallenge(ctx context.Context, id int64) (*models.Challenge, error)
	ListChallenges(ctx context.Context, filter *models.ChallengeFilter) ([]*models.Challenge, error)
}

// SubmissionService manages the submission and moderation workflow
type SubmissionService interface {
	Submit(ctx context.Context, req *SubmitChallengeRequest) (*models.ChallengeSubmission, error)
	Review(ctx context.Context, req *ReviewSubmissionRequest) (*models.ChallengeSubmission, error)
	GetUserSubmissions(ctx context.Context, userID string) ([]*models.ChallengeSubmission, error)
	GetPendingSubmissions(ctx context.Context, limit, offset int) ([]*models.ChallengeSubmission, error)
}

// ProfileService exposes student point totals and the leaderboard
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error)
	UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.StudentProfile, error)
	Leaderboard(ctx context.Context, limit int) ([]*models.StudentProfile, error)
}

// ChatService relays messages to the AI assistant under a daily quota
type ChatService interface {
	Send(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
