// file: internal/services/profile_service.go
package services

import (
	"context"

	"ecolearn/internal/models"
	"ecolearn/internal/repositories"

	"go.uber.org/zap"
)

type profileService struct {
	repo   repositories.ProfileRepository
	logger *zap.Logger
}

// NewProfileService creates the student profile service
func NewProfileService(repo repositories.ProfileRepository, logger *zap.Logger) ProfileService {
	return &profileService{repo: repo, logger: logger}
}

// GetProfile returns the student's point total. Students who have never
// earned points get a zero-valued profile rather than a 404.
func (s *profileService) GetProfile(ctx context.Context, userID string) (*models.StudentProfile, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required", nil)
	}

	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to load profile")
	}
	if profile == nil {
		return &models.StudentProfile{
			UserID:       userID,
			EcoPoints:    0,
			CurrentLevel: models.LevelForPoints(0),
		}, nil
	}
	return profile, nil
}

// UpdateDisplayName sets the name shown on the leaderboard, creating
// the profile row for students who have not earned points yet.
func (s *profileService) UpdateDisplayName(ctx context.Context, userID, displayName string) (*models.StudentProfile, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required", nil)
	}
	if len(displayName) > 150 {
		return nil, NewValidationError("display name must be 150 characters or fewer", nil)
	}

	profile := &models.StudentProfile{
		UserID:      userID,
		DisplayName: displayName,
	}
	if err := s.repo.Upsert(ctx, profile); err != nil {
		s.logger.Error("Failed to update display name", zap.String("user_id", userID), zap.Error(err))
		return nil, NewInternalError("failed to update profile")
	}
	return profile, nil
}

func (s *profileService) Leaderboard(ctx context.Context, limit int) ([]*models.StudentProfile, error) {
	profiles, err := s.repo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, NewInternalError("failed to load leaderboard")
	}
	return profiles, nil
}
