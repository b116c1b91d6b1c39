// file: internal/services/challenge_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ecolearn/internal/cache"
	"ecolearn/internal/models"
	"ecolearn/internal/repositories"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	challengeCacheTTL    = 5 * time.Minute
	challengeCacheGenKey = "challenges:generation"
)

type challengeService struct {
	repo     repositories.ChallengeRepository
	cache    cache.Cache
	validate *validator.Validate
	logger   *zap.Logger
}

// NewChallengeService creates the catalog service
func NewChallengeService(repo repositories.ChallengeRepository, c cache.Cache, validate *validator.Validate, logger *zap.Logger) ChallengeService {
	return &challengeService{
		repo:     repo,
		cache:    c,
		validate: validate,
		logger:   logger,
	}
}

func (s *challengeService) CreateChallenge(ctx context.Context, req *CreateChallengeRequest) (*models.Challenge, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	challenge := &models.Challenge{
		Title:       req.Title,
		Description: req.Description,
		Points:      req.Points,
		Category:    req.Category,
		Week:        req.Week,
		IsActive:    req.IsActive,
	}
	if err := s.repo.Create(ctx, challenge); err != nil {
		s.logger.Error("Failed to create challenge", zap.Error(err))
		return nil, NewInternalError("failed to create challenge")
	}

	s.bumpCatalogGeneration(ctx)
	s.logger.Info("Challenge created",
		zap.Int64("challenge_id", challenge.ID),
		zap.String("title", challenge.Title))
	return challenge, nil
}

func (s *challengeService) UpdateChallenge(ctx context.Context, req *UpdateChallengeRequest) (*models.Challenge, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, NewInternalError("failed to load challenge")
	}
	if existing == nil {
		return nil, EntityNotFoundError("challenge", req.ID)
	}

	existing.Title = req.Title
	existing.Description = req.Description
	existing.Points = req.Points
	existing.Category = req.Category
	existing.Week = req.Week
	existing.IsActive = req.IsActive

	if err := s.repo.Update(ctx, existing); err != nil {
		// The row can vanish between the load above and the update.
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, EntityNotFoundError("challenge", req.ID)
		}
		s.logger.Error("Failed to update challenge", zap.Int64("challenge_id", req.ID), zap.Error(err))
		return nil, NewInternalError("failed to update challenge")
	}

	s.bumpCatalogGeneration(ctx)
	return existing, nil
}

func (s *challengeService) GetChallenge(ctx context.Context, id int64) (*models.Challenge, error) {
	if id <= 0 {
		return nil, NewValidationError("challenge id must be positive", nil)
	}

	challenge, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, NewInternalError("failed to load challenge")
	}
	if challenge == nil {
		return nil, EntityNotFoundError("challenge", id)
	}
	return challenge, nil
}

func (s *challengeService) ListChallenges(ctx context.Context, filter *models.ChallengeFilter) ([]*models.Challenge, error) {
	if filter == nil {
		filter = &models.ChallengeFilter{}
	}

	key := s.listCacheKey(ctx, filter)
	if cached, ok := s.cache.Get(ctx, key); ok {
		if data, ok := cache.AsBytes(cached); ok {
			var challenges []*models.Challenge
			if err := json.Unmarshal(data, &challenges); err == nil {
				return challenges, nil
			}
		}
	}

	challenges, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, NewInternalError("failed to list challenges")
	}

	if data, err := json.Marshal(challenges); err == nil {
		if err := s.cache.Set(ctx, key, data, challengeCacheTTL); err != nil {
			s.logger.Warn("Failed to cache challenge listing", zap.Error(err))
		}
	}
	return challenges, nil
}

// listCacheKey includes a generation counter so writes invalidate every
// cached filter combination at once.
func (s *challengeService) listCacheKey(ctx context.Context, filter *models.ChallengeFilter) string {
	gen := int64(0)
	if v, ok := s.cache.Get(ctx, challengeCacheGenKey); ok {
		if n, ok := cache.AsInt64(v); ok {
			gen = n
		}
	}

	week, category, active := "any", "any", "any"
	if filter.Week != nil {
		week = fmt.Sprintf("%d", *filter.Week)
	}
	if filter.Category != nil {
		category = *filter.Category
	}
	if filter.IsActive != nil {
		active = fmt.Sprintf("%t", *filter.IsActive)
	}
	return fmt.Sprintf("challenges:list:g%d:w%s:c%s:a%s:l%d:o%d", gen, week, category, active, filter.Limit, filter.Offset)
}

func (s *challengeService) bumpCatalogGeneration(ctx context.Context) {
	if _, err := s.cache.Increment(ctx, challengeCacheGenKey, 1); err != nil {
		s.logger.Warn("Failed to bump catalog cache generation", zap.Error(err))
	}
}
