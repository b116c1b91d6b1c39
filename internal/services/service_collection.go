// file: internal/services/service_collection.go
package services

import (
	"fmt"

	"ecolearn/internal/cache"
	"ecolearn/internal/config"
	"ecolearn/internal/repositories"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Collection bundles all services for dependency injection
type Collection struct {
	Challenges  ChallengeService
	Submissions SubmissionService
	Profiles    ProfileService
	Chat        ChatService
}

// Dependencies holds everything the services are built from
type Dependencies struct {
	Repos        *repositories.Collection
	Cache        cache.Cache
	Photos       PhotoStorage
	ChatProvider ChatProvider
	Config       *config.Config
	Logger       *zap.Logger
}

// NewCollection wires the service layer. One validator instance is
// shared across services.
func NewCollection(deps *Dependencies) (*Collection, error) {
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if deps.Photos == nil {
		return nil, fmt.Errorf("photo storage is required")
	}
	if deps.ChatProvider == nil {
		return nil, fmt.Errorf("chat provider is required")
	}

	validate := validator.New()
	quota := NewChatQuota(NewCacheQuotaStore(deps.Cache), deps.Config.Chat.DailyLimit)

	return &Collection{
		Challenges:  NewChallengeService(deps.Repos.Challenges, deps.Cache, validate, deps.Logger),
		Submissions: NewSubmissionService(deps.Repos.Submissions, deps.Repos.Challenges, deps.Photos, validate, deps.Logger),
		Profiles:    NewProfileService(deps.Repos.Profiles, deps.Logger),
		Chat:        NewChatService(deps.ChatProvider, quota, validate, deps.Config.Chat.RequestTimeout, deps.Logger),
	}, nil
}
