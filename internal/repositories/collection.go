// file: internal/repositories/collection.go
package repositories

import (
	"ecolearn/internal/database"

	"go.uber.org/zap"
)

// Collection bundles all repositories for dependency injection
type Collection struct {
	Challenges  ChallengeRepository
	Submissions SubmissionRepository
	Profiles    ProfileRepository
}

// NewCollection wires the repositories onto one database manager
func NewCollection(db *database.Manager, logger *zap.Logger) *Collection {
	return &Collection{
		Challenges:  NewChallengeRepository(db, logger),
		Submissions: NewSubmissionRepository(db, logger),
		Profiles:    NewProfileRepository(db, logger),
	}
}
