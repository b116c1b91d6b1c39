// file: internal/repositories/interfaces.go
package repositories

import (
	"context"
	"errors"

	"ecolearn/internal/models"
)

// ErrNotFound is returned by guarded updates that matched no row.
var ErrNotFound = errors.New("not found")

// DuplicateError is returned when a unique constraint rejects an insert.
type DuplicateError struct {
	Resource string
}

func (e *DuplicateError) Error() string {
	return e.Resource + " already exists"
}

// ChallengeRepository manages the challenge catalog.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *models.Challenge) error
	Update(ctx context.Context, challenge *models.Challenge) error
	GetByID(ctx context.Context, id int64) (*models.Challenge, error)
	List(ctx context.Context, filter *models.ChallengeFilter) ([]*models.Challenge, error)
}

// SubmissionRepository manages challenge submissions and the moderation
// workflow. Review is the only way a submission leaves pending.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *models.ChallengeSubmission) error
	GetByID(ctx context.Context, id int64) (*models.ChallengeSubmission, error)
	GetByUserAndChallenge(ctx context.Context, userID string, challengeID int64) (*models.ChallengeSubmission, error)
	ListByUser(ctx context.Context, userID string) ([]*models.ChallengeSubmission, error)
	ListPending(ctx context.Context, limit, offset int) ([]*models.ChallengeSubmission, error)
	// Resubmit resets a rejected submission back to pending with a new
	// photo. Returns (nil, nil) when the row is not in rejected state.
	Resubmit(ctx context.Context, id int64, photoURL, photoPublicID, caption string) (*models.ChallengeSubmission, error)
	// Review applies a moderation decision, conditional on pending
	// status. Approval awards the challenge points to the student's
	// profile in the same transaction. Returns (nil, nil) when the
	// conditional update matched no row.
	Review(ctx context.Context, id int64, status models.SubmissionStatus, feedback *string, reviewerID string) (*models.ChallengeSubmission, error)
}

// ProfileRepository manages student point totals.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)
	Upsert(ctx context.Context, profile *models.StudentProfile) error
	Leaderboard(ctx context.Context, limit int) ([]*models.StudentProfile, error)
}
