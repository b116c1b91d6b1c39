// file: internal/services/submission_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"ecolearn/internal/models"
	"ecolearn/internal/repositories"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type submissionService struct {
	submissions repositories.SubmissionRepository
	challenges  repositories.ChallengeRepository
	photos      PhotoStorage
	validate    *validator.Validate
	logger      *zap.Logger
}

// NewSubmissionService creates the submission and moderation service
func NewSubmissionService(
	submissions repositories.SubmissionRepository,
	challenges repositories.ChallengeRepository,
	photos PhotoStorage,
	validate *validator.Validate,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		challenges:  challenges,
		photos:      photos,
		validate:    validate,
		logger:      logger,
	}
}

// Submit stores photo proof for a challenge. The upload happens before
// the database write; if the write then fails the uploaded photo is
// orphaned and logged for cleanup rather than blocking the student.
func (s *submissionService) Submit(ctx context.Context, req *SubmitChallengeRequest) (*models.ChallengeSubmission, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}
	if req.Photo == nil || req.PhotoSize <= 0 {
		return nil, NewValidationError("photo is required", nil)
	}

	challenge, err := s.challenges.GetByID(ctx, req.ChallengeID)
	if err != nil {
		return nil, NewInternalError("failed to load challenge")
	}
	if challenge == nil {
		return nil, EntityNotFoundError("challenge", req.ChallengeID)
	}
	if !challenge.IsActive {
		return nil, NewValidationError("challenge is not active", nil)
	}

	existing, err := s.submissions.GetByUserAndChallenge(ctx, req.UserID, req.ChallengeID)
	if err != nil {
		return nil, NewInternalError("failed to check existing submission")
	}
	if existing != nil {
		switch existing.Status {
		case models.StatusApproved:
			return nil, NewConflictError("challenge already completed", "SUBMISSION_APPROVED")
		case models.StatusPending:
			return nil, NewConflictError("submission is already under review", "SUBMISSION_PENDING")
		}
	}

	uploaded, err := s.photos.Upload(ctx, req.Photo, req.PhotoSize)
	if err != nil {
		if errors.Is(err, ErrPhotoTooLarge) || errors.Is(err, ErrInvalidPhotoType) {
			return nil, NewValidationError(err.Error(), err)
		}
		s.logger.Error("Photo upload failed",
			zap.String("user_id", req.UserID),
			zap.Int64("challenge_id", req.ChallengeID),
			zap.Error(err))
		return nil, NewInternalError("photo upload failed")
	}

	if existing != nil {
		// Rejected submission: reuse the row, guarded on rejected status.
		sub, err := s.submissions.Resubmit(ctx, existing.ID, uploaded.URL, uploaded.PublicID, req.Caption)
		if err != nil {
			s.logOrphanedPhoto(uploaded.PublicID, err)
			return nil, NewInternalError("failed to store submission")
		}
		if sub == nil {
			// Status changed under us between the read and the update.
			s.logOrphanedPhoto(uploaded.PublicID, nil)
			return nil, NewConflictError("submission is no longer resubmittable", "SUBMISSION_NOT_REJECTED")
		}
		s.logger.Info("Submission resubmitted",
			zap.Int64("submission_id", sub.ID),
			zap.String("user_id", req.UserID))
		return sub, nil
	}

	sub := &models.ChallengeSubmission{
		UserID:        req.UserID,
		ChallengeID:   req.ChallengeID,
		PhotoURL:      uploaded.URL,
		PhotoPublicID: uploaded.PublicID,
		Caption:       req.Caption,
	}
	if err := s.submissions.Create(ctx, sub); err != nil {
		var dup *repositories.DuplicateError
		if errors.As(err, &dup) {
			s.logOrphanedPhoto(uploaded.PublicID, err)
			return nil, NewConflictError("a submission for this challenge already exists", "SUBMISSION_EXISTS")
		}
		s.logOrphanedPhoto(uploaded.PublicID, err)
		return nil, NewInternalError("failed to store submission")
	}

	s.logger.Info("Submission created",
		zap.Int64("submission_id", sub.ID),
		zap.String("user_id", req.UserID),
		zap.Int64("challenge_id", req.ChallengeID))
	return sub, nil
}

// Review applies an admin decision. The repository's conditional update
// guarantees only one concurrent reviewer wins; approval and the point
// award commit together.
func (s *submissionService) Review(ctx context.Context, req *ReviewSubmissionRequest) (*models.ChallengeSubmission, error) {
	if err := validateRequest(s.validate, req); err != nil {
		return nil, err
	}

	status, err := models.ParseSubmissionStatus(req.Status)
	if err != nil {
		return nil, NewValidationError(err.Error(), err)
	}
	if !models.StatusPending.CanTransitionTo(status) {
		return nil, NewValidationError(fmt.Sprintf("cannot review a submission into %q", status), nil)
	}

	reviewed, err := s.submissions.Review(ctx, req.SubmissionID, status, req.Feedback, req.ReviewerID)
	if err != nil {
		s.logger.Error("Review failed",
			zap.Int64("submission_id", req.SubmissionID),
			zap.Error(err))
		return nil, NewInternalError("failed to review submission")
	}
	if reviewed == nil {
		// Distinguish a missing row from one already reviewed.
		current, err := s.submissions.GetByID(ctx, req.SubmissionID)
		if err != nil {
			return nil, NewInternalError("failed to load submission")
		}
		if current == nil {
			return nil, EntityNotFoundError("submission", req.SubmissionID)
		}
		return nil, NewInvalidStateError(
			fmt.Sprintf("submission is %s, only pending submissions can be reviewed", current.Status),
			"SUBMISSION_NOT_PENDING",
		)
	}

	s.logger.Info("Submission reviewed",
		zap.Int64("submission_id", reviewed.ID),
		zap.String("status", reviewed.Status.String()),
		zap.String("reviewed_by", req.ReviewerID))
	return reviewed, nil
}

func (s *submissionService) GetUserSubmissions(ctx context.Context, userID string) ([]*models.ChallengeSubmission, error) {
	if userID == "" {
		return nil, NewValidationError("user id is required", nil)
	}
	subs, err := s.submissions.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewInternalError("failed to list submissions")
	}
	return subs, nil
}

func (s *submissionService) GetPendingSubmissions(ctx context.Context, limit, offset int) ([]*models.ChallengeSubmission, error) {
	subs, err := s.submissions.ListPending(ctx, limit, offset)
	if err != nil {
		return nil, NewInternalError("failed to list pending submissions")
	}
	return subs, nil
}

func (s *submissionService) logOrphanedPhoto(publicID string, cause error) {
	s.logger.Warn("Orphaned photo left in storage",
		zap.String("public_id", publicID),
		zap.Error(cause))
}
