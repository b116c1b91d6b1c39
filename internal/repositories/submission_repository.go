// file: internal/repositories/submission_repository.go
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"ecolearn/internal/database"
	"ecolearn/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const submissionColumns = `id, user_id, challenge_id, photo_url, photo_public_id, caption,
	status, feedback, points_awarded, submitted_at, reviewed_at, reviewed_by, updated_at`

type submissionRepository struct {
	*BaseRepository
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(db *database.Manager, logger *zap.Logger) SubmissionRepository {
	return &submissionRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *submissionRepository) Create(ctx context.Context, sub *models.ChallengeSubmission) error {
	query := `
		INSERT INTO challenge_submissions (user_id, challenge_id, photo_url, photo_public_id, caption, status, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, submitted_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		sub.UserID,
		sub.ChallengeID,
		sub.PhotoURL,
		sub.PhotoPublicID,
		sub.Caption,
		models.StatusPending,
	).Scan(&sub.ID, &sub.SubmittedAt, &sub.UpdatedAt)
	if err != nil {
		// The unique constraint closes the race between two concurrent
		// first submissions for the same (user, challenge).
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return &DuplicateError{Resource: "submission"}
		}
		return fmt.Errorf("failed to create submission: %w", err)
	}
	sub.Status = models.StatusPending
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id int64) (*models.ChallengeSubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM challenge_submissions WHERE id = $1`, submissionColumns)

	sub, err := scanSubmission(r.QueryRowContext(ctx, query, id))
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

func (r *submissionRepository) GetByUserAndChallenge(ctx context.Context, userID string, challengeID int64) (*models.ChallengeSubmission, error) {
	query := fmt.Sprintf(`SELECT %s FROM challenge_submissions WHERE user_id = $1 AND challenge_id = $2`, submissionColumns)

	sub, err := scanSubmission(r.QueryRowContext(ctx, query, userID, challengeID))
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

func (r *submissionRepository) ListByUser(ctx context.Context, userID string) ([]*models.ChallengeSubmission, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM challenge_submissions
		WHERE user_id = $1
		ORDER BY submitted_at DESC`, submissionColumns)

	rows, err := r.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

func (r *submissionRepository) ListPending(ctx context.Context, limit, offset int) ([]*models.ChallengeSubmission, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s FROM challenge_submissions
		WHERE status = $1
		ORDER BY submitted_at ASC
		LIMIT $2 OFFSET $3`, submissionColumns)

	rows, err := r.QueryContext(ctx, query, models.StatusPending, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending submissions: %w", err)
	}
	defer rows.Close()
	return collectSubmissions(rows)
}

// Resubmit swaps in the new photo and moves the row back to pending.
// Guarded on rejected status so approved or in-review rows are untouched.
func (r *submissionRepository) Resubmit(ctx context.Context, id int64, photoURL, photoPublicID, caption string) (*models.ChallengeSubmission, error) {
	query := fmt.Sprintf(`
		UPDATE challenge_submissions
		SET photo_url = $2, photo_public_id = $3, caption = $4, status = $5,
			feedback = NULL, points_awarded = 0, reviewed_at = NULL, reviewed_by = NULL,
			submitted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $6
		RETURNING %s`, submissionColumns)

	sub, err := scanSubmission(r.QueryRowContext(ctx, query,
		id, photoURL, photoPublicID, caption, models.StatusPending, models.StatusRejected))
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resubmit: %w", err)
	}
	return sub, nil
}

// Review applies a moderation decision in one transaction. The update is
// conditional on pending status, so the loser of a concurrent review sees
// no matched row and no points are awarded twice. Approval copies the
// challenge's point value into points_awarded and credits the student's
// profile.
func (r *submissionRepository) Review(ctx context.Context, id int64, status models.SubmissionStatus, feedback *string, reviewerID string) (*models.ChallengeSubmission, error) {
	var reviewed *models.ChallengeSubmission

	err := r.WithTransaction(ctx, func(tx *sql.Tx) error {
		var err error
		if status == models.StatusApproved {
			reviewed, err = approveTx(ctx, tx, id, feedback, reviewerID)
		} else {
			reviewed, err = rejectTx(ctx, tx, id, feedback, reviewerID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return reviewed, nil
}

func approveTx(ctx context.Context, tx *sql.Tx, id int64, feedback *string, reviewerID string) (*models.ChallengeSubmission, error) {
	query := fmt.Sprintf(`
		UPDATE challenge_submissions s
		SET status = $2, feedback = $3, reviewed_by = $4, reviewed_at = NOW(), updated_at = NOW(),
			points_awarded = c.points
		FROM challenges c
		WHERE s.id = $1 AND s.status = $5 AND c.id = s.challenge_id
		RETURNING %s`, prefixColumns("s"))

	sub, err := scanSubmission(tx.QueryRowContext(ctx, query,
		id, models.StatusApproved, feedback, reviewerID, models.StatusPending))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to approve submission: %w", err)
	}

	creditQuery := `
		INSERT INTO student_profiles (user_id, eco_points, current_level, created_at, updated_at)
		VALUES ($1, $2, $2 / $3 + 1, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET eco_points = student_profiles.eco_points + EXCLUDED.eco_points,
			current_level = (student_profiles.eco_points + EXCLUDED.eco_points) / $3 + 1,
			updated_at = NOW()`

	if _, err := tx.ExecContext(ctx, creditQuery, sub.UserID, sub.PointsAwarded, models.PointsPerLevel); err != nil {
		return nil, fmt.Errorf("failed to credit eco points: %w", err)
	}
	return sub, nil
}

func rejectTx(ctx context.Context, tx *sql.Tx, id int64, feedback *string, reviewerID string) (*models.ChallengeSubmission, error) {
	query := fmt.Sprintf(`
		UPDATE challenge_submissions
		SET status = $2, feedback = $3, reviewed_by = $4, reviewed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $5
		RETURNING %s`, submissionColumns)

	sub, err := scanSubmission(tx.QueryRowContext(ctx, query,
		id, models.StatusRejected, feedback, reviewerID, models.StatusPending))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reject submission: %w", err)
	}
	return sub, nil
}

// ===============================
// SCAN HELPERS
// ===============================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*models.ChallengeSubmission, error) {
	sub := &models.ChallengeSubmission{}
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.ChallengeID,
		&sub.PhotoURL,
		&sub.PhotoPublicID,
		&sub.Caption,
		&sub.Status,
		&sub.Feedback,
		&sub.PointsAwarded,
		&sub.SubmittedAt,
		&sub.ReviewedAt,
		&sub.ReviewedBy,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func collectSubmissions(rows *sql.Rows) ([]*models.ChallengeSubmission, error) {
	var subs []*models.ChallengeSubmission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func prefixColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.user_id, %[1]s.challenge_id, %[1]s.photo_url, %[1]s.photo_public_id,
	%[1]s.caption, %[1]s.status, %[1]s.feedback, %[1]s.points_awarded, %[1]s.submitted_at,
	%[1]s.reviewed_at, %[1]s.reviewed_by, %[1]s.updated_at`, alias)
}
