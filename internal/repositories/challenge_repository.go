// file: internal/repositories/challenge_repository.go
package repositories

import (
	"context"
	"fmt"

	"ecolearn/internal/database"
	"ecolearn/internal/models"

	"go.uber.org/zap"
)

type challengeRepository struct {
	*BaseRepository
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db *database.Manager, logger *zap.Logger) ChallengeRepository {
	return &challengeRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *models.Challenge) error {
	query := `
		INSERT INTO challenges (title, description, points, category, week, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		challenge.Title,
		challenge.Description,
		challenge.Points,
		challenge.Category,
		challenge.Week,
		challenge.IsActive,
	).Scan(&challenge.ID, &challenge.CreatedAt, &challenge.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (r *challengeRepository) Update(ctx context.Context, challenge *models.Challenge) error {
	query := `
		UPDATE challenges
		SET title = $2, description = $3, points = $4, category = $5, week = $6, is_active = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query,
		challenge.ID,
		challenge.Title,
		challenge.Description,
		challenge.Points,
		challenge.Category,
		challenge.Week,
		challenge.IsActive,
	).Scan(&challenge.UpdatedAt)
	if r.IsNotFound(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	return nil
}

func (r *challengeRepository) GetByID(ctx context.Context, id int64) (*models.Challenge, error) {
	query := `
		SELECT id, title, description, points, category, week, is_active, created_at, updated_at
		FROM challenges
		WHERE id = $1`

	challenge := &models.Challenge{}
	err := r.QueryRowContext(ctx, query, id).Scan(
		&challenge.ID,
		&challenge.Title,
		&challenge.Description,
		&challenge.Points,
		&challenge.Category,
		&challenge.Week,
		&challenge.IsActive,
		&challenge.CreatedAt,
		&challenge.UpdatedAt,
	)
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return challenge, nil
}

func (r *challengeRepository) List(ctx context.Context, filter *models.ChallengeFilter) ([]*models.Challenge, error) {
	query := `
		SELECT id, title, description, points, category, week, is_active, created_at, updated_at
		FROM challenges
		WHERE 1=1`

	args := []interface{}{}
	argPos := 1

	if filter.Week != nil {
		query += fmt.Sprintf(" AND week = $%d", argPos)
		args = append(args, *filter.Week)
		argPos++
	}
	if filter.Category != nil {
		query += fmt.Sprintf(" AND category = $%d", argPos)
		args = append(args, *filter.Category)
		argPos++
	}
	if filter.IsActive != nil {
		query += fmt.Sprintf(" AND is_active = $%d", argPos)
		args = append(args, *filter.IsActive)
		argPos++
	}

	query += " ORDER BY week, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*models.Challenge
	for rows.Next() {
		challenge := &models.Challenge{}
		if err := rows.Scan(
			&challenge.ID,
			&challenge.Title,
			&challenge.Description,
			&challenge.Points,
			&challenge.Category,
			&challenge.Week,
			&challenge.IsActive,
			&challenge.CreatedAt,
			&challenge.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, challenge)
	}
	return challenges, rows.Err()
}
