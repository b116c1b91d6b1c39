// file: internal/repositories/profile_repository.go
package repositories

import (
	"context"
	"fmt"

	"ecolearn/internal/database"
	"ecolearn/internal/models"

	"go.uber.org/zap"
)

type profileRepository struct {
	*BaseRepository
}

// NewProfileRepository creates a new student profile repository
func NewProfileRepository(db *database.Manager, logger *zap.Logger) ProfileRepository {
	return &profileRepository{
		BaseRepository: NewBaseRepository(db, logger),
	}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	query := `
		SELECT user_id, display_name, eco_points, current_level, created_at, updated_at
		FROM student_profiles
		WHERE user_id = $1`

	profile := &models.StudentProfile{}
	err := r.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.EcoPoints,
		&profile.CurrentLevel,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if r.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.StudentProfile) error {
	query := `
		INSERT INTO student_profiles (user_id, display_name, eco_points, current_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET display_name = EXCLUDED.display_name, updated_at = NOW()
		RETURNING eco_points, current_level, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		profile.UserID,
		profile.DisplayName,
		profile.EcoPoints,
		models.LevelForPoints(profile.EcoPoints),
	).Scan(&profile.EcoPoints, &profile.CurrentLevel, &profile.CreatedAt, &profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

func (r *profileRepository) Leaderboard(ctx context.Context, limit int) ([]*models.StudentProfile, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT user_id, display_name, eco_points, current_level, created_at, updated_at
		FROM student_profiles
		ORDER BY eco_points DESC, user_id
		LIMIT $1`

	rows, err := r.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	defer rows.Close()

	var profiles []*models.StudentProfile
	for rows.Next() {
		profile := &models.StudentProfile{}
		if err := rows.Scan(
			&profile.UserID,
			&profile.DisplayName,
			&profile.EcoPoints,
			&profile.CurrentLevel,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}
