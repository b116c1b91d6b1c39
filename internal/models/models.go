// file: internal/models/models.go
package models

import "time"

// ===============================
// CORE ENTITIES
// ===============================

// Challenge is an environmental challenge students complete for points.
type Challenge struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title" validate:"required,max=150"`
	Description string    `json:"description" db:"description" validate:"max=2000"`
	Points      int       `json:"points" db:"points" validate:"required,gt=0"`
	Category    string    `json:"category" db:"category" validate:"required,max=50"`
	Week        int       `json:"week" db:"week" validate:"gte=0"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ChallengeSubmission is a student's photo proof for a challenge.
// At most one row exists per (user, challenge); resubmission after a
// rejection reuses the row.
type ChallengeSubmission struct {
	ID            int64            `json:"id" db:"id"`
	UserID        string           `json:"user_id" db:"user_id"`
	ChallengeID   int64            `json:"challenge_id" db:"challenge_id"`
	PhotoURL      string           `json:"photo_url" db:"photo_url"`
	PhotoPublicID string           `json:"-" db:"photo_public_id"`
	Caption       string           `json:"caption,omitempty" db:"caption" validate:"max=200"`
	Status        SubmissionStatus `json:"status" db:"status"`
	Feedback      *string          `json:"feedback,omitempty" db:"feedback"`
	PointsAwarded int              `json:"points_awarded" db:"points_awarded"`
	SubmittedAt   time.Time        `json:"submitted_at" db:"submitted_at"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewedBy    *string          `json:"reviewed_by,omitempty" db:"reviewed_by"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// StudentProfile accumulates a student's eco points and derived level.
type StudentProfile struct {
	UserID       string    `json:"user_id" db:"user_id"`
	DisplayName  string    `json:"display_name,omitempty" db:"display_name"`
	EcoPoints    int       `json:"eco_points" db:"eco_points"`
	CurrentLevel int       `json:"current_level" db:"current_level"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PointsPerLevel is the flat threshold used by LevelForPoints.
const PointsPerLevel = 100

// LevelForPoints derives the level shown to students from total points.
func LevelForPoints(points int) int {
	if points < 0 {
		points = 0
	}
	return points/PointsPerLevel + 1
}

// ChallengeFilter narrows catalog listings. Nil fields are ignored.
type ChallengeFilter struct {
	Week     *int
	Category *string
	IsActive *bool
	Limit    int
	Offset   int
}

// ChatContext pins an assistant conversation to a place in the app.
type ChatContext struct {
	Page        string  `json:"page" validate:"required,max=64"`
	ModuleID    *string `json:"module_id,omitempty" validate:"omitempty,max=64"`
	LessonID    *string `json:"lesson_id,omitempty" validate:"omitempty,max=64"`
	QuizID      *string `json:"quiz_id,omitempty" validate:"omitempty,max=64"`
	ChallengeID *int64  `json:"challenge_id,omitempty"`
}
