// Package api defines the client's boundary with the QuestPath backend:
// the session and data service contracts, the error taxonomy, and the
// HTTP/JSON implementation of both.
package api

import (
	"context"

	"github.com/dkravets/questpath/internal/client/models"
)

// Credentials is the result of a successful login or registration.
type Credentials struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Registration carries the fields required to create an account.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// SessionAPI is the remote session service contract.
//
// Contract:
//   - Login: authenticate, fails with ErrUnauthorized on bad credentials.
//   - Register: create an account, fails with *ValidationError on bad input.
//   - CurrentUser: fetch the profile for the attached token; ErrUnauthorized
//     if the token is invalid or expired.
//   - RefreshToken: exchange the attached token for a fresh one;
//     ErrUnauthorized if not renewable.
//   - Logout: invalidate the session server-side; callers may ignore errors.
//
// All methods must honor context cancellation/timeouts.
type SessionAPI interface {
	Login(ctx context.Context, email, password string) (*Credentials, error)
	Register(ctx context.Context, reg Registration) (*Credentials, error)
	CurrentUser(ctx context.Context) (*models.User, error)
	RefreshToken(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// DataAPI is the remote data service contract for user-derived data.
// Reads may fail with ErrUnavailable (transient) or ErrUnauthorized
// (session loss); mutations additionally with *ValidationError.
type DataAPI interface {
	CurrentProgress(ctx context.Context) (*models.Progress, error)
	Statistics(ctx context.Context) (*models.Statistics, error)
	NextSteps(ctx context.Context) (*models.NextSteps, error)
	Achievements(ctx context.Context) ([]models.Achievement, error)
	CheckNewAchievements(ctx context.Context) (*models.AchievementCheck, error)
	CompleteLesson(ctx context.Context, data models.LessonCompletion) (*models.LessonResult, error)
	AdvanceProgress(ctx context.Context, stepType string) (*models.Progress, error)
	Leaderboard(ctx context.Context, metric string, limit int) ([]models.LeaderboardEntry, error)
	StudyStreak(ctx context.Context) (*models.StudyStreak, error)
}
