package models

import "time"

// Progress is the canonical server-computed progress state for the user's
// current track.
type Progress struct {
	TrackID          string  `json:"track_id"`
	SubareaID        string  `json:"subarea_id"`
	CompletedLessons int     `json:"completed_lessons"`
	TotalLessons     int     `json:"total_lessons"`
	CompletionRatio  float64 `json:"completion_ratio"`
	CurrentStep      string  `json:"current_step"`
}

// Statistics aggregates activity counters shown on the dashboard.
type Statistics struct {
	LessonsCompleted int `json:"lessons_completed"`
	ProjectsFinished int `json:"projects_finished"`
	TotalXP          int `json:"total_xp"`
	ActiveDays       int `json:"active_days"`
}

// Achievement is a single earned badge.
type Achievement struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Badge    string    `json:"badge"`
	EarnedAt time.Time `json:"earned_at"`
}

// NextSteps is the recommendation feed. Fetch-only: the server recomputes it
// per request, so the client never treats it as fresh.
type NextSteps struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// Recommendation is one suggested next activity.
type Recommendation struct {
	Kind     string `json:"kind"`
	TargetID string `json:"target_id"`
	Title    string `json:"title"`
	Reason   string `json:"reason"`
}

// AchievementCheck is the result of the remote new-achievement check.
type AchievementCheck struct {
	NewBadges []Achievement `json:"new_badges"`
	XPEarned  int           `json:"xp_earned"`
}

// LessonCompletion is the payload reported when a lesson is finished.
type LessonCompletion struct {
	LessonID  string `json:"lesson_id"`
	Score     int    `json:"score"`
	DurationS int    `json:"duration_s"`
}

// LessonResult is what CompleteLesson returns to the caller: the server's
// acknowledgement merged with any badges earned by the completion.
type LessonResult struct {
	LessonID  string        `json:"lesson_id"`
	XPEarned  int           `json:"xp_earned"`
	NewBadges []Achievement `json:"new_badges"`
}

// LeaderboardEntry is one row of the ranking for a given metric.
type LeaderboardEntry struct {
	Rank  int    `json:"rank"`
	Email string `json:"email"`
	Value int    `json:"value"`
}

// StudyStreak describes the user's current run of consecutive study days.
type StudyStreak struct {
	CurrentDays int       `json:"current_days"`
	LongestDays int       `json:"longest_days"`
	LastStudyAt time.Time `json:"last_study_at"`
}
