package domain

import "time"

// AnalysisRun represents a single analyze invocation
type AnalysisRun struct {
	ID           string     `json:"id"`
	Platform     string     `json:"platform"` // "gitlab" or "github"
	Year         int        `json:"year"`
	Status       string     `json:"status"` // "in_progress", "completed", "failed"
	RecordsAdded int64      `json:"records_added"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}
