package model

import "time"

// UsageEvent records token and cost telemetry for one generation job.
type UsageEvent struct {
	ID         string
	JobID      string
	LetterID   string
	FirmID     string
	UserID     string
	Model      string
	Usage      TokenUsage
	Cost       float64
	DurationMS int64
	CreatedAt  time.Time
}
