package model

import "time"

// TimeInterval is one contiguous span of tracked work on a project.
// EndTime and DurationMinutes are both nil while the interval is open,
// and both set once it has been stopped.
type TimeInterval struct {
	ID              int        `json:"id"`
	ProjectID       int        `json:"project_id"`
	UserID          int        `json:"user_id"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	DurationMinutes *int       `json:"duration_minutes"`
	Note            *string    `json:"note"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Open reports whether the interval is still being timed.
func (iv *TimeInterval) Open() bool {
	return iv.EndTime == nil
}
