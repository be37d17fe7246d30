package mq

import "time"

// SessionStartedPayload is published on routing key "session.started"
// whenever a timer is opened (start or resume).
type SessionStartedPayload struct {
	IntervalID int       `json:"interval_id"`
	ProjectID  int       `json:"project_id"`
	UserID     int       `json:"user_id"`
	StartedAt  time.Time `json:"started_at"`
}

// SessionStoppedPayload is published on routing key "session.stopped"
// through the transactional outbox, in the same transaction that closes
// the interval.
type SessionStoppedPayload struct {
	IntervalID      int       `json:"interval_id"`
	ProjectID       int       `json:"project_id"`
	UserID          int       `json:"user_id"`
	DurationMinutes int       `json:"duration_minutes"`
	StoppedAt       time.Time `json:"stopped_at"`
	Note            *string   `json:"note,omitempty"`
}
