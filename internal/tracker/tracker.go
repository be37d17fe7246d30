package tracker

import (
	"context"
	"math"
	"time"

	"freelancehub/internal/model"
	"freelancehub/pkg/metrics"

	"go.uber.org/zap"
)

// Service manages TimeInterval open/close/reopen transitions. It holds
// no cross-call state; the exclusivity invariant is delegated to the
// store (see IntervalStore).
type Service struct {
	store  IntervalStore
	clock  Clock
	logger *zap.Logger
}

func NewService(store IntervalStore, clock Clock, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		clock:  clock,
		logger: logger,
	}
}

// UpdatePatch is a partial edit of an interval. Nil fields are left
// untouched. ClearEnd reopens the interval (end and duration become
// nil). An explicit DurationMinutes takes precedence over recomputation
// from start/end.
type UpdatePatch struct {
	StartTime       *time.Time
	EndTime         *time.Time
	ClearEnd        bool
	Note            *string
	DurationMinutes *int
}

// Start opens a new interval for (projectID, userID) at the current
// time. Exclusivity scope is per project per user: a user may run
// concurrent timers on different projects, but never two on the same
// one.
func (s *Service) Start(ctx context.Context, projectID, userID int) (*model.TimeInterval, error) {
	iv := &model.TimeInterval{
		ProjectID: projectID,
		UserID:    userID,
		StartTime: s.clock.Now().UTC(),
	}

	if err := s.store.InsertOpen(ctx, iv); err != nil {
		metrics.IncrementSessionOperation("start", outcomeOf(err))
		return nil, err
	}

	s.logger.Info("Session started",
		zap.Int("interval_id", iv.ID),
		zap.Int("project_id", projectID),
		zap.Int("user_id", userID),
	)
	metrics.IncrementSessionOperation("start", "success")
	return iv, nil
}

// Stop closes the open interval, fixing its end instant and duration in
// minutes (rounded to the nearest minute). A stop within the starting
// minute yields duration 0, which is a valid tracked session. A non-nil
// note overwrites any prior note.
func (s *Service) Stop(ctx context.Context, intervalID, projectID, userID int, note *string) (*model.TimeInterval, error) {
	iv, err := s.store.Get(ctx, intervalID, projectID, userID)
	if err != nil {
		metrics.IncrementSessionOperation("stop", outcomeOf(err))
		return nil, err
	}
	if !iv.Open() {
		metrics.IncrementSessionOperation("stop", "not_found")
		return nil, &NotFoundError{Resource: "open time interval", ID: intervalID}
	}

	end := s.clock.Now().UTC()
	if end.Before(iv.StartTime) {
		metrics.IncrementSessionOperation("stop", "validation_error")
		return nil, &ValidationError{Reason: "end instant precedes start instant"}
	}
	minutes := roundMinutes(end.Sub(iv.StartTime))

	closed, err := s.store.CloseOpen(ctx, intervalID, projectID, userID, end, minutes, note)
	if err != nil {
		metrics.IncrementSessionOperation("stop", outcomeOf(err))
		return nil, err
	}

	s.logger.Info("Session stopped",
		zap.Int("interval_id", intervalID),
		zap.Int("project_id", projectID),
		zap.Int("user_id", userID),
		zap.Int("duration_minutes", minutes),
	)
	metrics.IncrementSessionOperation("stop", "success")
	metrics.RecordSessionDuration(minutes)
	return closed, nil
}

// Resume starts a fresh interval that carries the note of a previously
// closed one forward. The source interval and its recorded duration are
// untouched; resumed time accumulates as a separate record. Resuming
// fails with the same conflict contract as Start when the project
// already has an open interval, including when the source itself is
// still open.
func (s *Service) Resume(ctx context.Context, sourceIntervalID, projectID, userID int) (*model.TimeInterval, error) {
	src, err := s.store.Get(ctx, sourceIntervalID, projectID, userID)
	if err != nil {
		metrics.IncrementSessionOperation("resume", outcomeOf(err))
		return nil, err
	}
	if src.Open() {
		metrics.IncrementSessionOperation("resume", "conflict")
		return nil, &ConflictError{ProjectID: projectID}
	}

	iv := &model.TimeInterval{
		ProjectID: projectID,
		UserID:    userID,
		StartTime: s.clock.Now().UTC(),
		Note:      src.Note,
	}
	if err := s.store.InsertOpen(ctx, iv); err != nil {
		metrics.IncrementSessionOperation("resume", outcomeOf(err))
		return nil, err
	}

	s.logger.Info("Session resumed",
		zap.Int("interval_id", iv.ID),
		zap.Int("source_interval_id", sourceIntervalID),
		zap.Int("project_id", projectID),
		zap.Int("user_id", userID),
	)
	metrics.IncrementSessionOperation("resume", "success")
	return iv, nil
}

// Delete removes an interval, open or closed. Deleting an open interval
// immediately frees the scope for a new Start.
func (s *Service) Delete(ctx context.Context, intervalID, projectID, userID int) error {
	if err := s.store.Delete(ctx, intervalID, projectID, userID); err != nil {
		metrics.IncrementSessionOperation("delete", outcomeOf(err))
		return err
	}

	s.logger.Info("Session deleted",
		zap.Int("interval_id", intervalID),
		zap.Int("project_id", projectID),
		zap.Int("user_id", userID),
	)
	metrics.IncrementSessionOperation("delete", "success")
	return nil
}

// Update applies direct edits to an interval. Duration is re-derived
// from (start, end) whenever both are present and no explicit duration
// was supplied; clearing the end instant also clears the duration.
// Partial patches can combine into an invalid state even when each
// field is individually fine, so temporal ordering is re-validated here
// rather than trusted from the caller.
func (s *Service) Update(ctx context.Context, intervalID, projectID, userID int, patch UpdatePatch) (*model.TimeInterval, error) {
	iv, err := s.store.Get(ctx, intervalID, projectID, userID)
	if err != nil {
		metrics.IncrementSessionOperation("update", outcomeOf(err))
		return nil, err
	}

	if patch.StartTime != nil {
		iv.StartTime = patch.StartTime.UTC()
	}
	if patch.ClearEnd {
		iv.EndTime = nil
		iv.DurationMinutes = nil
	} else if patch.EndTime != nil {
		end := patch.EndTime.UTC()
		iv.EndTime = &end
	}
	if patch.Note != nil {
		iv.Note = patch.Note
	}

	if iv.EndTime != nil {
		if !iv.EndTime.After(iv.StartTime) {
			metrics.IncrementSessionOperation("update", "validation_error")
			return nil, &ValidationError{Reason: "end instant must be after start instant"}
		}
		if patch.DurationMinutes != nil {
			iv.DurationMinutes = patch.DurationMinutes
		} else {
			minutes := roundMinutes(iv.EndTime.Sub(iv.StartTime))
			iv.DurationMinutes = &minutes
		}
	}

	if err := s.store.Update(ctx, iv); err != nil {
		metrics.IncrementSessionOperation("update", outcomeOf(err))
		return nil, err
	}

	s.logger.Info("Session updated",
		zap.Int("interval_id", intervalID),
		zap.Int("project_id", projectID),
		zap.Int("user_id", userID),
	)
	metrics.IncrementSessionOperation("update", "success")
	return iv, nil
}

func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}

func outcomeOf(err error) string {
	switch err.(type) {
	case *ConflictError:
		return "conflict"
	case *NotFoundError:
		return "not_found"
	case *ValidationError:
		return "validation_error"
	default:
		return "error"
	}
}
