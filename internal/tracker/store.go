package tracker

import (
	"context"
	"time"

	"freelancehub/internal/model"
)

// IntervalStore is the persistence contract the tracker runs against.
// The store, not the tracker, owns the atomicity of the single-open-
// interval invariant: InsertOpen must be an atomic check-and-create so
// that two concurrent starts for the same (project, user) cannot both
// succeed, even across server processes. The Postgres implementation
// lives in internal/repository; tests substitute an in-memory map.
type IntervalStore interface {
	// InsertOpen creates iv with a nil end instant, failing with
	// *ConflictError if (iv.ProjectID, iv.UserID) already has an open
	// interval. On success iv.ID and iv.CreatedAt are populated.
	InsertOpen(ctx context.Context, iv *model.TimeInterval) error

	// Get fetches an interval scoped to its owner. Missing rows and rows
	// owned by someone else both yield *NotFoundError.
	Get(ctx context.Context, id, projectID, userID int) (*model.TimeInterval, error)

	// CloseOpen sets end/duration on the open interval id, overwriting
	// the note only when note is non-nil. It must only match rows whose
	// end instant is still nil; otherwise *NotFoundError.
	CloseOpen(ctx context.Context, id, projectID, userID int, end time.Time, durationMinutes int, note *string) (*model.TimeInterval, error)

	// Update persists iv's start/end/duration/note as given.
	Update(ctx context.Context, iv *model.TimeInterval) error

	// Delete removes the interval, open or closed.
	Delete(ctx context.Context, id, projectID, userID int) error
}
