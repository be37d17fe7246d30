package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	contracts "freelancehub/contracts/mq"
	"freelancehub/internal/model"
	"freelancehub/internal/tracker"
	"freelancehub/pkg/outbox"
)

// IntervalRepository persists time intervals and enforces the one open
// session per (project, user) rule at the database level. A partial
// unique index on (project_id, user_id) WHERE end_time IS NULL backs up
// the conditional insert against races.
type IntervalRepository struct {
	db     *pgxpool.Pool
	outbox *outbox.Repository
	logger *zap.Logger
}

func NewIntervalRepository(db *pgxpool.Pool, outboxRepo *outbox.Repository, logger *zap.Logger) *IntervalRepository {
	return &IntervalRepository{
		db:     db,
		outbox: outboxRepo,
		logger: logger,
	}
}

// InsertOpen inserts a new open interval unless one already exists for
// the same project and user. The WHERE NOT EXISTS guard makes the check
// and insert a single statement; the partial unique index catches the
// remaining race window between two concurrent inserts.
func (r *IntervalRepository) InsertOpen(ctx context.Context, iv *model.TimeInterval) error {
	query := `
        INSERT INTO time_intervals (project_id, user_id, start_time, note)
        SELECT $1, $2, $3, $4
        WHERE NOT EXISTS (
            SELECT 1 FROM time_intervals
            WHERE project_id = $1 AND user_id = $2 AND end_time IS NULL
        )
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		iv.ProjectID,
		iv.UserID,
		iv.StartTime,
		iv.Note,
	).Scan(&iv.ID, &iv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &tracker.ConflictError{ProjectID: iv.ProjectID}
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &tracker.ConflictError{ProjectID: iv.ProjectID}
		}
		r.logger.Error("Failed to insert open interval",
			zap.Int("project_id", iv.ProjectID),
			zap.Int("user_id", iv.UserID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// Get returns the interval scoped to project and user, or NotFoundError.
func (r *IntervalRepository) Get(ctx context.Context, id, projectID, userID int) (*model.TimeInterval, error) {
	query := `
        SELECT id, project_id, user_id, start_time, end_time, duration_minutes, note, created_at
        FROM time_intervals
        WHERE id = $1 AND project_id = $2 AND user_id = $3
    `
	iv := &model.TimeInterval{}
	err := r.db.QueryRow(ctx, query, id, projectID, userID).Scan(
		&iv.ID,
		&iv.ProjectID,
		&iv.UserID,
		&iv.StartTime,
		&iv.EndTime,
		&iv.DurationMinutes,
		&iv.Note,
		&iv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &tracker.NotFoundError{Resource: "interval", ID: id}
		}
		return nil, err
	}
	return iv, nil
}

// CloseOpen closes an open interval and writes a session.stopped outbox
// event in the same transaction. The WHERE end_time IS NULL predicate
// makes a double stop report not found instead of silently rewriting
// the row.
func (r *IntervalRepository) CloseOpen(
	ctx context.Context,
	id, projectID, userID int,
	end time.Time,
	durationMinutes int,
	note *string,
) (*model.TimeInterval, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE time_intervals
        SET end_time = $4,
            duration_minutes = $5,
            note = COALESCE($6, note)
        WHERE id = $1 AND project_id = $2 AND user_id = $3 AND end_time IS NULL
        RETURNING id, project_id, user_id, start_time, end_time, duration_minutes, note, created_at
    `
	iv := &model.TimeInterval{}
	err = tx.QueryRow(ctx, query, id, projectID, userID, end, durationMinutes, note).Scan(
		&iv.ID,
		&iv.ProjectID,
		&iv.UserID,
		&iv.StartTime,
		&iv.EndTime,
		&iv.DurationMinutes,
		&iv.Note,
		&iv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &tracker.NotFoundError{Resource: "interval", ID: id}
		}
		return nil, err
	}

	aggregateID := int64(iv.ID)
	payload := contracts.SessionStoppedPayload{
		IntervalID:      iv.ID,
		ProjectID:       iv.ProjectID,
		UserID:          iv.UserID,
		DurationMinutes: durationMinutes,
		StoppedAt:       end,
		Note:            iv.Note,
	}
	if err := outbox.InsertEventInTx(ctx, tx, r.outbox, "interval", &aggregateID, "session.stopped", payload); err != nil {
		r.logger.Error("Failed to insert session.stopped outbox event",
			zap.Int("interval_id", iv.ID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return iv, nil
}

// Update rewrites all mutable fields of the interval.
func (r *IntervalRepository) Update(ctx context.Context, iv *model.TimeInterval) error {
	query := `
        UPDATE time_intervals
        SET start_time = $4,
            end_time = $5,
            duration_minutes = $6,
            note = $7
        WHERE id = $1 AND project_id = $2 AND user_id = $3
    `
	result, err := r.db.Exec(ctx, query,
		iv.ID,
		iv.ProjectID,
		iv.UserID,
		iv.StartTime,
		iv.EndTime,
		iv.DurationMinutes,
		iv.Note,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return &tracker.ConflictError{ProjectID: iv.ProjectID}
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return &tracker.NotFoundError{Resource: "interval", ID: iv.ID}
	}
	return nil
}

// Delete removes the interval scoped to project and user.
func (r *IntervalRepository) Delete(ctx context.Context, id, projectID, userID int) error {
	query := `
        DELETE FROM time_intervals
        WHERE id = $1 AND project_id = $2 AND user_id = $3
    `
	result, err := r.db.Exec(ctx, query, id, projectID, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return &tracker.NotFoundError{Resource: "interval", ID: id}
	}
	return nil
}

// ListByProject returns every interval of a project, newest first.
// Billing works on the full list and applies its own completion filters.
func (r *IntervalRepository) ListByProject(ctx context.Context, projectID, userID int) ([]model.TimeInterval, error) {
	query := `
        SELECT id, project_id, user_id, start_time, end_time, duration_minutes, note, created_at
        FROM time_intervals
        WHERE project_id = $1 AND user_id = $2
        ORDER BY start_time DESC
    `
	rows, err := r.db.Query(ctx, query, projectID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intervals []model.TimeInterval
	for rows.Next() {
		var iv model.TimeInterval
		if err := rows.Scan(
			&iv.ID,
			&iv.ProjectID,
			&iv.UserID,
			&iv.StartTime,
			&iv.EndTime,
			&iv.DurationMinutes,
			&iv.Note,
			&iv.CreatedAt,
		); err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, rows.Err()
}
