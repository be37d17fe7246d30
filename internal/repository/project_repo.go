package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"freelancehub/internal/model"
	"freelancehub/internal/tracker"
)

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Get returns the project scoped to its owner. A project belonging to
// another user reports not found rather than forbidden, so ids cannot
// be probed.
func (r *ProjectRepository) Get(ctx context.Context, id, userID int) (*model.Project, error) {
	query := `
        SELECT id, user_id, name, billing_mode, fixed_total_amount, recurring_amount,
               recurring_period, hourly_rate, currency, status, created_at
        FROM projects
        WHERE id = $1 AND user_id = $2
    `
	p := &model.Project{}
	err := r.db.QueryRow(ctx, query, id, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.BillingMode,
		&p.FixedTotalAmount,
		&p.RecurringAmount,
		&p.RecurringPeriod,
		&p.HourlyRate,
		&p.Currency,
		&p.Status,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &tracker.NotFoundError{Resource: "project", ID: id}
		}
		return nil, err
	}
	return p, nil
}
