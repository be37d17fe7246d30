package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"freelancehub/internal/model"
)

type PaymentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPaymentRepository(db *pgxpool.Pool, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Insert records a payment. The id comes from the invoicing layer, so
// ON CONFLICT DO NOTHING makes redelivery idempotent even when the
// Redis dedup check was unavailable.
func (r *PaymentRepository) Insert(ctx context.Context, p *model.Payment) error {
	query := `
        INSERT INTO payments (id, invoice_id, project_id, amount, currency, payment_date)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO NOTHING
    `
	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.InvoiceID,
		p.ProjectID,
		p.Amount,
		p.Currency,
		p.PaymentDate,
	)
	if err != nil {
		r.logger.Error("Failed to insert payment",
			zap.Int("payment_id", p.ID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// ListByProject returns all payments linked to a project.
func (r *PaymentRepository) ListByProject(ctx context.Context, projectID int) ([]model.Payment, error) {
	query := `
        SELECT id, invoice_id, project_id, amount, currency, payment_date, created_at
        FROM payments
        WHERE project_id = $1
        ORDER BY payment_date DESC
    `
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(
			&p.ID,
			&p.InvoiceID,
			&p.ProjectID,
			&p.Amount,
			&p.Currency,
			&p.PaymentDate,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
