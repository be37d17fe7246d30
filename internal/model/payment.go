package model

import "time"

// Payment is a recorded cash receipt against an invoice. ProjectID is nil
// for payments not linked to a project; those never contribute to project
// income.
type Payment struct {
	ID          int       `json:"id"`
	InvoiceID   int       `json:"invoice_id"`
	ProjectID   *int      `json:"project_id"`
	Amount      float64   `json:"amount"`
	Currency    string    `json:"currency"`
	PaymentDate time.Time `json:"payment_date"`
	CreatedAt   time.Time `json:"created_at"`
}
