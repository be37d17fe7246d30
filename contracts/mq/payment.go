package mq

import "time"

// PaymentRecordedPayload is consumed from routing key "payment.recorded",
// emitted by the invoicing layer when a cash receipt is registered.
// PaymentID is the invoicing layer's identifier and doubles as the
// idempotency key.
type PaymentRecordedPayload struct {
	PaymentID int       `json:"payment_id"`
	InvoiceID int       `json:"invoice_id"`
	ProjectID *int      `json:"project_id"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	PaidAt    time.Time `json:"paid_at"`
	TraceID   string    `json:"trace_id,omitempty"`
}
