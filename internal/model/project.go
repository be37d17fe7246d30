package model

import "time"

// BillingMode determines how a project converts tracked time and payments
// into an income/rate figure.
type BillingMode string

const (
	BillingFixedTotal      BillingMode = "fixed_total"
	BillingRecurringPeriod BillingMode = "recurring_period"
	BillingHourly          BillingMode = "hourly"
)

// PeriodType is the billing cycle of a recurring-period project.
type PeriodType string

const (
	PeriodMonthly PeriodType = "monthly"
	PeriodWeekly  PeriodType = "weekly"
	PeriodCustom  PeriodType = "custom"
)

type Project struct {
	ID     int    `json:"id"`
	UserID int    `json:"user_id"`
	Name   string `json:"name"`

	BillingMode BillingMode `json:"billing_mode"`
	// Only the parameters matching BillingMode are meaningful; the others
	// are ignored by the calculator regardless of stored value.
	FixedTotalAmount *float64   `json:"fixed_total_amount"`
	RecurringAmount  *float64   `json:"recurring_amount"`
	RecurringPeriod  PeriodType `json:"recurring_period"`
	HourlyRate       *float64   `json:"hourly_rate"`

	Currency  string    `json:"currency"`
	Status    string    `json:"status"` // active / paused / archived
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
