package billing_test

import (
	"testing"
	"time"

	"freelancehub/internal/billing"
	"freelancehub/internal/model"
)

func TestWeekKey(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		// 2026-02-27 is a Friday; its week starts Sunday 2026-02-22.
		{"friday", time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC), "2026-02-22"},
		{"sunday maps to itself", time.Date(2026, 2, 22, 0, 0, 0, 0, time.UTC), "2026-02-22"},
		{"saturday end of week", time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC), "2026-02-22"},
		// Monday 2026-03-02 belongs to the week starting Sunday 2026-03-01.
		{"week spanning month boundary", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), "2026-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := billing.WeekKey(tt.t); got != tt.want {
				t.Errorf("WeekKey(%v) = %q, want %q", tt.t, got, tt.want)
			}
		})
	}
}

func TestMonthKey(t *testing.T) {
	got := billing.MonthKey(time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC))
	if got != "2026-02" {
		t.Errorf("MonthKey = %q, want %q", got, "2026-02")
	}
}

func TestPeriodKey_CustomBucketsMonthly(t *testing.T) {
	ts := time.Date(2026, 2, 27, 10, 0, 0, 0, time.UTC)
	if got := billing.PeriodKey(model.PeriodCustom, ts); got != "2026-02" {
		t.Errorf("PeriodKey(custom) = %q, want %q", got, "2026-02")
	}
	if got := billing.PeriodKey(model.PeriodWeekly, ts); got != "2026-02-22" {
		t.Errorf("PeriodKey(weekly) = %q, want %q", got, "2026-02-22")
	}
}
