package billing_test

import (
	"testing"
	"time"

	"freelancehub/internal/billing"
	"freelancehub/internal/model"
)

func closedInterval(start time.Time, minutes int) model.TimeInterval {
	end := start.Add(time.Duration(minutes) * time.Minute)
	return model.TimeInterval{
		StartTime:       start,
		EndTime:         &end,
		DurationMinutes: &minutes,
	}
}

func amount(v float64) *float64 { return &v }

func TestComputeStats_Hourly(t *testing.T) {
	p := &model.Project{BillingMode: model.BillingHourly, HourlyRate: amount(50)}
	intervals := []model.TimeInterval{
		closedInterval(time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC), 90),
	}

	stats := billing.ComputeStats(p, intervals, nil)

	if stats.TotalHours != 1.5 {
		t.Errorf("TotalHours = %v, want 1.5", stats.TotalHours)
	}
	if stats.EffectiveHourlyRate == nil || *stats.EffectiveHourlyRate != 50 {
		t.Errorf("EffectiveHourlyRate = %v, want 50 (verbatim passthrough)", stats.EffectiveHourlyRate)
	}

	// The configured rate passes through independent of hours tracked.
	stats = billing.ComputeStats(p, nil, nil)
	if stats.EffectiveHourlyRate == nil || *stats.EffectiveHourlyRate != 50 {
		t.Errorf("EffectiveHourlyRate with no intervals = %v, want 50", stats.EffectiveHourlyRate)
	}

	// Unset rate yields nil, not 0.
	stats = billing.ComputeStats(&model.Project{BillingMode: model.BillingHourly}, intervals, nil)
	if stats.EffectiveHourlyRate != nil {
		t.Errorf("EffectiveHourlyRate with unset rate = %v, want nil", *stats.EffectiveHourlyRate)
	}
}

func TestComputeStats_FixedTotal(t *testing.T) {
	p := &model.Project{BillingMode: model.BillingFixedTotal, FixedTotalAmount: amount(1000)}
	intervals := []model.TimeInterval{
		closedInterval(time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC), 480),
	}

	stats := billing.ComputeStats(p, intervals, nil)

	if stats.TotalHours != 8 {
		t.Errorf("TotalHours = %v, want 8", stats.TotalHours)
	}
	if stats.EffectiveHourlyRate == nil || *stats.EffectiveHourlyRate != 125 {
		t.Errorf("EffectiveHourlyRate = %v, want 125", stats.EffectiveHourlyRate)
	}

	// Zero tracked hours yields nil, not 0 and not a division error.
	stats = billing.ComputeStats(p, nil, nil)
	if stats.TotalHours != 0 {
		t.Errorf("TotalHours = %v, want 0", stats.TotalHours)
	}
	if stats.EffectiveHourlyRate != nil {
		t.Errorf("EffectiveHourlyRate = %v, want nil", *stats.EffectiveHourlyRate)
	}
}

func TestComputeStats_RecurringPeriod(t *testing.T) {
	p := &model.Project{
		BillingMode:     model.BillingRecurringPeriod,
		RecurringAmount: amount(1200),
		RecurringPeriod: model.PeriodMonthly,
	}
	// 30 hours spread over 3 distinct calendar months.
	intervals := []model.TimeInterval{
		closedInterval(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), 600),
		closedInterval(time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC), 600),
		closedInterval(time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC), 600),
	}

	stats := billing.ComputeStats(p, intervals, nil)

	if stats.TotalHours != 30 {
		t.Errorf("TotalHours = %v, want 30", stats.TotalHours)
	}
	if stats.EffectiveHourlyRate == nil || *stats.EffectiveHourlyRate != 120 {
		t.Errorf("EffectiveHourlyRate = %v, want 120 (1200*3/30)", stats.EffectiveHourlyRate)
	}

	// Two intervals in the same month count as one period.
	sameMonth := []model.TimeInterval{
		closedInterval(time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC), 300),
		closedInterval(time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC), 300),
	}
	stats = billing.ComputeStats(p, sameMonth, nil)
	if stats.EffectiveHourlyRate == nil || *stats.EffectiveHourlyRate != 120 {
		t.Errorf("EffectiveHourlyRate = %v, want 120 (1200*1/10)", stats.EffectiveHourlyRate)
	}
}

func TestComputeStats_ZeroMinuteIntervalsExcluded(t *testing.T) {
	p := &model.Project{BillingMode: model.BillingFixedTotal, FixedTotalAmount: amount(100)}
	intervals := []model.TimeInterval{
		closedInterval(time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC), 0),
		closedInterval(time.Date(2026, 2, 2, 10, 0, 0, 0, time.UTC), 60),
	}

	stats := billing.ComputeStats(p, intervals, nil)

	if stats.TotalHours != 1 {
		t.Errorf("TotalHours = %v, want 1 (zero-minute interval excluded)", stats.TotalHours)
	}
	if stats.EffectiveHourlyRate == nil || *stats.EffectiveHourlyRate != 100 {
		t.Errorf("EffectiveHourlyRate = %v, want 100", stats.EffectiveHourlyRate)
	}
}

func TestComputeStats_TotalIncome(t *testing.T) {
	p := &model.Project{BillingMode: model.BillingHourly}
	payments := []model.Payment{
		{InvoiceID: 1, Amount: 250.50},
		{InvoiceID: 2, Amount: 749.50},
	}

	stats := billing.ComputeStats(p, nil, payments)

	if stats.TotalIncome != 1000 {
		t.Errorf("TotalIncome = %v, want 1000", stats.TotalIncome)
	}
}

func TestComputeBillableAmount(t *testing.T) {
	jan := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		project   *model.Project
		intervals []model.TimeInterval
		want      float64
	}{
		{
			name:      "hourly 90 minutes at 50",
			project:   &model.Project{BillingMode: model.BillingHourly, HourlyRate: amount(50)},
			intervals: []model.TimeInterval{closedInterval(jan, 90)},
			want:      75,
		},
		{
			name:      "fixed total irrespective of hours",
			project:   &model.Project{BillingMode: model.BillingFixedTotal, FixedTotalAmount: amount(3000)},
			intervals: []model.TimeInterval{closedInterval(jan, 5)},
			want:      3000,
		},
		{
			name:    "fixed total unset",
			project: &model.Project{BillingMode: model.BillingFixedTotal},
			want:    0,
		},
		{
			name: "recurring two months",
			project: &model.Project{
				BillingMode:     model.BillingRecurringPeriod,
				RecurringAmount: amount(1200),
				RecurringPeriod: model.PeriodMonthly,
			},
			intervals: []model.TimeInterval{closedInterval(jan, 60), closedInterval(feb, 60)},
			want:      2400,
		},
		{
			name: "recurring counts zero-minute intervals, unlike stats",
			project: &model.Project{
				BillingMode:     model.BillingRecurringPeriod,
				RecurringAmount: amount(1200),
				RecurringPeriod: model.PeriodMonthly,
			},
			intervals: []model.TimeInterval{closedInterval(jan, 60), closedInterval(feb, 0)},
			want:      2400,
		},
		{
			name:    "hourly unset rate",
			project: &model.Project{BillingMode: model.BillingHourly},
			want:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := billing.ComputeBillableAmount(tt.project, tt.intervals)
			if got != tt.want {
				t.Errorf("ComputeBillableAmount() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputePeriodRates_Weekly(t *testing.T) {
	p := &model.Project{
		BillingMode:     model.BillingRecurringPeriod,
		RecurringAmount: amount(600),
		RecurringPeriod: model.PeriodWeekly,
	}
	// 2026-02-27 is a Friday (week starting Sunday 2026-02-22);
	// 2026-03-02 is a Monday (week starting Sunday 2026-03-01).
	intervals := []model.TimeInterval{
		closedInterval(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), 120),
		closedInterval(time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC), 180),
		closedInterval(time.Date(2026, 2, 23, 9, 0, 0, 0, time.UTC), 120),
	}

	rates := billing.ComputePeriodRates(p, intervals)

	if len(rates) != 2 {
		t.Fatalf("len(rates) = %d, want 2", len(rates))
	}
	if rates[0].Period != "2026-02-22" || rates[1].Period != "2026-03-01" {
		t.Errorf("periods = %q, %q; want 2026-02-22, 2026-03-01", rates[0].Period, rates[1].Period)
	}
	if rates[0].Hours != 5 || rates[0].Rate != 120 {
		t.Errorf("week 1 = %v hours at %v, want 5 hours at 120", rates[0].Hours, rates[0].Rate)
	}
	if rates[1].Hours != 2 || rates[1].Rate != 300 {
		t.Errorf("week 2 = %v hours at %v, want 2 hours at 300", rates[1].Hours, rates[1].Rate)
	}
}

func TestComputePeriodRates_NonRecurringIsEmpty(t *testing.T) {
	p := &model.Project{BillingMode: model.BillingHourly, HourlyRate: amount(50)}
	intervals := []model.TimeInterval{
		closedInterval(time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC), 60),
	}

	rates := billing.ComputePeriodRates(p, intervals)
	if len(rates) != 0 {
		t.Errorf("len(rates) = %d, want 0 for non-recurring project", len(rates))
	}
}

func TestFormatHoursMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		want    float64
	}{
		{0, 0},
		{40, 0.4},
		{59, 0.59},
		{60, 1},
		{100, 1.4},
		{125, 2.05},
	}
	for _, tt := range tests {
		got := billing.FormatHoursMinutes(tt.minutes)
		if got != tt.want {
			t.Errorf("FormatHoursMinutes(%d) = %v, want %v", tt.minutes, got, tt.want)
		}
	}
}
