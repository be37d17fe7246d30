// Package billing derives per-project aggregate statistics from closed
// time intervals and recorded payments. Everything here is a pure
// function of its inputs; concurrent calls over the same data need no
// coordination.
package billing

import (
	"math"
	"sort"

	"freelancehub/internal/model"
)

// Stats are the derived figures shown on project reads and dashboards.
// EffectiveHourlyRate is nil whenever it is undefined (no tracked hours,
// no configured amount, no observed periods) — never 0 or Inf.
type Stats struct {
	TotalHours          float64  `json:"total_hours"`
	TotalIncome         float64  `json:"total_income"`
	EffectiveHourlyRate *float64 `json:"effective_hourly_rate"`
}

// PeriodRate is one billing cycle's tracked hours and implied rate.
type PeriodRate struct {
	Period string  `json:"period"`
	Hours  float64 `json:"hours"`
	Rate   float64 `json:"rate"`
}

// completed reports whether an interval counts as tracked time for rate
// purposes: closed, with a strictly positive recorded duration. Zero-
// minute intervals are valid stop outcomes but are floored out here so
// they cannot pollute rate calculations.
func completed(iv *model.TimeInterval) bool {
	return iv.EndTime != nil && iv.DurationMinutes != nil && *iv.DurationMinutes > 0
}

// hasDuration is the looser filter used by billable-amount projections.
func hasDuration(iv *model.TimeInterval) bool {
	return iv.DurationMinutes != nil
}

// ComputeStats derives total tracked hours, total recorded income and
// the mode-dependent effective hourly rate. Payment amounts are summed
// as stored, with no currency conversion. All internal arithmetic uses
// true decimal hours; see FormatHoursMinutes for the display encoding.
func ComputeStats(p *model.Project, intervals []model.TimeInterval, payments []model.Payment) Stats {
	totalMinutes := 0
	for i := range intervals {
		if completed(&intervals[i]) {
			totalMinutes += *intervals[i].DurationMinutes
		}
	}
	hours := float64(totalMinutes) / 60

	stats := Stats{TotalHours: round2(hours)}
	for _, pay := range payments {
		stats.TotalIncome += pay.Amount
	}

	switch p.BillingMode {
	case model.BillingFixedTotal:
		if p.FixedTotalAmount != nil && hours > 0 {
			rate := round2(*p.FixedTotalAmount / hours)
			stats.EffectiveHourlyRate = &rate
		}
	case model.BillingRecurringPeriod:
		if p.RecurringAmount != nil && hours > 0 {
			// Average rate across periods that saw tracked activity. This
			// is an approximation; per-period breakdown comes from
			// ComputePeriodRates.
			periods := len(periodKeys(p.RecurringPeriod, intervals, completed))
			if periods > 0 {
				rate := round2(*p.RecurringAmount * float64(periods) / hours)
				stats.EffectiveHourlyRate = &rate
			}
		}
	case model.BillingHourly:
		if p.HourlyRate != nil {
			rate := *p.HourlyRate
			stats.EffectiveHourlyRate = &rate
		}
	}

	return stats
}

// ComputeBillableAmount projects what should be owed for the tracked
// time, independent of what was paid. Unlike ComputeStats this counts
// every interval with a recorded duration, zero minutes included — the
// filters differ on purpose and must not be unified silently.
func ComputeBillableAmount(p *model.Project, intervals []model.TimeInterval) float64 {
	switch p.BillingMode {
	case model.BillingFixedTotal:
		if p.FixedTotalAmount == nil {
			return 0
		}
		return *p.FixedTotalAmount
	case model.BillingRecurringPeriod:
		if p.RecurringAmount == nil {
			return 0
		}
		periods := len(periodKeys(p.RecurringPeriod, intervals, hasDuration))
		return round2(*p.RecurringAmount * float64(periods))
	case model.BillingHourly:
		if p.HourlyRate == nil {
			return 0
		}
		totalMinutes := 0
		for i := range intervals {
			if hasDuration(&intervals[i]) {
				totalMinutes += *intervals[i].DurationMinutes
			}
		}
		return round2(*p.HourlyRate * float64(totalMinutes) / 60)
	}
	return 0
}

// ComputePeriodRates breaks a recurring-period project down into one
// entry per billing cycle with tracked activity, sorted ascending by
// period key (chronological for both key formats). Projects in any
// other billing mode yield an empty list.
func ComputePeriodRates(p *model.Project, intervals []model.TimeInterval) []PeriodRate {
	rates := []PeriodRate{}
	if p.BillingMode != model.BillingRecurringPeriod {
		return rates
	}

	amount := 0.0
	if p.RecurringAmount != nil {
		amount = *p.RecurringAmount
	}

	minutesByPeriod := make(map[string]int)
	for i := range intervals {
		if completed(&intervals[i]) {
			key := PeriodKey(p.RecurringPeriod, intervals[i].StartTime)
			minutesByPeriod[key] += *intervals[i].DurationMinutes
		}
	}

	for period, minutes := range minutesByPeriod {
		hours := round2(float64(minutes) / 60)
		rate := 0.0
		if hours > 0 {
			rate = round2(amount / hours)
		}
		rates = append(rates, PeriodRate{Period: period, Hours: hours, Rate: rate})
	}

	sort.Slice(rates, func(i, j int) bool { return rates[i].Period < rates[j].Period })
	return rates
}

// FormatHoursMinutes encodes minutes in the "hours.minutes" display
// convention, e.g. 100 minutes -> 1.40 (1 hour 40 minutes). This is a
// presentation-only transform applied after all rate math; it must
// never be fed back into a rate computation.
func FormatHoursMinutes(totalMinutes int) float64 {
	return round2(float64(totalMinutes/60) + float64(totalMinutes%60)/100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
