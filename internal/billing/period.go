package billing

import (
	"time"

	"freelancehub/internal/model"
)

// WeekKey returns the ISO date of the Sunday-aligned week start
// containing t, e.g. "2026-02-22".
func WeekKey(t time.Time) string {
	sunday := t.AddDate(0, 0, -int(t.Weekday()))
	return sunday.Format("2006-01-02")
}

// MonthKey returns the "YYYY-MM" calendar month key containing t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// PeriodKey buckets t according to the project's billing cycle. Custom
// periods have no calendar shape of their own and bucket monthly. Both
// key formats sort lexicographically in chronological order.
func PeriodKey(pt model.PeriodType, t time.Time) string {
	if pt == model.PeriodWeekly {
		return WeekKey(t)
	}
	return MonthKey(t)
}

// periodKeys collects the distinct period keys of the given intervals,
// bucketing each interval by its start instant.
func periodKeys(pt model.PeriodType, intervals []model.TimeInterval, include func(*model.TimeInterval) bool) map[string]struct{} {
	keys := make(map[string]struct{})
	for i := range intervals {
		if include(&intervals[i]) {
			keys[PeriodKey(pt, intervals[i].StartTime)] = struct{}{}
		}
	}
	return keys
}
