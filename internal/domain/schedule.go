// internal/domain/schedule.go
package domain

import "time"

// NextExecution returns the due date one interval after from. The
// computation is pure: it never mutates its input and always returns a new
// time.Time.
//
// Monthly addition is calendar-aware with end-of-month clamping: Jan 31
// advances to Feb 28 (29 in leap years), then to Mar 28, never to Mar 2/3
// the way naive normalization would. Daily and weekly addition goes through
// AddDate so DST transitions are handled by the location rules.
func NextExecution(interval RecurringInterval, from time.Time) time.Time {
	switch interval {
	case IntervalDaily:
		return from.AddDate(0, 0, 1)
	case IntervalWeekly:
		return from.AddDate(0, 0, 7)
	case IntervalMonthly:
		return addMonthClamped(from, 1)
	default:
		return from
	}
}

func addMonthClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	// First-of-month anchor avoids AddDate's day overflow normalization.
	anchor := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	anchor = anchor.AddDate(0, months, 0)

	if last := daysIn(anchor.Year(), anchor.Month()); day > last {
		day = last
	}
	return time.Date(anchor.Year(), anchor.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	// Day 0 of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// EndOfDay returns the last representable instant of t's calendar day,
// used for inclusive endDate filtering.
func EndOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
