package delivery

import "time"

// addMonthsClamped adds months to t and lands on targetDay, or on the last day
// of the resulting month when it is shorter. Jan 31 + 1 month is Feb 28 (29
// in leap years), and with targetDay 31 the next step is Mar 31 again.
func addMonthsClamped(t time.Time, months, targetDay int) time.Time {
	year, month, _ := t.Date()
	first := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())

	// day 0 of the next month is the last day of this one
	lastDay := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, first.Location()).Day()

	day := targetDay
	if day > lastDay {
		day = lastDay
	}
	if day < 1 {
		day = 1
	}

	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// AddMonths adds months to t, clamping to the end of shorter months instead of
// rolling over into the following month.
func AddMonths(t time.Time, months int) time.Time {
	return addMonthsClamped(t, months, t.Day())
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
