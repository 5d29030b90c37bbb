package delivery

import "time"

// CalendarPolicy decides which days cannot receive a delivery.
// The zero value means "use the plan's default policy".
type CalendarPolicy string

const (
	PolicyDefault     CalendarPolicy = ""
	PolicyNone        CalendarPolicy = "none"
	PolicyWeekdayOnly CalendarPolicy = "weekday_only"
	PolicySundayOnly  CalendarPolicy = "sunday_only"
)

// ParseCalendarPolicy accepts the persisted policy names. An empty string is
// PolicyDefault.
func ParseCalendarPolicy(s string) (CalendarPolicy, error) {
	switch p := CalendarPolicy(s); p {
	case PolicyDefault, PolicyNone, PolicyWeekdayOnly, PolicySundayOnly:
		return p, nil
	}
	return PolicyDefault, invalid("calendar_policy", "unknown policy %q", s)
}

// IsBlocked reports whether t falls on a day the policy excludes.
func (p CalendarPolicy) IsBlocked(t time.Time) bool {
	switch p {
	case PolicyWeekdayOnly:
		wd := t.Weekday()
		return wd == time.Saturday || wd == time.Sunday
	case PolicySundayOnly:
		return t.Weekday() == time.Sunday
	default:
		return false
	}
}

// Advance returns the earliest allowed day on or after t, keeping the time of
// day. Blocked days are always skipped forward.
func (p CalendarPolicy) Advance(t time.Time) time.Time {
	// A week always contains an allowed day for every policy.
	for i := 0; i < 7 && p.IsBlocked(t); i++ {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// Covers reports whether p blocks every weekday q blocks.
func (p CalendarPolicy) Covers(q CalendarPolicy) bool {
	// 2024-01-01 is a Monday.
	day := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		if q.IsBlocked(day) && !p.IsBlocked(day) {
			return false
		}
		day = day.AddDate(0, 0, 1)
	}
	return true
}

func (p CalendarPolicy) resolve(plan Plan) CalendarPolicy {
	if p == PolicyDefault {
		return plan.DefaultPolicy()
	}
	return p
}

// NextBusinessDelivery is the generic next-day slot: the day after now at
// deliveryHour, moved past weekends.
func NextBusinessDelivery(now time.Time, deliveryHour int) time.Time {
	day := startOfDay(now).AddDate(0, 0, 1)
	at := time.Date(day.Year(), day.Month(), day.Day(), deliveryHour, 0, 0, 0, now.Location())
	return PolicyWeekdayOnly.Advance(at)
}
