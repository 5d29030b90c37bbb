package delivery

import (
	"strings"
	"time"
)

// Plan is the cadence of a subscription.
type Plan string

const (
	PlanDaily   Plan = "daily"
	PlanWeekly  Plan = "weekly"
	PlanMonthly Plan = "monthly"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanDaily, PlanWeekly, PlanMonthly:
		return true
	}
	return false
}

// ParsePlan is the boundary check for plan strings coming from requests or storage.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", invalid("plan", "unknown plan %q", s)
	}
	return p, nil
}

// increment moves t forward by one plan unit. Monthly steps keep anchorDay
// where the target month has it and clamp to the month end otherwise.
// Unknown plans step like daily.
func (p Plan) increment(t time.Time, anchorDay int) time.Time {
	switch p {
	case PlanWeekly:
		return t.AddDate(0, 0, 7)
	case PlanMonthly:
		return addMonthsClamped(t, 1, anchorDay)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// DefaultPolicy is the calendar policy a plan's schedule follows unless the
// caller picks one explicitly.
func (p Plan) DefaultPolicy() CalendarPolicy {
	switch p {
	case PlanWeekly, PlanMonthly:
		return PolicyNone
	default:
		return PolicyWeekdayOnly
	}
}
