package delivery

import "time"

const (
	// MaxUnboundedDuration caps schedules generated without an end date.
	MaxUnboundedDuration = 3660

	preallocLimit = 366
)

type scheduleOptions struct {
	end    time.Time
	policy CalendarPolicy
}

// ScheduleOption tunes GenerateDeliveryDates.
type ScheduleOption func(*scheduleOptions)

// WithEndDate stops the schedule at end (inclusive). A zero end means no boundary.
func WithEndDate(end time.Time) ScheduleOption {
	return func(o *scheduleOptions) {
		o.end = end
	}
}

// WithPolicy overrides the plan's default calendar policy.
func WithPolicy(p CalendarPolicy) ScheduleOption {
	return func(o *scheduleOptions) {
		o.policy = p
	}
}

// GenerateDeliveryDates materializes up to duration delivery dates starting at
// start. The first delivery is start itself, moved forward if the calendar
// policy blocks it. Generation stops early at the end boundary; a start after
// the boundary yields an empty schedule. Without an end date duration may
// not exceed MaxUnboundedDuration.
//
// Weekly and monthly dates are derived from start by index so that a policy
// shift on one delivery never drifts the ones after it.
func GenerateDeliveryDates(plan Plan, start time.Time, duration int, opts ...ScheduleOption) ([]time.Time, error) {
	if duration <= 0 {
		return nil, invalid("duration", "must be positive, got %d", duration)
	}
	if start.IsZero() {
		return nil, invalid("start_date", "is required")
	}

	var o scheduleOptions
	for _, opt := range opts {
		opt(&o)
	}
	policy := o.policy.resolve(plan)
	bounded := !o.end.IsZero()
	if !bounded && duration > MaxUnboundedDuration {
		return nil, invalid("duration", "must be at most %d without an end date, got %d", MaxUnboundedDuration, duration)
	}

	dates := make([]time.Time, 0, min(duration, preallocLimit))
	if bounded && start.After(o.end) {
		return dates, nil
	}

	anchorDay := start.Day()
	current := policy.Advance(start)
	for k := 1; len(dates) < duration; k++ {
		if bounded && current.After(o.end) {
			break
		}
		if len(dates) == 0 || current.After(dates[len(dates)-1]) {
			dates = append(dates, current)
		}

		switch plan {
		case PlanWeekly:
			current = policy.Advance(start.AddDate(0, 0, 7*k))
		case PlanMonthly:
			current = policy.Advance(addMonthsClamped(start, k, anchorDay))
		default:
			current = policy.Advance(current.AddDate(0, 0, 1))
		}
	}

	return dates, nil
}

// DeliveryDatesInRange keeps the dates d of schedule with from <= d < to.
func DeliveryDatesInRange(schedule []time.Time, from, to time.Time) []time.Time {
	out := []time.Time{}
	for _, d := range schedule {
		if d.Before(from) || !d.Before(to) {
			continue
		}
		out = append(out, d)
	}
	return out
}
