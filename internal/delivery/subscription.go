package delivery

import "time"

// Subscription is the read-only view of a subscription the engine computes over.
type Subscription struct {
	Plan         Plan
	StartDate    time.Time
	EndDate      time.Time
	Duration     int
	LastDelivery *time.Time
	IsActive     bool
	// Status is the last persisted label. ResolveStatus never reads it.
	Status Status
	Items  []Item
	Policy CalendarPolicy
}

// Schedule is the full delivery schedule between StartDate and EndDate.
func (s Subscription) Schedule() ([]time.Time, error) {
	return GenerateDeliveryDates(s.Plan, s.StartDate, s.Duration, WithEndDate(s.EndDate), WithPolicy(s.Policy))
}

// NextDeliveryDate steps one plan unit past the last delivery, or past the
// start date before the first one, and moves off blocked days. Daily plans use
// the weekday-only policy unless the subscription carries its own.
func NextDeliveryDate(sub Subscription) time.Time {
	anchor := sub.StartDate
	if sub.LastDelivery != nil && !sub.LastDelivery.IsZero() {
		anchor = *sub.LastDelivery
	}

	anchorDay := anchor.Day()
	if !sub.StartDate.IsZero() {
		anchorDay = sub.StartDate.Day()
	}

	next := sub.Plan.increment(anchor, anchorDay)
	return sub.Policy.resolve(sub.Plan).Advance(next)
}

// NextDelivery is NextDeliveryDate bounded by EndDate. ok is false once the
// subscription has no delivery left.
func NextDelivery(sub Subscription) (next time.Time, ok bool) {
	next = NextDeliveryDate(sub)
	if !sub.EndDate.IsZero() && next.After(sub.EndDate) {
		return time.Time{}, false
	}
	return next, true
}
