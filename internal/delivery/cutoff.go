package delivery

import "time"

const (
	DefaultCutoffHour   = 18
	DefaultDeliveryHour = 8
)

// DefaultCutoff ships next day before 18:00 and the day after from 18:00 on,
// at 08:00, never on a Sunday.
var DefaultCutoff = CutoffRule{
	Hour:         DefaultCutoffHour,
	DeliveryHour: DefaultDeliveryHour,
	Policy:       PolicySundayOnly,
}

// CutoffRule turns the moment an order or reactivation happens into its first
// delivery. The event hour is read in the event's own location.
type CutoffRule struct {
	Hour         int
	DeliveryHour int
	Policy       CalendarPolicy
}

func (r CutoffRule) Validate() error {
	if r.Hour < 0 || r.Hour > 23 {
		return invalid("cutoff_hour", "%d is not an hour of the day", r.Hour)
	}
	if r.DeliveryHour < 0 || r.DeliveryHour > 23 {
		return invalid("delivery_hour", "%d is not an hour of the day", r.DeliveryHour)
	}
	if _, err := ParseCalendarPolicy(string(r.Policy)); err != nil {
		return err
	}
	return nil
}

// Offset is the number of days between the event date and the first delivery.
// An event at exactly the cutoff hour is already past it.
func (r CutoffRule) Offset(event time.Time) int {
	if event.Hour() >= r.Hour {
		return 2
	}
	return 1
}

// FirstDelivery returns the first delivery slot for an event at the given moment.
func (r CutoffRule) FirstDelivery(event time.Time) time.Time {
	day := startOfDay(event).AddDate(0, 0, r.Offset(event))
	at := time.Date(day.Year(), day.Month(), day.Day(), r.DeliveryHour, 0, 0, 0, event.Location())
	return r.policy().Advance(at)
}

func (r CutoffRule) policy() CalendarPolicy {
	if r.Policy == PolicyDefault {
		return PolicySundayOnly
	}
	return r.Policy
}

// FirstDeliveryOffset returns 1 or 2 days depending on whether event is before
// cutoffHour.
func FirstDeliveryOffset(event time.Time, cutoffHour int) int {
	return CutoffRule{Hour: cutoffHour}.Offset(event)
}

// ResolveFirstDelivery applies DefaultCutoff with a custom cutoff hour.
func ResolveFirstDelivery(event time.Time, cutoffHour int) time.Time {
	rule := DefaultCutoff
	rule.Hour = cutoffHour
	return rule.FirstDelivery(event)
}
