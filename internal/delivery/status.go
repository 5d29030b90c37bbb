package delivery

import "time"

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// ResolveStatus derives the lifecycle status at now. An inactive subscription
// is cancelled even when its date window has also lapsed.
func ResolveStatus(sub Subscription, now time.Time) Status {
	switch {
	case !sub.IsActive:
		return StatusCancelled
	case sub.EndDate.Before(now):
		return StatusExpired
	case sub.StartDate.After(now):
		return StatusUpcoming
	default:
		return StatusActive
	}
}
