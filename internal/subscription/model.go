package subscription

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anishchandragiri369/studio-sub001/internal/delivery"
)

var (
	ErrSubscriptionNotFound     = errors.New("subscription not found")
	ErrSubscriptionStateChanged = errors.New("subscription was modified concurrently")
	ErrAlreadyPaused            = errors.New("subscription is not active")
	ErrNotPaused                = errors.New("subscription is not paused")
	ErrInactive                 = errors.New("subscription is inactive")
	ErrNoDeliveriesLeft         = errors.New("subscription has no deliveries left")
	ErrForbidden                = errors.New("subscription belongs to another customer")
)

type Subscription struct {
	ID              int                     `db:"id" json:"id"`
	CustomerEmail   string                  `db:"customer_email" json:"customer_email"`
	CustomerName    string                  `db:"customer_name" json:"customer_name"`
	Plan            delivery.Plan           `db:"plan" json:"plan"`
	StartDate       time.Time               `db:"start_date" json:"start_date"`
	EndDate         time.Time               `db:"end_date" json:"end_date"`
	ScheduleStart   time.Time               `db:"schedule_start" json:"schedule_start"`
	Duration        int                     `db:"duration" json:"duration"`
	LastDelivery    *time.Time              `db:"last_delivery" json:"last_delivery,omitempty"`
	NextDelivery    *time.Time              `db:"next_delivery" json:"next_delivery,omitempty"`
	IsActive        bool                    `db:"is_active" json:"is_active"`
	Status          delivery.Status         `db:"status" json:"status"`
	CalendarPolicy  delivery.CalendarPolicy `db:"calendar_policy" json:"calendar_policy,omitempty"`
	PausedAt        *time.Time              `db:"paused_at" json:"paused_at,omitempty"`
	Items           Items                   `db:"items" json:"items"`
	DailyPrice      int64                   `db:"daily_price" json:"daily_price"`
	DiscountPercent int                     `db:"discount_percent" json:"discount_percent"`
	TotalPrice      int64                   `db:"total_price" json:"total_price"`
	CreatedAt       time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time               `db:"updated_at" json:"updated_at"`
}

// ToDelivery converts the stored record into the engine's view, with every
// timestamp expressed in loc.
func (s *Subscription) ToDelivery(loc *time.Location) delivery.Subscription {
	out := delivery.Subscription{
		Plan:      s.Plan,
		StartDate: s.StartDate.In(loc),
		EndDate:   s.EndDate.In(loc),
		Duration:  s.Duration,
		IsActive:  s.IsActive,
		Status:    s.Status,
		Items:     []delivery.Item(s.Items),
		Policy:    s.CalendarPolicy,
	}
	if s.LastDelivery != nil {
		last := s.LastDelivery.In(loc)
		out.LastDelivery = &last
	}
	return out
}

// cadenceView is ToDelivery anchored on ScheduleStart, so that next-delivery
// steps follow the same run Schedule produces.
func (s *Subscription) cadenceView(loc *time.Location) delivery.Subscription {
	view := s.ToDelivery(loc)
	view.StartDate = s.ScheduleStart.In(loc)
	return view
}

// Schedule is the delivery run that starts at ScheduleStart, which moves
// forward when a paused subscription is reactivated.
func (s *Subscription) Schedule(loc *time.Location) ([]time.Time, error) {
	return delivery.GenerateDeliveryDates(
		s.Plan,
		s.ScheduleStart.In(loc),
		s.Duration,
		delivery.WithEndDate(s.EndDate.In(loc)),
		delivery.WithPolicy(s.CalendarPolicy),
	)
}

// Items is stored as a JSONB array.
type Items []delivery.Item

func (i Items) Value() (driver.Value, error) {
	if i == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(i)
}

func (i *Items) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*i = Items{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported items type %T", src)
	}
	return json.Unmarshal(data, i)
}

// Reactivation is the state written back when a paused subscription resumes.
type Reactivation struct {
	ScheduleStart time.Time
	NextDelivery  time.Time
	EndDate       time.Time
	Status        delivery.Status
	Policy        delivery.CalendarPolicy
}

type QuoteRequest struct {
	Plan     string          `json:"plan" binding:"required" validate:"required,plan"`
	Duration int             `json:"duration" binding:"required" validate:"required,gte=1,lte=365"`
	Items    []delivery.Item `json:"items" binding:"required" validate:"required,min=1,dive"`
}

type CreateRequest struct {
	CustomerEmail string          `json:"-"`
	CustomerName  string          `json:"customer_name" validate:"max=120"`
	Plan          string          `json:"plan" binding:"required" validate:"required,plan"`
	Duration      int             `json:"duration" binding:"required" validate:"required,gte=1,lte=365"`
	StartDate     string          `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Items         []delivery.Item `json:"items" binding:"required" validate:"required,min=1,dive"`
}

type ScheduleView struct {
	SubscriptionID int             `json:"subscription_id"`
	Plan           delivery.Plan   `json:"plan"`
	Status         delivery.Status `json:"status"`
	Dates          []time.Time     `json:"dates"`
	Remaining      int             `json:"remaining"`
}

type PlanInfo struct {
	Plan          delivery.Plan           `json:"plan"`
	Name          string                  `json:"name"`
	Description   string                  `json:"description"`
	DiscountTiers []delivery.DiscountTier `json:"discount_tiers"`
}
