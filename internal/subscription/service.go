package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/anishchandragiri369/studio-sub001/internal/delivery"
	"github.com/anishchandragiri369/studio-sub001/internal/logger"
	"github.com/anishchandragiri369/studio-sub001/internal/metrics"
)

// Notifier sends customer emails about subscription changes. Delivery of the
// email is best effort: a failing notifier never fails the operation.
type Notifier interface {
	SendSubscriptionConfirmation(ctx context.Context, email, name, plan string, firstDelivery time.Time, totalPrice int64) error
	SendReactivation(ctx context.Context, email, name string, nextDelivery time.Time) error
}

type Service interface {
	Plans() []PlanInfo
	Quote(ctx context.Context, req QuoteRequest) (delivery.Pricing, error)
	Create(ctx context.Context, req CreateRequest) (*Subscription, error)
	Get(ctx context.Context, id int) (*Subscription, error)
	Schedule(ctx context.Context, id int) (*ScheduleView, error)
	NextDelivery(ctx context.Context, id int) (time.Time, error)
	Status(ctx context.Context, id int) (delivery.Status, error)
	Pause(ctx context.Context, id int) (*Subscription, error)
	Cancel(ctx context.Context, id int) (*Subscription, error)
	Reactivate(ctx context.Context, id int) (*Subscription, error)
	RecordDelivery(ctx context.Context, id int, deliveredAt time.Time) (*Subscription, error)
}

type Option func(*service)

// WithClock replaces the wall clock. Tests pin "now" with it.
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithLocation sets the time zone delivery dates and cutoffs are computed in.
func WithLocation(loc *time.Location) Option {
	return func(s *service) {
		s.loc = loc
	}
}

func WithCutoff(rule delivery.CutoffRule) Option {
	return func(s *service) {
		s.cutoff = rule
	}
}

type service struct {
	repo     Repository
	notifier Notifier
	now      func() time.Time
	loc      *time.Location
	cutoff   delivery.CutoffRule
}

func NewService(repo Repository, notifier Notifier, opts ...Option) Service {
	s := &service{
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
		loc:      time.UTC,
		cutoff:   delivery.DefaultCutoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *service) Plans() []PlanInfo {
	return []PlanInfo{
		{
			Plan:          delivery.PlanDaily,
			Name:          "Daily Fresh",
			Description:   "A delivery every weekday morning",
			DiscountTiers: delivery.DiscountTiers,
		},
		{
			Plan:          delivery.PlanWeekly,
			Name:          "Weekly Box",
			Description:   "A delivery every week on your start day",
			DiscountTiers: delivery.DiscountTiers,
		},
		{
			Plan:          delivery.PlanMonthly,
			Name:          "Monthly Crate",
			Description:   "A delivery every month on your start date",
			DiscountTiers: delivery.DiscountTiers,
		},
	}
}

func (s *service) Quote(ctx context.Context, req QuoteRequest) (delivery.Pricing, error) {
	plan, err := delivery.ParsePlan(req.Plan)
	if err != nil {
		return delivery.Pricing{}, err
	}

	pricing, err := delivery.CalculatePricing(delivery.PricingInput{
		Items:    req.Items,
		Duration: req.Duration,
		Plan:     plan,
	})
	if err != nil {
		return delivery.Pricing{}, err
	}

	metrics.RecordQuote(string(plan), pricing.DiscountPercent)
	return pricing, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Subscription, error) {
	plan, err := delivery.ParsePlan(req.Plan)
	if err != nil {
		return nil, err
	}

	pricing, err := delivery.CalculatePricing(delivery.PricingInput{
		Items:    req.Items,
		Duration: req.Duration,
		Plan:     plan,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock()
	start, err := s.startDate(req.StartDate, now)
	if err != nil {
		return nil, err
	}

	dates, err := delivery.GenerateDeliveryDates(plan, start, req.Duration)
	if err != nil {
		return nil, err
	}
	first, end := dates[0], dates[len(dates)-1]

	sub := &Subscription{
		CustomerEmail:   req.CustomerEmail,
		CustomerName:    req.CustomerName,
		Plan:            plan,
		StartDate:       start,
		EndDate:         end,
		ScheduleStart:   start,
		Duration:        req.Duration,
		NextDelivery:    &first,
		IsActive:        true,
		Items:           Items(req.Items),
		DailyPrice:      pricing.DailyPrice,
		DiscountPercent: pricing.DiscountPercent,
		TotalPrice:      pricing.TotalPrice,
	}
	sub.Status = delivery.ResolveStatus(sub.ToDelivery(s.loc), now)

	created, err := s.repo.Create(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	logger.Info("Subscription created",
		"subscription_id", created.ID,
		"plan", plan,
		"start_date", start,
		"end_date", end,
		"total_price", pricing.TotalPrice,
	)
	metrics.RecordSubscription(string(plan))

	if err := s.notifier.SendSubscriptionConfirmation(ctx, created.CustomerEmail, created.CustomerName, string(plan), first, created.TotalPrice); err != nil {
		logger.WithError(err).Error("Failed to queue subscription confirmation", "subscription_id", created.ID)
	}

	return created, nil
}

// startDate parses an explicit yyyy-mm-dd start in the service location, or
// falls back to the first slot the order cutoff allows. Explicit starts
// earlier than that slot's day are rejected.
func (s *service) startDate(raw string, now time.Time) (time.Time, error) {
	earliest := s.cutoff.FirstDelivery(now)
	if raw == "" {
		return earliest, nil
	}

	day, err := time.ParseInLocation("2006-01-02", raw, s.loc)
	if err != nil {
		return time.Time{}, &delivery.ValidationError{Field: "start_date", Reason: "must be formatted as YYYY-MM-DD"}
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), s.cutoff.DeliveryHour, 0, 0, 0, s.loc)
	if start.Before(earliest) {
		return time.Time{}, &delivery.ValidationError{
			Field:  "start_date",
			Reason: fmt.Sprintf("earliest possible start is %s", earliest.Format("2006-01-02")),
		}
	}
	return start, nil
}

func (s *service) Get(ctx context.Context, id int) (*Subscription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Schedule(ctx context.Context, id int) (*ScheduleView, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	dates, err := sub.Schedule(s.loc)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	remaining := 0
	for _, d := range dates {
		if d.After(now) {
			remaining++
		}
	}

	return &ScheduleView{
		SubscriptionID: sub.ID,
		Plan:           sub.Plan,
		Status:         delivery.ResolveStatus(sub.ToDelivery(s.loc), now),
		Dates:          dates,
		Remaining:      remaining,
	}, nil
}

// NextDelivery returns the persisted next delivery when one is set (first
// delivery, or the first one after a reactivation) and otherwise steps from
// the last delivery. Once that slot has passed without a recorded delivery,
// the first scheduled date at or after now is returned instead.
func (s *service) NextDelivery(ctx context.Context, id int) (time.Time, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	if !sub.IsActive {
		return time.Time{}, ErrInactive
	}

	var next time.Time
	if sub.NextDelivery != nil {
		next = sub.NextDelivery.In(s.loc)
	} else {
		var ok bool
		if next, ok = delivery.NextDelivery(sub.cadenceView(s.loc)); !ok {
			return time.Time{}, ErrNoDeliveriesLeft
		}
	}

	now := s.clock()
	if !next.Before(now) {
		return next, nil
	}

	dates, err := sub.Schedule(s.loc)
	if err != nil {
		return time.Time{}, err
	}
	for _, d := range dates {
		if !d.Before(now) {
			return d, nil
		}
	}
	return time.Time{}, ErrNoDeliveriesLeft
}

func (s *service) Status(ctx context.Context, id int) (delivery.Status, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return delivery.ResolveStatus(sub.ToDelivery(s.loc), s.clock()), nil
}

func (s *service) Pause(ctx context.Context, id int) (*Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive {
		return nil, ErrAlreadyPaused
	}

	now := s.clock()
	if err := s.repo.Pause(ctx, id, now, delivery.StatusCancelled); err != nil {
		return nil, err
	}

	logger.Info("Subscription paused", "subscription_id", id, "paused_at", now)
	metrics.RecordPause()

	return s.repo.GetByID(ctx, id)
}

func (s *service) Cancel(ctx context.Context, id int) (*Subscription, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.Cancel(ctx, id, delivery.StatusCancelled); err != nil {
		return nil, err
	}

	logger.Info("Subscription cancelled", "subscription_id", id)
	return s.repo.GetByID(ctx, id)
}

// Reactivate resumes a paused subscription. The first delivery follows the
// cutoff rule from the moment of reactivation and the end date moves out by
// the whole days spent paused.
func (s *service) Reactivate(ctx context.Context, id int) (*Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.IsActive || sub.PausedAt == nil {
		return nil, ErrNotPaused
	}

	now := s.clock()
	pausedDays := int(now.Sub(*sub.PausedAt) / (24 * time.Hour))
	if pausedDays < 0 {
		pausedDays = 0
	}
	end := sub.EndDate.In(s.loc).AddDate(0, 0, pausedDays)
	policy := s.resumePolicy(sub)
	first := policy.Advance(s.cutoff.FirstDelivery(now))
	if first.After(end) {
		return nil, ErrNoDeliveriesLeft
	}

	resumed := sub.ToDelivery(s.loc)
	resumed.IsActive = true
	resumed.EndDate = end

	re := Reactivation{
		ScheduleStart: first,
		NextDelivery:  first,
		EndDate:       end,
		Status:        delivery.ResolveStatus(resumed, now),
		Policy:        policy,
	}
	if err := s.repo.Reactivate(ctx, id, re); err != nil {
		return nil, err
	}

	offset := s.cutoff.Offset(now)
	logger.Info("Subscription reactivated",
		"subscription_id", id,
		"next_delivery", first,
		"end_date", end,
		"paused_days", pausedDays,
		"offset_days", offset,
	)
	metrics.RecordReactivation(offset)

	if err := s.notifier.SendReactivation(ctx, sub.CustomerEmail, sub.CustomerName, first); err != nil {
		logger.WithError(err).Error("Failed to queue reactivation email", "subscription_id", id)
	}

	return s.repo.GetByID(ctx, id)
}

// resumePolicy is the calendar a reactivated subscription follows: its own
// when that already blocks every day the cutoff rule blocks, the cutoff
// rule's otherwise.
func (s *service) resumePolicy(sub *Subscription) delivery.CalendarPolicy {
	own := sub.CalendarPolicy
	if own == delivery.PolicyDefault {
		own = sub.Plan.DefaultPolicy()
	}
	cutoff := s.cutoff.Policy
	if cutoff == delivery.PolicyDefault {
		cutoff = delivery.PolicySundayOnly
	}
	if own.Covers(cutoff) {
		return own
	}
	return cutoff
}

func (s *service) RecordDelivery(ctx context.Context, id int, deliveredAt time.Time) (*Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive {
		return nil, ErrInactive
	}

	view := sub.cadenceView(s.loc)
	last := deliveredAt.In(s.loc)
	view.LastDelivery = &last

	var next *time.Time
	if n, ok := delivery.NextDelivery(view); ok {
		next = &n
	}

	if err := s.repo.RecordDelivery(ctx, id, last, next); err != nil {
		return nil, err
	}

	logger.Debug("Delivery recorded", "subscription_id", id, "delivered_at", last, "next_delivery", next)
	return s.repo.GetByID(ctx, id)
}
