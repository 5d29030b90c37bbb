package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/anishchandragiri369/studio-sub001/internal/delivery"
	"github.com/anishchandragiri369/studio-sub001/internal/logger"
	"github.com/anishchandragiri369/studio-sub001/internal/subscription"
)

const DateLayout = "2006-01-02"

// ActiveLister is the slice of the subscription store the manifest needs.
type ActiveLister interface {
	ListActive(ctx context.Context) ([]*subscription.Subscription, error)
}

type Entry struct {
	SubscriptionID int             `json:"subscription_id"`
	CustomerEmail  string          `json:"customer_email"`
	CustomerName   string          `json:"customer_name"`
	Plan           delivery.Plan   `json:"plan"`
	DeliverAt      time.Time       `json:"deliver_at"`
	Items          []delivery.Item `json:"items"`
}

// Manifest lists every delivery due on one calendar day.
type Manifest struct {
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generated_at"`
	Count       int       `json:"count"`
	Deliveries  []Entry   `json:"deliveries"`
}

type Builder struct {
	subs ActiveLister
	loc  *time.Location
	now  func() time.Time
}

func NewBuilder(subs ActiveLister, loc *time.Location) *Builder {
	return &Builder{subs: subs, loc: loc, now: time.Now}
}

// Build collects the deliveries that fall on day in the builder's location.
// Subscriptions whose schedule cannot be generated are logged and skipped.
func (b *Builder) Build(ctx context.Context, day time.Time) (*Manifest, error) {
	day = day.In(b.loc)
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, b.loc)
	to := from.AddDate(0, 0, 1)

	subs, err := b.subs.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}

	m := &Manifest{
		Date:        from.Format(DateLayout),
		GeneratedAt: b.now().In(b.loc),
		Deliveries:  []Entry{},
	}
	for _, sub := range subs {
		schedule, err := sub.Schedule(b.loc)
		if err != nil {
			logger.WithError(err).Warn("Skipping subscription with invalid schedule", "subscription_id", sub.ID)
			continue
		}

		for _, at := range delivery.DeliveryDatesInRange(schedule, from, to) {
			m.Deliveries = append(m.Deliveries, Entry{
				SubscriptionID: sub.ID,
				CustomerEmail:  sub.CustomerEmail,
				CustomerName:   sub.CustomerName,
				Plan:           sub.Plan,
				DeliverAt:      at,
				Items:          []delivery.Item(sub.Items),
			})
		}
	}

	sort.SliceStable(m.Deliveries, func(i, j int) bool {
		if m.Deliveries[i].DeliverAt.Equal(m.Deliveries[j].DeliverAt) {
			return m.Deliveries[i].SubscriptionID < m.Deliveries[j].SubscriptionID
		}
		return m.Deliveries[i].DeliverAt.Before(m.Deliveries[j].DeliverAt)
	})
	m.Count = len(m.Deliveries)

	return m, nil
}
