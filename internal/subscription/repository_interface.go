package subscription

import (
	"context"
	"time"

	"github.com/anishchandragiri369/studio-sub001/internal/delivery"
)

type Repository interface {
	Create(ctx context.Context, sub *Subscription) (*Subscription, error)
	GetByID(ctx context.Context, id int) (*Subscription, error)
	ListActive(ctx context.Context) ([]*Subscription, error)
	ListForStatusSync(ctx context.Context) ([]*Subscription, error)
	UpdateStatus(ctx context.Context, id int, status delivery.Status) error
	Pause(ctx context.Context, id int, pausedAt time.Time, status delivery.Status) error
	Cancel(ctx context.Context, id int, status delivery.Status) error
	Reactivate(ctx context.Context, id int, r Reactivation) error
	RecordDelivery(ctx context.Context, id int, deliveredAt time.Time, next *time.Time) error
}
