package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anishchandragiri369/studio-sub001/internal/delivery"
	"github.com/anishchandragiri369/studio-sub001/internal/logger"
	"github.com/anishchandragiri369/studio-sub001/internal/metrics"
	"github.com/anishchandragiri369/studio-sub001/internal/subscription"
)

const jobTimeout = 2 * time.Minute

type ManifestSaver interface {
	Save(ctx context.Context, m *Manifest) error
}

type StatusStore interface {
	ListForStatusSync(ctx context.Context) ([]*subscription.Subscription, error)
	UpdateStatus(ctx context.Context, id int, status delivery.Status) error
}

type ExpiryNotifier interface {
	SendExpiryNotice(ctx context.Context, email, name string, endDate time.Time) error
}

// Jobs holds the periodic maintenance work run by the scheduler.
type Jobs struct {
	builder   *Builder
	manifests ManifestSaver
	statuses  StatusStore
	notifier  ExpiryNotifier
	loc       *time.Location
	now       func() time.Time
}

func NewJobs(builder *Builder, manifests ManifestSaver, statuses StatusStore, notifier ExpiryNotifier, loc *time.Location) *Jobs {
	return &Jobs{
		builder:   builder,
		manifests: manifests,
		statuses:  statuses,
		notifier:  notifier,
		loc:       loc,
		now:       time.Now,
	}
}

// BuildTomorrowManifest builds and caches the manifest for the next day.
func (j *Jobs) BuildTomorrowManifest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	tomorrow := j.now().In(j.loc).AddDate(0, 0, 1)
	m, err := j.buildManifest(ctx, tomorrow)
	if err != nil {
		logger.WithError(err).Error("Manifest job failed", "date", tomorrow.Format(DateLayout))
		return
	}
	logger.Info("Manifest job finished", "date", m.Date, "deliveries", m.Count)
}

func (j *Jobs) buildManifest(ctx context.Context, day time.Time) (*Manifest, error) {
	m, err := j.builder.Build(ctx, day)
	if err != nil {
		return nil, err
	}
	if err := j.manifests.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to cache manifest: %w", err)
	}
	metrics.SetManifestDeliveries(m.Count)
	return m, nil
}

// SyncStatuses writes the resolved lifecycle status back to every
// subscription whose stored label is stale.
func (j *Jobs) SyncStatuses() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	updated, err := j.syncStatuses(ctx)
	if err != nil {
		logger.WithError(err).Error("Status sync finished with errors", "updated", updated)
		return
	}
	logger.Info("Status sync finished", "updated", updated)
}

func (j *Jobs) syncStatuses(ctx context.Context) (int, error) {
	subs, err := j.statuses.ListForStatusSync(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	now := j.now().In(j.loc)
	updated := 0
	var errs []error
	for _, sub := range subs {
		resolved := delivery.ResolveStatus(sub.ToDelivery(j.loc), now)
		if resolved == sub.Status {
			continue
		}

		if err := j.statuses.UpdateStatus(ctx, sub.ID, resolved); err != nil {
			errs = append(errs, fmt.Errorf("subscription %d: %w", sub.ID, err))
			continue
		}
		updated++
		metrics.RecordStatusTransition(string(sub.Status), string(resolved))
		logger.Debug("Subscription status changed", "subscription_id", sub.ID, "from", sub.Status, "to", resolved)

		if resolved == delivery.StatusExpired {
			if err := j.notifier.SendExpiryNotice(ctx, sub.CustomerEmail, sub.CustomerName, sub.EndDate.In(j.loc)); err != nil {
				logger.WithError(err).Warn("Failed to queue expiry notice", "subscription_id", sub.ID)
			}
		}
	}

	return updated, errors.Join(errs...)
}
