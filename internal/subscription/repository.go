package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/anishchandragiri369/studio-sub001/internal/delivery"
)

const subscriptionColumns = `id, customer_email, customer_name, plan, start_date, end_date, schedule_start, duration,
		       last_delivery, next_delivery, is_active, status, calendar_policy, paused_at, items,
		       daily_price, discount_percent, total_price, created_at, updated_at`

type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, sub *Subscription) (*Subscription, error) {
	created := &Subscription{}
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO subscriptions (customer_email, customer_name, plan, start_date, end_date, schedule_start, duration,
		                           next_delivery, is_active, status, calendar_policy, items, daily_price, discount_percent, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $10, $11, $12, $13, $14)
		RETURNING `+subscriptionColumns,
		sub.CustomerEmail, sub.CustomerName, string(sub.Plan), sub.StartDate, sub.EndDate, sub.ScheduleStart, sub.Duration,
		sub.NextDelivery, string(sub.Status), string(sub.CalendarPolicy), sub.Items, sub.DailyPrice, sub.DiscountPercent, sub.TotalPrice,
	).StructScan(created)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int) (*Subscription, error) {
	sub := &Subscription{}
	err := r.db.GetContext(ctx, sub, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]*Subscription, error) {
	subs := []*Subscription{}
	err := r.db.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE is_active = TRUE
		ORDER BY id
	`)
	return subs, err
}

// ListForStatusSync returns every subscription whose persisted status may
// still change. Inactive rows already labelled cancelled are final.
func (r *PostgresRepository) ListForStatusSync(ctx context.Context) ([]*Subscription, error) {
	subs := []*Subscription{}
	err := r.db.SelectContext(ctx, &subs, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE is_active = TRUE OR status <> 'cancelled'
		ORDER BY id
	`)
	return subs, err
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int, status delivery.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET status = $2,
		    updated_at = NOW()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrSubscriptionNotFound)
}

func (r *PostgresRepository) Pause(ctx context.Context, id int, pausedAt time.Time, status delivery.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET is_active = FALSE,
		    paused_at = $2,
		    status = $3,
		    next_delivery = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
	`, id, pausedAt, string(status))
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrSubscriptionStateChanged)
}

func (r *PostgresRepository) Cancel(ctx context.Context, id int, status delivery.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET is_active = FALSE,
		    paused_at = NULL,
		    status = $2,
		    next_delivery = NULL,
		    updated_at = NOW()
		WHERE id = $1
	`, id, string(status))
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrSubscriptionNotFound)
}

func (r *PostgresRepository) Reactivate(ctx context.Context, id int, re Reactivation) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET is_active = TRUE,
		    paused_at = NULL,
		    schedule_start = $2,
		    next_delivery = $3,
		    end_date = $4,
		    status = $5,
		    calendar_policy = $6,
		    updated_at = NOW()
		WHERE id = $1 AND is_active = FALSE AND paused_at IS NOT NULL
	`, id, re.ScheduleStart, re.NextDelivery, re.EndDate, string(re.Status), string(re.Policy))
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrSubscriptionStateChanged)
}

func (r *PostgresRepository) RecordDelivery(ctx context.Context, id int, deliveredAt time.Time, next *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE subscriptions
		SET last_delivery = $2,
		    next_delivery = $3,
		    updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
	`, id, deliveredAt, next)
	if err != nil {
		return err
	}
	return expectOneRow(res, ErrSubscriptionStateChanged)
}

func expectOneRow(res sql.Result, notMatched error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notMatched
	}
	return nil
}
