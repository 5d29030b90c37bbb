package subscription

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anishchandragiri369/studio-sub001/internal/delivery"
)

var columns = []string{
	"id", "customer_email", "customer_name", "plan", "start_date", "end_date", "schedule_start", "duration",
	"last_delivery", "next_delivery", "is_active", "status", "calendar_policy", "paused_at", "items",
	"daily_price", "discount_percent", "total_price", "created_at", "updated_at",
}

func setupSubscriptionMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

func subscriptionRow(id int, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(columns).AddRow(
		id, "anna@example.com", "Anna", "daily", now, now.AddDate(0, 0, 30), now, 30,
		nil, now, true, "active", "", nil, []byte(`[{"id":"orange","name":"Orange Juice","price":100}]`),
		100, 10, 2700, now, now,
	)
}

func TestRepository_Create(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	now := time.Date(2024, time.July, 17, 8, 0, 0, 0, time.UTC)
	sub := &Subscription{
		CustomerEmail:   "anna@example.com",
		CustomerName:    "Anna",
		Plan:            delivery.PlanDaily,
		StartDate:       now,
		EndDate:         now.AddDate(0, 0, 30),
		ScheduleStart:   now,
		Duration:        30,
		NextDelivery:    &now,
		IsActive:        true,
		Status:          delivery.StatusUpcoming,
		Items:           Items{{ID: "orange", Name: "Orange Juice", Price: 100}},
		DailyPrice:      100,
		DiscountPercent: 10,
		TotalPrice:      2700,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO subscriptions`)).
		WithArgs("anna@example.com", "Anna", "daily", now, sub.EndDate, now, 30,
			sqlmock.AnyArg(), "upcoming", "", sqlmock.AnyArg(), int64(100), 10, int64(2700)).
		WillReturnRows(subscriptionRow(1, now))

	created, err := repo.Create(context.Background(), sub)

	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)
	assert.Equal(t, delivery.PlanDaily, created.Plan)
	assert.Equal(t, delivery.StatusActive, created.Status)
	require.Len(t, created.Items, 1)
	assert.Equal(t, "orange", created.Items[0].ID)
	assert.Nil(t, created.LastDelivery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetByID(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		repo, mock, close := setupSubscriptionMock(t)
		defer close()

		now := time.Now().UTC()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM subscriptions`)).
			WithArgs(5).
			WillReturnRows(subscriptionRow(5, now))

		sub, err := repo.GetByID(context.Background(), 5)

		require.NoError(t, err)
		assert.Equal(t, 5, sub.ID)
		assert.Equal(t, int64(2700), sub.TotalPrice)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing", func(t *testing.T) {
		repo, mock, close := setupSubscriptionMock(t)
		defer close()

		mock.ExpectQuery(regexp.QuoteMeta(`FROM subscriptions`)).
			WithArgs(404).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), 404)
		assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	})
}

func TestRepository_ListActive(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	now := time.Now().UTC()
	rows := subscriptionRow(1, now)
	rows.AddRow(
		2, "ben@example.com", "Ben", "weekly", now, now.AddDate(0, 2, 0), now, 8,
		now, nil, true, "active", "none", nil, []byte(`[]`),
		250, 0, 2000, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE is_active = TRUE`)).WillReturnRows(rows)

	subs, err := repo.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, delivery.PlanWeekly, subs[1].Plan)
	assert.Equal(t, delivery.PolicyNone, subs[1].CalendarPolicy)
	assert.NotNil(t, subs[1].LastDelivery)
	assert.Nil(t, subs[1].NextDelivery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListForStatusSync(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE is_active = TRUE OR status <> 'cancelled'`)).
		WillReturnRows(sqlmock.NewRows(columns))

	subs, err := repo.ListForStatusSync(context.Background())

	require.NoError(t, err)
	assert.Empty(t, subs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE subscriptions`)).
		WithArgs(3, "expired").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), 3, delivery.StatusExpired)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Pause(t *testing.T) {
	pausedAt := time.Date(2024, time.July, 20, 10, 0, 0, 0, time.UTC)

	t.Run("Active row", func(t *testing.T) {
		repo, mock, close := setupSubscriptionMock(t)
		defer close()

		mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND is_active = TRUE`)).
			WithArgs(1, pausedAt, "cancelled").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Pause(context.Background(), 1, pausedAt, delivery.StatusCancelled)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Lost a race", func(t *testing.T) {
		repo, mock, close := setupSubscriptionMock(t)
		defer close()

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE subscriptions`)).
			WithArgs(1, pausedAt, "cancelled").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Pause(context.Background(), 1, pausedAt, delivery.StatusCancelled)
		assert.ErrorIs(t, err, ErrSubscriptionStateChanged)
	})
}

func TestRepository_Cancel(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta(`paused_at = NULL`)).
		WithArgs(9, "cancelled").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Cancel(context.Background(), 9, delivery.StatusCancelled)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestRepository_Reactivate(t *testing.T) {
	repo, mock, close := setupSubscriptionMock(t)
	defer close()

	first := time.Date(2024, time.July, 22, 8, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.August, 4, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND is_active = FALSE AND paused_at IS NOT NULL`)).
		WithArgs(1, first, first, end, "active", "sunday_only").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Reactivate(context.Background(), 1, Reactivation{
		ScheduleStart: first,
		NextDelivery:  first,
		EndDate:       end,
		Status:        delivery.StatusActive,
		Policy:        delivery.PolicySundayOnly,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RecordDelivery(t *testing.T) {
	delivered := time.Date(2024, time.July, 19, 8, 0, 0, 0, time.UTC)

	t.Run("With next delivery", func(t *testing.T) {
		repo, mock, close := setupSubscriptionMock(t)
		defer close()

		next := time.Date(2024, time.July, 22, 8, 0, 0, 0, time.UTC)
		mock.ExpectExec(regexp.QuoteMeta(`SET last_delivery = $2`)).
			WithArgs(1, delivered, next).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.RecordDelivery(context.Background(), 1, delivered, &next)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Final delivery", func(t *testing.T) {
		repo, mock, close := setupSubscriptionMock(t)
		defer close()

		mock.ExpectExec(regexp.QuoteMeta(`SET last_delivery = $2`)).
			WithArgs(1, delivered, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.RecordDelivery(context.Background(), 1, delivered, nil)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database error", func(t *testing.T) {
		repo, mock, close := setupSubscriptionMock(t)
		defer close()

		mock.ExpectExec(regexp.QuoteMeta(`SET last_delivery = $2`)).
			WillReturnError(errors.New("connection reset"))

		err := repo.RecordDelivery(context.Background(), 1, delivered, nil)
		assert.EqualError(t, err, "connection reset")
	})
}

func TestItems_Scan(t *testing.T) {
	var items Items

	require.NoError(t, items.Scan(`[{"id":"kale","name":"Green Kale","price":120.5}]`))
	require.Len(t, items, 1)
	assert.Equal(t, 120.5, items[0].Price)

	require.NoError(t, items.Scan(nil))
	assert.Empty(t, items)

	assert.Error(t, items.Scan(42))
}
