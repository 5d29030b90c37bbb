package email

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anishchandragiri369/studio-sub001/internal/logger"
)

func TestMain(m *testing.M) {
	logger.Init()

	code := m.Run()
	os.Exit(code)
}

func newTestService(rdb *redis.Client) *Service {
	svc := New(rdb, SMTPConfig{
		From:     "orders@studio.test",
		FromName: "Studio Juices",
		Host:     "smtp.test.com",
		Port:     "587",
		User:     "test@example.com",
		Pass:     "password",
	})
	svc.retryDelay = 0
	return svc
}

func TestSend(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(queueKey, `.*`).SetVal(1)

	svc := newTestService(db)

	err := svc.Send(ctx, "user@example.com", "User", "Hello", "Test body")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendSubscriptionConfirmation(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(queueKey, `"type":"subscription_confirmation".*Rs\. 4860`).SetVal(1)

	svc := newTestService(db)

	first := time.Date(2024, time.July, 17, 8, 0, 0, 0, time.UTC)
	err := svc.SendSubscriptionConfirmation(ctx, "user@example.com", "User", "daily", first, 4860)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendReactivation(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(queueKey, `"type":"reactivation".*Mon, Jul 22, 2024`).SetVal(1)

	svc := newTestService(db)

	next := time.Date(2024, time.July, 22, 8, 0, 0, 0, time.UTC)
	err := svc.SendReactivation(ctx, "user@example.com", "User", next)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendExpiryNotice(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(queueKey, `"type":"expiry_notice"`).SetVal(1)

	svc := newTestService(db)

	err := svc.SendExpiryNotice(ctx, "user@example.com", "User", time.Date(2024, time.August, 30, 8, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueueLength(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.ExpectLLen(queueKey).SetVal(5)

	svc := newTestService(db)

	length := svc.QueueLength(ctx)
	assert.Equal(t, int64(5), length)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ctx := context.Background()

	mock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(assert.AnError)

	svc := newTestService(db)

	err := svc.Send(ctx, "user@example.com", "User", "Hello", "Test body")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func queuedJob(t *testing.T, tries int) string {
	t.Helper()
	data, err := json.Marshal(EmailJob{Type: TypeReactivation, To: "user@example.com", Subject: "Hi", Tries: tries})
	require.NoError(t, err)
	return string(data)
}

func TestProcessNext_Sent(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, queuedJob(t, 0)})

	svc := newTestService(db)
	var sent []EmailJob
	svc.deliver = func(job EmailJob) error {
		sent = append(sent, job)
		return nil
	}

	svc.processNext(context.Background())

	require.Len(t, sent, 1)
	assert.Equal(t, 1, sent[0].Tries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessNext_RetriesThenGivesUp(t *testing.T) {
	t.Run("Requeues below the retry limit", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, queuedJob(t, 1)})
		mock.Regexp().ExpectLPush(queueKey, `"tries":2`).SetVal(1)

		svc := newTestService(db)
		svc.deliver = func(EmailJob) error { return errors.New("smtp unavailable") }

		svc.processNext(context.Background())

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Moves to the failed queue on the last attempt", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		mock.ExpectBRPop(2*time.Second, queueKey).SetVal([]string{queueKey, queuedJob(t, 2)})
		mock.Regexp().ExpectLPush(failedQueueKey, `smtp unavailable`).SetVal(1)

		svc := newTestService(db)
		svc.deliver = func(EmailJob) error { return errors.New("smtp unavailable") }

		svc.processNext(context.Background())

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStart_StopsOnCancel(t *testing.T) {
	db, _ := redismock.NewClientMock()
	svc := newTestService(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}
