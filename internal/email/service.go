package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anishchandragiri369/studio-sub001/internal/logger"
	"github.com/anishchandragiri369/studio-sub001/internal/metrics"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3

	TypeConfirmation = "subscription_confirmation"
	TypeReactivation = "reactivation"
	TypeExpiry       = "expiry_notice"
	TypeGeneric      = "generic"
)

type EmailJob struct {
	Type    string    `json:"type"`
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type SMTPConfig struct {
	From     string
	FromName string
	Host     string
	Port     string
	User     string
	Pass     string
}

type Service struct {
	redis      *redis.Client
	smtp       SMTPConfig
	retryDelay time.Duration
	deliver    func(EmailJob) error
}

func New(rdb *redis.Client, cfg SMTPConfig) *Service {
	s := &Service{
		redis:      rdb,
		smtp:       cfg,
		retryDelay: 5 * time.Second,
	}
	s.deliver = s.sendNow
	return s
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, EmailJob{
		Type:    TypeGeneric,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
	})
}

func (s *Service) enqueue(ctx context.Context, job EmailJob) error {
	job.Tries = 0
	job.Created = time.Now()

	data, err := json.Marshal(job)
	if err != nil {
		logger.WithError(err).Error("Failed to marshal email job")
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.WithError(err).Error("Failed to queue email", "to", job.To, "type", job.Type)
		metrics.RecordEmail(job.Type, "queue_failed")
		return err
	}

	logger.Info("Email queued", "type", job.Type, "to", job.To)
	metrics.RecordEmail(job.Type, "queued")
	return nil
}

// Start drains the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.WithError(err).Error("Bad email data")
		return
	}

	job.Tries++
	logger.Debug("Sending email", "to", job.To, "type", job.Type, "attempt", job.Tries)
	if err := s.deliver(job); err != nil {
		logger.WithError(err).Error("Failed to send email", "to", job.To, "attempt", job.Tries)

		if job.Tries < maxTries {
			if s.retryDelay > 0 {
				select {
				case <-ctx.Done():
				case <-time.After(s.retryDelay):
				}
			}
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, string(data))
			metrics.RecordEmail(job.Type, "retried")
		} else {
			logger.Error("Email failed permanently", "to", job.To, "attempts", job.Tries)
			s.saveFailed(job, err)
			metrics.RecordEmail(job.Type, "failed")
		}
		return
	}

	logger.Info("Email sent", "to", job.To, "type", job.Type)
	metrics.RecordEmail(job.Type, "sent")
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.smtp.FromName, s.smtp.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtp.User != "" && s.smtp.Pass != "" {
		auth = smtp.PlainAuth("", s.smtp.User, s.smtp.Pass, s.smtp.Host)
	}

	addr := s.smtp.Host + ":" + s.smtp.Port
	return smtp.SendMail(addr, auth, s.smtp.From, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, string(data))
}

// QueueLength reports the pending jobs and mirrors the value into the queue gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.SetEmailQueueLength(length)
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

const deliveryFormat = "Mon, Jan 2, 2006 at 3:04 PM"

func (s *Service) SendSubscriptionConfirmation(ctx context.Context, email, name, plan string, firstDelivery time.Time, totalPrice int64) error {
	body := fmt.Sprintf(`Hi %s,

Your %s subscription is confirmed!

First delivery: %s
Total paid: Rs. %d

We will bring everything fresh to your door.

- %s`, name, plan, firstDelivery.Format(deliveryFormat), totalPrice, s.smtp.FromName)

	return s.enqueue(ctx, EmailJob{
		Type:    TypeConfirmation,
		To:      email,
		Name:    name,
		Subject: "Subscription Confirmed",
		Body:    body,
	})
}

func (s *Service) SendReactivation(ctx context.Context, email, name string, nextDelivery time.Time) error {
	body := fmt.Sprintf(`Hi %s,

Welcome back! Your subscription is active again.

Next delivery: %s

- %s`, name, nextDelivery.Format(deliveryFormat), s.smtp.FromName)

	return s.enqueue(ctx, EmailJob{
		Type:    TypeReactivation,
		To:      email,
		Name:    name,
		Subject: "Subscription Reactivated",
		Body:    body,
	})
}

func (s *Service) SendExpiryNotice(ctx context.Context, email, name string, endDate time.Time) error {
	body := fmt.Sprintf(`Hi %s,

Your subscription ended on %s.

Renew any time to keep the deliveries coming.

- %s`, name, endDate.Format("Jan 2, 2006"), s.smtp.FromName)

	return s.enqueue(ctx, EmailJob{
		Type:    TypeExpiry,
		To:      email,
		Name:    name,
		Subject: "Your Subscription Has Ended",
		Body:    body,
	})
}
