package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"triplea/internal/logger"
	"triplea/internal/membership"
	"triplea/internal/metrics"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

const (
	TypeMembershipConfirmation = "membership_confirmation"
	TypeMembershipDiscontinued = "membership_discontinued"
	TypeGeneric                = "generic"
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

type Config struct {
	From     string
	FromName string
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	redis      *redis.Client
	cfg        Config
	send       sendFunc
	retryDelay time.Duration
}

func New(cfg Config, rdb *redis.Client) *Service {
	return &Service{
		redis:      rdb,
		cfg:        cfg,
		send:       smtp.SendMail,
		retryDelay: 5 * time.Second,
	}
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	return s.enqueue(ctx, TypeGeneric, to, name, subject, body)
}

func (s *Service) enqueue(ctx context.Context, emailType, to, name, subject, body string) error {
	job := EmailJob{
		Type:    emailType,
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Error("Failed to queue email", "to", to, "type", emailType, "error", err)
		metrics.RecordEmail(emailType, "queue_failed")
		return fmt.Errorf("queue email: %w", err)
	}

	metrics.RecordEmail(emailType, "queued")
	logger.Info("Email queued", "to", to, "type", emailType)
	return nil
}

// Start consumes the queue until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("Email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

// processNext handles at most one job and reports whether one was popped.
func (s *Service) processNext(ctx context.Context) bool {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return false
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("Dropping malformed email job", "error", err)
		return true
	}

	job.Tries++
	if err := s.deliver(job); err != nil {
		logger.Warn("Email delivery failed", "to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			s.retry(ctx, job)
		} else {
			s.saveFailed(job, err)
		}
		return true
	}

	metrics.RecordEmail(job.Type, "sent")
	logger.Info("Email sent", "to", job.To, "type", job.Type)
	return true
}

func (s *Service) retry(ctx context.Context, job EmailJob) {
	if s.retryDelay > 0 {
		select {
		case <-time.After(s.retryDelay):
		case <-ctx.Done():
		}
	}

	data, _ := json.Marshal(job)
	if err := s.redis.LPush(context.WithoutCancel(ctx), queueKey, string(data)).Err(); err != nil {
		logger.Error("Failed to requeue email", "to", job.To, "error", err)
		return
	}
	metrics.RecordEmail(job.Type, "retried")
}

func (s *Service) deliver(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.cfg.FromName, s.cfg.From)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.cfg.SMTPUser != "" && s.cfg.SMTPPass != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
	}

	addr := s.cfg.SMTPHost + ":" + s.cfg.SMTPPort
	return s.send(addr, auth, s.cfg.From, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, string(data))

	metrics.RecordEmail(job.Type, "failed")
	logger.Error("Email moved to failed queue", "to", job.To, "attempts", job.Tries)
}

// QueueLength also refreshes the queue length gauge.
func (s *Service) QueueLength(ctx context.Context) int64 {
	length, err := s.redis.LLen(ctx, queueKey).Result()
	if err != nil {
		return 0
	}
	metrics.EmailQueueLength.Set(float64(length))
	return length
}

func (s *Service) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendMembershipConfirmation(ctx context.Context, email, name, planName string, amountPaise int64, start, end membership.Date) error {
	subject := "Membership Confirmed - " + planName
	body := fmt.Sprintf(`Hi %s,

Your membership is active.

Plan: %s
Amount: %s
Valid from: %s
Valid until: %s

See you at the gym!

- Triple A Gym`, name, planName, formatRupees(amountPaise), start, end)

	return s.enqueue(ctx, TypeMembershipConfirmation, email, name, subject, body)
}

func (s *Service) SendMembershipDiscontinued(ctx context.Context, email, name, planName string, end membership.Date) error {
	subject := "Membership Discontinued - " + planName
	body := fmt.Sprintf(`Hi %s,

Your %s membership was discontinued and ended on %s.

Talk to the front desk to renew.

- Triple A Gym`, name, planName, end)

	return s.enqueue(ctx, TypeMembershipDiscontinued, email, name, subject, body)
}

func formatRupees(paise int64) string {
	return fmt.Sprintf("Rs. %d.%02d", paise/100, paise%100)
}
