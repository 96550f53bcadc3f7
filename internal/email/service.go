package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"studioslot/internal/logger"
	"studioslot/internal/metrics"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
	maxTries       = 3
)

type Job struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Type    string    `json:"type"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) Send(ctx context.Context, to, name, subject, body, emailType string) error {
	job := Job{
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Type:    emailType,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", to, err)
		return err
	}

	metrics.EmailQueueLength.Set(float64(s.QueueLength(ctx)))
	logger.Debugf("Email queued: %s to %s", subject, to)
	return nil
}

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

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email job payload: %v", err)
		return
	}

	job.Tries++
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email to %s (attempt %d): %v", job.To, job.Tries, err)

		if job.Tries < maxTries {
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
		} else {
			s.saveFailed(job, err)
			metrics.RecordEmail(job.Type, "failed")
		}
		return
	}

	metrics.RecordEmail(job.Type, "sent")
	metrics.EmailQueueLength.Set(float64(s.QueueLength(ctx)))
	logger.Debugf("Email sent to %s", job.To)
}

func (s *Service) sendNow(job Job) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job Job, sendErr error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": sendErr.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Errorf("Email to %s moved to failed queue after %d attempts", job.To, job.Tries)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

// SendReservationConfirmation queues the member-facing confirmation for a
// booked class instance.
func (s *Service) SendReservationConfirmation(ctx context.Context, to, name, className, instructor string, date time.Time, startTime string) error {
	subject := "Reservation Confirmed - " + className
	body := fmt.Sprintf(`Hi %s,

Your spot is reserved!

Class: %s
Instructor: %s
Date: %s
Starts at: %s

See you in the studio!

- StudioSlot Team`, name, className, instructor, date.Format("Monday, Jan 2, 2006"), startTime)

	return s.Send(ctx, to, name, subject, body, "reservation_confirmation")
}

// SendReservationCancellation queues the member-facing cancellation notice.
func (s *Service) SendReservationCancellation(ctx context.Context, to, name, className string, date time.Time) error {
	subject := "Reservation Cancelled - " + className
	body := fmt.Sprintf(`Hi %s,

Your reservation has been cancelled:

Class: %s
Date: %s

- StudioSlot Team`, name, className, date.Format("Monday, Jan 2, 2006"))

	return s.Send(ctx, to, name, subject, body, "reservation_cancellation")
}
