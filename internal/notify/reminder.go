package notify

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const reminderChannel = "clinic:notifications:payment-reminder"

// PaymentReminder is the message published for the notification relay.
// Delivery (email, SMS) is owned by an external consumer.
type PaymentReminder struct {
	AppointmentID  string    `json:"appointment_id"`
	PatientSubject string    `json:"patient_subject"`
	PatientName    string    `json:"patient_name"`
	TotalAmount    int64     `json:"total_amount,omitempty"`
	SentAt         time.Time `json:"sent_at"`
}

type Publisher interface {
	PublishPaymentReminder(ctx context.Context, reminder PaymentReminder) error
}

type RedisPublisher struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisPublisher(client *redis.Client, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, logger: logger}
}

// PublishPaymentReminder is fire-and-forget: a publish failure is logged
// and reported to the caller, but nothing is queued for retry.
func (p *RedisPublisher) PublishPaymentReminder(ctx context.Context, reminder PaymentReminder) error {
	payload, err := json.Marshal(reminder)
	if err != nil {
		return fmt.Errorf("encode payment reminder: %w", err)
	}

	if err := p.client.Publish(ctx, reminderChannel, payload).Err(); err != nil {
		p.logger.Warn("payment reminder publish failed",
			zap.String("appointment_id", reminder.AppointmentID),
			zap.Error(err),
		)
		return fmt.Errorf("publish payment reminder: %w", err)
	}

	p.logger.Info("payment reminder published",
		zap.String("appointment_id", reminder.AppointmentID),
		zap.String("patient_subject", reminder.PatientSubject),
	)
	return nil
}
