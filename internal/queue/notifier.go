package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

// MailPublisher pushes notification mails onto the email queue; the mailer
// binary consumes and sends them.
type MailPublisher struct {
	channel        *amqp.Channel
	publishTimeout time.Duration
}

func NewMailPublisher(channel *amqp.Channel, publishTimeout time.Duration) *MailPublisher {
	return &MailPublisher{
		channel:        channel,
		publishTimeout: publishTimeout,
	}
}

func (p *MailPublisher) OptimizationFinished(ctx context.Context, to string, data domain.OptimizationFinishedMailData) error {
	body, err := json.Marshal(domain.MailMessage{
		Type: "optimization_finished",
		To:   to,
		Data: data,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.publishTimeout)
	defer cancel()

	return p.channel.PublishWithContext(ctx,
		"",
		EmailQueueName,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
