package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

// AMQPQueue publishes solve requests to a durable RabbitMQ queue. Deliveries
// are persistent; retry and backoff of failed processing is the broker's
// concern (consumers nack transient failures back into the queue).
type AMQPQueue struct {
	channel        *amqp.Channel
	queueName      string
	publishTimeout time.Duration
}

func NewAMQPQueue(channel *amqp.Channel, queueName string, publishTimeout time.Duration) *AMQPQueue {
	return &AMQPQueue{
		channel:        channel,
		queueName:      queueName,
		publishTimeout: publishTimeout,
	}
}

func (q *AMQPQueue) Enqueue(ctx context.Context, msg domain.SolveMessage) (string, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	handle := uuid.NewString()

	ctx, cancel := context.WithTimeout(ctx, q.publishTimeout)
	defer cancel()

	if err := q.channel.PublishWithContext(ctx,
		"",          // default exchange
		q.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    handle,
			Body:         body,
		},
	); err != nil {
		return "", err
	}

	return handle, nil
}
