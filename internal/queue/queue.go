// Package queue abstracts the job queue the optimization subsystem hands
// solve requests to. The core never depends on a specific broker: the AMQP
// implementation is used in production, the in-memory one in tests and
// single-process deployments.
package queue

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

const (
	OptimizationQueueName = "optimization_queue"
	EmailQueueName        = "email_queue"
)

// Enqueuer submits a solve request for asynchronous processing and returns an
// opaque handle identifying the submission.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg domain.SolveMessage) (string, error)
}

// Declare creates (or asserts) a durable queue on the channel.
func Declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // keep the queue around when no consumer is attached
		false, // not exclusive
		false, // wait for the broker to confirm the declaration
		nil,
	)
}
