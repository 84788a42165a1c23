package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/shiftwise-dev/workforce/backend/internal/domain"
)

var ErrQueueClosed = errors.New("queue is closed")

// ProcessFunc handles one dequeued solve request.
type ProcessFunc func(ctx context.Context, msg domain.SolveMessage) error

// MemoryQueue is an in-process Enqueuer backed by a buffered channel and a
// pool of consumer goroutines. It exists for tests and single-binary
// deployments without a broker.
type MemoryQueue struct {
	process ProcessFunc
	jobs    chan domain.SolveMessage

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewMemoryQueue(process ProcessFunc, buffer int) *MemoryQueue {
	return &MemoryQueue{
		process: process,
		jobs:    make(chan domain.SolveMessage, buffer),
	}
}

// Start launches the consumer goroutines. They exit when the context is
// cancelled or the queue is closed.
func (q *MemoryQueue) Start(ctx context.Context, consumers int) {
	for i := 0; i < consumers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case msg, ok := <-q.jobs:
					if !ok {
						return
					}
					// processing errors are the handler's concern; the
					// in-memory queue has no redelivery
					_ = q.process(ctx, msg)
				}
			}
		}()
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, msg domain.SolveMessage) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return "", ErrQueueClosed
	}

	q.jobs <- msg
	return uuid.NewString(), nil
}

// Close stops accepting submissions and waits for in-flight processing.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}
