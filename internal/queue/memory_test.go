package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shiftwise-dev/workforce/backend/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueProcessesAllMessages(t *testing.T) {
	var mu sync.Mutex
	var seen []int64

	q := NewMemoryQueue(func(_ context.Context, msg domain.SolveMessage) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, msg.Parameters.OptimizationID)
		return nil
	}, 16)
	q.Start(context.Background(), 4)

	handles := make(map[string]bool)
	for i := int64(1); i <= 10; i++ {
		handle, err := q.Enqueue(context.Background(), domain.SolveMessage{
			Parameters: domain.OptimizationParameters{OptimizationID: i},
		})
		require.NoError(t, err)
		require.NotEmpty(t, handle)
		require.False(t, handles[handle], "handles must be unique")
		handles[handle] = true
	}

	q.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 10)
}

func TestMemoryQueueRejectsAfterClose(t *testing.T) {
	q := NewMemoryQueue(func(context.Context, domain.SolveMessage) error { return nil }, 1)
	q.Start(context.Background(), 1)
	q.Close()

	_, err := q.Enqueue(context.Background(), domain.SolveMessage{})
	require.ErrorIs(t, err, ErrQueueClosed)
}

func TestMemoryQueueStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	processed := make(chan struct{}, 1)
	q := NewMemoryQueue(func(context.Context, domain.SolveMessage) error {
		processed <- struct{}{}
		return nil
	}, 1)
	q.Start(ctx, 1)

	_, err := q.Enqueue(context.Background(), domain.SolveMessage{})
	require.NoError(t, err)

	select {
	case <-processed:
	case <-time.After(2 * time.Second):
		t.Fatal("message was not processed")
	}

	cancel()
	q.Close()
}
