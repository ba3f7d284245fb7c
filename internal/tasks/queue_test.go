package tasks

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func TestHandleDeliveryAcksOnSuccess(t *testing.T) {
	ack := &fakeAcknowledger{}
	delivery := amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		Body:         []byte(`{"type":"user.cleanup","user_id":7}`),
	}

	var got int
	handleDelivery(context.Background(), delivery, func(ctx context.Context, userID int) error {
		got = userID
		return nil
	})

	require.Equal(t, 7, got)
	require.True(t, ack.acked)
	require.False(t, ack.nacked)
}

func TestHandleDeliveryRequeuesOnHandlerError(t *testing.T) {
	ack := &fakeAcknowledger{}
	delivery := amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  2,
		Body:         []byte(`{"type":"user.cleanup","user_id":7}`),
	}

	handleDelivery(context.Background(), delivery, func(ctx context.Context, userID int) error {
		return assert.AnError
	})

	require.True(t, ack.nacked)
	require.True(t, ack.requeued)
	require.False(t, ack.acked)
}

func TestHandleDeliveryDropsUndecodablePayload(t *testing.T) {
	ack := &fakeAcknowledger{}
	delivery := amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  3,
		Body:         []byte("not json"),
	}

	called := false
	handleDelivery(context.Background(), delivery, func(ctx context.Context, userID int) error {
		called = true
		return nil
	})

	require.False(t, called)
	require.True(t, ack.nacked)
	require.False(t, ack.requeued)
}

func TestInProcessQueueRunsTask(t *testing.T) {
	done := make(chan int, 1)
	queue := NewInProcessQueue(4, func(ctx context.Context, userID int) error {
		done <- userID
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)

	require.NoError(t, queue.Enqueue(ctx, NewCleanupTask(42)))

	select {
	case id := <-done:
		require.Equal(t, 42, id)
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestInProcessQueueFullReturnsError(t *testing.T) {
	queue := NewInProcessQueue(1, func(ctx context.Context, userID int) error { return nil })

	// Worker not started, so the buffer is the whole capacity.
	require.NoError(t, queue.Enqueue(context.Background(), NewCleanupTask(1)))
	require.Error(t, queue.Enqueue(context.Background(), NewCleanupTask(2)))
}

func TestNewCleanupTask(t *testing.T) {
	task := NewCleanupTask(5)
	require.Equal(t, TaskUserCleanup, task.Type)
	require.Equal(t, 5, task.UserID)
	require.False(t, task.EnqueuedAt.IsZero())
}
