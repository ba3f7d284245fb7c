package tasks

import (
	"context"
	"errors"
	"log"
	"time"
)

// InProcessQueue runs tasks on a local worker goroutine when AMQP is not
// configured, mirroring how the audit publisher degrades to a noop. A failed
// task is re-enqueued once after a delay; beyond that the next idle sweep
// picks the user up again.
type InProcessQueue struct {
	tasks      chan Task
	fn         CleanupFunc
	retryDelay time.Duration
}

// NewInProcessQueue builds the queue; Start must be called before Enqueue.
func NewInProcessQueue(buffer int, fn CleanupFunc) *InProcessQueue {
	return &InProcessQueue{
		tasks:      make(chan Task, buffer),
		fn:         fn,
		retryDelay: 5 * time.Second,
	}
}

// Enqueue hands the task to the worker without waiting for execution.
func (q *InProcessQueue) Enqueue(ctx context.Context, task Task) error {
	select {
	case q.tasks <- task:
		recordEnqueued(task.Type)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errors.New("task queue full")
	}
}

// Start launches the worker loop.
func (q *InProcessQueue) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case task := <-q.tasks:
				if err := q.fn(ctx, task.UserID); err != nil {
					log.Printf("task failed type=%s user_id=%d err=%v", task.Type, task.UserID, err)
					q.requeueLater(ctx, task)
				}
			}
		}
	}()
}

func (q *InProcessQueue) requeueLater(ctx context.Context, task Task) {
	time.AfterFunc(q.retryDelay, func() {
		select {
		case q.tasks <- task:
		case <-ctx.Done():
		default:
			log.Printf("task retry dropped, queue full user_id=%d", task.UserID)
		}
	})
}
