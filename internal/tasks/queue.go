package tasks

import (
	"context"
	"time"

	"hushgram-service/internal/observability"
)

// TaskUserCleanup asks a worker to run the cascading user-deletion workflow.
const TaskUserCleanup = "user.cleanup"

// Task is the unit of deferred work carried by the queue.
type Task struct {
	Type       string    `json:"type"`
	UserID     int       `json:"user_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue accepts fire-and-forget tasks. Delivery is at least once: handlers
// must be idempotent, and duplicate deliveries of the same task degrade to
// no-ops.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
}

// CleanupFunc is the idempotent procedure consumers invoke per task.
type CleanupFunc func(ctx context.Context, userID int) error

// NewCleanupTask builds a user cleanup task.
func NewCleanupTask(userID int) Task {
	return Task{Type: TaskUserCleanup, UserID: userID, EnqueuedAt: time.Now().UTC()}
}

func recordEnqueued(taskType string) {
	observability.IncTaskEnqueued(taskType)
}
