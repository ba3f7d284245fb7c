package presence

import (
	"context"
	"log"
	"time"

	"hushgram-service/internal/observability"
	"hushgram-service/internal/tasks"
)

// UserScanner is the slice of the user repository the sweeper needs.
type UserScanner interface {
	ListIdle(ctx context.Context, olderThan time.Time) ([]int, error)
}

// Sweeper periodically scans for users whose last_seen has aged past the
// idle threshold and enqueues one cleanup task per user. The idle threshold
// decides deletion and is deliberately longer than, and independent from,
// the online display window.
type Sweeper struct {
	users     UserScanner
	queue     tasks.Queue
	interval  time.Duration
	idleAfter time.Duration
}

// NewSweeper constructs a Sweeper.
func NewSweeper(users UserScanner, queue tasks.Queue, interval, idleAfter time.Duration) *Sweeper {
	return &Sweeper{users: users, queue: queue, interval: interval, idleAfter: idleAfter}
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce scans and fans out. It never touches last_seen or is_online:
// refreshing an idle-listed user would hide them from the next sweep before
// their cleanup actually lands, and a failed enqueue must stay retryable.
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.idleAfter)
	ids, err := s.users.ListIdle(ctx, cutoff)
	if err != nil {
		log.Printf("idle sweep scan failed: %v", err)
		return
	}

	for _, id := range ids {
		if err := s.queue.Enqueue(ctx, tasks.NewCleanupTask(id)); err != nil {
			log.Printf("idle sweep enqueue failed user_id=%d err=%v", id, err)
		}
	}

	observability.SetIdleUsersLastSweep(len(ids))
	if len(ids) > 0 {
		log.Printf("idle sweep enqueued cleanup for %d users", len(ids))
	}
}
