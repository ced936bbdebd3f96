package worker

import (
	"context"
	"errors"
	"time"

	"github.com/okian/rosterlens/internal/adapters/mq/queue"
	"github.com/okian/rosterlens/pkg/logger"
)

// Enqueuer accepts refresh jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, j queue.Job) error
}

// Scheduler queues a fixed set of leagues on an interval.
type Scheduler struct {
	queue   Enqueuer
	leagues []string
	every   time.Duration
	logger  logger.Logger
}

// NewScheduler creates a scheduler for leagues.
func NewScheduler(q Enqueuer, leagues []string, every time.Duration, l logger.Logger) *Scheduler {
	if l == nil {
		l = logger.Nop()
	}
	return &Scheduler{queue: q, leagues: leagues, every: every, logger: l.Named("scheduler")}
}

// Run enqueues every league once per interval until ctx ends. The first round
// waits one interval: startup builds are Prewarm's job.
func (s *Scheduler) Run(ctx context.Context) {
	if s.every <= 0 || len(s.leagues) == 0 {
		return
	}
	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick enqueues every league once.
func (s *Scheduler) Tick(ctx context.Context) {
	now := time.Now()
	for _, id := range s.leagues {
		err := s.queue.Enqueue(ctx, queue.Job{LeagueID: id, EnqueuedAt: now})
		switch {
		case err == nil:
		case errors.Is(err, queue.ErrClosed), errors.Is(err, context.Canceled):
			return
		default:
			s.logger.Warn(ctx, "refresh not queued", logger.String("league_id", id), logger.Error(err))
		}
	}
}
