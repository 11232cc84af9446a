// Package jobs schedules the periodic maintenance tasks. The scheduler only
// enqueues; the worker executes.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"lagimmo/api/internal/tasks"
)

const (
	pruneSpec    = "0 0 * * * *"  // hourly
	purgeSpec    = "0 30 3 * * *" // daily, 03:30
	enqueueLimit = 5 * time.Second
)

type Scheduler struct {
	cron   *cron.Cron
	queue  redis.Cmdable
	stream string
	log    zerolog.Logger
}

func NewScheduler(queue redis.Cmdable, stream string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		queue:  queue,
		stream: stream,
		log:    log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(pruneSpec, s.enqueueFunc(tasks.TypeTokensPrune)); err != nil {
		return fmt.Errorf("schedule prune: %w", err)
	}
	if _, err := s.cron.AddFunc(purgeSpec, s.enqueueFunc(tasks.TypeSessionsPurge)); err != nil {
		return fmt.Errorf("schedule purge: %w", err)
	}

	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
	return nil
}

// Stop halts the schedule. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) enqueueFunc(taskType string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), enqueueLimit)
		defer cancel()

		if err := s.Enqueue(ctx, taskType); err != nil {
			s.log.Error().Err(err).Str("type", taskType).Msg("enqueue failed")
		}
	}
}

// Enqueue appends a task entry to the stream.
func (s *Scheduler) Enqueue(ctx context.Context, taskType string) error {
	if s.queue == nil {
		return nil
	}
	err := s.queue.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"type":        taskType,
			"enqueued_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
