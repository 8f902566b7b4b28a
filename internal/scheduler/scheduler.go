// Package scheduler fires per-source scrape tasks on staggered wall-clock
// intervals.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"pheye/internal/logger"
	"pheye/internal/queue"
)

// Scheduler enqueues scrape.<source> tasks on each source's interval.
// Tickers drop ticks when enqueueing lags, so a slow broker never causes
// a burst of catch-up runs.
type Scheduler struct {
	client    *queue.Client
	intervals map[string]time.Duration
	log       *slog.Logger
}

// New builds a scheduler from per-source interval strings. Invalid and
// non-positive intervals are rejected so a typo cannot silently disable
// a source.
func New(client *queue.Client, intervals map[string]string) (*Scheduler, error) {
	parsed := make(map[string]time.Duration, len(intervals))
	for source, raw := range intervals {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("interval for %s: %w", source, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("interval for %s must be positive, got %s", source, raw)
		}
		parsed[source] = d
	}
	return &Scheduler{
		client:    client,
		intervals: parsed,
		log:       logger.Get(),
	}, nil
}

// Sources returns the scheduled source names in sorted order.
func (s *Scheduler) Sources() []string {
	names := make([]string, 0, len(s.intervals))
	for source := range s.intervals {
		names = append(names, source)
	}
	sort.Strings(names)
	return names
}

// Run blocks until the context is cancelled, ticking every source on its
// own interval. The first task for each source fires one full interval
// after start.
func (s *Scheduler) Run(ctx context.Context) error {
	if len(s.intervals) == 0 {
		return fmt.Errorf("no sources scheduled")
	}
	for _, source := range s.Sources() {
		s.log.Info("scheduling source", "source", source, "interval", s.intervals[source].String())
	}

	var wg sync.WaitGroup
	for source, interval := range s.intervals {
		wg.Add(1)
		go func(source string, interval time.Duration) {
			defer wg.Done()
			s.tickSource(ctx, source, interval)
		}(source, interval)
	}
	wg.Wait()
	return ctx.Err()
}

// tickSource is one source's enqueue loop.
func (s *Scheduler) tickSource(ctx context.Context, source string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			taskID, err := s.client.Enqueue(ctx, queue.ScrapeTaskType(source), nil)
			if err != nil {
				s.log.Error("enqueueing scheduled scrape failed", "source", source, "error", err.Error())
				continue
			}
			s.log.Info("scheduled scrape enqueued", "source", source, "task_id", taskID)
		}
	}
}
