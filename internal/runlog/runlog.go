// Package runlog records the lifecycle of scrape runs. Every run starts
// as partial and is finalized exactly once as success or error.
package runlog

import (
	"context"
	"fmt"
	"log/slog"

	"pheye/internal/core"
	"pheye/internal/logger"
	"pheye/internal/persistence"
)

// Recorder writes run records through the log repository.
type Recorder struct {
	db  persistence.Database
	log *slog.Logger
}

// NewRecorder wires run logging to the database.
func NewRecorder(db persistence.Database) *Recorder {
	return &Recorder{db: db, log: logger.Get()}
}

// Start opens a run record for a source. The returned record carries the
// run_id used to correlate queue tasks and API status lookups.
func (r *Recorder) Start(ctx context.Context, source string) (*core.ScrapeLog, error) {
	run, err := r.db.ScrapeLogs().StartRun(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("starting run for %s: %w", source, err)
	}
	r.log.Info("scrape run started", "source", source, "run_id", run.RunID)
	return run, nil
}

// Success finalizes a run as completed.
func (r *Recorder) Success(ctx context.Context, run *core.ScrapeLog, articles int) error {
	if err := r.db.ScrapeLogs().FinalizeRun(ctx, run.ID, core.RunStatusSuccess, articles, ""); err != nil {
		return fmt.Errorf("finalizing run %s: %w", run.RunID, err)
	}
	r.log.Info("scrape run finished", "source", run.Source, "run_id", run.RunID, "articles", articles)
	return nil
}

// Error finalizes a run as failed. The stored message is truncated by the
// repository; articles already stored before the failure stay counted.
func (r *Recorder) Error(ctx context.Context, run *core.ScrapeLog, articles int, cause error) error {
	message := "unknown error"
	if cause != nil {
		message = cause.Error()
	}
	if err := r.db.ScrapeLogs().FinalizeRun(ctx, run.ID, core.RunStatusError, articles, message); err != nil {
		return fmt.Errorf("finalizing run %s: %w", run.RunID, err)
	}
	r.log.Warn("scrape run failed", "source", run.Source, "run_id", run.RunID, "error", message)
	return nil
}

// Recent lists recent runs, optionally filtered by source. The limit is
// clamped by the repository.
func (r *Recorder) Recent(ctx context.Context, source string, limit int) ([]core.ScrapeLog, error) {
	return r.db.ScrapeLogs().Recent(ctx, source, limit)
}

// Get retrieves one run by its run_id.
func (r *Recorder) Get(ctx context.Context, runID string) (*core.ScrapeLog, error) {
	return r.db.ScrapeLogs().GetByRunID(ctx, runID)
}
