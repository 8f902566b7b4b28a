package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pheye/internal/config"
	"pheye/internal/logger"
	"pheye/internal/ml"
	"pheye/internal/persistence"
	"pheye/internal/pipeline"
	"pheye/internal/queue"
	"pheye/internal/runlog"
	"pheye/internal/scrape"
)

// NewWorkerCmd creates the worker command
func NewWorkerCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the task queue worker pool",
		Long: `Run the task queue worker pool.

Workers pop scrape and analysis tasks from the Redis queue and execute
them. Failed tasks are retried with exponential backoff up to the
configured limit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), workers)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "number of workers (default from config)")
	return cmd
}

func runWorker(ctx context.Context, workers int) error {
	log := logger.Get()

	db, cfg, err := openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tasks, rdb, err := openQueue(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	loader, err := ml.NewLoader(cfg.ML.LexiconPath)
	if err != nil {
		return fmt.Errorf("loading lexicon: %w", err)
	}

	if workers <= 0 {
		workers = cfg.Queue.Workers
	}
	pool := queue.NewPool(tasks, workers, cfg.Queue.MaxRetries)

	registry := scrape.DefaultRegistry(sourcesOptions(cfg))
	runner := buildScrapeRunner(db, cfg, registry, tasks)
	registerHandlers(pool, registry, runner, ml.NewRunner(db, loader))

	ctx, cancel := signalContext(ctx)
	defer cancel()

	log.Info("worker pool starting", "workers", workers)
	return pool.Run(ctx)
}

// registerHandlers binds every task type a worker can execute.
func registerHandlers(pool *queue.Pool, registry *scrape.Registry, runner *scrape.Runner, analyzer *ml.Runner) {
	for _, source := range registry.Sources() {
		source := source
		pool.Register(queue.ScrapeTaskType(source), func(ctx context.Context, task queue.Task) (any, error) {
			return runner.RunSource(ctx, source)
		})
	}

	pool.Register(queue.TaskAnalyze, func(ctx context.Context, task queue.Task) (any, error) {
		var payload queue.AnalyzePayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decoding analyze payload: %w", err)
		}
		return analyzer.AnalyzeArticles(ctx, payload.ArticleIDs)
	})

	pool.Register(queue.TaskAnalyzeSince, func(ctx context.Context, task queue.Task) (any, error) {
		var payload queue.AnalyzeSincePayload
		if err := json.Unmarshal(task.Payload, &payload); err != nil {
			return nil, fmt.Errorf("decoding analyze_since payload: %w", err)
		}
		return analyzer.AnalyzeSince(ctx, payload.Since)
	})
}

// buildScrapeRunner assembles the fetch-extract-store pipeline from config.
func buildScrapeRunner(db persistence.Database, cfg *config.Config, registry *scrape.Registry, tasks *queue.Client) *scrape.Runner {
	fetcher := scrape.NewFetcher(scrape.FetchOptions{
		Timeout:       duration(cfg.Scrape.FetchTimeout, 30*time.Second),
		MinDelay:      duration(cfg.Scrape.MinDelay, 12*time.Second),
		MaxDelay:      duration(cfg.Scrape.MaxDelay, 25*time.Second),
		UseAdvHeaders: cfg.Scrape.UseAdvHeaders,
		UseHumanDelay: cfg.Scrape.UseHumanDelay,
	})
	store := pipeline.NewStore(db, buildClassifier(cfg))
	return scrape.NewRunner(fetcher, registry, store, runlog.NewRecorder(db), tasks, scrape.RunnerOptions{
		MaxArticles: cfg.Scrape.MaxArticles,
	})
}

// duration parses a config duration string with a fallback.
func duration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
