package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"pheye/internal/core"
	"pheye/internal/logger"
	"pheye/internal/pipeline"
	"pheye/internal/queue"
	"pheye/internal/runlog"
)

// defaultOversample is the discovery multiplier: some discovered URLs are
// duplicates or non-articles, so more candidates are gathered than the
// per-run article target.
const defaultOversample = 4

// RunnerOptions tunes a scrape run.
type RunnerOptions struct {
	MaxArticles int
	Oversample  int
}

// Summary describes one finished scrape run.
type Summary struct {
	Source         string           `json:"source"`
	RunID          string           `json:"run_id"`
	Discovered     int              `json:"discovered"`
	Stored         core.StoreResult `json:"stored"`
	AnalysisTaskID string           `json:"analysis_task_id,omitempty"`
	Disabled       bool             `json:"disabled,omitempty"`
	Errors         []string         `json:"errors,omitempty"`
}

// Runner executes scrape runs end to end: discover, fetch, extract,
// store, trigger analysis, and log the run.
type Runner struct {
	fetcher  *Fetcher
	registry *Registry
	store    *pipeline.Store
	recorder *runlog.Recorder
	tasks    *queue.Client
	opts     RunnerOptions
	log      *slog.Logger
}

// NewRunner wires a scrape runner. A nil task client disables the
// analysis trigger; stored articles then wait for the next scheduled
// analysis sweep.
func NewRunner(fetcher *Fetcher, registry *Registry, store *pipeline.Store, recorder *runlog.Recorder, tasks *queue.Client, opts RunnerOptions) *Runner {
	if opts.MaxArticles <= 0 {
		opts.MaxArticles = 3
	}
	if opts.Oversample <= 0 {
		opts.Oversample = defaultOversample
	}
	return &Runner{
		fetcher:  fetcher,
		registry: registry,
		store:    store,
		recorder: recorder,
		tasks:    tasks,
		opts:     opts,
		log:      logger.Get(),
	}
}

// RunSource executes one scrape run for a source. Per-URL failures are
// collected in the summary; the run itself fails only when nothing can
// proceed at all.
func (r *Runner) RunSource(ctx context.Context, source string) (Summary, error) {
	summary := Summary{Source: source}

	run, err := r.recorder.Start(ctx, source)
	if err != nil {
		return summary, err
	}
	summary.RunID = run.RunID

	adapter, ok := r.registry.Get(source)
	if !ok {
		err := fmt.Errorf("unknown source %q", source)
		r.finalizeError(ctx, run, 0, err)
		return summary, err
	}

	if adapter.Disabled() {
		summary.Disabled = true
		if err := r.recorder.Success(ctx, run, 0); err != nil {
			return summary, err
		}
		r.log.Info("source disabled, run recorded empty", "source", source, "run_id", run.RunID)
		return summary, nil
	}

	urls, err := adapter.Discover(ctx, r.fetcher, r.opts.MaxArticles*r.opts.Oversample)
	if err != nil {
		r.finalizeError(ctx, run, 0, err)
		return summary, err
	}
	summary.Discovered = len(urls)

	articles, fetchErrs := r.collect(ctx, adapter, urls)
	summary.Errors = fetchErrs
	if ctx.Err() != nil {
		r.finalizeError(ctx, run, 0, errors.New("cancelled"))
		return summary, ctx.Err()
	}

	stored, err := r.store.StoreArticles(ctx, articles)
	if err != nil {
		r.finalizeError(ctx, run, 0, err)
		return summary, err
	}
	summary.Stored = stored

	summary.AnalysisTaskID = r.triggerAnalysis(ctx, stored.InsertedIDs)

	// The run log counts articles collected this run, duplicates included;
	// the store result carries the insert/duplicate split.
	if err := r.recorder.Success(ctx, run, len(articles)); err != nil {
		return summary, err
	}
	return summary, nil
}

// collect fetches and extracts candidate URLs until the article target is
// met, pacing between requests.
func (r *Runner) collect(ctx context.Context, adapter Adapter, urls []string) ([]core.NormalizedArticle, []string) {
	var articles []core.NormalizedArticle
	var failures []string

	for i, pageURL := range urls {
		if len(articles) >= r.opts.MaxArticles || ctx.Err() != nil {
			break
		}
		if i > 0 {
			if err := r.fetcher.Pause(ctx); err != nil {
				break
			}
		}

		doc, err := r.fetcher.Document(ctx, adapter.Source(), pageURL)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", pageURL, err))
			continue
		}

		article, err := Extract(doc, adapter.Source(), pageURL, adapter.Selectors())
		if err != nil {
			if !errors.Is(err, ErrNotArticle) {
				failures = append(failures, fmt.Sprintf("%s: %v", pageURL, err))
			}
			continue
		}
		articles = append(articles, article)
	}
	return articles, failures
}

// triggerAnalysis enqueues an ml.analyze task for freshly inserted rows.
// Analysis never runs inline with the scrape.
func (r *Runner) triggerAnalysis(ctx context.Context, insertedIDs []string) string {
	if len(insertedIDs) == 0 || r.tasks == nil {
		return ""
	}
	taskID, err := r.tasks.Enqueue(ctx, queue.TaskAnalyze, queue.AnalyzePayload{ArticleIDs: insertedIDs})
	if err != nil {
		r.log.Error("enqueueing analysis failed", "articles", len(insertedIDs), "error", err.Error())
		return ""
	}
	return taskID
}

// finalizeError closes a run as failed, logging any secondary failure.
func (r *Runner) finalizeError(ctx context.Context, run *core.ScrapeLog, articles int, cause error) {
	if err := r.recorder.Error(ctx, run, articles, cause); err != nil {
		r.log.Error("finalizing failed run", "run_id", run.RunID, "error", err.Error())
	}
}
