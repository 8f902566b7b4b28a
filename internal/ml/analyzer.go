package ml

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"pheye/internal/core"
	"pheye/internal/logger"
	"pheye/internal/persistence"
)

// upsertAttempts bounds retries of a failing analysis write.
const upsertAttempts = 3

// Report summarizes one analysis batch.
type Report struct {
	Requested int      `json:"requested"`
	Analyzed  int      `json:"analyzed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// Runner loads articles and persists both model rows for each. Re-running
// a batch updates rows in place; the composite key keeps it idempotent.
type Runner struct {
	db        persistence.Database
	sentiment *SentimentEngine
	political *PoliticalAnalyzer
	log       *slog.Logger
}

// NewRunner wires the analysis stage.
func NewRunner(db persistence.Database, loader *Loader) *Runner {
	engine := NewSentimentEngine()
	return &Runner{
		db:        db,
		sentiment: engine,
		political: NewPoliticalAnalyzer(loader, engine),
		log:       logger.Get(),
	}
}

// AnalyzeArticles computes and upserts sentiment and political-bias rows
// for the given article IDs.
func (r *Runner) AnalyzeArticles(ctx context.Context, ids []string) (Report, error) {
	report := Report{Requested: len(ids)}
	if len(ids) == 0 {
		return report, nil
	}

	articles, err := r.db.Articles().GetBatch(ctx, ids)
	if err != nil {
		return report, fmt.Errorf("loading articles for analysis: %w", err)
	}

	for i := range articles {
		article := &articles[i]
		text := article.Title
		if article.Content != "" {
			text += "\n\n" + article.Content
		}

		if err := r.analyzeOne(ctx, article.ID, text); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", article.ID, err))
			r.log.Error("analysis failed", "article_id", article.ID, "error", err.Error())
			continue
		}
		report.Analyzed++
	}

	r.log.Info("analysis batch done",
		"requested", report.Requested,
		"analyzed", report.Analyzed,
		"failed", report.Failed)
	return report, nil
}

// AnalyzeSince expands a time cutoff to article IDs and analyzes them.
func (r *Runner) AnalyzeSince(ctx context.Context, since time.Time) (Report, error) {
	ids, err := r.db.Articles().IDsSince(ctx, since)
	if err != nil {
		return Report{}, fmt.Errorf("expanding since cutoff: %w", err)
	}
	return r.AnalyzeArticles(ctx, ids)
}

// analyzeOne writes both model rows for a single article.
func (r *Runner) analyzeOne(ctx context.Context, articleID, text string) error {
	sentiment := r.sentiment.Analyze(text)
	compound := sentiment.Compound
	sentimentRow := &core.BiasAnalysis{
		ArticleID:        articleID,
		ModelVersion:     SentimentModelVersion,
		ModelType:        core.ModelTypeSentiment,
		SentimentScore:   &compound,
		SentimentLabel:   sentiment.Label,
		ProcessingTimeMS: sentiment.ProcessingTimeMS,
		ModelMetadata:    sentiment.Metadata,
	}
	if err := r.upsert(ctx, sentimentRow); err != nil {
		return fmt.Errorf("sentiment row: %w", err)
	}

	political := r.political.Analyze(text)
	biasScore := political.BiasScore
	confidence := political.Confidence
	politicalRow := &core.BiasAnalysis{
		ArticleID:          articleID,
		ModelVersion:       PoliticalModelVersion,
		ModelType:          core.ModelTypePolitical,
		PoliticalBiasScore: &biasScore,
		ConfidenceScore:    &confidence,
		ProcessingTimeMS:   political.ProcessingTimeMS,
		ModelMetadata:      political.Metadata(),
	}
	if err := r.upsert(ctx, politicalRow); err != nil {
		return fmt.Errorf("political row: %w", err)
	}
	return nil
}

// upsert writes one row with jittered exponential backoff on transient
// failure.
func (r *Runner) upsert(ctx context.Context, row *core.BiasAnalysis) error {
	backoff := retry.WithMaxRetries(upsertAttempts, retry.WithJitter(200*time.Millisecond, retry.NewExponential(time.Second)))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := r.db.BiasAnalyses().Upsert(ctx, row); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
