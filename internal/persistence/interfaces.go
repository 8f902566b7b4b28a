// Package persistence provides database abstraction interfaces for storing
// articles, analysis rows, and scrape run logs.
package persistence

import (
	"context"
	"time"

	"pheye/internal/core"
)

// ArticleRepository handles article persistence operations
type ArticleRepository interface {
	// InsertBatch inserts new articles and returns their IDs in input order
	InsertBatch(ctx context.Context, articles []core.Article) ([]string, error)

	// ExistingURLs reports which of the given canonical URLs are stored
	ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error)

	// IDsByURL retrieves row IDs for the given canonical URLs
	IDsByURL(ctx context.Context, urls []string) ([]string, error)

	// Get retrieves an article by ID
	Get(ctx context.Context, id string) (*core.Article, error)

	// GetBatch retrieves articles by ID, skipping missing ones
	GetBatch(ctx context.Context, ids []string) ([]core.Article, error)

	// List retrieves articles with pagination and filtering
	List(ctx context.Context, opts ListOptions) ([]core.Article, error)

	// Count counts articles matching the filter
	Count(ctx context.Context, opts ListOptions) (int, error)

	// IDsSince retrieves IDs of articles inserted at or after the given time
	IDsSince(ctx context.Context, since time.Time) ([]string, error)

	// Page retrieves (id, title, content, is_funds) tuples ordered by ID,
	// for paginated maintenance passes
	Page(ctx context.Context, offset, limit int) ([]core.Article, error)

	// SetIsFunds updates the is_funds flag on the given rows
	SetIsFunds(ctx context.Context, ids []string, isFunds bool) error
}

// BiasAnalysisRepository handles analysis row persistence
type BiasAnalysisRepository interface {
	// Upsert writes an analysis row keyed by
	// (article_id, model_version, model_type)
	Upsert(ctx context.Context, analysis *core.BiasAnalysis) error

	// GetByArticle retrieves all analysis rows for one article
	GetByArticle(ctx context.Context, articleID string) ([]core.BiasAnalysis, error)

	// DailySentiment aggregates sentiment rows per day and source since the
	// given time
	DailySentiment(ctx context.Context, since time.Time) ([]DailySentimentRow, error)

	// SourceBias aggregates sentiment and political rows per source
	SourceBias(ctx context.Context) ([]SourceBiasRow, error)
}

// ScrapeLogRepository handles run log persistence
type ScrapeLogRepository interface {
	// StartRun inserts a run record with status partial
	StartRun(ctx context.Context, source string) (*core.ScrapeLog, error)

	// FinalizeRun completes a run record; exactly one finalize per start
	FinalizeRun(ctx context.Context, id, status string, articlesScraped int, errorMessage string) error

	// Recent retrieves recent runs, optionally filtered by source
	Recent(ctx context.Context, source string, limit int) ([]core.ScrapeLog, error)

	// GetByRunID retrieves a run by its correlation token
	GetByRunID(ctx context.Context, runID string) (*core.ScrapeLog, error)
}

// DailySentimentRow is one date×source sentiment aggregate.
type DailySentimentRow struct {
	Date          time.Time `json:"date"`
	Source        string    `json:"source"`
	AvgCompound   float64   `json:"avg_compound"`
	ArticleCount  int       `json:"article_count"`
	PositiveCount int       `json:"positive_count"`
	NegativeCount int       `json:"negative_count"`
}

// SourceBiasRow is one per-source bias aggregate.
type SourceBiasRow struct {
	Source        string  `json:"source"`
	AvgSentiment  float64 `json:"avg_sentiment"`
	AvgBiasScore  float64 `json:"avg_bias_score"`
	AvgConfidence float64 `json:"avg_confidence"`
	ArticleCount  int     `json:"article_count"`
}

// ListOptions provides common filtering and pagination options
type ListOptions struct {
	Limit  int               // Maximum number of results (0 for a default limit)
	Offset int               // Number of results to skip
	SortBy string            // Field to sort by
	Order  string            // "asc" or "desc"
	Filter map[string]string // Key-value filters (source, category, is_funds)
}

// Database represents the main database interface that aggregates all repositories
type Database interface {
	// Articles returns the article repository
	Articles() ArticleRepository

	// BiasAnalyses returns the analysis repository
	BiasAnalyses() BiasAnalysisRepository

	// ScrapeLogs returns the run log repository
	ScrapeLogs() ScrapeLogRepository

	// Close closes the database connection
	Close() error

	// Ping verifies the database connection
	Ping(ctx context.Context) error

	// BeginTx starts a new transaction
	BeginTx(ctx context.Context) (Transaction, error)
}

// Transaction represents a database transaction
type Transaction interface {
	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Articles returns the article repository within this transaction
	Articles() ArticleRepository

	// BiasAnalyses returns the analysis repository within this transaction
	BiasAnalyses() BiasAnalysisRepository

	// ScrapeLogs returns the run log repository within this transaction
	ScrapeLogs() ScrapeLogRepository
}
