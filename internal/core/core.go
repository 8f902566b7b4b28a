package core

import "time"

// Model types recorded in bias_analysis rows.
const (
	ModelTypeSentiment = "sentiment"
	ModelTypePolitical = "political_bias"
)

// Run statuses for scraping_logs. A run starts as partial and is finalized
// exactly once as success or error.
const (
	RunStatusPartial = "partial"
	RunStatusSuccess = "success"
	RunStatusError   = "error"
)

// NormalizedArticle is the shape every source adapter emits: canonical URL,
// canonical + raw category, and a best-effort published date string as
// observed on the page.
type NormalizedArticle struct {
	Source      string `json:"source"`       // Canonical display name (e.g., "PhilStar")
	Title       string `json:"title"`        // Article headline
	URL         string `json:"url"`          // Canonical URL (dedup key)
	Content     string `json:"content"`      // Extracted body text
	Category    string `json:"category"`     // Canonical category (e.g., "Headlines")
	RawCategory string `json:"raw_category"` // Category as observed before normalization
	PublishedAt string `json:"published_at"` // Raw published date text; parsed at store time
}

// Article represents a stored articles row.
type Article struct {
	ID          string     `json:"id"`                     // Row identifier
	Source      string     `json:"source"`                 // Canonical source name
	Category    string     `json:"category"`               // Canonical category
	RawCategory string     `json:"raw_category"`           // Category as observed
	Title       string     `json:"title"`                  // Article headline
	URL         string     `json:"url"`                    // Canonical URL, unique per row
	Content     string     `json:"content"`                // Body text
	PublishedAt *time.Time `json:"published_at,omitempty"` // Best-effort publication time (nil if unparseable)
	IsFunds     bool       `json:"is_funds"`               // Public-funds flag, set at insert
	InsertedAt  time.Time  `json:"inserted_at"`            // Server insert time
}

// BiasAnalysis represents one analysis row, keyed by
// (article_id, model_version, model_type).
type BiasAnalysis struct {
	ID                 string         `json:"id"`                             // Row identifier
	ArticleID          string         `json:"article_id"`                     // Analyzed article
	ModelVersion       string         `json:"model_version"`                  // e.g., "vader_v1", "political_v1"
	ModelType          string         `json:"model_type"`                     // "sentiment" or "political_bias"
	SentimentScore     *float64       `json:"sentiment_score,omitempty"`      // Compound score in [-1,1] (sentiment rows)
	SentimentLabel     string         `json:"sentiment_label,omitempty"`      // positive, neutral, negative
	PoliticalBiasScore *float64       `json:"political_bias_score,omitempty"` // Bias magnitude in [0,1] (political rows)
	ToxicityScore      *float64       `json:"toxicity_score,omitempty"`       // Reserved; not produced by current models
	ConfidenceScore    *float64       `json:"confidence_score,omitempty"`     // Confidence in [0,1] (political rows)
	ProcessingTimeMS   int64          `json:"processing_time_ms"`             // Wall-clock analysis time
	ModelMetadata      map[string]any `json:"model_metadata,omitempty"`       // Model-specific detail record
	CreatedAt          time.Time      `json:"created_at"`                     // Row creation time
}

// ScrapeLog represents a scraping_logs row tracking one scrape run.
type ScrapeLog struct {
	ID              string     `json:"id"`                          // Row identifier
	RunID           string     `json:"run_id"`                      // Correlation token surfaced to callers
	Source          string     `json:"source"`                      // Source key (e.g., "philstar")
	Status          string     `json:"status"`                      // partial, success, error
	ArticlesScraped int        `json:"articles_scraped"`            // Articles collected by the run
	StartedAt       time.Time  `json:"started_at"`                  // Run start
	CompletedAt     *time.Time `json:"completed_at,omitempty"`      // Run end (nil while partial)
	ExecutionTimeMS *int64     `json:"execution_time_ms,omitempty"` // Run duration (nil while partial)
	ErrorMessage    string     `json:"error_message,omitempty"`     // Set on error finalization
}

// StoreResult reports the outcome of persisting one batch of normalized
// articles.
type StoreResult struct {
	InsertedIDs []string `json:"inserted_ids"` // IDs of rows inserted by this batch, discovery order
	Inserted    int      `json:"inserted"`     // New rows
	Duplicates  int      `json:"duplicates"`   // Skipped as already present
	Failed      int      `json:"failed"`       // Rows that errored after retries
}
