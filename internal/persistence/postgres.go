// Package persistence provides database implementations
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"pheye/internal/core"
)

// maxErrorMessageLen bounds stored run error messages.
const maxErrorMessageLen = 500

// PostgresDB implements the Database interface for PostgreSQL
type PostgresDB struct {
	db         *sql.DB
	articles   ArticleRepository
	analyses   BiasAnalysisRepository
	scrapeLogs ScrapeLogRepository
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return newPostgresDB(db), nil
}

// NewPostgresDBFromConn wraps an existing connection; used by tests.
func NewPostgresDBFromConn(db *sql.DB) *PostgresDB {
	return newPostgresDB(db)
}

func newPostgresDB(db *sql.DB) *PostgresDB {
	pgDB := &PostgresDB{db: db}
	pgDB.articles = &postgresArticleRepo{db: db}
	pgDB.analyses = &postgresBiasAnalysisRepo{db: db}
	pgDB.scrapeLogs = &postgresScrapeLogRepo{db: db}
	return pgDB
}

func (p *PostgresDB) Articles() ArticleRepository          { return p.articles }
func (p *PostgresDB) BiasAnalyses() BiasAnalysisRepository { return p.analyses }
func (p *PostgresDB) ScrapeLogs() ScrapeLogRepository      { return p.scrapeLogs }

func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *PostgresDB) BeginTx(ctx context.Context) (Transaction, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &postgresTx{
		tx:         tx,
		articles:   &postgresArticleRepo{db: p.db, tx: tx},
		analyses:   &postgresBiasAnalysisRepo{db: p.db, tx: tx},
		scrapeLogs: &postgresScrapeLogRepo{db: p.db, tx: tx},
	}, nil
}

// Migrate creates the schema when it does not exist yet.
func (p *PostgresDB) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id UUID PRIMARY KEY,
			source TEXT NOT NULL,
			category TEXT,
			raw_category TEXT,
			title TEXT NOT NULL,
			url TEXT NOT NULL UNIQUE,
			content TEXT,
			published_at TIMESTAMPTZ,
			is_funds BOOLEAN NOT NULL DEFAULT FALSE,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS bias_analysis (
			id UUID PRIMARY KEY,
			article_id UUID NOT NULL REFERENCES articles(id),
			model_version TEXT NOT NULL,
			model_type TEXT NOT NULL,
			sentiment_score DOUBLE PRECISION,
			sentiment_label TEXT,
			political_bias_score DOUBLE PRECISION,
			toxicity_score DOUBLE PRECISION,
			confidence_score DOUBLE PRECISION,
			processing_time_ms BIGINT,
			model_metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (article_id, model_version, model_type)
		)`,
		`CREATE TABLE IF NOT EXISTS scraping_logs (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL UNIQUE,
			source TEXT NOT NULL,
			status TEXT NOT NULL,
			articles_scraped INTEGER NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			execution_time_ms BIGINT,
			error_message TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_inserted_at ON articles (inserted_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_source ON articles (source)`,
		`CREATE INDEX IF NOT EXISTS idx_scraping_logs_started_at ON scraping_logs (started_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// postgresTx implements Transaction interface
type postgresTx struct {
	tx         *sql.Tx
	articles   ArticleRepository
	analyses   BiasAnalysisRepository
	scrapeLogs ScrapeLogRepository
}

func (t *postgresTx) Commit() error                        { return t.tx.Commit() }
func (t *postgresTx) Rollback() error                      { return t.tx.Rollback() }
func (t *postgresTx) Articles() ArticleRepository          { return t.articles }
func (t *postgresTx) BiasAnalyses() BiasAnalysisRepository { return t.analyses }
func (t *postgresTx) ScrapeLogs() ScrapeLogRepository      { return t.scrapeLogs }

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// postgresArticleRepo implements ArticleRepository for PostgreSQL
type postgresArticleRepo struct {
	db *sql.DB
	tx *sql.Tx
}

func (r *postgresArticleRepo) query() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

const articleColumns = `id, source, category, raw_category, title, url, content, published_at, is_funds, inserted_at`

func (r *postgresArticleRepo) InsertBatch(ctx context.Context, articles []core.Article) ([]string, error) {
	// Per-row insert keeps inserted IDs deterministic and lets a duplicate
	// URL race lose quietly instead of failing the whole batch.
	query := `
		INSERT INTO articles (id, source, category, raw_category, title, url, content, published_at, is_funds, inserted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (url) DO NOTHING
		RETURNING id
	`
	var ids []string
	for i := range articles {
		a := &articles[i]
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		var id string
		err := r.query().QueryRowContext(ctx, query,
			a.ID, a.Source, a.Category, nullString(a.RawCategory), a.Title,
			a.URL, nullString(a.Content), nullTime(a.PublishedAt), a.IsFunds,
		).Scan(&id)
		if err == sql.ErrNoRows {
			continue // lost a duplicate race, treated as skip
		}
		if err != nil {
			return ids, fmt.Errorf("failed to insert article %s: %w", a.URL, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *postgresArticleRepo) ExistingURLs(ctx context.Context, urls []string) (map[string]bool, error) {
	existing := make(map[string]bool)
	if len(urls) == 0 {
		return existing, nil
	}
	rows, err := r.query().QueryContext(ctx,
		`SELECT url FROM articles WHERE url = ANY($1)`, pq.Array(urls))
	if err != nil {
		return nil, fmt.Errorf("failed to query existing urls: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, err
		}
		existing[url] = true
	}
	return existing, rows.Err()
}

func (r *postgresArticleRepo) IDsByURL(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	rows, err := r.query().QueryContext(ctx,
		`SELECT id FROM articles WHERE url = ANY($1) ORDER BY inserted_at`, pq.Array(urls))
	if err != nil {
		return nil, fmt.Errorf("failed to query ids by url: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresArticleRepo) Get(ctx context.Context, id string) (*core.Article, error) {
	row := r.query().QueryRowContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = $1`, id)
	return scanArticle(row)
}

func (r *postgresArticleRepo) GetBatch(ctx context.Context, ids []string) ([]core.Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.query().QueryContext(ctx,
		`SELECT `+articleColumns+` FROM articles WHERE id = ANY($1) ORDER BY inserted_at`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *postgresArticleRepo) List(ctx context.Context, opts ListOptions) ([]core.Article, error) {
	where, args := buildArticleFilter(opts.Filter)

	column := "inserted_at"
	if opts.SortBy == "published_at" {
		column = "published_at"
	}
	direction := "DESC"
	if opts.Order == "asc" {
		direction = "ASC"
	}
	order := column + " " + direction
	if column == "published_at" {
		order += " NULLS LAST"
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, opts.Offset)
	query := fmt.Sprintf(`SELECT %s FROM articles %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		articleColumns, where, order, len(args)-1, len(args))

	rows, err := r.query().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()
	return scanArticles(rows)
}

func (r *postgresArticleRepo) Count(ctx context.Context, opts ListOptions) (int, error) {
	where, args := buildArticleFilter(opts.Filter)
	var count int
	err := r.query().QueryRowContext(ctx, `SELECT COUNT(*) FROM articles `+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return count, nil
}

func (r *postgresArticleRepo) IDsSince(ctx context.Context, since time.Time) ([]string, error) {
	rows, err := r.query().QueryContext(ctx,
		`SELECT id FROM articles WHERE inserted_at >= $1 ORDER BY inserted_at`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids since: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *postgresArticleRepo) Page(ctx context.Context, offset, limit int) ([]core.Article, error) {
	rows, err := r.query().QueryContext(ctx,
		`SELECT id, title, COALESCE(content, ''), is_funds FROM articles ORDER BY id LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to page articles: %w", err)
	}
	defer rows.Close()
	var articles []core.Article
	for rows.Next() {
		var a core.Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.IsFunds); err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (r *postgresArticleRepo) SetIsFunds(ctx context.Context, ids []string, isFunds bool) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.query().ExecContext(ctx,
		`UPDATE articles SET is_funds = $1 WHERE id = ANY($2)`, isFunds, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to update is_funds: %w", err)
	}
	return nil
}

// buildArticleFilter maps the supported filter keys onto a WHERE clause.
func buildArticleFilter(filter map[string]string) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if v, ok := filter["source"]; ok && v != "" {
		add("source = $%d", v)
	}
	if v, ok := filter["category"]; ok && v != "" {
		add("category = $%d", v)
	}
	if v, ok := filter["is_funds"]; ok && v != "" {
		add("is_funds = $%d", v == "true")
	}

	if len(clauses) == 0 {
		return "", args
	}
	where := "WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*core.Article, error) {
	var a core.Article
	var category, rawCategory, content sql.NullString
	var publishedAt sql.NullTime
	err := row.Scan(&a.ID, &a.Source, &category, &rawCategory, &a.Title,
		&a.URL, &content, &publishedAt, &a.IsFunds, &a.InsertedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	a.Category = category.String
	a.RawCategory = rawCategory.String
	a.Content = content.String
	if publishedAt.Valid {
		a.PublishedAt = &publishedAt.Time
	}
	return &a, nil
}

func scanArticles(rows *sql.Rows) ([]core.Article, error) {
	var articles []core.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// postgresBiasAnalysisRepo implements BiasAnalysisRepository for PostgreSQL
type postgresBiasAnalysisRepo struct {
	db *sql.DB
	tx *sql.Tx
}

func (r *postgresBiasAnalysisRepo) query() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *postgresBiasAnalysisRepo) Upsert(ctx context.Context, analysis *core.BiasAnalysis) error {
	metadata, err := json.Marshal(analysis.ModelMetadata)
	if err != nil {
		return fmt.Errorf("failed to marshal model metadata: %w", err)
	}
	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}

	query := `
		INSERT INTO bias_analysis (
			id, article_id, model_version, model_type, sentiment_score,
			sentiment_label, political_bias_score, toxicity_score,
			confidence_score, processing_time_ms, model_metadata, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (article_id, model_version, model_type) DO UPDATE SET
			sentiment_score = EXCLUDED.sentiment_score,
			sentiment_label = EXCLUDED.sentiment_label,
			political_bias_score = EXCLUDED.political_bias_score,
			toxicity_score = EXCLUDED.toxicity_score,
			confidence_score = EXCLUDED.confidence_score,
			processing_time_ms = EXCLUDED.processing_time_ms,
			model_metadata = EXCLUDED.model_metadata
	`
	_, err = r.query().ExecContext(ctx, query,
		analysis.ID, analysis.ArticleID, analysis.ModelVersion, analysis.ModelType,
		nullFloat(analysis.SentimentScore), nullString(analysis.SentimentLabel),
		nullFloat(analysis.PoliticalBiasScore), nullFloat(analysis.ToxicityScore),
		nullFloat(analysis.ConfidenceScore), analysis.ProcessingTimeMS, metadata,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert analysis: %w", err)
	}
	return nil
}

func (r *postgresBiasAnalysisRepo) GetByArticle(ctx context.Context, articleID string) ([]core.BiasAnalysis, error) {
	query := `
		SELECT id, article_id, model_version, model_type, sentiment_score,
			   sentiment_label, political_bias_score, toxicity_score,
			   confidence_score, processing_time_ms, model_metadata, created_at
		FROM bias_analysis WHERE article_id = $1 ORDER BY model_type, model_version
	`
	rows, err := r.query().QueryContext(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var analyses []core.BiasAnalysis
	for rows.Next() {
		var b core.BiasAnalysis
		var sentimentScore, biasScore, toxicity, confidence sql.NullFloat64
		var label sql.NullString
		var processingTime sql.NullInt64
		var metadata []byte
		err := rows.Scan(&b.ID, &b.ArticleID, &b.ModelVersion, &b.ModelType,
			&sentimentScore, &label, &biasScore, &toxicity, &confidence,
			&processingTime, &metadata, &b.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		if sentimentScore.Valid {
			b.SentimentScore = &sentimentScore.Float64
		}
		b.SentimentLabel = label.String
		if biasScore.Valid {
			b.PoliticalBiasScore = &biasScore.Float64
		}
		if toxicity.Valid {
			b.ToxicityScore = &toxicity.Float64
		}
		if confidence.Valid {
			b.ConfidenceScore = &confidence.Float64
		}
		b.ProcessingTimeMS = processingTime.Int64
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &b.ModelMetadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal model metadata: %w", err)
			}
		}
		analyses = append(analyses, b)
	}
	return analyses, rows.Err()
}

func (r *postgresBiasAnalysisRepo) DailySentiment(ctx context.Context, since time.Time) ([]DailySentimentRow, error) {
	query := `
		SELECT DATE(a.inserted_at) AS day, a.source,
			   COALESCE(AVG(b.sentiment_score), 0),
			   COUNT(*),
			   COUNT(*) FILTER (WHERE b.sentiment_label = 'positive'),
			   COUNT(*) FILTER (WHERE b.sentiment_label = 'negative')
		FROM bias_analysis b
		JOIN articles a ON a.id = b.article_id
		WHERE b.model_type = 'sentiment' AND a.inserted_at >= $1
		GROUP BY 1, 2
		ORDER BY 1 DESC, 2
	`
	rows, err := r.query().QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily sentiment: %w", err)
	}
	defer rows.Close()

	var result []DailySentimentRow
	for rows.Next() {
		var row DailySentimentRow
		if err := rows.Scan(&row.Date, &row.Source, &row.AvgCompound,
			&row.ArticleCount, &row.PositiveCount, &row.NegativeCount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *postgresBiasAnalysisRepo) SourceBias(ctx context.Context) ([]SourceBiasRow, error) {
	query := `
		SELECT a.source,
			   COALESCE(AVG(b.sentiment_score) FILTER (WHERE b.model_type = 'sentiment'), 0),
			   COALESCE(AVG(b.political_bias_score) FILTER (WHERE b.model_type = 'political_bias'), 0),
			   COALESCE(AVG(b.confidence_score) FILTER (WHERE b.model_type = 'political_bias'), 0),
			   COUNT(DISTINCT b.article_id)
		FROM bias_analysis b
		JOIN articles a ON a.id = b.article_id
		GROUP BY a.source
		ORDER BY a.source
	`
	rows, err := r.query().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query source bias: %w", err)
	}
	defer rows.Close()

	var result []SourceBiasRow
	for rows.Next() {
		var row SourceBiasRow
		if err := rows.Scan(&row.Source, &row.AvgSentiment, &row.AvgBiasScore,
			&row.AvgConfidence, &row.ArticleCount); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// postgresScrapeLogRepo implements ScrapeLogRepository for PostgreSQL
type postgresScrapeLogRepo struct {
	db *sql.DB
	tx *sql.Tx
}

func (r *postgresScrapeLogRepo) query() querier {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *postgresScrapeLogRepo) StartRun(ctx context.Context, source string) (*core.ScrapeLog, error) {
	log := &core.ScrapeLog{
		ID:        uuid.NewString(),
		RunID:     uuid.NewString(),
		Source:    source,
		Status:    core.RunStatusPartial,
		StartedAt: time.Now().UTC(),
	}
	_, err := r.query().ExecContext(ctx,
		`INSERT INTO scraping_logs (id, run_id, source, status, articles_scraped, started_at)
		 VALUES ($1, $2, $3, $4, 0, $5)`,
		log.ID, log.RunID, log.Source, log.Status, log.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	return log, nil
}

func (r *postgresScrapeLogRepo) FinalizeRun(ctx context.Context, id, status string, articlesScraped int, errorMessage string) error {
	if len(errorMessage) > maxErrorMessageLen {
		errorMessage = errorMessage[:maxErrorMessageLen]
	}
	res, err := r.query().ExecContext(ctx, `
		UPDATE scraping_logs
		SET status = $2,
			articles_scraped = $3,
			error_message = NULLIF($4, ''),
			completed_at = NOW(),
			execution_time_ms = (EXTRACT(EPOCH FROM (NOW() - started_at)) * 1000)::BIGINT
		WHERE id = $1 AND status = 'partial'
	`, id, status, articlesScraped, errorMessage)
	if err != nil {
		return fmt.Errorf("failed to finalize run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("run %s is not in partial state", id)
	}
	return nil
}

const scrapeLogColumns = `id, run_id, source, status, articles_scraped, started_at, completed_at, execution_time_ms, error_message`

func (r *postgresScrapeLogRepo) Recent(ctx context.Context, source string, limit int) ([]core.ScrapeLog, error) {
	if limit < 1 {
		limit = 1
	} else if limit > 100 {
		limit = 100
	}
	rows, err := r.query().QueryContext(ctx,
		`SELECT `+scrapeLogColumns+` FROM scraping_logs
		 WHERE ($1 = '' OR source = $1)
		 ORDER BY started_at DESC LIMIT $2`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	var logs []core.ScrapeLog
	for rows.Next() {
		log, err := scanScrapeLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

func (r *postgresScrapeLogRepo) GetByRunID(ctx context.Context, runID string) (*core.ScrapeLog, error) {
	row := r.query().QueryRowContext(ctx,
		`SELECT `+scrapeLogColumns+` FROM scraping_logs WHERE run_id = $1`, runID)
	return scanScrapeLog(row)
}

func scanScrapeLog(row rowScanner) (*core.ScrapeLog, error) {
	var log core.ScrapeLog
	var completedAt sql.NullTime
	var executionTime sql.NullInt64
	var errorMessage sql.NullString
	err := row.Scan(&log.ID, &log.RunID, &log.Source, &log.Status,
		&log.ArticlesScraped, &log.StartedAt, &completedAt, &executionTime, &errorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	if completedAt.Valid {
		log.CompletedAt = &completedAt.Time
	}
	if executionTime.Valid {
		log.ExecutionTimeMS = &executionTime.Int64
	}
	log.ErrorMessage = errorMessage.String
	return &log, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
