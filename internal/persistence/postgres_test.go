package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pheye/internal/core"
)

func newMockDB(t *testing.T) (*PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresDBFromConn(db), mock
}

func TestInsertBatchReturnsIDsAndSkipsConflicts(t *testing.T) {
	pg, mock := newMockDB(t)

	mock.ExpectQuery("INSERT INTO articles").
		WithArgs("a1", "rappler", "Nation", nil, "DPWH audit flagged", "https://www.rappler.com/nation/audit", "Body.", nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("a1"))
	// Second row loses the URL race: ON CONFLICT DO NOTHING returns no row.
	mock.ExpectQuery("INSERT INTO articles").
		WillReturnError(sql.ErrNoRows)

	ids, err := pg.Articles().InsertBatch(context.Background(), []core.Article{
		{ID: "a1", Source: "rappler", Category: "Nation", Title: "DPWH audit flagged",
			URL: "https://www.rappler.com/nation/audit", Content: "Body.", IsFunds: true},
		{ID: "a2", Source: "rappler", Category: "Nation", Title: "Duplicate",
			URL: "https://www.rappler.com/nation/audit"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistingURLs(t *testing.T) {
	pg, mock := newMockDB(t)

	mock.ExpectQuery("SELECT url FROM articles").
		WillReturnRows(sqlmock.NewRows([]string{"url"}).AddRow("https://a.example/1"))

	existing, err := pg.Articles().ExistingURLs(context.Background(),
		[]string{"https://a.example/1", "https://a.example/2"})
	require.NoError(t, err)
	assert.True(t, existing["https://a.example/1"])
	assert.False(t, existing["https://a.example/2"])
}

func TestExistingURLsEmptyInput(t *testing.T) {
	pg, mock := newMockDB(t)

	existing, err := pg.Articles().ExistingURLs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissingArticleReturnsNil(t *testing.T) {
	pg, mock := newMockDB(t)

	mock.ExpectQuery("SELECT .+ FROM articles WHERE id").
		WillReturnError(sql.ErrNoRows)

	article, err := pg.Articles().Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, article)
}

func TestListAppliesFilters(t *testing.T) {
	pg, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM articles WHERE source = .+ AND is_funds = .+ ORDER BY inserted_at DESC").
		WithArgs("rappler", true, 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "source", "category", "raw_category", "title", "url",
			"content", "published_at", "is_funds", "inserted_at",
		}).AddRow("a1", "rappler", "Nation", "NATION", "Title here", "https://u", "Body", now, true, now))

	articles, err := pg.Articles().List(context.Background(), ListOptions{
		Filter: map[string]string{"source": "rappler", "is_funds": "true"},
	})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Nation", articles[0].Category)
	assert.True(t, articles[0].IsFunds)
	require.NotNil(t, articles[0].PublishedAt)
}

func TestUpsertAnalysisAssignsID(t *testing.T) {
	pg, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO bias_analysis").
		WillReturnResult(sqlmock.NewResult(0, 1))

	score := 0.42
	row := &core.BiasAnalysis{
		ArticleID:      "a1",
		ModelVersion:   "sentiment_v1",
		ModelType:      core.ModelTypeSentiment,
		SentimentScore: &score,
		SentimentLabel: "positive",
		ModelMetadata:  map[string]any{"library": "vader_v1"},
	}
	require.NoError(t, pg.BiasAnalyses().Upsert(context.Background(), row))
	assert.NotEmpty(t, row.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStartRunInsertsPartial(t *testing.T) {
	pg, mock := newMockDB(t)

	mock.ExpectExec("INSERT INTO scraping_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	run, err := pg.ScrapeLogs().StartRun(context.Background(), "philstar")
	require.NoError(t, err)
	assert.Equal(t, core.RunStatusPartial, run.Status)
	assert.Equal(t, "philstar", run.Source)
	assert.NotEmpty(t, run.RunID)
	assert.NotEqual(t, run.ID, run.RunID)
}

func TestFinalizeRunRequiresPartialState(t *testing.T) {
	pg, mock := newMockDB(t)

	mock.ExpectExec("UPDATE scraping_logs").
		WithArgs("log-1", core.RunStatusSuccess, 3, "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// A second finalize matches zero rows and must fail.
	mock.ExpectExec("UPDATE scraping_logs").
		WithArgs("log-1", core.RunStatusError, 0, "boom").
		WillReturnResult(sqlmock.NewResult(0, 0))

	logs := pg.ScrapeLogs()
	require.NoError(t, logs.FinalizeRun(context.Background(), "log-1", core.RunStatusSuccess, 3, ""))

	err := logs.FinalizeRun(context.Background(), "log-1", core.RunStatusError, 0, "boom")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in partial state")
}

func TestFinalizeRunTruncatesErrorMessage(t *testing.T) {
	pg, mock := newMockDB(t)

	long := make([]byte, maxErrorMessageLen+100)
	for i := range long {
		long[i] = 'x'
	}

	mock.ExpectExec("UPDATE scraping_logs").
		WithArgs("log-1", core.RunStatusError, 0, string(long[:maxErrorMessageLen])).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, pg.ScrapeLogs().FinalizeRun(context.Background(), "log-1", core.RunStatusError, 0, string(long)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentClampsLimit(t *testing.T) {
	pg, mock := newMockDB(t)

	columns := []string{"id", "run_id", "source", "status", "articles_scraped",
		"started_at", "completed_at", "execution_time_ms", "error_message"}

	mock.ExpectQuery("SELECT .+ FROM scraping_logs").
		WithArgs("", 100).
		WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectQuery("SELECT .+ FROM scraping_logs").
		WithArgs("rappler", 1).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := pg.ScrapeLogs().Recent(context.Background(), "", 500)
	require.NoError(t, err)
	_, err = pg.ScrapeLogs().Recent(context.Background(), "rappler", 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByRunIDMissing(t *testing.T) {
	pg, mock := newMockDB(t)

	mock.ExpectQuery("SELECT .+ FROM scraping_logs WHERE run_id").
		WillReturnError(sql.ErrNoRows)

	run, err := pg.ScrapeLogs().GetByRunID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, run)
}
