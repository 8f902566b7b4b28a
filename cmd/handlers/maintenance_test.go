package handlers

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pheye/internal/funds"
	"pheye/internal/persistence"
)

func newRecomputeDB(t *testing.T) (*persistence.PostgresDB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return persistence.NewPostgresDBFromConn(db), mock
}

func pageRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "content", "is_funds"}).
		AddRow("a1", "DPWH budget audit flags overpriced project",
			"The COA audit found the P2 billion allocation overpriced.", false).
		AddRow("a2", "Festival draws record crowds",
			"The annual festival drew visitors from across the region.", true)
}

func TestRecomputePageFlipsInOneTransaction(t *testing.T) {
	pg, mock := newRecomputeDB(t)

	mock.ExpectQuery("SELECT id, title").WillReturnRows(pageRows())
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE articles SET is_funds").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE articles SET is_funds").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	stats, err := recomputePage(context.Background(), pg, funds.NewClassifier(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Checked)
	assert.Equal(t, 1, stats.FlippedTrue)
	assert.Equal(t, 1, stats.FlippedFalse)
	assert.False(t, stats.MoreAvailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputePageRollsBackOnUpdateFailure(t *testing.T) {
	pg, mock := newRecomputeDB(t)

	mock.ExpectQuery("SELECT id, title").WillReturnRows(pageRows())
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE articles SET is_funds").
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	_, err := recomputePage(context.Background(), pg, funds.NewClassifier(), 0, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updating is_funds")
	assert.NoError(t, mock.ExpectationsWereMet())
}
