package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mellowboard/internal/models"
)

func TestIngestionRunRepositoryLifecycle(t *testing.T) {
	db, mock, cleanup := newReadRepoMock(t)
	defer cleanup()
	repo := NewIngestionRunRepository(db)

	run := &models.IngestionRun{Trigger: models.TriggerHTTP}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ingestion_runs")).
		WithArgs(sqlmock.AnyArg(), "running", "http", 0, nil, sqlmock.AnyArg(), nil, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, repo.Create(context.Background(), run))
	require.NotEmpty(t, run.ID)
	assert.Equal(t, models.IngestionRunning, run.Status)

	finished := time.Now()
	run.Status = models.IngestionSuccess
	run.InsertedCount = 7
	run.FinishedAt = &finished
	run.DurationMs = 1200
	mock.ExpectExec(regexp.QuoteMeta("UPDATE ingestion_runs SET status = $1, inserted_count = $2, error_message = $3, finished_at = $4, duration_ms = $5 WHERE id = $6")).
		WithArgs("success", 7, nil, finished, 1200, run.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Finish(context.Background(), run))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE ingestion_runs")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.Finish(context.Background(), &models.IngestionRun{ID: "gone", Status: models.IngestionFailed})
	require.Error(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ingestion_runs ORDER BY started_at DESC LIMIT $1")).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "trigger_source", "inserted_count", "error_message", "started_at", "finished_at", "duration_ms"}).
			AddRow(run.ID, "success", "http", 7, nil, run.StartedAt, finished, 1200))
	runs, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.TriggerHTTP, runs[0].Trigger)
	require.NoError(t, mock.ExpectationsWereMet())
}
