package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mellowboard/internal/models"
)

// IngestionRunRepository persists ingestion run records.
type IngestionRunRepository struct {
	db *sqlx.DB
}

// NewIngestionRunRepository constructs the repository.
func NewIngestionRunRepository(db *sqlx.DB) *IngestionRunRepository {
	return &IngestionRunRepository{db: db}
}

// Create inserts a run record, filling id and start time when empty.
func (r *IngestionRunRepository) Create(ctx context.Context, run *models.IngestionRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = models.IngestionRunning
	}
	query := `INSERT INTO ingestion_runs (id, status, trigger_source, inserted_count, error_message, started_at, finished_at, duration_ms)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(ctx, query, run.ID, run.Status, run.Trigger, run.InsertedCount, run.ErrorMessage, run.StartedAt, run.FinishedAt, run.DurationMs); err != nil {
		return fmt.Errorf("create ingestion run: %w", err)
	}
	return nil
}

// Finish records the outcome of a run.
func (r *IngestionRunRepository) Finish(ctx context.Context, run *models.IngestionRun) error {
	query := `UPDATE ingestion_runs SET status = $1, inserted_count = $2, error_message = $3, finished_at = $4, duration_ms = $5 WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, run.Status, run.InsertedCount, run.ErrorMessage, run.FinishedAt, run.DurationMs, run.ID)
	if err != nil {
		return fmt.Errorf("finish ingestion run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish ingestion run: run %s not found", run.ID)
	}
	return nil
}

// ListRecent returns the newest runs first.
func (r *IngestionRunRepository) ListRecent(ctx context.Context, limit int) ([]models.IngestionRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, status, trigger_source, inserted_count, error_message, started_at, finished_at, duration_ms
FROM ingestion_runs ORDER BY started_at DESC LIMIT $1`
	var runs []models.IngestionRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list ingestion runs: %w", err)
	}
	return runs, nil
}
