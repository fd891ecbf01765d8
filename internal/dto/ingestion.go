package dto

import "github.com/noah-isme/mellowboard/internal/models"

// IngestionTriggerQuery captures POST /ingestion/run parameters.
type IngestionTriggerQuery struct {
	Wait bool `form:"wait"`
}

// IngestionRunListQuery captures GET /ingestion/runs parameters.
type IngestionRunListQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=100"`
}

// IngestionQueuedResponse is returned when a run was queued.
type IngestionQueuedResponse struct {
	Status string `json:"status"`
	JobID  string `json:"jobId"`
}

// IngestionResultResponse is returned by a synchronous run.
type IngestionResultResponse struct {
	RunID         string `json:"runId,omitempty"`
	InsertedCount int    `json:"insertedCount"`
}

// IngestionRunListResponse wraps recent runs.
type IngestionRunListResponse struct {
	Runs []models.IngestionRun `json:"runs"`
}
