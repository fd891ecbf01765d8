package models

import "time"

// IngestionRunStatus captures the lifecycle of an ingestion run.
type IngestionRunStatus string

const (
	IngestionRunning IngestionRunStatus = "running"
	IngestionSuccess IngestionRunStatus = "success"
	IngestionFailed  IngestionRunStatus = "failed"
)

// IngestionTrigger records what started a run.
type IngestionTrigger string

const (
	TriggerSchedule IngestionTrigger = "schedule"
	TriggerHTTP     IngestionTrigger = "http"
	TriggerCLI      IngestionTrigger = "cli"
)

// Valid returns true when the trigger is supported.
func (t IngestionTrigger) Valid() bool {
	switch t {
	case TriggerSchedule, TriggerHTTP, TriggerCLI:
		return true
	default:
		return false
	}
}

// IngestionRun is the persisted status record of one batch execution.
type IngestionRun struct {
	ID            string             `db:"id" json:"id"`
	Status        IngestionRunStatus `db:"status" json:"status"`
	Trigger       IngestionTrigger   `db:"trigger_source" json:"trigger"`
	InsertedCount int                `db:"inserted_count" json:"inserted_count"`
	ErrorMessage  *string            `db:"error_message" json:"error_message,omitempty"`
	StartedAt     time.Time          `db:"started_at" json:"started_at"`
	FinishedAt    *time.Time         `db:"finished_at" json:"finished_at,omitempty"`
	DurationMs    int64              `db:"duration_ms" json:"duration_ms"`
}
