package models

import "time"

// MetricsSnapshot is a compact JSON view of the process counters.
type MetricsSnapshot struct {
	RequestsTotal            uint64     `json:"requests_total"`
	AverageRequestDurationMs float64    `json:"average_request_duration_ms"`
	CacheHits                uint64     `json:"cache_hits"`
	CacheMisses              uint64     `json:"cache_misses"`
	CacheHitRatio            float64    `json:"cache_hit_ratio"`
	IngestionRuns            uint64     `json:"ingestion_runs"`
	IngestionFailures        uint64     `json:"ingestion_failures"`
	LogsInserted             uint64     `json:"logs_inserted"`
	LastSuccessfulRunAt      *time.Time `json:"last_successful_run_at,omitempty"`
	Goroutines               int        `json:"goroutines"`
	GeneratedAt              time.Time  `json:"generated_at"`
}
