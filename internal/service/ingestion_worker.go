package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mellowboard/internal/models"
	appErrors "github.com/noah-isme/mellowboard/pkg/errors"
	"github.com/noah-isme/mellowboard/pkg/jobs"
)

// IngestionJobType identifies ingestion jobs on the queue.
const IngestionJobType = "ingestion.run"

type ingestionRunner interface {
	Run(ctx context.Context, trigger models.IngestionTrigger) RunResult
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) (string, error)
}

// IngestionWorker bridges queue jobs to the ingestion service.
type IngestionWorker struct {
	runner ingestionRunner
	logger *zap.Logger
}

// NewIngestionWorker constructs a worker.
func NewIngestionWorker(runner ingestionRunner, logger *zap.Logger) *IngestionWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionWorker{runner: runner, logger: logger}
}

// Handle processes a queue job. A job that finds another run in flight is dropped
// rather than retried.
func (w *IngestionWorker) Handle(ctx context.Context, job jobs.Job) error {
	trigger, ok := job.Payload.(models.IngestionTrigger)
	if !ok || !trigger.Valid() {
		trigger = models.TriggerSchedule
	}
	result := w.runner.Run(ctx, trigger)
	if IsBusy(result.Err) {
		w.logger.Sugar().Infow("ingestion already running, dropping job", "job_id", job.ID, "trigger", trigger)
		return nil
	}
	if result.Err != nil {
		return result.Err
	}
	w.logger.Sugar().Infow("ingestion job finished", "job_id", job.ID, "run_id", result.RunID, "inserted", result.InsertedCount)
	return nil
}

// IngestionDispatcher enqueues ingestion runs.
type IngestionDispatcher struct {
	queue  jobEnqueuer
	logger *zap.Logger
}

// NewIngestionDispatcher constructs a dispatcher over queue.
func NewIngestionDispatcher(queue jobEnqueuer, logger *zap.Logger) *IngestionDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionDispatcher{queue: queue, logger: logger}
}

// Enqueue schedules a run and returns the job id.
func (d *IngestionDispatcher) Enqueue(trigger models.IngestionTrigger) (string, error) {
	id, err := d.queue.Enqueue(jobs.Job{Type: IngestionJobType, Payload: trigger})
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			return "", appErrors.WrapAs(err, appErrors.ErrQueueFull)
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue ingestion run")
	}
	d.logger.Sugar().Debugw("ingestion run queued", "job_id", id, "trigger", trigger)
	return id, nil
}

type runEnqueuer interface {
	Enqueue(trigger models.IngestionTrigger) (string, error)
}

// IngestionScheduler enqueues a run on a fixed interval.
type IngestionScheduler struct {
	dispatcher runEnqueuer
	interval   time.Duration
	logger     *zap.Logger
}

// NewIngestionScheduler constructs a scheduler. A non-positive interval disables it.
func NewIngestionScheduler(dispatcher runEnqueuer, interval time.Duration, logger *zap.Logger) *IngestionScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestionScheduler{dispatcher: dispatcher, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, enqueueing a run on every tick.
func (s *IngestionScheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("ingestion scheduler disabled")
		<-ctx.Done()
		return nil
	}
	s.logger.Info("ingestion scheduler started", zap.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.dispatcher.Enqueue(models.TriggerSchedule); err != nil {
				s.logger.Warn("failed to enqueue scheduled ingestion", zap.Error(err))
			}
		}
	}
}
