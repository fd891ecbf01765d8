package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mellowboard/internal/dto"
	"github.com/noah-isme/mellowboard/internal/models"
	"github.com/noah-isme/mellowboard/internal/service"
	appErrors "github.com/noah-isme/mellowboard/pkg/errors"
	"github.com/noah-isme/mellowboard/pkg/response"
)

type ingestionRunner interface {
	Run(ctx context.Context, trigger models.IngestionTrigger) service.RunResult
	ListRuns(ctx context.Context, query dto.IngestionRunListQuery) ([]models.IngestionRun, error)
}

type ingestionEnqueuer interface {
	Enqueue(trigger models.IngestionTrigger) (string, error)
}

// IngestionHandler exposes the ingestion trigger and run history.
type IngestionHandler struct {
	runner     ingestionRunner
	dispatcher ingestionEnqueuer
}

// NewIngestionHandler constructs handler.
func NewIngestionHandler(runner ingestionRunner, dispatcher ingestionEnqueuer) *IngestionHandler {
	return &IngestionHandler{runner: runner, dispatcher: dispatcher}
}

// Trigger godoc
// @Summary Trigger an ingestion run
// @Description Queues a run, or runs it synchronously with wait=true.
// @Tags Ingestion
// @Produce json
// @Security BearerAuth
// @Param wait query bool false "Run synchronously"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ingestion/run [post]
func (h *IngestionHandler) Trigger(c *gin.Context) {
	var query dto.IngestionTriggerQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "wait must be a boolean"))
		return
	}
	if query.Wait {
		result := h.runner.Run(c.Request.Context(), models.TriggerHTTP)
		if result.Err != nil {
			response.Error(c, result.Err)
			return
		}
		response.JSON(c, http.StatusOK, dto.IngestionResultResponse{RunID: result.RunID, InsertedCount: result.InsertedCount})
		return
	}
	jobID, err := h.dispatcher.Enqueue(models.TriggerHTTP)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, dto.IngestionQueuedResponse{Status: "queued", JobID: jobID})
}

// ListRuns godoc
// @Summary Recent ingestion runs
// @Tags Ingestion
// @Produce json
// @Param limit query int false "Max runs (1-100)"
// @Success 200 {object} response.Envelope
// @Router /ingestion/runs [get]
func (h *IngestionHandler) ListRuns(c *gin.Context) {
	var query dto.IngestionRunListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a number"))
		return
	}
	runs, err := h.runner.ListRuns(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.IngestionRunListResponse{Runs: runs})
}
