package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mellowboard/internal/dto"
	"github.com/noah-isme/mellowboard/internal/middleware"
	"github.com/noah-isme/mellowboard/internal/service"
	appErrors "github.com/noah-isme/mellowboard/pkg/errors"
	"github.com/noah-isme/mellowboard/pkg/response"
)

type leaderboardService interface {
	List(ctx context.Context, query dto.LeaderboardQuery) (*dto.LeaderboardResponse, error)
	Detail(ctx context.Context, id string) (*dto.ParticipantDetailResponse, error)
	Export(ctx context.Context, query dto.LeaderboardExportQuery) (*service.ExportFile, error)
}

// LeaderboardHandler exposes leaderboard endpoints.
type LeaderboardHandler struct {
	svc leaderboardService
}

// NewLeaderboardHandler constructs handler.
func NewLeaderboardHandler(svc leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{svc: svc}
}

// List godoc
// @Summary Leaderboard
// @Tags Leaderboard
// @Produce json
// @Param active query bool false "Filter by active flag"
// @Success 200 {object} response.Envelope
// @Router /leaderboard [get]
func (h *LeaderboardHandler) List(c *gin.Context) {
	var query dto.LeaderboardQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
		return
	}
	board, err := h.svc.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, board.CacheHit)
	middleware.SetMeta(c, "count", len(board.Entries))
	response.JSON(c, http.StatusOK, board, middleware.ResponseMeta(c))
}

// Detail godoc
// @Summary Participant detail with activity logs
// @Tags Leaderboard
// @Produce json
// @Param id path string true "Participant ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /leaderboard/{id} [get]
func (h *LeaderboardHandler) Detail(c *gin.Context) {
	detail, err := h.svc.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Export godoc
// @Summary Export the leaderboard
// @Tags Leaderboard
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Param active query bool false "Filter by active flag"
// @Success 200 {file} file
// @Router /leaderboard/export [get]
func (h *LeaderboardHandler) Export(c *gin.Context) {
	var query dto.LeaderboardExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export parameters"))
		return
	}
	file, err := h.svc.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Body)
}
