package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/mellowboard/internal/dto"
	"github.com/noah-isme/mellowboard/internal/models"
	appErrors "github.com/noah-isme/mellowboard/pkg/errors"
)

type participantReader interface {
	List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, error)
	FindByID(ctx context.Context, id string) (*models.Participant, error)
}

type activityLogReader interface {
	ListByParticipant(ctx context.Context, participantID string) ([]models.ActivityLog, error)
}

// LeaderboardService serves ranked participant views, backed by the cache when enabled.
type LeaderboardService struct {
	participants participantReader
	logs         activityLogReader
	cache        *CacheService
	exporter     *ExportService
	ttl          time.Duration
	validate     *validator.Validate
	logger       *zap.Logger
	now          func() time.Time
}

// NewLeaderboardService constructs the leaderboard service.
func NewLeaderboardService(participants participantReader, logs activityLogReader, cache *CacheService, exporter *ExportService, ttl time.Duration, logger *zap.Logger) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = NewExportService(logger, nil, nil)
	}
	return &LeaderboardService{
		participants: participants,
		logs:         logs,
		cache:        cache,
		exporter:     exporter,
		ttl:          ttl,
		validate:     validator.New(),
		logger:       logger,
		now:          time.Now,
	}
}

func leaderboardCacheKey(active *bool) string {
	switch {
	case active == nil:
		return "leaderboard:all"
	case *active:
		return "leaderboard:active"
	default:
		return "leaderboard:inactive"
	}
}

// List returns participants ranked by total points, then streak, then name.
func (s *LeaderboardService) List(ctx context.Context, query dto.LeaderboardQuery) (*dto.LeaderboardResponse, error) {
	key := leaderboardCacheKey(query.Active)
	var cached dto.LeaderboardResponse
	if s.cache.Get(ctx, key, &cached) {
		cached.CacheHit = true
		return &cached, nil
	}

	participants, err := s.participants.List(ctx, models.ParticipantFilter{Active: query.Active})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}
	resp := &dto.LeaderboardResponse{
		Entries:     rankParticipants(participants),
		GeneratedAt: s.now().UTC(),
	}
	s.cache.Set(ctx, key, resp, s.ttl)
	return resp, nil
}

// Detail returns one participant with its overall rank and full log history.
func (s *LeaderboardService) Detail(ctx context.Context, id string) (*dto.ParticipantDetailResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
	}
	participant, err := s.participants.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "participant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participant")
	}

	board, err := s.List(ctx, dto.LeaderboardQuery{})
	if err != nil {
		return nil, err
	}
	entry := toLeaderboardEntry(*participant, 0)
	for _, e := range board.Entries {
		if e.ID == participant.ID {
			entry.Rank = e.Rank
			break
		}
	}

	logs, err := s.logs.ListByParticipant(ctx, participant.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity logs")
	}
	if logs == nil {
		logs = []models.ActivityLog{}
	}
	return &dto.ParticipantDetailResponse{LeaderboardEntry: entry, Logs: logs}, nil
}

// Export renders the leaderboard as a downloadable file.
func (s *LeaderboardService) Export(ctx context.Context, query dto.LeaderboardExportQuery) (*ExportFile, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	format := query.Format
	if format == "" {
		format = models.ExportFormatCSV
	}
	board, err := s.List(ctx, dto.LeaderboardQuery{Active: query.Active})
	if err != nil {
		return nil, err
	}
	file, err := s.exporter.Leaderboard(board.Entries, format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render leaderboard export")
	}
	return file, nil
}

func rankParticipants(participants []models.Participant) []dto.LeaderboardEntry {
	entries := make([]dto.LeaderboardEntry, 0, len(participants))
	for i, p := range participants {
		entries = append(entries, toLeaderboardEntry(p, i+1))
	}
	return entries
}

func toLeaderboardEntry(p models.Participant, rank int) dto.LeaderboardEntry {
	return dto.LeaderboardEntry{
		Rank:            rank,
		ID:              p.ID,
		Name:            p.Name,
		Handle:          p.Handle,
		Active:          p.Active,
		TotalPoints:     p.TotalPoints,
		Streak:          p.Streak,
		FreezeCardCount: p.FreezeCardCount,
	}
}
