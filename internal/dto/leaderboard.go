package dto

import (
	"time"

	"github.com/noah-isme/mellowboard/internal/models"
)

// LeaderboardQuery captures GET /leaderboard filters.
type LeaderboardQuery struct {
	Active *bool `form:"active"`
}

// LeaderboardExportQuery captures GET /leaderboard/export parameters.
type LeaderboardExportQuery struct {
	Format models.ExportFormat `form:"format" validate:"omitempty,oneof=csv pdf"`
	Active *bool               `form:"active"`
}

// LeaderboardEntry is one ranked participant.
type LeaderboardEntry struct {
	Rank            int     `json:"rank"`
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Handle          *string `json:"handle,omitempty"`
	Active          bool    `json:"active"`
	TotalPoints     int     `json:"totalPoints"`
	Streak          int     `json:"streak"`
	FreezeCardCount int     `json:"freezeCardCount"`
}

// LeaderboardResponse is the ranked participant list.
type LeaderboardResponse struct {
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generatedAt"`
	// CacheHit is set when the response was served from the cache.
	CacheHit bool `json:"-"`
}

// ParticipantDetailResponse is a participant summary with its full log history.
type ParticipantDetailResponse struct {
	LeaderboardEntry
	Logs []models.ActivityLog `json:"logs"`
}
