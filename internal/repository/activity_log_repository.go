package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mellowboard/internal/models"
)

// ActivityLogRepository reads stored activity logs.
type ActivityLogRepository struct {
	db *sqlx.DB
}

// NewActivityLogRepository constructs the repository.
func NewActivityLogRepository(db *sqlx.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// ListByParticipant returns every log of a participant, oldest first.
func (r *ActivityLogRepository) ListByParticipant(ctx context.Context, participantID string) ([]models.ActivityLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM activity_logs WHERE participant_id = $1
ORDER BY activity_date ASC, recorded_at ASC`, activityLogColumns)
	var logs []models.ActivityLog
	if err := r.db.SelectContext(ctx, &logs, query, participantID); err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	return logs, nil
}
