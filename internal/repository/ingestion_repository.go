package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/mellowboard/internal/models"
)

const (
	dateLayout = "2006-01-02"
	// Eight parameters per row keeps a full chunk well under the protocol limit.
	defaultInsertChunk = 500
)

// IngestionWriter is the set of statements an ingestion run issues inside its transaction.
type IngestionWriter interface {
	EnsureParticipants(ctx context.Context, identities []models.ParticipantIdentity) ([]models.Participant, error)
	UpdateIdentities(ctx context.Context, updates []models.IdentityUpdate) error
	LatestLogDates(ctx context.Context, participantIDs []string) ([]models.LatestLogDate, error)
	EligibleTaskHistory(ctx context.Context, participantIDs []string, window int) ([]models.ActivityLog, error)
	EligibleTaskHistoryBefore(ctx context.Context, participantID string, before time.Time, window int) ([]models.ActivityLog, error)
	InsertLogs(ctx context.Context, logs []models.ActivityLog) ([]models.ActivityLog, error)
	UpdateAggregates(ctx context.Context, aggregates []models.ParticipantAggregate) error
}

// IngestionRepository runs ingestion writes atomically.
type IngestionRepository struct {
	db        *sqlx.DB
	chunkSize int
}

// NewIngestionRepository constructs the repository.
func NewIngestionRepository(db *sqlx.DB) *IngestionRepository {
	return &IngestionRepository{db: db, chunkSize: defaultInsertChunk}
}

// RunInTx executes fn inside one transaction. Any error returned by fn, or by the commit,
// rolls everything back.
func (r *IngestionRepository) RunInTx(ctx context.Context, fn func(IngestionWriter) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ingestion: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	if err := fn(&ingestionTx{tx: tx, chunkSize: r.chunkSize}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ingestion: %w", err)
	}
	commit = true
	return nil
}

type ingestionTx struct {
	tx        *sqlx.Tx
	chunkSize int
}

const participantColumns = "id, name, handle, active, total_points, streak, freeze_card_count, created_at, updated_at"

const activityLogColumns = "id, participant_id, kind, status, points, description, activity_date, recorded_at"

// EnsureParticipants creates missing participants and returns every requested row locked
// for the rest of the transaction.
func (t *ingestionTx) EnsureParticipants(ctx context.Context, identities []models.ParticipantIdentity) ([]models.Participant, error) {
	if len(identities) == 0 {
		return nil, nil
	}
	names := make([]string, len(identities))
	handles := make([]string, len(identities))
	actives := make([]bool, len(identities))
	for i, identity := range identities {
		names[i] = identity.Name
		if identity.Handle != nil {
			handles[i] = *identity.Handle
		}
		actives[i] = identity.Active
	}

	insert := `INSERT INTO participants (name, handle, active)
SELECT u.name, NULLIF(u.handle, ''), u.active
FROM UNNEST($1::text[], $2::text[], $3::bool[]) AS u(name, handle, active)
ON CONFLICT (name) DO NOTHING`
	if _, err := t.tx.ExecContext(ctx, insert, pq.Array(names), pq.Array(handles), pq.Array(actives)); err != nil {
		return nil, fmt.Errorf("insert participants: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM participants WHERE name = ANY($1) ORDER BY name FOR UPDATE`, participantColumns)
	var participants []models.Participant
	if err := t.tx.SelectContext(ctx, &participants, query, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("select participants: %w", err)
	}
	return participants, nil
}

// UpdateIdentities applies handle and active changes in one statement.
func (t *ingestionTx) UpdateIdentities(ctx context.Context, updates []models.IdentityUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	ids := make([]string, len(updates))
	handles := make([]string, len(updates))
	actives := make([]bool, len(updates))
	for i, update := range updates {
		ids[i] = update.ParticipantID
		if update.Handle != nil {
			handles[i] = *update.Handle
		}
		actives[i] = update.Active
	}
	query := `UPDATE participants AS p
SET handle = NULLIF(u.handle, ''), active = u.active, updated_at = NOW()
FROM UNNEST($1::uuid[], $2::text[], $3::bool[]) AS u(id, handle, active)
WHERE p.id = u.id`
	if _, err := t.tx.ExecContext(ctx, query, pq.Array(ids), pq.Array(handles), pq.Array(actives)); err != nil {
		return fmt.Errorf("update participant identities: %w", err)
	}
	return nil
}

// LatestLogDates returns the newest activity date per participant and kind.
func (t *ingestionTx) LatestLogDates(ctx context.Context, participantIDs []string) ([]models.LatestLogDate, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}
	query := `SELECT participant_id, kind, MAX(activity_date) AS activity_date
FROM activity_logs
WHERE participant_id = ANY($1::uuid[])
GROUP BY participant_id, kind`
	var rows []models.LatestLogDate
	if err := t.tx.SelectContext(ctx, &rows, query, pq.Array(participantIDs)); err != nil {
		return nil, fmt.Errorf("latest log dates: %w", err)
	}
	return rows, nil
}

// EligibleTaskHistory returns up to window of the newest streak-preserving task logs for
// each participant.
func (t *ingestionTx) EligibleTaskHistory(ctx context.Context, participantIDs []string, window int) ([]models.ActivityLog, error) {
	if len(participantIDs) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM (
    SELECT %s, ROW_NUMBER() OVER (PARTITION BY participant_id ORDER BY activity_date DESC, recorded_at DESC) AS rn
    FROM activity_logs
    WHERE participant_id = ANY($1::uuid[]) AND kind = 'task' AND status::text = ANY($2)
) ranked
WHERE rn <= $3
ORDER BY participant_id, activity_date DESC, recorded_at DESC`, activityLogColumns, activityLogColumns)
	var logs []models.ActivityLog
	if err := t.tx.SelectContext(ctx, &logs, query, pq.Array(participantIDs), pq.Array(streakStatusNames()), window); err != nil {
		return nil, fmt.Errorf("eligible task history: %w", err)
	}
	return logs, nil
}

// EligibleTaskHistoryBefore returns up to window streak-preserving task logs of one
// participant dated strictly before before, newest first.
func (t *ingestionTx) EligibleTaskHistoryBefore(ctx context.Context, participantID string, before time.Time, window int) ([]models.ActivityLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM activity_logs
WHERE participant_id = $1 AND kind = 'task' AND status::text = ANY($2) AND activity_date < $3::date
ORDER BY activity_date DESC, recorded_at DESC
LIMIT $4`, activityLogColumns)
	var logs []models.ActivityLog
	if err := t.tx.SelectContext(ctx, &logs, query, participantID, pq.Array(streakStatusNames()), before.Format(dateLayout), window); err != nil {
		return nil, fmt.Errorf("eligible task history before %s: %w", before.Format(dateLayout), err)
	}
	return logs, nil
}

func streakStatusNames() []string {
	statuses := make([]string, 0, len(models.StreakStatuses()))
	for _, status := range models.StreakStatuses() {
		statuses = append(statuses, string(status))
	}
	return statuses
}

// InsertLogs inserts logs in chunks, skipping rows whose natural key already exists. It
// returns only the logs that were written.
func (t *ingestionTx) InsertLogs(ctx context.Context, logs []models.ActivityLog) ([]models.ActivityLog, error) {
	if len(logs) == 0 {
		return nil, nil
	}
	for _, log := range logs {
		if !log.Kind.Valid() || !log.Status.Valid() {
			return nil, fmt.Errorf("insert activity logs: invalid kind %q or status %q for participant %s", log.Kind, log.Status, log.ParticipantID)
		}
	}
	now := time.Now().UTC()
	for i := range logs {
		if logs[i].ID == "" {
			logs[i].ID = uuid.NewString()
		}
		if logs[i].RecordedAt.IsZero() {
			logs[i].RecordedAt = now
		}
	}

	size := t.chunkSize
	if size <= 0 {
		size = defaultInsertChunk
	}
	inserted := make([]models.ActivityLog, 0, len(logs))
	for start := 0; start < len(logs); start += size {
		end := start + size
		if end > len(logs) {
			end = len(logs)
		}
		written, err := t.insertChunk(ctx, logs[start:end])
		if err != nil {
			return nil, err
		}
		inserted = append(inserted, written...)
	}
	return inserted, nil
}

func (t *ingestionTx) insertChunk(ctx context.Context, chunk []models.ActivityLog) ([]models.ActivityLog, error) {
	const columns = 8
	rows := make([]string, 0, len(chunk))
	args := make([]interface{}, 0, len(chunk)*columns)
	for i, log := range chunk {
		base := i * columns
		rows = append(rows, fmt.Sprintf("($%d, $%d, $%d::log_kind, $%d::log_status, $%d, $%d, $%d::date, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8))
		args = append(args, log.ID, log.ParticipantID, string(log.Kind), string(log.Status), log.Points,
			log.Description, log.ActivityDate.Format(dateLayout), log.RecordedAt)
	}
	query := fmt.Sprintf(`INSERT INTO activity_logs (%s)
VALUES %s
ON CONFLICT (participant_id, activity_date, kind) DO NOTHING
RETURNING id`, activityLogColumns, strings.Join(rows, ", "))

	var ids []string
	if err := t.tx.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("insert activity logs: %w", err)
	}
	written := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		written[id] = struct{}{}
	}
	out := make([]models.ActivityLog, 0, len(ids))
	for _, log := range chunk {
		if _, ok := written[log.ID]; ok {
			out = append(out, log)
		}
	}
	return out, nil
}

// UpdateAggregates writes recomputed aggregates for all affected participants at once.
func (t *ingestionTx) UpdateAggregates(ctx context.Context, aggregates []models.ParticipantAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}
	ids := make([]string, len(aggregates))
	totals := make([]int64, len(aggregates))
	streaks := make([]int64, len(aggregates))
	cards := make([]int64, len(aggregates))
	for i, agg := range aggregates {
		ids[i] = agg.ParticipantID
		totals[i] = int64(agg.TotalPoints)
		streaks[i] = int64(agg.Streak)
		cards[i] = int64(agg.FreezeCardCount)
	}
	query := `UPDATE participants AS p
SET total_points = u.total_points, streak = u.streak, freeze_card_count = u.freeze_card_count, updated_at = NOW()
FROM UNNEST($1::uuid[], $2::int[], $3::int[], $4::int[]) AS u(id, total_points, streak, freeze_card_count)
WHERE p.id = u.id`
	res, err := t.tx.ExecContext(ctx, query, pq.Array(ids), pq.Array(totals), pq.Array(streaks), pq.Array(cards))
	if err != nil {
		return fmt.Errorf("update participant aggregates: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected != int64(len(aggregates)) {
		return fmt.Errorf("update participant aggregates: %d of %d rows updated", affected, len(aggregates))
	}
	return nil
}
