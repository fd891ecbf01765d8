package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/mellowboard/internal/dto"
	"github.com/noah-isme/mellowboard/internal/grid"
	"github.com/noah-isme/mellowboard/internal/models"
	"github.com/noah-isme/mellowboard/internal/repository"
	"github.com/noah-isme/mellowboard/internal/scoring"
	appErrors "github.com/noah-isme/mellowboard/pkg/errors"
)

const (
	leaderboardCachePattern = "leaderboard:*"
	defaultStreakWindow     = 40
	defaultRunListLimit     = 20
	maxRunListLimit         = 100
	runRecordTimeout        = 10 * time.Second
)

type sheetSource interface {
	Fetch(ctx context.Context) (models.Sheets, error)
}

type ingestionStore interface {
	RunInTx(ctx context.Context, fn func(repository.IngestionWriter) error) error
}

type ingestionRunStore interface {
	Create(ctx context.Context, run *models.IngestionRun) error
	Finish(ctx context.Context, run *models.IngestionRun) error
	ListRecent(ctx context.Context, limit int) ([]models.IngestionRun, error)
}

// IngestionOptions configures grid interpretation and run behaviour.
type IngestionOptions struct {
	Location       *time.Location
	DateLayouts    []string
	TaskLayout     grid.Layout
	MeetingLayout  grid.Layout
	IdentityLayout grid.IdentityLayout
	// StreakWindow is the page size for eligible task history. Longer streaks load
	// further pages.
	StreakWindow int
	// RunTimeout bounds a whole run including the spreadsheet fetch. Zero disables it.
	RunTimeout time.Duration
	Now        func() time.Time
}

// RunResult is what a run reports to whoever triggered it.
type RunResult struct {
	RunID         string
	InsertedCount int
	Err           error
}

// IngestionService turns spreadsheet grids into activity logs and participant aggregates.
// At most one run is in flight per service; overlapping calls fail with ErrIngestionBusy.
type IngestionService struct {
	source   sheetSource
	store    ingestionStore
	runs     ingestionRunStore
	cache    *CacheService
	metrics  *MetricsService
	logger   *zap.Logger
	opts     IngestionOptions
	streaks  scoring.StreakEngine
	validate *validator.Validate

	mu sync.Mutex
}

// NewIngestionService wires the ingestion orchestrator.
func NewIngestionService(source sheetSource, store ingestionStore, runs ingestionRunStore, cache *CacheService, metrics *MetricsService, logger *zap.Logger, opts IngestionOptions) *IngestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if len(opts.DateLayouts) == 0 {
		opts.DateLayouts = grid.DefaultDateLayouts
	}
	if opts.StreakWindow <= 0 {
		opts.StreakWindow = defaultStreakWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &IngestionService{
		source:   source,
		store:    store,
		runs:     runs,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
		opts:     opts,
		streaks:  scoring.NewStreakEngine(opts.Location),
		validate: validator.New(),
	}
}

// Run executes one tracked ingestion: it records the run, fetches the sheets, ingests them
// and reports the outcome.
func (s *IngestionService) Run(ctx context.Context, trigger models.IngestionTrigger) RunResult {
	if !s.mu.TryLock() {
		return RunResult{Err: appErrors.ErrIngestionBusy}
	}
	defer s.mu.Unlock()

	started := s.opts.Now()
	run := &models.IngestionRun{Trigger: trigger, StartedAt: started.UTC()}
	recordCtx := context.WithoutCancel(ctx)
	if err := s.createRun(recordCtx, run); err != nil {
		s.logger.Warn("failed to record ingestion run start", zap.String("trigger", string(trigger)), zap.Error(err))
	}

	runCtx := ctx
	if s.opts.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
		defer cancel()
	}

	inserted, err := s.fetchAndIngest(runCtx)

	finished := s.opts.Now()
	duration := finished.Sub(started)
	run.InsertedCount = inserted
	run.DurationMs = duration.Milliseconds()
	finishedAt := finished.UTC()
	run.FinishedAt = &finishedAt
	run.Status = models.IngestionSuccess
	if err != nil {
		run.Status = models.IngestionFailed
		msg := err.Error()
		run.ErrorMessage = &msg
	}
	if recErr := s.finishRun(recordCtx, run); recErr != nil {
		s.logger.Warn("failed to record ingestion run result", zap.String("run_id", run.ID), zap.Error(recErr))
	}
	s.metrics.ObserveIngestionRun(trigger, run.Status, duration, finished)

	if err != nil {
		s.logger.Error("ingestion run failed",
			zap.String("run_id", run.ID),
			zap.String("trigger", string(trigger)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return RunResult{RunID: run.ID, Err: err}
	}

	s.logger.Info("ingestion run finished",
		zap.String("run_id", run.ID),
		zap.String("trigger", string(trigger)),
		zap.Int("inserted", inserted),
		zap.Duration("duration", duration),
	)
	if inserted > 0 {
		_ = s.cache.Invalidate(recordCtx, leaderboardCachePattern)
	}
	return RunResult{RunID: run.ID, InsertedCount: inserted}
}

// Ingest applies already fetched sheets without creating a run record.
func (s *IngestionService) Ingest(ctx context.Context, sheets models.Sheets) (int, error) {
	if !s.mu.TryLock() {
		return 0, appErrors.ErrIngestionBusy
	}
	defer s.mu.Unlock()
	inserted, err := s.ingest(ctx, sheets)
	if err != nil {
		return 0, appErrors.WrapAs(err, appErrors.ErrIngestionFailed)
	}
	if inserted > 0 {
		_ = s.cache.Invalidate(context.WithoutCancel(ctx), leaderboardCachePattern)
	}
	return inserted, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *IngestionService) ListRuns(ctx context.Context, query dto.IngestionRunListQuery) ([]models.IngestionRun, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("limit must be between 1 and %d", maxRunListLimit))
	}
	limit := query.Limit
	if limit == 0 {
		limit = defaultRunListLimit
	}
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list ingestion runs")
	}
	return runs, nil
}

func (s *IngestionService) createRun(ctx context.Context, run *models.IngestionRun) error {
	if s.runs == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, runRecordTimeout)
	defer cancel()
	return s.runs.Create(ctx, run)
}

func (s *IngestionService) finishRun(ctx context.Context, run *models.IngestionRun) error {
	if s.runs == nil || run.ID == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, runRecordTimeout)
	defer cancel()
	return s.runs.Finish(ctx, run)
}

func (s *IngestionService) fetchAndIngest(ctx context.Context) (int, error) {
	sheets, err := s.source.Fetch(ctx)
	if err != nil {
		return 0, appErrors.WrapAs(err, appErrors.ErrSourceUnavailable)
	}
	inserted, err := s.ingest(ctx, sheets)
	if err != nil {
		return 0, appErrors.WrapAs(err, appErrors.ErrIngestionFailed)
	}
	return inserted, nil
}

type gridSource struct {
	kind   models.LogKind
	grid   models.Grid
	layout grid.Layout
	names  []string
	index  grid.NameIndex
	dates  []grid.DateEntry
}

type floorKey struct {
	participantID string
	kind          models.LogKind
}

type skipKey struct {
	kind   models.LogKind
	reason string
}

type ingestTally struct {
	inserted map[models.LogKind]int
	skipped  map[skipKey]int
}

func newIngestTally() *ingestTally {
	return &ingestTally{inserted: make(map[models.LogKind]int), skipped: make(map[skipKey]int)}
}

func (t *ingestTally) skip(kind models.LogKind, reason string, n int) {
	if n > 0 {
		t.skipped[skipKey{kind: kind, reason: reason}] += n
	}
}

func (s *IngestionService) ingest(ctx context.Context, sheets models.Sheets) (int, error) {
	now := s.opts.Now().In(s.opts.Location)
	parser := grid.DateParser{Layouts: s.opts.DateLayouts, Location: s.opts.Location}
	sources := []gridSource{
		s.indexSource(models.LogKindTask, sheets.Tasks, s.opts.TaskLayout, parser, now),
		s.indexSource(models.LogKindMeeting, sheets.Meetings, s.opts.MeetingLayout, parser, now),
	}
	roster := grid.IndexIdentities(sheets.Identities, s.opts.IdentityLayout)

	tally := newIngestTally()
	for _, src := range sources {
		for _, name := range src.names {
			if _, ok := roster[name]; !ok {
				s.logger.Debug("skipping participant missing from identity sheet", zap.String("name", name), zap.String("kind", string(src.kind)))
				tally.skip(src.kind, SkipUnknownParticipant, len(src.dates))
			}
		}
	}
	if len(roster) == 0 {
		s.logger.Warn("identity sheet is empty, nothing to ingest")
		s.recordTally(tally)
		return 0, nil
	}

	identities := make([]models.ParticipantIdentity, 0, len(roster))
	for _, identity := range roster {
		identities = append(identities, identity)
	}
	sort.Slice(identities, func(i, j int) bool { return identities[i].Name < identities[j].Name })

	var inserted int
	err := s.store.RunInTx(ctx, func(w repository.IngestionWriter) error {
		n, err := s.apply(ctx, w, identities, roster, sources, now, tally)
		inserted = n
		return err
	})
	if err != nil {
		return 0, err
	}
	s.recordTally(tally)
	return inserted, nil
}

func (s *IngestionService) indexSource(kind models.LogKind, g models.Grid, layout grid.Layout, parser grid.DateParser, now time.Time) gridSource {
	index := grid.IndexNames(g, layout)
	return gridSource{
		kind:   kind,
		grid:   g,
		layout: layout,
		names:  index.Names(),
		index:  index,
		dates:  grid.IndexDates(g, layout, parser, now),
	}
}

func (s *IngestionService) apply(ctx context.Context, w repository.IngestionWriter, identities []models.ParticipantIdentity, roster grid.IdentityIndex, sources []gridSource, now time.Time, tally *ingestTally) (int, error) {
	participants, err := w.EnsureParticipants(ctx, identities)
	if err != nil {
		return 0, err
	}
	byName := make(map[string]models.Participant, len(participants))
	byID := make(map[string]models.Participant, len(participants))
	ids := make([]string, 0, len(participants))
	var updates []models.IdentityUpdate
	for _, p := range participants {
		byName[p.Name] = p
		byID[p.ID] = p
		ids = append(ids, p.ID)
		identity := roster.Lookup(p.Name)
		if identity.Active != p.Active || !sameHandle(identity.Handle, p.Handle) {
			updates = append(updates, models.IdentityUpdate{ParticipantID: p.ID, Handle: identity.Handle, Active: identity.Active})
		}
	}
	sort.Strings(ids)
	if err := w.UpdateIdentities(ctx, updates); err != nil {
		return 0, err
	}

	latest, err := w.LatestLogDates(ctx, ids)
	if err != nil {
		return 0, err
	}
	floors := make(map[floorKey]time.Time, len(latest))
	for _, l := range latest {
		floors[floorKey{participantID: l.ParticipantID, kind: l.Kind}] = models.CivilDate(l.ActivityDate)
	}

	stored, err := w.EligibleTaskHistory(ctx, ids, s.opts.StreakWindow)
	if err != nil {
		return 0, err
	}
	history := make(map[string][]models.ActivityLog)
	for _, log := range stored {
		history[log.ParticipantID] = append(history[log.ParticipantID], log)
	}

	candidates, err := s.buildCandidates(ctx, w, sources, byName, floors, history, now, tally)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	inserted, err := w.InsertLogs(ctx, candidates)
	if err != nil {
		return 0, err
	}
	conflicts := make(map[models.LogKind]int)
	for _, c := range candidates {
		conflicts[c.Kind]++
	}
	for _, log := range inserted {
		conflicts[log.Kind]--
		tally.inserted[log.Kind]++
	}
	for kind, n := range conflicts {
		tally.skip(kind, SkipConflict, n)
	}
	if len(inserted) == 0 {
		return 0, nil
	}

	aggregates, err := s.aggregate(ctx, w, inserted, byID, history, now)
	if err != nil {
		return 0, err
	}
	if err := w.UpdateAggregates(ctx, aggregates); err != nil {
		return 0, err
	}
	return len(inserted), nil
}

func (s *IngestionService) buildCandidates(ctx context.Context, w repository.IngestionWriter, sources []gridSource, byName map[string]models.Participant, floors map[floorKey]time.Time, history map[string][]models.ActivityLog, now time.Time, tally *ingestTally) ([]models.ActivityLog, error) {
	recordedAt := now.UTC()
	priorStreaks := make(map[string]int)
	var candidates []models.ActivityLog

	for _, src := range sources {
		for _, name := range src.names {
			participant, ok := byName[name]
			if !ok {
				continue
			}
			nameIndex := src.index[name]
			floor, hasFloor := floors[floorKey{participantID: participant.ID, kind: src.kind}]
			for _, entry := range src.dates {
				if hasFloor && !entry.Date.After(floor) {
					tally.skip(src.kind, SkipAlreadyRecorded, 1)
					continue
				}
				cell := src.layout.Cell(src.grid, nameIndex, entry.Index)
				color := scoring.ClassifyColor(cell.Color)
				if color.Blank() && strings.TrimSpace(cell.Text) == "" {
					tally.skip(src.kind, SkipBlank, 1)
					continue
				}
				classification := scoring.ClassifyStatus(cell.Text, color, src.kind)

				prior := 0
				if src.kind == models.LogKindTask {
					// Every pending task entry of a participant scores against the streak
					// as it stood before this run.
					streak, seen := priorStreaks[participant.ID]
					if !seen {
						var err error
						streak, err = s.streakFrom(ctx, w, participant.ID, nil, history[participant.ID], entry.Date)
						if err != nil {
							return nil, err
						}
						priorStreaks[participant.ID] = streak
					}
					prior = streak
				}

				log := models.ActivityLog{
					ID:            uuid.NewString(),
					ParticipantID: participant.ID,
					Kind:          src.kind,
					Status:        classification.Status,
					Points:        scoring.Points(src.kind, classification.Status, prior),
					ActivityDate:  entry.Date,
					RecordedAt:    recordedAt,
				}
				if src.kind == models.LogKindTask {
					log.Description = classification.Description
				}
				candidates = append(candidates, log)
			}
		}
	}
	return candidates, nil
}

func (s *IngestionService) aggregate(ctx context.Context, w repository.IngestionWriter, inserted []models.ActivityLog, byID map[string]models.Participant, history map[string][]models.ActivityLog, now time.Time) ([]models.ParticipantAggregate, error) {
	points := make(map[string]int)
	tasks := make(map[string][]models.ActivityLog)
	for _, log := range inserted {
		points[log.ParticipantID] += log.Points
		if log.Kind == models.LogKindTask {
			tasks[log.ParticipantID] = append(tasks[log.ParticipantID], log)
		}
	}

	aggregates := make([]models.ParticipantAggregate, 0, len(points))
	for id, sum := range points {
		participant := byID[id]
		total := participant.TotalPoints + sum
		streak, err := s.streakFrom(ctx, w, id, tasks[id], history[id], now)
		if err != nil {
			return nil, err
		}
		aggregates = append(aggregates, models.ParticipantAggregate{
			ParticipantID:   id,
			TotalPoints:     total,
			Streak:          streak,
			FreezeCardCount: participant.FreezeCardCount + scoring.FreezeCardsEarned(participant.TotalPoints, total),
		})
	}
	sort.Slice(aggregates, func(i, j int) bool { return aggregates[i].ParticipantID < aggregates[j].ParticipantID })
	return aggregates, nil
}

// streakFrom walks recent (logs not yet stored) and then history, the newest stored
// eligible task logs, back from anchor. History holds at most StreakWindow logs, so
// while the walk uses up a full page without breaking, older pages are loaded.
func (s *IngestionService) streakFrom(ctx context.Context, w repository.IngestionWriter, participantID string, recent, history []models.ActivityLog, anchor time.Time) (int, error) {
	logs := make([]models.ActivityLog, 0, len(recent)+len(history))
	logs = append(logs, history...)
	logs = append(logs, recent...)
	walk := s.streaks.Continue(s.streaks.Start(anchor), logs)

	page := len(history)
	for !walk.Broken && s.opts.StreakWindow > 0 && page >= s.opts.StreakWindow {
		older, err := w.EligibleTaskHistoryBefore(ctx, participantID, walk.Oldest(), s.opts.StreakWindow)
		if err != nil {
			return 0, err
		}
		walk = s.streaks.Continue(walk, older)
		page = len(older)
	}
	return walk.Length, nil
}

func (s *IngestionService) recordTally(t *ingestTally) {
	for kind, n := range t.inserted {
		s.metrics.AddInsertedLogs(kind, n)
	}
	for key, n := range t.skipped {
		s.metrics.AddSkippedCells(key.kind, key.reason, n)
	}
	if len(t.skipped) > 0 {
		fields := make([]zap.Field, 0, len(t.skipped))
		for key, n := range t.skipped {
			fields = append(fields, zap.Int(fmt.Sprintf("%s_%s", key.kind, key.reason), n))
		}
		s.logger.Debug("ingestion skipped cells", fields...)
	}
}

func sameHandle(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// IsBusy reports whether err means another run was already in flight.
func IsBusy(err error) bool {
	return errors.Is(err, appErrors.ErrIngestionBusy)
}
