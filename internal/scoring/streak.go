package scoring

import (
	"time"

	"github.com/noah-isme/mellowboard/internal/models"
)

// StreakEngine computes consecutive-day streaks from task log history. Deadlines are
// evaluated in the engine's location.
type StreakEngine struct {
	loc *time.Location
}

// NewStreakEngine builds an engine for the given location (UTC when nil).
func NewStreakEngine(loc *time.Location) StreakEngine {
	if loc == nil {
		loc = time.UTC
	}
	return StreakEngine{loc: loc}
}

// Deadline is the last instant a log for activityDate can be recorded and still count
// toward an unbroken streak: the end of the following calendar day.
func (e StreakEngine) Deadline(activityDate time.Time) time.Time {
	loc := e.loc
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := activityDate.Date()
	return time.Date(y, m, d+1, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
}

// StreakWalk is the state of a streak walk over newest-first history. A walk that is
// not Broken has used up every log it was given and can be resumed with older ones.
type StreakWalk struct {
	Length int
	Broken bool
	last   *time.Time
}

// Oldest is the activity date of the oldest log counted so far, or the anchor when
// nothing has been counted yet. Logs passed to Continue must be older than it.
func (w StreakWalk) Oldest() time.Time {
	if w.last == nil {
		return time.Time{}
	}
	return *w.last
}

// Compute walks the history newest first and returns the length of the leading
// unbroken run. The input is not modified.
func (e StreakEngine) Compute(logs []models.ActivityLog) int {
	return e.Continue(StreakWalk{}, logs).Length
}

// ComputeFrom is Compute with the walk anchored at anchor: the newest log must fall on
// the day before anchor, otherwise the streak is 0.
func (e StreakEngine) ComputeFrom(logs []models.ActivityLog, anchor time.Time) int {
	return e.Continue(e.Start(anchor), logs).Length
}

// Start returns an empty walk whose first log must fall on the day before anchor.
func (e StreakEngine) Start(anchor time.Time) StreakWalk {
	day := models.CivilDate(anchor)
	return StreakWalk{last: &day}
}

// Continue extends w with logs, which must all be older than w.Oldest. A broken walk is
// returned unchanged.
func (e StreakEngine) Continue(w StreakWalk, logs []models.ActivityLog) StreakWalk {
	if w.Broken {
		return w
	}
	ordered := make([]models.ActivityLog, len(logs))
	copy(ordered, logs)
	models.SortLogsDesc(ordered)

	for _, log := range ordered {
		if !log.Status.PreservesStreak() || log.RecordedAt.After(e.Deadline(log.ActivityDate)) {
			w.Broken = true
			return w
		}
		day := models.CivilDate(log.ActivityDate)
		if w.last != nil && !day.Equal(w.last.AddDate(0, 0, -1)) {
			w.Broken = true
			return w
		}
		w.Length++
		w.last = &day
	}
	return w
}
