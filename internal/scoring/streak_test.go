package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mellowboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// onTime builds a task log recorded the morning after its activity date.
func onTime(date time.Time, status models.LogStatus) models.ActivityLog {
	return models.ActivityLog{
		Kind:         models.LogKindTask,
		Status:       status,
		ActivityDate: date,
		RecordedAt:   date.Add(33 * time.Hour),
	}
}

func consecutiveWorked(last time.Time, n int) []models.ActivityLog {
	logs := make([]models.ActivityLog, 0, n)
	for i := 0; i < n; i++ {
		logs = append(logs, onTime(last.AddDate(0, 0, -i), models.LogStatusWorked))
	}
	return logs
}

func TestStreakConsecutiveDays(t *testing.T) {
	engine := NewStreakEngine(time.UTC)
	last := day(2024, time.March, 10)

	for _, n := range []int{0, 1, 2, 7, 30} {
		assert.Equal(t, n, engine.Compute(consecutiveWorked(last, n)), "n=%d", n)
	}
}

func TestStreakIgnoresInputOrder(t *testing.T) {
	engine := NewStreakEngine(time.UTC)
	logs := consecutiveWorked(day(2024, time.March, 10), 5)
	reversed := make([]models.ActivityLog, len(logs))
	for i := range logs {
		reversed[len(logs)-1-i] = logs[i]
	}

	assert.Equal(t, 5, engine.Compute(reversed))
	assert.Equal(t, day(2024, time.March, 6), reversed[0].ActivityDate, "input must not be reordered")
}

func TestStreakPreservingStatuses(t *testing.T) {
	engine := NewStreakEngine(time.UTC)
	last := day(2024, time.March, 10)
	logs := []models.ActivityLog{
		onTime(last, models.LogStatusWorked),
		onTime(last.AddDate(0, 0, -1), models.LogStatusFreezeCard),
		onTime(last.AddDate(0, 0, -2), models.LogStatusNoTask),
		onTime(last.AddDate(0, 0, -3), models.LogStatusWorked),
	}
	assert.Equal(t, 4, engine.Compute(logs))
}

func TestStreakBreaksOnNotAvailable(t *testing.T) {
	engine := NewStreakEngine(time.UTC)
	last := day(2024, time.March, 10)
	worked := consecutiveWorked(last, 3)
	earliest := last.AddDate(0, 0, -2)
	miss := onTime(earliest.AddDate(0, 0, -1), models.LogStatusNotAvailable)
	older := consecutiveWorked(earliest.AddDate(0, 0, -2), 4)

	history := append(append(append([]models.ActivityLog{}, worked...), miss), older...)
	assert.Equal(t, 3, engine.Compute(history))

	// Anchored the day after the miss, nothing before the break counts.
	assert.Equal(t, 0, engine.ComputeFrom(append([]models.ActivityLog{miss}, older...), earliest))
}

func TestStreakBreaksOnGap(t *testing.T) {
	engine := NewStreakEngine(time.UTC)
	last := day(2024, time.March, 10)
	logs := []models.ActivityLog{
		onTime(last, models.LogStatusWorked),
		onTime(last.AddDate(0, 0, -1), models.LogStatusWorked),
		onTime(last.AddDate(0, 0, -3), models.LogStatusWorked),
	}
	assert.Equal(t, 2, engine.Compute(logs))
}

func TestStreakDeadline(t *testing.T) {
	engine := NewStreakEngine(time.UTC)
	date := day(2024, time.March, 10)

	deadline := engine.Deadline(date)
	assert.Equal(t, time.Date(2024, time.March, 11, 23, 59, 59, 999999999, time.UTC), deadline)

	onDeadline := models.ActivityLog{Status: models.LogStatusWorked, ActivityDate: date, RecordedAt: deadline}
	assert.Equal(t, 1, engine.Compute([]models.ActivityLog{onDeadline}))

	late := onDeadline
	late.RecordedAt = deadline.Add(time.Nanosecond)
	assert.Equal(t, 0, engine.Compute([]models.ActivityLog{late}))

	// A late entry stops the scan without discarding what came before it.
	newer := onTime(date.AddDate(0, 0, 1), models.LogStatusWorked)
	assert.Equal(t, 1, engine.Compute([]models.ActivityLog{newer, late}))
}

func TestStreakDeadlineUsesEngineLocation(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	engine := NewStreakEngine(jakarta)
	date := day(2024, time.March, 10)

	deadline := engine.Deadline(date)
	require.Equal(t, jakarta, deadline.Location())
	assert.Equal(t, time.Date(2024, time.March, 11, 16, 59, 59, 999999999, time.UTC), deadline.UTC())

	log := models.ActivityLog{
		Status:       models.LogStatusWorked,
		ActivityDate: date,
		RecordedAt:   time.Date(2024, time.March, 11, 18, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, 0, engine.Compute([]models.ActivityLog{log}))
	assert.Equal(t, 1, NewStreakEngine(nil).Compute([]models.ActivityLog{log}))
}

func TestStreakComputeFromAnchor(t *testing.T) {
	engine := NewStreakEngine(time.UTC)
	last := day(2024, time.March, 10)
	logs := consecutiveWorked(last, 4)

	assert.Equal(t, 4, engine.ComputeFrom(logs, last.AddDate(0, 0, 1)))
	assert.Equal(t, 4, engine.ComputeFrom(logs, last.Add(36*time.Hour)))
	assert.Equal(t, 0, engine.ComputeFrom(logs, last.AddDate(0, 0, 2)))
	assert.Equal(t, 0, engine.ComputeFrom(logs, last))
	assert.Equal(t, 0, engine.ComputeFrom(nil, last))
}

func TestStreakContinueAcrossPages(t *testing.T) {
	engine := NewStreakEngine(time.UTC)
	last := day(2024, time.March, 10)
	logs := consecutiveWorked(last, 10)

	walk := engine.Continue(engine.Start(last.AddDate(0, 0, 1)), logs[:4])
	assert.Equal(t, 4, walk.Length)
	assert.False(t, walk.Broken)
	assert.Equal(t, day(2024, time.March, 7), walk.Oldest())

	walk = engine.Continue(walk, logs[4:])
	assert.Equal(t, 10, walk.Length)
	assert.False(t, walk.Broken)
	assert.Equal(t, 10, engine.ComputeFrom(logs, last.AddDate(0, 0, 1)))

	gap := engine.Continue(walk, consecutiveWorked(day(2024, time.February, 20), 3))
	assert.True(t, gap.Broken)
	assert.Equal(t, 10, gap.Length)

	assert.Equal(t, gap, engine.Continue(gap, consecutiveWorked(day(2024, time.February, 29), 1)))
}

func TestStreakContinueStopsOnEmptyHistory(t *testing.T) {
	engine := NewStreakEngine(time.UTC)
	walk := engine.Continue(engine.Start(day(2024, time.March, 5)), nil)
	assert.Equal(t, 0, walk.Length)
	assert.False(t, walk.Broken)
	assert.Equal(t, day(2024, time.March, 5), walk.Oldest())
	assert.True(t, StreakWalk{}.Oldest().IsZero())
}

func TestStreakEligibleOnlyInputKeepsLeadingRun(t *testing.T) {
	engine := NewStreakEngine(time.UTC)
	worked := onTime(day(2024, time.March, 2), models.LogStatusWorked)
	unavailable := onTime(day(2024, time.March, 4), models.LogStatusNotAvailable)

	assert.Equal(t, 1, engine.Compute([]models.ActivityLog{worked}))
	assert.Equal(t, 0, engine.ComputeFrom([]models.ActivityLog{worked, unavailable}, day(2024, time.March, 5)))
}
