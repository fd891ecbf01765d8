package models

import (
	"sort"
	"time"
)

// LogKind distinguishes daily task entries from weekly meeting entries.
type LogKind string

const (
	LogKindTask    LogKind = "task"
	LogKindMeeting LogKind = "meeting"
)

// Valid returns true when the kind is supported.
func (k LogKind) Valid() bool {
	return k == LogKindTask || k == LogKindMeeting
}

// LogStatus is the derived status of an activity log.
type LogStatus string

const (
	LogStatusWorked       LogStatus = "worked"
	LogStatusNotAvailable LogStatus = "not_available"
	LogStatusNoTask       LogStatus = "no_task"
	LogStatusFreezeCard   LogStatus = "freeze_card"
)

// Valid returns true when the status is supported.
func (s LogStatus) Valid() bool {
	switch s {
	case LogStatusWorked, LogStatusNotAvailable, LogStatusNoTask, LogStatusFreezeCard:
		return true
	default:
		return false
	}
}

// PreservesStreak reports whether a task log with this status keeps a streak alive.
func (s LogStatus) PreservesStreak() bool {
	switch s {
	case LogStatusWorked, LogStatusFreezeCard, LogStatusNoTask:
		return true
	default:
		return false
	}
}

// StreakStatuses lists the statuses that do not break a streak.
func StreakStatuses() []LogStatus {
	return []LogStatus{LogStatusWorked, LogStatusFreezeCard, LogStatusNoTask}
}

// ActivityLog is an immutable record of one participant's entry for one day and kind.
// (ParticipantID, ActivityDate, Kind) is its natural key.
type ActivityLog struct {
	ID            string    `db:"id" json:"id"`
	ParticipantID string    `db:"participant_id" json:"participant_id"`
	Kind          LogKind   `db:"kind" json:"kind"`
	Status        LogStatus `db:"status" json:"status"`
	Points        int       `db:"points" json:"points"`
	Description   *string   `db:"description" json:"description,omitempty"`
	ActivityDate  time.Time `db:"activity_date" json:"activity_date"`
	RecordedAt    time.Time `db:"recorded_at" json:"recorded_at"`
}

// LatestLogDate is the most recent recorded activity date for a participant and kind.
type LatestLogDate struct {
	ParticipantID string    `db:"participant_id"`
	Kind          LogKind   `db:"kind"`
	ActivityDate  time.Time `db:"activity_date"`
}

// CivilDate truncates t to its calendar date, expressed as midnight UTC. The calendar
// fields are read in t's own location.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SortLogsDesc orders logs newest first by activity date, then by recorded time.
func SortLogsDesc(logs []ActivityLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		di, dj := CivilDate(logs[i].ActivityDate), CivilDate(logs[j].ActivityDate)
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return logs[i].RecordedAt.After(logs[j].RecordedAt)
	})
}

// SortLogsAsc orders logs oldest first by activity date, then by recorded time.
func SortLogsAsc(logs []ActivityLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		di, dj := CivilDate(logs[i].ActivityDate), CivilDate(logs[j].ActivityDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return logs[i].RecordedAt.Before(logs[j].RecordedAt)
	})
}
