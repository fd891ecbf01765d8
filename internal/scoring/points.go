package scoring

import "github.com/noah-isme/mellowboard/internal/models"

// Point tariffs.
const (
	TaskWorkedPoints      = 1
	MeetingAttendedPoints = 5
	MeetingInformedPoints = 1
	MeetingNoShowPoints   = -6

	// FreezeCardThreshold is the number of cumulative points that earns one freeze card.
	FreezeCardThreshold = 50
)

// StreakMultiplier returns the bonus factor for a participant whose streak before the
// entry being scored is priorStreak.
func StreakMultiplier(priorStreak int) int {
	switch {
	case priorStreak > 10:
		return 4
	case priorStreak > 5:
		return 3
	case priorStreak > 0:
		return 2
	default:
		return 1
	}
}

// TaskPoints scores a task log. priorStreak must not include the log being scored.
func TaskPoints(status models.LogStatus, priorStreak int) int {
	base := 0
	if status == models.LogStatusWorked {
		base = TaskWorkedPoints
	}
	if base <= 0 {
		return base
	}
	return base * StreakMultiplier(priorStreak)
}

// MeetingPoints scores a meeting log. Statuses outside the meeting tariff score zero.
func MeetingPoints(status models.LogStatus) int {
	switch status {
	case models.LogStatusWorked:
		return MeetingAttendedPoints
	case models.LogStatusNoTask:
		return MeetingInformedPoints
	case models.LogStatusNotAvailable:
		return MeetingNoShowPoints
	default:
		return 0
	}
}

// Points scores a log of any kind.
func Points(kind models.LogKind, status models.LogStatus, priorStreak int) int {
	if kind == models.LogKindMeeting {
		return MeetingPoints(status)
	}
	return TaskPoints(status, priorStreak)
}

// FreezeCardsEarned counts the freeze-card thresholds crossed when a running total moves
// from prior to next. It is never negative.
func FreezeCardsEarned(prior, next int) int {
	earned := floorDiv(next, FreezeCardThreshold) - floorDiv(prior, FreezeCardThreshold)
	if earned < 0 {
		return 0
	}
	return earned
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
