package scoring

import (
	"regexp"
	"strings"

	"github.com/noah-isme/mellowboard/internal/models"
)

// Tag is a bracketed status marker recognised in task cell text.
type Tag string

const (
	TagNone         Tag = ""
	TagDone         Tag = "DONE"
	TagNoTask       Tag = "NO TASK"
	TagNotAvailable Tag = "NOT AVAILABLE"
	TagFreezeCard   Tag = "FREEZE CARD"
)

const (
	meetingAttended      = "ATTENDED"
	meetingInformed      = "NO BUT INFORMED"
	maxDescriptionLength = 500
)

var tagPattern = regexp.MustCompile(`(?i)\[\s*(DONE|NO\s*TASK|NOT\s*AVAILABLE|FREEZE[-\s]?CARD|FC)\s*\]`)

// Classification is the outcome of classifying one cell.
type Classification struct {
	Status      models.LogStatus
	Description *string
}

// ParseTag finds the first bracket tag in text and returns it together with the text
// left after removing it.
func ParseTag(text string) (Tag, string) {
	loc := tagPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return TagNone, text
	}
	rest := text[:loc[0]] + text[loc[1]:]
	return normalizeTag(text[loc[2]:loc[3]]), rest
}

func normalizeTag(raw string) Tag {
	upper := strings.ToUpper(strings.Join(strings.Fields(raw), " "))
	compact := strings.NewReplacer(" ", "", "-", "").Replace(upper)
	switch compact {
	case "DONE":
		return TagDone
	case "NOTASK":
		return TagNoTask
	case "NOTAVAILABLE":
		return TagNotAvailable
	case "FREEZECARD", "FC":
		return TagFreezeCard
	default:
		return TagNone
	}
}

// ClassifyStatus resolves the status of a cell. It never fails: anything it cannot
// recognise resolves to not_available.
func ClassifyStatus(text string, color models.Color, kind models.LogKind) Classification {
	if kind == models.LogKindMeeting {
		return Classification{Status: MeetingStatus(text)}
	}

	tag, rest := ParseTag(text)
	description := taskDescription(text, rest, tag)

	var status models.LogStatus
	switch {
	case tag == TagFreezeCard:
		status = models.LogStatusFreezeCard
	case color == models.ColorGreen || tag == TagDone:
		status = models.LogStatusWorked
	case color == models.ColorOrange || tag == TagNoTask:
		status = models.LogStatusNoTask
	default:
		status = models.LogStatusNotAvailable
	}
	return Classification{Status: status, Description: description}
}

// MeetingStatus maps meeting attendance text to a status.
func MeetingStatus(text string) models.LogStatus {
	switch strings.ToUpper(strings.Join(strings.Fields(text), " ")) {
	case meetingAttended:
		return models.LogStatusWorked
	case meetingInformed:
		return models.LogStatusNoTask
	default:
		return models.LogStatusNotAvailable
	}
}

func taskDescription(text, rest string, tag Tag) *string {
	description := strings.TrimSpace(text)
	if tag != TagNone {
		description = strings.TrimSpace(rest)
	}
	if description == "" {
		return nil
	}
	if runes := []rune(description); len(runes) > maxDescriptionLength {
		description = strings.TrimSpace(string(runes[:maxDescriptionLength]))
	}
	return &description
}
