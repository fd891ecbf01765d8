package grid

import (
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/mellowboard/internal/models"
)

// DefaultDateLayouts are the header formats accepted when none are configured.
var DefaultDateLayouts = []string{
	"1/2/2006",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2-Jan-2006",
	"Monday, January 2, 2006",
}

// DateParser turns date header text into civil dates.
type DateParser struct {
	Layouts  []string
	Location *time.Location
}

// Parse tries each layout in turn. The result is the civil date as midnight UTC.
func (p DateParser) Parse(raw string) (time.Time, bool) {
	text := strings.Join(strings.Fields(raw), " ")
	if text == "" {
		return time.Time{}, false
	}
	layouts := p.Layouts
	if len(layouts) == 0 {
		layouts = DefaultDateLayouts
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range layouts {
		parsed, err := time.ParseInLocation(layout, text, loc)
		if err == nil {
			return models.CivilDate(parsed), true
		}
	}
	return time.Time{}, false
}

// DateEntry is a date header and the row or column index it labels.
type DateEntry struct {
	Date  time.Time
	Index int
	Raw   string
}

// IndexDates collects the date headers of a grid that fall strictly before today,
// oldest first. Unparseable headers are skipped and repeated dates keep their first
// occurrence.
func IndexDates(g models.Grid, layout Layout, parser DateParser, today time.Time) []DateEntry {
	cutoff := models.CivilDate(today)
	seen := make(map[time.Time]struct{})
	var entries []DateEntry
	for _, cell := range layout.dateCells(g) {
		date, ok := parser.Parse(cell.text)
		if !ok || !date.Before(cutoff) {
			continue
		}
		if _, dup := seen[date]; dup {
			continue
		}
		seen[date] = struct{}{}
		entries = append(entries, DateEntry{Date: date, Index: cell.index, Raw: cell.text})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries
}
