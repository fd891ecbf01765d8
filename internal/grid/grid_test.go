package grid

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mellowboard/internal/models"
)

func textGrid(rows ...[]string) models.Grid {
	g := make(models.Grid, len(rows))
	for i, row := range rows {
		g[i] = make([]models.Cell, len(row))
		for j, text := range row {
			g[i][j] = models.Cell{Text: text}
		}
	}
	return g
}

func civil(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var taskLayout = Layout{NameAxis: AxisRow, NameLine: 1, DateLine: 0}

var meetingLayout = Layout{NameAxis: AxisColumn, NameLine: 0, DateLine: 0}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"jane doe":         "Jane Doe",
		"  JANE   DOE  ":   "Jane Doe",
		"jAnE\tdOe":        "Jane Doe",
		"budi":             "Budi",
		"":                 "",
		"   ":              "",
		"ángel de la cruz": "Ángel De La Cruz",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeName(in), in)
	}
}

func TestIndexNamesHeaderRow(t *testing.T) {
	g := textGrid(
		[]string{"Commit Box"},
		[]string{"Date", "jane doe", "", "JOHN SMITH", "Jane  Doe", " budi "},
		[]string{"3/1/2024", "[DONE]", "", "", "", ""},
	)

	got := IndexNames(g, taskLayout)
	want := NameIndex{"Jane Doe": 1, "John Smith": 3, "Budi": 5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected name index (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"Jane Doe", "John Smith", "Budi"}, got.Names())
}

func TestIndexNamesHeaderColumn(t *testing.T) {
	g := textGrid(
		[]string{"Name", "3/4/2024", "3/11/2024"},
		[]string{"jane doe", "ATTENDED", "NO"},
		[]string{"john smith", "NO BUT INFORMED"},
		[]string{"JANE DOE", "ATTENDED"},
	)

	got := IndexNames(g, meetingLayout)
	want := NameIndex{"Jane Doe": 1, "John Smith": 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected name index (-want +got):\n%s", diff)
	}
}

func TestIndexDatesFiltersAndOrders(t *testing.T) {
	g := textGrid(
		[]string{"Commit Box"},
		[]string{"Date", "Jane Doe"},
		[]string{"3/3/2024"},
		[]string{"3/1/2024"},
		[]string{"not a date"},
		[]string{"2024-03-02"},
		[]string{"March 3, 2024"},
		[]string{"3/5/2024"},
		[]string{"3/6/2024"},
		[]string{""},
	)
	today := time.Date(2024, time.March, 5, 8, 0, 0, 0, time.UTC)

	got := IndexDates(g, taskLayout, DateParser{}, today)
	want := []DateEntry{
		{Date: civil(2024, time.March, 1), Index: 3, Raw: "3/1/2024"},
		{Date: civil(2024, time.March, 2), Index: 5, Raw: "2024-03-02"},
		{Date: civil(2024, time.March, 3), Index: 2, Raw: "3/3/2024"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected date index (-want +got):\n%s", diff)
	}
}

func TestIndexDatesHeaderRow(t *testing.T) {
	g := textGrid(
		[]string{"Name", "Mar 4, 2024", "Mar 11, 2024", "Mar 18, 2024"},
		[]string{"Jane Doe", "ATTENDED", "NO", "ATTENDED"},
	)
	today := civil(2024, time.March, 12)

	got := IndexDates(g, meetingLayout, DateParser{Layouts: []string{"Jan 2, 2006"}}, today)
	require.Len(t, got, 2)
	assert.Equal(t, civil(2024, time.March, 4), got[0].Date)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, civil(2024, time.March, 11), got[1].Date)
	assert.Equal(t, 2, got[1].Index)
}

func TestIndexDatesTodayUsesCallerLocation(t *testing.T) {
	g := textGrid(
		[]string{"", "Jane Doe"},
		[]string{"", "Jane Doe"},
		[]string{"3/4/2024"},
	)
	jakarta := time.FixedZone("WIB", 7*60*60)
	// 20:00 UTC on the 3rd is already the 4th in Jakarta.
	today := time.Date(2024, time.March, 3, 20, 0, 0, 0, time.UTC).In(jakarta)

	assert.Empty(t, IndexDates(g, taskLayout, DateParser{Location: jakarta}, today))
	assert.Len(t, IndexDates(g, taskLayout, DateParser{Location: jakarta}, today.AddDate(0, 0, 1)), 1)
}

func TestLayoutCell(t *testing.T) {
	g := textGrid(
		[]string{"a", "b"},
		[]string{"c", "d"},
	)
	assert.Equal(t, "c", taskLayout.Cell(g, 0, 1).Text)
	assert.Equal(t, "b", meetingLayout.Cell(g, 0, 1).Text)
	assert.Equal(t, models.Cell{}, taskLayout.Cell(g, 5, 5))
}

func TestIndexIdentities(t *testing.T) {
	g := textGrid(
		[]string{"Name", "Github", "Active"},
		[]string{"jane doe", " janedoe ", "TRUE"},
		[]string{"John Smith", "", "no"},
		[]string{"", "ghost", "TRUE"},
		[]string{"JANE DOE", "other", "FALSE"},
		[]string{"Budi", "budi-dev", "✓"},
	)

	idx := IndexIdentities(g, DefaultIdentityLayout)
	require.Len(t, idx, 3)

	jane := idx.Lookup("Jane Doe")
	require.NotNil(t, jane.Handle)
	assert.Equal(t, "janedoe", *jane.Handle)
	assert.True(t, jane.Active)
	assert.True(t, jane.Listed)

	john := idx.Lookup("John Smith")
	assert.Nil(t, john.Handle)
	assert.False(t, john.Active)

	assert.True(t, idx.Lookup("Budi").Active)

	missing := idx.Lookup("Nobody")
	assert.Equal(t, models.ParticipantIdentity{Name: "Nobody"}, missing)
}
