package sheets

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/noah-isme/mellowboard/internal/models"
)

func sheetWith(title string, rows ...[]*gsheets.CellData) *gsheets.Sheet {
	data := &gsheets.GridData{}
	for _, row := range rows {
		data.RowData = append(data.RowData, &gsheets.RowData{Values: row})
	}
	return &gsheets.Sheet{Properties: &gsheets.SheetProperties{Title: title}, Data: []*gsheets.GridData{data}}
}

func TestSheetTitle(t *testing.T) {
	assert.Equal(t, "Commit Box", SheetTitle("Commit Box!A1:Z100"))
	assert.Equal(t, "Weekly StandUp", SheetTitle("'Weekly StandUp'!A1:Z100"))
	assert.Equal(t, "Bob's", SheetTitle("'Bob''s'!A:C"))
	assert.Equal(t, "", SheetTitle("A1:Z100"))
}

func TestConvertSheet(t *testing.T) {
	sheet := sheetWith("Commit Box",
		[]*gsheets.CellData{{FormattedValue: "Date"}, {FormattedValue: "Jane Doe"}},
		nil,
		[]*gsheets.CellData{
			{FormattedValue: "3/4/2024"},
			{FormattedValue: "[DONE] fix", EffectiveFormat: &gsheets.CellFormat{BackgroundColor: &gsheets.Color{Red: 0.4, Green: 1, Blue: 0.4}}},
			nil,
		},
	)

	got := ConvertSheet(sheet)
	want := models.Grid{
		{{Text: "Date"}, {Text: "Jane Doe"}},
		nil,
		{{Text: "3/4/2024"}, {Text: "[DONE] fix", Color: &models.RGB{Red: 0.4, Green: 1, Blue: 0.4}}, {}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected grid (-want +got):\n%s", diff)
	}
}

func TestGridsForRangesMatchesTitles(t *testing.T) {
	resp := &gsheets.Spreadsheet{Sheets: []*gsheets.Sheet{
		sheetWith("Weekly StandUp", []*gsheets.CellData{{FormattedValue: "meeting"}}),
		sheetWith("Commit Box", []*gsheets.CellData{{FormattedValue: "task"}}),
		sheetWith("Github", []*gsheets.CellData{{FormattedValue: "identity"}}),
	}}

	grids, err := GridsForRanges(resp, []string{"Commit Box!A1:Z100", "Github!A1:Z100", "'Weekly StandUp'!A1:Z100"})
	require.NoError(t, err)
	require.Len(t, grids, 3)
	assert.Equal(t, "task", grids[0].At(0, 0).Text)
	assert.Equal(t, "identity", grids[1].At(0, 0).Text)
	assert.Equal(t, "meeting", grids[2].At(0, 0).Text)
}

func TestGridsForRangesFallsBackToOrder(t *testing.T) {
	resp := &gsheets.Spreadsheet{Sheets: []*gsheets.Sheet{
		sheetWith("A", []*gsheets.CellData{{FormattedValue: "first"}}),
	}}

	grids, err := GridsForRanges(resp, []string{"A1:B2"})
	require.NoError(t, err)
	assert.Equal(t, "first", grids[0].At(0, 0).Text)

	_, err = GridsForRanges(resp, []string{"A1:B2", "C1:D2"})
	require.Error(t, err)

	_, err = GridsForRanges(nil, []string{"A1:B2"})
	require.Error(t, err)
}

func TestGridsForRangesSplitsSharedSheet(t *testing.T) {
	shared := sheetWith("Tracker", []*gsheets.CellData{{FormattedValue: "task"}})
	shared.Data = append(shared.Data, sheetWith("Tracker",
		[]*gsheets.CellData{{FormattedValue: "identity"}},
		[]*gsheets.CellData{{FormattedValue: "jane doe"}},
	).Data...)
	resp := &gsheets.Spreadsheet{Sheets: []*gsheets.Sheet{
		shared,
		sheetWith("Weekly StandUp", []*gsheets.CellData{{FormattedValue: "meeting"}}),
	}}

	grids, err := GridsForRanges(resp, []string{"Tracker!A1:Z100", "Tracker!AA1:AC100", "'Weekly StandUp'!A1:Z100"})
	require.NoError(t, err)
	require.Len(t, grids, 3)
	if diff := cmp.Diff(models.Grid{{{Text: "task"}}}, grids[0]); diff != "" {
		t.Fatalf("unexpected task grid (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(models.Grid{{{Text: "identity"}}, {{Text: "jane doe"}}}, grids[1]); diff != "" {
		t.Fatalf("unexpected identity grid (-want +got):\n%s", diff)
	}
	assert.Equal(t, "meeting", grids[2].At(0, 0).Text)
}

func TestGridsForRangesSharedSheetBlockMismatch(t *testing.T) {
	resp := &gsheets.Spreadsheet{Sheets: []*gsheets.Sheet{
		sheetWith("Tracker", []*gsheets.CellData{{FormattedValue: "task"}}),
	}}

	_, err := GridsForRanges(resp, []string{"Tracker!A1:Z100", "Tracker!AA1:AC100"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 data blocks for 2 ranges")
}

func TestUnescapeKey(t *testing.T) {
	assert.Equal(t, "-----BEGIN\nabc\n-----END", UnescapeKey(`-----BEGIN\nabc\n-----END`))
}
