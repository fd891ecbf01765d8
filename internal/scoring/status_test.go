package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mellowboard/internal/models"
)

func TestParseTagVariants(t *testing.T) {
	cases := map[string]Tag{
		"[DONE] fix login":     TagDone,
		"[ done ]":             TagDone,
		"[No Task]":            TagNoTask,
		"[NOTASK]":             TagNoTask,
		"[not   available]":    TagNotAvailable,
		"[NOTAVAILABLE] sick":  TagNotAvailable,
		"[FREEZE-CARD]":        TagFreezeCard,
		"[freeze card]":        TagFreezeCard,
		"[FreezeCard]":         TagFreezeCard,
		"[FC]":                 TagFreezeCard,
		"fixed [DONE] later":   TagDone,
		"done without bracket": TagNone,
		"[DONE":                TagNone,
		"":                     TagNone,
	}
	for text, want := range cases {
		tag, _ := ParseTag(text)
		assert.Equal(t, want, tag, text)
	}
}

func TestClassifyStatusTaskPrecedence(t *testing.T) {
	colors := []models.Color{models.ColorGreen, models.ColorOrange, models.ColorRed, models.ColorTransparent, models.ColorUnknown}

	for _, color := range colors {
		got := ClassifyStatus("[FC]", color, models.LogKindTask)
		assert.Equal(t, models.LogStatusFreezeCard, got.Status, "freeze card overrides %s", color)

		got = ClassifyStatus("[DONE] refactor", color, models.LogKindTask)
		assert.Equal(t, models.LogStatusWorked, got.Status, "done with %s", color)
	}

	cases := []struct {
		text  string
		color models.Color
		want  models.LogStatus
	}{
		{"anything", models.ColorGreen, models.LogStatusWorked},
		{"[NOT AVAILABLE]", models.ColorGreen, models.LogStatusWorked},
		{"", models.ColorOrange, models.LogStatusNoTask},
		{"[NO TASK]", models.ColorTransparent, models.LogStatusNoTask},
		{"[NO TASK]", models.ColorRed, models.LogStatusNoTask},
		{"[NOT AVAILABLE]", models.ColorOrange, models.LogStatusNoTask},
		{"", models.ColorRed, models.LogStatusNotAvailable},
		{"[NOT AVAILABLE] travel", models.ColorTransparent, models.LogStatusNotAvailable},
		{"random words", models.ColorTransparent, models.LogStatusNotAvailable},
		{"random words", models.ColorUnknown, models.LogStatusNotAvailable},
	}
	for _, tc := range cases {
		got := ClassifyStatus(tc.text, tc.color, models.LogKindTask)
		assert.Equal(t, tc.want, got.Status, "%q/%s", tc.text, tc.color)
	}
}

func TestClassifyStatusDescription(t *testing.T) {
	got := ClassifyStatus("  [DONE]   fix bug  ", models.ColorGreen, models.LogKindTask)
	require.NotNil(t, got.Description)
	assert.Equal(t, "fix bug", *got.Description)

	got = ClassifyStatus("wrote docs", models.ColorGreen, models.LogKindTask)
	require.NotNil(t, got.Description)
	assert.Equal(t, "wrote docs", *got.Description)

	got = ClassifyStatus("[NOT AVAILABLE]", models.ColorRed, models.LogKindTask)
	assert.Nil(t, got.Description)

	long := "[DONE] " + strings.Repeat("x", 600)
	got = ClassifyStatus(long, models.ColorGreen, models.LogKindTask)
	require.NotNil(t, got.Description)
	assert.Len(t, *got.Description, 500)
}

func TestClassifyStatusMeeting(t *testing.T) {
	cases := []struct {
		text string
		want models.LogStatus
	}{
		{"ATTENDED", models.LogStatusWorked},
		{" attended ", models.LogStatusWorked},
		{"NO BUT INFORMED", models.LogStatusNoTask},
		{"no  but\tinformed", models.LogStatusNoTask},
		{"NO", models.LogStatusNotAvailable},
		{"[DONE]", models.LogStatusNotAvailable},
		{"[FC]", models.LogStatusNotAvailable},
		{"", models.LogStatusNotAvailable},
	}
	for _, tc := range cases {
		got := ClassifyStatus(tc.text, models.ColorGreen, models.LogKindMeeting)
		assert.Equal(t, tc.want, got.Status, tc.text)
		assert.Nil(t, got.Description)
	}
}
