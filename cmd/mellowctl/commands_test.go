package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mellowboard/internal/dto"
	"github.com/noah-isme/mellowboard/internal/models"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"migrate", "ingest", "leaderboard", "export", "runs"}, names)

	board, _, err := root.Find([]string{"leaderboard"})
	require.NoError(t, err)
	require.NotNil(t, board.Flags().Lookup("active"))

	export, _, err := root.Find([]string{"export"})
	require.NoError(t, err)
	assert.Equal(t, "csv", export.Flags().Lookup("format").DefValue)
	require.NotNil(t, export.Flags().Lookup("prune"))

	runs, _, err := root.Find([]string{"runs"})
	require.NoError(t, err)
	assert.Equal(t, "20", runs.Flags().Lookup("limit").DefValue)
}

func TestPrintLeaderboardAlignsColumns(t *testing.T) {
	handle := "janed"
	var buf bytes.Buffer
	err := printLeaderboard(&buf, []dto.LeaderboardEntry{
		{Rank: 1, Name: "Jane Doe", Handle: &handle, Active: true, TotalPoints: 120, Streak: 7, FreezeCardCount: 2},
		{Rank: 2, Name: "Jo", TotalPoints: 5},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RANK  NAME"))
	assert.Equal(t, strings.Index(lines[0], "HANDLE"), strings.Index(lines[1], "janed"))
	assert.Equal(t, strings.Index(lines[0], "HANDLE"), strings.Index(lines[2], "-"))
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "false")
}

func TestPrintRunsShowsErrors(t *testing.T) {
	msg := "sheets unavailable"
	var buf bytes.Buffer
	err := printRuns(&buf, []models.IngestionRun{
		{ID: "run-1", Trigger: models.TriggerCLI, Status: models.IngestionFailed, ErrorMessage: &msg,
			StartedAt: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), DurationMs: 1500},
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "2024-03-05T10:00:00Z")
	assert.Contains(t, out, "1.5s")
	assert.Contains(t, out, msg)
}
