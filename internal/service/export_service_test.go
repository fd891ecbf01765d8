package service

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/mellowboard/internal/dto"
	"github.com/noah-isme/mellowboard/internal/models"
	"github.com/noah-isme/mellowboard/pkg/export"
)

type failingRenderer struct{}

func (failingRenderer) Render(export.Dataset) ([]byte, error) {
	return nil, errors.New("disk full")
}

func exportEntries() []dto.LeaderboardEntry {
	handle := "janedoe"
	return []dto.LeaderboardEntry{
		{Rank: 1, ID: "p-1", Name: "Jane Doe", Handle: &handle, Active: true, TotalPoints: 80, Streak: 4, FreezeCardCount: 1},
		{Rank: 2, ID: "p-2", Name: "John Smith", TotalPoints: -6},
	}
}

func newExportServiceForTest() *ExportService {
	svc := NewExportService(zap.NewNop(), nil, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC) }
	return svc
}

func TestExportServiceLeaderboardCSV(t *testing.T) {
	file, err := newExportServiceForTest().Leaderboard(exportEntries(), models.ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "leaderboard_20240305_083000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	assert.Equal(t, "Rank,Name,Handle,Active,Points,Streak,Freeze Cards\n"+
		"1,Jane Doe,janedoe,yes,80,4,1\n"+
		"2,John Smith,,no,-6,0,0\n", string(file.Body))
}

func TestExportServiceLeaderboardPDF(t *testing.T) {
	file, err := newExportServiceForTest().Leaderboard(exportEntries(), models.ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Body, []byte("%PDF-")))
}

func TestExportServiceLeaderboardErrors(t *testing.T) {
	svc := newExportServiceForTest()
	_, err := svc.Leaderboard(nil, models.ExportFormat("xlsx"))
	require.Error(t, err)

	svc.csv = failingRenderer{}
	_, err = svc.Leaderboard(exportEntries(), "")
	require.EqualError(t, err, "disk full")
}
