package service

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/mellowboard/internal/dto"
	"github.com/noah-isme/mellowboard/internal/models"
	"github.com/noah-isme/mellowboard/pkg/export"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered export ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders leaderboard snapshots into downloadable files.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to the defaults.
func NewExportService(logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

var leaderboardColumns = []export.Column{
	{Title: "Rank", Weight: 0.6},
	{Title: "Name", Weight: 2.4},
	{Title: "Handle", Weight: 1.6},
	{Title: "Active", Weight: 0.8},
	{Title: "Points", Weight: 1},
	{Title: "Streak", Weight: 1},
	{Title: "Freeze Cards", Weight: 1.2},
}

// Leaderboard renders ranked entries in the requested format.
func (s *ExportService) Leaderboard(entries []dto.LeaderboardEntry, format models.ExportFormat) (*ExportFile, error) {
	if format == "" {
		format = models.ExportFormatCSV
	}
	dataset := export.Dataset{Columns: leaderboardColumns, Rows: make([][]string, 0, len(entries))}
	for _, entry := range entries {
		handle := ""
		if entry.Handle != nil {
			handle = *entry.Handle
		}
		active := "no"
		if entry.Active {
			active = "yes"
		}
		dataset.Rows = append(dataset.Rows, []string{
			strconv.Itoa(entry.Rank),
			entry.Name,
			handle,
			active,
			strconv.Itoa(entry.TotalPoints),
			strconv.Itoa(entry.Streak),
			strconv.Itoa(entry.FreezeCardCount),
		})
	}

	generated := s.now().UTC()
	var (
		body []byte
		err  error
	)
	switch format {
	case models.ExportFormatCSV:
		body, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		body, err = s.pdf.Render(dataset, fmt.Sprintf("Leaderboard %s", generated.Format("2 Jan 2006")))
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Debug("leaderboard export rendered", zap.String("format", string(format)), zap.Int("rows", len(entries)), zap.Int("bytes", len(body)))
	return &ExportFile{
		Filename:    fmt.Sprintf("leaderboard_%s.%s", generated.Format("20060102_150405"), format),
		ContentType: format.ContentType(),
		Body:        body,
	}, nil
}
