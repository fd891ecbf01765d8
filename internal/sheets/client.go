// Package sheets reads the activity grids from a Google spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/noah-isme/mellowboard/internal/models"
	"github.com/noah-isme/mellowboard/pkg/config"
)

const readOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

var gridFields = googleapi.Field("sheets(properties/title,data(rowData(values(formattedValue,effectiveFormat/backgroundColor))))")

// Client fetches the task, identity and meeting sheets in one spreadsheets.get call.
type Client struct {
	svc     *gsheets.Service
	cfg     config.SheetsConfig
	logger  *zap.Logger
	timeout time.Duration
}

// New builds a client from a credentials file or from a service account email and key.
func New(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}
	opts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, cfg: cfg, logger: logger, timeout: cfg.Timeout}, nil
}

func clientOptions(ctx context.Context, cfg config.SheetsConfig) ([]option.ClientOption, error) {
	switch {
	case cfg.ClientEmail != "" && cfg.PrivateKey != "":
		jwtCfg := &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(UnescapeKey(cfg.PrivateKey)),
			Scopes:     []string{readOnlyScope},
			TokenURL:   google.JWTTokenURL,
		}
		return []option.ClientOption{option.WithTokenSource(jwtCfg.TokenSource(ctx))}, nil
	case cfg.CredentialsFile != "":
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile), option.WithScopes(readOnlyScope)}, nil
	default:
		creds, err := google.FindDefaultCredentials(ctx, readOnlyScope)
		if err != nil {
			return nil, fmt.Errorf("find google credentials: %w", err)
		}
		return []option.ClientOption{option.WithCredentials(creds)}, nil
	}
}

// UnescapeKey turns literal \n sequences from environment variables into newlines.
func UnescapeKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// Fetch downloads the three configured ranges with their cell formatting.
func (c *Client) Fetch(ctx context.Context) (models.Sheets, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	start := time.Now()
	ranges := []string{c.cfg.TaskRange, c.cfg.IdentityRange, c.cfg.MeetingRange}
	resp, err := c.svc.Spreadsheets.Get(c.cfg.SpreadsheetID).
		Ranges(ranges...).
		IncludeGridData(true).
		Fields(gridFields).
		Context(ctx).
		Do()
	if err != nil {
		return models.Sheets{}, fmt.Errorf("get spreadsheet: %w", err)
	}
	grids, err := GridsForRanges(resp, ranges)
	if err != nil {
		return models.Sheets{}, err
	}
	c.logger.Debug("spreadsheet fetched",
		zap.Int("task_rows", grids[0].Rows()),
		zap.Int("identity_rows", grids[1].Rows()),
		zap.Int("meeting_rows", grids[2].Rows()),
		zap.Duration("duration", time.Since(start)),
	)
	return models.Sheets{Tasks: grids[0], Identities: grids[1], Meetings: grids[2]}, nil
}

// GridsForRanges matches response sheets to the requested ranges by sheet title, falling
// back to response order for ranges without a sheet name. When several ranges name the
// same sheet, the sheet carries one data block per range in request order and each range
// gets its own block.
func GridsForRanges(resp *gsheets.Spreadsheet, ranges []string) ([]models.Grid, error) {
	if resp == nil {
		return nil, errors.New("empty spreadsheet response")
	}
	byTitle := make(map[string]*gsheets.Sheet, len(resp.Sheets))
	for _, sheet := range resp.Sheets {
		if sheet != nil && sheet.Properties != nil {
			byTitle[sheet.Properties.Title] = sheet
		}
	}
	shared := make(map[string]int, len(ranges))
	for _, rng := range ranges {
		if title := SheetTitle(rng); title != "" {
			shared[title]++
		}
	}

	seen := make(map[string]int, len(ranges))
	grids := make([]models.Grid, len(ranges))
	for i, rng := range ranges {
		title := SheetTitle(rng)
		var sheet *gsheets.Sheet
		if title != "" {
			sheet = byTitle[title]
		}
		if sheet == nil && i < len(resp.Sheets) {
			sheet = resp.Sheets[i]
		}
		if sheet == nil {
			return nil, fmt.Errorf("range %q missing from spreadsheet response", rng)
		}
		if title == "" || shared[title] < 2 {
			grids[i] = ConvertSheet(sheet)
			continue
		}
		if len(sheet.Data) != shared[title] {
			return nil, fmt.Errorf("range %q: sheet %q returned %d data blocks for %d ranges", rng, title, len(sheet.Data), shared[title])
		}
		grids[i] = convertGridData(sheet.Data[seen[title]])
		seen[title]++
	}
	return grids, nil
}

// SheetTitle extracts the sheet name from an A1 range such as 'Commit Box'!A1:Z100.
func SheetTitle(rng string) string {
	idx := strings.LastIndex(rng, "!")
	if idx < 0 {
		return ""
	}
	title := rng[:idx]
	if len(title) >= 2 && strings.HasPrefix(title, "'") && strings.HasSuffix(title, "'") {
		title = strings.ReplaceAll(title[1:len(title)-1], "''", "'")
	}
	return title
}

// ConvertSheet flattens a sheet's grid data into a models.Grid.
func ConvertSheet(sheet *gsheets.Sheet) models.Grid {
	var g models.Grid
	for _, data := range sheet.Data {
		g = append(g, convertGridData(data)...)
	}
	return g
}

func convertGridData(data *gsheets.GridData) models.Grid {
	if data == nil {
		return nil
	}
	g := make(models.Grid, 0, len(data.RowData))
	for _, row := range data.RowData {
		var cells []models.Cell
		if row != nil {
			cells = make([]models.Cell, len(row.Values))
			for j, value := range row.Values {
				cells[j] = convertCell(value)
			}
		}
		g = append(g, cells)
	}
	return g
}

func convertCell(value *gsheets.CellData) models.Cell {
	if value == nil {
		return models.Cell{}
	}
	cell := models.Cell{Text: value.FormattedValue}
	if value.EffectiveFormat != nil && value.EffectiveFormat.BackgroundColor != nil {
		bg := value.EffectiveFormat.BackgroundColor
		cell.Color = &models.RGB{Red: bg.Red, Green: bg.Green, Blue: bg.Blue}
	}
	return cell
}
