package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	ports "fintrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base sheet name without year (e.g. "Transactions"); the year is prefixed per row.
	sheetBase string
	logger    *log.Logger
}

// Ensure interface conformance
var (
	_ ports.TransactionExporter = (*Client)(nil)
	_ ports.TransactionLister   = (*Client)(nil)
)

type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountFile string
	ServiceAccountJSON string
}

// New creates a Sheets client authenticated with a service account.
// Credentials come from ServiceAccountJSON, ServiceAccountFile, or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg.SpreadsheetID, cfg.SheetName, logger), nil
}

// NewWithService wraps an already configured service.
func NewWithService(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Discard()
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Transactions"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetBase:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func loadCredentials(cfg Config) ([]byte, error) {
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// Export appends the transactions to their year's sheet, creating the sheet
// with a header row when it does not exist yet.
func (c *Client) Export(ctx context.Context, txs []core.Transaction) (ports.ExportResult, error) {
	var res ports.ExportResult
	if c.svc == nil {
		return res, errors.New("sheets service not initialized")
	}

	byYear := map[int][]core.Transaction{}
	for _, t := range txs {
		if t.TransactionDate.IsZero() {
			res.Skipped++
			continue
		}
		y := t.TransactionDate.Year()
		byYear[y] = append(byYear[y], t)
	}
	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	titles, err := c.sheetTitles(ctx)
	if err != nil {
		return res, err
	}

	for _, year := range years {
		sheet := yearPrefixedName(c.sheetBase, year)
		if !titles[sheet] {
			if err := c.createSheet(ctx, sheet); err != nil {
				return res, err
			}
			titles[sheet] = true
		}

		existing, err := c.readIDs(ctx, sheet)
		if err != nil {
			return res, err
		}
		var rows [][]any
		for _, t := range byYear[year] {
			if existing[t.ID] {
				res.Skipped++
				continue
			}
			existing[t.ID] = true
			rows = append(rows, toRow(t))
		}
		res.Sheets = append(res.Sheets, sheet)
		if len(rows) == 0 {
			continue
		}

		rng := fmt.Sprintf("%s!A:G", sheet)
		_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
			ValueInputOption("USER_ENTERED").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
		if err != nil {
			return res, fmt.Errorf("append to %s: %w", sheet, err)
		}
		res.Appended += len(rows)
		c.logger.InfoContext(ctx, "Appended transactions to sheet",
			log.FieldOperation, log.OpExport,
			log.FieldTarget, sheet,
			log.FieldCount, len(rows))
	}
	return res, nil
}

// ListTransactions reads back the rows of the given month.
func (c *Client) ListTransactions(ctx context.Context, year int, month int) ([]core.Transaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	if err := core.YearMonth(year, month); err != nil {
		return nil, err
	}
	rng := fmt.Sprintf("%s!A:G", yearPrefixedName(c.sheetBase, year))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []core.Transaction
	for _, row := range resp.Values {
		t, ok := parseRow(row)
		if !ok {
			continue
		}
		if int(t.TransactionDate.Month()) != month {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *Client) sheetTitles(ctx context.Context) (map[string]bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	titles := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles[s.Properties.Title] = true
		}
	}
	return titles, nil
}

func (c *Client) createSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	rng := fmt.Sprintf("%s!A1:G1", title)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header to %s: %w", title, err)
	}
	c.logger.InfoContext(ctx, "Created sheet", log.FieldTarget, title)
	return nil
}

func (c *Client) readIDs(ctx context.Context, sheet string) (map[int64]bool, error) {
	rng := fmt.Sprintf("%s!A:A", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	ids := make(map[int64]bool, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if id, err := strconv.ParseInt(toStrings(row[:1])[0], 10, 64); err == nil {
			ids[id] = true
		}
	}
	return ids, nil
}
