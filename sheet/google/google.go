package google

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	maxRetries = 6
	maxBackoff = 60 * time.Second
)

// Sheet is a sheet.Sheet backed by a Google Sheets worksheet range e.g. 'Posts!A1:E'.
type Sheet struct {
	service       *sheets.Service
	spreadsheetID string
	area          string
	name          string
	left          int
	top           int
	sheetID       *int64
}

// NewSheet creates a Google Sheets client for the spreadsheet and range. The range must start at the header
// row of the worksheet.
func NewSheet(ctx context.Context, spreadsheetID, area string, opts ...option.ClientOption) (*Sheet, error) {
	name, left, top, err := parseRange(area)
	if err != nil {
		return nil, err
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%w)", err)
	}

	return &Sheet{
		service:       service,
		spreadsheetID: spreadsheetID,
		area:          area,
		name:          name,
		left:          left,
		top:           top,
	}, nil
}

// SpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
func SpreadsheetID(url string) (string, error) {
	match := regexp.MustCompile(`^https://docs.google.com/spreadsheets/d/(.*?)(?:/.*)?$`).FindStringSubmatch(strings.TrimSpace(url))
	if len(match) < 2 || match[1] == "" {
		return "", fmt.Errorf("invalid spreadsheet URL - expected something like 'https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms'")
	}

	return match[1], nil
}

func (s *Sheet) Rows(ctx context.Context) ([][]any, error) {
	var response *sheets.ValueRange

	err := retry(ctx, "read worksheet", func() (err error) {
		response, err = s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.area).
			ValueRenderOption("UNFORMATTED_VALUE").
			DateTimeRenderOption("SERIAL_NUMBER").
			Context(ctx).
			Do()
		return
	})

	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from sheet (%w)", err)
	}

	return response.Values, nil
}

func (s *Sheet) SetCell(ctx context.Context, row, col int, value any) error {
	cell, err := s.cell(row, col)
	if err != nil {
		return err
	}

	rq := sheets.ValueRange{
		Range:  cell,
		Values: [][]any{{value}},
	}

	if _, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, cell, &rq).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("error updating cell %v (%w)", cell, err)
	}

	return nil
}

// AppendRow appends the values after the last row of the worksheet range.
func (s *Sheet) AppendRow(ctx context.Context, values []any) error {
	rq := sheets.ValueRange{
		Values: [][]any{values},
	}

	if _, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.area, &rq).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do(); err != nil {
		return fmt.Errorf("error appending row to worksheet (%w)", err)
	}

	return nil
}

func (s *Sheet) DeleteRow(ctx context.Context, row int) error {
	return s.DeleteRows(ctx, []int{row})
}

// DeleteRows removes the rows in a single batch update. Contiguous rows are coalesced into a single range and
// the ranges are deleted from the bottom up so that no deletion shifts a later one.
func (s *Sheet) DeleteRows(ctx context.Context, rows []int) error {
	if len(rows) == 0 {
		return nil
	}

	sheetID, err := s.getSheetID(ctx)
	if err != nil {
		return err
	}

	rq := sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{},
	}

	for _, r := range coalesce(rows) {
		rq.Requests = append(rq.Requests, &sheets.Request{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(s.top + r.start - 2),
					EndIndex:   int64(s.top + r.end - 1),
				},
			},
		})
	}

	if _, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, &rq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("error deleting rows from worksheet (%w)", err)
	}

	return nil
}

func (s *Sheet) cell(row, col int) (string, error) {
	column, err := excelize.ColumnNumberToName(s.left + col - 1)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s!%s%d", s.name, column, s.top+row-1), nil
}

func (s *Sheet) getSheetID(ctx context.Context) (int64, error) {
	if s.sheetID != nil {
		return *s.sheetID, nil
	}

	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to fetch spreadsheet (%w)", err)
	}

	title := strings.Trim(s.name, "'")
	for _, sheet := range spreadsheet.Sheets {
		if strings.ToLower(strings.TrimSpace(sheet.Properties.Title)) == strings.ToLower(strings.TrimSpace(title)) {
			id := sheet.Properties.SheetId
			s.sheetID = &id

			return id, nil
		}
	}

	return 0, fmt.Errorf("unable to identify worksheet for '%s'", s.area)
}

// a1 matches a cell or column range without a worksheet name e.g. A1:E, B2 or A:E
var a1 = regexp.MustCompile(`^[a-zA-Z]{1,3}(?:[0-9]+(?::[a-zA-Z]*[0-9]*)?|:[a-zA-Z]*[0-9]*)$`)

type span struct {
	start int
	end   int
}

// coalesce groups the rows into contiguous spans, highest span first.
func coalesce(rows []int) []span {
	list := append([]int{}, rows...)
	sort.Ints(list)

	spans := []span{}
	start := list[0]
	last := list[0]
	for _, row := range list[1:] {
		if row == last {
			continue
		}

		if row != last+1 {
			spans = append(spans, span{start, last})
			start = row
		}

		last = row
	}
	spans = append(spans, span{start, last})

	sort.Slice(spans, func(i, j int) bool { return spans[i].start > spans[j].start })

	return spans
}

// parseRange splits an A1 range into the worksheet name and the (1-based) column and row of the top left cell.
func parseRange(area string) (string, int, int, error) {
	match := regexp.MustCompile(`^(.+?)(?:!([a-zA-Z]+)([0-9]+)?(?::[a-zA-Z]*[0-9]*)?)?$`).FindStringSubmatch(strings.TrimSpace(area))
	if len(match) < 4 {
		return "", 0, 0, fmt.Errorf("invalid spreadsheet range '%s' - expected something like 'Posts!A1:E'", area)
	}

	name := match[1]
	if match[2] == "" && a1.MatchString(name) {
		return "", 0, 0, fmt.Errorf("invalid spreadsheet range '%s' - missing worksheet name e.g. 'Posts!A1:E'", area)
	}

	left := 1
	top := 1

	if match[2] != "" {
		if v, err := excelize.ColumnNameToNumber(match[2]); err != nil {
			return "", 0, 0, fmt.Errorf("invalid spreadsheet range '%s' (%w)", area, err)
		} else {
			left = v
		}
	}

	if match[3] != "" {
		if v, err := strconv.Atoi(match[3]); err != nil || v < 1 {
			return "", 0, 0, fmt.Errorf("invalid spreadsheet range '%s'", area)
		} else {
			top = v
		}
	}

	return name, left, top, nil
}

// retry retries a Sheets API call with exponential backoff while Google reports a rate limit error.
func retry(ctx context.Context, operation string, f func() error) error {
	var err error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err = f(); err == nil {
			return nil
		}

		var gErr *googleapi.Error
		if !errors.As(err, &gErr) || (gErr.Code != 429 && gErr.Code != 403) {
			return err
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		if backoff > maxBackoff {
			backoff = maxBackoff
		}

		log.Warnf("rate limited by Google Sheets API (%v), retrying in %v", operation, backoff)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%v failed after %d retries (%w)", operation, maxRetries, err)
}
