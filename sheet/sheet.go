package sheet

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrEmptySheet = errors.New("empty sheet")

// Sheet is the tabular data source shared by the post synchronizer and the row pruner. Row and column
// coordinates are 1-based and relative to the configured range, i.e. row 1 is the header row.
type Sheet interface {
	Rows(ctx context.Context) ([][]any, error)
	SetCell(ctx context.Context, row, col int, value any) error
	DeleteRow(ctx context.Context, row int) error
}

// RangeDeleter is implemented by sheets that can remove a set of rows in a single operation. The rows are
// identified by their positions before any deletion.
type RangeDeleter interface {
	DeleteRows(ctx context.Context, rows []int) error
}

// Appender is implemented by sheets that can add a row after the last row of the worksheet.
type Appender interface {
	AppendRow(ctx context.Context, values []any) error
}

// Record maps the header names of a worksheet to the cell values of a single data row.
type Record map[string]any

// MakeRecord zips a header row with a data row. Header cells without a matching data cell map to an empty
// string and data cells beyond the last header cell are ignored.
func MakeRecord(header []any, row []any) Record {
	record := Record{}

	for i, h := range header {
		k := fmt.Sprintf("%v", h)
		if i < len(row) {
			record[k] = row[i]
		} else {
			record[k] = ""
		}
	}

	return record
}

// String returns the trimmed string form of a record field, or "" if the field is missing or nil.
func (r Record) String(key string) string {
	return Format(r[key])
}

// IndexOf returns the 0-based index of the named column in the header row, or -1 if there is no such column.
// An exact match is preferred over a case and whitespace insensitive match.
func IndexOf(header []any, name string) int {
	for i, h := range header {
		if fmt.Sprintf("%v", h) == name {
			return i
		}
	}

	for i, h := range header {
		if normalise(fmt.Sprintf("%v", h)) == normalise(name) {
			return i
		}
	}

	return -1
}

// Format converts a cell value to a string. Whole numbers are formatted without an exponent so that numeric
// post IDs round trip unchanged.
func Format(v any) string {
	switch value := v.(type) {
	case nil:
		return ""

	case string:
		return clean(value)

	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)

	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)

	default:
		return clean(fmt.Sprintf("%v", value))
	}
}

func clean(v string) string {
	return strings.TrimSpace(v)
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}
