package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/uhppoted/uhppoted-app-wordpress/sheet"
)

// sheetToTSV writes the worksheet rows as tab separated values. Blank rows are skipped and short rows are
// padded to the width of the header.
func sheetToTSV(f io.Writer, rows [][]any) error {
	if len(rows) == 0 {
		return sheet.ErrEmptySheet
	}

	// ... header
	header := []string{}
	index := map[string]bool{}

	for _, v := range rows[0] {
		h := clean(sheet.Format(v))
		k := normalise(h)

		if k != "" {
			if index[k] {
				return fmt.Errorf("duplicate column name '%s'", h)
			}

			index[k] = true
		}

		header = append(header, h)
	}

	if len(index) == 0 {
		return fmt.Errorf("missing/invalid header row")
	}

	// ... records
	records := [][]string{}
	for _, row := range rows[1:] {
		record := make([]string, len(header))
		blank := true

		for i := range header {
			if i < len(row) {
				record[i] = clean(sheet.Format(row[i]))
			}

			if record[i] != "" {
				blank = false
			}
		}

		if !blank {
			records = append(records, record)
		}
	}

	// ... write to file
	w := csv.NewWriter(f)
	w.Comma = '\t'

	w.Write(header)
	for _, record := range records {
		w.Write(record)
	}

	w.Flush()

	return w.Error()
}

// clean replaces embedded tabs and line breaks, which would otherwise break the TSV row structure.
func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalise(v string) string {
	return strings.ToLower(strings.ReplaceAll(v, " ", ""))
}

// tsvToRows converts the records of a TSV file to worksheet rows, matching the TSV columns to the worksheet
// columns by name. A blank date cell is set to 'now'.
func tsvToRows(f io.Reader, header []any, date string, now time.Time) ([][]any, error) {
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("TSV file is empty")
	}

	// ... header
	columns := make([]int, len(records[0]))

	for i, v := range records[0] {
		h := clean(v)
		if h == "" {
			columns[i] = -1
		} else if columns[i] = sheet.IndexOf(header, h); columns[i] < 0 {
			return nil, fmt.Errorf("worksheet has no '%v' column", h)
		}
	}

	dated := 0
	if date != "" {
		dated = sheet.IndexOf(header, date)
	}

	// ... data
	rows := [][]any{}

	for _, record := range records[1:] {
		row := make([]any, len(header))
		blank := true

		for i := range row {
			row[i] = ""
		}

		for i, v := range record {
			if i < len(columns) && columns[i] >= 0 {
				if value := strings.TrimSpace(v); value != "" {
					row[columns[i]] = value
					blank = false
				}
			}
		}

		if blank {
			continue
		}

		if dated >= 0 && dated < len(row) && row[dated] == "" {
			row[dated] = now.Format("2006-01-02 15:04:05")
		}

		rows = append(rows, row)
	}

	return rows, nil
}
