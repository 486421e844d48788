// Package retention removes worksheet rows dated before a rolling cutoff.
package retention

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-wordpress/sheet"
)

const DefaultDays = 7

var layouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"1/2/2006",
	"1/2/2006 15:04:05",
	"02 Jan 2006",
	"Jan 2, 2006",
}

// spreadsheet serial dates count days from 1899-12-30
var epoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

type Options struct {
	Days int

	// DateColumn names the column holding the row date. The first column is used if it is blank.
	DateColumn string
	DryRun     bool
}

type Report struct {
	Cutoff time.Time

	// Deleted lists the 1-based sheet rows removed, in ascending order and numbered as they were before
	// any deletion.
	Deleted []int

	// Undated lists the rows that were retained because the date could not be parsed.
	Undated []int
}

type Pruner struct {
	sheet   sheet.Sheet
	options Options
	now     func() time.Time
	log     logrus.FieldLogger
}

func NewPruner(s sheet.Sheet, options Options, log logrus.FieldLogger) *Pruner {
	if options.Days <= 0 {
		options.Days = DefaultDays
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Pruner{
		sheet:   s,
		options: options,
		now:     time.Now,
		log:     log,
	}
}

// WithClock replaces the pruner's notion of 'now'.
func (p *Pruner) WithClock(now func() time.Time) *Pruner {
	p.now = now

	return p
}

// Cutoff returns midnight 'days' calendar days before 'now', in the location of 'now'.
func Cutoff(now time.Time, days int) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day()-days, 0, 0, 0, 0, now.Location())
}

// Prune deletes every data row with a date strictly before the cutoff. The stale rows are identified
// against a single snapshot of the sheet and deleted bottom up, so a deletion never shifts the position of
// a row that is still to be deleted.
func (p *Pruner) Prune(ctx context.Context) (*Report, error) {
	now := p.now()
	cutoff := Cutoff(now, p.options.Days)
	report := Report{
		Cutoff:  cutoff,
		Deleted: []int{},
		Undated: []int{},
	}

	rows, err := p.sheet.Rows(ctx)
	if err != nil {
		return nil, err
	} else if len(rows) == 0 {
		return &report, nil
	}

	column := 0
	if p.options.DateColumn != "" {
		if column = sheet.IndexOf(rows[0], p.options.DateColumn); column < 0 {
			return nil, fmt.Errorf("missing '%v' column", p.options.DateColumn)
		}
	}

	p.log.Infof("pruning rows from before %v", cutoff.Format("2006-01-02"))

	for i, row := range rows[1:] {
		r := i + 2

		var v any
		if column < len(row) {
			v = row[column]
		}

		date, err := ParseDate(v, now.Location())
		if err != nil {
			p.log.WithField("row", r).Warnf("retaining row with invalid date (%v)", err)
			report.Undated = append(report.Undated, r)
			continue
		}

		if date.Before(cutoff) {
			report.Deleted = append(report.Deleted, r)
		}
	}

	if p.options.DryRun {
		p.log.Infof("dry run: would have deleted rows %v", report.Deleted)
		return &report, nil
	}

	if len(report.Deleted) > 0 {
		if err := p.delete(ctx, report.Deleted); err != nil {
			return &report, err
		}
	}

	p.log.Infof("pruned %v rows from before %v", len(report.Deleted), cutoff.Format("2006-01-02"))

	return &report, nil
}

func (p *Pruner) delete(ctx context.Context, rows []int) error {
	if deleter, ok := p.sheet.(sheet.RangeDeleter); ok {
		return deleter.DeleteRows(ctx, rows)
	}

	list := append([]int{}, rows...)
	sort.Sort(sort.Reverse(sort.IntSlice(list)))

	for _, row := range list {
		if err := p.sheet.DeleteRow(ctx, row); err != nil {
			return fmt.Errorf("error deleting row %v (%w)", row, err)
		}
	}

	return nil
}

// ParseDate converts a date cell to a time in the given location. Strings are parsed against the common
// spreadsheet date formats and numbers are treated as spreadsheet serial dates.
func ParseDate(v any, location *time.Location) (time.Time, error) {
	switch value := v.(type) {
	case time.Time:
		return value.In(location), nil

	case float64:
		days, fraction := math.Modf(value)
		t := epoch.AddDate(0, 0, int(days)).Add(time.Duration(fraction * 24 * float64(time.Hour)))

		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, location), nil

	case int:
		return ParseDate(float64(value), location)

	case string:
		s := strings.TrimSpace(value)
		if s == "" {
			return time.Time{}, fmt.Errorf("blank date")
		}

		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, s, location); err == nil {
				return t, nil
			}
		}

		return time.Time{}, fmt.Errorf("unrecognised date '%v'", s)

	default:
		return time.Time{}, fmt.Errorf("unrecognised date '%v'", v)
	}
}
