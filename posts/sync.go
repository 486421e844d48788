// Package posts publishes the rows of a worksheet as WordPress posts.
//
// Rows without a post ID are created and the ID assigned by WordPress is written back to the row's ID cell.
// Rows with a post ID update the existing post.
package posts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-wordpress/sheet"
	"github.com/uhppoted/uhppoted-app-wordpress/wordpress"
)

var ErrMissingIDColumn = errors.New("missing ID column")

// Publisher is the remote content API.
type Publisher interface {
	Create(ctx context.Context, post wordpress.Post) (wordpress.Post, error)
	Update(ctx context.Context, post wordpress.Post) error
}

type Columns struct {
	Title   string
	Content string
	ID      string
}

type Options struct {
	Columns Columns
	Status  string

	// FailFast stops the run at the first row that fails instead of continuing with the remaining rows.
	FailFast bool
	DryRun   bool
}

func DefaultOptions() Options {
	return Options{
		Columns: Columns{
			Title:   "Title",
			Content: "Content",
			ID:      "ID",
		},
		Status: wordpress.StatusPublish,
	}
}

type Synchronizer struct {
	sheet     sheet.Sheet
	publisher Publisher
	options   Options
	log       logrus.FieldLogger
}

func NewSynchronizer(s sheet.Sheet, publisher Publisher, options Options, log logrus.FieldLogger) *Synchronizer {
	defaults := DefaultOptions()

	if options.Columns.Title == "" {
		options.Columns.Title = defaults.Columns.Title
	}

	if options.Columns.Content == "" {
		options.Columns.Content = defaults.Columns.Content
	}

	if options.Columns.ID == "" {
		options.Columns.ID = defaults.Columns.ID
	}

	if options.Status == "" {
		options.Status = defaults.Status
	}

	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Synchronizer{
		sheet:     s,
		publisher: publisher,
		options:   options,
		log:       log,
	}
}

// Sync creates or updates a post for every data row in the sheet. Row failures are collected into the report
// and returned as a single joined error once all rows have been processed (or at the first failure in
// fail-fast mode). A sheet without an ID column fails before any post is published.
func (s *Synchronizer) Sync(ctx context.Context) (*Report, error) {
	rows, err := s.sheet.Rows(ctx)
	if err != nil {
		return nil, err
	} else if len(rows) == 0 {
		return nil, sheet.ErrEmptySheet
	}

	header := rows[0]
	columns := index{
		title:   sheet.IndexOf(header, s.options.Columns.Title),
		content: sheet.IndexOf(header, s.options.Columns.Content),
		id:      sheet.IndexOf(header, s.options.Columns.ID),
	}

	if columns.id < 0 {
		return nil, fmt.Errorf("%w '%v'", ErrMissingIDColumn, s.options.Columns.ID)
	}

	if columns.title < 0 {
		s.log.Warnf("worksheet has no '%v' column", s.options.Columns.Title)
	}

	if columns.content < 0 {
		s.log.Warnf("worksheet has no '%v' column", s.options.Columns.Content)
	}

	report := Report{}
	errs := []error{}

	for i, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		record := sheet.MakeRecord(header, row)
		result := s.sync(ctx, i, record, header, columns)

		report.Results = append(report.Results, result)

		if result.Err != nil {
			errs = append(errs, fmt.Errorf("row %v: %w", result.Row, result.Err))
			if s.options.FailFast {
				break
			}
		}
	}

	return &report, errors.Join(errs...)
}

type index struct {
	title   int
	content int
	id      int
}

func (s *Synchronizer) sync(ctx context.Context, i int, record sheet.Record, header []any, columns index) Result {
	row := i + 2
	post := wordpress.Post{
		Title:   field(record, header, columns.title),
		Content: field(record, header, columns.content),
		Status:  s.options.Status,
	}

	id := record[fmt.Sprintf("%v", header[columns.id])]
	log := s.log.WithField("row", row)

	if !truthy(id) {
		if post.Title == "" && post.Content == "" {
			log.Debugf("skipping blank row")
			return Result{Row: row, Action: Skipped}
		}

		if s.options.DryRun {
			log.Infof("dry run: create post '%v'", post.Title)
			return Result{Row: row, Action: Created, Title: post.Title}
		}

		created, err := s.publisher.Create(ctx, post)
		if err != nil {
			log.Warnf("error creating post (%v)", err)
			return Result{Row: row, Action: Created, Title: post.Title, Err: err}
		}

		if err := s.sheet.SetCell(ctx, row, columns.id+1, created.ID); err != nil {
			log.WithField("id", created.ID).Warnf("created post but failed to record post ID (%v)", err)
			return Result{Row: row, Action: Created, Title: post.Title, PostID: created.ID, Err: err}
		}

		log.WithField("id", created.ID).Infof("created post '%v'", post.Title)

		return Result{Row: row, Action: Created, Title: post.Title, PostID: created.ID}
	}

	post.ID = sheet.Format(id)
	log = log.WithField("id", post.ID)

	if s.options.DryRun {
		log.Infof("dry run: update post '%v'", post.Title)
		return Result{Row: row, Action: Updated, Title: post.Title, PostID: post.ID}
	}

	if err := s.publisher.Update(ctx, post); err != nil {
		log.Warnf("error updating post (%v)", err)
		return Result{Row: row, Action: Updated, Title: post.Title, PostID: post.ID, Err: err}
	}

	log.Infof("updated post '%v'", post.Title)

	return Result{Row: row, Action: Updated, Title: post.Title, PostID: post.ID}
}

func field(record sheet.Record, header []any, ix int) string {
	if ix < 0 {
		return ""
	}

	return record.String(fmt.Sprintf("%v", header[ix]))
}

// truthy mirrors the spreadsheet notion of an ID cell that holds a value: blank strings, zero and false
// are treated as 'no post ID'.
func truthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false

	case string:
		return strings.TrimSpace(value) != ""

	case bool:
		return value

	case float64:
		return value != 0

	case int:
		return value != 0

	case int64:
		return value != 0

	default:
		return sheet.Format(value) != ""
	}
}
