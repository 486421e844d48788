package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/uhppoted/uhppoted-app-wordpress/sheet"
)

var AppendRowsCmd = AppendRows{
	command: command{},
	file:    "",
	now:     time.Now,
}

type AppendRows struct {
	command
	file string
	now  func() time.Time
}

func (cmd *AppendRows) Name() string {
	return "append-rows"
}

func (cmd *AppendRows) Description() string {
	return "Appends the rows of a TSV file to the posts worksheet"
}

func (cmd *AppendRows) Usage() string {
	return "--url <url> --range <range> --file <file>"
}

func (cmd *AppendRows) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] append-rows [options] --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Appends the rows of a TSV file to the end of the posts worksheet, to be published by the next")
	fmt.Println("  sync-posts. The TSV header row names the worksheet columns to fill and rows without a date are")
	fmt.Println("  dated with the current date and time. Reads from stdin if --file is not specified.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-wordpress append-rows --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                                       --range "Posts!A1:D" \`)
	fmt.Println(`                                       --file "news.tsv"`)
	fmt.Println()
}

func (cmd *AppendRows) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("append-rows")

	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file with a header row. Defaults to stdin")

	return flagset
}

func (cmd *AppendRows) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	var r io.Reader = os.Stdin
	if cmd.file != "" {
		f, err := os.Open(cmd.file)
		if err != nil {
			return err
		}

		defer f.Close()

		r = f
	}

	ctx := context.Background()

	l, err := cmd.lock(ctx, conf)
	if err != nil {
		return err
	}

	defer l.Release()

	s, closer, err := cmd.open(ctx, conf)
	if err != nil {
		return err
	}

	defer closer()

	appender, ok := s.(sheet.Appender)
	if !ok {
		return fmt.Errorf("worksheet does not support appending rows")
	}

	rows, err := s.Rows(ctx)
	if err != nil {
		return fmt.Errorf("unable to retrieve data from sheet (%w)", err)
	} else if len(rows) == 0 {
		return sheet.ErrEmptySheet
	}

	now := time.Now
	if cmd.now != nil {
		now = cmd.now
	}

	records, err := tsvToRows(r, rows[0], conf.Columns.Date, now())
	if err != nil {
		return fmt.Errorf("error reading TSV file (%w)", err)
	}

	for i, record := range records {
		if err := appender.AppendRow(ctx, record); err != nil {
			return fmt.Errorf("appended %v of %v rows (%w)", i, len(records), err)
		}
	}

	infof("append-rows  appended %v rows", len(records))

	return nil
}
