package commands

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uhppoted/uhppoted-app-wordpress/retention"
	"github.com/uhppoted/uhppoted-app-wordpress/sheet"
)

var GetCmd = Get{
	command: command{},
	file:    time.Now().Format("2006-01-02T150405.tsv"),
}

type Get struct {
	command
	file string
}

func (cmd *Get) Name() string {
	return "get"
}

func (cmd *Get) Description() string {
	return "Retrieves the posts worksheet and stores it to a local TSV file"
}

func (cmd *Get) Usage() string {
	return "--url <url> --range <range> --file <file>"
}

func (cmd *Get) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] get [options] --url <URL> --range <range> --file <file>\n", APP)
	fmt.Println()
	fmt.Println("  Downloads the posts worksheet to a TSV file")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-wordpress --debug get --credentials "credentials.json" \`)
	fmt.Println(`                                       --url "https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms" \`)
	fmt.Println(`                                       --range "Posts!A1:D" \`)
	fmt.Println(`                                       --file "posts.tsv"`)
	fmt.Println()
}

func (cmd *Get) FlagSet() *flag.FlagSet {
	flagset := cmd.flagset("get")

	flagset.StringVar(&cmd.file, "file", cmd.file, "TSV file name. Defaults to '<yyyy-mm-ddTHHmmss>.tsv'")

	return flagset
}

func (cmd *Get) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := cmd.configure(options)
	if err != nil {
		return err
	}

	ctx := context.Background()

	s, closer, err := cmd.open(ctx, conf)
	if err != nil {
		return err
	}

	defer closer()

	rows, err := s.Rows(ctx)
	if err != nil {
		return fmt.Errorf("unable to retrieve data from sheet (%w)", err)
	}

	tmp, err := os.CreateTemp(os.TempDir(), "posts")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := sheetToTSV(tmp, dated(rows, conf.Columns.Date)); err != nil {
		return fmt.Errorf("error creating TSV file (%w)", err)
	}

	tmp.Close()

	dir := filepath.Dir(cmd.file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), cmd.file); err != nil {
		return err
	}

	infof("retrieved worksheet to file %s", cmd.file)

	return nil
}

// dated replaces the serial numbers in the date column with formatted dates. The first column is
// the date column if none is configured.
func dated(rows [][]any, column string) [][]any {
	if len(rows) == 0 {
		return rows
	}

	ix := 0
	if column != "" {
		if ix = sheet.IndexOf(rows[0], column); ix < 0 {
			return rows
		}
	}

	for _, row := range rows[1:] {
		if ix < len(row) {
			if v, ok := row[ix].(float64); ok {
				if t, err := retention.ParseDate(v, time.Local); err == nil {
					row[ix] = t.Format("2006-01-02 15:04:05")
				}
			}
		}
	}

	return rows
}
