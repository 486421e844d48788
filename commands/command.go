package commands

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/uhppoted/uhppoted-app-wordpress/config"
	"github.com/uhppoted/uhppoted-app-wordpress/lock"
	"github.com/uhppoted/uhppoted-app-wordpress/secrets"
	"github.com/uhppoted/uhppoted-app-wordpress/sheet"
	"github.com/uhppoted/uhppoted-app-wordpress/sheet/google"
	"github.com/uhppoted/uhppoted-app-wordpress/sheet/xlsx"
	"github.com/uhppoted/uhppoted-app-wordpress/wordpress"
)

const APP = "uhppoted-app-wordpress"

const SHEETS = "https://www.googleapis.com/auth/spreadsheets"

const LOCKFILE = "uhppoted-app-wordpress.lock"

var LOCKWAIT = 30 * time.Minute

type Options struct {
	Config string
	Debug  bool
}

// command holds the options shared by the commands that access the worksheet. Values set on the command
// line override the configuration file.
type command struct {
	workdir     string
	credentials string
	tokens      string
	url         string
	area        string
	xlsx        string
	debug       bool
}

func (c *command) flagset(name string) *flag.FlagSet {
	flagset := flag.NewFlagSet(name, flag.ExitOnError)

	flagset.StringVar(&c.workdir, "workdir", c.workdir, "Directory for working files (tokens, lockfile, etc)")
	flagset.StringVar(&c.credentials, "credentials", c.credentials, "Path for the Google 'credentials.json' file")
	flagset.StringVar(&c.tokens, "tokens", c.tokens, "Directory for the authorisation tokens. Defaults to <workdir>/.google")
	flagset.StringVar(&c.url, "url", c.url, "Spreadsheet URL")
	flagset.StringVar(&c.area, "range", c.area, "Spreadsheet range e.g. 'Posts!A1:Z'")
	flagset.StringVar(&c.xlsx, "xlsx", c.xlsx, "Local Excel workbook to use in place of a Google Sheets worksheet")

	return flagset
}

// configure loads the configuration file and overlays the command line options.
func (c *command) configure(options *Options) (*config.Config, error) {
	c.debug = options.Debug

	conf, err := loadConfig(options)
	if err != nil {
		return nil, err
	}

	c.apply(conf)

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *command) apply(conf *config.Config) {
	overlay(&conf.Workdir, c.workdir)
	overlay(&conf.Sheets.Credentials, c.credentials)
	overlay(&conf.Sheets.URL, c.url)
	overlay(&conf.Sheets.Range, c.area)
	overlay(&conf.Sheets.XLSX, c.xlsx)

	if c.tokens == "" {
		c.tokens = filepath.Join(conf.Workdir, ".google")
	}
}

// lock waits for the workdir lock, for at most LOCKWAIT, so that runs scheduled for the same time are
// serialised rather than skipped.
func (c *command) lock(ctx context.Context, conf *config.Config) (*lock.Lock, error) {
	file := filepath.Join(conf.Workdir, LOCKFILE)

	ctx, cancel := context.WithTimeout(ctx, LOCKWAIT)
	defer cancel()

	l, err := lock.Wait(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("unable to acquire lock %v (%w)", file, err)
	}

	debugf("acquired lock %v", file)

	return l, nil
}

// open returns the worksheet selected by the configuration and a function to release it.
func (c *command) open(ctx context.Context, conf *config.Config) (sheet.Sheet, func(), error) {
	if conf.Sheets.XLSX != "" {
		name, _, _ := strings.Cut(conf.Sheets.Range, "!")
		workbook, err := xlsx.Open(conf.Sheets.XLSX, name)
		if err != nil {
			return nil, nil, err
		}

		debugf("workbook %v  worksheet:%v", conf.Sheets.XLSX, workbook.Name())

		return workbook, func() { workbook.Close() }, nil
	}

	spreadsheet, err := google.SpreadsheetID(conf.Sheets.URL)
	if err != nil {
		return nil, nil, err
	}

	debugf("spreadsheet - ID:%s  range:%s", spreadsheet, conf.Sheets.Range)

	opts, err := authorize(ctx, conf.Sheets.Credentials, SHEETS, c.tokens)
	if err != nil {
		return nil, nil, fmt.Errorf("authentication/authorization error (%w)", err)
	}

	s, err := google.NewSheet(ctx, spreadsheet, conf.Sheets.Range, opts...)
	if err != nil {
		return nil, nil, err
	}

	return s, func() {}, nil
}

func publisher(ctx context.Context, conf *config.Config) (*wordpress.Client, error) {
	if err := conf.ValidateWordPress(); err != nil {
		return nil, err
	}

	token, err := secrets.Resolve(ctx, conf.WordPress.Token)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve WordPress token (%w)", err)
	}

	return wordpress.NewClient(conf.WordPress.Endpoint, token, wordpress.WithTimeout(conf.Timeout())), nil
}

func loadConfig(options *Options) (*config.Config, error) {
	file := options.Config
	if file == "" {
		file = config.DEFAULT_CONFIG
	}

	conf, err := config.Load(file)
	if err != nil {
		return nil, err
	}

	debugf("configuration %v", file)

	return conf, nil
}

func overlay(v *string, value string) {
	if strings.TrimSpace(value) != "" {
		*v = value
	}
}

func helpOptions(flagset *flag.FlagSet) {
	count := 0
	flag.VisitAll(func(f *flag.Flag) {
		count++
	})

	flagset.VisitAll(func(f *flag.Flag) {
		fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
	})

	if count > 0 {
		fmt.Println()
		fmt.Println("  Options:")
		flag.VisitAll(func(f *flag.Flag) {
			fmt.Printf("    --%-13s %s\n", f.Name, f.Usage)
		})
	}
}

func debugf(format string, args ...any) {
	log.Debugf(format, args...)
}

func infof(format string, args ...any) {
	log.Infof(format, args...)
}

func warnf(format string, args ...any) {
	log.Warnf(format, args...)
}

func errorf(format string, args ...any) {
	log.Errorf(format, args...)
}
