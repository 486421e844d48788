// Package config loads the uhppoted-app-wordpress TOML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Workdir   string    `toml:"workdir"`
	WordPress WordPress `toml:"wordpress"`
	Sheets    Sheets    `toml:"sheets"`
	Columns   Columns   `toml:"columns"`
	Retention Retention `toml:"retention"`
	Schedule  Schedule  `toml:"schedule"`
	Daemon    Daemon    `toml:"daemon"`
	Notify    Notify    `toml:"notify"`
}

type WordPress struct {
	// Endpoint is the posts API e.g. https://example.com/wp-json/wp/v2/posts
	Endpoint string `toml:"endpoint"`

	// Token is the bearer token or a token reference (env:, file:, aws-secretsmanager:)
	Token   string `toml:"token"`
	Status  string `toml:"status"`
	Timeout uint   `toml:"timeout"`
}

type Sheets struct {
	Credentials string `toml:"credentials"`
	URL         string `toml:"url"`
	Range       string `toml:"range"`

	// XLSX selects a local Excel workbook in place of a Google Sheets worksheet. The range is then the
	// worksheet name.
	XLSX string `toml:"xlsx"`
}

type Columns struct {
	Title   string `toml:"title"`
	Content string `toml:"content"`
	ID      string `toml:"id"`
	Date    string `toml:"date"`
}

type Retention struct {
	Days int `toml:"days"`
}

type Schedule struct {
	SyncIntervalHours int `toml:"sync-interval-hours"`
	PruneHour         int `toml:"prune-hour"`
}

type Daemon struct {
	Listen string `toml:"listen"`
}

type Notify struct {
	// Webhook is the URL (or a secret reference to the URL) that is notified of each new post
	// e.g. https://maker.ifttt.com/trigger/new-post/with/key/<key>
	Webhook string `toml:"webhook"`
}

func Default() Config {
	return Config{
		Workdir: DEFAULT_WORKDIR,
		WordPress: WordPress{
			Status:  "publish",
			Timeout: 30,
		},
		Sheets: Sheets{
			Credentials: DEFAULT_CREDENTIALS,
			Range:       "Posts!A1:Z",
		},
		Columns: Columns{
			Title:   "Title",
			Content: "Content",
			ID:      "ID",
		},
		Retention: Retention{
			Days: 7,
		},
		Schedule: Schedule{
			SyncIntervalHours: 1,
			PruneHour:         1,
		},
		Daemon: Daemon{
			Listen: "",
		},
	}
}

// Load reads the configuration file over the defaults. A missing file is not an error and returns the
// defaults.
func Load(file string) (*Config, error) {
	c := Default()

	if strings.TrimSpace(file) == "" {
		return &c, nil
	}

	b, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &c, nil
		}

		return nil, err
	}

	if err := toml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("error parsing configuration file %v (%w)", file, err)
	}

	return &c, nil
}

// Write encodes the configuration as TOML.
func (c Config) Write(w io.Writer) error {
	encoder := toml.NewEncoder(w)
	encoder.SetIndentTables(true)

	return encoder.Encode(c)
}

// Save writes the configuration to a TOML file, replacing the file atomically.
func (c Config) Save(file string) error {
	var b bytes.Buffer
	if err := c.Write(&b); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(file), 0770); err != nil {
		return err
	}

	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, b.Bytes(), 0640); err != nil {
		return err
	}

	if err := os.Rename(tmp, file); err != nil {
		os.Remove(tmp)
		return err
	}

	return nil
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.WordPress.Timeout) * time.Second
}

// Validate checks the settings shared by every command.
func (c Config) Validate() error {
	if c.Retention.Days < 1 {
		return fmt.Errorf("%w: retention days must be at least 1 (%v)", ErrInvalid, c.Retention.Days)
	}

	if c.Schedule.SyncIntervalHours < 1 || c.Schedule.SyncIntervalHours > 24 {
		return fmt.Errorf("%w: sync interval must be between 1 and 24 hours (%v)", ErrInvalid, c.Schedule.SyncIntervalHours)
	}

	if c.Schedule.PruneHour < 0 || c.Schedule.PruneHour > 23 {
		return fmt.Errorf("%w: prune hour must be between 0 and 23 (%v)", ErrInvalid, c.Schedule.PruneHour)
	}

	if strings.TrimSpace(c.Sheets.XLSX) == "" {
		if strings.TrimSpace(c.Sheets.URL) == "" {
			return fmt.Errorf("%w: missing spreadsheet URL", ErrInvalid)
		}

		if strings.TrimSpace(c.Sheets.Range) == "" {
			return fmt.Errorf("%w: missing spreadsheet range", ErrInvalid)
		}
	}

	return nil
}

// ValidateWordPress checks the settings needed to publish posts.
func (c Config) ValidateWordPress() error {
	if strings.TrimSpace(c.WordPress.Endpoint) == "" {
		return fmt.Errorf("%w: missing WordPress endpoint", ErrInvalid)
	}

	if !strings.HasPrefix(c.WordPress.Endpoint, "http://") && !strings.HasPrefix(c.WordPress.Endpoint, "https://") {
		return fmt.Errorf("%w: invalid WordPress endpoint '%v'", ErrInvalid, c.WordPress.Endpoint)
	}

	if strings.TrimSpace(c.WordPress.Token) == "" {
		return fmt.Errorf("%w: missing WordPress token", ErrInvalid)
	}

	return nil
}
