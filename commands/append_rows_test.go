package commands

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestTSVToRows(t *testing.T) {
	now := time.Date(2024, time.January, 10, 8, 15, 0, 0, time.Local)
	header := []any{"Date", "Title", "Content", "ID"}
	tsv := "title\tcontent\n" +
		"New gate\tThe north gate is open\n" +
		"\t\n" +
		"Opening hours\tClosed on Monday\n"

	rows, err := tsvToRows(strings.NewReader(tsv), header, "", now)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	expected := [][]any{
		[]any{"2024-01-10 08:15:00", "New gate", "The north gate is open", ""},
		[]any{"2024-01-10 08:15:00", "Opening hours", "Closed on Monday", ""},
	}

	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Incorrect rows\n   expected: %v\n   got:      %v\n", expected, rows)
	}
}

func TestTSVToRowsWithDate(t *testing.T) {
	now := time.Date(2024, time.January, 10, 8, 15, 0, 0, time.Local)
	header := []any{"Title", "Content", "Published", "ID"}
	tsv := "Published\tTitle\tContent\n" +
		"2024-01-05\tNew gate\tThe north gate is open\n"

	rows, err := tsvToRows(strings.NewReader(tsv), header, "Published", now)
	if err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	expected := [][]any{
		[]any{"New gate", "The north gate is open", "2024-01-05", ""},
	}

	if !reflect.DeepEqual(rows, expected) {
		t.Errorf("Incorrect rows\n   expected: %v\n   got:      %v\n", expected, rows)
	}
}

func TestTSVToRowsWithUnknownColumn(t *testing.T) {
	header := []any{"Date", "Title", "Content", "ID"}
	tsv := "Title\tSummary\n" +
		"New gate\tThe north gate is open\n"

	if _, err := tsvToRows(strings.NewReader(tsv), header, "", time.Now()); err == nil {
		t.Errorf("Expected error, got %v", err)
	}
}

func TestTSVToRowsWithEmptyFile(t *testing.T) {
	if _, err := tsvToRows(strings.NewReader(""), []any{"Title"}, "", time.Now()); err == nil {
		t.Errorf("Expected error, got %v", err)
	}
}

func TestAppendRows(t *testing.T) {
	dir := t.TempDir()
	workbook := filepath.Join(dir, "posts.xlsx")
	file := filepath.Join(dir, "news.tsv")

	makeWorkbook(t, workbook, [][]any{
		{"Date", "Title", "Content", "ID"},
		{"2024-01-01", "Opening hours", "Closed on Monday", "41"},
	})

	tsv := "Title\tContent\nNew gate\tThe north gate is open\n"
	if err := os.WriteFile(file, []byte(tsv), 0644); err != nil {
		t.Fatalf("%v", err)
	}

	cmd := AppendRows{
		command: command{
			workdir: dir,
			xlsx:    workbook,
			area:    "Posts",
		},
		file: file,
		now: func() time.Time {
			return time.Date(2024, time.January, 10, 8, 15, 0, 0, time.Local)
		},
	}

	if err := cmd.Execute(&Options{Config: filepath.Join(dir, "missing.toml")}); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	f, err := excelize.OpenFile(workbook)
	if err != nil {
		t.Fatalf("%v", err)
	}

	defer f.Close()

	rows, err := f.GetRows("Posts")
	if err != nil {
		t.Fatalf("%v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("Incorrect number of rows\n   expected: %v\n   got:      %v\n", 3, len(rows))
	}

	expected := []string{"2024-01-10 08:15:00", "New gate", "The north gate is open"}
	if got := rows[2][:3]; !reflect.DeepEqual(got, expected) {
		t.Errorf("Incorrect appended row\n   expected: %v\n   got:      %v\n", expected, got)
	}
}
