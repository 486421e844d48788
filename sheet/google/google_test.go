package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		area  string
		name  string
		left  int
		top   int
		valid bool
	}{
		{"Posts!A1:E", "Posts", 1, 1, true},
		{"Posts!C3:F", "Posts", 3, 3, true},
		{"Posts!B:E", "Posts", 2, 1, true},
		{"Posts", "Posts", 1, 1, true},
		{"'Class Data'!A2:E", "'Class Data'", 1, 2, true},
		{"Posts!AA10:AC20", "Posts", 27, 10, true},
		{"", "", 0, 0, false},
		{"A1:E", "", 0, 0, false},
		{"B2", "", 0, 0, false},
		{"A:E", "", 0, 0, false},
		{"AB", "AB", 1, 1, true},
		{"'Q1'!A1:E", "'Q1'", 1, 1, true},
	}

	for _, test := range tests {
		name, left, top, err := parseRange(test.area)
		if !test.valid {
			assert.Error(t, err, test.area)
			continue
		}

		require.NoError(t, err, test.area)
		assert.Equal(t, test.name, name, test.area)
		assert.Equal(t, test.left, left, test.area)
		assert.Equal(t, test.top, top, test.area)
	}
}

func TestSpreadsheetID(t *testing.T) {
	id, err := SpreadsheetID("https://docs.google.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms", id)

	_, err = SpreadsheetID("https://example.com/spreadsheets/d/1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms")
	assert.Error(t, err)
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		rows     []int
		expected []span
	}{
		{[]int{2}, []span{{2, 2}}},
		{[]int{2, 3, 4}, []span{{2, 4}}},
		{[]int{2, 4, 5, 9}, []span{{9, 9}, {4, 5}, {2, 2}}},
		{[]int{9, 2, 5, 4, 4}, []span{{9, 9}, {4, 5}, {2, 2}}},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, coalesce(test.rows), "rows %v", test.rows)
	}
}

func TestCell(t *testing.T) {
	s := Sheet{name: "Posts", left: 2, top: 3}

	cell, err := s.cell(2, 4)
	require.NoError(t, err)
	assert.Equal(t, "Posts!E4", cell)
}

func TestRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Contains(t, r.URL.Path, "/v4/spreadsheets/abc123/values/")
		assert.Equal(t, "UNFORMATTED_VALUE", r.URL.Query().Get("valueRenderOption"))
		assert.Equal(t, "SERIAL_NUMBER", r.URL.Query().Get("dateTimeRenderOption"))

		w.Write([]byte(`{"range":"Posts!A1:D3","values":[["Date","Title","Content","ID"],[45292,"A","a"],["2024-01-05","B","b",42]]}`))
	}))
	defer srv.Close()

	s := newTestSheet(t, srv, "Posts!A1:D")

	rows, err := s.Rows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []any{float64(45292), "A", "a"}, rows[1])
	assert.Equal(t, []any{"2024-01-05", "B", "b", float64(42)}, rows[2])
}

func TestAppendRow(t *testing.T) {
	var body sheets.ValueRange

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, ":append"), r.URL.Path)
		assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))
		assert.Equal(t, "INSERT_ROWS", r.URL.Query().Get("insertDataOption"))

		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &body))

		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := newTestSheet(t, srv, "Posts!A1:D")

	require.NoError(t, s.AppendRow(context.Background(), []any{"2024-01-05 10:30:00", "New gate", "The north gate is open"}))
	assert.Equal(t, [][]any{{"2024-01-05 10:30:00", "New gate", "The north gate is open"}}, body.Values)
}

func TestSetCell(t *testing.T) {
	var body sheets.ValueRange

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "RAW", r.URL.Query().Get("valueInputOption"))

		b, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(b, &body))

		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	s := newTestSheet(t, srv, "Posts!A1:D")

	require.NoError(t, s.SetCell(context.Background(), 2, 4, "42"))
	assert.Equal(t, "Posts!D2", body.Range)
	assert.Equal(t, [][]any{{"42"}}, body.Values)
}

func TestDeleteRows(t *testing.T) {
	var rq sheets.BatchUpdateSpreadsheetRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(sheets.Spreadsheet{
				SpreadsheetId: "abc123",
				Sheets: []*sheets.Sheet{
					{Properties: &sheets.SheetProperties{Title: "Other", SheetId: 1}},
					{Properties: &sheets.SheetProperties{Title: "Posts", SheetId: 7}},
				},
			})

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
			b, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(b, &rq))
			w.Write([]byte(`{}`))

		default:
			t.Errorf("unexpected request %v %v", r.Method, r.URL)
		}
	}))
	defer srv.Close()

	s := newTestSheet(t, srv, "Posts!A1:D")

	require.NoError(t, s.DeleteRows(context.Background(), []int{2, 5, 6}))
	require.Len(t, rq.Requests, 2)

	first := rq.Requests[0].DeleteDimension.Range
	assert.Equal(t, int64(7), first.SheetId)
	assert.Equal(t, "ROWS", first.Dimension)
	assert.Equal(t, int64(4), first.StartIndex)
	assert.Equal(t, int64(6), first.EndIndex)

	second := rq.Requests[1].DeleteDimension.Range
	assert.Equal(t, int64(1), second.StartIndex)
	assert.Equal(t, int64(2), second.EndIndex)
}

func newTestSheet(t *testing.T, srv *httptest.Server, area string) *Sheet {
	t.Helper()

	s, err := NewSheet(context.Background(), "abc123", area,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))

	require.NoError(t, err)

	return s
}
