package sheet

import (
	"context"
	"reflect"
	"testing"
)

func TestMakeRecord(t *testing.T) {
	expected := Record{
		"Date":    "2024-01-01",
		"Title":   "A",
		"Content": "a",
		"ID":      "",
	}

	header := []any{"Date", "Title", "Content", "ID"}
	row := []any{"2024-01-01", "A", "a", ""}

	record := MakeRecord(header, row)

	if !reflect.DeepEqual(record, expected) {
		t.Errorf("Incorrect record\n   expected: %v\n   got:      %v\n", expected, record)
	}
}

func TestMakeRecordWithShortRow(t *testing.T) {
	expected := Record{
		"Date":    "2024-01-01",
		"Title":   "A",
		"Content": "",
		"ID":      "",
	}

	header := []any{"Date", "Title", "Content", "ID"}
	row := []any{"2024-01-01", "A"}

	record := MakeRecord(header, row)

	if !reflect.DeepEqual(record, expected) {
		t.Errorf("Incorrect record\n   expected: %v\n   got:      %v\n", expected, record)
	}
}

func TestMakeRecordWithLongRow(t *testing.T) {
	expected := Record{
		"Date":  "2024-01-01",
		"Title": "A",
	}

	record := MakeRecord([]any{"Date", "Title"}, []any{"2024-01-01", "A", "a", "42"})

	if !reflect.DeepEqual(record, expected) {
		t.Errorf("Incorrect record\n   expected: %v\n   got:      %v\n", expected, record)
	}
}

func TestMakeRecordWithEmptyHeader(t *testing.T) {
	record := MakeRecord([]any{}, []any{"2024-01-01", "A", "a", "42"})

	if len(record) != 0 {
		t.Errorf("Expected empty record, got %v", record)
	}
}

func TestMakeRecordPreservesValueTypes(t *testing.T) {
	record := MakeRecord([]any{"Date", "ID"}, []any{45292.0, 42.0})

	if record["Date"] != 45292.0 {
		t.Errorf("Incorrect 'Date' value - expected:%v, got:%v", 45292.0, record["Date"])
	}

	if record["ID"] != 42.0 {
		t.Errorf("Incorrect 'ID' value - expected:%v, got:%v", 42.0, record["ID"])
	}

	if s := record.String("ID"); s != "42" {
		t.Errorf("Incorrect 'ID' string - expected:%v, got:%v", "42", s)
	}
}

func TestIndexOf(t *testing.T) {
	header := []any{"Date", "Post Title", "Content", "ID", "id"}

	tests := []struct {
		name     string
		expected int
	}{
		{"Date", 0},
		{"posttitle", 1},
		{"Content", 2},
		{"ID", 3},
		{"id", 4},
		{"Id", 3},
		{"Status", -1},
	}

	for _, test := range tests {
		if ix := IndexOf(header, test.name); ix != test.expected {
			t.Errorf("Incorrect index for '%v' - expected:%v, got:%v", test.name, test.expected, ix)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		value    any
		expected string
	}{
		{nil, ""},
		{"  42 ", "42"},
		{42.0, "42"},
		{47000000.0, "47000000"},
		{1.5, "1.5"},
		{int64(17), "17"},
		{true, "true"},
	}

	for _, test := range tests {
		if s := Format(test.value); s != test.expected {
			t.Errorf("Incorrect format for %#v - expected:%q, got:%q", test.value, test.expected, s)
		}
	}
}

func TestMemorySetCell(t *testing.T) {
	expected := [][]any{
		{"Title", "Content", "ID"},
		{"A", "a", "17"},
		{"B", "", "", "", "x"},
	}

	m := NewMemory([][]any{
		{"Title", "Content", "ID"},
		{"A", "a", ""},
		{"B"},
	})

	if err := m.SetCell(context.Background(), 2, 3, "17"); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if err := m.SetCell(context.Background(), 3, 5, "x"); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if !reflect.DeepEqual(m.Values, expected) {
		t.Errorf("Incorrect sheet\n   expected: %v\n   got:      %v\n", expected, m.Values)
	}

	if len(m.Writes) != 2 {
		t.Errorf("Expected 2 recorded writes, got %v", len(m.Writes))
	}
}

func TestMemoryDeleteRow(t *testing.T) {
	expected := [][]any{
		{"Date"},
		{"2024-01-02"},
	}

	m := NewMemory([][]any{
		{"Date"},
		{"2024-01-01"},
		{"2024-01-02"},
	})

	if err := m.DeleteRow(context.Background(), 2); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if !reflect.DeepEqual(m.Values, expected) {
		t.Errorf("Incorrect sheet\n   expected: %v\n   got:      %v\n", expected, m.Values)
	}

	if err := m.DeleteRow(context.Background(), 7); err == nil {
		t.Errorf("Expected error deleting non-existent row")
	}
}

func TestMemoryAppendRow(t *testing.T) {
	expected := [][]any{
		{"Date", "Title"},
		{"2024-01-01", "A"},
		{"2024-01-10 08:15:00", "B"},
	}

	m := NewMemory([][]any{
		{"Date", "Title"},
		{"2024-01-01", "A"},
	})

	var s Sheet = m
	appender, ok := s.(Appender)
	if !ok {
		t.Fatalf("Expected Memory to implement Appender")
	}

	if err := appender.AppendRow(context.Background(), []any{"2024-01-10 08:15:00", "B"}); err != nil {
		t.Fatalf("Unexpected error (%v)", err)
	}

	if !reflect.DeepEqual(m.Values, expected) {
		t.Errorf("Incorrect sheet\n   expected: %v\n   got:      %v\n", expected, m.Values)
	}

	if len(m.Appends) != 1 {
		t.Errorf("Expected 1 recorded append, got %v", len(m.Appends))
	}
}
