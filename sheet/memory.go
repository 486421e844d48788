package sheet

import (
	"context"
	"fmt"
	"sync"
)

// Cell is a single cell write recorded by a Memory sheet.
type Cell struct {
	Row   int
	Col   int
	Value any
}

// Memory is an in-memory Sheet. It records every cell write and row deletion so that callers can verify
// exactly what was changed.
type Memory struct {
	Values  [][]any
	Writes  []Cell
	Deletes []int
	Appends [][]any

	guard sync.Mutex
}

func NewMemory(rows [][]any) *Memory {
	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = append([]any{}, row...)
	}

	return &Memory{
		Values: values,
	}
}

func (m *Memory) Rows(ctx context.Context) ([][]any, error) {
	m.guard.Lock()
	defer m.guard.Unlock()

	rows := make([][]any, len(m.Values))
	for i, row := range m.Values {
		rows[i] = append([]any{}, row...)
	}

	return rows, nil
}

func (m *Memory) SetCell(ctx context.Context, row, col int, value any) error {
	m.guard.Lock()
	defer m.guard.Unlock()

	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell (%v,%v)", row, col)
	}

	for len(m.Values) < row {
		m.Values = append(m.Values, []any{})
	}

	for len(m.Values[row-1]) < col {
		m.Values[row-1] = append(m.Values[row-1], "")
	}

	m.Values[row-1][col-1] = value
	m.Writes = append(m.Writes, Cell{Row: row, Col: col, Value: value})

	return nil
}

func (m *Memory) DeleteRow(ctx context.Context, row int) error {
	m.guard.Lock()
	defer m.guard.Unlock()

	if row < 1 || row > len(m.Values) {
		return fmt.Errorf("invalid row %v", row)
	}

	m.Values = append(m.Values[:row-1], m.Values[row:]...)
	m.Deletes = append(m.Deletes, row)

	return nil
}

func (m *Memory) AppendRow(ctx context.Context, values []any) error {
	m.guard.Lock()
	defer m.guard.Unlock()

	m.Values = append(m.Values, append([]any{}, values...))
	m.Appends = append(m.Appends, append([]any{}, values...))

	return nil
}
