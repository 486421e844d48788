package xlsx

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"
)

// Sheet is a sheet.Sheet backed by a worksheet in a local Excel workbook. The header is expected in row 1.
// Every change is saved to the workbook file immediately.
type Sheet struct {
	file  string
	name  string
	f     *excelize.File
	guard sync.Mutex
}

// Open opens the named worksheet in the workbook file. An empty name selects the active worksheet.
func Open(file, name string) (*Sheet, error) {
	f, err := excelize.OpenFile(file)
	if err != nil {
		return nil, fmt.Errorf("unable to open workbook %v (%w)", file, err)
	}

	if name == "" {
		name = f.GetSheetName(f.GetActiveSheetIndex())
	}

	if ix, err := f.GetSheetIndex(name); err != nil || ix < 0 {
		f.Close()
		return nil, fmt.Errorf("workbook %v has no worksheet '%v'", file, name)
	}

	return &Sheet{
		file: file,
		name: name,
		f:    f,
	}, nil
}

func (s *Sheet) Name() string {
	return s.name
}

func (s *Sheet) Close() error {
	return s.f.Close()
}

func (s *Sheet) Rows(ctx context.Context) ([][]any, error) {
	s.guard.Lock()
	defer s.guard.Unlock()

	rows, err := s.f.GetRows(s.name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve data from worksheet %v (%w)", s.name, err)
	}

	values := make([][]any, len(rows))
	for i, row := range rows {
		values[i] = make([]any, len(row))
		for j, v := range row {
			if values[i][j], err = s.value(j+1, i+1, v); err != nil {
				return nil, err
			}
		}
	}

	return values, nil
}

// value returns numeric cells (including dates and times) as float64 serial numbers and everything
// else as the raw cell text.
func (s *Sheet) value(col, row int, v string) (any, error) {
	if v == "" {
		return v, nil
	}

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}

	t, err := s.f.GetCellType(s.name, cell)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve type of cell %v!%v (%w)", s.name, cell, err)
	}

	switch t {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f, nil
		}
	}

	return v, nil
}

func (s *Sheet) SetCell(ctx context.Context, row, col int, value any) error {
	s.guard.Lock()
	defer s.guard.Unlock()

	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}

	if err := s.f.SetCellValue(s.name, cell, value); err != nil {
		return fmt.Errorf("error updating cell %v!%v (%w)", s.name, cell, err)
	}

	return s.f.Save()
}

// AppendRow writes the values to the row after the last non-empty row of the worksheet.
func (s *Sheet) AppendRow(ctx context.Context, values []any) error {
	s.guard.Lock()
	defer s.guard.Unlock()

	rows, err := s.f.GetRows(s.name)
	if err != nil {
		return fmt.Errorf("unable to retrieve data from worksheet %v (%w)", s.name, err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return err
	}

	if err := s.f.SetSheetRow(s.name, cell, &values); err != nil {
		return fmt.Errorf("error appending row to worksheet %v (%w)", s.name, err)
	}

	return s.f.Save()
}

func (s *Sheet) DeleteRow(ctx context.Context, row int) error {
	return s.DeleteRows(ctx, []int{row})
}

// DeleteRows removes the rows bottom up and saves the workbook once.
func (s *Sheet) DeleteRows(ctx context.Context, rows []int) error {
	s.guard.Lock()
	defer s.guard.Unlock()

	list := append([]int{}, rows...)
	sort.Sort(sort.Reverse(sort.IntSlice(list)))

	last := 0
	for _, row := range list {
		if row == last {
			continue
		}

		if err := s.f.RemoveRow(s.name, row); err != nil {
			return fmt.Errorf("error deleting row %v from worksheet %v (%w)", row, s.name, err)
		}

		last = row
	}

	return s.f.Save()
}
