package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the name of the single worksheet in the workbook.
const SheetName = "checksheet"

const (
	headerFill  = "70AD47"
	borderColor = "999999"
	firstData   = 4
)

// WriteXLSX renders m as a workbook: merged group titles on row 1, option
// labels on row 2, totals on row 3 and one record per row from row 4.
func WriteXLSX(w io.Writer, m *Matrix) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := writeHeader(f, m, styles); err != nil {
		return err
	}
	if err := writeBody(f, m, styles); err != nil {
		return err
	}
	if err := sizeSheet(f, m); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

type sheetStyles struct {
	header int
	totals int
	data   int
}

func newStyles(f *excelize.File) (*sheetStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: borderColor, Style: 1},
		{Type: "right", Color: borderColor, Style: 1},
		{Type: "top", Color: borderColor, Style: 1},
		{Type: "bottom", Color: borderColor, Style: 1},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true}

	header, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: center,
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	totals, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Font:      &excelize.Font{Bold: true},
		Alignment: center,
	})
	if err != nil {
		return nil, fmt.Errorf("creating totals style: %w", err)
	}

	data, err := f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: center,
	})
	if err != nil {
		return nil, fmt.Errorf("creating data style: %w", err)
	}

	return &sheetStyles{header: header, totals: totals, data: data}, nil
}

func writeHeader(f *excelize.File, m *Matrix, s *sheetStyles) error {
	for _, g := range m.Groups {
		first := cell(g.Start, 1)
		last := cell(g.End, 1)
		if err := f.SetCellValue(SheetName, first, g.Title); err != nil {
			return fmt.Errorf("writing group title %q: %w", g.Title, err)
		}
		if g.End > g.Start {
			if err := f.MergeCell(SheetName, first, last); err != nil {
				return fmt.Errorf("merging group %q: %w", g.Title, err)
			}
		}
		if err := f.SetCellStyle(SheetName, first, last, s.header); err != nil {
			return err
		}
	}

	headers := m.Headers()
	if err := setRow(f, 2, toAny(headers)); err != nil {
		return err
	}
	return f.SetCellStyle(SheetName, cell(1, 2), cell(len(headers), 2), s.header)
}

func writeBody(f *excelize.File, m *Matrix, s *sheetStyles) error {
	width := m.Width()

	totals := make([]any, 0, width)
	totals = append(totals, TotalMarker)
	for _, v := range m.Totals {
		totals = append(totals, v)
	}
	if err := setRow(f, 3, totals); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, cell(1, 3), cell(width, 3), s.totals); err != nil {
		return err
	}

	for i, r := range m.Rows {
		values := make([]any, 0, width)
		values = append(values, r.ID)
		for _, v := range r.Flags {
			values = append(values, v)
		}
		if err := setRow(f, firstData+i, values); err != nil {
			return err
		}
	}

	if len(m.Rows) > 0 {
		last := firstData + len(m.Rows) - 1
		if err := f.SetCellStyle(SheetName, cell(1, firstData), cell(width, last), s.data); err != nil {
			return err
		}
	}
	return nil
}

func sizeSheet(f *excelize.File, m *Matrix) error {
	heights := map[int]float64{1: 24, 2: 26, 3: 20}
	for i := range m.Rows {
		heights[firstData+i] = 18
	}
	for row, h := range heights {
		if err := f.SetRowHeight(SheetName, row, h); err != nil {
			return fmt.Errorf("sizing row %d: %w", row, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 8); err != nil {
		return err
	}
	if m.Width() > 1 {
		last, err := excelize.ColumnNumberToName(m.Width())
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, "B", last, 14); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, row int, values []any) error {
	if err := f.SetSheetRow(SheetName, cell(1, row), &values); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
