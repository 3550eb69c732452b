package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// workbook wraps excelize with the row-oriented writes our exports need.
type workbook struct {
	f      *excelize.File
	header int
	rows   map[string]int
}

func newWorkbook() (*workbook, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F4E78"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &workbook{f: f, header: header, rows: map[string]int{}}, nil
}

// sheet creates (or renames the default first sheet to) name.
func (w *workbook) sheet(name string) error {
	if len(w.rows) == 0 {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return err
	}
	w.rows[name] = 0
	return nil
}

func (w *workbook) append(sheet string, values ...any) error {
	w.rows[sheet]++
	cell, err := excelize.CoordinatesToCellName(1, w.rows[sheet])
	if err != nil {
		return err
	}
	row := values
	return w.f.SetSheetRow(sheet, cell, &row)
}

// headerRow appends a styled header row and sizes its columns.
func (w *workbook) headerRow(sheet string, titles ...string) error {
	values := make([]any, len(titles))
	for i, t := range titles {
		values[i] = t
	}
	if err := w.append(sheet, values...); err != nil {
		return err
	}
	first, _ := excelize.CoordinatesToCellName(1, w.rows[sheet])
	last, _ := excelize.CoordinatesToCellName(len(titles), w.rows[sheet])
	if err := w.f.SetCellStyle(sheet, first, last, w.header); err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(titles))
	return w.f.SetColWidth(sheet, "A", lastCol, 22)
}

func (w *workbook) blank(sheet string) { w.rows[sheet]++ }

func (w *workbook) close() { _ = w.f.Close() }

func (w *workbook) bytes() ([]byte, error) {
	buf, err := w.f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func centsToReais(c int64) float64 { return float64(c) / 100 }
