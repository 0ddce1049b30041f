package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/josefarias3108/projeto-jus/internal/schema"
	"github.com/josefarias3108/projeto-jus/internal/transformer"
)

// maxSheetName is Excel's limit on sheet name length.
const maxSheetName = 31

// WriteWorkbook writes tables into one workbook, one sheet per table in the
// given order, with a bold header row. Integers and booleans are typed
// cells; every other value uses its CSV text so both outputs agree.
func WriteWorkbook(path string, tables []*transformer.Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("workbook: no tables")
	}
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("workbook: style: %w", err)
	}

	for i, t := range tables {
		sheet := t.Contract.Name
		if len(sheet) > maxSheetName {
			sheet = sheet[:maxSheetName]
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("workbook: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("workbook: sheet %s: %w", sheet, err)
		}

		cols := t.Contract.Columns()
		hdr := make([]any, len(cols))
		for j, c := range cols {
			hdr[j] = c
		}
		if err := f.SetSheetRow(sheet, "A1", &hdr); err != nil {
			return fmt.Errorf("workbook: header %s: %w", sheet, err)
		}
		last, _ := excelize.CoordinatesToCellName(len(cols), 1)
		_ = f.SetCellStyle(sheet, "A1", last, header)

		for n, r := range t.Rows {
			cells := make([]any, len(t.Contract.Fields))
			for j, fld := range t.Contract.Fields {
				cells[j] = cellValue(fld, r.V[j])
			}
			cell, _ := excelize.CoordinatesToCellName(1, n+2)
			if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
				return fmt.Errorf("workbook: row %s:%d: %w", sheet, n+2, err)
			}
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("workbook: mkdir: %w", err)
	}
	tmp := tmpPath(path)
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("workbook: create: %w", err)
	}
	if _, err := f.WriteTo(out); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("workbook: write: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("workbook: close: %w", err)
	}
	return os.Rename(tmp, path)
}

func cellValue(f schema.Field, v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case int64, bool:
		return t
	default:
		return schema.Format(f, v)
	}
}
