// Package exporter writes tables to native spreadsheets and columnar snapshots.
package exporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"inventoryetl/table"
)

// DateFormat числовой формат ячеек с датами.
const DateFormat = "dd-mmm-yy"

// Sheet один лист выходной книги.
type Sheet struct {
	Name  string
	Table *table.Table
}

// WriteWorkbook записывает sheets в новый файл .xlsx, создавая каталог.
// Листы без имени называются Sheet1..SheetN.
func WriteWorkbook(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return ErrNoSheets
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	dateFormat := DateFormat
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	for i, s := range sheets {
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to name sheet %s: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, s.Table, headerStyle, dateStyle); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *table.Table, headerStyle, dateStyle int) error {
	header := make([]any, len(t.Fields))
	for i, field := range t.Fields {
		header[i] = field.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if len(t.Fields) == 0 {
		return nil
	}
	last, _ := excelize.CoordinatesToCellName(len(t.Fields), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for r, row := range t.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = cellValue(v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+1, err)
		}
	}

	for i, field := range t.Fields {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(utf8.RuneCountInString(field.Name) + 2)
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set width of %s: %w", field.Name, err)
		}
		if field.Kind == table.KindDate && len(t.Rows) > 0 {
			top, _ := excelize.CoordinatesToCellName(i+1, 2)
			bottom, _ := excelize.CoordinatesToCellName(i+1, len(t.Rows)+1)
			if err := f.SetCellStyle(sheet, top, bottom, dateStyle); err != nil {
				return fmt.Errorf("failed to style dates of %s: %w", field.Name, err)
			}
		}
	}
	return nil
}

func cellValue(v table.Value) any {
	if !v.Valid {
		return nil
	}
	switch v.Kind {
	case table.KindInt:
		return v.Int
	case table.KindFloat:
		return v.Float
	case table.KindDate:
		return v.Time
	case table.KindBool:
		return v.Bool
	default:
		return v.Str
	}
}

// CopyFile копирует src в dst, создавая каталог dst.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
