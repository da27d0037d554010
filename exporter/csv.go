package exporter

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"inventoryetl/table"
)

// WriteCSV записывает t в CSV (UTF-8) со строкой заголовка. Пропуски пустые.
func WriteCSV(path string, t *table.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(t.Names()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	record := make([]string, len(t.Fields))
	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = v.Text()
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return file.Close()
}
