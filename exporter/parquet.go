package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"inventoryetl/table"
)

// ParquetSchema возвращает метаданные CSV-писателя для столбцов таблицы.
// Имена сводятся к [A-Za-z0-9_] и делаются уникальными.
func ParquetSchema(fields []table.Field) []string {
	md := make([]string, len(fields))
	names := parquetNames(fields)
	for i, f := range fields {
		switch f.Kind {
		case table.KindInt:
			md[i] = fmt.Sprintf("name=%s, type=INT64, repetitiontype=OPTIONAL", names[i])
		case table.KindFloat:
			md[i] = fmt.Sprintf("name=%s, type=DOUBLE, repetitiontype=OPTIONAL", names[i])
		case table.KindDate:
			md[i] = fmt.Sprintf("name=%s, type=INT64, convertedtype=TIMESTAMP_MILLIS, repetitiontype=OPTIONAL", names[i])
		case table.KindBool:
			md[i] = fmt.Sprintf("name=%s, type=BOOLEAN, repetitiontype=OPTIONAL", names[i])
		default:
			md[i] = fmt.Sprintf("name=%s, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL", names[i])
		}
	}
	return md
}

func parquetNames(fields []table.Field) []string {
	names := make([]string, len(fields))
	used := make(map[string]bool, len(fields))
	for i, f := range fields {
		var b strings.Builder
		letters := false
		for _, r := range f.Name {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
				b.WriteRune(r)
				letters = true
			default:
				b.WriteByte('_')
			}
		}
		name := b.String()
		if !letters {
			name = fmt.Sprintf("column_%d", i)
		} else if name[0] >= '0' && name[0] <= '9' {
			name = "c_" + name
		}
		base := name
		for n := 1; used[name]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[name] = true
		names[i] = name
	}
	return names
}

// WriteParquet записывает t в parquet-файл path со сжатием snappy.
func WriteParquet(path string, t *table.Table) error {
	if len(t.Fields) == 0 {
		return ErrNoColumns
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	pw, err := writer.NewCSVWriter(ParquetSchema(t.Fields), fw, 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("create writer %s: %w", path, err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	rec := make([]*string, len(t.Fields))
	for r, row := range t.Rows {
		for i, v := range row {
			rec[i] = parquetValue(v, t.Fields[i].Kind)
		}
		if err := pw.WriteString(rec); err != nil {
			pw.WriteStop()
			fw.Close()
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("finish %s: %w", path, err)
	}
	return fw.Close()
}

// parquetValue готовит v для столбца типа kind. Значение чужого типа
// сохраняется только в текстовых столбцах, целые еще и в DOUBLE.
func parquetValue(v table.Value, kind table.Kind) *string {
	if !v.Valid {
		return nil
	}
	var s string
	switch kind {
	case table.KindString:
		s = v.Text()
	case table.KindDate:
		if v.Kind != table.KindDate {
			return nil
		}
		s = strconv.FormatInt(v.Time.UnixMilli(), 10)
	case table.KindFloat:
		if v.Kind != table.KindFloat && v.Kind != table.KindInt {
			return nil
		}
		s = v.Text()
	default:
		if v.Kind != kind {
			return nil
		}
		s = v.Text()
	}
	return &s
}
