// Package normalization turns raw parsed tables into typed tables following
// declarative per-category rules.
package normalization

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"inventoryetl/detect"
	"inventoryetl/table"
)

// Report итоги одного прохода нормализации.
type Report struct {
	Resplit         bool
	Renamed         int
	Replaced        int
	MissingColumns  []string
	CoercedToNull   map[string]int
	DuplicatesFound int
}

// Normalizer применяет правила категории к таблицам.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer создает нормализатор. При nil logger используется slog.Default().
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// Normalize превращает raw в типизированную таблицу. required, если не пуст,
// задает столбцы результата и их порядок. Точные дубликаты строк удаляются
// последним шагом.
func (n *Normalizer) Normalize(raw *table.Raw, rules *Rules, required []string) (*table.Table, *Report, error) {
	return n.fromRaw(raw, rules, required, true)
}

// Coerce работает как Normalize, но сохраняет все строки: повторяющиеся
// строки одного файла это реальные записи.
func (n *Normalizer) Coerce(raw *table.Raw, rules *Rules) (*table.Table, *Report, error) {
	return n.fromRaw(raw, rules, nil, false)
}

func (n *Normalizer) fromRaw(raw *table.Raw, rules *Rules, required []string, dedup bool) (*table.Table, *Report, error) {
	if raw == nil || rules == nil {
		return nil, nil, ErrNilInput
	}
	report := &Report{CoercedToNull: make(map[string]int)}

	// 1. Файл с разделителями, прочитанный одним столбцом, разбиваем заново.
	src := raw
	if split, ok := resplit(raw, rules.ResplitDelimiter()); ok {
		src = split
		report.Resplit = true
		n.logger.Debug("single column re-split", "file", raw.Path, "columns", len(split.Columns))
	}

	// 2. Чистка заголовков. Повторы получают суффиксы .1, .2.
	columns := make([]string, len(src.Columns))
	for i, c := range src.Columns {
		columns[i] = cleanHeader(c, i)
	}
	columns = table.UniqueNames(columns)
	header := *src
	header.Columns = columns

	t := table.FromRaw(tableName(raw), &header)
	if err := n.normalize(t, rules, required, dedup, report); err != nil {
		return nil, nil, err
	}
	return t, report, nil
}

// NormalizeTable выполняет типизированные шаги над готовой таблицей на месте.
// Повторный вызов с теми же аргументами ничего не меняет.
func (n *Normalizer) NormalizeTable(t *table.Table, rules *Rules, required []string) (*Report, error) {
	if t == nil || rules == nil {
		return nil, ErrNilInput
	}
	report := &Report{CoercedToNull: make(map[string]int)}
	if err := n.normalize(t, rules, required, true, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (n *Normalizer) normalize(t *table.Table, rules *Rules, required []string, dedup bool, report *Report) error {
	// 3. Переименования и замены значений.
	report.Renamed = rename(t, rules.Renames)
	report.Replaced = replaceValues(t, rules.Replacements)

	// 4. Обязательные столбцы.
	if len(required) > 0 {
		report.MissingColumns = t.Select(required)
		for _, col := range report.MissingColumns {
			n.logger.Warn("required column missing, filled with empty values",
				"table", t.Name,
				"column", col,
			)
		}
	}

	// 5. Объявленные приведения типов.
	text := make(map[string]bool)
	for _, col := range rules.TextColumns {
		if i := t.ColumnIndex(col); i >= 0 {
			text[col] = true
			if err := t.CoerceColumn(i, table.KindString); err != nil {
				return fmt.Errorf("failed to coerce %s to text: %w", col, err)
			}
		}
	}
	n.coerce(t, rules.IntColumns, table.KindInt, report)
	n.coerce(t, rules.DateColumns, table.KindDate, report)

	// 6. Типы остальных строковых столбцов выводятся.
	t.InferKinds(text)

	// 7. Точные дубликаты удаляются последними.
	if !dedup {
		return nil
	}
	report.DuplicatesFound = t.Deduplicate()
	if report.DuplicatesFound > 0 {
		n.logger.Debug("duplicate rows removed", "table", t.Name, "count", report.DuplicatesFound)
	}
	return nil
}

func (n *Normalizer) coerce(t *table.Table, columns []string, kind table.Kind, report *Report) {
	for _, col := range columns {
		i := t.ColumnIndex(col)
		if i < 0 {
			continue
		}
		if lost := t.CoerceColumnLenient(i, kind); lost > 0 {
			report.CoercedToNull[col] += lost
			n.logger.Warn("values could not be coerced, set to missing",
				"table", t.Name,
				"column", col,
				"kind", kind.String(),
				"count", lost,
			)
		}
	}
}

func tableName(raw *table.Raw) string {
	if raw.Sheet != "" {
		return raw.Path + "#" + raw.Sheet
	}
	return raw.Path
}

// cleanHeader обрезает пробелы и приводит заголовок к NFC. Пустые заголовки
// получают имя по позиции.
func cleanHeader(name string, pos int) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return fmt.Sprintf("Unnamed: %d", pos)
	}
	return name
}

// resplit разбирает выгрузку, прочитанную одним столбцом. Ячейка заголовка
// идет в данные, если сама содержит разделитель. Первая разбитая строка
// становится заголовком.
func resplit(raw *table.Raw, delim detect.Delimiter) (*table.Raw, bool) {
	sep := string(delim.Rune())
	if sep == "\x00" || len(raw.Columns) != 1 {
		return nil, false
	}
	var lines []string
	if strings.Contains(raw.Columns[0], sep) {
		lines = append(lines, raw.Columns[0])
	}
	found := len(lines) > 0
	for _, rec := range raw.Rows {
		cell := ""
		if len(rec) > 0 {
			cell = rec[0]
		}
		if strings.Contains(cell, sep) {
			found = true
		}
		lines = append(lines, cell)
	}
	if !found || len(lines) == 0 {
		return nil, false
	}

	header := strings.Split(lines[0], sep)
	out := &table.Raw{
		Path:       raw.Path,
		Sheet:      raw.Sheet,
		Encoding:   raw.Encoding,
		Confidence: raw.Confidence,
		Skipped:    raw.Skipped,
		Columns:    header,
	}
	for _, line := range lines[1:] {
		parts := strings.Split(line, sep)
		if len(parts) > len(header) {
			out.Skipped++
			continue
		}
		rec := make([]string, len(header))
		copy(rec, parts)
		out.Rows = append(out.Rows, rec)
	}
	return out, true
}

func rename(t *table.Table, renames map[string]string) int {
	count := 0
	for i, f := range t.Fields {
		if to, ok := renames[f.Name]; ok && to != f.Name {
			t.Fields[i].Name = to
			count++
		}
	}
	return count
}

func replaceValues(t *table.Table, replacements map[string]map[string]string) int {
	count := 0
	for col, m := range replacements {
		i := t.ColumnIndex(col)
		if i < 0 {
			continue
		}
		for _, row := range t.Rows {
			v := row[i]
			if !v.Valid || v.Kind != table.KindString {
				continue
			}
			if to, ok := m[v.Str]; ok && to != v.Str {
				row[i] = table.Str(to)
				count++
			}
		}
	}
	return count
}
