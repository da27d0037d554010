package table

import (
	"fmt"
	"strings"
)

// Raw разобранная, но еще не типизированная таблица исходного файла.
// Имена столбцов могут быть пустыми или повторяться. Только для чтения.
type Raw struct {
	Path       string
	Sheet      string
	Encoding   string
	Confidence float64
	Columns    []string
	Rows       [][]string
	// Skipped число битых строк, пропущенных при разборе.
	Skipped int
}

// Width возвращает число столбцов.
func (r *Raw) Width() int { return len(r.Columns) }

// Field описывает один столбец таблицы.
type Field struct {
	Name string
	Kind Kind
}

// Table типизированная таблица с упорядоченными столбцами.
type Table struct {
	Name   string
	Fields []Field
	Rows   [][]Value
}

// New создает пустую таблицу с заданными столбцами.
func New(name string, fields ...Field) *Table {
	return &Table{Name: name, Fields: append([]Field(nil), fields...)}
}

// FromRaw превращает каждую ячейку в строку. Пустые ячейки становятся пропусками.
func FromRaw(name string, raw *Raw) *Table {
	t := &Table{Name: name, Fields: make([]Field, len(raw.Columns))}
	for i, col := range raw.Columns {
		t.Fields[i] = Field{Name: col, Kind: KindString}
	}
	t.Rows = make([][]Value, 0, len(raw.Rows))
	for _, rec := range raw.Rows {
		row := make([]Value, len(raw.Columns))
		for i := range row {
			if i < len(rec) && strings.TrimSpace(rec[i]) != "" {
				row[i] = Str(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.Fields) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		names[i] = f.Name
	}
	return names
}

// ColumnIndex returns the position of the first column called name, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the values of column i.
func (t *Table) Column(i int) []Value {
	out := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// AppendRow добавляет строку. Длина строки должна совпадать с числом столбцов.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.Fields) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrRowWidth, len(row), len(t.Fields))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AddColumn добавляет столбец из одних пропусков.
func (t *Table) AddColumn(name string, kind Kind) {
	t.Fields = append(t.Fields, Field{Name: name, Kind: kind})
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], Null())
	}
}

// SetConstant добавляет (или перезаписывает) столбец с одним значением во всех строках.
func (t *Table) SetConstant(name string, v Value) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		t.AddColumn(name, v.Kind)
		idx = len(t.Fields) - 1
	}
	t.Fields[idx].Kind = v.Kind
	for _, row := range t.Rows {
		row[idx] = v
	}
}

// DropColumns удаляет указанные столбцы и возвращает реально удаленные имена.
func (t *Table) DropColumns(names ...string) []string {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []int
	var removed []string
	for i, f := range t.Fields {
		if drop[f.Name] {
			removed = append(removed, f.Name)
			continue
		}
		keep = append(keep, i)
	}
	if len(removed) == 0 {
		return nil
	}
	t.project(keep)
	return removed
}

// Select оставляет только указанные столбцы в указанном порядке. Отсутствующие
// добавляются пустыми строковыми столбцами и возвращаются вызывающему.
func (t *Table) Select(names []string) (padded []string) {
	for _, n := range names {
		if t.ColumnIndex(n) < 0 {
			t.AddColumn(n, KindString)
			padded = append(padded, n)
		}
	}
	idx := make([]int, len(names))
	for i, n := range names {
		idx[i] = t.ColumnIndex(n)
	}
	t.project(idx)
	return padded
}

func (t *Table) project(idx []int) {
	fields := make([]Field, len(idx))
	for i, j := range idx {
		fields[i] = t.Fields[j]
	}
	for r, row := range t.Rows {
		next := make([]Value, len(idx))
		for i, j := range idx {
			next[i] = row[j]
		}
		t.Rows[r] = next
	}
	t.Fields = fields
}

// Clone возвращает независимую копию таблицы.
func (t *Table) Clone() *Table {
	c := &Table{Name: t.Name, Fields: append([]Field(nil), t.Fields...)}
	c.Rows = make([][]Value, len(t.Rows))
	for i, row := range t.Rows {
		c.Rows[i] = append([]Value(nil), row...)
	}
	return c
}

// Equal проверяет совпадение столбцов и строк двух таблиц.
func (t *Table) Equal(o *Table) bool {
	if len(t.Fields) != len(o.Fields) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i] != o.Fields[i] {
			return false
		}
	}
	for r := range t.Rows {
		if !RowsEqual(t.Rows[r], o.Rows[r]) {
			return false
		}
	}
	return true
}

// RowsEqual сравнивает две строки поячеечно.
func RowsEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// IsEmptyRow проверяет, что все ячейки записи пустые.
func IsEmptyRow(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// UniqueNames переименовывает повторы в name.1, name.2 и так далее.
func UniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	taken := make(map[string]bool, len(names))
	for _, n := range names {
		taken[n] = true
	}
	out := make([]string, len(names))
	for i, n := range names {
		count, dup := seen[n]
		if !dup {
			seen[n] = 0
			out[i] = n
			continue
		}
		for {
			count++
			candidate := fmt.Sprintf("%s.%d", n, count)
			if !taken[candidate] {
				out[i] = candidate
				taken[candidate] = true
				break
			}
		}
		seen[n] = count
	}
	return out
}
