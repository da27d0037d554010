package table

import "strings"

// Deduplicate удаляет точные дубликаты строк, оставляя первое вхождение.
// Возвращает число удаленных строк.
func (t *Table) Deduplicate() int {
	seen := make(map[string]struct{}, len(t.Rows))
	kept := t.Rows[:0]
	removed := 0
	var b strings.Builder
	for _, row := range t.Rows {
		b.Reset()
		for _, v := range row {
			b.WriteString(v.key())
			b.WriteByte('\x1f')
		}
		k := b.String()
		if _, dup := seen[k]; dup {
			removed++
			continue
		}
		seen[k] = struct{}{}
		kept = append(kept, row)
	}
	t.Rows = kept
	return removed
}

// Concat склеивает таблицы по вертикали в заданном порядке. Столбцы
// результата объединяются: сначала столбцы первой таблицы в ее порядке, затем
// новые столбцы следующих. Недостающие ячейки пусты, типы столбцов
// расширяются до общего.
func Concat(name string, tables ...*Table) *Table {
	out := &Table{Name: name}
	pos := make(map[string]int)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, f := range t.Fields {
			if i, ok := pos[f.Name]; ok {
				out.Fields[i].Kind = unify(out.Fields[i].Kind, f.Kind)
				continue
			}
			pos[f.Name] = len(out.Fields)
			out.Fields = append(out.Fields, f)
		}
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		idx := make([]int, len(t.Fields))
		for i, f := range t.Fields {
			idx[i] = pos[f.Name]
		}
		for _, row := range t.Rows {
			next := make([]Value, len(out.Fields))
			for i, v := range row {
				next[idx[i]] = v
			}
			out.Rows = append(out.Rows, next)
		}
	}
	return out
}
