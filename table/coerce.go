package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"inventoryetl/thaidate"
)

// Convert приводит одно значение к типу kind. Пропуск остается пропуском.
func Convert(v Value, to Kind) (Value, bool) {
	if !v.Valid {
		return Null(), true
	}
	if v.Kind == to {
		return v, true
	}
	switch to {
	case KindString:
		return Str(v.Text()), true
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	case KindDate:
		return toDate(v)
	case KindBool:
		return toBool(v)
	}
	return Null(), false
}

func toInt(v Value) (Value, bool) {
	switch v.Kind {
	case KindString:
		s := strings.TrimSpace(v.Str)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(i), true
		}
		if f, ok := parseDecimal(s); ok && f == math.Trunc(f) && math.Abs(f) < 1<<62 {
			return Int(int64(f)), true
		}
	case KindFloat:
		if v.Float == math.Trunc(v.Float) && math.Abs(v.Float) < 1<<62 {
			return Int(int64(v.Float)), true
		}
	case KindBool:
		if v.Bool {
			return Int(1), true
		}
		return Int(0), true
	}
	return Null(), false
}

func toFloat(v Value) (Value, bool) {
	switch v.Kind {
	case KindString:
		if f, ok := parseDecimal(strings.TrimSpace(v.Str)); ok {
			return Float(f), true
		}
	case KindInt:
		return Float(float64(v.Int)), true
	}
	return Null(), false
}

func toDate(v Value) (Value, bool) {
	switch v.Kind {
	case KindString:
		if t, ok := thaidate.ParseAny(v.Str); ok {
			return Date(t), true
		}
	case KindInt:
		if t, ok := thaidate.FromExcelSerial(float64(v.Int)); ok {
			return Date(t), true
		}
	case KindFloat:
		if t, ok := thaidate.FromExcelSerial(v.Float); ok {
			return Date(t), true
		}
	}
	return Null(), false
}

func toBool(v Value) (Value, bool) {
	switch v.Kind {
	case KindString:
		if b, err := strconv.ParseBool(strings.TrimSpace(v.Str)); err == nil {
			return Bool(b), true
		}
	case KindInt:
		if v.Int == 0 || v.Int == 1 {
			return Bool(v.Int == 1), true
		}
	}
	return Null(), false
}

// parseDecimal принимает только обычную десятичную запись: знак, цифры и не
// более одной точки. Экспонента, NaN и Inf отвергаются.
func parseDecimal(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	body := strings.TrimLeft(s, "+-")
	if len(s)-len(body) > 1 || body == "" || body == "." {
		return 0, false
	}
	dots := 0
	for _, r := range body {
		switch {
		case r == '.':
			dots++
		case r < '0' || r > '9':
			return 0, false
		}
	}
	if dots > 1 {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// hasLeadingZero распознает числа-идентификаторы вида "007".
func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(strings.TrimSpace(s), "+-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}

// CoerceColumn приводит все значения столбца i к типу kind. Если хотя бы одно
// значение не приводится, столбец не меняется и возвращается ошибка.
func (t *Table) CoerceColumn(i int, kind Kind) error {
	if i < 0 || i >= len(t.Fields) {
		return fmt.Errorf("%w: %d", ErrNoColumn, i)
	}
	if t.Fields[i].Kind == kind && t.columnUniform(i, kind) {
		return nil
	}
	converted := make([]Value, len(t.Rows))
	for r, row := range t.Rows {
		v, ok := Convert(row[i], kind)
		if !ok {
			return fmt.Errorf("%w: column %q row %d value %q to %s",
				ErrCoercion, t.Fields[i].Name, r, row[i].Text(), kind)
		}
		converted[r] = v
	}
	for r, row := range t.Rows {
		row[i] = converted[r]
	}
	t.Fields[i].Kind = kind
	return nil
}

// CoerceColumnLenient приводит столбец i к типу kind, неприводимые значения
// становятся пропусками. Возвращает число потерянных значений.
func (t *Table) CoerceColumnLenient(i int, kind Kind) int {
	lost := 0
	for _, row := range t.Rows {
		v, ok := Convert(row[i], kind)
		if !ok {
			lost++
		}
		row[i] = v
	}
	t.Fields[i].Kind = kind
	return lost
}

func (t *Table) columnUniform(i int, kind Kind) bool {
	for _, row := range t.Rows {
		if row[i].Valid && row[i].Kind != kind {
			return false
		}
	}
	return true
}

// InferKinds переводит строковые столбцы, где все значения целые (или
// десятичные), в int (или float). Ведущий ноль оставляет весь столбец
// текстовым. Столбцы из skip не трогаются.
func (t *Table) InferKinds(skip map[string]bool) {
	for i, f := range t.Fields {
		if f.Kind != KindString || skip[f.Name] {
			continue
		}
		if kind, ok := t.inferColumn(i); ok {
			t.CoerceColumnLenient(i, kind)
		}
	}
}

func (t *Table) inferColumn(i int) (Kind, bool) {
	present := 0
	allInt := true
	for _, row := range t.Rows {
		v := row[i]
		if !v.Valid {
			continue
		}
		if v.Kind != KindString {
			return KindString, false
		}
		s := strings.TrimSpace(v.Str)
		if hasLeadingZero(s) {
			return KindString, false
		}
		if _, ok := parseDecimal(s); !ok {
			return KindString, false
		}
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			allInt = false
		}
		present++
	}
	if present == 0 {
		return KindString, false
	}
	if allInt {
		return KindInt, true
	}
	return KindFloat, true
}
