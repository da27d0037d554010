package table

import (
	"strconv"
	"time"
)

// DateLayout каноническая текстовая форма даты.
const DateLayout = "2006-01-02"

// Value одна типизированная ячейка. Valid=false означает пропуск.
type Value struct {
	Kind  Kind
	Valid bool
	Str   string
	Int   int64
	Float float64
	Time  time.Time
	Bool  bool
}

// Null возвращает пропуск.
func Null() Value { return Value{} }

// Str returns a text value.
func Str(s string) Value { return Value{Kind: KindString, Valid: true, Str: s} }

// Int returns an integer value.
func Int(i int64) Value { return Value{Kind: KindInt, Valid: true, Int: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{Kind: KindFloat, Valid: true, Float: f} }

// Date returns a date value.
func Date(t time.Time) Value { return Value{Kind: KindDate, Valid: true, Time: t} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Valid: true, Bool: b} }

// IsMissing reports whether v carries no value.
func (v Value) IsMissing() bool { return !v.Valid }

// Text возвращает v в том виде, в каком оно попадает в текстовые выгрузки.
// Пропуск дает "".
func (v Value) Text() string {
	if !v.Valid {
		return ""
	}
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindDate:
		if v.Time.Hour() == 0 && v.Time.Minute() == 0 && v.Time.Second() == 0 {
			return v.Time.Format(DateLayout)
		}
		return v.Time.Format("2006-01-02 15:04:05")
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// Equal сравнивает тип и значение. Два пропуска равны.
func (v Value) Equal(o Value) bool {
	if !v.Valid || !o.Valid {
		return v.Valid == o.Valid
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == o.Int
	case KindFloat:
		return v.Float == o.Float
	case KindDate:
		return v.Time.Equal(o.Time)
	case KindBool:
		return v.Bool == o.Bool
	default:
		return v.Str == o.Str
	}
}

// key кодирует значение вместе с типом для сравнения строк.
func (v Value) key() string {
	if !v.Valid {
		return "\x00"
	}
	return strconv.Itoa(int(v.Kind)) + ":" + v.Text()
}
