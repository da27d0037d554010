// Package thaidate parses the date notations found in hospital inventory
// exports: Thai month abbreviations, Excel serial numbers and day-first text.
package thaidate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Months сокращения тайских месяцев и их номера.
var Months = map[string]time.Month{
	"ม.ค.":  time.January,
	"ก.พ.":  time.February,
	"มี.ค.": time.March,
	"เม.ย.": time.April,
	"พ.ค.":  time.May,
	"มิ.ย.": time.June,
	"ก.ค.":  time.July,
	"ส.ค.":  time.August,
	"ก.ย.":  time.September,
	"ต.ค.":  time.October,
	"พ.ย.":  time.November,
	"ธ.ค.":  time.December,
}

// Parse разбирает DD-<тайский месяц>-YY. Двузначный год читается как 20YY.
// Все остальное, включая несуществующие даты, дает ok=false.
func Parse(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, false
	}
	month, ok := Months[strings.TrimSpace(parts[1])]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil || year < 0 {
		return time.Time{}, false
	}
	if year < 100 {
		year += 2000
	}
	// time.Parse отвергает дни вне месяца, time.Date бы их нормализовал.
	t, err := time.Parse("2006-01-02", fmt.Sprintf("%04d-%02d-%02d", year, int(month), day))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// excelEpoch нулевой день системы дат 1900 в счете Excel.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const maxExcelSerial = 2958465 // 9999-12-31

// FromExcelSerial переводит порядковый номер дня Excel в дату. Дробная часть дает время суток.
func FromExcelSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < 1 || serial > maxExcelSerial {
		return time.Time{}, false
	}
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), true
}

// dayFirstLayouts перебираются по порядку. При неоднозначности день идет
// раньше месяца.
var dayFirstLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02-Jan-06",
	"2-Jan-06",
	"02-Jan-2006",
	"2-Jan-2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-06 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2/1/06",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"2/1/2006 15:04:05",
	"02-01-2006",
	"2-1-2006",
	"02-01-2006 15:04:05",
	"02.01.2006",
	"2006/01/02",
	"2006/01/02 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
}

// ParseDayFirst разбирает распространенные текстовые форматы, неоднозначные
// даты читаются как день-месяц.
func ParseDayFirst(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseAny пробует тайскую запись, затем текст день-месяц, затем номер дня Excel.
func ParseAny(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := Parse(s); ok {
		return t, true
	}
	if t, ok := ParseDayFirst(s); ok {
		return t, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FromExcelSerial(f)
	}
	return time.Time{}, false
}
