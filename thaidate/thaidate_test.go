package thaidate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"january", "05-ม.ค.-24", "2024-01-05", true},
		{"march", "20-มี.ค.-24", "2024-03-20", true},
		{"padded parts", " 1 - ธ.ค. - 23 ", "2023-12-01", true},
		{"four digit year untouched", "15-ก.ย.-2023", "2023-09-15", true},
		{"leap day", "29-ก.พ.-24", "2024-02-29", true},
		{"impossible day", "31-ก.พ.-24", "", false},
		{"non leap", "29-ก.พ.-23", "", false},
		{"unknown month", "05-Jan-24", "", false},
		{"two parts", "05-ม.ค.", "", false},
		{"four parts", "05-ม.ค.-24-1", "", false},
		{"non numeric day", "xx-ม.ค.-24", "", false},
		{"non numeric year", "05-ม.ค.-yy", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestParseAllMonths(t *testing.T) {
	for abbrev, month := range Months {
		got, ok := Parse("10-" + abbrev + "-25")
		if !ok {
			t.Errorf("Parse failed for %s", abbrev)
			continue
		}
		if got.Month() != month || got.Year() != 2025 || got.Day() != 10 {
			t.Errorf("Parse(%s) = %v, want 2025-%02d-10", abbrev, got, int(month))
		}
	}
	assert.Len(t, Months, 12)
}

func TestFromExcelSerial(t *testing.T) {
	got, ok := FromExcelSerial(45371)
	assert.True(t, ok)
	assert.Equal(t, "2024-03-20", got.Format("2006-01-02"))

	got, ok = FromExcelSerial(45371.5)
	assert.True(t, ok)
	assert.Equal(t, 12, got.Hour())

	_, ok = FromExcelSerial(0)
	assert.False(t, ok)
	_, ok = FromExcelSerial(3e6)
	assert.False(t, ok)
}

func TestParseAny(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"20-มี.ค.-24", "2024-03-20", true},
		{"03/04/2024", "2024-04-03", true},
		{"20-MAR-24", "2024-03-20", true},
		{"2024-03-20", "2024-03-20", true},
		{"2024-03-20 08:30:00", "2024-03-20", true},
		{"45371", "2024-03-20", true},
		{"not a date", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseAny(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseAny(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.Format("2006-01-02") != tt.want {
			t.Errorf("ParseAny(%q) = %s, want %s", tt.in, got.Format("2006-01-02"), tt.want)
		}
	}
}

func TestParseDayFirstPrefersDay(t *testing.T) {
	got, ok := ParseDayFirst("01/02/2024")
	assert.True(t, ok)
	assert.Equal(t, time.February, got.Month())
	assert.Equal(t, 1, got.Day())
}
