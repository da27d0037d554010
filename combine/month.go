package combine

import "regexp"

// UnknownMonth значение Month для файлов без метки "___by_MMM".
const UnknownMonth = "Unknown"

var monthPattern = regexp.MustCompile(`___by_([A-Z]{3})`)

var months = map[string]string{
	"JAN": "01", "FEB": "02", "MAR": "03", "APR": "04", "MAY": "05", "JUN": "06",
	"JUL": "07", "AUG": "08", "SEP": "09", "OCT": "10", "NOV": "11", "DEC": "12",
}

// ExtractMonth возвращает двузначный месяц из имен вида
// "G5_Inventory_Value_Report___by_APR24.xlsx" или UnknownMonth.
func ExtractMonth(filename string) string {
	m := monthPattern.FindStringSubmatch(filename)
	if m == nil {
		return UnknownMonth
	}
	if mm, ok := months[m[1]]; ok {
		return mm
	}
	return UnknownMonth
}
