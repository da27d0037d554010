package detect

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseResult результат нестрогого разбора текста с разделителями.
type ParseResult struct {
	Columns []string
	Rows    [][]string
	Skipped int
}

// ParseDelimited разбирает text по sep, пропустив skipRows первых строк.
// Первая оставшаяся запись становится заголовком. Битые записи и записи шире
// заголовка пропускаются, короткие дополняются пустыми ячейками.
func ParseDelimited(text string, sep rune, skipRows int) (*ParseResult, error) {
	text = dropLines(text, skipRows)

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sep
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	res := &ParseResult{}
	header := true
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				res.Skipped++
				continue
			}
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		if header {
			res.Columns = rec
			header = false
			continue
		}
		switch {
		case len(rec) > len(res.Columns):
			res.Skipped++
			continue
		case len(rec) < len(res.Columns):
			padded := make([]string, len(res.Columns))
			copy(padded, rec)
			rec = padded
		}
		res.Rows = append(res.Rows, rec)
	}
	if header || len(res.Columns) == 0 {
		return nil, ErrNoHeader
	}
	return res, nil
}

func dropLines(text string, n int) string {
	for i := 0; i < n; i++ {
		nl := strings.IndexByte(text, '\n')
		if nl < 0 {
			return ""
		}
		text = text[nl+1:]
	}
	return text
}
