// Package blocks splits wide exports that repeat a header marker column into
// independent sub-tables.
package blocks

import (
	"strconv"
	"strings"

	"inventoryetl/table"
)

// DefaultMarker начинает новый блок везде, где встречается в заголовке.
const DefaultMarker = "item"

// Block непрерывный диапазон столбцов широкой таблицы.
type Block struct {
	// Index считается с 1 в порядке столбцов.
	Index int
	Start int
	// End не включается.
	End int
	Raw *table.Raw
	// Dropped число строк, удаленных как пустые в пределах диапазона.
	Dropped int
}

// SheetName возвращает имя листа блока, Sheet1..SheetN.
func (b Block) SheetName() string {
	return "Sheet" + strconv.Itoa(b.Index)
}

// Starts возвращает позиции заголовков, совпадающих с marker без учета
// регистра и крайних пробелов.
func Starts(columns []string, marker string) []int {
	marker = strings.ToLower(strings.TrimSpace(marker))
	var starts []int
	for i, c := range columns {
		if strings.ToLower(strings.TrimSpace(c)) == marker {
			starts = append(starts, i)
		}
	}
	return starts
}

// Split режет raw на блоки по вхождениям marker. Блок тянется до следующего
// вхождения, последний до конца таблицы. Столбцы перед первым маркером
// относятся к первому блоку. Без маркеров вся таблица один блок.
func Split(raw *table.Raw, marker string) []Block {
	if marker == "" {
		marker = DefaultMarker
	}
	width := len(raw.Columns)
	starts := Starts(raw.Columns, marker)
	if len(starts) == 0 {
		starts = []int{0}
	}
	starts[0] = 0

	blocks := make([]Block, 0, len(starts))
	for i, start := range starts {
		end := width
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		blocks = append(blocks, slice(raw, i+1, start, end))
	}
	return blocks
}

func slice(raw *table.Raw, index, start, end int) Block {
	sub := &table.Raw{
		Path:       raw.Path,
		Sheet:      "Sheet" + strconv.Itoa(index),
		Encoding:   raw.Encoding,
		Confidence: raw.Confidence,
		Columns:    append([]string(nil), raw.Columns[start:end]...),
	}
	dropped := 0
	for _, rec := range raw.Rows {
		cells := make([]string, end-start)
		for j := start; j < end && j < len(rec); j++ {
			cells[j-start] = rec[j]
		}
		if table.IsEmptyRow(cells) {
			dropped++
			continue
		}
		sub.Rows = append(sub.Rows, cells)
	}
	return Block{Index: index, Start: start, End: end, Raw: sub, Dropped: dropped}
}
