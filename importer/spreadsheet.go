// Package importer reads native spreadsheet exports into raw tables.
package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"inventoryetl/table"
)

// Container физический формат файла независимо от расширения.
type Container int

const (
	ContainerText Container = iota
	// ContainerOLE2 старая книга BIFF (.xls).
	ContainerOLE2
	// ContainerZIP книга Office Open XML (.xlsx).
	ContainerZIP
)

func (c Container) String() string {
	switch c {
	case ContainerOLE2:
		return "ole2"
	case ContainerZIP:
		return "zip"
	}
	return "text"
}

var (
	ole2Magic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	zipMagic  = []byte{'P', 'K', 0x03, 0x04}
)

// Sniff определяет формат по первым байтам файла.
func Sniff(head []byte) Container {
	switch {
	case bytes.HasPrefix(head, ole2Magic):
		return ContainerOLE2
	case bytes.HasPrefix(head, zipMagic):
		return ContainerZIP
	}
	return ContainerText
}

// SniffFile читает первые байты path и определяет формат.
func SniffFile(path string) (Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return ContainerText, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, len(ole2Magic))
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ContainerText, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return Sniff(head[:n]), nil
}

// ReadSpreadsheet читает первый лист книги. Для текстовых файлов с любым
// расширением возвращает ErrNotSpreadsheet. charset нужен только строкам BIFF.
func ReadSpreadsheet(path, charset string, skipRows int) (*table.Raw, error) {
	container, err := SniffFile(path)
	if err != nil {
		return nil, err
	}
	var raw *table.Raw
	switch container {
	case ContainerOLE2:
		raw, err = readXLS(path, charset)
	case ContainerZIP:
		var sheets []*table.Raw
		sheets, err = readXLSX(path, true)
		if err == nil {
			raw = sheets[0]
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotSpreadsheet, path)
	}
	if err != nil {
		return nil, err
	}
	withHeader(raw, skipRows)
	if len(raw.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyWorkbook, path)
	}
	return raw, nil
}

// ReadWorkbook читает все листы книги .xlsx, первая строка заголовок.
func ReadWorkbook(path string) ([]*table.Raw, error) {
	sheets, err := readXLSX(path, false)
	if err != nil {
		return nil, err
	}
	for _, s := range sheets {
		withHeader(s, 0)
	}
	return sheets, nil
}

func readXLSX(path string, firstOnly bool) ([]*table.Raw, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyWorkbook, path)
	}
	if firstOnly {
		names = names[:1]
	}
	out := make([]*table.Raw, 0, len(names))
	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to get rows of %s: %w", name, err)
		}
		out = append(out, &table.Raw{Path: path, Sheet: name, Encoding: "utf-8", Confidence: 1, Rows: rows})
	}
	return out, nil
}

func readXLS(path, charset string) (raw *table.Raw, err error) {
	if charset == "" {
		charset = "utf-8"
	}
	// Читатель BIFF паникует на некоторых поврежденных файлах.
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = fmt.Errorf("%w: %s: %v", ErrCorruptWorkbook, path, r)
		}
	}()

	wb, err := xls.Open(path, charset)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptWorkbook, path, err)
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyWorkbook, path)
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyWorkbook, path)
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		rec := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			rec[j] = row.Col(j)
		}
		rows = append(rows, rec)
	}
	return &table.Raw{Path: path, Sheet: sheet.Name, Encoding: charset, Rows: rows}, nil
}

// withHeader пропускает skipRows строк, берет следующую как заголовок и
// дополняет все строки до самой широкой записи.
func withHeader(raw *table.Raw, skipRows int) {
	rows := raw.Rows
	if skipRows >= len(rows) {
		raw.Columns, raw.Rows = nil, nil
		return
	}
	rows = rows[skipRows:]
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	padded := make([][]string, len(rows))
	for i, r := range rows {
		rec := make([]string, width)
		copy(rec, r)
		padded[i] = rec
	}
	raw.Columns = padded[0]
	raw.Rows = padded[1:]
}
