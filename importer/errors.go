package importer

import "errors"

var (
	ErrNotSpreadsheet  = errors.New("file content is not a spreadsheet")
	ErrCorruptWorkbook = errors.New("workbook cannot be read")
	ErrEmptyWorkbook   = errors.New("workbook has no data")
)
