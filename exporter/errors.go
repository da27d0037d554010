package exporter

import "errors"

var (
	ErrNoSheets  = errors.New("workbook needs at least one sheet")
	ErrNoColumns = errors.New("table has no columns")
)
