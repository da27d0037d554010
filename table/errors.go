package table

import "errors"

var (
	ErrRowWidth = errors.New("row width does not match columns")
	ErrNoColumn = errors.New("column does not exist")
	ErrCoercion = errors.New("value cannot be coerced")
)
