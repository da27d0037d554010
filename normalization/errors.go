package normalization

import "errors"

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrNilInput        = errors.New("nil table or rules")
)
