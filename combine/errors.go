package combine

import "errors"

var (
	ErrNoStore      = errors.New("combined store is not configured")
	ErrEmptyKey     = errors.New("store key is empty")
	ErrNoInputFiles = errors.New("no converted workbooks found")
	ErrNilRules     = errors.New("combine rules are nil")
)
