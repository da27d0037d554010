package converter

import (
	"errors"
	"fmt"
)

var (
	ErrNilRules      = errors.New("conversion rules are nil")
	ErrNoSourceRoot  = errors.New("source root does not exist")
	ErrUnknownFilter = errors.New("filter names an unknown category")
)

// FileError ошибка одного файла. State состояние, на котором файл остановился.
type FileError struct {
	Path  string
	State State
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.State, e.Err)
}

// Unwrap возвращает причину для errors.Is и errors.As.
func (e *FileError) Unwrap() error {
	return e.Err
}
