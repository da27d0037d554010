package database

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidTableName возвращается для идентификаторов, небезопасных для SQL.
var ErrInvalidTableName = errors.New("invalid table name")

// tableNamePattern разрешает латиницу, цифры и подчеркивание, но не цифру в начале.
var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateTableName проверяет, что имя таблицы данных безопасно для
// динамического SQL. Имена берутся из каталога и проверяются при каждом использовании.
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTableName)
	}
	if !tableNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %s", ErrInvalidTableName, name)
	}
	return nil
}
