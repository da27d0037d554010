package detect

import (
	"fmt"
	"strings"
)

// Delimiter класс разделителя полей исходного файла.
type Delimiter int

const (
	Tab Delimiter = iota
	Pipe
	// Native означает двоичную книгу, а не текст с разделителями.
	Native
)

func (d Delimiter) String() string {
	switch d {
	case Tab:
		return "tab"
	case Pipe:
		return "pipe"
	case Native:
		return "native"
	}
	return fmt.Sprintf("delimiter(%d)", int(d))
}

// Rune возвращает символ разделителя. У Native его нет.
func (d Delimiter) Rune() rune {
	switch d {
	case Tab:
		return '\t'
	case Pipe:
		return '|'
	}
	return 0
}

// ParseDelimiter принимает "tab", "pipe", "native" и сами символы.
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tab", `\t`, "tsv":
		return Tab, nil
	case "pipe", "|":
		return Pipe, nil
	case "native", "xls", "xlsx", "excel":
		return Native, nil
	}
	if s == "\t" {
		return Tab, nil
	}
	return Tab, fmt.Errorf("unknown delimiter %q", s)
}
