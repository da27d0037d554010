package converter

import "fmt"

// State шаг конвертации одного файла.
type State int

const (
	StateStart State = iota
	StateExtensionCheck
	StateSpreadsheetRead
	StateDelimitedParse
	StateBlockSplit
	StateTypeCoerce
	StateWrite
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateStart:           "START",
	StateExtensionCheck:  "EXTENSION_CHECK",
	StateSpreadsheetRead: "SPREADSHEET_READ",
	StateDelimitedParse:  "DELIMITED_PARSE",
	StateBlockSplit:      "BLOCK_SPLIT",
	StateTypeCoerce:      "TYPE_COERCE",
	StateWrite:           "WRITE",
	StateDone:            "DONE",
	StateFailed:          "FAILED",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Terminal проверяет, что из s нет переходов.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
