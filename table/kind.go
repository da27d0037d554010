package table

import (
	"fmt"
	"strings"
)

// Kind тип столбца или отдельного значения.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindDate
	KindBool
)

var kindNames = map[Kind]string{
	KindString: "string",
	KindInt:    "int",
	KindFloat:  "float",
	KindDate:   "date",
	KindBool:   "bool",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind обратна Kind.String.
func ParseKind(s string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == needle {
			return k, nil
		}
	}
	return KindString, fmt.Errorf("unknown kind %q", s)
}

// unify возвращает тип, вмещающий значения и a, и b.
func unify(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case (a == KindInt && b == KindFloat) || (a == KindFloat && b == KindInt):
		return KindFloat
	default:
		return KindString
	}
}
