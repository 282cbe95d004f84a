package spec

import (
	"go/token"
	"strings"
)

// ValidationError is one problem found while building a type's spec
type ValidationError struct {
	Type   string // implementation FQN
	Member string // field or method name; empty for the type itself
	Pos    token.Position
	Msg    string
	Hint   string
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	if e.Pos.IsValid() {
		sb.WriteString(e.Pos.String())
		sb.WriteString(": ")
	}
	sb.WriteString(e.Type)
	if e.Member != "" {
		sb.WriteString(".")
		sb.WriteString(e.Member)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	return sb.String()
}

// ValidationErrors are all problems found for one or more types
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	lines := make([]string, len(v))
	for i, e := range v {
		lines[i] = e.Error()
	}
	return strings.Join(lines, "\n")
}

// errOrNil keeps a nil slice from turning into a non-nil error
func (v ValidationErrors) errOrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
