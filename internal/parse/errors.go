package parse

import "fmt"

// Error is a positional compile failure.
type Error struct {
	Name string
	Line int
	Err  error
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("parse: %s:%d: %v", e.Name, e.Line, e.Err)
	}
	return fmt.Sprintf("parse: line %d: %v", e.Line, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
