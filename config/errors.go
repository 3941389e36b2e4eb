package config

import "fmt"

// Error reports a fatal configuration problem: an unknown mode or a
// malformed option value. Construction fails fast with one of these; the
// process aborts startup. Unknown provider names are not reported with this
// type.
type Error struct {
	Option string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Option, e.Reason)
}

func newError(option, reason string) *Error {
	return &Error{Option: option, Reason: reason}
}
