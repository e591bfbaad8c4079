package query

import "fmt"

// Error is the single failure kind for query parsing and evaluation.
// Any Error aborts the whole run; there is no partial result.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// errorf builds an *Error from a format string.
func errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// ArityError is reported by a registered function when it is invoked with
// the wrong number (or shape) of arguments. The interpreter translates it
// into an "invalid number of arguments" Error; any other failure from a
// function propagates unchanged.
type ArityError struct {
	Func string
	Want string
	Got  int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("function %s wants %s arguments, got %d", e.Func, e.Want, e.Got)
}
