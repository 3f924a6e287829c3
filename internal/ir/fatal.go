package ir

import "fmt"

// FatalInternalError indicates corrupt or mismatched bytecode input. It is
// never recoverable for the compilation in progress: builders panic with it
// and the public API recovers it into an error result.
type FatalInternalError struct {
	Msg string
}

// Error implements error.
func (e *FatalInternalError) Error() string {
	return "fatal internal error: " + e.Msg
}

// FatalInternalErrorf aborts the current compilation.
func FatalInternalErrorf(format string, args ...interface{}) {
	panic(&FatalInternalError{Msg: fmt.Sprintf(format, args...)})
}

// AssertOrFailFast aborts the current compilation unless cond holds.
func AssertOrFailFast(cond bool, msg string) {
	if !cond {
		panic(&FatalInternalError{Msg: msg})
	}
}
