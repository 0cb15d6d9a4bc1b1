package script

import (
	"errors"
	"fmt"
)

var (
	// ErrStateClosed indicates use of a closed Lua state.
	ErrStateClosed = errors.New("lua state closed")

	// ErrNotFunction indicates a global that exists but is not callable.
	ErrNotFunction = errors.New("not a function")

	// ErrBadResult indicates a hook returned something other than a
	// command string, a list of strings, or nil.
	ErrBadResult = errors.New("hook returned an unusable value")
)

// HookError reports a failure inside a named hook.
type HookError struct {
	Hook string
	Err  error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("lua hook %s: %v", e.Hook, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}
