package process

import "errors"

// Sentinel errors for the process package.
var (
	// ErrNotStarted is returned by operations that need a running process.
	ErrNotStarted = errors.New("process not started")

	// ErrAlreadyStarted is returned when starting a process twice.
	ErrAlreadyStarted = errors.New("process already started")

	// ErrNotFound is returned for an unknown process id.
	ErrNotFound = errors.New("process not found")

	// ErrShutdown is returned by Launch after Shutdown.
	ErrShutdown = errors.New("supervisor is shut down")

	// ErrEmptyPath is returned for a Spec without a program path.
	ErrEmptyPath = errors.New("empty program path")
)
