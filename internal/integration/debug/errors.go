package debug

import "errors"

// Engine errors.
var (
	// ErrReentrantFeed is returned when Feed is called while a batch is
	// still being processed.
	ErrReentrantFeed = errors.New("feed called while a batch is processing")

	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("engine closed")

	// ErrInvalidQuery is returned for a query without kind, owner, command
	// or handler.
	ErrInvalidQuery = errors.New("invalid query")
)
