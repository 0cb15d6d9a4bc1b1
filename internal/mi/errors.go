package mi

import (
	"errors"
	"fmt"
)

// Sentinel errors for the wire layer.
var (
	// ErrUnknownToken is returned when a result carries a token with no
	// registered continuation. Callers treat it as a benign no-op.
	ErrUnknownToken = errors.New("unknown token")

	// ErrContinuationPanic is matched by a ContinuationPanic.
	ErrContinuationPanic = errors.New("continuation panicked")
)

// ParseError reports a record whose shape was recognized but whose payload
// failed structural decoding.
type ParseError struct {
	// Kind is the kind of the offending record.
	Kind Kind

	// Offset is the stream offset of the record.
	Offset int64

	// Input is the payload that failed to decode.
	Input string

	// Err is the underlying decode error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s record at offset %d: %v", e.Kind, e.Offset, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// DesyncError describes output that matched no record shape. It travels
// with a KindUnrecognized record; the text itself is never discarded.
type DesyncError struct {
	Offset int64
	Line   string
}

// Error implements the error interface.
func (e *DesyncError) Error() string {
	return fmt.Sprintf("unrecognized output at offset %d: %q", e.Offset, e.Line)
}

// CommandError is an ^error result from the debugger.
type CommandError struct {
	// Token is the token of the failed command, zero for token-less input.
	Token Token

	// Msg is the human readable message.
	Msg string

	// Code is the optional error code, for example "undefined-command".
	Code string
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s)", e.Msg, e.Code)
	}
	return e.Msg
}

// NewCommandError builds a CommandError from an ^error payload such as
// `msg="No symbol \"x\" in current context."`. A payload that does not
// decode is used verbatim as the message.
func NewCommandError(token Token, payload string) *CommandError {
	res, err := Decode(payload)
	if err != nil {
		return &CommandError{Token: token, Msg: payload}
	}
	return &CommandError{
		Token: token,
		Msg:   res.Get("msg").String(),
		Code:  res.Get("code").String(),
	}
}

// ContinuationPanic wraps a panic raised inside a continuation.
type ContinuationPanic struct {
	Token Token
	Value any
	Stack string
}

// Error implements the error interface.
func (e *ContinuationPanic) Error() string {
	return fmt.Sprintf("continuation for token %s panicked: %v", e.Token, e.Value)
}

// Is allows errors.Is to match ErrContinuationPanic.
func (e *ContinuationPanic) Is(target error) bool {
	return target == ErrContinuationPanic
}
