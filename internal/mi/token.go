package mi

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

// Continuation receives the reply to a command exactly once.
type Continuation func(Reply)

// Reply is the completion of a tokenized command.
type Reply struct {
	// Token is the command token.
	Token Token

	// Class is the result class: done, running, connected, error or exit.
	Class string

	// Payload is the raw result payload.
	Payload string

	// Output is console text captured on the internal sink while the
	// command was in flight. Only set for capture commands.
	Output string
}

// OK reports whether the command succeeded.
func (r Reply) OK() bool {
	return r.Class != ClassError
}

// Err returns a CommandError for ^error replies and nil otherwise.
func (r Reply) Err() error {
	if r.OK() {
		return nil
	}
	return NewCommandError(r.Token, r.Payload)
}

// Decode decodes the reply payload.
func (r Reply) Decode() (Result, error) {
	res, err := Decode(r.Payload)
	if err != nil {
		return Result{}, &ParseError{Kind: KindResult, Input: r.Payload, Err: err}
	}
	return res, nil
}

// PendingCommand is a command awaiting its result.
type PendingCommand struct {
	// Token is the token assigned on send.
	Token Token

	// Command is the command text without token or newline.
	Command string

	// Capture routes console text to the internal sink while pending.
	Capture bool

	// Sent is when the command was registered.
	Sent time.Time

	cont Continuation
}

// Registry assigns tokens and resolves their continuations.
//
// Tokens start at 1, strictly increase and are never reused within one
// Registry. Registry is not safe for concurrent use.
type Registry struct {
	next     Token
	pending  map[Token]*PendingCommand
	captures int
	now      func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[Token]*PendingCommand),
		now:     time.Now,
	}
}

// Register allocates the next token for command and stores its
// continuation. A nil continuation is allowed for fire-and-forget commands.
func (r *Registry) Register(command string, capture bool, cont Continuation) Token {
	r.next++
	pc := &PendingCommand{
		Token:   r.next,
		Command: strings.TrimRight(command, "\r\n"),
		Capture: capture,
		Sent:    r.now(),
		cont:    cont,
	}
	r.pending[pc.Token] = pc
	if capture {
		r.captures++
	}
	return pc.Token
}

// Lookup returns the pending command for token without removing it.
func (r *Registry) Lookup(token Token) (PendingCommand, bool) {
	pc, ok := r.pending[token]
	if !ok {
		return PendingCommand{}, false
	}
	return *pc, true
}

// Cancel forgets a token without invoking its continuation, for example
// when the command could not be written.
func (r *Registry) Cancel(token Token) bool {
	_, ok := r.take(token)
	return ok
}

// Resolve removes the continuation for reply.Token and invokes it.
// Unknown tokens return ErrUnknownToken. A panicking continuation is
// recovered and returned as a ContinuationPanic.
func (r *Registry) Resolve(reply Reply) (err error) {
	pc, ok := r.take(reply.Token)
	if !ok {
		return fmt.Errorf("resolve token %s: %w", reply.Token, ErrUnknownToken)
	}
	if pc.cont == nil {
		return nil
	}

	defer func() {
		if v := recover(); v != nil {
			err = &ContinuationPanic{Token: reply.Token, Value: v, Stack: string(debug.Stack())}
		}
	}()
	pc.cont(reply)
	return nil
}

func (r *Registry) take(token Token) (*PendingCommand, bool) {
	pc, ok := r.pending[token]
	if !ok {
		return nil, false
	}
	delete(r.pending, token)
	if pc.Capture {
		r.captures--
	}
	return pc, true
}

// Len returns the number of commands in flight.
func (r *Registry) Len() int {
	return len(r.pending)
}

// Capturing reports whether any capture command is in flight.
func (r *Registry) Capturing() bool {
	return r.captures > 0
}

// Last returns the most recently assigned token, zero if none.
func (r *Registry) Last() Token {
	return r.next
}

// Clear drops every pending command without invoking continuations and
// returns how many were dropped.
func (r *Registry) Clear() int {
	n := len(r.pending)
	clear(r.pending)
	r.captures = 0
	return n
}

// FormatCommand renders the wire form of a tokenized command.
func FormatCommand(token Token, command string) string {
	return token.String() + strings.TrimRight(command, "\r\n") + "\n"
}
