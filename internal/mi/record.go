package mi

import (
	"fmt"
	"strconv"
)

// Kind identifies the shape of an output record.
type Kind int

const (
	// KindConsole is console stream text (~).
	KindConsole Kind = iota
	// KindTarget is target stream text (@).
	KindTarget
	// KindLog is log stream text (&).
	KindLog
	// KindResult is a command result (^).
	KindResult
	// KindExec is an exec async record (*).
	KindExec
	// KindStatus is a status async record (+).
	KindStatus
	// KindNotify is a notify async record (=).
	KindNotify
	// KindPrompt is the "(gdb)" prompt that ends a group of output.
	KindPrompt
	// KindUnrecognized is a complete line matching no known shape.
	KindUnrecognized
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConsole:
		return "console"
	case KindTarget:
		return "target"
	case KindLog:
		return "log"
	case KindResult:
		return "result"
	case KindExec:
		return "exec"
	case KindStatus:
		return "status"
	case KindNotify:
		return "notify"
	case KindPrompt:
		return "prompt"
	case KindUnrecognized:
		return "unrecognized"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// IsStream reports whether records of this kind carry stream text.
func (k Kind) IsStream() bool {
	return k == KindConsole || k == KindTarget || k == KindLog
}

// Result classes.
const (
	ClassDone      = "done"
	ClassRunning   = "running"
	ClassConnected = "connected"
	ClassError     = "error"
	ClassExit      = "exit"
)

// Exec async classes.
const (
	ClassStopped = "stopped"
)

// Notify async classes handled by the engine.
const (
	ClassThreadCreated       = "thread-created"
	ClassThreadExited        = "thread-exited"
	ClassThreadSelected      = "thread-selected"
	ClassBreakpointCreated   = "breakpoint-created"
	ClassBreakpointModified  = "breakpoint-modified"
	ClassBreakpointDeleted   = "breakpoint-deleted"
	ClassThreadGroupExited   = "thread-group-exited"
	ClassThreadGroupStarted  = "thread-group-started"
	ClassThreadGroupAdded    = "thread-group-added"
	ClassCommandParamChanged = "cmd-param-changed"
)

// Token correlates a command with its result record.
type Token uint64

// String returns the decimal form used on the wire.
func (t Token) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// Record is one decoded output line.
//
// Records are produced by Demuxer.Feed in stream order and are meant to be
// consumed immediately.
type Record struct {
	// Kind is the record shape.
	Kind Kind

	// Class is the result, exec or notify class ("done", "stopped",
	// "thread-selected"). Empty for stream, prompt and unrecognized records.
	Class string

	// Token is the command token. Only meaningful when HasToken is set.
	Token Token

	// HasToken reports whether the line carried a token prefix.
	HasToken bool

	// Payload is the raw text after the class and its comma, or the quoted
	// C string of a stream record, or the whole line of an unrecognized record.
	Payload string

	// Offset is the absolute position of the record in the output stream.
	Offset int64
}

// Text returns the unescaped text of a stream record. For unrecognized
// records the raw line is returned with a trailing newline.
func (r Record) Text() (string, error) {
	switch {
	case r.Kind.IsStream():
		text, err := Unquote(r.Payload)
		if err != nil {
			return "", &ParseError{Kind: r.Kind, Offset: r.Offset, Input: r.Payload, Err: err}
		}
		return text, nil
	case r.Kind == KindUnrecognized:
		return r.Payload + "\n", nil
	default:
		return "", fmt.Errorf("%s record has no stream text", r.Kind)
	}
}

// Decode decodes the payload of a result or async record.
func (r Record) Decode() (Result, error) {
	res, err := Decode(r.Payload)
	if err != nil {
		return Result{}, &ParseError{Kind: r.Kind, Offset: r.Offset, Input: r.Payload, Err: err}
	}
	return res, nil
}

// String formats the record for logs.
func (r Record) String() string {
	tok := ""
	if r.HasToken {
		tok = r.Token.String()
	}
	return fmt.Sprintf("%s@%d[%s%s] %q", r.Kind, r.Offset, tok, r.Class, r.Payload)
}
