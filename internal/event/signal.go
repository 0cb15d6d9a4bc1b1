package event

import (
	"fmt"
	"strings"
)

// Signal is a set of invalidation reasons. The engine publishes one Signal
// per processed batch with every reason raised during that batch, so
// subscribers refresh at most once per batch.
type Signal uint8

const (
	// SignalStopped means the debuggee stopped.
	SignalStopped Signal = 1 << iota

	// SignalThreadSelected means the selected thread changed.
	SignalThreadSelected

	// SignalBreakpoints means breakpoints were created, modified or
	// deleted.
	SignalBreakpoints

	// SignalExited means the debugger announced its exit.
	SignalExited
)

// Signals lists every reason in publish order.
var Signals = []Signal{SignalStopped, SignalThreadSelected, SignalBreakpoints, SignalExited}

var signalNames = map[Signal]string{
	SignalStopped:        "stopped",
	SignalThreadSelected: "thread-selected",
	SignalBreakpoints:    "breakpoints",
	SignalExited:         "exited",
}

// Has reports whether s contains any reason in other.
func (s Signal) Has(other Signal) bool {
	return s&other != 0
}

// Reasons splits s into its single reasons, in publish order.
func (s Signal) Reasons() []Signal {
	var out []Signal
	for _, r := range Signals {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// String returns the reason names joined with "|".
func (s Signal) String() string {
	if s == 0 {
		return "none"
	}
	var names []string
	rest := s
	for _, r := range Signals {
		if s.Has(r) {
			names = append(names, signalNames[r])
			rest &^= r
		}
	}
	if rest != 0 {
		names = append(names, fmt.Sprintf("signal(%#x)", uint8(rest)))
	}
	return strings.Join(names, "|")
}
