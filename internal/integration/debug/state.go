package debug

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/gdbmi/internal/mi"
)

// Status is the debuggee run status.
type Status int

const (
	// StatusStopped means the debuggee is not executing. This includes the
	// time before it was started.
	StatusStopped Status = iota
	// StatusRunning means the debuggee is executing.
	StatusRunning
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stopped"
	case StatusRunning:
		return "running"
	default:
		return "unknown"
	}
}

// State is the execution state of the debuggee.
//
// Frame fields are only meaningful while Status is StatusStopped; they are
// cleared on every transition to running.
type State struct {
	Status Status

	// Reason is the stop reason, for example "breakpoint-hit". Empty while
	// running.
	Reason string

	// ThreadID is the active thread, zero if unknown.
	ThreadID int

	FrameLevel int
	FrameFile  string
	FrameLine  int
	FrameFunc  string
	FrameAddr  string

	// Generation increases on every status transition and thread
	// selection. Answers computed under an older generation are stale.
	Generation uint64
}

// Stopped reports whether the debuggee is stopped.
func (s State) Stopped() bool {
	return s.Status == StatusStopped
}

// Qualifier renders the context options for thread and frame scoped
// commands, for example "--thread 2 --frame 0". It is empty when no thread
// is known.
func (s State) Qualifier() string {
	if s.ThreadID == 0 {
		return ""
	}
	return fmt.Sprintf("--thread %d --frame %d", s.ThreadID, s.FrameLevel)
}

// ThreadQualifier renders "--thread N", or an empty string when no thread is
// known.
func (s State) ThreadQualifier() string {
	if s.ThreadID == 0 {
		return ""
	}
	return "--thread " + strconv.Itoa(s.ThreadID)
}

// String formats the state for logs.
func (s State) String() string {
	var b strings.Builder
	b.WriteString(s.Status.String())
	if s.Reason != "" {
		fmt.Fprintf(&b, "(%s)", s.Reason)
	}
	if s.ThreadID != 0 {
		fmt.Fprintf(&b, " thread=%d", s.ThreadID)
	}
	if s.Stopped() && s.FrameFunc != "" {
		fmt.Fprintf(&b, " frame=%d %s", s.FrameLevel, s.FrameFunc)
		if s.FrameFile != "" {
			fmt.Fprintf(&b, " %s:%d", s.FrameFile, s.FrameLine)
		}
	}
	fmt.Fprintf(&b, " gen=%d", s.Generation)
	return b.String()
}

func (s *State) clearFrame() {
	s.FrameLevel = 0
	s.FrameFile = ""
	s.FrameLine = 0
	s.FrameFunc = ""
	s.FrameAddr = ""
}

// setFrame copies the fields of an MI frame tuple. Missing fields are
// cleared.
func (s *State) setFrame(frame mi.Result, prefix string) {
	s.FrameLevel = int(frame.Get(prefix + "level").Int())
	s.FrameFile = frame.Get(prefix + "file").String()
	s.FrameLine = int(frame.Get(prefix + "line").Int())
	s.FrameFunc = frame.Get(prefix + "func").String()
	s.FrameAddr = frame.Get(prefix + "addr").String()
}

// Thread is a thread known from thread-created notifications.
type Thread struct {
	ID    int
	Group string
}
