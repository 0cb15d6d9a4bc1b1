package views

import (
	"fmt"

	"github.com/dshills/gdbmi/internal/event"
	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/mi"
)

// DecodeStack converts a -stack-list-frames result.
func DecodeStack(res mi.Result) []Frame {
	var frames []Frame
	for _, f := range res.List("stack") {
		frames = append(frames, frameOf(f))
	}
	return frames
}

// Stack lists the frames of the active thread.
type Stack struct {
	*base
	render func([]Frame)
}

// NewStack creates a call stack view.
func NewStack(e Engine, render func([]Frame), opts ...Option) (*Stack, error) {
	v := &Stack{
		base:   newBase(e, "stack", event.SignalStopped|event.SignalThreadSelected, opts),
		render: render,
	}
	if err := v.subscribe(v.Refresh); err != nil {
		return nil, err
	}
	return v, nil
}

// Refresh queries the frames of the active thread.
func (v *Stack) Refresh() error {
	if !v.ready() {
		return nil
	}
	return v.query(v.kind(v.engine.State()), v.command, func(res mi.Result) {
		v.render(DecodeStack(res))
	})
}

// kind includes the depth: stack views with different limits must not
// share a reply.
func (v *Stack) kind(st debug.State) string {
	kind := "stack"
	if q := st.ThreadQualifier(); q != "" {
		kind += " " + q
	}
	if v.opts.depth > 0 {
		kind += fmt.Sprintf(" depth=%d", v.opts.depth)
	}
	return kind
}

func (v *Stack) command(st debug.State) string {
	cmd := "-stack-list-frames"
	if q := st.ThreadQualifier(); q != "" {
		cmd += " " + q
	}
	if v.opts.depth > 0 {
		cmd += fmt.Sprintf(" 0 %d", v.opts.depth-1)
	}
	return cmd
}
