package views

import (
	"github.com/tidwall/gjson"

	"github.com/dshills/gdbmi/internal/event"
	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/mi"
)

// Frame is one stack frame.
type Frame struct {
	Level int
	Addr  string
	Func  string
	File  string
	Line  int
	From  string
}

func frameOf(v gjson.Result) Frame {
	return Frame{
		Level: int(v.Get("level").Int()),
		Addr:  v.Get("addr").String(),
		Func:  v.Get("func").String(),
		File:  v.Get("file").String(),
		Line:  int(v.Get("line").Int()),
		From:  v.Get("from").String(),
	}
}

// ThreadInfo describes one thread.
type ThreadInfo struct {
	ID       int
	TargetID string
	Name     string
	State    string
	Core     string
	Frame    Frame
}

// ThreadList is the decoded answer of -thread-info.
type ThreadList struct {
	Current int
	Threads []ThreadInfo
}

// DecodeThreads converts a -thread-info result.
func DecodeThreads(res mi.Result) ThreadList {
	list := ThreadList{Current: int(res.Get("current-thread-id").Int())}
	for _, t := range res.List("threads") {
		list.Threads = append(list.Threads, ThreadInfo{
			ID:       int(t.Get("id").Int()),
			TargetID: t.Get("target-id").String(),
			Name:     t.Get("name").String(),
			State:    t.Get("state").String(),
			Core:     t.Get("core").String(),
			Frame:    frameOf(t.Get("frame")),
		})
	}
	return list
}

// Threads lists the debuggee's threads.
type Threads struct {
	*base
	render func(ThreadList)
}

// NewThreads creates a thread view. It refreshes on stops and thread
// selection and renders an empty list when the debugger exits.
func NewThreads(e Engine, render func(ThreadList), opts ...Option) (*Threads, error) {
	v := &Threads{
		base:   newBase(e, "threads", event.SignalStopped|event.SignalThreadSelected, opts),
		render: render,
	}
	v.exited = func() { v.render(ThreadList{}) }
	if err := v.subscribe(v.Refresh); err != nil {
		return nil, err
	}
	return v, nil
}

// Refresh queries the thread list.
func (v *Threads) Refresh() error {
	if !v.ready() {
		return nil
	}
	return v.query("thread-info", func(debug.State) string {
		return "-thread-info"
	}, func(res mi.Result) {
		v.render(DecodeThreads(res))
	})
}
