package views

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/dshills/gdbmi/internal/event"
	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/mi"
)

// Location is one resolved location of a breakpoint.
type Location struct {
	Number  string
	Enabled bool
	Addr    string
	Func    string
	File    string
	Line    int
}

// Breakpoint is a breakpoint, watchpoint or catchpoint.
type Breakpoint struct {
	Number           string
	Type             string
	Disp             string
	Enabled          bool
	Addr             string
	Func             string
	File             string
	Line             int
	Times            int
	Condition        string
	OriginalLocation string

	// Locations is set for breakpoints with more than one location.
	Locations []Location
}

func locationOf(v gjson.Result) Location {
	return Location{
		Number:  v.Get("number").String(),
		Enabled: v.Get("enabled").String() == "y",
		Addr:    v.Get("addr").String(),
		Func:    v.Get("func").String(),
		File:    v.Get("file").String(),
		Line:    int(v.Get("line").Int()),
	}
}

// groupBreakpoints folds location entries ("1.1", "1.2") into the
// breakpoint preceding them. Newer debuggers nest them in a locations list
// instead; both forms are accepted.
func groupBreakpoints(items []gjson.Result) []Breakpoint {
	var bps []Breakpoint
	for _, item := range items {
		num := item.Get("number").String()
		if parent, _, ok := strings.Cut(num, "."); ok && len(bps) > 0 && bps[len(bps)-1].Number == parent {
			last := &bps[len(bps)-1]
			last.Locations = append(last.Locations, locationOf(item))
			continue
		}
		bp := Breakpoint{
			Number:           num,
			Type:             item.Get("type").String(),
			Disp:             item.Get("disp").String(),
			Enabled:          item.Get("enabled").String() == "y",
			Addr:             item.Get("addr").String(),
			Func:             item.Get("func").String(),
			File:             item.Get("file").String(),
			Line:             int(item.Get("line").Int()),
			Times:            int(item.Get("times").Int()),
			Condition:        item.Get("cond").String(),
			OriginalLocation: item.Get("original-location").String(),
		}
		for _, loc := range mi.ListOf(item.Get("locations")) {
			bp.Locations = append(bp.Locations, locationOf(loc))
		}
		bps = append(bps, bp)
	}
	return bps
}

// DecodeBreakpoints converts a -break-list result.
func DecodeBreakpoints(res mi.Result) []Breakpoint {
	return groupBreakpoints(res.List("BreakpointTable.body"))
}

// DecodeBkpt converts the bkpt field of a -break-insert result or a
// breakpoint notification.
func DecodeBkpt(res mi.Result) []Breakpoint {
	return groupBreakpoints(res.List("bkpt"))
}

// Breakpoints lists breakpoints.
type Breakpoints struct {
	*base
	render func([]Breakpoint)
}

// NewBreakpoints creates a breakpoint view. It refreshes when breakpoints
// change and on stops, which update hit counts.
func NewBreakpoints(e Engine, render func([]Breakpoint), opts ...Option) (*Breakpoints, error) {
	v := &Breakpoints{
		base:   newBase(e, "breakpoints", event.SignalBreakpoints|event.SignalStopped, opts),
		render: render,
	}
	if err := v.subscribe(v.Refresh); err != nil {
		return nil, err
	}
	return v, nil
}

// Refresh queries the breakpoint table. It works while the debuggee runs.
func (v *Breakpoints) Refresh() error {
	if v.closed {
		return nil
	}
	return v.query("break-list", func(debug.State) string {
		return "-break-list"
	}, func(res mi.Result) {
		v.render(DecodeBreakpoints(res))
	})
}
