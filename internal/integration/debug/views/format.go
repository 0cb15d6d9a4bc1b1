package views

import (
	"fmt"
	"strings"
)

// FormatThreads renders a thread list as text, marking the current thread.
func FormatThreads(list ThreadList) string {
	var b strings.Builder
	for _, t := range list.Threads {
		mark := " "
		if t.ID == list.Current {
			mark = "*"
		}
		fmt.Fprintf(&b, "%s %d %s", mark, t.ID, t.TargetID)
		if t.Name != "" {
			fmt.Fprintf(&b, " %q", t.Name)
		}
		if t.Frame.Func != "" {
			fmt.Fprintf(&b, " %s", formatFrame(t.Frame))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatBreakpoints renders breakpoints as text.
func FormatBreakpoints(bps []Breakpoint) string {
	var b strings.Builder
	for _, bp := range bps {
		state := "y"
		if !bp.Enabled {
			state = "n"
		}
		fmt.Fprintf(&b, "%-4s %-10s %s", bp.Number, bp.Type, state)
		if bp.File != "" {
			fmt.Fprintf(&b, " %s:%d", bp.File, bp.Line)
		} else if bp.OriginalLocation != "" {
			fmt.Fprintf(&b, " %s", bp.OriginalLocation)
		}
		if bp.Times > 0 {
			fmt.Fprintf(&b, " hits=%d", bp.Times)
		}
		if bp.Condition != "" {
			fmt.Fprintf(&b, " if %s", bp.Condition)
		}
		b.WriteByte('\n')
		for _, loc := range bp.Locations {
			fmt.Fprintf(&b, "  %-6s %s in %s at %s:%d\n", loc.Number, loc.Addr, loc.Func, loc.File, loc.Line)
		}
	}
	return b.String()
}

// FormatStack renders frames as text.
func FormatStack(frames []Frame) string {
	var b strings.Builder
	for _, f := range frames {
		fmt.Fprintf(&b, "#%-2d %s\n", f.Level, formatFrame(f))
	}
	return b.String()
}

// FormatLocals renders variables as text.
func FormatLocals(vars []Variable) string {
	var b strings.Builder
	for _, v := range vars {
		switch {
		case v.Value != "":
			fmt.Fprintf(&b, "%s %s = %s\n", v.Type, v.Name, v.Value)
		case v.Type != "":
			fmt.Fprintf(&b, "%s %s\n", v.Type, v.Name)
		default:
			fmt.Fprintf(&b, "%s\n", v.Name)
		}
	}
	return b.String()
}

// FormatDisassembly renders instructions as text, marking the pc.
func FormatDisassembly(insns []Instruction) string {
	var b strings.Builder
	for _, in := range insns {
		mark := "  "
		if in.Current {
			mark = "=>"
		}
		fmt.Fprintf(&b, "%s %s <%s+%d>\t%s\n", mark, in.Address, in.Func, in.Offset, in.Inst)
	}
	return b.String()
}

func formatFrame(f Frame) string {
	switch {
	case f.File != "":
		return fmt.Sprintf("%s at %s:%d", f.Func, f.File, f.Line)
	case f.From != "":
		return fmt.Sprintf("%s from %s", f.Func, f.From)
	default:
		return fmt.Sprintf("%s (%s)", f.Func, f.Addr)
	}
}
