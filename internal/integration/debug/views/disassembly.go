package views

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dshills/gdbmi/internal/event"
	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/mi"
)

// Instruction is one disassembled instruction.
type Instruction struct {
	Address string
	Func    string
	Offset  int
	Inst    string

	// Current marks the instruction at the frame's pc.
	Current bool
}

// DecodeDisassembly converts a -data-disassemble result in mode 0. pc marks
// the current instruction; it may be empty.
func DecodeDisassembly(res mi.Result, pc string) []Instruction {
	want, havePC := parseAddr(pc)
	var insns []Instruction
	for _, in := range res.List("asm_insns") {
		addr := in.Get("address").String()
		got, ok := parseAddr(addr)
		insns = append(insns, Instruction{
			Address: addr,
			Func:    in.Get("func-name").String(),
			Offset:  int(in.Get("offset").Int()),
			Inst:    in.Get("inst").String(),
			Current: havePC && ok && got == want,
		})
	}
	return insns
}

func parseAddr(s string) (uint64, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 16, 64)
	return n, err == nil
}

// Disassembly lists the instructions around the pc of the selected frame.
type Disassembly struct {
	*base
	render func([]Instruction)
}

// NewDisassembly creates a disassembly view.
func NewDisassembly(e Engine, render func([]Instruction), opts ...Option) (*Disassembly, error) {
	v := &Disassembly{
		base:   newBase(e, "disassembly", event.SignalStopped|event.SignalThreadSelected, opts),
		render: render,
	}
	if err := v.subscribe(v.Refresh); err != nil {
		return nil, err
	}
	return v, nil
}

// Refresh disassembles the window around the pc.
func (v *Disassembly) Refresh() error {
	if !v.ready() {
		return nil
	}
	return v.query(v.kind(v.engine.State()), v.command, func(res mi.Result) {
		v.render(DecodeDisassembly(res, v.engine.State().FrameAddr))
	})
}

func (v *Disassembly) kind(st debug.State) string {
	kind := fmt.Sprintf("disassemble window=%d", v.opts.window)
	if q := st.Qualifier(); q != "" {
		kind += " " + q
	}
	return kind
}

func (v *Disassembly) command(st debug.State) string {
	cmd := "-data-disassemble"
	if q := st.Qualifier(); q != "" {
		cmd += " " + q
	}
	return cmd + fmt.Sprintf(" -s $pc-%d -e $pc+%d -- 0", v.opts.window, v.opts.window)
}
