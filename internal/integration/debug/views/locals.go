package views

import (
	"github.com/dshills/gdbmi/internal/event"
	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/mi"
)

// Variable is a local variable. Value is empty for aggregates, which
// --simple-values does not print.
type Variable struct {
	Name  string
	Type  string
	Value string
}

// DecodeLocals converts a -stack-list-locals result.
func DecodeLocals(res mi.Result) []Variable {
	var vars []Variable
	for _, l := range res.List("locals") {
		if !l.IsObject() {
			vars = append(vars, Variable{Name: l.String()})
			continue
		}
		vars = append(vars, Variable{
			Name:  l.Get("name").String(),
			Type:  l.Get("type").String(),
			Value: l.Get("value").String(),
		})
	}
	return vars
}

// Locals lists the local variables of the selected frame.
type Locals struct {
	*base
	render func([]Variable)
}

// NewLocals creates a locals view.
func NewLocals(e Engine, render func([]Variable), opts ...Option) (*Locals, error) {
	v := &Locals{
		base:   newBase(e, "locals", event.SignalStopped|event.SignalThreadSelected, opts),
		render: render,
	}
	if err := v.subscribe(v.Refresh); err != nil {
		return nil, err
	}
	return v, nil
}

// Refresh queries the locals of the selected frame.
func (v *Locals) Refresh() error {
	if !v.ready() {
		return nil
	}
	st := v.engine.State()
	return v.query("locals "+st.Qualifier(), func(st debug.State) string {
		if q := st.Qualifier(); q != "" {
			return "-stack-list-locals " + q + " --simple-values"
		}
		return "-stack-list-locals --simple-values"
	}, func(res mi.Result) {
		v.render(DecodeLocals(res))
	})
}
