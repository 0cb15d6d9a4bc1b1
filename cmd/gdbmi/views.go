package main

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/dshills/gdbmi/internal/config"
	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/integration/debug/views"
)

type view interface {
	Close() error
}

// viewSet owns the views named in the configuration. Each prints a
// titled block whenever it refreshes.
type viewSet struct {
	views []view
}

func newViewSet(e *debug.Engine, cfg config.Config, print func(string), log logr.Logger) (*viewSet, error) {
	opts := []views.Option{
		views.WithDepth(cfg.Engine.StackDepth),
		views.WithWindow(cfg.Engine.DisasmWindow),
		views.WithErrorHandler(func(err error) {
			log.V(1).Info("View refresh failed", "error", err.Error())
		}),
	}
	block := func(title, body string) {
		if body == "" {
			body = "  (none)\n"
		}
		print(fmt.Sprintf("[%s]\n%s", title, body))
	}

	set := &viewSet{}
	for _, name := range cfg.Views {
		var (
			v   view
			err error
		)
		switch name {
		case "threads":
			v, err = views.NewThreads(e, func(l views.ThreadList) { block(name, views.FormatThreads(l)) }, opts...)
		case "breakpoints":
			v, err = views.NewBreakpoints(e, func(b []views.Breakpoint) { block(name, views.FormatBreakpoints(b)) }, opts...)
		case "stack":
			v, err = views.NewStack(e, func(f []views.Frame) { block(name, views.FormatStack(f)) }, opts...)
		case "locals":
			v, err = views.NewLocals(e, func(vars []views.Variable) { block(name, views.FormatLocals(vars)) }, opts...)
		case "disassembly":
			v, err = views.NewDisassembly(e, func(i []views.Instruction) { block(name, views.FormatDisassembly(i)) }, opts...)
		default:
			err = fmt.Errorf("unknown view %q", name)
		}
		if err != nil {
			set.Close()
			return nil, err
		}
		set.views = append(set.views, v)
	}
	return set, nil
}

// Close closes every view.
func (s *viewSet) Close() {
	for _, v := range s.views {
		_ = v.Close()
	}
	s.views = nil
}
