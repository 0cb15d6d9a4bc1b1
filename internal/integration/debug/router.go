package debug

import (
	"errors"
	"strings"

	"github.com/dshills/gdbmi/internal/event"
	"github.com/dshills/gdbmi/internal/mi"
)

func (e *Engine) routeStream(rec mi.Record) {
	text, err := rec.Text()
	if err != nil {
		e.report(err)
		return
	}
	if e.sink == SinkInternal {
		e.scratch.WriteString(text)
		return
	}
	e.display(text)
}

// routeTarget shows inferior output regardless of the active sink.
func (e *Engine) routeTarget(rec mi.Record) {
	text, err := rec.Text()
	if err != nil {
		e.report(err)
		return
	}
	e.display(text)
}

func (e *Engine) routeUnrecognized(rec mi.Record) {
	e.display(rec.Payload + "\n")
	e.report(&mi.DesyncError{Offset: rec.Offset, Line: rec.Payload})
}

func (e *Engine) routeResult(rec mi.Record) {
	if rec.Class == mi.ClassExit {
		e.raise(event.SignalExited)
	}

	if !rec.HasToken {
		e.sink = SinkUser
		e.flushScratch()
		if rec.Class == mi.ClassError {
			e.message(mi.NewCommandError(0, rec.Payload).Msg)
			return
		}
		if rec.Payload != "" {
			e.display(rec.Payload + "\n")
		}
		return
	}

	reply := mi.Reply{Token: rec.Token, Class: rec.Class, Payload: rec.Payload}
	if pc, ok := e.registry.Lookup(rec.Token); ok && pc.Capture {
		reply.Output = e.scratch.String()
		e.scratch.Reset()
	}
	err := e.registry.Resolve(reply)
	switch {
	case errors.Is(err, mi.ErrUnknownToken):
		e.log.V(1).Info("Ignoring result for unknown token", "token", rec.Token, "class", rec.Class)
	case err != nil:
		e.report(err)
	}
}

func (e *Engine) routeExec(rec mi.Record) {
	switch rec.Class {
	case mi.ClassRunning:
		if e.state.Status == StatusRunning {
			return
		}
		e.state.Status = StatusRunning
		e.state.Reason = ""
		e.state.clearFrame()
		e.state.Generation++

	case mi.ClassStopped:
		res, err := rec.Decode()
		if err != nil {
			e.report(err)
		}
		e.state.Status = StatusStopped
		e.state.Reason = res.Get("reason").String()
		if id := res.Get("thread-id").Int(); id > 0 {
			e.state.ThreadID = int(id)
		}
		if res.Get("frame").Exists() {
			e.state.setFrame(res, "frame.")
		} else {
			e.state.clearFrame()
		}
		e.state.Generation++
		e.raise(event.SignalStopped)
		if !strings.HasPrefix(e.state.Reason, "exited") {
			e.frameWanted = true
		}

	default:
		e.log.V(1).Info("Ignoring exec record", "class", rec.Class)
	}
}

func (e *Engine) routeStatus(rec mi.Record) {
	e.log.V(1).Info("Status", "class", rec.Class, "payload", rec.Payload)
}

func (e *Engine) routeNotify(rec mi.Record) {
	switch rec.Class {
	case mi.ClassThreadSelected:
		res, err := rec.Decode()
		if err != nil {
			e.report(err)
			return
		}
		e.state.ThreadID = int(res.Get("id").Int())
		if e.state.Stopped() {
			if res.Get("frame").Exists() {
				e.state.setFrame(res, "frame.")
			}
			e.frameWanted = true
		}
		e.state.Generation++
		e.raise(event.SignalThreadSelected)

	case mi.ClassThreadCreated:
		res, err := rec.Decode()
		if err != nil {
			e.report(err)
			return
		}
		e.threads[int(res.Get("id").Int())] = res.Get("group-id").String()

	case mi.ClassThreadExited:
		res, err := rec.Decode()
		if err != nil {
			e.report(err)
			return
		}
		delete(e.threads, int(res.Get("id").Int()))

	case mi.ClassThreadGroupExited:
		res, err := rec.Decode()
		if err != nil {
			e.report(err)
			return
		}
		group := res.Get("id").String()
		for id, g := range e.threads {
			if g == group {
				delete(e.threads, id)
			}
		}

	case mi.ClassBreakpointCreated, mi.ClassBreakpointModified, mi.ClassBreakpointDeleted:
		e.raise(event.SignalBreakpoints)

	default:
		e.log.V(1).Info("Ignoring notification", "class", rec.Class)
	}
}

// raise adds sig to the set published at the end of the batch.
func (e *Engine) raise(sig event.Signal) {
	e.signals |= sig
}

// finishBatch restores the sink and publishes the batch's signal set once.
func (e *Engine) finishBatch() {
	if e.registry.Capturing() {
		e.sink = SinkInternal
	} else {
		e.sink = SinkUser
		e.flushScratch()
	}

	if e.frameWanted {
		e.frameWanted = false
		e.queryFrame()
	}

	raised := e.signals
	e.signals = 0
	if raised == 0 {
		return
	}
	if err := e.bus.Publish(raised); err != nil {
		e.report(err)
	}
}
