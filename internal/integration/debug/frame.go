package debug

import "github.com/dshills/gdbmi/internal/mi"

// queryFrame asks for the selected frame of the active thread. The answer
// is applied only if the debuggee is still stopped under the same
// generation.
func (e *Engine) queryFrame() {
	if !e.frameTracking || e.closed || !e.state.Stopped() || e.state.ThreadID == 0 {
		return
	}
	gen := e.state.Generation
	_, err := e.Send("-stack-info-frame "+e.state.ThreadQualifier(), func(r mi.Reply) {
		if !r.OK() {
			e.log.V(1).Info("Frame query failed", "error", r.Err().Error())
			return
		}
		if !e.state.Stopped() || e.state.Generation != gen {
			e.log.V(1).Info("Discarding stale frame", "generation", gen, "current", e.state.Generation)
			return
		}
		res, err := r.Decode()
		if err != nil {
			e.report(err)
			return
		}
		e.state.setFrame(res, "frame.")
	})
	if err != nil {
		e.report(err)
	}
}
