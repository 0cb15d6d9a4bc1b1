package debug

import "slices"

// Tracker records which background query kinds are in flight.
//
// It is the single record of what is in flight: Engine.Query sends only
// when Begin succeeds. A kind is marked when its command is sent and
// cleared when the reply is processed, whether it succeeded or failed.
type Tracker struct {
	inflight map[string]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{inflight: make(map[string]struct{})}
}

// Begin marks kind as in flight. It returns false if it already was.
func (t *Tracker) Begin(kind string) bool {
	if _, ok := t.inflight[kind]; ok {
		return false
	}
	t.inflight[kind] = struct{}{}
	return true
}

// Done clears the mark for kind.
func (t *Tracker) Done(kind string) {
	delete(t.inflight, kind)
}

// InFlight reports whether a query of kind is in flight.
func (t *Tracker) InFlight(kind string) bool {
	_, ok := t.inflight[kind]
	return ok
}

// Len returns the number of kinds in flight.
func (t *Tracker) Len() int {
	return len(t.inflight)
}

// Kinds returns the in-flight kinds in sorted order.
func (t *Tracker) Kinds() []string {
	kinds := make([]string, 0, len(t.inflight))
	for k := range t.inflight {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Reset clears every mark.
func (t *Tracker) Reset() {
	clear(t.inflight)
}
