package debug

import (
	"fmt"
	"runtime/debug"

	"github.com/dshills/gdbmi/internal/mi"
)

// Request is a background query on behalf of a view.
type Request struct {
	// Kind is the deduplication key. Requests of one kind share a single
	// command while it is in flight.
	Kind string

	// Owner identifies the requester. A repeated request from the same owner
	// replaces its handler.
	Owner string

	// Command builds the MI command from the state at send time.
	Command func(State) string

	// Handle receives the reply, including ^error replies. It is not called
	// for replies that became stale.
	Handle func(mi.Reply)
}

type waiter struct {
	owner  string
	handle func(mi.Reply)
}

type query struct {
	kind       string
	command    func(State) string
	waiters    []waiter
	generation uint64
	retried    bool
}

func (q *query) wait(owner string, handle func(mi.Reply)) {
	for i := range q.waiters {
		if q.waiters[i].owner == owner {
			q.waiters[i].handle = handle
			return
		}
	}
	q.waiters = append(q.waiters, waiter{owner: owner, handle: handle})
}

// Query sends req.Command unless the tracker shows a query of req.Kind in
// flight. A request for a kind the engine itself has in flight joins it; a
// kind marked through Pending by someone else is skipped until cleared.
func (e *Engine) Query(req Request) error {
	if e.closed {
		return ErrClosed
	}
	if req.Kind == "" || req.Owner == "" || req.Command == nil || req.Handle == nil {
		return ErrInvalidQuery
	}

	if !e.tracker.Begin(req.Kind) {
		q, ok := e.queries[req.Kind]
		if !ok {
			e.log.V(1).Info("Query kind marked pending elsewhere, skipping", "kind", req.Kind, "owner", req.Owner)
			return nil
		}
		q.wait(req.Owner, req.Handle)
		if q.generation != e.state.Generation {
			q.retried = false
		}
		e.log.V(2).Info("Coalesced query", "kind", req.Kind, "owner", req.Owner)
		return nil
	}

	q := &query{kind: req.Kind, command: req.Command}
	q.wait(req.Owner, req.Handle)
	return e.issue(q)
}

// issue sends q. The caller has already marked q.kind in the tracker.
func (e *Engine) issue(q *query) error {
	e.queries[q.kind] = q
	q.generation = e.state.Generation

	_, err := e.Send(q.command(e.state), func(r mi.Reply) {
		e.complete(q, r)
	})
	if err != nil {
		e.tracker.Done(q.kind)
		delete(e.queries, q.kind)
		return fmt.Errorf("query %s: %w", q.kind, err)
	}
	return nil
}

// complete clears the pending mark before anything else so a failing
// handler cannot block future queries of the kind.
func (e *Engine) complete(q *query, r mi.Reply) {
	e.tracker.Done(q.kind)
	delete(e.queries, q.kind)

	if q.generation != e.state.Generation {
		if e.state.Stopped() && !q.retried {
			q.retried = true
			e.log.V(1).Info("Re-issuing stale query", "kind", q.kind)
			e.tracker.Begin(q.kind)
			if err := e.issue(q); err != nil {
				e.report(err)
			}
			return
		}
		e.log.V(1).Info("Dropping stale query", "kind", q.kind, "generation", q.generation, "current", e.state.Generation)
		return
	}

	for _, w := range q.waiters {
		e.deliver(w, r)
	}
}

func (e *Engine) deliver(w waiter, r mi.Reply) {
	defer func() {
		if v := recover(); v != nil {
			e.report(&mi.ContinuationPanic{Token: r.Token, Value: v, Stack: string(debug.Stack())})
		}
	}()
	w.handle(r)
}
