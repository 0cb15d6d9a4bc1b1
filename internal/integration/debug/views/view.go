package views

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/gdbmi/internal/event"
	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/mi"
)

// Engine is the part of debug.Engine that views use.
type Engine interface {
	Bus() *event.Bus
	State() debug.State
	Query(req debug.Request) error
}

// Option configures a view.
type Option func(*options)

type options struct {
	onError func(error)
	depth   int
	window  int
	signals event.Signal
}

// WithErrorHandler sets the callback receiving ^error replies and decode
// failures.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithDepth limits the number of frames the stack view lists. Zero lists
// every frame.
func WithDepth(n int) Option {
	return func(o *options) {
		o.depth = n
	}
}

// WithWindow sets how many bytes around the pc the disassembly view covers.
func WithWindow(n int) Option {
	return func(o *options) {
		o.window = n
	}
}

// WithSignals overrides the signals a view refreshes on.
func WithSignals(signals ...event.Signal) Option {
	return func(o *options) {
		o.signals = 0
		for _, sig := range signals {
			o.signals |= sig
		}
	}
}

// base holds what every view shares: identity, subscription and the
// closed flag checked by late replies.
type base struct {
	id      string
	name    string
	engine  Engine
	opts    options
	closed  bool
	refresh func() error
	exited  func()
}

func newBase(e Engine, name string, defaults event.Signal, opts []Option) *base {
	o := options{
		onError: func(error) {},
		window:  64,
		signals: defaults,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &base{
		id:     name + "-" + uuid.NewString(),
		name:   name,
		engine: e,
		opts:   o,
	}
}

// subscribe registers the view on the bus. refresh runs for every signal
// the view listens to.
func (b *base) subscribe(refresh func() error) error {
	b.refresh = refresh
	if err := b.engine.Bus().Subscribe(b.id, b.handle); err != nil {
		return fmt.Errorf("subscribe %s view: %w", b.name, err)
	}
	return nil
}

func (b *base) handle(sig event.Signal) error {
	if b.closed {
		return nil
	}
	if sig.Has(event.SignalExited) && b.exited != nil {
		b.exited()
		return nil
	}
	if !sig.Has(b.opts.signals) {
		return nil
	}
	return b.refresh()
}

// ID returns the view's subscriber identity.
func (b *base) ID() string {
	return b.id
}

// Close unsubscribes the view. Replies to queries still in flight are
// ignored.
func (b *base) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.engine.Bus().Unsubscribe(b.id)
	return nil
}

// Closed reports whether Close was called.
func (b *base) Closed() bool {
	return b.closed
}

// query issues a coalesced request and decodes successful replies.
func (b *base) query(kind string, command func(debug.State) string, handle func(mi.Result)) error {
	return b.engine.Query(debug.Request{
		Kind:    kind,
		Owner:   b.id,
		Command: command,
		Handle: func(r mi.Reply) {
			if b.closed {
				return
			}
			if err := r.Err(); err != nil {
				b.opts.onError(fmt.Errorf("%s view: %w", b.name, err))
				return
			}
			res, err := r.Decode()
			if err != nil {
				b.opts.onError(fmt.Errorf("%s view: %w", b.name, err))
				return
			}
			handle(res)
		},
	})
}

// ready reports whether a refresh makes sense now.
func (b *base) ready() bool {
	return !b.closed && b.engine.State().Stopped()
}
