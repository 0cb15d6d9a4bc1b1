package debug

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-logr/logr"

	"github.com/dshills/gdbmi/internal/event"
	"github.com/dshills/gdbmi/internal/mi"
)

// Sink is the destination of console and log text.
type Sink int

const (
	// SinkUser sends text to the display callback.
	SinkUser Sink = iota
	// SinkInternal accumulates text for the capture command in flight.
	SinkInternal
)

// String returns a string representation of the sink.
func (s Sink) String() string {
	switch s {
	case SinkUser:
		return "user"
	case SinkInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log logr.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithDisplay sets the callback receiving User sink text in stream order.
func WithDisplay(fn func(text string)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.display = fn
		}
	}
}

// WithMessage sets the callback receiving user-facing error messages, such
// as the ^error of a token-less command.
func WithMessage(fn func(msg string)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.message = fn
		}
	}
}

// WithErrorHandler sets the callback receiving engine errors: parse
// failures, unrecognized output, panicking continuations and failing bus
// handlers. None of them stop processing.
func WithErrorHandler(fn func(err error)) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

// WithBus sets the invalidation bus. By default the engine creates its own.
func WithBus(bus *event.Bus) Option {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithFrameTracking enables or disables the frame query issued after a stop
// or thread selection. Enabled by default.
func WithFrameTracking(enabled bool) Option {
	return func(e *Engine) {
		e.frameTracking = enabled
	}
}

// Engine is one debugger session.
type Engine struct {
	w        io.Writer
	demux    *mi.Demuxer
	registry *mi.Registry
	tracker  *Tracker
	bus      *event.Bus
	log      logr.Logger

	display       func(string)
	message       func(string)
	onError       func(error)
	frameTracking bool

	state   State
	threads map[int]string
	sink    Sink
	scratch strings.Builder

	queries map[string]*query
	routes  map[mi.Kind]func(mi.Record)

	// Per batch.
	signals     event.Signal
	frameWanted bool

	busy   bool
	closed bool
}

// New creates an engine writing commands to w, typically the debugger's
// stdin.
func New(w io.Writer, opts ...Option) *Engine {
	e := &Engine{
		w:             w,
		demux:         mi.NewDemuxer(),
		registry:      mi.NewRegistry(),
		tracker:       NewTracker(),
		log:           logr.Discard(),
		display:       func(string) {},
		message:       func(string) {},
		frameTracking: true,
		threads:       make(map[int]string),
		queries:       make(map[string]*query),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.bus == nil {
		e.bus = event.NewBus(event.WithLogger(e.log))
	}
	e.routes = map[mi.Kind]func(mi.Record){
		mi.KindConsole:      e.routeStream,
		mi.KindLog:          e.routeStream,
		mi.KindTarget:       e.routeTarget,
		mi.KindResult:       e.routeResult,
		mi.KindExec:         e.routeExec,
		mi.KindStatus:       e.routeStatus,
		mi.KindNotify:       e.routeNotify,
		mi.KindPrompt:       func(mi.Record) {},
		mi.KindUnrecognized: e.routeUnrecognized,
	}
	return e
}

// Send transmits an MI command with the next token. cont is invoked exactly
// once with the command's result; it may be nil.
func (e *Engine) Send(command string, cont mi.Continuation) (mi.Token, error) {
	return e.send(command, false, cont)
}

// SendCapture runs a CLI command through "-interpreter-exec console". The
// console text it prints is delivered to cont as Reply.Output instead of
// being displayed.
func (e *Engine) SendCapture(cli string, cont mi.Continuation) (mi.Token, error) {
	return e.send("-interpreter-exec console "+mi.Quote(cli), true, cont)
}

func (e *Engine) send(command string, capture bool, cont mi.Continuation) (mi.Token, error) {
	if e.closed {
		return 0, ErrClosed
	}
	tok := e.registry.Register(command, capture, cont)
	if _, err := io.WriteString(e.w, mi.FormatCommand(tok, command)); err != nil {
		e.registry.Cancel(tok)
		return 0, fmt.Errorf("send %q: %w", command, err)
	}
	if capture {
		e.sink = SinkInternal
	}
	e.log.V(2).Info("Sent command", "token", tok, "command", command, "capture", capture)
	return tok, nil
}

// SendInteractive writes a line typed by the user without a token. Its
// result is displayed rather than resolved.
func (e *Engine) SendInteractive(line string) error {
	if e.closed {
		return ErrClosed
	}
	line = strings.TrimRight(line, "\r\n")
	if _, err := io.WriteString(e.w, line+"\n"); err != nil {
		return fmt.Errorf("send interactive %q: %w", line, err)
	}
	return nil
}

// Feed processes one chunk of debugger output. Records are routed in
// stream order; incomplete trailing content waits for the next call. At the
// end of the batch each raised signal is published once.
//
// Feed returns ErrReentrantFeed when called from a continuation or bus
// handler. Protocol problems never fail Feed; they go to the error handler.
func (e *Engine) Feed(chunk []byte) error {
	if e.closed {
		return ErrClosed
	}
	if e.busy {
		return ErrReentrantFeed
	}
	e.busy = true
	defer func() { e.busy = false }()

	records := e.demux.Feed(chunk)
	if len(records) == 0 {
		return nil
	}
	e.log.V(1).Info("Processing batch", "records", len(records), "offset", records[0].Offset)
	for _, rec := range records {
		e.log.V(2).Info("Record", "record", rec.String())
		if route, ok := e.routes[rec.Kind]; ok {
			route(rec)
		}
	}
	e.finishBatch()
	return nil
}

// Close drops every pending command and query without invoking them. Late
// output fed after Close is rejected with ErrClosed.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	dropped := e.registry.Clear()
	clear(e.queries)
	e.tracker.Reset()
	e.flushScratch()
	e.log.V(1).Info("Engine closed", "droppedCommands", dropped)
	return nil
}

// Closed reports whether Close was called.
func (e *Engine) Closed() bool {
	return e.closed
}

// State returns a copy of the execution state.
func (e *Engine) State() State {
	return e.state
}

// Threads returns the known threads ordered by id.
func (e *Engine) Threads() []Thread {
	threads := make([]Thread, 0, len(e.threads))
	for id, group := range e.threads {
		threads = append(threads, Thread{ID: id, Group: group})
	}
	slices.SortFunc(threads, func(a, b Thread) int { return a.ID - b.ID })
	return threads
}

// Bus returns the invalidation bus.
func (e *Engine) Bus() *event.Bus {
	return e.bus
}

// Pending returns the background query tracker.
func (e *Engine) Pending() *Tracker {
	return e.tracker
}

// InFlight returns the number of tokenized commands awaiting a result.
func (e *Engine) InFlight() int {
	return e.registry.Len()
}

// Sink returns the active sink.
func (e *Engine) Sink() Sink {
	return e.sink
}

func (e *Engine) flushScratch() {
	if e.scratch.Len() == 0 {
		return
	}
	text := e.scratch.String()
	e.scratch.Reset()
	e.display(text)
}

func (e *Engine) report(err error) {
	var desync *mi.DesyncError
	if errors.As(err, &desync) {
		e.log.V(1).Info("Unrecognized output", "offset", desync.Offset, "line", desync.Line)
	} else {
		e.log.Error(err, "Engine error")
	}
	if e.onError != nil {
		e.onError(err)
	}
}
