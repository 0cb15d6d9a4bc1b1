package gdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-logr/logr"
	"github.com/smallnest/chanx"

	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/integration/process"
	"github.com/dshills/gdbmi/internal/mi"
)

// Host errors.
var (
	// ErrHostClosed is returned after Close.
	ErrHostClosed = errors.New("host closed")

	// ErrExited is returned while waiting for a reply when gdb's output
	// ended.
	ErrExited = errors.New("gdb exited")
)

const (
	defaultReadSize = 32 * 1024
	defaultGrace    = 3 * time.Second
)

// Option configures a Host.
type Option func(*options)

type options struct {
	log        logr.Logger
	engineOpts []debug.Option
	readSize   int
	grace      time.Duration
	setup      func(*debug.Engine)
}

// WithLogger sets the host logger. The engine logs under the "engine" name.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithEngineOptions passes options to the engine.
func WithEngineOptions(opts ...debug.Option) Option {
	return func(o *options) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

// WithReadSize sets the stdout read buffer size.
func WithReadSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.readSize = n
		}
	}
}

// WithShutdownGrace sets how long Close waits for gdb to exit after
// -gdb-exit before killing it.
func WithShutdownGrace(d time.Duration) Option {
	return func(o *options) {
		o.grace = d
	}
}

// WithSetup runs fn on the loop goroutine before the first output chunk is
// fed, so subscribers attached there see every signal.
func WithSetup(fn func(*debug.Engine)) Option {
	return func(o *options) {
		o.setup = fn
	}
}

// Host runs an engine on its own loop goroutine.
type Host struct {
	engine *debug.Engine
	log    logr.Logger
	grace  time.Duration

	chunks *chanx.UnboundedChan[[]byte]
	calls  chan func()

	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
	exited   chan struct{}

	mu      sync.Mutex
	readErr error

	proc      *process.Process
	closeOnce sync.Once
	closeErr  error
}

// NewHost starts a host reading gdb output from stdout and writing
// commands to stdin.
func NewHost(stdout io.Reader, stdin io.Writer, opts ...Option) *Host {
	o := options{
		log:      logr.Discard(),
		readSize: defaultReadSize,
		grace:    defaultGrace,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	engineOpts := append([]debug.Option{debug.WithLogger(o.log.WithName("engine"))}, o.engineOpts...)
	h := &Host{
		engine:   debug.New(stdin, engineOpts...),
		log:      o.log,
		grace:    o.grace,
		chunks:   chanx.NewUnboundedChan[[]byte](ctx, 16),
		calls:    make(chan func()),
		ctx:      ctx,
		cancel:   cancel,
		loopDone: make(chan struct{}),
		exited:   make(chan struct{}),
	}
	go h.read(stdout, o.readSize)
	go h.loop(o.setup)
	return h
}

func (h *Host) read(r io.Reader, size int) {
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			select {
			case h.chunks.In <- bytes.Clone(buf[:n]):
			case <-h.ctx.Done():
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				h.mu.Lock()
				h.readErr = err
				h.mu.Unlock()
			}
			close(h.chunks.In)
			return
		}
	}
}

func (h *Host) loop(setup func(*debug.Engine)) {
	defer close(h.loopDone)
	if setup != nil {
		setup(h.engine)
	}
	out := h.chunks.Out
	for {
		select {
		case <-h.ctx.Done():
			return
		case chunk, ok := <-out:
			if !ok {
				out = nil
				h.outputEnded()
				continue
			}
			if err := h.engine.Feed(chunk); err != nil {
				h.log.Error(err, "Feed failed")
			}
		case call := <-h.calls:
			call()
		}
	}
}

func (h *Host) outputEnded() {
	if err := h.ReadErr(); err != nil {
		h.log.Error(err, "Reading gdb output failed")
	} else {
		h.log.V(1).Info("gdb output ended")
	}
	_ = h.engine.Close()
	close(h.exited)
}

// Exited is closed when gdb's output ends.
func (h *Host) Exited() <-chan struct{} {
	return h.exited
}

// ReadErr returns the error that ended reading, nil for a clean EOF.
func (h *Host) ReadErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.readErr
}

// Process returns the gdb process, nil when the host was created with
// NewHost.
func (h *Host) Process() *process.Process {
	return h.proc
}

// Do runs fn on the loop goroutine and waits for it to return. fn may use
// the engine freely but must not block.
func (h *Host) Do(ctx context.Context, fn func(*debug.Engine)) error {
	done := make(chan struct{})
	call := func() {
		defer close(done)
		fn(h.engine)
	}
	select {
	case h.calls <- call:
	case <-h.loopDone:
		return ErrHostClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exec sends an MI command and waits for its result. An ^error result is
// returned as a *mi.CommandError together with the reply.
func (h *Host) Exec(ctx context.Context, command string) (mi.Reply, error) {
	return h.await(ctx, func(e *debug.Engine, cont mi.Continuation) error {
		_, err := e.Send(command, cont)
		return err
	})
}

// Capture runs a CLI command and returns the console text it printed.
func (h *Host) Capture(ctx context.Context, cli string) (string, error) {
	r, err := h.await(ctx, func(e *debug.Engine, cont mi.Continuation) error {
		_, err := e.SendCapture(cli, cont)
		return err
	})
	return r.Output, err
}

func (h *Host) await(ctx context.Context, send func(*debug.Engine, mi.Continuation) error) (mi.Reply, error) {
	replies := make(chan mi.Reply, 1)
	var sendErr error
	err := h.Do(ctx, func(e *debug.Engine) {
		sendErr = send(e, func(r mi.Reply) { replies <- r })
	})
	if err != nil {
		return mi.Reply{}, err
	}
	if sendErr != nil {
		return mi.Reply{}, sendErr
	}

	select {
	case r := <-replies:
		return r, r.Err()
	case <-h.exited:
		return mi.Reply{}, ErrExited
	case <-h.loopDone:
		// The engine dropped the continuation when the loop stopped.
		select {
		case r := <-replies:
			return r, r.Err()
		default:
			return mi.Reply{}, ErrHostClosed
		}
	case <-ctx.Done():
		return mi.Reply{}, ctx.Err()
	}
}

// Interactive writes a line typed by the user. Its output is displayed
// through the engine's display and message callbacks.
func (h *Host) Interactive(ctx context.Context, line string) error {
	var sendErr error
	if err := h.Do(ctx, func(e *debug.Engine) {
		sendErr = e.SendInteractive(line)
	}); err != nil {
		return err
	}
	return sendErr
}

// Interrupt stops the running debuggee. With a launched gdb it signals the
// process; otherwise it sends -exec-interrupt.
func (h *Host) Interrupt(ctx context.Context) error {
	if h.proc != nil {
		return h.proc.Interrupt()
	}
	_, err := h.Exec(ctx, "-exec-interrupt")
	return err
}

// ConnectTarget selects a remote target, retrying with exponential backoff
// while the remote end refuses the connection. It gives up after timeout.
func (h *Host) ConnectTarget(ctx context.Context, addr string, timeout time.Duration) error {
	b := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(100*time.Millisecond),
		backoff.WithMaxInterval(2*time.Second),
		backoff.WithMaxElapsedTime(timeout),
	)

	attempts := 0
	_, err := backoff.RetryNotifyWithData(
		func() (mi.Reply, error) {
			attempts++
			r, err := h.Exec(ctx, "-target-select remote "+addr)
			var cerr *mi.CommandError
			if err != nil && !errors.As(err, &cerr) {
				return r, backoff.Permanent(err)
			}
			return r, err
		},
		backoff.WithContext(b, ctx),
		func(err error, d time.Duration) {
			h.log.V(1).Info("Target not ready, retrying", "addr", addr, "error", err.Error(), "delay", d)
		},
	)
	if err != nil {
		return fmt.Errorf("connect %s after %d attempts: %w", addr, attempts, err)
	}
	h.log.Info("Connected to target", "addr", addr, "attempts", attempts)
	return nil
}

// Close shuts the host down. A launched gdb is asked to exit with
// -gdb-exit and killed if it is still running after the grace period.
func (h *Host) Close(ctx context.Context) error {
	h.closeOnce.Do(func() {
		if h.proc != nil && h.proc.Running() {
			exitCtx, cancel := context.WithTimeout(ctx, h.grace)
			if _, err := h.Exec(exitCtx, "-gdb-exit"); err != nil && !errors.Is(err, ErrExited) {
				h.log.V(1).Info("gdb did not acknowledge exit", "error", err.Error())
			}
			cancel()
			h.proc.Stop(h.grace)
		}

		h.cancel()
		<-h.loopDone
		_ = h.engine.Close()

		if h.proc != nil {
			h.closeErr = h.proc.Close()
		}
	})
	return h.closeErr
}
