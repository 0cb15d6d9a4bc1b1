package script

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/gdbmi/internal/event"
	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/mi"
)

// SubscriberID is the bus identity of the hook runner.
const SubscriberID = "lua-hooks"

// Engine is the part of the debug engine hooks use.
type Engine interface {
	Bus() *event.Bus
	State() debug.State
	Send(command string, cont mi.Continuation) (mi.Token, error)
}

// Hooks runs the on_stop function of a Lua script after every stop.
//
// The stop handler runs on the engine goroutine, and Load must run there
// too (for example inside gdb.Host.Do): both touch the engine state.
type Hooks struct {
	engine  Engine
	log     logr.Logger
	onError func(error)
	timeout time.Duration

	mu    sync.Mutex
	state *State
	path  string
}

// Option configures Hooks.
type Option func(*Hooks)

// WithLogger sets the logger. Output of gdbmi.log goes here at V(0).
func WithLogger(log logr.Logger) Option {
	return func(h *Hooks) {
		h.log = log
	}
}

// WithErrorHandler sets a function called with error replies to hook
// commands. Failures of the hook itself are returned to the bus and reach
// the engine's error handler.
func WithErrorHandler(fn func(error)) Option {
	return func(h *Hooks) {
		h.onError = fn
	}
}

// WithCallTimeout bounds each hook invocation.
func WithCallTimeout(d time.Duration) Option {
	return func(h *Hooks) {
		h.timeout = d
	}
}

// New creates a hook runner subscribed to the engine's bus. It does
// nothing until a script is loaded.
func New(engine Engine, opts ...Option) (*Hooks, error) {
	h := &Hooks{
		engine:  engine,
		log:     logr.Discard(),
		timeout: DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	if err := engine.Bus().Subscribe(SubscriberID, h.handle); err != nil {
		return nil, err
	}
	return h, nil
}

// Load runs the script at path in a fresh state and makes it current. The
// previous script stays active if loading fails. An empty path unloads.
func (h *Hooks) Load(path string) error {
	if path == "" {
		h.swap(nil, "")
		return nil
	}
	st := NewState(h.timeout)
	st.RegisterModule("gdbmi", h.module())
	if err := st.DoFile(path); err != nil {
		_ = st.Close()
		return &HookError{Hook: "load", Err: err}
	}
	if !st.HasFunction("on_stop") {
		h.log.Info("Hook script defines no on_stop function", "path", path)
	}
	h.swap(st, path)
	h.log.V(1).Info("Hook script loaded", "path", path)
	return nil
}

func (h *Hooks) swap(st *State, path string) {
	h.mu.Lock()
	old := h.state
	h.state, h.path = st, path
	h.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
}

// Path returns the loaded script, or "".
func (h *Hooks) Path() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.path
}

// Close unsubscribes and releases the Lua state.
func (h *Hooks) Close() error {
	h.engine.Bus().Unsubscribe(SubscriberID)
	h.swap(nil, "")
	return nil
}

func (h *Hooks) current() *State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Hooks) handle(sig event.Signal) error {
	if !sig.Has(event.SignalStopped) {
		return nil
	}
	st := h.current()
	if st == nil {
		return nil
	}

	ret, err := st.Call("on_stop", stopTable(st.L, h.engine.State()))
	if err != nil {
		return &HookError{Hook: "on_stop", Err: err}
	}
	commands, err := commandsOf(ret)
	if err != nil {
		return &HookError{Hook: "on_stop", Err: err}
	}

	for _, cmd := range commands {
		h.log.V(1).Info("Hook command", "command", cmd)
		if _, err := h.engine.Send(cmd, h.checkReply(cmd)); err != nil {
			return &HookError{Hook: "on_stop", Err: fmt.Errorf("sending %q: %w", cmd, err)}
		}
	}
	return nil
}

func (h *Hooks) checkReply(cmd string) mi.Continuation {
	return func(r mi.Reply) {
		err := r.Err()
		if err == nil {
			return
		}
		err = &HookError{Hook: "on_stop", Err: fmt.Errorf("%s: %w", cmd, err)}
		h.log.Error(err, "Hook command failed")
		if h.onError != nil {
			h.onError(err)
		}
	}
}

func (h *Hooks) module() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"log": func(L *lua.LState) int {
			h.log.Info(L.CheckString(1), "source", "lua")
			return 0
		},
		"state": func(L *lua.LState) int {
			s := h.engine.State()
			t := stopTable(L, s)
			t.RawSetString("status", lua.LString(s.Status.String()))
			t.RawSetString("generation", lua.LNumber(s.Generation))
			L.Push(t)
			return 1
		},
	}
}

// stopTable describes the stop location. Unknown fields are nil.
func stopTable(L *lua.LState, s debug.State) *lua.LTable {
	t := L.NewTable()
	setString := func(k, v string) {
		if v != "" {
			t.RawSetString(k, lua.LString(v))
		}
	}
	setString("reason", s.Reason)
	setString("file", s.FrameFile)
	setString("func", s.FrameFunc)
	setString("addr", s.FrameAddr)
	if s.ThreadID != 0 {
		t.RawSetString("thread", lua.LNumber(s.ThreadID))
	}
	if s.FrameLine != 0 {
		t.RawSetString("line", lua.LNumber(s.FrameLine))
	}
	t.RawSetString("level", lua.LNumber(s.FrameLevel))
	return t
}

// commandsOf accepts nil, a string, or a sequence of strings.
func commandsOf(v lua.LValue) ([]string, error) {
	switch v := v.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LString:
		return []string{string(v)}, nil
	case *lua.LTable:
		var out []string
		for i := 1; i <= v.Len(); i++ {
			s, ok := v.RawGetInt(i).(lua.LString)
			if !ok {
				return nil, fmt.Errorf("%w: element %d is %s", ErrBadResult, i, v.RawGetInt(i).Type())
			}
			out = append(out, string(s))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrBadResult, v.Type())
	}
}
