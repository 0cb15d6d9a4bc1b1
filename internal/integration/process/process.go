package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// State is the lifecycle state of a process.
type State int32

const (
	// StateCreated means the process has not been started.
	StateCreated State = iota
	// StateRunning means the process is running.
	StateRunning
	// StateExited means the process exited on its own.
	StateExited
	// StateKilled means the process was terminated by a signal.
	StateKilled
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateKilled:
		return "killed"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}

// Process is a supervised subprocess with piped standard streams.
type Process struct {
	// ID is unique within the supervisor.
	ID string

	// Name is the human readable name from the Spec.
	Name string

	// Cmd is the underlying command.
	Cmd *exec.Cmd

	// Stdin, Stdout and Stderr are the pipes created on launch. A stream
	// the caller configured on Cmd beforehand is left nil here.
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser

	// Started is when the process was started.
	Started time.Time

	done     chan struct{}
	state    atomic.Int32
	exitCode atomic.Int32

	mu      sync.RWMutex
	exitErr error
	ended   time.Time
}

func newProcess(id, name string, cmd *exec.Cmd) *Process {
	p := &Process{
		ID:   id,
		Name: name,
		Cmd:  cmd,
		done: make(chan struct{}),
	}
	p.state.Store(int32(StateCreated))
	p.exitCode.Store(-1)
	return p
}

// pipe connects every stream the command does not already have.
func (p *Process) pipe() error {
	var err error
	if p.Cmd.Stdin == nil {
		if p.Stdin, err = p.Cmd.StdinPipe(); err != nil {
			return fmt.Errorf("stdin pipe: %w", err)
		}
	}
	if p.Cmd.Stdout == nil {
		if p.Stdout, err = p.Cmd.StdoutPipe(); err != nil {
			return fmt.Errorf("stdout pipe: %w", err)
		}
	}
	if p.Cmd.Stderr == nil {
		if p.Stderr, err = p.Cmd.StderrPipe(); err != nil {
			return fmt.Errorf("stderr pipe: %w", err)
		}
	}
	return nil
}

func (p *Process) start() error {
	if !p.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return ErrAlreadyStarted
	}
	if err := p.Cmd.Start(); err != nil {
		p.state.Store(int32(StateCreated))
		return fmt.Errorf("start %s: %w", p.Name, err)
	}
	p.Started = time.Now()
	go p.wait()
	return nil
}

func (p *Process) wait() {
	err := p.Cmd.Wait()

	code, state := 0, StateExited
	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			state = StateKilled
		}
	case err != nil:
		code = -1
	}

	p.mu.Lock()
	p.exitErr = err
	p.ended = time.Now()
	p.mu.Unlock()

	p.exitCode.Store(int32(code))
	p.state.Store(int32(state))
	close(p.done)
}

// State returns the lifecycle state.
func (p *Process) State() State {
	return State(p.state.Load())
}

// Running reports whether the process is running.
func (p *Process) Running() bool {
	return p.State() == StateRunning
}

// Exited reports whether the process has ended, normally or by a signal.
func (p *Process) Exited() bool {
	s := p.State()
	return s == StateExited || s == StateKilled
}

// ExitCode returns the exit code, or -1 while running or when killed.
func (p *Process) ExitCode() int {
	return int(p.exitCode.Load())
}

// ExitError returns the error from waiting on the process.
func (p *Process) ExitError() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.exitErr
}

// Done is closed when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// PID returns the operating system pid, or -1 if not started.
func (p *Process) PID() int {
	if p.Cmd.Process == nil {
		return -1
	}
	return p.Cmd.Process.Pid
}

// Signal sends sig to the process.
func (p *Process) Signal(sig os.Signal) error {
	if !p.Running() || p.Cmd.Process == nil {
		return ErrNotStarted
	}
	return p.Cmd.Process.Signal(sig)
}

// Interrupt sends SIGINT. A debugger reacts by stopping its inferior.
func (p *Process) Interrupt() error {
	return p.Signal(syscall.SIGINT)
}

// Terminate sends SIGTERM.
func (p *Process) Terminate() error {
	return p.Signal(syscall.SIGTERM)
}

// Kill sends SIGKILL.
func (p *Process) Kill() error {
	return p.Signal(syscall.SIGKILL)
}

// Wait blocks until the process exits or ctx is done.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.ExitError()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop waits up to grace for the process to exit on its own and kills it
// afterwards. It returns once the process is gone.
func (p *Process) Stop(grace time.Duration) {
	if p.State() == StateCreated {
		return
	}
	select {
	case <-p.done:
		return
	case <-time.After(grace):
	}
	_ = p.Kill()
	<-p.done
}

// Runtime returns how long the process ran, or has been running.
func (p *Process) Runtime() time.Duration {
	if p.Started.IsZero() {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.ended.IsZero() {
		return p.ended.Sub(p.Started)
	}
	return time.Since(p.Started)
}

// Close closes the pipes created on launch. It does not stop the process.
func (p *Process) Close() error {
	pipes := []struct {
		name string
		c    io.Closer
	}{
		{"stdin", p.Stdin},
		{"stdout", p.Stdout},
		{"stderr", p.Stderr},
	}
	var errs []error
	for _, pipe := range pipes {
		if pipe.c == nil {
			continue
		}
		if err := pipe.c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			errs = append(errs, fmt.Errorf("close %s: %w", pipe.name, err))
		}
	}
	return errors.Join(errs...)
}
