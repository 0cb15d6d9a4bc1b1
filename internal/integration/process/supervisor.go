package process

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Supervisor starts subprocesses and tracks them until they exit.
type Supervisor struct {
	mu        sync.RWMutex
	processes map[string]*Process
	wg        sync.WaitGroup
	closed    bool

	log    logr.Logger
	onExit func(*Process)
}

// SupervisorOption configures a Supervisor.
type SupervisorOption func(*Supervisor)

// WithLogger sets the supervisor logger.
func WithLogger(log logr.Logger) SupervisorOption {
	return func(s *Supervisor) {
		s.log = log
	}
}

// WithExitCallback sets a function called after a process exits.
func WithExitCallback(fn func(*Process)) SupervisorOption {
	return func(s *Supervisor) {
		s.onExit = fn
	}
}

// NewSupervisor creates a supervisor.
func NewSupervisor(opts ...SupervisorOption) *Supervisor {
	s := &Supervisor{
		processes: make(map[string]*Process),
		log:       logr.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Launch starts the process described by spec with piped standard streams.
func (s *Supervisor) Launch(spec Spec) (*Process, error) {
	cmd, err := spec.Command()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrShutdown
	}

	proc := newProcess(uuid.NewString(), spec.name(), cmd)
	if err := proc.pipe(); err != nil {
		_ = proc.Close()
		return nil, err
	}
	if err := proc.start(); err != nil {
		_ = proc.Close()
		return nil, err
	}

	s.processes[proc.ID] = proc
	s.wg.Add(1)
	go s.monitor(proc)

	s.log.V(1).Info("Process started", "id", proc.ID, "name", proc.Name, "pid", proc.PID(), "args", spec.Args)
	return proc, nil
}

func (s *Supervisor) monitor(proc *Process) {
	defer s.wg.Done()
	<-proc.Done()

	s.log.V(1).Info("Process exited", "id", proc.ID, "name", proc.Name,
		"state", proc.State().String(), "exitCode", proc.ExitCode(), "runtime", proc.Runtime())

	if s.onExit != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.log.Error(fmt.Errorf("panic: %v", r), "Process exit callback panicked", "id", proc.ID)
				}
			}()
			s.onExit(proc)
		}()
	}

	s.mu.Lock()
	delete(s.processes, proc.ID)
	s.mu.Unlock()
}

// Get returns the process with id, or nil.
func (s *Supervisor) Get(id string) *Process {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processes[id]
}

// List returns the running processes ordered by start time.
func (s *Supervisor) List() []*Process {
	s.mu.RLock()
	procs := make([]*Process, 0, len(s.processes))
	for _, p := range s.processes {
		procs = append(procs, p)
	}
	s.mu.RUnlock()

	slices.SortFunc(procs, func(a, b *Process) int {
		return a.Started.Compare(b.Started)
	})
	return procs
}

// Count returns the number of tracked processes.
func (s *Supervisor) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.processes)
}

// Kill kills the process with id.
func (s *Supervisor) Kill(id string) error {
	proc := s.Get(id)
	if proc == nil {
		return ErrNotFound
	}
	if !proc.Running() {
		return nil
	}
	return proc.Kill()
}

// Shutdown stops accepting launches, sends SIGTERM to every process,
// waits up to grace and kills the rest. It returns once all processes are
// gone. Calling it again is a no-op.
func (s *Supervisor) Shutdown(grace time.Duration) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	procs := s.List()
	for _, p := range procs {
		_ = p.Terminate()
	}
	for _, p := range procs {
		p.Stop(grace)
	}
	s.wg.Wait()
}

// Wait blocks until every tracked process has exited.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}
