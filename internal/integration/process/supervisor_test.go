package process

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSupervisor_LaunchTracks(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	proc, err := s.Launch(Spec{Name: "sleeper", Path: "sleep", Args: []string{"30"}})
	if err != nil {
		t.Fatal(err)
	}
	if proc.ID == "" {
		t.Fatal("expected generated id")
	}
	if s.Get(proc.ID) != proc {
		t.Error("Get() did not return launched process")
	}
	if s.Count() != 1 || len(s.List()) != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
	if err := s.Kill(proc.ID); err != nil {
		t.Fatal(err)
	}
	<-proc.Done()
	s.Wait()
	if s.Count() != 0 {
		t.Errorf("Count() after exit = %d, want 0", s.Count())
	}
}

func TestSupervisor_UniqueIDs(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)

	a, err := s.Launch(Spec{Path: "true"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Launch(Spec{Path: "true"})
	if err != nil {
		t.Fatal(err)
	}
	if a.ID == b.ID {
		t.Errorf("duplicate id %s", a.ID)
	}
}

func TestSupervisor_KillNotFound(t *testing.T) {
	s := NewSupervisor()
	defer s.Shutdown(time.Second)
	if err := s.Kill("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Kill() = %v, want ErrNotFound", err)
	}
}

func TestSupervisor_ExitCallback(t *testing.T) {
	var called atomic.Int32
	s := NewSupervisor(WithExitCallback(func(p *Process) {
		called.Add(1)
		panic("callback failure is contained")
	}))

	proc, err := s.Launch(Spec{Path: "true"})
	if err != nil {
		t.Fatal(err)
	}
	<-proc.Done()
	s.Wait()
	if called.Load() != 1 {
		t.Errorf("callback called %d times, want 1", called.Load())
	}
	s.Shutdown(time.Second)
}

func TestSupervisor_Shutdown(t *testing.T) {
	s := NewSupervisor()
	procs := make([]*Process, 0, 2)
	for i := 0; i < 2; i++ {
		p, err := s.Launch(Spec{Path: "sleep", Args: []string{"30"}})
		if err != nil {
			t.Fatal(err)
		}
		procs = append(procs, p)
	}

	done := make(chan struct{})
	go func() {
		s.Shutdown(time.Second)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	for _, p := range procs {
		if !p.Exited() {
			t.Errorf("process %s still running", p.ID)
		}
	}
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}

	s.Shutdown(time.Second)
	if _, err := s.Launch(Spec{Path: "true"}); !errors.Is(err, ErrShutdown) {
		t.Errorf("Launch after shutdown = %v, want ErrShutdown", err)
	}
}

func TestSupervisor_ShutdownKillsStubborn(t *testing.T) {
	s := NewSupervisor()
	p, err := s.Launch(Spec{Path: "sh", Args: []string{"-c", "trap '' TERM; sleep 30"}})
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	s.Shutdown(100 * time.Millisecond)
	if p.State() != StateKilled {
		t.Errorf("State() = %v, want killed", p.State())
	}
}
