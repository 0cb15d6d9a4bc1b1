package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/dshills/gdbmi/internal/config"
	"github.com/dshills/gdbmi/internal/integration/debug"
	"github.com/dshills/gdbmi/internal/integration/debug/gdb"
	"github.com/dshills/gdbmi/internal/integration/process"
	"github.com/dshills/gdbmi/internal/logger"
	"github.com/dshills/gdbmi/internal/script"
)

const prompt = "(gdbmi) "

// session is one run of gdb with the console attached.
type session struct {
	cfg         config.Config
	configPath  string
	followLevel bool
	program     string
	programArgs []string

	log *logger.Logger
	in  io.Reader
	out io.Writer

	outMu sync.Mutex
	host  *gdb.Host
	hooks *script.Hooks
	views *viewSet
}

func (s *session) run(ctx context.Context) error {
	sup := process.NewSupervisor(process.WithLogger(s.log.WithName("process")))
	defer sup.Shutdown(3 * time.Second)

	var setupErr error
	host, err := gdb.Launch(ctx, sup, gdb.LaunchConfig{
		Path:           s.cfg.GDB.Path,
		Args:           s.cfg.GDB.Args,
		Program:        s.program,
		ProgramArgs:    s.programArgs,
		Dir:            s.cfg.GDB.Dir,
		InitCommands:   s.cfg.GDB.InitCommands,
		Target:         s.cfg.GDB.Target,
		ConnectTimeout: s.cfg.GDB.ConnectTimeout.Std(),
	},
		gdb.WithLogger(s.log.WithName("gdb")),
		gdb.WithEngineOptions(
			debug.WithDisplay(s.print),
			debug.WithMessage(func(msg string) { s.print("error: " + msg + "\n") }),
			debug.WithFrameTracking(s.cfg.Engine.TrackFrame),
		),
		gdb.WithSetup(func(e *debug.Engine) { setupErr = s.attach(e) }),
	)
	if err != nil {
		return err
	}
	s.host = host
	defer s.shutdown()
	// setupErr is written on the loop goroutine.
	var attachErr error
	if err := host.Do(ctx, func(*debug.Engine) { attachErr = setupErr }); err != nil {
		return err
	}
	if attachErr != nil {
		return attachErr
	}

	if s.configPath != "" {
		if _, err := os.Stat(s.configPath); err == nil {
			w, err := config.NewWatcher(s.configPath, s.reconfigure, config.WithWatchLogger(s.log.WithName("config")))
			if err != nil {
				s.log.Error(err, "Config file will not be watched", "path", s.configPath)
			} else {
				defer w.Close()
			}
		}
	}

	return s.console(ctx)
}

// attach runs on the engine goroutine before any gdb output is processed.
func (s *session) attach(e *debug.Engine) error {
	hooks, err := script.New(e, script.WithLogger(s.log.WithName("hooks")))
	if err != nil {
		return err
	}
	s.hooks = hooks
	if s.cfg.Hooks.Script != "" {
		if err := hooks.Load(s.cfg.Hooks.Script); err != nil {
			return err
		}
	}

	s.views, err = newViewSet(e, s.cfg, s.print, s.log.WithName("views"))
	return err
}

// console forwards typed lines to gdb until input ends, gdb exits or ctx
// is cancelled. An interrupt signal stops the debuggee.
func (s *session) console(ctx context.Context) error {
	interactive := false
	if f, ok := s.in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(s.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	if interactive {
		s.print(prompt)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.host.Exited():
			return nil
		case err := <-readErr:
			return err
		case <-interrupts:
			if err := s.host.Interrupt(ctx); err != nil {
				s.log.Error(err, "Interrupt failed")
			}
		case line := <-lines:
			if line == "" {
				continue
			}
			if err := s.host.Interactive(ctx, line); err != nil {
				if errors.Is(err, gdb.ErrHostClosed) {
					return nil
				}
				return err
			}
			if interactive {
				s.print(prompt)
			}
		}
	}
}

// reconfigure applies a reloaded config file. Only settings that can
// change mid-session are taken: the log level and the hook script.
func (s *session) reconfigure(cfg config.Config) {
	if s.followLevel {
		if err := s.log.SetLevelString(cfg.Engine.LogLevel); err != nil {
			s.log.Error(err, "Ignoring log level from config")
		}
	}
	if cfg.Hooks.Script == s.hooks.Path() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var loadErr error
	if err := s.host.Do(ctx, func(*debug.Engine) { loadErr = s.hooks.Load(cfg.Hooks.Script) }); err != nil {
		loadErr = err
	}
	if loadErr != nil {
		s.log.Error(loadErr, "Reloading hooks failed", "script", cfg.Hooks.Script)
	}
}

func (s *session) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = s.host.Do(ctx, func(*debug.Engine) {
		if s.views != nil {
			s.views.Close()
		}
		if s.hooks != nil {
			_ = s.hooks.Close()
		}
	})
	if err := s.host.Close(ctx); err != nil {
		s.log.V(1).Info("gdb shutdown", "error", err.Error())
	}
}

// print writes console text. Engine output and view renders arrive on the
// engine goroutine, prompts on the console goroutine.
func (s *session) print(text string) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprint(s.out, text)
}
