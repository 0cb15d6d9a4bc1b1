package gdb

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dshills/gdbmi/internal/integration/process"
)

// DefaultPath is the gdb executable used when LaunchConfig.Path is empty.
const DefaultPath = "gdb"

// LaunchConfig describes how to start gdb.
type LaunchConfig struct {
	// Path is the gdb executable.
	Path string

	// Args are extra gdb arguments placed before the program.
	Args []string

	// Program is the executable to debug, optional.
	Program string

	// ProgramArgs are passed to the program via --args.
	ProgramArgs []string

	// Dir is gdb's working directory.
	Dir string

	// InitCommands are MI commands run after start, in order.
	InitCommands []string

	// Target is a remote target address such as "localhost:1234".
	Target string

	// ConnectTimeout bounds the remote target retries.
	ConnectTimeout time.Duration
}

// Spec builds the process spec for gdb.
func (c LaunchConfig) Spec() process.Spec {
	path := c.Path
	if path == "" {
		path = DefaultPath
	}
	args := append([]string{"--interpreter=mi2", "--quiet"}, c.Args...)
	if c.Program != "" {
		if len(c.ProgramArgs) > 0 {
			args = append(args, "--args", c.Program)
			args = append(args, c.ProgramArgs...)
		} else {
			args = append(args, c.Program)
		}
	}
	return process.Spec{Name: "gdb", Path: path, Args: args, Dir: c.Dir}
}

// Launch starts gdb under sup, runs the init commands and connects to the
// remote target if one is configured. Failing init commands are logged
// and skipped.
func Launch(ctx context.Context, sup *process.Supervisor, cfg LaunchConfig, opts ...Option) (*Host, error) {
	proc, err := sup.Launch(cfg.Spec())
	if err != nil {
		return nil, fmt.Errorf("launch gdb: %w", err)
	}

	h := NewHost(proc.Stdout, proc.Stdin, opts...)
	h.proc = proc
	if proc.Stderr != nil {
		go h.drainStderr(proc.Stderr)
	}

	for _, cmd := range cfg.InitCommands {
		if _, err := h.Exec(ctx, cmd); err != nil {
			h.log.Error(err, "Init command failed", "command", cmd)
		}
	}

	if cfg.Target != "" {
		timeout := cfg.ConnectTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		if err := h.ConnectTarget(ctx, cfg.Target, timeout); err != nil {
			_ = h.Close(ctx)
			return nil, err
		}
	}
	return h, nil
}

func (h *Host) drainStderr(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		h.log.Info("gdb stderr", "line", sc.Text())
	}
}
