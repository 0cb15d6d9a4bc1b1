// Package main is the entry point for the gdbmi debugger console.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/gdbmi/internal/logger"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	exitCommand = 1
	exitSetup   = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var logOpts []logger.Option
	if path := os.Getenv("GDBMI_LOG_FILE"); path != "" {
		logOpts = append(logOpts, logger.WithFile(path))
	}
	log, err := logger.New("gdbmi", logOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logging: %v\n", err)
		return exitSetup
	}
	defer func() { _ = log.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	root := newRootCmd(log, os.Stdin, os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCommand
	}
	return 0
}
