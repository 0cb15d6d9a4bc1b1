// Package logger builds the logr.Logger used across gdbmi: zap underneath,
// human-readable console output on stderr, and an optional JSON file.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	verbosityFlagName      = "verbosity"
	verbosityFlagShortName = "v"
)

// Logger is a logr.Logger whose console level can change at run time.
type Logger struct {
	logr.Logger
	atomicLevel zap.AtomicLevel
	flush       func()
	close       func() error
}

type options struct {
	out   io.Writer
	file  string
	level zapcore.Level
}

// Option configures New.
type Option func(*options)

// WithOutput sends console output to w instead of stderr.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithFile additionally writes every record as JSON to path, at debug
// level regardless of the console level.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithLevel sets the initial console level.
func WithLevel(level zapcore.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// New creates a logger named name.
func New(name string, opts ...Option) (*Logger, error) {
	o := options{level: zap.InfoLevel}
	for _, opt := range opts {
		opt(&o)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(encoderConfig)

	var consoleOut zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if o.out != nil {
		consoleOut = zapcore.AddSync(o.out)
	}

	atomicLevel := zap.NewAtomicLevelAt(o.level)
	cores := []zapcore.Core{zapcore.NewCore(consoleEncoder, consoleOut, atomicLevel)}

	closeFile := func() error { return nil }
	if o.file != "" {
		f, err := os.OpenFile(o.file, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		// Verbosity up to 127 is written to the file.
		fileLevel := zap.NewAtomicLevelAt(zapcore.Level(-127))
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.Lock(f), fileLevel))
		closeFile = f.Close
	}

	zapLogger := zap.New(zapcore.NewTee(cores...)).Named(name)
	return &Logger{
		Logger:      zapr.NewLogger(zapLogger),
		atomicLevel: atomicLevel,
		flush: func() {
			_ = zapLogger.Sync()
		},
		close: closeFile,
	}, nil
}

// SetLevel changes the console level.
func (l *Logger) SetLevel(level zapcore.Level) {
	l.atomicLevel.SetLevel(level)
}

// SetLevelString parses and applies a level name or verbosity number.
func (l *Logger) SetLevelString(s string) error {
	level, err := ParseLevel(s)
	if err != nil {
		return err
	}
	l.SetLevel(level)
	return nil
}

// Level returns the console level.
func (l *Logger) Level() zapcore.Level {
	return l.atomicLevel.Level()
}

// Flush writes buffered records.
func (l *Logger) Flush() {
	l.flush()
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	l.flush()
	return l.close()
}

// AddLevelFlag registers -v/--verbosity on fs.
func (l *Logger) AddLevelFlag(fs *pflag.FlagSet) {
	fs.VarP(NewLevelFlagValue(l.SetLevel), verbosityFlagName, verbosityFlagShortName,
		"Logging verbosity level (e.g. -v=debug). One of 'debug', 'info', 'error', or a non-negative integer for increasing debug verbosity.")
}

// LevelFlag returns the verbosity flag registered on fs, if any.
func LevelFlag(fs *pflag.FlagSet) (*LevelFlagValue, bool) {
	if fs == nil {
		return nil, false
	}
	f := fs.Lookup(verbosityFlagName)
	if f == nil {
		return nil, false
	}
	v, ok := f.Value.(*LevelFlagValue)
	return v, ok
}
