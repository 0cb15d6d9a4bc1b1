package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete gdbmi configuration.
type Config struct {
	GDB    GDB      `toml:"gdb" yaml:"gdb"`
	Engine Engine   `toml:"engine" yaml:"engine"`
	Hooks  Hooks    `toml:"hooks" yaml:"hooks"`
	Views  []string `toml:"views" yaml:"views"`
}

// GDB describes how the debugger is started.
type GDB struct {
	// Path is the gdb executable, looked up in PATH when not absolute.
	Path string `toml:"path" yaml:"path"`
	// Args are extra gdb arguments placed before the program.
	Args []string `toml:"args" yaml:"args"`
	// Dir is the working directory for gdb.
	Dir string `toml:"dir" yaml:"dir"`
	// InitCommands are MI commands sent after start.
	InitCommands []string `toml:"init_commands" yaml:"init_commands"`
	// Target is a gdbserver address for -target-select remote.
	Target string `toml:"target" yaml:"target"`
	// ConnectTimeout bounds the retries of the remote connect.
	ConnectTimeout Duration `toml:"connect_timeout" yaml:"connect_timeout"`
}

// Engine tunes the protocol engine and its views.
type Engine struct {
	LogLevel     string `toml:"log_level" yaml:"log_level"`
	StackDepth   int    `toml:"stack_depth" yaml:"stack_depth"`
	DisasmWindow int    `toml:"disasm_window" yaml:"disasm_window"`
	TrackFrame   bool   `toml:"track_frame" yaml:"track_frame"`
}

// Hooks configures the Lua stop hooks.
type Hooks struct {
	Script string `toml:"script" yaml:"script"`
}

// ViewNames lists the views the CLI knows how to render.
var ViewNames = []string{"threads", "breakpoints", "stack", "locals", "disassembly"}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		GDB: GDB{
			Path:           "gdb",
			ConnectTimeout: Duration(10 * time.Second),
		},
		Engine: Engine{
			LogLevel:     "info",
			StackDepth:   0,
			DisasmWindow: 64,
			TrackFrame:   true,
		},
	}
}

// Validate checks the configuration for values the engine cannot use.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GDB.Path) == "" {
		return fmt.Errorf("%w: gdb.path is empty", ErrInvalidValue)
	}
	if c.GDB.ConnectTimeout < 0 {
		return fmt.Errorf("%w: gdb.connect_timeout %s is negative", ErrInvalidValue, c.GDB.ConnectTimeout)
	}
	if c.Engine.StackDepth < 0 {
		return fmt.Errorf("%w: engine.stack_depth %d is negative", ErrInvalidValue, c.Engine.StackDepth)
	}
	if c.Engine.DisasmWindow <= 0 {
		return fmt.Errorf("%w: engine.disasm_window must be positive, got %d", ErrInvalidValue, c.Engine.DisasmWindow)
	}
	if !validLevel(c.Engine.LogLevel) {
		return fmt.Errorf("%w: engine.log_level %q", ErrInvalidValue, c.Engine.LogLevel)
	}
	for _, v := range c.Views {
		if !slices.Contains(ViewNames, v) {
			return fmt.Errorf("%w: unknown view %q (have %s)", ErrInvalidValue, v, strings.Join(ViewNames, ", "))
		}
	}
	return nil
}

// validLevel accepts the named levels and non-negative verbosity numbers.
func validLevel(s string) bool {
	switch strings.ToLower(s) {
	case "", "debug", "info", "error":
		return true
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 0
}

// Duration is a time.Duration written as a string such as "10s".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	return d.UnmarshalText([]byte(n.Value))
}
