package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gdb", cfg.GDB.Path)
	assert.Equal(t, 10*time.Second, cfg.GDB.ConnectTimeout.Std())
	assert.Equal(t, 64, cfg.Engine.DisasmWindow)
	assert.True(t, cfg.Engine.TrackFrame)
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "gdbmi.toml", `
views = ["threads", "stack"]

[gdb]
path = "/usr/bin/gdb-multiarch"
args = ["-nx"]
init_commands = ["-gdb-set pagination off", "-enable-pretty-printing"]
target = "localhost:1234"
connect_timeout = "2s"

[engine]
log_level = "debug"
stack_depth = 16
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/gdb-multiarch", cfg.GDB.Path)
	assert.Equal(t, []string{"-nx"}, cfg.GDB.Args)
	assert.Len(t, cfg.GDB.InitCommands, 2)
	assert.Equal(t, "localhost:1234", cfg.GDB.Target)
	assert.Equal(t, 2*time.Second, cfg.GDB.ConnectTimeout.Std())
	assert.Equal(t, "debug", cfg.Engine.LogLevel)
	assert.Equal(t, 16, cfg.Engine.StackDepth)
	assert.Equal(t, []string{"threads", "stack"}, cfg.Views)

	// Untouched fields keep their defaults.
	assert.Equal(t, 64, cfg.Engine.DisasmWindow)
	assert.True(t, cfg.Engine.TrackFrame)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "gdbmi.yml", `
gdb:
  path: gdb
  target: "10.0.0.2:2345"
  connect_timeout: 30s
engine:
  disasm_window: 32
  track_frame: false
hooks:
  script: $GDBMI_TEST_HOME/hooks.lua
`)
	t.Setenv("GDBMI_TEST_HOME", "/opt/gdbmi")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2:2345", cfg.GDB.Target)
	assert.Equal(t, 30*time.Second, cfg.GDB.ConnectTimeout.Std())
	assert.Equal(t, 32, cfg.Engine.DisasmWindow)
	assert.False(t, cfg.Engine.TrackFrame)
	assert.Equal(t, "/opt/gdbmi/hooks.lua", cfg.Hooks.Script)
}

func TestLoad_EmptyYAML(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml unknown key", "c.toml", "[gdb]\npth = \"gdb\"\n"},
		{"toml syntax", "c.toml", "[gdb\npath = \"gdb\"\n"},
		{"yaml unknown key", "c.yaml", "engine:\n  loglevel: debug\n"},
		{"yaml type", "c.yaml", "engine:\n  stack_depth: deep\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Contains(t, perr.Path, tt.file)
		})
	}
}

func TestLoad_TOMLErrorLine(t *testing.T) {
	_, err := Load(writeFile(t, "c.toml", "[engine]\nstack_depth = 1\nlog_level = \n"))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Positive(t, perr.Line)
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load(writeFile(t, "c.ini", "path=gdb\n"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "c.toml", "[gdb]\npath = \"gdb-from-file\"\n")
	t.Setenv("GDBMI_GDB_PATH", "gdb-from-env")
	t.Setenv("GDBMI_TARGET", ":9999")
	t.Setenv("GDBMI_LOG_LEVEL", "2")
	t.Setenv("GDBMI_STACK_DEPTH", "8")
	t.Setenv("GDBMI_VIEWS", "locals, disassembly,")
	t.Setenv("GDBMI_CONNECT_TIMEOUT", "500ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gdb-from-env", cfg.GDB.Path)
	assert.Equal(t, ":9999", cfg.GDB.Target)
	assert.Equal(t, "2", cfg.Engine.LogLevel)
	assert.Equal(t, 8, cfg.Engine.StackDepth)
	assert.Equal(t, []string{"locals", "disassembly"}, cfg.Views)
	assert.Equal(t, 500*time.Millisecond, cfg.GDB.ConnectTimeout.Std())
}

func TestLoad_EnvInvalid(t *testing.T) {
	t.Setenv("GDBMI_DISASM_WINDOW", "wide")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty path", func(c *Config) { c.GDB.Path = " " }},
		{"negative timeout", func(c *Config) { c.GDB.ConnectTimeout = -1 }},
		{"negative depth", func(c *Config) { c.Engine.StackDepth = -1 }},
		{"zero window", func(c *Config) { c.Engine.DisasmWindow = 0 }},
		{"bad level", func(c *Config) { c.Engine.LogLevel = "loud" }},
		{"negative level", func(c *Config) { c.Engine.LogLevel = "-3" }},
		{"unknown view", func(c *Config) { c.Views = []string{"registers"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidValue)
		})
	}
}

func TestEncode_DecodesBack(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			want := Default()
			want.GDB.Args = []string{"-nx"}
			want.GDB.InitCommands = []string{"-gdb-set pagination off"}
			want.Views = []string{"threads"}

			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, format, want))

			var got Config
			require.NoError(t, Decode(&buf, format, "buffer", &got))
			assert.Equal(t, want, got)
		})
	}
}

func TestFormatOf(t *testing.T) {
	f, err := FormatOf("/etc/gdbmi/CONFIG.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatOf("config")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestEnvVarsSorted(t *testing.T) {
	names := EnvVars()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)
	assert.Contains(t, names, "GDBMI_GDB_PATH")
}
