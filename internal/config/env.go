package config

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "GDBMI_"

// envSetters maps an environment variable to the field it overrides.
var envSetters = map[string]func(*Config, string) error{
	EnvPrefix + "GDB_PATH": func(c *Config, v string) error {
		c.GDB.Path = v
		return nil
	},
	EnvPrefix + "GDB_ARGS": func(c *Config, v string) error {
		c.GDB.Args = strings.Fields(v)
		return nil
	},
	EnvPrefix + "TARGET": func(c *Config, v string) error {
		c.GDB.Target = v
		return nil
	},
	EnvPrefix + "CONNECT_TIMEOUT": func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.GDB.ConnectTimeout = Duration(d)
		return nil
	},
	EnvPrefix + "LOG_LEVEL": func(c *Config, v string) error {
		c.Engine.LogLevel = v
		return nil
	},
	EnvPrefix + "STACK_DEPTH": func(c *Config, v string) error {
		return setInt(&c.Engine.StackDepth, v)
	},
	EnvPrefix + "DISASM_WINDOW": func(c *Config, v string) error {
		return setInt(&c.Engine.DisasmWindow, v)
	},
	EnvPrefix + "HOOKS_SCRIPT": func(c *Config, v string) error {
		c.Hooks.Script = v
		return nil
	},
	EnvPrefix + "VIEWS": func(c *Config, v string) error {
		c.Views = splitList(v)
		return nil
	},
}

// EnvVars returns the names of the recognised environment variables, sorted.
func EnvVars() []string {
	names := make([]string, 0, len(envSetters))
	for name := range envSetters {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// applyEnv overrides fields from the environment. Empty values count as set.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	for _, name := range EnvVars() {
		v, ok := lookup(name)
		if !ok {
			continue
		}
		if err := envSetters[name](cfg, v); err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidValue, name, v, err)
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
