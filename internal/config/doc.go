// Package config provides the gdbmi configuration.
//
// Settings come from three places, later ones overriding earlier ones:
//
//  1. Built-in defaults (Default)
//  2. A configuration file, TOML or YAML chosen by extension
//  3. GDBMI_* environment variables
//
// Command-line flags are applied by the caller on top of the result.
//
// # File format
//
//	[gdb]
//	path = "gdb"
//	args = ["-nx"]
//	init_commands = ["-gdb-set pagination off"]
//	target = "localhost:1234"
//	connect_timeout = "10s"
//
//	[engine]
//	log_level = "info"
//	stack_depth = 32
//	disasm_window = 64
//
//	[hooks]
//	script = "~/.config/gdbmi/hooks.lua"
//
// A Watcher reloads the file when it changes on disk.
package config
